package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

const (
	// JSONFileName and CSVFileName are the per-subsection output pair.
	JSONFileName = "records.json"
	CSVFileName  = "records.csv"
)

// Status classifies a subsection's persisted record state.
type Status string

const (
	StatusMissing    Status = "missing"
	StatusEmpty      Status = "empty"
	StatusSingleItem Status = "single_item"
	StatusInvalid    Status = "invalid"
	StatusPopulated  Status = "populated"
)

// NeedsScrape reports whether the status should enter the worklist.
// Unparsable state is treated like missing state: it is always safer to
// rescrape than to trust it.
func (s Status) NeedsScrape() bool {
	return s != StatusPopulated
}

// FileStore persists per-subsection record sets as a records.json /
// records.csv pair, overwritten wholesale on each save.
type FileStore struct {
	logger *slog.Logger

	// PopulatedThreshold is the count above which a subsection counts as
	// complete. Counts in [1, threshold] classify as single_item.
	PopulatedThreshold int
}

// NewFileStore creates a FileStore with the given populated threshold.
func NewFileStore(populatedThreshold int, logger *slog.Logger) *FileStore {
	return &FileStore{
		logger:             logger.With("component", "file_store"),
		PopulatedThreshold: populatedThreshold,
	}
}

// Save deduplicates records, strips provenance fields, and overwrites the
// subsection's records.json and records.csv under dir.
func (fs *FileStore) Save(dir string, records []MediaRecord) error {
	if len(records) == 0 {
		fs.logger.Warn("no records to save", "dir", dir)
		return nil
	}

	unique := Dedup(records)
	if removed := len(records) - len(unique); removed > 0 {
		fs.logger.Info("removed duplicate records", "dir", dir, "removed", removed)
	}

	stripped := make([]MediaRecord, len(unique))
	for i, r := range unique {
		stripped[i] = r.stripped()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := fs.writeJSON(filepath.Join(dir, JSONFileName), stripped); err != nil {
		return err
	}
	if err := fs.writeCSV(filepath.Join(dir, CSVFileName), stripped); err != nil {
		return err
	}

	fs.logger.Info("records written", "dir", dir, "count", len(stripped))
	return nil
}

func (fs *FileStore) writeJSON(path string, records []MediaRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func (fs *FileStore) writeCSV(path string, records []MediaRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	// Header is the sorted union of field names across all rows.
	headerSet := make(map[string]struct{})
	flats := make([]map[string]string, len(records))
	for i, r := range records {
		flat := r.flatMap()
		flats[i] = flat
		for k := range flat {
			headerSet[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(headerSet))
	for k := range headerSet {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	if err := w.Write(headers); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	row := make([]string, len(headers))
	for _, flat := range flats {
		for i, h := range headers {
			row[i] = flat[h]
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// Load reads a subsection's records.json.
func (fs *FileStore) Load(dir string) ([]MediaRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, JSONFileName))
	if err != nil {
		return nil, err
	}
	return decodeRecords(data)
}

// Classify reports the subsection's scrape status and current record count.
func (fs *FileStore) Classify(dir string) (Status, int) {
	data, err := os.ReadFile(filepath.Join(dir, JSONFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return StatusMissing, 0
		}
		fs.logger.Warn("unreadable record file", "dir", dir, "error", err)
		return StatusInvalid, 0
	}

	records, err := decodeRecords(data)
	if err != nil {
		fs.logger.Warn("unparsable record file", "dir", dir, "error", err)
		return StatusInvalid, 0
	}

	count := len(records)
	switch {
	case count == 0:
		return StatusEmpty, 0
	case count <= fs.PopulatedThreshold:
		return StatusSingleItem, count
	default:
		return StatusPopulated, count
	}
}
