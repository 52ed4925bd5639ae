package store

import (
	"encoding/json"
	"os"
	"strings"
)

// NoPromptSentinel is recorded when no prompt text could be extracted.
const NoPromptSentinel = "No prompt found"

// PlaceholderPrefix marks synthesized media URLs for items whose real URL
// could not be recovered. Placeholders preserve record cardinality: every
// opened item yields a record even on total extraction failure.
const PlaceholderPrefix = "placeholder_media_"

// MediaRecord is one extracted gallery item.
type MediaRecord struct {
	MediaURL string `json:"media_url"`
	Prompt   string `json:"prompt"`

	// SourceIndex is the 1-based position in enumeration order and
	// SourceID a stable identifier recovered from the item's link.
	// Both are provenance only and are stripped before persistence.
	SourceIndex int    `json:"source_index,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
}

// IsPlaceholder reports whether the record's URL is a synthesized stand-in.
func (r MediaRecord) IsPlaceholder() bool {
	return strings.HasPrefix(r.MediaURL, PlaceholderPrefix)
}

// flatMap returns the persisted fields as a flat string map for CSV export.
func (r MediaRecord) flatMap() map[string]string {
	return map[string]string{
		"media_url": r.MediaURL,
		"prompt":    r.Prompt,
	}
}

// stripped returns the record without provenance fields.
func (r MediaRecord) stripped() MediaRecord {
	return MediaRecord{MediaURL: r.MediaURL, Prompt: r.Prompt}
}

// Dedup removes records whose MediaURL duplicates an earlier record's,
// preserving order. Records with empty or placeholder URLs never collide
// with each other and are all retained: a placeholder is a synthesized
// stand-in, not a real asset identity, so token equality proves nothing.
func Dedup(records []MediaRecord) []MediaRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]MediaRecord, 0, len(records))
	for _, r := range records {
		if r.MediaURL == "" || r.IsPlaceholder() {
			out = append(out, r)
			continue
		}
		if _, ok := seen[r.MediaURL]; ok {
			continue
		}
		seen[r.MediaURL] = struct{}{}
		out = append(out, r)
	}
	return out
}

// decodeRecords parses a records.json payload. The file is a JSON array of
// record objects; anything else is a format error.
func decodeRecords(data []byte) ([]MediaRecord, error) {
	var records []MediaRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ReadRecords parses a record file at an explicit path.
func ReadRecords(path string) ([]MediaRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeRecords(data)
}
