// Package catalog reads and reconciles the persisted gallery catalog: one
// metadata.json index per category listing its subsections and source URLs.
// Index entries are authored externally; the only field this package ever
// writes back is the per-subsection item count.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// IndexFileName is the per-category catalog index file.
const IndexFileName = "metadata.json"

// Subsection is one entry of a category index.
type Subsection struct {
	Name      string
	Link      string
	ItemCount int
	HasCount  bool
}

// Index is a loaded category index. The document is kept as generic JSON so
// that saving preserves fields this tool does not model.
type Index struct {
	path string
	doc  map[string]any
}

// LoadIndex reads and parses a category index file.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &Index{path: path, doc: doc}, nil
}

// Path returns the file the index was loaded from.
func (ix *Index) Path() string { return ix.path }

// CategoryName returns the category_name field, or fallback if absent.
func (ix *Index) CategoryName(fallback string) string {
	if name, ok := ix.doc["category_name"].(string); ok && name != "" {
		return name
	}
	return fallback
}

// Subsections returns the typed view of the sub_categories array. Entries
// that are not objects are skipped.
func (ix *Index) Subsections() []Subsection {
	raw, _ := ix.doc["sub_categories"].([]any)
	subs := make([]Subsection, 0, len(raw))
	for _, v := range raw {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		sub := Subsection{}
		sub.Name, _ = entry["name"].(string)
		sub.Link, _ = entry["link"].(string)
		if count, ok := entry["item_count"].(float64); ok {
			sub.ItemCount = int(count)
			sub.HasCount = true
		}
		subs = append(subs, sub)
	}
	return subs
}

// SetItemCount updates the item_count field of the named subsection,
// leaving every other field untouched. Names match exactly or modulo
// whitespace, mirroring on-disk directory name variations.
func (ix *Index) SetItemCount(name string, count int) bool {
	entry := ix.findEntry(name)
	if entry == nil {
		return false
	}
	entry["item_count"] = count
	return true
}

// RemoveFields strips the named fields from every subsection entry and
// returns the number of fields removed.
func (ix *Index) RemoveFields(fields ...string) int {
	raw, _ := ix.doc["sub_categories"].([]any)
	removed := 0
	for _, v := range raw {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		for _, f := range fields {
			if _, present := entry[f]; present {
				delete(entry, f)
				removed++
			}
		}
	}
	return removed
}

// Save writes the index back to its file, preserving unmodeled fields.
func (ix *Index) Save() error {
	f, err := os.Create(ix.path)
	if err != nil {
		return fmt.Errorf("write %s: %w", ix.path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ix.doc); err != nil {
		return fmt.Errorf("encode %s: %w", ix.path, err)
	}
	return nil
}

func (ix *Index) findEntry(name string) map[string]any {
	raw, _ := ix.doc["sub_categories"].([]any)
	normalized := normalizeName(name)
	for _, v := range raw {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		entryName, _ := entry["name"].(string)
		if entryName == name || normalizeName(entryName) == normalized {
			return entry
		}
	}
	return nil
}

func normalizeName(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
