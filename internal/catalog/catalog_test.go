package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const testIndex = `{
  "category_name": "Landscapes",
  "curator": "someone",
  "sub_categories": [
    {"name": "Mountains", "link": "https://example.com/g/mountains", "item_count": 14, "notes": "keep me"},
    {"name": "Rivers And Lakes", "link": "https://example.com/g/rivers"},
    {"name": "Deserts", "link": ""}
  ]
}`

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), IndexFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadIndexSubsections(t *testing.T) {
	ix, err := LoadIndex(writeIndex(t, testIndex))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := ix.CategoryName("fallback"); got != "Landscapes" {
		t.Errorf("category name = %q", got)
	}

	subs := ix.Subsections()
	if len(subs) != 3 {
		t.Fatalf("expected 3 subsections, got %d", len(subs))
	}
	if !subs[0].HasCount || subs[0].ItemCount != 14 {
		t.Errorf("first subsection count: %+v", subs[0])
	}
	if subs[1].HasCount {
		t.Errorf("second subsection should have no count: %+v", subs[1])
	}
}

func TestCategoryNameFallback(t *testing.T) {
	ix, err := LoadIndex(writeIndex(t, `{"sub_categories": []}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := ix.CategoryName("dir-name"); got != "dir-name" {
		t.Errorf("fallback = %q", got)
	}
}

func TestSetItemCountPreservesSiblingFields(t *testing.T) {
	ix, err := LoadIndex(writeIndex(t, testIndex))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !ix.SetItemCount("Mountains", 27) {
		t.Fatal("expected Mountains to match")
	}
	if err := ix.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(ix.Path())
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("reparse: %v", err)
	}

	if doc["curator"] != "someone" {
		t.Error("top-level sibling field lost")
	}
	subs := doc["sub_categories"].([]any)
	first := subs[0].(map[string]any)
	if first["notes"] != "keep me" {
		t.Error("entry-level sibling field lost")
	}
	if first["item_count"] != float64(27) {
		t.Errorf("item_count = %v", first["item_count"])
	}
	if first["link"] != "https://example.com/g/mountains" {
		t.Error("link field lost")
	}
}

func TestSetItemCountWhitespaceInsensitive(t *testing.T) {
	ix, err := LoadIndex(writeIndex(t, testIndex))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ix.SetItemCount("RiversAndLakes", 5) {
		t.Error("whitespace-normalized name should match")
	}
	if ix.SetItemCount("Oceans", 1) {
		t.Error("unknown name must not match")
	}
}

func TestRemoveFields(t *testing.T) {
	ix, err := LoadIndex(writeIndex(t, testIndex))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	removed := ix.RemoveFields("notes", "absent")
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	subs := ix.Subsections()
	if len(subs) != 3 {
		t.Errorf("subsection count changed: %d", len(subs))
	}
}
