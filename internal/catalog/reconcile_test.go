package catalog

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"galleryscraper/internal/store"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// buildCategory writes one category directory with an index and optional
// per-subsection record files.
func buildCategory(t *testing.T, root, dirName, index string, records map[string]string) {
	t.Helper()
	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, IndexFileName), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}
	for sub, content := range records {
		subDir := filepath.Join(dir, sub)
		if err := os.MkdirAll(subDir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(subDir, store.JSONFileName), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReconcilePerCategoryLayout(t *testing.T) {
	root := t.TempDir()
	index := `{
  "category_name": "Animals",
  "sub_categories": [
    {"name": "Cats", "link": "https://example.com/g/cats"},
    {"name": "Dogs", "link": "https://example.com/g/dogs"},
    {"name": "Birds", "link": "https://example.com/g/birds"},
    {"name": "Nameless", "link": ""}
  ]
}`
	buildCategory(t, root, "animals", index, map[string]string{
		// Populated: above the threshold of 2, stays out of the worklist.
		"Cats": `[{"media_url":"u1","prompt":"p"},{"media_url":"u2","prompt":"p"},{"media_url":"u3","prompt":"p"}]`,
		// Single item: re-enters the worklist.
		"Dogs": `[{"media_url":"u1","prompt":"p"}]`,
		// Birds has no record file at all.
	})

	st := store.NewFileStore(2, testLogger)
	worklist, err := NewReconciler(st, testLogger).Reconcile(root)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if len(worklist) != 2 {
		t.Fatalf("expected 2 worklist entries, got %d: %v", len(worklist), worklist)
	}
	// Catalog order is preserved.
	if worklist[0].Subsection != "Dogs" || worklist[0].Status != store.StatusSingleItem {
		t.Errorf("first entry: %+v", worklist[0])
	}
	if worklist[1].Subsection != "Birds" || worklist[1].Status != store.StatusMissing {
		t.Errorf("second entry: %+v", worklist[1])
	}
	if worklist[0].Category != "Animals" {
		t.Errorf("category = %q", worklist[0].Category)
	}
	if worklist[1].TargetDir != filepath.Join(root, "animals", "Birds") {
		t.Errorf("target dir = %q", worklist[1].TargetDir)
	}
}

func TestReconcileRootLayout(t *testing.T) {
	root := t.TempDir()
	index := `{
  "category_name": "Single",
  "sub_categories": [
    {"name": "Only", "link": "https://example.com/g/only"}
  ]
}`
	if err := os.WriteFile(filepath.Join(root, IndexFileName), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}

	st := store.NewFileStore(2, testLogger)
	worklist, err := NewReconciler(st, testLogger).Reconcile(root)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(worklist) != 1 || worklist[0].Subsection != "Only" {
		t.Fatalf("worklist: %v", worklist)
	}
	if worklist[0].TargetDir != filepath.Join(root, "Only") {
		t.Errorf("target dir = %q", worklist[0].TargetDir)
	}
}

func TestReconcileSkipsDirsWithoutIndex(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "stray"), 0o755); err != nil {
		t.Fatal(err)
	}

	st := store.NewFileStore(2, testLogger)
	worklist, err := NewReconciler(st, testLogger).Reconcile(root)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(worklist) != 0 {
		t.Errorf("expected empty worklist, got %v", worklist)
	}
}

func TestUpdateCounts(t *testing.T) {
	root := t.TempDir()
	index := `{
  "category_name": "Animals",
  "sub_categories": [
    {"name": "Cats", "link": "https://example.com/g/cats", "item_count": 0},
    {"name": "Dogs", "link": "https://example.com/g/dogs"}
  ]
}`
	buildCategory(t, root, "animals", index, map[string]string{
		"Cats": `[{"media_url":"u1","prompt":"p"},{"media_url":"u2","prompt":"p"},{"media_url":"u3","prompt":"p"}]`,
	})

	st := store.NewFileStore(2, testLogger)
	summary, err := NewUpdater(st, testLogger).UpdateCounts(root)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if summary.IndexesUpdated != 1 || summary.EntriesUpdated != 2 {
		t.Errorf("summary: %+v", summary)
	}

	ix, err := LoadIndex(filepath.Join(root, "animals", IndexFileName))
	if err != nil {
		t.Fatal(err)
	}
	subs := ix.Subsections()
	if subs[0].ItemCount != 3 {
		t.Errorf("Cats count = %d, want 3", subs[0].ItemCount)
	}
	if subs[1].ItemCount != 0 || !subs[1].HasCount {
		t.Errorf("Dogs should be recorded as zero: %+v", subs[1])
	}
}
