package gallery

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"galleryscraper/internal/config"
	"galleryscraper/internal/store"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testInteractConfig() config.InteractConfig {
	return config.InteractConfig{
		OpenSettle:     time.Millisecond,
		CloseSettle:    time.Millisecond,
		ExtractRetries: 3,
		ModalTimeout:   time.Second,
	}
}

func newTestCycle() *Cycle {
	c := NewCycle(testInteractConfig(), testLogger)
	c.sleep = func(time.Duration) {}
	return c
}

// fakeDriver scripts per-item behavior for the cycle.
type fakeDriver struct {
	count       int
	tileURLs    map[int]string
	sourceIDs   map[int]string
	openErr     map[int]error
	extractions map[int][]Extraction
	closeOK     bool

	current      int
	extractCalls map[int]int
	reopens      map[int]int
	closes       int
}

func newFakeDriver(count int) *fakeDriver {
	return &fakeDriver{
		count:        count,
		tileURLs:     map[int]string{},
		sourceIDs:    map[int]string{},
		openErr:      map[int]error{},
		extractions:  map[int][]Extraction{},
		closeOK:      true,
		extractCalls: map[int]int{},
		reopens:      map[int]int{},
	}
}

func (d *fakeDriver) Count() int                 { return d.count }
func (d *fakeDriver) ScrollIntoView(i int) error { return nil }
func (d *fakeDriver) TileMediaURL(i int) string  { return d.tileURLs[i] }
func (d *fakeDriver) SourceID(i int) string      { return d.sourceIDs[i] }

func (d *fakeDriver) Open(i int) error {
	if err := d.openErr[i]; err != nil {
		return err
	}
	d.current = i
	return nil
}

func (d *fakeDriver) Reopen(i int) error {
	d.reopens[i]++
	return d.Open(i)
}

func (d *fakeDriver) Extract() Extraction {
	i := d.current
	seq := d.extractions[i]
	call := d.extractCalls[i]
	d.extractCalls[i]++
	if len(seq) == 0 {
		return Extraction{}
	}
	if call >= len(seq) {
		return seq[len(seq)-1]
	}
	return seq[call]
}

func (d *fakeDriver) Close() bool {
	d.closes++
	return d.closeOK
}

func TestCycleEveryItemYieldsRecord(t *testing.T) {
	drv := newFakeDriver(3)
	drv.extractions[1] = []Extraction{{MediaURL: "https://cdn.example.com/1.mp4", Prompt: "prompt one"}}
	drv.extractions[2] = []Extraction{{MediaURL: "https://cdn.example.com/2.mp4", Prompt: "prompt two"}}
	drv.extractions[3] = []Extraction{{MediaURL: "https://cdn.example.com/3.mp4", Prompt: "prompt three"}}

	result := newTestCycle().Run(context.Background(), drv, []int{3, 2, 1})

	if len(result.Records) != 3 || result.Skipped != 0 {
		t.Fatalf("records=%d skipped=%d", len(result.Records), result.Skipped)
	}
	// Processing order is honored.
	if result.Records[0].MediaURL != "https://cdn.example.com/3.mp4" {
		t.Errorf("first record: %+v", result.Records[0])
	}
	if result.Records[0].SourceIndex != 3 {
		t.Errorf("source index: %d", result.Records[0].SourceIndex)
	}
	if drv.closes != 3 {
		t.Errorf("closes = %d, want 3", drv.closes)
	}
}

func TestCycleDuplicateRetriesUntilUnique(t *testing.T) {
	drv := newFakeDriver(2)
	drv.extractions[1] = []Extraction{{MediaURL: "https://cdn.example.com/1.mp4", Prompt: "one"}}
	// Item 2 serves item 1's URL first, the real one after a reopen.
	drv.extractions[2] = []Extraction{
		{MediaURL: "https://cdn.example.com/1.mp4", Prompt: "stale"},
		{MediaURL: "https://cdn.example.com/2.mp4", Prompt: "two"},
	}

	result := newTestCycle().Run(context.Background(), drv, []int{1, 2})

	if len(result.Records) != 2 {
		t.Fatalf("records = %d", len(result.Records))
	}
	if result.Records[1].MediaURL != "https://cdn.example.com/2.mp4" {
		t.Errorf("second record kept stale URL: %+v", result.Records[1])
	}
	if drv.reopens[2] != 1 {
		t.Errorf("reopens = %d, want 1", drv.reopens[2])
	}
}

func TestCycleDuplicateExhaustedKeepsLast(t *testing.T) {
	drv := newFakeDriver(2)
	drv.extractions[1] = []Extraction{{MediaURL: "https://cdn.example.com/1.mp4", Prompt: "one"}}
	drv.extractions[2] = []Extraction{{MediaURL: "https://cdn.example.com/1.mp4", Prompt: "always stale"}}

	result := newTestCycle().Run(context.Background(), drv, []int{1, 2})

	// Both items still yield a record; the file store dedups later.
	if len(result.Records) != 2 {
		t.Fatalf("records = %d", len(result.Records))
	}
	if drv.extractCalls[2] != 3 {
		t.Errorf("extract calls for item 2 = %d, want 3", drv.extractCalls[2])
	}
}

func TestCyclePlaceholderSynthesis(t *testing.T) {
	drv := newFakeDriver(2)
	drv.sourceIDs[1] = "abc123def456"
	// Neither item yields a URL or prompt.

	result := newTestCycle().Run(context.Background(), drv, []int{1, 2})

	if len(result.Records) != 2 {
		t.Fatalf("records = %d", len(result.Records))
	}
	if result.Records[0].MediaURL != store.PlaceholderPrefix+"abc123def456" {
		t.Errorf("identifier placeholder: %+v", result.Records[0])
	}
	if result.Records[1].MediaURL != store.PlaceholderPrefix+"2" {
		t.Errorf("index placeholder: %+v", result.Records[1])
	}
	for _, r := range result.Records {
		if r.Prompt != store.NoPromptSentinel {
			t.Errorf("prompt sentinel missing: %+v", r)
		}
		if !r.IsPlaceholder() {
			t.Errorf("record not recognized as placeholder: %+v", r)
		}
	}
}

func TestCycleSkipsUnopenableItem(t *testing.T) {
	drv := newFakeDriver(2)
	drv.openErr[1] = ErrNoClickTarget
	drv.extractions[2] = []Extraction{{MediaURL: "https://cdn.example.com/2.mp4", Prompt: "two"}}

	result := newTestCycle().Run(context.Background(), drv, []int{1, 2})

	if result.Skipped != 1 || len(result.Records) != 1 {
		t.Fatalf("records=%d skipped=%d", len(result.Records), result.Skipped)
	}
}

func TestCycleTileURLFastPath(t *testing.T) {
	drv := newFakeDriver(1)
	drv.tileURLs[1] = "https://cdn.example.com/tile.jpg"
	drv.extractions[1] = []Extraction{{MediaURL: "https://cdn.example.com/modal.jpg", Prompt: "the real prompt text here"}}

	result := newTestCycle().Run(context.Background(), drv, []int{1})

	if len(result.Records) != 1 {
		t.Fatalf("records = %d", len(result.Records))
	}
	// Tile URL wins; the detail view only contributes the prompt.
	if result.Records[0].MediaURL != "https://cdn.example.com/tile.jpg" {
		t.Errorf("media URL: %+v", result.Records[0])
	}
	if result.Records[0].Prompt != "the real prompt text here" {
		t.Errorf("prompt: %+v", result.Records[0])
	}
	if drv.extractCalls[1] != 1 {
		t.Errorf("extract calls = %d, want 1", drv.extractCalls[1])
	}
}

func TestCycleCloseFailureIsNonFatal(t *testing.T) {
	drv := newFakeDriver(1)
	drv.closeOK = false
	drv.extractions[1] = []Extraction{{MediaURL: "https://cdn.example.com/1.mp4", Prompt: "one"}}

	result := newTestCycle().Run(context.Background(), drv, []int{1})
	if len(result.Records) != 1 {
		t.Fatalf("close failure dropped the record")
	}
}

func TestCycleCancellationStopsBetweenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	drv := newFakeDriver(3)
	result := newTestCycle().Run(ctx, drv, []int{1, 2, 3})
	if len(result.Records) != 0 || drv.closes != 0 {
		t.Errorf("cancelled run did work: %+v", result)
	}
}

func TestReverseOrder(t *testing.T) {
	got := ReverseOrder(4)
	want := []int{4, 3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ReverseOrder(4) = %v", got)
		}
	}
	if len(ReverseOrder(0)) != 0 {
		t.Error("ReverseOrder(0) should be empty")
	}
}

func TestSourceIDPattern(t *testing.T) {
	cases := []struct {
		href string
		want string
	}{
		{"https://example.com/job/3f2a1b4c-9d8e-4f17-a2b3-c4d5e6f7a8b9", "3f2a1b4c-9d8e-4f17-a2b3-c4d5e6f7a8b9"},
		{"https://example.com/job/deadbeef01", "deadbeef01"},
		{"https://example.com/gallery/page", ""},
		{"", ""},
	}
	for _, tc := range cases {
		got := ""
		if m := sourceIDRe.FindStringSubmatch(strings.TrimRight(tc.href, "/")); m != nil {
			got = m[1]
		}
		if got != tc.want {
			t.Errorf("sourceID(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}
