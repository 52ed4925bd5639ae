package analyze

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const galleryHTML = `<!DOCTYPE html>
<html>
<head><title>Fantasy Gallery</title></head>
<body>
  <div class="grid gap-4">
    <figure class="group tile"><a href="/job/3f2a1b4c-9d8e-4f17-a2b3-c4d5e6f7a8b9"><img src="https://cdn.example.com/1.jpg"></a></figure>
    <figure class="group tile"><a href="/job/deadbeef01"><img src="https://cdn.example.com/2.jpg"></a></figure>
    <figure class="group tile"><video src="https://cdn.example.com/3.mp4"></video></figure>
  </div>
  <div class="banner" style="background-image: url('https://cdn.example.com/bg.jpg')"></div>
</body>
</html>`

func TestAnalyzeProbes(t *testing.T) {
	rep, err := NewAnalyzer(testLogger).Analyze(strings.NewReader(galleryHTML))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if rep.Title != "Fantasy Gallery" {
		t.Errorf("title = %q", rep.Title)
	}

	counts := map[string]int{}
	for _, p := range rep.Probes {
		counts[p.Kind+" "+p.Expr] = p.Count
	}

	if counts[`css a[href*='/job/']`] != 2 {
		t.Errorf("detail link probe = %d, want 2", counts[`css a[href*='/job/']`])
	}
	if counts[`css figure[class*='group']`] != 3 {
		t.Errorf("figure probe = %d, want 3", counts[`css figure[class*='group']`])
	}
	if counts[`css [style*='background-image']`] != 1 {
		t.Errorf("background probe = %d, want 1", counts[`css [style*='background-image']`])
	}
	if counts[`xpath //img/ancestor::a[1]`] != 2 {
		t.Errorf("xpath anchor probe = %d, want 2", counts[`xpath //img/ancestor::a[1]`])
	}
}

func TestAnalyzeBestAndClasses(t *testing.T) {
	rep, err := NewAnalyzer(testLogger).Analyze(strings.NewReader(galleryHTML))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	best := rep.Best()
	if best == nil || best.Count == 0 {
		t.Fatal("expected a best probe")
	}

	found := false
	for _, c := range rep.TopClasses {
		if c.Class == "tile" && c.Count == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("class counts missing tile=3: %+v", rep.TopClasses)
	}
}

func TestAnalyzeEmptyPage(t *testing.T) {
	rep, err := NewAnalyzer(testLogger).Analyze(strings.NewReader(`<html><body><p>nothing here</p></body></html>`))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if best := rep.Best(); best != nil {
		t.Errorf("expected no best probe, got %+v", best)
	}
}

func TestFormatMarksBestProbe(t *testing.T) {
	rep, err := NewAnalyzer(testLogger).Analyze(strings.NewReader(galleryHTML))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out := Format(rep)
	if !strings.Contains(out, "Fantasy Gallery") {
		t.Error("formatted output missing title")
	}
	if !strings.Contains(out, "*") {
		t.Error("formatted output missing best-probe marker")
	}
}
