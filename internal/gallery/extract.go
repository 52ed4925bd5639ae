package gallery

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
)

// Extraction is the best-effort result of reading one open detail view.
// Empty fields mean "not found"; extraction itself never fails.
type Extraction struct {
	MediaURL string
	Prompt   string
}

// modalSelectors locate the detail-view overlay, most specific first.
var modalSelectors = []string{
	`[role='dialog']`,
	`.modal`,
	`.popup`,
	`[data-modal]`,
	`[data-testid*='modal']`,
	`[data-testid*='dialog']`,
	`[class*='Modal']`,
	`[class*='Dialog']`,
}

// promptSelectors target known "copy prompt" controls and description
// containers inside the detail view.
var promptSelectors = []string{
	`[data-copy-prompt]`,
	`button[class*='text-left']`,
	`[data-testid*='prompt']`,
	`[class*='prompt']`,
	`[class*='description']`,
	`[class*='caption']`,
	`.description`,
	`p`,
}

// chromeKeywords are UI labels that disqualify a text line from being the
// prompt.
var chromeKeywords = []string{
	"close", "share", "download", "like", "save",
	"follow", "subscribe", "view", "play",
}

var (
	srcsetEntryRe = regexp.MustCompile(`(https?://\S+)\s+(\d+)w`)
	bgImageRe     = regexp.MustCompile(`background-image:\s*url\(["']?(.*?)["']?\)`)
)

// Extractor reads the media URL and prompt text out of an open detail view
// using prioritized selector/attribute cascades.
type Extractor struct {
	modalTimeout time.Duration
	minPromptLen int
	logger       *slog.Logger
	sleep        func(time.Duration)
}

// NewExtractor creates an Extractor.
func NewExtractor(modalTimeout time.Duration, minPromptLen int, logger *slog.Logger) *Extractor {
	return &Extractor{
		modalTimeout: modalTimeout,
		minPromptLen: minPromptLen,
		logger:       logger.With("component", "extractor"),
		sleep:        time.Sleep,
	}
}

// Extract locates the detail-view container and pulls out a media URL and
// prompt. On total failure it returns zero values, never an error.
func (x *Extractor) Extract(page *rod.Page) Extraction {
	modal := x.findModal(page)
	if modal == nil {
		x.logger.Warn("no modal container found, extracting from page body")
		body, err := page.Element("body")
		if err != nil {
			return Extraction{}
		}
		modal = body
	}

	return Extraction{
		MediaURL: x.mediaURL(modal),
		Prompt:   x.prompt(modal),
	}
}

// findModal polls the modal selector cascade until the timeout elapses.
func (x *Extractor) findModal(page *rod.Page) *rod.Element {
	deadline := time.Now().Add(x.modalTimeout)
	for {
		for _, sel := range modalSelectors {
			els, err := page.Elements(sel)
			if err != nil || len(els) == 0 {
				continue
			}
			x.logger.Debug("modal found", "selector", sel)
			return els.First()
		}
		if time.Now().After(deadline) {
			return nil
		}
		x.sleep(500 * time.Millisecond)
	}
}

// mediaURL runs the URL extraction cascade: direct source, responsive
// source set, deferred lazy-load attribute, inline background image.
func (x *Extractor) mediaURL(modal *rod.Element) string {
	// 1. Direct media element sources.
	if url := x.attrCascade(modal, `video[src], video source[src], img[src]`, "src"); url != "" {
		x.logger.Debug("media URL from src", "url", url)
		return url
	}

	// 2. Highest-resolution srcset entry.
	if els, err := modal.Elements(`img[srcset], source[srcset]`); err == nil {
		for _, el := range els {
			srcset := attr(el, "srcset")
			if url := BestSrcsetURL(srcset); url != "" {
				x.logger.Debug("media URL from srcset", "url", url)
				return url
			}
		}
	}

	// 3. Lazy-load deferred attributes.
	for _, a := range []string{"data-video-url", "data-src"} {
		if url := x.attrCascade(modal, `[`+a+`]`, a); url != "" {
			x.logger.Debug("media URL from deferred attribute", "attr", a, "url", url)
			return url
		}
	}

	// 4. Inline background-image declarations.
	if els, err := modal.Elements(`[style*='background-image']`); err == nil {
		for _, el := range els {
			if url := BackgroundImageURL(attr(el, "style")); ValidMediaURL(url) {
				x.logger.Debug("media URL from background-image", "url", url)
				return url
			}
		}
	}

	return ""
}

// attrCascade returns the first valid media URL among the named attribute
// of all elements matching selector.
func (x *Extractor) attrCascade(modal *rod.Element, selector, attrName string) string {
	els, err := modal.Elements(selector)
	if err != nil {
		return ""
	}
	for _, el := range els {
		if url := attr(el, attrName); ValidMediaURL(url) {
			return url
		}
	}
	return ""
}

// prompt runs the prompt cascade: known selectors first, then a line scan
// over all visible modal text. Prompt containers are not reliably
// distinguishable by markup alone, hence the generic fallback.
func (x *Extractor) prompt(modal *rod.Element) string {
	for _, sel := range promptSelectors {
		els, err := modal.Elements(sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			text, err := el.Text()
			if err != nil {
				continue
			}
			text = strings.TrimSpace(text)
			if IsPromptText(text, x.minPromptLen) {
				x.logger.Debug("prompt found", "selector", sel)
				return text
			}
		}
	}

	all, err := modal.Text()
	if err != nil {
		return ""
	}
	if line := FirstPromptLine(all, x.minPromptLen); line != "" {
		x.logger.Debug("prompt found via line scan")
		return line
	}
	return ""
}

func attr(el *rod.Element, name string) string {
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}

// ValidMediaURL reports whether s is an absolute http(s) URL that is
// neither a vector graphic nor a transient blob object.
func ValidMediaURL(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	if strings.HasSuffix(s, ".svg") {
		return false
	}
	if strings.Contains(s, "blob:") {
		return false
	}
	return true
}

// BestSrcsetURL parses a responsive srcset attribute and returns the URL
// of the widest entry, or "" when nothing parses.
func BestSrcsetURL(srcset string) string {
	matches := srcsetEntryRe.FindAllStringSubmatch(srcset, -1)
	best := ""
	bestWidth := -1
	for _, m := range matches {
		w, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if w > bestWidth && ValidMediaURL(m[1]) {
			best = m[1]
			bestWidth = w
		}
	}
	return best
}

// BackgroundImageURL extracts the URL from an inline background-image
// style declaration, or returns "".
func BackgroundImageURL(style string) string {
	m := bgImageRe.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsPromptText reports whether text is long enough to be a prompt and does
// not start with a UI-chrome keyword.
func IsPromptText(text string, minLen int) bool {
	if len(text) <= minLen {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range chromeKeywords {
		if strings.HasPrefix(lower, kw) {
			return false
		}
	}
	return true
}

// FirstPromptLine scans visible text line by line and returns the first
// line that qualifies as prompt text.
func FirstPromptLine(text string, minLen int) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if IsPromptText(line, minLen) {
			return line
		}
	}
	return ""
}
