package gallery

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// sourceIDRe matches a UUID or long hex identifier path segment in a
// detail-link href.
var sourceIDRe = regexp.MustCompile(`/([a-f0-9-]{36}|[a-f0-9]{8,})/?$`)

// closeSelectors locate the detail view's dismiss control.
var closeSelectors = []string{
	`[aria-label='Close']`,
	`[aria-label='close']`,
	`button[class*='close']`,
	`[data-testid*='close']`,
	`.modal-close`,
	`[class*='CloseButton']`,
}

// backdropSelectors locate the dimmed layer behind the detail view, which
// dismisses the view when clicked.
var backdropSelectors = []string{
	`[class*='overlay']`,
	`[class*='backdrop']`,
	`[class*='Overlay']`,
	`[class*='Backdrop']`,
}

// RodDriver adapts a live page and its enumerated item elements to the
// ItemDriver interface.
type RodDriver struct {
	page      *rod.Page
	items     []*rod.Element
	extractor *Extractor
	logger    *slog.Logger
	sleep     func(time.Duration)
}

// NewRodDriver wraps an enumerated item set on a live page.
func NewRodDriver(page *rod.Page, items []*rod.Element, extractor *Extractor, logger *slog.Logger) *RodDriver {
	return &RodDriver{
		page:      page,
		items:     items,
		extractor: extractor,
		logger:    logger.With("component", "item_driver"),
		sleep:     time.Sleep,
	}
}

// Count implements ItemDriver.
func (d *RodDriver) Count() int { return len(d.items) }

// ScrollIntoView implements ItemDriver.
func (d *RodDriver) ScrollIntoView(i int) error {
	el, err := d.item(i)
	if err != nil {
		return err
	}
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	d.sleep(500 * time.Millisecond)
	return nil
}

// TileMediaURL implements ItemDriver. It looks for a media source directly
// on the tile so the detail view is only needed for the prompt.
func (d *RodDriver) TileMediaURL(i int) string {
	el, err := d.item(i)
	if err != nil {
		return ""
	}
	if media, err := el.Element(`video[src], video source[src], img[src]`); err == nil {
		if url := attr(media, "src"); ValidMediaURL(url) {
			return url
		}
	}
	if media, err := el.Element(`img[srcset], source[srcset]`); err == nil {
		if url := BestSrcsetURL(attr(media, "srcset")); url != "" {
			return url
		}
	}
	return ""
}

// SourceID implements ItemDriver. The identifier comes from the item's
// detail-link href when one exists, else from common data attributes.
func (d *RodDriver) SourceID(i int) string {
	el, err := d.item(i)
	if err != nil {
		return ""
	}
	href := attr(el, "href")
	if href == "" {
		if link, err := el.Element(`a[href]`); err == nil {
			href = attr(link, "href")
		}
	}
	if m := sourceIDRe.FindStringSubmatch(strings.TrimRight(href, "/")); m != nil {
		return m[1]
	}
	for _, a := range []string{"data-id", "data-item-id", "data-key"} {
		if id := attr(el, a); id != "" {
			return id
		}
	}
	return ""
}

// Open implements ItemDriver. The click cascade runs native click, then a
// scripted click, then a raw pointer click at the element's position.
func (d *RodDriver) Open(i int) error {
	el, err := d.item(i)
	if err != nil {
		return err
	}

	target := d.clickTarget(el)
	if target == nil {
		return ErrNoClickTarget
	}

	if err := target.Click(proto.InputMouseButtonLeft, 1); err == nil {
		return nil
	} else {
		d.logger.Debug("native click failed", "index", i, "error", err)
	}

	if _, err := target.Eval(`() => this.click()`); err == nil {
		return nil
	} else {
		d.logger.Debug("scripted click failed", "index", i, "error", err)
	}

	if err := d.pointerClick(target); err != nil {
		d.logger.Debug("pointer click failed", "index", i, "error", err)
		return fmt.Errorf("%w: %v", ErrClickExhausted, &ClickError{Mechanism: "pointer", Err: err})
	}
	return nil
}

// Reopen implements ItemDriver.
func (d *RodDriver) Reopen(i int) error {
	if err := d.ScrollIntoView(i); err != nil {
		d.logger.Debug("scroll before reopen failed", "index", i, "error", err)
	}
	return d.Open(i)
}

// Extract implements ItemDriver.
func (d *RodDriver) Extract() Extraction {
	return d.extractor.Extract(d.page)
}

// Close implements ItemDriver. The cascade tries a dismiss control, the
// Escape key, the backdrop layer, then a neutral click near the viewport
// corner.
func (d *RodDriver) Close() bool {
	for _, sel := range closeSelectors {
		el, err := d.page.Element(sel)
		if err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			d.logger.Debug("closed via control", "selector", sel)
			d.sleep(500 * time.Millisecond)
			if !d.modalOpen() {
				return true
			}
		}
	}

	for attempt := 0; attempt < 3; attempt++ {
		if err := d.page.Keyboard.Press(input.Escape); err != nil {
			d.logger.Debug("escape press failed", "error", err)
			break
		}
		d.sleep(500 * time.Millisecond)
		if !d.modalOpen() {
			d.logger.Debug("closed via escape")
			return true
		}
	}

	for _, sel := range backdropSelectors {
		el, err := d.page.Element(sel)
		if err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err == nil {
			d.sleep(500 * time.Millisecond)
			if !d.modalOpen() {
				d.logger.Debug("closed via backdrop", "selector", sel)
				return true
			}
		}
	}

	// Last resort: a click well away from any content.
	if err := d.page.Mouse.MoveLinear(proto.NewPoint(10, 10), 3); err == nil {
		if err := d.page.Mouse.Click(proto.InputMouseButtonLeft, 1); err == nil {
			d.sleep(500 * time.Millisecond)
			if !d.modalOpen() {
				d.logger.Debug("closed via neutral click")
				return true
			}
		}
	}

	return !d.modalOpen()
}

// item returns the element for a 1-based index.
func (d *RodDriver) item(i int) (*rod.Element, error) {
	if i < 1 || i > len(d.items) {
		return nil, fmt.Errorf("item index %d out of range 1..%d", i, len(d.items))
	}
	return d.items[i-1], nil
}

// clickTarget prefers the enclosing or enclosed anchor over the raw item
// element so the click triggers navigation handlers.
func (d *RodDriver) clickTarget(el *rod.Element) *rod.Element {
	if ok, err := el.Matches("a"); err == nil && ok {
		return el
	}
	if link, err := el.Element(`a[href]`); err == nil {
		return link
	}
	if parent, err := el.Parent(); err == nil {
		if ok, err := parent.Matches("a"); err == nil && ok {
			return parent
		}
	}
	return el
}

// pointerClick dispatches a raw mouse click at the element's center.
func (d *RodDriver) pointerClick(el *rod.Element) error {
	shape, err := el.Shape()
	if err != nil {
		return err
	}
	box := shape.Box()
	if box == nil {
		return fmt.Errorf("element has no layout box")
	}
	point := proto.NewPoint(box.X+box.Width/2, box.Y+box.Height/2)
	if err := d.page.Mouse.MoveLinear(point, 3); err != nil {
		return err
	}
	return d.page.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

// modalOpen reports whether any detail-view container is still attached.
func (d *RodDriver) modalOpen() bool {
	for _, sel := range modalSelectors {
		if has, _, err := d.page.Has(sel); err == nil && has {
			return true
		}
	}
	return false
}
