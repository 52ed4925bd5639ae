package gallery

import (
	"log/slog"
	"time"

	"github.com/go-rod/rod"
)

// Strategy is one item-discovery heuristic. Strategies are tried in order;
// the first one returning at least one element wins. The cascade exists
// because gallery markup is not contractually stable: different gallery
// types render items as detail-link anchors, figure containers, or bare
// images.
type Strategy struct {
	Name string
	Find func(page *rod.Page) ([]*rod.Element, error)
}

// selectorStrategy builds a Strategy from a plain CSS selector.
func selectorStrategy(name, selector string) Strategy {
	return Strategy{
		Name: name,
		Find: func(page *rod.Page) ([]*rod.Element, error) {
			els, err := page.Elements(selector)
			if err != nil {
				return nil, err
			}
			return els, nil
		},
	}
}

// DefaultStrategies is the discovery cascade in priority order: the most
// link-pattern-specific match first, any image on the page as last resort.
func DefaultStrategies() []Strategy {
	return []Strategy{
		selectorStrategy("detail_links", `a[href*='/job/']`),
		selectorStrategy("media_figures", `figure[data-sentry-component='MediaFigure'], figure[class*='group'], figure`),
		selectorStrategy("clickable_images", `a img, [onclick] img, button img`),
		{
			Name: "media_containers",
			Find: func(page *rod.Page) ([]*rod.Element, error) {
				return page.ElementsX(`//video/ancestor::*[1] | //img/ancestor::a[1]`)
			},
		},
		selectorStrategy("any_image", `img[src]`),
	}
}

// Enumeration is the discovered item set plus the strategy that found it.
type Enumeration struct {
	Items    []*rod.Element
	Strategy string
}

// Enumerator discovers the ordered set of clickable media items on a
// loaded gallery page. Zero items is a valid terminal outcome, signaled by
// an empty Enumeration, never by an error.
type Enumerator struct {
	strategies  []Strategy
	loader      *Loader
	rescanDelay time.Duration
	logger      *slog.Logger
	sleep       func(time.Duration)
}

// NewEnumerator creates an Enumerator. The loader is re-invoked for the
// one reload-and-rescan cycle when the first cascade pass finds nothing,
// after waiting rescanDelay for slow asynchronous rendering.
func NewEnumerator(strategies []Strategy, loader *Loader, rescanDelay time.Duration, logger *slog.Logger) *Enumerator {
	return &Enumerator{
		strategies:  strategies,
		loader:      loader,
		rescanDelay: rescanDelay,
		logger:      logger.With("component", "enumerator"),
		sleep:       time.Sleep,
	}
}

// Enumerate runs the strategy cascade. If no strategy matches, one extra
// wait + reload + rescan cycle runs before "no items" is accepted.
func (e *Enumerator) Enumerate(page *rod.Page) Enumeration {
	result := e.cascade(page)
	if len(result.Items) > 0 {
		return result
	}

	e.logger.Warn("no items found, reloading and rescanning")
	e.sleep(e.rescanDelay)
	if e.loader != nil {
		e.loader.LoadAll(page)
	}

	result = e.cascade(page)
	if len(result.Items) == 0 {
		e.logger.Warn("still no items after rescan")
	}
	return result
}

func (e *Enumerator) cascade(page *rod.Page) Enumeration {
	for _, s := range e.strategies {
		items, err := s.Find(page)
		if err != nil {
			e.logger.Debug("strategy failed", "strategy", s.Name, "error", err)
			continue
		}
		if len(items) == 0 {
			continue
		}
		e.logger.Info("items found", "strategy", s.Name, "count", len(items))
		return Enumeration{Items: items, Strategy: s.Name}
	}
	return Enumeration{}
}
