package gallery

import (
	"errors"
	"fmt"
)

// Sentinel errors for per-item failure modes. Both are item-level: they
// skip the single item and never abort the cycle.
var (
	ErrNoClickTarget  = errors.New("no clickable target in item")
	ErrClickExhausted = errors.New("all click mechanisms failed")
)

// ClickError carries the last underlying failure of an exhausted click
// cascade.
type ClickError struct {
	Mechanism string
	Err       error
}

func (e *ClickError) Error() string {
	return fmt.Sprintf("click via %s failed: %v", e.Mechanism, e.Err)
}

func (e *ClickError) Unwrap() error { return e.Err }
