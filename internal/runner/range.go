package runner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"galleryscraper/internal/gallery"
)

// ItemOrder resolves the item processing order for one subsection of count
// enumerated items. An empty selection means the exhaustive default, reverse
// enumeration order; otherwise the selection is expanded to ascending
// 1-based positions.
func ItemOrder(selection string, count int) ([]int, error) {
	if strings.TrimSpace(selection) == "" {
		return gallery.ReverseOrder(count), nil
	}
	return ParseRange(selection, count)
}

// ParseRange expands a selection spec like "1-3,5,7-9" into sorted unique
// 1-based positions within [1, max]. "all" and "0" select everything.
func ParseRange(spec string, max int) ([]int, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	if spec == "" || spec == "all" || spec == "0" {
		all := make([]int, max)
		for i := range all {
			all[i] = i + 1
		}
		return all, nil
	}

	seen := make(map[int]struct{})
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi := part, part
		if idx := strings.Index(part, "-"); idx >= 0 {
			lo, hi = strings.TrimSpace(part[:idx]), strings.TrimSpace(part[idx+1:])
		}

		start, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid range element %q", part)
		}
		end, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid range element %q", part)
		}
		if start > end {
			return nil, fmt.Errorf("descending range %q", part)
		}
		if start < 1 || end > max {
			return nil, fmt.Errorf("range %q outside 1..%d", part, max)
		}

		for i := start; i <= end; i++ {
			seen[i] = struct{}{}
		}
	}

	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	if len(out) == 0 {
		return nil, fmt.Errorf("empty selection %q", spec)
	}
	return out, nil
}
