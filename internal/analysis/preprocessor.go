package analysis

import (
	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
)

// Preprocessing turns raw answers into something the scoring rules can trust.
// Odd input is dropped or clamped, never rejected.

// normalizeRanking drops unknown and repeated option ids, then keeps at most
// min(5, len(options)) entries.
func normalizeRanking(q catalog.Question, ids []string) []catalog.Option {
	limit := len(q.Options)
	if limit > priorityDepth {
		limit = priorityDepth
	}

	seen := make(map[string]bool, len(ids))
	ranked := make([]catalog.Option, 0, limit)
	for _, id := range ids {
		if len(ranked) == limit {
			break
		}
		if seen[id] {
			continue
		}
		opt, ok := q.Option(id)
		if !ok {
			continue
		}
		seen[id] = true
		ranked = append(ranked, opt)
	}
	return ranked
}

// selectedOption resolves a choice or scenario answer to its option.
func selectedOption(q catalog.Question, a Answer) (catalog.Option, bool) {
	id, ok := a.OptionID()
	if !ok {
		return catalog.Option{}, false
	}
	return q.Option(id)
}

// scaleResponse reads a scale answer clamped to the 1-10 domain.
func scaleResponse(a Answer) (int, bool) {
	v, ok := a.ScaleValue()
	if !ok {
		return 0, false
	}
	return clampScale(v), true
}
