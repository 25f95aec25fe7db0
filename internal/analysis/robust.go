package analysis

import (
	"math"

	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
)

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// clampScale rounds a scale response to the nearest step inside 1-10.
func clampScale(v float64) int {
	return int(math.Round(clip(v, catalog.ScaleMin, catalog.ScaleMax)))
}
