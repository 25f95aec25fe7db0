package analysis

import "math"

// priorityDepth is how many ranked positions count in a priority answer.
const priorityDepth = 5

// PriorityWeight computes 2^max(0, 5-index): 32, 16, 8, 4, 2 for positions 0..4.
func PriorityWeight(index int) float64 {
	if index < 0 {
		index = 0
	}
	exp := priorityDepth - index
	if exp < 0 {
		exp = 0
	}
	return math.Exp2(float64(exp))
}
