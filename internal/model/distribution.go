package model

import "math"

const probabilityTolerance = 1e-3

// Distribution turns raw model scores into a probability distribution. Scores
// that already look like probabilities (non-negative, summing to 1) are copied
// as-is; anything else is passed through a softmax.
func Distribution(scores []float32) []float32 {
	out := make([]float32, len(scores))
	if isProbability(scores) {
		copy(out, scores)
		return out
	}

	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, float64(s))
	}

	var sum float64
	exps := make([]float64, len(scores))
	for i, s := range scores {
		exps[i] = math.Exp(float64(s) - maxScore)
		sum += exps[i]
	}
	for i := range exps {
		out[i] = float32(exps[i] / sum)
	}
	return out
}

// Argmax returns the index and value of the largest element. Ties resolve to
// the lowest index. It returns -1 for an empty slice.
func Argmax(values []float32) (int, float32) {
	if len(values) == 0 {
		return -1, 0
	}
	idx, best := 0, values[0]
	for i, v := range values[1:] {
		if v > best {
			idx, best = i+1, v
		}
	}
	return idx, best
}

func isProbability(scores []float32) bool {
	if len(scores) == 0 {
		return false
	}
	var sum float64
	for _, s := range scores {
		if s < 0 || math.IsNaN(float64(s)) {
			return false
		}
		sum += float64(s)
	}
	return math.Abs(sum-1) <= probabilityTolerance
}
