// Package dataset provides small synthetic training sets and input
// normalization for densenet models.
package dataset

import (
	"math/rand"
)

// Coffee roasting bounds. A roast is good when the temperature is in
// (175, 260), the duration in (12, 15), and the duration is not above the
// line through (175, 15) and (260, 12).
const (
	coffeeMinTemp     = 160.0
	coffeeMaxTemp     = 275.0
	coffeeMinDuration = 11.5
	coffeeDurationLen = 4.0
)

// CoffeeRoast generates examples of (temperature, duration) pairs labelled
// 1 for a good roast and 0 otherwise. The same seed yields the same data.
func CoffeeRoast(examples int, seed int64) ([][]float64, []float64) {
	//nolint:gosec // Synthetic data, not security-critical
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, examples)
	y := make([]float64, examples)

	for i := range x {
		d := rng.Float64()*coffeeDurationLen + coffeeMinDuration
		t := rng.Float64()*(coffeeMaxTemp-coffeeMinTemp) + coffeeMinTemp
		x[i] = []float64{t, d}
		if goodRoast(t, d) {
			y[i] = 1
		}
	}
	return x, y
}

func goodRoast(t, d float64) bool {
	limit := -3.0/(260-175)*t + 21
	return t > 175 && t < 260 && d > 12 && d < 15 && d <= limit
}

// Logistic returns a one-feature step: labels are 0 for x < 3 and 1 otherwise.
func Logistic() ([][]float64, []float64) {
	return [][]float64{{0}, {1}, {2}, {3}, {4}, {5}}, []float64{0, 0, 0, 1, 1, 1}
}

// LinearLine returns two points on y = 200x + 100.
func LinearLine() ([][]float64, []float64) {
	return [][]float64{{1}, {2}}, []float64{300, 500}
}
