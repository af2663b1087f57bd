// Package metrics scores predictions and aggregates training statistics.
package metrics

import (
	"fmt"
)

// DefaultThreshold separates class 0 from class 1 for probability outputs.
const DefaultThreshold = 0.5

// BinaryAccuracy thresholds every prediction (yHat > threshold means class
// 1) and compares it to the label. It returns the fraction of correct
// predictions and the number of errors.
func BinaryAccuracy(y, yHat []float64, threshold float64) (float64, int, error) {
	if len(y) != len(yHat) {
		return 0, 0, fmt.Errorf("binary accuracy: %d labels, %d predictions", len(y), len(yHat))
	}
	if len(y) == 0 {
		return 0, 0, fmt.Errorf("binary accuracy: no examples")
	}

	var errs int
	for i, p := range yHat {
		class := 0.0
		if p > threshold {
			class = 1
		}
		if class != y[i] {
			errs++
		}
	}
	return 1.0 - float64(errs)/float64(len(y)), errs, nil
}

// FirstColumn extracts the first output of every prediction, the shape a
// single-unit model returns from batch prediction.
func FirstColumn(predictions [][]float64) []float64 {
	out := make([]float64, len(predictions))
	for i, p := range predictions {
		if len(p) > 0 {
			out[i] = p[0]
		}
	}
	return out
}
