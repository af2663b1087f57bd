package nn

import (
	"math"
	"math/rand"
)

// Xavier returns the scale sqrt(1/fanIn), used for Sigmoid layers.
func Xavier(fanIn int) float64 {
	return math.Sqrt(1.0 / float64(fanIn))
}

// He returns the scale sqrt(2/fanIn), used for every other activation.
func He(fanIn int) float64 {
	return math.Sqrt(2.0 / float64(fanIn))
}

// initScale picks the initialization scale for a layer.
func initScale(kind ActivationKind, fanIn int) float64 {
	if kind == Sigmoid {
		return Xavier(fanIn)
	}
	return He(fanIn)
}

// fillUniform writes values drawn from U(-scale, scale) into data.
func fillUniform(data []float64, scale float64, rng *rand.Rand) {
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = (rng.Float64()*2.0 - 1.0) * scale
	}
}
