package dataset

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNotAdapted is returned by Transform before Adapt or SetStats was called.
var ErrNotAdapted = errors.New("normalization not adapted")

// Normalization rescales every feature to zero mean and unit variance,
// using the population statistics of the data it was adapted to.
type Normalization struct {
	features int
	mean     []float64
	std      []float64
}

// NewNormalization creates a normalization over the given number of features.
func NewNormalization(features int) *Normalization {
	return &Normalization{features: features}
}

// Features returns the number of features.
func (n *Normalization) Features() int { return n.features }

// Mean returns a copy of the per-feature means.
func (n *Normalization) Mean() []float64 { return append([]float64(nil), n.mean...) }

// Std returns a copy of the per-feature standard deviations.
func (n *Normalization) Std() []float64 { return append([]float64(nil), n.std...) }

// SetStats sets the statistics directly instead of computing them.
func (n *Normalization) SetStats(mean, std []float64) error {
	if len(mean) != n.features || len(std) != n.features {
		return fmt.Errorf("set stats: expected %d features, got mean=%d std=%d", n.features, len(mean), len(std))
	}
	n.mean = append([]float64(nil), mean...)
	n.std = append([]float64(nil), std...)
	return nil
}

// Adapt computes the per-feature mean and population standard deviation of x.
func (n *Normalization) Adapt(x [][]float64) error {
	if len(x) == 0 {
		return errors.New("adapt: empty data")
	}
	column := make([]float64, len(x))
	mean := make([]float64, n.features)
	std := make([]float64, n.features)

	for f := 0; f < n.features; f++ {
		for i, row := range x {
			if len(row) != n.features {
				return fmt.Errorf("adapt: row %d has %d features, expected %d", i, len(row), n.features)
			}
			column[i] = row[f]
		}
		mean[f] = stat.Mean(column, nil)
		std[f] = math.Sqrt(stat.PopVariance(column, nil))
	}

	n.mean = mean
	n.std = std
	return nil
}

// Transform returns normalized copies of the rows of x. A feature with zero
// spread is only centered.
func (n *Normalization) Transform(x [][]float64) ([][]float64, error) {
	if n.mean == nil {
		return nil, ErrNotAdapted
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != n.features {
			return nil, fmt.Errorf("transform: row %d has %d features, expected %d", i, len(row), n.features)
		}
		o := make([]float64, n.features)
		for f, v := range row {
			o[f] = v - n.mean[f]
			if n.std[f] != 0 {
				o[f] /= n.std[f]
			}
		}
		out[i] = o
	}
	return out, nil
}
