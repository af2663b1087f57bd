// Package nn implements the dense feed-forward network engine of densenet.
//
// This package provides:
//   - Dense: fully connected layer with pluggable activation and regularizer
//   - Activation strategies: Linear, Sigmoid, ReLU, LeakyReLU
//   - Loss functions: MeanSquaredError, BinaryCrossEntropy
//   - L2 weight regularization
//   - LayerCache and Arena: reusable scratch buffers for the backward pass
//   - Model: layer stack with Predict and mini-batch gradient descent Fit
//
// Vectors are plain []float64 values; weight matrices are stored row-major
// with one row per input feature.
package nn

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/born-ml/densenet/internal/parallel"
)

// Model is an ordered stack of Dense layers.
//
// Each layer's output feeds the next layer's input. Adjacent layer sizes are
// verified by NewModel, so a constructed Model always chains.
//
// Example:
//
//	hidden, _ := nn.NewDense(3, 2, nn.Sigmoid)
//	output, _ := nn.NewDense(1, 3, nn.Sigmoid)
//	model, err := nn.NewModel([]*nn.Dense{hidden, output}, nn.WithRand(rand.New(rand.NewSource(1234))))
type Model struct {
	layers []*Dense
	rng    *rand.Rand
	par    parallel.Config
	logger *slog.Logger
	arena  *Arena
}

// ModelOption configures a Model at construction.
type ModelOption func(*Model)

// WithRand sets the randomness used by weight initialization.
func WithRand(rng *rand.Rand) ModelOption {
	return func(m *Model) { m.rng = rng }
}

// WithParallel sets how examples of a batch are spread across goroutines.
func WithParallel(cfg parallel.Config) ModelOption {
	return func(m *Model) { m.par = cfg }
}

// WithLogger sets the logger for debug records. The default discards them.
func WithLogger(logger *slog.Logger) ModelOption {
	return func(m *Model) { m.logger = logger }
}

// NewModel creates a model from layers, checking that every layer's input
// size equals the previous layer's unit count.
func NewModel(layers []*Dense, opts ...ModelOption) (*Model, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("new model: %w: at least one layer is required", ErrConstruction)
	}
	if err := verifyLayers(layers); err != nil {
		return nil, fmt.Errorf("new model: %w", err)
	}

	m := &Model{
		layers: append([]*Dense(nil), layers...),
		par:    parallel.BatchConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m, nil
}

func verifyLayers(layers []*Dense) error {
	for i, layer := range layers {
		if layer == nil {
			return fmt.Errorf("%w: layer %d is nil", ErrConstruction, i)
		}
		if i == 0 {
			continue
		}
		if prev := layers[i-1].Units(); layer.InputSize() != prev {
			return fmt.Errorf("%w: layer %d input size %d does not match the previous layer's output size %d",
				ErrConstruction, i, layer.InputSize(), prev)
		}
	}
	return nil
}

// Layer returns the layer at index.
func (m *Model) Layer(index int) *Dense {
	return m.layers[index]
}

// Layers returns the layer stack. The slice is a copy; the layers are shared.
func (m *Model) Layers() []*Dense {
	return append([]*Dense(nil), m.layers...)
}

// InputSize returns the number of features the model expects.
func (m *Model) InputSize() int {
	return m.layers[0].InputSize()
}

// OutputSize returns the number of units of the last layer.
func (m *Model) OutputSize() int {
	return m.layers[len(m.layers)-1].Units()
}

// Predict runs one input vector through every layer and returns the final
// activations. It allocates fresh buffers and does not touch training
// state, so repeated calls with the same input return identical results.
func (m *Model) Predict(x []float64) ([]float64, error) {
	current := x
	for i, layer := range m.layers {
		out := make([]float64, layer.Units())
		_, next, err := layer.Forward(current, out)
		if err != nil {
			return nil, fmt.Errorf("predict: layer %d: %w", i, err)
		}
		current = next
	}
	return current, nil
}

// PredictBatch runs Predict for every row of x. Rows are independent and
// are evaluated in parallel.
func (m *Model) PredictBatch(x [][]float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	err := parallel.ForErr(len(x), func(i int) error {
		y, err := m.Predict(x[i])
		if err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
		out[i] = y
		return nil
	}, m.par)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// String dumps every layer's configuration, weights and biases.
func (m *Model) String() string {
	var sb strings.Builder
	for i, layer := range m.layers {
		fmt.Fprintf(&sb, "layer %d: %s", i, layer)
	}
	return sb.String()
}
