// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"log/slog"
	"math/rand"

	"github.com/born-ml/densenet/internal/nn"
	"github.com/born-ml/densenet/internal/parallel"
)

// Layers

// Dense represents a fully connected layer with an activation.
type Dense = nn.Dense

// DenseOption configures a Dense layer at construction.
type DenseOption = nn.DenseOption

// NewDense creates a layer of units neurons fed by inputSize features.
// Weights and biases start at zero.
//
// Example:
//
//	hidden, err := nn.NewDense(3, 2, nn.Sigmoid)
func NewDense(units, inputSize int, kind ActivationKind, opts ...DenseOption) (*Dense, error) {
	return nn.NewDense(units, inputSize, kind, opts...)
}

// WithRegularizer attaches a weight regularizer to a layer.
func WithRegularizer(r Regularizer) DenseOption {
	return nn.WithRegularizer(r)
}

// WithSigmoidClamp bounds sigmoid logits to [-t, t].
func WithSigmoidClamp(t float64) DenseOption {
	return nn.WithSigmoidClamp(t)
}

// WithLeakySlope sets the LeakyReLU slope.
func WithLeakySlope(alpha float64) DenseOption {
	return nn.WithLeakySlope(alpha)
}

// WithWeightsAndBiases presets the parameters of a layer.
//
// Example:
//
//	layer, err := nn.NewDense(1, 2, nn.Linear,
//	    nn.WithWeightsAndBiases([][]float64{{0.5}, {-0.5}}, []float64{0.1}))
func WithWeightsAndBiases(weights [][]float64, biases []float64) DenseOption {
	return nn.WithWeightsAndBiases(weights, biases)
}

// LayerCache holds the scratch buffers of one layer for one example.
type LayerCache = nn.LayerCache

// Arena holds one LayerCache per (batch slot, layer).
type Arena = nn.Arena

// NewArena allocates caches for slots concurrent examples over layers.
func NewArena(layers []*Dense, slots int) *Arena {
	return nn.NewArena(layers, slots)
}

// Activations

// ActivationKind selects the nonlinearity of a Dense layer.
type ActivationKind = nn.ActivationKind

// Supported activation kinds.
const (
	Linear    = nn.Linear
	Sigmoid   = nn.Sigmoid
	ReLU      = nn.ReLU
	LeakyReLU = nn.LeakyReLU
	Softmax   = nn.Softmax
)

// ParseActivation maps a name such as "relu" to its kind.
func ParseActivation(name string) (ActivationKind, error) {
	return nn.ParseActivation(name)
}

// Loss functions

// Loss scores a single output unit against its label.
type Loss = nn.Loss

// MeanSquaredError is half the squared error.
type MeanSquaredError = nn.MeanSquaredError

// NewMeanSquaredError creates a mean squared error loss.
func NewMeanSquaredError() MeanSquaredError {
	return nn.NewMeanSquaredError()
}

// BinaryCrossEntropy is the log loss for labels in {0, 1}.
type BinaryCrossEntropy = nn.BinaryCrossEntropy

// NewBinaryCrossEntropy creates a binary cross-entropy loss. With fromLogits
// the output layer must be Linear.
func NewBinaryCrossEntropy(fromLogits bool) BinaryCrossEntropy {
	return nn.NewBinaryCrossEntropy(fromLogits)
}

// ParseLoss maps a name such as "mse" or "binary_crossentropy" to a Loss.
func ParseLoss(name string, fromLogits bool) (Loss, error) {
	return nn.ParseLoss(name, fromLogits)
}

// Regularization

// Regularizer penalizes weight magnitude.
type Regularizer = nn.Regularizer

// L2 is the squared-norm weight penalty.
type L2 = nn.L2

// NewL2 creates an L2 regularizer with strength lambda > 0.
func NewL2(lambda float64) (*L2, error) {
	return nn.NewL2(lambda)
}

// Models

// Model is an ordered stack of Dense layers.
type Model = nn.Model

// ModelOption configures a Model at construction.
type ModelOption = nn.ModelOption

// NewModel creates a model, verifying that adjacent layer sizes chain.
//
// Example:
//
//	model, err := nn.NewModel([]*nn.Dense{hidden, output},
//	    nn.WithRand(rand.New(rand.NewSource(1234))))
func NewModel(layers []*Dense, opts ...ModelOption) (*Model, error) {
	return nn.NewModel(layers, opts...)
}

// WithRand sets the randomness used by weight initialization.
func WithRand(rng *rand.Rand) ModelOption {
	return nn.WithRand(rng)
}

// WithWorkers limits how many goroutines process the examples of a batch.
// One disables parallelism.
func WithWorkers(n int) ModelOption {
	if n == 1 {
		return nn.WithParallel(parallel.Sequential())
	}
	cfg := parallel.BatchConfig()
	if n > 1 {
		cfg.Enabled = true
		cfg.NumWorkers = n
	}
	return nn.WithParallel(cfg)
}

// WithLogger sets the logger for debug records.
func WithLogger(logger *slog.Logger) ModelOption {
	return nn.WithLogger(logger)
}

// Training

// DefaultBatchSize is the mini-batch size used when none is configured.
const DefaultBatchSize = nn.DefaultBatchSize

// FitConfig holds the knobs of a training run.
type FitConfig = nn.FitConfig

// FitResult summarizes a finished training run.
type FitResult = nn.FitResult

// Progress is reported to a ProgressFunc during training.
type Progress = nn.Progress

// ProgressFunc observes training between epochs.
type ProgressFunc = nn.ProgressFunc

// LogProgress returns a ProgressFunc that writes one record per report.
func LogProgress(logger *slog.Logger) ProgressFunc {
	return nn.LogProgress(logger)
}

// Initialization

// Xavier returns the scale sqrt(1/fanIn).
func Xavier(fanIn int) float64 {
	return nn.Xavier(fanIn)
}

// He returns the scale sqrt(2/fanIn).
func He(fanIn int) float64 {
	return nn.He(fanIn)
}

// Errors

var (
	// ErrConstruction reports an invalid model or layer configuration.
	ErrConstruction = nn.ErrConstruction
	// ErrInvalidArgument reports a value outside an operation's domain.
	ErrInvalidArgument = nn.ErrInvalidArgument
	// ErrShapeMismatch reports weights or inputs of the wrong shape.
	ErrShapeMismatch = nn.ErrShapeMismatch
	// ErrInvalidLabel reports a label a loss function cannot score.
	ErrInvalidLabel = nn.ErrInvalidLabel
	// ErrUnsupportedActivation reports an activation without implementation.
	ErrUnsupportedActivation = nn.ErrUnsupportedActivation
	// ErrStopTraining ends Fit early when returned by a ProgressFunc.
	ErrStopTraining = nn.ErrStopTraining
)

// ShapeError provides detailed information about a shape mismatch.
type ShapeError = nn.ShapeError
