package nn

import (
	"fmt"
	"math/rand"
	"strings"
)

// Dense implements a fully connected layer.
//
// Performs the transformation: y = act(x @ W + b)
// where:
//   - x is the input vector with length inputSize
//   - W is the weight matrix with shape [inputSize, units]
//   - b is the bias vector with length units
//   - y is the output vector with length units
//
// Weights and biases start at zero. Call InitializeWeightsForTraining, or
// provide them with WithWeightsAndBiases or SetWeightsAndBiases.
//
// A Dense layer is safe for concurrent Forward and Backward calls as long as
// nothing mutates its weights at the same time.
//
// Example:
//
//	layer, err := nn.NewDense(3, 2, nn.Sigmoid)
//	out := make([]float64, layer.Units())
//	_, out, err = layer.Forward([]float64{0.5, -1.2}, out)
type Dense struct {
	inputSize   int
	units       int
	kind        ActivationKind
	activation  Activation
	regularizer Regularizer
	weights     []float64 // [inputSize, units], row-major
	biases      []float64 // [units]
}

// DenseOption configures a Dense layer at construction.
type DenseOption func(*denseOptions)

type denseOptions struct {
	activation  ActivationOptions
	regularizer Regularizer
	weights     [][]float64
	biases      []float64
}

// WithRegularizer attaches a weight regularizer (nil means none).
func WithRegularizer(r Regularizer) DenseOption {
	return func(o *denseOptions) { o.regularizer = r }
}

// WithSigmoidClamp bounds sigmoid logits to [-t, t]. Ignored for other kinds.
func WithSigmoidClamp(t float64) DenseOption {
	return func(o *denseOptions) { o.activation.SigmoidClamp = t }
}

// WithLeakySlope sets the LeakyReLU slope. Ignored for other kinds.
func WithLeakySlope(alpha float64) DenseOption {
	return func(o *denseOptions) { o.activation.LeakySlope = alpha }
}

// WithWeightsAndBiases presets the parameters. Shapes are checked by NewDense.
func WithWeightsAndBiases(weights [][]float64, biases []float64) DenseOption {
	return func(o *denseOptions) {
		o.weights = weights
		o.biases = biases
	}
}

// NewDense creates a layer with the given number of units fed by inputSize features.
func NewDense(units, inputSize int, kind ActivationKind, opts ...DenseOption) (*Dense, error) {
	if units <= 0 || inputSize <= 0 {
		return nil, fmt.Errorf("new dense: %w: units and input size must be positive, got units=%d input=%d",
			ErrConstruction, units, inputSize)
	}

	var o denseOptions
	for _, opt := range opts {
		opt(&o)
	}

	act, err := NewActivation(kind, o.activation)
	if err != nil {
		return nil, fmt.Errorf("new dense: %w: %w", ErrConstruction, err)
	}

	d := &Dense{
		inputSize:   inputSize,
		units:       units,
		kind:        kind,
		activation:  act,
		regularizer: o.regularizer,
		weights:     make([]float64, inputSize*units),
		biases:      make([]float64, units),
	}

	if o.weights != nil || o.biases != nil {
		if err := d.SetWeightsAndBiases(o.weights, o.biases); err != nil {
			return nil, fmt.Errorf("new dense: %w", err)
		}
	}
	return d, nil
}

// InputSize returns the number of input features.
func (d *Dense) InputSize() int { return d.inputSize }

// Units returns the number of output units.
func (d *Dense) Units() int { return d.units }

// Activation returns the activation kind.
func (d *Dense) Activation() ActivationKind { return d.kind }

// Regularizer returns the weight regularizer, or nil.
func (d *Dense) Regularizer() Regularizer { return d.regularizer }

// Weights returns a copy of the weights as [inputSize][units].
func (d *Dense) Weights() [][]float64 {
	rows := make([][]float64, d.inputSize)
	for i := range rows {
		rows[i] = append([]float64(nil), d.weights[i*d.units:(i+1)*d.units]...)
	}
	return rows
}

// Biases returns a copy of the biases.
func (d *Dense) Biases() []float64 {
	return append([]float64(nil), d.biases...)
}

// SetWeights copies weights in. The shape must be exactly [inputSize][units].
func (d *Dense) SetWeights(weights [][]float64) error {
	if err := d.checkWeights("SetWeights", weights); err != nil {
		return err
	}
	for i, row := range weights {
		copy(d.weights[i*d.units:(i+1)*d.units], row)
	}
	return nil
}

// SetBiases copies biases in. The length must be exactly units.
func (d *Dense) SetBiases(biases []float64) error {
	if err := d.checkBiases("SetBiases", biases); err != nil {
		return err
	}
	copy(d.biases, biases)
	return nil
}

// SetWeightsAndBiases validates both shapes before changing anything.
func (d *Dense) SetWeightsAndBiases(weights [][]float64, biases []float64) error {
	if err := d.checkWeights("SetWeightsAndBiases", weights); err != nil {
		return err
	}
	if err := d.checkBiases("SetWeightsAndBiases", biases); err != nil {
		return err
	}
	for i, row := range weights {
		copy(d.weights[i*d.units:(i+1)*d.units], row)
	}
	copy(d.biases, biases)
	return nil
}

func (d *Dense) checkWeights(op string, weights [][]float64) error {
	want := []int{d.inputSize, d.units}
	if len(weights) != d.inputSize {
		cols := 0
		if len(weights) > 0 {
			cols = len(weights[0])
		}
		return &ShapeError{Op: op, What: "weights", Want: want, Got: []int{len(weights), cols}}
	}
	for _, row := range weights {
		if len(row) != d.units {
			return &ShapeError{Op: op, What: "weights", Want: want, Got: []int{len(weights), len(row)}}
		}
	}
	return nil
}

func (d *Dense) checkBiases(op string, biases []float64) error {
	if len(biases) != d.units {
		return &ShapeError{Op: op, What: "biases", Want: []int{d.units}, Got: []int{len(biases)}}
	}
	return nil
}

// InitializeWeightsForTraining draws weights from U(-s, s) where s is
// sqrt(1/inputSize) for Sigmoid layers and sqrt(2/inputSize) otherwise, and
// resets the biases to zero. The result is deterministic for a seeded rng.
func (d *Dense) InitializeWeightsForTraining(rng *rand.Rand) {
	fillUniform(d.weights, initScale(d.kind, d.inputSize), rng)
	for u := range d.biases {
		d.biases[u] = 0
	}
}

// Forward computes the activations for one input vector into out, which must
// have length Units. It returns the regularization penalty of the current
// weights (zero without a regularizer) and out.
func (d *Dense) Forward(x, out []float64) (float64, []float64, error) {
	if len(x) != d.inputSize {
		return 0, nil, &ShapeError{Op: "Dense.Forward", What: "input", Want: []int{d.inputSize}, Got: []int{len(x)}}
	}
	if len(out) != d.units {
		return 0, nil, &ShapeError{Op: "Dense.Forward", What: "output buffer", Want: []int{d.units}, Got: []int{len(out)}}
	}

	out, err := forwardActivation(d.activation, x, d.weights, d.biases, out)
	if err != nil {
		return 0, nil, fmt.Errorf("dense forward: %w", err)
	}

	var regLoss float64
	if d.regularizer != nil {
		regLoss = d.regularizer.Loss(d.weights)
	}
	return regLoss, out, nil
}

// Backward fills the cache with the local Jacobian of the layer for input x
// and activated output o: DW, DB and DX, each already scaled by the
// activation derivative, plus DReg when a regularizer is attached.
func (d *Dense) Backward(x, o []float64, cache *LayerCache) error {
	if !cache.fits(d) {
		return &ShapeError{
			Op: "Dense.Backward", What: "cache",
			Want: []int{d.inputSize, d.units}, Got: []int{cache.inputSize, cache.units},
		}
	}
	if len(x) != d.inputSize || len(o) != d.units {
		return &ShapeError{
			Op: "Dense.Backward", What: "input/output",
			Want: []int{d.inputSize, d.units}, Got: []int{len(x), len(o)},
		}
	}

	err := backwardActivation(d.activation, x, d.weights, o, cache.DW, cache.DB, cache.DX, cache.local)
	if err != nil {
		return fmt.Errorf("dense backward: %w", err)
	}
	if d.regularizer != nil {
		d.regularizer.Regularize(cache.DReg, d.weights)
	}
	return nil
}

// CreateCache allocates a LayerCache sized for the current shape of the layer.
func (d *Dense) CreateCache() *LayerCache {
	return newLayerCache(d.inputSize, d.units, d.regularizer != nil)
}

// parameters returns the live parameter slices in optimizer order.
func (d *Dense) parameters() [][]float64 {
	return [][]float64{d.weights, d.biases}
}

// String dumps the layer configuration, weights and biases.
func (d *Dense) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Dense(%d -> %d, %s", d.inputSize, d.units, d.kind)
	if d.regularizer != nil {
		fmt.Fprintf(&sb, ", %v", d.regularizer)
	}
	sb.WriteString(")\n  weights:\n")
	for i := 0; i < d.inputSize; i++ {
		fmt.Fprintf(&sb, "    %v\n", d.weights[i*d.units:(i+1)*d.units])
	}
	fmt.Fprintf(&sb, "  biases: %v\n", d.biases)
	return sb.String()
}
