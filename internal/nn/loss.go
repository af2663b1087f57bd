package nn

import (
	"fmt"
	"math"
)

// Loss scores a single prediction against a scalar label.
//
// Derivative returns the derivative of the loss with respect to yHat.
// Implementations are stateless and safe for concurrent use.
type Loss interface {
	Loss(y, yHat float64) (float64, error)
	Derivative(y, yHat float64) (float64, error)
}

// OutputValidator is implemented by losses that only make sense with a
// particular output activation. Fit checks it before training starts.
type OutputValidator interface {
	ValidateOutput(kind ActivationKind) error
}

// MeanSquaredError is half the squared error: (yHat-y)²/2.
//
// The factor 1/2 makes the derivative the plain residual yHat-y.
type MeanSquaredError struct{}

// NewMeanSquaredError creates a mean squared error loss.
func NewMeanSquaredError() MeanSquaredError {
	return MeanSquaredError{}
}

// Loss returns (yHat-y)²/2.
func (MeanSquaredError) Loss(y, yHat float64) (float64, error) {
	d := yHat - y
	return d * d / 2.0, nil
}

// Derivative returns yHat-y.
func (MeanSquaredError) Derivative(y, yHat float64) (float64, error) {
	return yHat - y, nil
}

// String returns the loss name.
func (MeanSquaredError) String() string { return "mean_squared_error" }

// bceEpsilon keeps probabilities away from 0 and 1 before taking logs.
const bceEpsilon = 1e-15

// BinaryCrossEntropy scores labels in {0, 1}.
//
// In probability mode yHat is a probability, typically the output of a
// Sigmoid layer, and is clamped to [1e-15, 1-1e-15]. In logits mode yHat is
// an unbounded logit z and the loss is computed in the numerically stable form
//
//	max(z, 0) - y*z + log(1 + exp(-|z|))
//
// whose derivative is sigmoid(z) - y. Logits mode requires a Linear output
// layer, otherwise the sigmoid would be applied twice.
type BinaryCrossEntropy struct {
	FromLogits bool
}

// NewBinaryCrossEntropy creates a binary cross-entropy loss.
func NewBinaryCrossEntropy(fromLogits bool) BinaryCrossEntropy {
	return BinaryCrossEntropy{FromLogits: fromLogits}
}

// Loss returns the cross-entropy of yHat against y.
func (b BinaryCrossEntropy) Loss(y, yHat float64) (float64, error) {
	if y != 0 && y != 1 {
		return 0, labelError("binary cross-entropy loss", y)
	}

	if b.FromLogits {
		z := yHat
		return math.Max(z, 0) - y*z + math.Log1p(math.Exp(-math.Abs(z))), nil
	}

	p := clampProbability(yHat)
	if y == 1 {
		return -math.Log(p), nil
	}
	return -math.Log(1 - p), nil
}

// Derivative returns d loss / d yHat.
func (b BinaryCrossEntropy) Derivative(y, yHat float64) (float64, error) {
	if y != 0 && y != 1 {
		return 0, labelError("binary cross-entropy derivative", y)
	}

	if b.FromLogits {
		return stableSigmoid(yHat) - y, nil
	}

	p := clampProbability(yHat)
	if y == 1 {
		return -1.0 / p, nil
	}
	return 1.0 / (1.0 - p), nil
}

// ValidateOutput rejects logits mode on a non-Linear output layer.
func (b BinaryCrossEntropy) ValidateOutput(kind ActivationKind) error {
	if b.FromLogits && kind != Linear {
		return fmt.Errorf("%w: binary cross-entropy from logits needs a linear output layer, got %s",
			ErrConstruction, kind)
	}
	return nil
}

// String returns the loss name.
func (b BinaryCrossEntropy) String() string {
	if b.FromLogits {
		return "binary_crossentropy(from_logits)"
	}
	return "binary_crossentropy"
}

func clampProbability(p float64) float64 {
	return math.Max(bceEpsilon, math.Min(1-bceEpsilon, p))
}

// stableSigmoid evaluates 1/(1+exp(-z)) without overflowing exp for large |z|.
func stableSigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

// ParseLoss maps a loss name to its implementation.
// Recognized names are "mse", "mean_squared_error", "bce" and
// "binary_crossentropy"; fromLogits only applies to the latter two.
func ParseLoss(name string, fromLogits bool) (Loss, error) {
	switch name {
	case "mse", "mean_squared_error":
		return NewMeanSquaredError(), nil
	case "bce", "binary_crossentropy", "binary_cross_entropy":
		return NewBinaryCrossEntropy(fromLogits), nil
	default:
		return nil, fmt.Errorf("parse loss %q: %w", name, ErrInvalidArgument)
	}
}
