package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Regularizer penalizes weight magnitude.
//
// Loss returns the penalty for the flat weight slice w. Regularize writes the
// gradient of that penalty into dst, which has the same length as w. The
// penalty gradient does not depend on the upstream derivative, so a layer adds
// it to its weight gradient after the chain rule has been applied.
//
// A nil Regularizer means no regularization.
type Regularizer interface {
	Loss(w []float64) float64
	Regularize(dst, w []float64)
}

// L2 is the squared-norm weight penalty 0.5*λ*Σw².
type L2 struct {
	lambda float64
}

// NewL2 creates an L2 regularizer. lambda must be positive.
func NewL2(lambda float64) (*L2, error) {
	if !(lambda > 0) {
		return nil, fmt.Errorf("new l2 regularizer: %w: %w: lambda must be positive, got %v",
			ErrConstruction, ErrInvalidArgument, lambda)
	}
	return &L2{lambda: lambda}, nil
}

// Lambda returns the regularization strength.
func (r *L2) Lambda() float64 {
	return r.lambda
}

// Loss returns 0.5*λ*Σw².
func (r *L2) Loss(w []float64) float64 {
	return 0.5 * r.lambda * floats.Dot(w, w)
}

// Regularize writes λ*w into dst.
func (r *L2) Regularize(dst, w []float64) {
	floats.ScaleTo(dst, r.lambda, w)
}

// String implements fmt.Stringer.
func (r *L2) String() string {
	return fmt.Sprintf("l2(%g)", r.lambda)
}
