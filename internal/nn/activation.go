package nn

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ActivationKind selects the nonlinearity a Dense layer applies.
type ActivationKind int

// Supported activation kinds.
const (
	Linear ActivationKind = iota
	Sigmoid
	ReLU
	LeakyReLU
	// Softmax is accepted at construction but has no implementation;
	// the first forward or backward call fails with ErrUnsupportedActivation.
	Softmax
)

// DefaultLeakySlope is the negative-side slope used by LeakyReLU.
const DefaultLeakySlope = 0.01

var activationNames = map[ActivationKind]string{
	Linear:    "linear",
	Sigmoid:   "sigmoid",
	ReLU:      "relu",
	LeakyReLU: "leaky_relu",
	Softmax:   "softmax",
}

// String returns the lower-case name of the activation kind.
func (k ActivationKind) String() string {
	if name, ok := activationNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActivationKind(%d)", int(k))
}

// ParseActivation maps a name such as "sigmoid" or "leaky_relu" to its kind.
// Matching ignores case, and "-" is accepted in place of "_".
func ParseActivation(name string) (ActivationKind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for kind, n := range activationNames {
		if n == norm {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("parse activation %q: %w", name, ErrInvalidArgument)
}

// ActivationOptions tunes the per-kind constants.
type ActivationOptions struct {
	// SigmoidClamp bounds the logit fed to the sigmoid to [-T, T].
	// Values <= 0 disable the clamp.
	SigmoidClamp float64
	// LeakySlope is the LeakyReLU slope for negative inputs.
	// Zero selects DefaultLeakySlope.
	LeakySlope float64
}

// Activation is the strategy a Dense layer delegates its nonlinearity to.
//
// Activate transforms pre-activations in place. Derivative writes the local
// derivative of each unit into dst, evaluated at the already activated
// output o (not the pre-activation).
type Activation interface {
	Kind() ActivationKind
	Activate(z []float64) error
	Derivative(o, dst []float64) error
}

// NewActivation returns the strategy for kind.
func NewActivation(kind ActivationKind, opts ActivationOptions) (Activation, error) {
	switch kind {
	case Linear:
		return linearActivation{}, nil
	case Sigmoid:
		return sigmoidActivation{clamp: opts.SigmoidClamp}, nil
	case ReLU:
		return reluActivation{}, nil
	case LeakyReLU:
		slope := opts.LeakySlope
		if slope == 0 {
			slope = DefaultLeakySlope
		}
		return leakyReLUActivation{slope: slope}, nil
	case Softmax:
		return softmaxActivation{}, nil
	default:
		return nil, fmt.Errorf("new activation: %w: unknown kind %d", ErrInvalidArgument, int(kind))
	}
}

type linearActivation struct{}

func (linearActivation) Kind() ActivationKind { return Linear }

func (linearActivation) Activate([]float64) error { return nil }

func (linearActivation) Derivative(_, dst []float64) error {
	for i := range dst {
		dst[i] = 1
	}
	return nil
}

type sigmoidActivation struct {
	clamp float64
}

func (sigmoidActivation) Kind() ActivationKind { return Sigmoid }

func (s sigmoidActivation) Activate(z []float64) error {
	for i, v := range z {
		if s.clamp > 0 {
			v = math.Max(-s.clamp, math.Min(s.clamp, v))
		}
		z[i] = 1.0 / (1.0 + math.Exp(-v))
	}
	return nil
}

func (sigmoidActivation) Derivative(o, dst []float64) error {
	for i, v := range o {
		dst[i] = v * (1 - v)
	}
	return nil
}

type reluActivation struct{}

func (reluActivation) Kind() ActivationKind { return ReLU }

func (reluActivation) Activate(z []float64) error {
	for i, v := range z {
		z[i] = math.Max(0, v)
	}
	return nil
}

func (reluActivation) Derivative(o, dst []float64) error {
	for i, v := range o {
		if v > 0 {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
	return nil
}

type leakyReLUActivation struct {
	slope float64
}

func (leakyReLUActivation) Kind() ActivationKind { return LeakyReLU }

func (l leakyReLUActivation) Activate(z []float64) error {
	for i, v := range z {
		if v <= 0 {
			z[i] = l.slope * v
		}
	}
	return nil
}

func (l leakyReLUActivation) Derivative(o, dst []float64) error {
	for i, v := range o {
		if v > 0 {
			dst[i] = 1
		} else {
			dst[i] = l.slope
		}
	}
	return nil
}

type softmaxActivation struct{}

func (softmaxActivation) Kind() ActivationKind { return Softmax }

func (softmaxActivation) Activate([]float64) error {
	return fmt.Errorf("softmax forward: %w", ErrUnsupportedActivation)
}

func (softmaxActivation) Derivative(_, _ []float64) error {
	return fmt.Errorf("softmax backward: %w", ErrUnsupportedActivation)
}

// forwardActivation computes out = b + x·W and applies act in place.
//
// W is row-major with one row of len(b) weights per input feature.
func forwardActivation(act Activation, x, w, b, out []float64) ([]float64, error) {
	units := len(b)
	copy(out, b)
	for i, xi := range x {
		floats.AddScaled(out, xi, w[i*units:(i+1)*units])
	}
	if err := act.Activate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// backwardActivation fills the local Jacobian of one layer.
//
// The linear part is dw[i][u] = x[i], db[u] = 1 and dx[i][u] = w[i][u]; each
// column u of all three is then scaled by the activation derivative of unit u,
// evaluated at the activated output o. local receives that derivative.
func backwardActivation(act Activation, x, w, o, dw, db, dx, local []float64) error {
	units := len(db)
	for i, xi := range x {
		row := dw[i*units : (i+1)*units]
		for u := range row {
			row[u] = xi
		}
	}
	for u := range db {
		db[u] = 1
	}
	copy(dx, w)

	if err := act.Derivative(o, local); err != nil {
		return err
	}
	applyDerivativeChainRule(local, dw, db, dx)
	return nil
}

// applyDerivativeChainRule scales every column u of dw and dx, and db[u], by dchain[u].
func applyDerivativeChainRule(dchain, dw, db, dx []float64) {
	units := len(dchain)
	for start := 0; start < len(dw); start += units {
		floats.Mul(dw[start:start+units], dchain)
	}
	floats.Mul(db, dchain)
	for start := 0; start < len(dx); start += units {
		floats.Mul(dx[start:start+units], dchain)
	}
}
