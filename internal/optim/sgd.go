package optim

import (
	"gonum.org/v1/gonum/floats"
)

// SGD implements gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//	err := sgd.Step([][]float64{weights, biases}, [][]float64{dw, db})
type SGD struct {
	lr         float64
	momentum   float64
	velocities [][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{
		lr:       config.LR,
		momentum: config.Momentum,
	}
}

// Step performs a single optimization step.
//
// Applies gradient descent update to all parameters:
//   - Without momentum: param -= lr * grad
//   - With momentum: velocity = momentum * velocity + grad, param -= lr * velocity
func (s *SGD) Step(params, grads [][]float64) error {
	if err := checkPairs(params, grads); err != nil {
		return err
	}

	if s.momentum == 0 {
		for i, p := range params {
			floats.AddScaled(p, -s.lr, grads[i])
		}
		return nil
	}

	s.ensureVelocities(params)
	for i, p := range params {
		v := s.velocities[i]
		floats.Scale(s.momentum, v)
		floats.Add(v, grads[i])
		floats.AddScaled(p, -s.lr, v)
	}
	return nil
}

// ensureVelocities lazily allocates zeroed velocity buffers matching params.
func (s *SGD) ensureVelocities(params [][]float64) {
	if len(s.velocities) == len(params) {
		ok := true
		for i := range params {
			if len(s.velocities[i]) != len(params[i]) {
				ok = false
				break
			}
		}
		if ok {
			return
		}
	}
	s.velocities = make([][]float64, len(params))
	for i, p := range params {
		s.velocities[i] = make([]float64, len(p))
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// Momentum returns the momentum factor.
func (s *SGD) Momentum() float64 {
	return s.momentum
}
