// Package optim implements the parameter update step used by the densenet
// training loop.
//
// This package provides:
//   - Optimizer interface: Base interface for update rules
//   - SGD: gradient descent with optional momentum
//
// Parameters and gradients are plain float64 slices that the optimizer
// updates in place. The slices passed to Step must keep the same order from
// one call to the next, since per-parameter state is tracked by position.
//
// Example usage:
//
//	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//
//	for batch := range batches {
//	    grads := averageGradients(batch)
//	    if err := sgd.Step(params, grads); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"errors"
	"fmt"
)

// ErrMismatch reports parameters and gradients that do not line up.
var ErrMismatch = errors.New("parameter/gradient mismatch")

// Optimizer is the base interface for all update rules.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies one update to every parameter slice, in place.
	//
	// params[i] and grads[i] must have the same length.
	Step(params, grads [][]float64) error

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// checkPairs verifies params and grads have matching shapes.
func checkPairs(params, grads [][]float64) error {
	if len(params) != len(grads) {
		return fmt.Errorf("%w: %d parameters, %d gradients", ErrMismatch, len(params), len(grads))
	}
	for i := range params {
		if len(params[i]) != len(grads[i]) {
			return fmt.Errorf("%w: parameter %d has %d values, gradient has %d",
				ErrMismatch, i, len(params[i]), len(grads[i]))
		}
	}
	return nil
}
