package nn

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrConstruction reports an invalid model or layer configuration,
	// such as adjacent layers whose sizes do not chain.
	ErrConstruction = errors.New("invalid construction")
	// ErrInvalidArgument reports a value outside the domain an operation accepts.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrShapeMismatch reports weights or biases of the wrong shape.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrInvalidLabel reports a label a loss function cannot score.
	ErrInvalidLabel = errors.New("invalid label")
	// ErrUnsupportedActivation reports an activation kind with no implementation.
	ErrUnsupportedActivation = errors.New("unsupported activation")
	// ErrStopTraining may be returned by a ProgressFunc to end Fit after
	// the current epoch. Fit does not report it as a failure.
	ErrStopTraining = errors.New("stop training")
)

// ShapeError provides detailed information about a shape mismatch.
// It matches both ErrShapeMismatch and ErrInvalidArgument.
type ShapeError struct {
	Op   string // Operation that rejected the value (e.g. "SetWeights")
	What string // Which value was rejected (e.g. "weights")
	Want []int  // Expected shape
	Got  []int  // Provided shape
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s shape mismatch: expected %v, got %v", e.Op, e.What, e.Want, e.Got)
}

// Is reports whether target is one of the sentinels a ShapeError stands for.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShapeMismatch || target == ErrInvalidArgument
}

// labelError builds the error returned for a label outside the loss domain.
func labelError(loss string, y float64) error {
	return fmt.Errorf("%s: %w: %w: label must be 0 or 1, got %v", loss, ErrInvalidLabel, ErrInvalidArgument, y)
}
