package nn

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/born-ml/densenet/internal/optim"
	"github.com/born-ml/densenet/internal/parallel"
	"gonum.org/v1/gonum/floats"
)

// DefaultBatchSize is the mini-batch size used when FitConfig.BatchSize is zero.
const DefaultBatchSize = 32

// Progress is reported to a ProgressFunc during Fit.
type Progress struct {
	Epoch   int           // 1-based epoch that just finished
	Epochs  int           // Total epochs of the run
	Loss    float64       // Mean loss over the epoch, including regularization
	Elapsed time.Duration // Time since Fit started training
}

// ProgressFunc observes training. It is called between epochs from the
// goroutine running Fit. Returning ErrStopTraining ends Fit early without
// an error; any other error aborts Fit and is returned.
type ProgressFunc func(Progress) error

// LogProgress returns a ProgressFunc that writes one record per report.
func LogProgress(logger *slog.Logger) ProgressFunc {
	return func(p Progress) error {
		logger.Info("training progress",
			"epoch", p.Epoch,
			"epochs", p.Epochs,
			"loss", p.Loss,
			"elapsed", p.Elapsed.Round(time.Millisecond),
		)
		return nil
	}
}

// FitConfig holds the knobs of a training run.
type FitConfig struct {
	Loss         Loss    // Loss function (required)
	Epochs       int     // Passes over the training set (> 0)
	LearningRate float64 // Gradient descent step size (> 0)
	BatchSize    int     // Examples per update (default: DefaultBatchSize)
	Momentum     float64 // SGD momentum (default: 0, plain gradient descent)

	// ReportEvery sets the reporting cadence: Progress is called after
	// every max(Epochs/ReportEvery, 1) epochs, so the number of calls may
	// exceed ReportEvery when it does not divide Epochs. Zero disables
	// reporting.
	ReportEvery int
	Progress    ProgressFunc

	// SkipInit keeps the current weights instead of calling
	// InitializeWeightsForTraining on every layer first.
	SkipInit bool
}

// FitResult summarizes a finished training run.
type FitResult struct {
	Epochs  int     // Epochs completed
	Loss    float64 // Mean loss of the last completed epoch
	Stopped bool    // Progress returned ErrStopTraining
}

// Fit trains the model on x and y with mini-batch gradient descent and
// updates the layer weights and biases in place.
//
// Within a batch, examples are processed in parallel: each goroutine runs
// the forward pass, loss, and backward pass of its examples into its own
// arena slot while the weights are only read. After all examples finished,
// the gradients are averaged and applied once. Any per-example error, such
// as an invalid label, aborts the batch before the update and is returned.
func (m *Model) Fit(x [][]float64, y []float64, cfg FitConfig) (FitResult, error) {
	if err := m.validateFit(x, y, &cfg); err != nil {
		return FitResult{}, fmt.Errorf("fit: %w", err)
	}

	if !cfg.SkipInit {
		for _, layer := range m.layers {
			layer.InitializeWeightsForTraining(m.rng)
		}
		m.logger.Debug("initialized weights", "layers", len(m.layers))
	}

	slots := min(cfg.BatchSize, len(x))
	if !m.arena.fits(m.layers, slots) {
		m.arena = NewArena(m.layers, slots)
		m.logger.Debug("allocated arena", "slots", slots, "layers", len(m.layers))
	}
	arena := m.arena

	params := make([][]float64, 0, 2*len(m.layers))
	for _, layer := range m.layers {
		params = append(params, layer.parameters()...)
	}
	sgd := optim.NewSGD(optim.SGDConfig{LR: cfg.LearningRate, Momentum: cfg.Momentum})

	interval := reportInterval(cfg.Epochs, cfg.ReportEvery)
	start := time.Now()
	var result FitResult

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		var epochLoss float64
		for begin := 0; begin < len(x); begin += cfg.BatchSize {
			end := min(begin+cfg.BatchSize, len(x))
			batchLoss, err := m.trainBatch(arena, x[begin:end], y[begin:end], begin, cfg.Loss, sgd, params)
			if err != nil {
				return result, fmt.Errorf("fit: epoch %d: %w", epoch+1, err)
			}
			epochLoss += batchLoss
		}

		result.Epochs = epoch + 1
		result.Loss = epochLoss / float64(len(x))

		if cfg.Progress == nil || interval == 0 || (epoch+1)%interval != 0 {
			continue
		}
		err := cfg.Progress(Progress{
			Epoch:   epoch + 1,
			Epochs:  cfg.Epochs,
			Loss:    result.Loss,
			Elapsed: time.Since(start),
		})
		if errors.Is(err, ErrStopTraining) {
			result.Stopped = true
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("fit: progress: %w", err)
		}
	}

	return result, nil
}

func (m *Model) validateFit(x [][]float64, y []float64, cfg *FitConfig) error {
	if cfg.Loss == nil {
		return fmt.Errorf("%w: loss is required", ErrInvalidArgument)
	}
	if len(x) == 0 {
		return fmt.Errorf("%w: empty training set", ErrInvalidArgument)
	}
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d examples but %d labels", ErrInvalidArgument, len(x), len(y))
	}
	for i, row := range x {
		if len(row) != m.InputSize() {
			return &ShapeError{Op: "Fit", What: fmt.Sprintf("example %d", i), Want: []int{m.InputSize()}, Got: []int{len(row)}}
		}
	}
	if cfg.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be > 0 (got %d)", ErrInvalidArgument, cfg.Epochs)
	}
	if !(cfg.LearningRate > 0) {
		return fmt.Errorf("%w: learning rate must be > 0 (got %v)", ErrInvalidArgument, cfg.LearningRate)
	}
	if cfg.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must be >= 0 (got %d)", ErrInvalidArgument, cfg.BatchSize)
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ReportEvery < 0 {
		return fmt.Errorf("%w: report count must be >= 0 (got %d)", ErrInvalidArgument, cfg.ReportEvery)
	}
	if v, ok := cfg.Loss.(OutputValidator); ok {
		if err := v.ValidateOutput(m.layers[len(m.layers)-1].Activation()); err != nil {
			return err
		}
	}
	return nil
}

// reportInterval spreads reports evenly over epochs; 0 means never.
func reportInterval(epochs, reports int) int {
	if reports <= 0 {
		return 0
	}
	return max(epochs/reports, 1)
}

// trainBatch computes and applies one averaged gradient step for a batch.
// offset is the index of the batch's first example in the training set and
// only serves error messages. It returns the summed loss of the batch.
func (m *Model) trainBatch(a *Arena, xb [][]float64, yb []float64, offset int, loss Loss,
	opt optim.Optimizer, params [][]float64,
) (float64, error) {
	n := len(xb)

	err := parallel.ForErr(n, func(slot int) error {
		l, err := m.backpropExample(a, slot, xb[slot], yb[slot], loss)
		if err != nil {
			return fmt.Errorf("example %d: %w", offset+slot, err)
		}
		a.losses[slot] = l
		return nil
	}, m.par)
	if err != nil {
		return 0, err
	}

	m.averageGradients(a, n)
	if err := opt.Step(params, a.grads); err != nil {
		return 0, err
	}
	return floats.Sum(a.losses[:n]), nil
}

// averageGradients reduces the first n slots of the arena into its
// per-layer gradient buffers. Layers are reduced independently; within a
// layer slots are summed in slot order.
func (m *Model) averageGradients(a *Arena, n int) {
	scale := 1.0 / float64(n)
	parallel.For(len(m.layers), func(l int) {
		gw, gb := a.gradW[l], a.gradB[l]
		first := a.Cache(l, 0)
		copy(gw, first.DW)
		copy(gb, first.DB)
		for s := 1; s < n; s++ {
			c := a.Cache(l, s)
			floats.Add(gw, c.DW)
			floats.Add(gb, c.DB)
		}
		floats.Scale(scale, gw)
		floats.Scale(scale, gb)
	}, m.par)
}

// backpropExample runs the forward and backward pass of one example in its
// arena slot and returns the example's loss including regularization.
//
// Afterwards every layer's DW and DB in the slot hold the gradient of the
// loss with respect to that layer's weights and biases.
func (m *Model) backpropExample(a *Arena, slot int, x []float64, y float64, loss Loss) (float64, error) {
	var total float64

	input := x
	for l, layer := range m.layers {
		reg, out, err := layer.Forward(input, a.Cache(l, slot).Output)
		if err != nil {
			return 0, fmt.Errorf("layer %d: %w", l, err)
		}
		total += reg
		input = out
	}

	last := len(m.layers) - 1
	lastCache := a.Cache(last, slot)
	for u, yHat := range lastCache.Output {
		lv, err := loss.Loss(y, yHat)
		if err != nil {
			return 0, err
		}
		d, err := loss.Derivative(y, yHat)
		if err != nil {
			return 0, err
		}
		total += lv
		lastCache.Delta[u] = d
	}

	for l := last; l >= 0; l-- {
		layer := m.layers[l]
		c := a.Cache(l, slot)

		in := x
		if l > 0 {
			in = a.Cache(l-1, slot).Output
		}
		if err := layer.Backward(in, c.Output, c); err != nil {
			return 0, fmt.Errorf("layer %d: %w", l, err)
		}

		// Local Jacobian times incoming cotangent.
		applyDerivativeChainRule(c.Delta, c.DW, c.DB, nil)
		if c.DReg != nil {
			floats.Add(c.DW, c.DReg)
		}

		if l > 0 {
			a.Cache(l-1, slot).deltaVec.MulVec(c.dxMat, c.deltaVec)
		}
	}

	return total, nil
}
