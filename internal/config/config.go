// Package config loads the YAML description of a densenet training run and
// turns it into a model and its training configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"

	"github.com/born-ml/densenet/internal/nn"
	"github.com/born-ml/densenet/internal/parallel"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config captures the knobs of a training run.
type Config struct {
	Seed         int64         `yaml:"seed"`
	Epochs       int           `yaml:"epochs"`
	LearningRate float64       `yaml:"learning_rate"`
	BatchSize    int           `yaml:"batch_size"`
	ReportEvery  int           `yaml:"report_every"`
	Workers      int           `yaml:"workers"` // 0 uses every CPU, 1 disables parallelism
	Momentum     float64       `yaml:"momentum"`
	InputSize    int           `yaml:"input_size"`
	Loss         LossConfig    `yaml:"loss"`
	Layers       []LayerConfig `yaml:"layers"`
}

// LossConfig selects the loss function.
type LossConfig struct {
	Kind       string `yaml:"kind"`
	FromLogits bool   `yaml:"from_logits"`
}

// LayerConfig describes one Dense layer. Its input size is implied by the
// previous layer (or Config.InputSize for the first one).
type LayerConfig struct {
	Units        int     `yaml:"units"`
	Activation   string  `yaml:"activation"`
	L2           float64 `yaml:"l2"`
	SigmoidClamp float64 `yaml:"sigmoid_clamp"`
	LeakySlope   float64 `yaml:"leaky_slope"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Epochs       int
	LearningRate float64
	BatchSize    int
	Seed         int64
	ReportEvery  int
	Workers      int
}

// Default returns the coffee roasting setup: two features, a hidden layer
// of three sigmoid units and one sigmoid output trained with binary
// cross-entropy.
func Default() *Config {
	return &Config{
		Seed:         1234,
		Epochs:       10000,
		LearningRate: 0.1,
		BatchSize:    nn.DefaultBatchSize,
		ReportEvery:  10,
		InputSize:    2,
		Loss:         LossConfig{Kind: "binary_crossentropy"},
		Layers: []LayerConfig{
			{Units: 3, Activation: "sigmoid"},
			{Units: 1, Activation: "sigmoid"},
		},
	}
}

// Load reads and validates a Config from YAML.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML on top of Default. Keys that do not belong to Config
// are rejected. A layers list replaces the default layers as a whole.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.ReportEvery > 0 {
		c.ReportEvery = o.ReportEvery
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
}

// Validate verifies the config is runnable and fills in defaults.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be > 0 (got %d)", ErrInvalid, c.Epochs)
	}
	if !(c.LearningRate > 0) {
		return fmt.Errorf("%w: learning_rate must be > 0 (got %v)", ErrInvalid, c.LearningRate)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("%w: batch_size must be >= 0 (got %d)", ErrInvalid, c.BatchSize)
	}
	if c.BatchSize == 0 {
		c.BatchSize = nn.DefaultBatchSize
	}
	if c.ReportEvery < 0 {
		return fmt.Errorf("%w: report_every must be >= 0 (got %d)", ErrInvalid, c.ReportEvery)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0 (got %d)", ErrInvalid, c.Workers)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("%w: momentum must be in [0, 1) (got %v)", ErrInvalid, c.Momentum)
	}
	if c.InputSize <= 0 {
		return fmt.Errorf("%w: input_size must be > 0 (got %d)", ErrInvalid, c.InputSize)
	}
	if _, err := nn.ParseLoss(c.Loss.Kind, c.Loss.FromLogits); err != nil {
		return fmt.Errorf("%w: loss: %w", ErrInvalid, err)
	}
	if len(c.Layers) == 0 {
		return fmt.Errorf("%w: at least one layer is required", ErrInvalid)
	}
	for i, l := range c.Layers {
		if l.Units <= 0 {
			return fmt.Errorf("%w: layers[%d]: units must be > 0 (got %d)", ErrInvalid, i, l.Units)
		}
		if _, err := nn.ParseActivation(l.Activation); err != nil {
			return fmt.Errorf("%w: layers[%d]: %w", ErrInvalid, i, err)
		}
		if l.L2 < 0 {
			return fmt.Errorf("%w: layers[%d]: l2 must be >= 0 (got %v)", ErrInvalid, i, l.L2)
		}
	}
	return nil
}

// Parallel returns the batch fan-out settings for Workers.
func (c *Config) Parallel() parallel.Config {
	switch {
	case c.Workers == 1:
		return parallel.Sequential()
	case c.Workers > 1:
		cfg := parallel.BatchConfig()
		cfg.Enabled = true
		cfg.NumWorkers = c.Workers
		return cfg
	default:
		return parallel.BatchConfig()
	}
}

// Build validates c and constructs the model it describes together with
// the matching training configuration. logger may be nil.
func (c *Config) Build(logger *slog.Logger) (*nn.Model, nn.FitConfig, error) {
	if err := c.Validate(); err != nil {
		return nil, nn.FitConfig{}, err
	}

	loss, err := nn.ParseLoss(c.Loss.Kind, c.Loss.FromLogits)
	if err != nil {
		return nil, nn.FitConfig{}, err
	}

	layers := make([]*nn.Dense, 0, len(c.Layers))
	inputSize := c.InputSize
	for i, l := range c.Layers {
		layer, err := l.build(inputSize)
		if err != nil {
			return nil, nn.FitConfig{}, fmt.Errorf("layers[%d]: %w", i, err)
		}
		layers = append(layers, layer)
		inputSize = l.Units
	}
	if v, ok := loss.(nn.OutputValidator); ok {
		if err := v.ValidateOutput(layers[len(layers)-1].Activation()); err != nil {
			return nil, nn.FitConfig{}, err
		}
	}

	opts := []nn.ModelOption{
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		nn.WithRand(rand.New(rand.NewSource(c.Seed))),
		nn.WithParallel(c.Parallel()),
	}
	if logger != nil {
		opts = append(opts, nn.WithLogger(logger))
	}
	model, err := nn.NewModel(layers, opts...)
	if err != nil {
		return nil, nn.FitConfig{}, err
	}

	fit := nn.FitConfig{
		Loss:         loss,
		Epochs:       c.Epochs,
		LearningRate: c.LearningRate,
		BatchSize:    c.BatchSize,
		Momentum:     c.Momentum,
		ReportEvery:  c.ReportEvery,
	}
	return model, fit, nil
}

func (l LayerConfig) build(inputSize int) (*nn.Dense, error) {
	kind, err := nn.ParseActivation(l.Activation)
	if err != nil {
		return nil, err
	}

	var opts []nn.DenseOption
	if l.L2 > 0 {
		reg, err := nn.NewL2(l.L2)
		if err != nil {
			return nil, err
		}
		opts = append(opts, nn.WithRegularizer(reg))
	}
	if l.SigmoidClamp > 0 {
		opts = append(opts, nn.WithSigmoidClamp(l.SigmoidClamp))
	}
	if l.LeakySlope > 0 {
		opts = append(opts, nn.WithLeakySlope(l.LeakySlope))
	}
	return nn.NewDense(l.Units, inputSize, kind, opts...)
}
