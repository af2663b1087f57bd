// Package main provides the densenet CLI: it trains a dense network on the
// synthetic coffee roasting data and reports its accuracy.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/born-ml/densenet/internal/config"
	"github.com/born-ml/densenet/internal/dataset"
	"github.com/born-ml/densenet/internal/metrics"
	"github.com/born-ml/densenet/internal/nn"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("densenet %s\n", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "densenet: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("densenet", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (default: built-in coffee network)")
	epochs := fs.Int("epochs", 0, "Number of training epochs")
	lr := fs.Float64("lr", 0, "Learning rate")
	batchSize := fs.Int("batch-size", 0, "Mini-batch size")
	examples := fs.Int("examples", 400, "Number of coffee roasting examples to generate")
	seed := fs.Int64("seed", 0, "PRNG seed for data and weights")
	reportEvery := fs.Int("report-every", 0, "Number of progress reports over the run")
	workers := fs.Int("workers", 0, "Goroutines per batch (1 disables parallelism)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stdout, &slog.HandlerOptions{Level: level}))

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyOverrides(config.Overrides{
		Epochs:       *epochs,
		LearningRate: *lr,
		BatchSize:    *batchSize,
		Seed:         *seed,
		ReportEvery:  *reportEvery,
		Workers:      *workers,
	})

	model, fit, err := cfg.Build(logger)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}
	if model.InputSize() != 2 {
		return fmt.Errorf("coffee data has 2 features, model expects %d", model.InputSize())
	}

	x, y := dataset.CoffeeRoast(*examples, cfg.Seed)
	norm := dataset.NewNormalization(2)
	if err := norm.Adapt(x); err != nil {
		return err
	}
	xn, err := norm.Transform(x)
	if err != nil {
		return err
	}
	logger.Info("dataset ready", "examples", len(xn), "mean", norm.Mean(), "std", norm.Std())

	fit.Progress = reporter(ctx, logger, len(xn), fit.Epochs)
	res, err := model.Fit(xn, y, fit)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	if res.Stopped {
		logger.Warn("training interrupted", "epoch", res.Epochs)
	}

	yHat, err := model.PredictBatch(xn)
	if err != nil {
		return err
	}
	acc, errs, err := metrics.BinaryAccuracy(y, metrics.FirstColumn(yHat), metrics.DefaultThreshold)
	if err != nil {
		return err
	}
	logger.Info("training done", "epochs", res.Epochs, "loss", res.Loss, "accuracy", acc, "errors", errs)
	logger.Debug("final weights\n" + model.String())
	return nil
}

// reporter logs throughput and loss at every progress report and stops
// training at the next report once ctx is cancelled.
func reporter(ctx context.Context, logger *slog.Logger, examples, epochs int) nn.ProgressFunc {
	var (
		window    metrics.Window
		lastEpoch int
		lastTime  time.Duration
	)
	return func(p nn.Progress) error {
		window.Record(examples*(p.Epoch-lastEpoch), p.Elapsed-lastTime, p.Loss)
		lastEpoch, lastTime = p.Epoch, p.Elapsed

		snap := window.Snapshot()
		logger.Info("training progress",
			"epoch", p.Epoch,
			"epochs", epochs,
			"loss", snap.LastLoss,
			"best_loss", snap.BestLoss,
			"examples_per_sec", int(snap.ExamplesPerSec),
			"elapsed", p.Elapsed.Round(time.Millisecond),
		)

		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				return nn.ErrStopTraining
			}
			return err
		}
		return nil
	}
}
