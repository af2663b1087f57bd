// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides dense feed-forward networks trained with mini-batch
// gradient descent.
//
// # Overview
//
// This package contains:
//   - Layers: Dense with Linear, Sigmoid, ReLU and LeakyReLU activations
//   - Loss functions: MeanSquaredError, BinaryCrossEntropy (probabilities or logits)
//   - Regularization: L2
//   - Models: Model with Predict, PredictBatch and Fit
//
// # Basic Usage
//
//	import (
//	    "math/rand"
//
//	    "github.com/born-ml/densenet/nn"
//	)
//
//	func main() {
//	    hidden, _ := nn.NewDense(3, 2, nn.Sigmoid)
//	    output, _ := nn.NewDense(1, 3, nn.Sigmoid)
//	    model, _ := nn.NewModel([]*nn.Dense{hidden, output},
//	        nn.WithRand(rand.New(rand.NewSource(1234))))
//
//	    _, err := model.Fit(x, y, nn.FitConfig{
//	        Loss:         nn.NewBinaryCrossEntropy(false),
//	        Epochs:       10000,
//	        LearningRate: 0.1,
//	    })
//	    yHat, err := model.Predict(x[0])
//	}
//
// # Training
//
// Fit initializes every layer from the model's random source (unless
// FitConfig.SkipInit is set), then walks the training set in contiguous
// mini-batches. The examples of a batch run forward and backward in
// parallel, each into its own slot of an Arena; the averaged gradient is
// applied once per batch. Weights are only written between batches.
//
// Progress is reported ReportEvery times over the run:
//
//	cfg.ReportEvery = 10
//	cfg.Progress = nn.LogProgress(slog.Default())
//
// Returning ErrStopTraining from a ProgressFunc ends training early without
// an error.
//
// # Binary Cross-Entropy
//
// Labels must be exactly 0 or 1. With fromLogits the loss takes the raw
// output of a Linear layer and is evaluated in a numerically stable form;
// Fit rejects logits mode on any other output activation.
//
//	loss := nn.NewBinaryCrossEntropy(true)
package nn
