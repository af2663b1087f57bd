// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the parameter update rule used to train densenet
// models.
//
// # Overview
//
// This package contains:
//   - SGD: gradient descent with optional momentum
//   - Optimizer interface for custom update rules
//
// nn.Model.Fit drives an SGD optimizer internally; this package is useful
// when training loops are written by hand against plain slices.
//
// # Basic Usage
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.1})
//
//	for epoch := range numEpochs {
//	    for batch := range batches {
//	        // 1. Compute averaged gradients for the batch
//	        dw, db := gradients(batch)
//
//	        // 2. Update parameters in place
//	        if err := optimizer.Step(
//	            [][]float64{weights, biases},
//	            [][]float64{dw, db},
//	        ); err != nil {
//	            return err
//	        }
//	    }
//	}
//
// Per-parameter momentum state is tracked by position, so the parameter
// slices passed to Step must keep the same order between calls.
package optim
