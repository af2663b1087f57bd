package metrics

import (
	"math"
	"time"
)

// Window accumulates training statistics between progress reports.
type Window struct {
	examples int
	elapsed  time.Duration
	reports  int
	lastLoss float64
	bestLoss float64
}

// Record adds the loss observed after examples were processed in elapsed time.
func (w *Window) Record(examples int, elapsed time.Duration, loss float64) {
	if w.reports == 0 || loss < w.bestLoss {
		w.bestLoss = loss
	}
	w.examples += examples
	w.elapsed += elapsed
	w.reports++
	w.lastLoss = loss
}

// Snapshot returns aggregated metrics and resets the throughput counters.
// The best loss is kept across snapshots.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{
		LastLoss: w.lastLoss,
		BestLoss: w.bestLoss,
	}
	if w.reports == 0 {
		snap.BestLoss = math.NaN()
		snap.LastLoss = math.NaN()
	}
	if w.elapsed > 0 {
		snap.ExamplesPerSec = float64(w.examples) / w.elapsed.Seconds()
	}

	w.examples = 0
	w.elapsed = 0
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	ExamplesPerSec float64
	LastLoss       float64
	BestLoss       float64
}
