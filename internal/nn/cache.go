package nn

import (
	"gonum.org/v1/gonum/mat"
)

// LayerCache holds the scratch buffers one layer needs for one example.
//
// DW and DX are inputSize×units, row-major. DReg is only allocated when the
// owning layer has a regularizer. All buffers are overwritten, never
// appended to, so a cache can be reused for any number of examples.
type LayerCache struct {
	Output []float64 // Activated output [units]
	DW     []float64 // Weight gradient [inputSize*units]
	DB     []float64 // Bias gradient [units]
	DX     []float64 // Input gradient [inputSize*units]
	DReg   []float64 // Regularization gradient [inputSize*units], nil without a regularizer
	Delta  []float64 // Cotangent received from the downstream layer [units]

	local     []float64     // Activation derivative per unit [units]
	dxMat     *mat.Dense    // View of DX as [inputSize, units]
	deltaVec  *mat.VecDense // View of Delta
	inputSize int
	units     int
}

func newLayerCache(inputSize, units int, regularized bool) *LayerCache {
	c := &LayerCache{
		Output:    make([]float64, units),
		DW:        make([]float64, inputSize*units),
		DB:        make([]float64, units),
		DX:        make([]float64, inputSize*units),
		Delta:     make([]float64, units),
		local:     make([]float64, units),
		inputSize: inputSize,
		units:     units,
	}
	if regularized {
		c.DReg = make([]float64, inputSize*units)
	}
	c.dxMat = mat.NewDense(inputSize, units, c.DX)
	c.deltaVec = mat.NewVecDense(units, c.Delta)
	return c
}

// InputSize returns the input size the cache was sized for.
func (c *LayerCache) InputSize() int { return c.inputSize }

// Units returns the unit count the cache was sized for.
func (c *LayerCache) Units() int { return c.units }

// fits reports whether the cache matches the current shape of d.
func (c *LayerCache) fits(d *Dense) bool {
	return c.inputSize == d.InputSize() && c.units == d.Units() &&
		(c.DReg != nil) == (d.regularizer != nil)
}

// Arena is the per-Fit scratch space of a model: one LayerCache per
// (batch slot, layer), per-slot loss values, and per-layer buffers that the
// single-threaded reduction averages gradients into.
//
// Each batch slot is written by exactly one goroutine during the parallel
// phase, so slots never contend.
type Arena struct {
	slots  [][]*LayerCache // [slot][layer]
	losses []float64       // [slot]
	gradW  [][]float64     // [layer] averaged weight gradients
	gradB  [][]float64     // [layer] averaged bias gradients
	grads  [][]float64     // gradW/gradB interleaved in optimizer order
}

// NewArena allocates caches for slots concurrent examples over layers.
func NewArena(layers []*Dense, slots int) *Arena {
	a := &Arena{
		slots:  make([][]*LayerCache, slots),
		losses: make([]float64, slots),
		gradW:  make([][]float64, len(layers)),
		gradB:  make([][]float64, len(layers)),
	}
	for s := range a.slots {
		a.slots[s] = make([]*LayerCache, len(layers))
		for l, layer := range layers {
			a.slots[s][l] = layer.CreateCache()
		}
	}
	for l, layer := range layers {
		a.gradW[l] = make([]float64, layer.InputSize()*layer.Units())
		a.gradB[l] = make([]float64, layer.Units())
		a.grads = append(a.grads, a.gradW[l], a.gradB[l])
	}
	return a
}

// Slots returns the number of batch slots.
func (a *Arena) Slots() int { return len(a.slots) }

// Cache returns the cache of layer for batch slot.
func (a *Arena) Cache(layer, slot int) *LayerCache {
	return a.slots[slot][layer]
}

// fits reports whether the arena can serve a batch of the given size over layers.
func (a *Arena) fits(layers []*Dense, slots int) bool {
	if a == nil || len(a.slots) != slots || len(a.gradW) != len(layers) {
		return false
	}
	for s := range a.slots {
		for l, layer := range layers {
			if !a.slots[s][l].fits(layer) {
				return false
			}
		}
	}
	return true
}
