package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDense(t *testing.T, units, inputSize int, kind ActivationKind, opts ...DenseOption) *Dense {
	t.Helper()
	d, err := NewDense(units, inputSize, kind, opts...)
	require.NoError(t, err)
	return d
}

func TestNewDenseRejectsNonPositiveSizes(t *testing.T) {
	for _, dims := range [][2]int{{0, 3}, {3, 0}, {-1, 2}} {
		_, err := NewDense(dims[0], dims[1], Linear)
		assert.ErrorIs(t, err, ErrConstruction, "units=%d input=%d", dims[0], dims[1])
	}

	_, err := NewDense(1, 1, ActivationKind(99))
	assert.ErrorIs(t, err, ErrConstruction)
}

func TestNewDenseStartsAtZero(t *testing.T) {
	d := mustDense(t, 3, 2, ReLU)
	assert.Equal(t, 2, d.InputSize())
	assert.Equal(t, 3, d.Units())
	assert.Equal(t, ReLU, d.Activation())
	assert.Nil(t, d.Regularizer())
	assert.Equal(t, [][]float64{{0, 0, 0}, {0, 0, 0}}, d.Weights())
	assert.Equal(t, []float64{0, 0, 0}, d.Biases())
}

// TestDenseShapes checks the output and gradient shapes for several layer sizes.
func TestDenseShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	l2, err := NewL2(0.01)
	require.NoError(t, err)

	for _, kind := range []ActivationKind{Linear, Sigmoid, ReLU, LeakyReLU} {
		for _, dims := range [][2]int{{1, 1}, {3, 2}, {1, 5}, {4, 7}} {
			units, inputSize := dims[0], dims[1]
			d := mustDense(t, units, inputSize, kind, WithRegularizer(l2))
			d.InitializeWeightsForTraining(rng)

			x := make([]float64, inputSize)
			for i := range x {
				x[i] = rng.NormFloat64()
			}
			_, out, err := d.Forward(x, make([]float64, units))
			require.NoError(t, err)
			assert.Len(t, out, units)

			c := d.CreateCache()
			require.NoError(t, d.Backward(x, out, c))
			assert.Equal(t, inputSize, c.InputSize())
			assert.Equal(t, units, c.Units())
			assert.Len(t, c.DW, inputSize*units)
			assert.Len(t, c.DB, units)
			assert.Len(t, c.DX, inputSize*units)
			assert.Len(t, c.DReg, inputSize*units)
			assert.Len(t, c.Output, units)
		}
	}
}

func TestDenseSetWeightsShapeMismatch(t *testing.T) {
	d := mustDense(t, 2, 3, Linear)
	before := d.Weights()

	bad := [][][]float64{
		{{1, 2}, {3, 4}},                  // too few rows
		{{1, 2}, {3, 4}, {5, 6}, {7, 8}}, // too many rows
		{{1, 2}, {3}, {5, 6}},            // ragged
		{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, // too many columns
		nil,
	}
	for _, w := range bad {
		err := d.SetWeights(w)
		assert.ErrorIs(t, err, ErrShapeMismatch)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		var shapeErr *ShapeError
		require.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, []int{3, 2}, shapeErr.Want)
	}
	assert.Equal(t, before, d.Weights(), "failed setters leave the layer untouched")

	err := d.SetBiases([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	// Biases are checked before weights are copied.
	err = d.SetWeightsAndBiases([][]float64{{1, 2}, {3, 4}, {5, 6}}, []float64{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, before, d.Weights())
}

func TestDenseSettersCopy(t *testing.T) {
	d := mustDense(t, 1, 2, Linear)
	w := [][]float64{{0.5}, {-0.5}}
	b := []float64{0.1}
	require.NoError(t, d.SetWeightsAndBiases(w, b))

	w[0][0] = 100
	b[0] = 100
	assert.Equal(t, [][]float64{{0.5}, {-0.5}}, d.Weights())
	assert.Equal(t, []float64{0.1}, d.Biases())

	got := d.Weights()
	got[1][0] = 42
	assert.Equal(t, -0.5, d.Weights()[1][0], "getters return copies")
}

func TestDenseWithWeightsAndBiases(t *testing.T) {
	d := mustDense(t, 3, 2, Sigmoid, WithWeightsAndBiases(
		[][]float64{{-8.94, 0.29, 12.89}, {-0.17, -7.34, 10.79}},
		[]float64{-9.87, -9.28, 1.01},
	))
	assert.Equal(t, []float64{-9.87, -9.28, 1.01}, d.Biases())

	_, err := NewDense(3, 2, Sigmoid, WithWeightsAndBiases([][]float64{{1}}, []float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestInitializeWeightsForTraining(t *testing.T) {
	for _, tc := range []struct {
		kind  ActivationKind
		bound float64
	}{
		{Sigmoid, math.Sqrt(1.0 / 16)},
		{ReLU, math.Sqrt(2.0 / 16)},
		{Linear, math.Sqrt(2.0 / 16)},
		{LeakyReLU, math.Sqrt(2.0 / 16)},
	} {
		d := mustDense(t, 8, 16, tc.kind)
		require.NoError(t, d.SetBiases([]float64{1, 1, 1, 1, 1, 1, 1, 1}))

		d.InitializeWeightsForTraining(rand.New(rand.NewSource(42)))

		var nonZero int
		for _, row := range d.Weights() {
			for _, w := range row {
				assert.LessOrEqual(t, math.Abs(w), tc.bound)
				if w != 0 {
					nonZero++
				}
			}
		}
		assert.Greater(t, nonZero, 0)
		assert.Equal(t, make([]float64, 8), d.Biases(), "biases reset to zero")
	}
}

func TestInitializeWeightsDeterministic(t *testing.T) {
	a := mustDense(t, 4, 3, ReLU)
	b := mustDense(t, 4, 3, ReLU)
	a.InitializeWeightsForTraining(rand.New(rand.NewSource(1234)))
	b.InitializeWeightsForTraining(rand.New(rand.NewSource(1234)))
	assert.Equal(t, a.Weights(), b.Weights())

	b.InitializeWeightsForTraining(rand.New(rand.NewSource(4321)))
	assert.NotEqual(t, a.Weights(), b.Weights())
}

func TestDenseForward(t *testing.T) {
	l2, err := NewL2(0.5)
	require.NoError(t, err)
	d := mustDense(t, 2, 2, Linear,
		WithRegularizer(l2),
		WithWeightsAndBiases([][]float64{{1, 2}, {3, 4}}, []float64{0.5, -0.5}),
	)

	reg, out, err := d.Forward([]float64{1, -1}, make([]float64, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5 + 1 - 3, -0.5 + 2 - 4}, out)
	assert.InDelta(t, 0.5*0.5*(1+4+9+16), reg, 1e-12)

	_, _, err = d.Forward([]float64{1}, make([]float64, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, _, err = d.Forward([]float64{1, 2}, make([]float64, 3))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDenseSoftmaxFailsOnFirstUse(t *testing.T) {
	d := mustDense(t, 3, 2, Softmax)

	_, _, err := d.Forward([]float64{1, 2}, make([]float64, 3))
	assert.ErrorIs(t, err, ErrUnsupportedActivation)

	err = d.Backward([]float64{1, 2}, []float64{0.2, 0.3, 0.5}, d.CreateCache())
	assert.ErrorIs(t, err, ErrUnsupportedActivation)
}

func TestDenseBackwardRegularization(t *testing.T) {
	l2, err := NewL2(0.1)
	require.NoError(t, err)
	d := mustDense(t, 1, 2, Linear,
		WithRegularizer(l2),
		WithWeightsAndBiases([][]float64{{0.5}, {-0.5}}, []float64{0.1}),
	)

	c := d.CreateCache()
	x := []float64{1, 2}
	_, out, err := d.Forward(x, c.Output)
	require.NoError(t, err)
	require.NoError(t, d.Backward(x, out, c))

	assert.Equal(t, []float64{1, 2}, c.DW)
	assert.Equal(t, []float64{1}, c.DB)
	assert.Equal(t, []float64{0.5, -0.5}, c.DX)
	assert.InDeltaSlice(t, []float64{0.05, -0.05}, c.DReg, 1e-15)
}

func TestDenseBackwardRejectsForeignCache(t *testing.T) {
	d := mustDense(t, 2, 3, Linear)
	other := mustDense(t, 3, 2, Linear)

	err := d.Backward([]float64{1, 2, 3}, []float64{0, 0}, other.CreateCache())
	assert.ErrorIs(t, err, ErrShapeMismatch)

	err = d.Backward([]float64{1, 2}, []float64{0, 0}, d.CreateCache())
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestDenseString(t *testing.T) {
	l2, err := NewL2(0.1)
	require.NoError(t, err)
	d := mustDense(t, 1, 2, Sigmoid,
		WithRegularizer(l2),
		WithWeightsAndBiases([][]float64{{0.5}, {-0.5}}, []float64{0.1}),
	)

	s := d.String()
	assert.Contains(t, s, "Dense(2 -> 1, sigmoid, l2(0.1))")
	assert.Contains(t, s, "[0.5]")
	assert.Contains(t, s, "[-0.5]")
	assert.Contains(t, s, "biases: [0.1]")
}
