package predictor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestFitScalerUsesPopulationStd(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	s := FitScaler(x)

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	// constant column
	assert.InDelta(t, 5.0, s.Mean[1], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1])
}

func TestScalerTransform(t *testing.T) {
	train := mat.NewDense(2, 1, []float64{0, 10})
	s := FitScaler(train)

	out := s.Transform(mat.NewDense(3, 1, []float64{0, 5, 20}))
	assert.InDelta(t, -1.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, out.At(1, 0), 1e-12)
	assert.InDelta(t, 3.0, out.At(2, 0), 1e-12)
}
