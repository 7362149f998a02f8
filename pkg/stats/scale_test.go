package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardScalerStatistics(t *testing.T) {
	X := [][]float64{
		{25, 70, 1.75, 7, 1},
		{32, 58.5, 1.62, 6, 1},
		{41, 90, 1.80, 8, 1},
		{19, 64, 1.68, 9, 1},
	}
	s := NewStandardScaler()
	Y, err := s.FitTransform(X)
	require.NoError(t, err)

	for j := 0; j < 4; j++ {
		col := Column(Y, j)
		assert.InDelta(t, 0, Mean(col), 1e-9, "column %d mean", j)
		assert.InDelta(t, 1, Std(col), 1e-9, "column %d std", j)
	}

	// constant column: zero-variance policy emits 0
	assert.Equal(t, 0.0, s.Std[4])
	for i := range Y {
		assert.Equal(t, 0.0, Y[i][4])
	}
}

func TestZeroVarianceAtInference(t *testing.T) {
	s := NewStandardScaler()
	require.NoError(t, s.Fit([][]float64{{0.1, 1}, {0.1, 3}, {0.1, 5}}))
	assert.Equal(t, 0.0, s.Std[0], "rounding noise must not count as variance")

	row, err := s.TransformRow([]float64{42, 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, row[0])
	assert.InDelta(t, 0, row[1], 1e-12)
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScaler()

	_, err := s.TransformRow([]float64{1})
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, s.Fit(nil), ErrEmptyMatrix)
	assert.ErrorIs(t, s.Fit([][]float64{{1, 2}, {3}}), ErrDimension)

	require.NoError(t, s.Fit([][]float64{{1, 2}, {3, 4}}))
	_, err = s.TransformRow([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrDimension)
	_, err = s.Transform([][]float64{{1, 2}, {1}})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestStandardScalerBinaryRoundTrip(t *testing.T) {
	s := NewStandardScaler()
	require.NoError(t, s.Fit([][]float64{{1.1, 5}, {2.3, 5}, {0.7, 5}}))
	s.Columns = []string{"a", "b"}

	raw, err := s.MarshalBinary()
	require.NoError(t, err)

	var restored StandardScaler
	require.NoError(t, restored.UnmarshalBinary(raw))
	assert.Equal(t, s.Columns, restored.Columns)
	for j := range s.Mean {
		assert.Equal(t, math.Float64bits(s.Mean[j]), math.Float64bits(restored.Mean[j]))
		assert.Equal(t, math.Float64bits(s.Std[j]), math.Float64bits(restored.Std[j]))
	}

	want, _ := s.TransformRow([]float64{1.9, 5})
	got, err := restored.TransformRow([]float64{1.9, 5})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVariance(t *testing.T) {
	assert.Equal(t, 0.0, Variance(nil))
	assert.InDelta(t, 1.25, Variance([]float64{1, 2, 3, 4}), 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), Std([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 2.5, Mean([]float64{1, 2, 3, 4}))
}
