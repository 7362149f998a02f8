package stats

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyMatrix = errors.New("stats: empty matrix")
	ErrDimension   = errors.New("stats: dimension mismatch")
	ErrNotFitted   = errors.New("stats: scaler not fitted")
)

// zeroVarianceTolerance is relative to the column magnitude.
const zeroVarianceTolerance = 1e-12

// StandardScaler standardizes each column to zero mean and unit variance.
// A column whose standard deviation is zero always transforms to 0.
type StandardScaler struct {
	Mean    []float64
	Std     []float64
	Columns []string // optional feature names, in column order
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fit computes per-column population statistics over X.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return ErrEmptyMatrix
	}
	c := len(X[0])
	for i := range X {
		if len(X[i]) != c {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimension, i, len(X[i]), c)
		}
	}
	mean := make([]float64, c)
	std := make([]float64, c)
	for j := 0; j < c; j++ {
		col := Column(X, j)
		mean[j] = Mean(col)
		std[j] = Std(col)
		if std[j] <= zeroVarianceTolerance*math.Max(1, math.Abs(mean[j])) {
			std[j] = 0
		}
	}
	s.Mean, s.Std = mean, std
	return nil
}

// Fitted reports whether statistics are available.
func (s *StandardScaler) Fitted() bool { return len(s.Mean) > 0 && len(s.Mean) == len(s.Std) }

// NumFeatures returns the fitted column count.
func (s *StandardScaler) NumFeatures() int { return len(s.Mean) }

// TransformRow scales a single row with the fitted statistics.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if !s.Fitted() {
		return nil, ErrNotFitted
	}
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrDimension, len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		if s.Std[j] == 0 {
			out[j] = 0
			continue
		}
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

// Transform scales every row of X.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	Y := make([][]float64, len(X))
	for i := range X {
		row, err := s.TransformRow(X[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		Y[i] = row
	}
	return Y, nil
}

func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// MarshalBinary implements encoding.BinaryMarshaler using gob.
func (s *StandardScaler) MarshalBinary() ([]byte, error) {
	type state StandardScaler
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode((*state)(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using gob.
func (s *StandardScaler) UnmarshalBinary(data []byte) error {
	type state StandardScaler
	var st state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&st); err != nil {
		return err
	}
	if len(st.Mean) != len(st.Std) {
		return fmt.Errorf("%w: %d means, %d deviations", ErrDimension, len(st.Mean), len(st.Std))
	}
	*s = StandardScaler(st)
	return nil
}
