package dataset

import (
	"errors"
	"math"
)

// StandardScaler standardizes each feature column to zero mean and unit
// variance. Fit on the training partition only, then applied to both
// partitions so the test set never leaks into the statistics.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// NewStandardScaler returns an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes per-column mean and standard deviation. Zero-variance
// columns get a standard deviation of 1 so they pass through unchanged.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return errors.New("dataset: cannot fit scaler on empty data")
	}

	rows, cols := len(X), len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			s.Mean[j] += X[i][j]
		}
		s.Mean[j] /= float64(rows)

		var v float64
		for i := 0; i < rows; i++ {
			d := X[i][j] - s.Mean[j]
			v += d * d
		}
		s.Std[j] = math.Sqrt(v / float64(rows))
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform returns a standardized copy of X.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if len(s.Mean) == 0 {
		return nil, errors.New("dataset: scaler not fitted")
	}

	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Mean) {
			return nil, errors.New("dataset: scaler width mismatch")
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits on X and returns its standardized copy.
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
