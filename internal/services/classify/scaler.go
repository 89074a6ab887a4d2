package classify

import (
	"errors"
	"math"
)

// Scaler standardizes feature columns with z-score normalization so no
// single large-magnitude feature dominates distance computations. NaN cells
// (a feature function's "undefined for this input") are imputed to the
// column's training mean, which maps to zero after scaling.
type Scaler struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

// FitScaler computes per-column scaling parameters from training rows.
func FitScaler(rows [][]float64) (*Scaler, error) {
	if len(rows) == 0 {
		return nil, errors.New("no training rows")
	}
	width := len(rows[0])
	if width == 0 {
		return nil, errors.New("rows have no columns")
	}

	mean := make([]float64, width)
	count := make([]float64, width)
	for _, row := range rows {
		if len(row) != width {
			return nil, errors.New("inconsistent row width")
		}
		for i, v := range row {
			if math.IsNaN(v) {
				continue
			}
			mean[i] += v
			count[i]++
		}
	}
	for i := range mean {
		if count[i] > 0 {
			mean[i] /= count[i]
		}
	}

	stddev := make([]float64, width)
	for _, row := range rows {
		for i, v := range row {
			if math.IsNaN(v) {
				continue
			}
			diff := v - mean[i]
			stddev[i] += diff * diff
		}
	}
	for i := range stddev {
		if count[i] > 0 {
			stddev[i] = math.Sqrt(stddev[i] / count[i])
		}
	}

	return &Scaler{Mean: mean, Stddev: stddev}, nil
}

// Transform returns the scaled copy of one row.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, errors.New("row width does not match scaler")
	}
	out := make([]float64, len(row))
	for i, v := range row {
		if math.IsNaN(v) {
			v = s.Mean[i]
		}
		if s.Stddev[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - s.Mean[i]) / s.Stddev[i]
	}
	return out, nil
}

// TransformAll scales every row.
func (s *Scaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
