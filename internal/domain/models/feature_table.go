package models

import "fmt"

// ColumnKey identifies one feature table column: a feature name applied to
// one channel of every signal.
type ColumnKey struct {
	Feature string `json:"feature"`
	Channel int    `json:"channel"`
}

func (k ColumnKey) String() string {
	return fmt.Sprintf("%s_ch%d", k.Feature, k.Channel)
}

// FeatureTable is the dense artifact produced by one featurization batch.
// Rows are ordered like the input dataset; columns are ordered feature-major
// (all channels of the first feature, then the second, and so on).
// The table is immutable after assembly.
type FeatureTable struct {
	IDs      []string    `json:"ids"`
	Labels   []string    `json:"labels"`
	Features []string    `json:"features"`
	Channels int         `json:"channels"`
	Rows     [][]float64 `json:"rows"`
}

// NumRows returns the number of signals in the table.
func (t *FeatureTable) NumRows() int { return len(t.Rows) }

// NumColumns returns feature count times channel count.
func (t *FeatureTable) NumColumns() int { return len(t.Features) * t.Channels }

// Columns returns the ordered column keys.
func (t *FeatureTable) Columns() []ColumnKey {
	out := make([]ColumnKey, 0, t.NumColumns())
	for _, f := range t.Features {
		for ch := 0; ch < t.Channels; ch++ {
			out = append(out, ColumnKey{Feature: f, Channel: ch})
		}
	}
	return out
}

// ColumnIndex returns the flat column index of (feature, channel), or -1
// when the combination is not part of the table.
func (t *FeatureTable) ColumnIndex(feature string, channel int) int {
	if channel < 0 || channel >= t.Channels {
		return -1
	}
	for i, f := range t.Features {
		if f == feature {
			return i*t.Channels + channel
		}
	}
	return -1
}

// Value returns the scalar for (row, feature, channel).
func (t *FeatureTable) Value(row int, feature string, channel int) (float64, error) {
	if row < 0 || row >= len(t.Rows) {
		return 0, fmt.Errorf("row %d out of range", row)
	}
	col := t.ColumnIndex(feature, channel)
	if col < 0 {
		return 0, fmt.Errorf("no column for feature %q channel %d", feature, channel)
	}
	return t.Rows[row][col], nil
}
