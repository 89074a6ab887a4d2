package models

import "math"

// Requests and responses for the featurization HTTP endpoints. Defined in
// domain for consistency and reuse. JSON cannot carry NaN, so response rows
// use *float64 with null standing for NaN.

type SignalRequest struct {
	ID       string      `json:"id"`
	Times    []float64   `json:"times,omitempty"`
	Channels [][]float64 `json:"channels" validate:"required,min=1"`
	Errs     [][]float64 `json:"errs,omitempty"`
	Label    string      `json:"label,omitempty"`
}

type FeaturizeRequest struct {
	Signals  []SignalRequest `json:"signals" validate:"required,min=1,dive"`
	Features []string        `json:"features" validate:"required,min=1"`
	Backend  string          `json:"backend" validate:"omitempty,oneof=sequential parallel redis"`
}

type CorpusFeaturizeRequest struct {
	Sessions []string `json:"sessions,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Limit    int      `json:"limit" default:"1000" validate:"gte=1,lte=100000"`
	Features []string `json:"features" validate:"required,min=1"`
	Backend  string   `json:"backend" validate:"omitempty,oneof=sequential parallel redis"`
}

type TrainRequest struct {
	CorpusFeaturizeRequest
	K         int     `json:"k" default:"5" validate:"gte=1,lte=99"`
	TestSplit float64 `json:"test_split" default:"0.25" validate:"gt=0,lt=1"`
}

type PredictRequest struct {
	ModelID string          `json:"model_id" validate:"required"`
	Signals []SignalRequest `json:"signals" validate:"required,min=1,dive"`
	Backend string          `json:"backend" validate:"omitempty,oneof=sequential parallel redis"`
}

// FeatureTableResponse is the dense table in wire form.
type FeatureTableResponse struct {
	IDs      []string     `json:"ids"`
	Labels   []string     `json:"labels"`
	Features []string     `json:"features"`
	Channels int          `json:"channels"`
	Columns  []string     `json:"columns"`
	Rows     [][]*float64 `json:"rows"`
}

type PredictResponse struct {
	ModelID string               `json:"model_id"`
	IDs     []string             `json:"ids"`
	Labels  []string             `json:"labels"`
	Probas  []map[string]float64 `json:"probas"`
}

// ToSignals converts request signals into domain signals.
func ToSignals(reqs []SignalRequest) []Signal {
	out := make([]Signal, len(reqs))
	for i, r := range reqs {
		out[i] = Signal{
			ID:       r.ID,
			Times:    r.Times,
			Channels: r.Channels,
			Errs:     r.Errs,
			Label:    r.Label,
		}
	}
	return out
}

// NewFeatureTableResponse converts a table to wire form, mapping NaN to null.
func NewFeatureTableResponse(t *FeatureTable) *FeatureTableResponse {
	cols := t.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.String()
	}
	rows := make([][]*float64, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = make([]*float64, len(row))
		for j := range row {
			if math.IsNaN(row[j]) {
				continue
			}
			v := row[j]
			rows[i][j] = &v
		}
	}
	return &FeatureTableResponse{
		IDs:      t.IDs,
		Labels:   t.Labels,
		Features: t.Features,
		Channels: t.Channels,
		Columns:  names,
		Rows:     rows,
	}
}
