package exec

import (
	"encoding/json"
	"errors"

	"NeuroFeat/internal/services/features"
)

const (
	errKindUnknownFeature = "unknown_feature"
	errKindCompute        = "compute"
)

// rowResult is the wire form of one completed task pulled from the result
// list. Typed errors are flattened for transport and reconstructed by the
// collecting side.
type rowResult struct {
	Index      int        `json:"index"`
	Row        []*float64 `json:"row,omitempty"`
	Err        string     `json:"err,omitempty"`
	ErrKind    string     `json:"err_kind,omitempty"`
	ErrSignal  string     `json:"err_signal,omitempty"`
	ErrFeature string     `json:"err_feature,omitempty"`
	ErrChannel int        `json:"err_channel,omitempty"`
}

func (r *rowResult) marshal() ([]byte, error)  { return json.Marshal(r) }
func (r *rowResult) unmarshal(b []byte) error { return json.Unmarshal(b, r) }

func (r *rowResult) fromError(err error) {
	r.Err = err.Error()

	var ce *features.ComputationError
	if errors.As(err, &ce) {
		r.ErrKind = errKindCompute
		r.Err = ce.Err.Error()
		r.ErrSignal = ce.SignalID
		r.ErrFeature = ce.Feature
		r.ErrChannel = ce.Channel
		return
	}

	var ufe *features.UnknownFeatureError
	if errors.As(err, &ufe) {
		r.ErrKind = errKindUnknownFeature
		r.ErrFeature = ufe.Name
	}
}

func (r *rowResult) toError() error {
	switch r.ErrKind {
	case errKindCompute:
		return &features.ComputationError{
			SignalID: r.ErrSignal,
			Feature:  r.ErrFeature,
			Channel:  r.ErrChannel,
			Err:      errors.New(r.Err),
		}
	case errKindUnknownFeature:
		return &features.UnknownFeatureError{Name: r.ErrFeature}
	default:
		return &TaskFailureError{Index: r.Index, Reason: r.Err}
	}
}
