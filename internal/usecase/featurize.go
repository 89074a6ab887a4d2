package usecase

import (
	"context"
	"fmt"
	"time"

	"NeuroFeat/internal/domain/models"
	drepo "NeuroFeat/internal/domain/repository"
	"NeuroFeat/internal/service/exec"
	"NeuroFeat/internal/services/features"
)

// FeatureRequest describes one featurization batch.
type FeatureRequest struct {
	Features []string
	Custom   map[string]features.Func
	Backend  string // empty selects the configured default
}

// Featurizer is the batch scheduler: it resolves feature functions once,
// validates the batch, fans per-signal tasks out to an execution backend,
// and assembles the dense feature table. The call either yields a complete
// rectangular table or fails with the first detected fault — there is no
// partial-success mode.
type Featurizer struct {
	backends map[string]exec.Backend
	def      string
	metrics  drepo.Metrics
}

// NewFeaturizer creates the batch scheduler over the available backends.
func NewFeaturizer(backends []exec.Backend, defaultBackend string, metrics drepo.Metrics) (*Featurizer, error) {
	m := make(map[string]exec.Backend, len(backends))
	for _, b := range backends {
		m[b.Name()] = b
	}
	if _, ok := m[defaultBackend]; !ok {
		return nil, fmt.Errorf("default backend %q not available", defaultBackend)
	}
	return &Featurizer{backends: m, def: defaultBackend, metrics: metrics}, nil
}

// Backends returns the names of the available execution backends.
func (f *Featurizer) Backends() []string {
	out := make([]string, 0, len(f.backends))
	for name := range f.backends {
		out = append(out, name)
	}
	return out
}

// Featurize produces one feature table for the dataset. Row i of the table
// corresponds to ds.Signals[i] regardless of backend completion order.
func (f *Featurizer) Featurize(ctx context.Context, ds *models.Dataset, req FeatureRequest) (*models.FeatureTable, error) {
	if len(req.Features) == 0 {
		return nil, fmt.Errorf("no features requested")
	}

	backend, err := f.backend(req.Backend)
	if err != nil {
		return nil, err
	}

	for i := range ds.Signals {
		if err := ds.Signals[i].Validate(); err != nil {
			return nil, err
		}
	}

	// Resolve once per batch; tasks receive the resolved set explicitly.
	fns, err := features.Resolve(req.Features, req.Custom)
	if err != nil {
		f.metrics.RecordError("featurize_resolve")
		return nil, err
	}

	channels, err := features.ValidateChannels(ds.Signals)
	if err != nil {
		f.metrics.RecordError("featurize_channels")
		return nil, err
	}

	batchID := fmt.Sprintf("%d", time.Now().UnixNano())
	if or, ok := backend.(exec.OverrideRegistrar); ok {
		or.RegisterOverrides(batchID, req.Custom)
		defer or.UnregisterOverrides(batchID)
	}

	tasks := make([]exec.Task, len(ds.Signals))
	for i := range ds.Signals {
		sig := &ds.Signals[i]
		tasks[i] = exec.Task{
			Index: i,
			Run: func(ctx context.Context) ([]float64, error) {
				return features.ComputeSignal(sig, fns)
			},
			Payload: &exec.Payload{
				BatchID:  batchID,
				Index:    i,
				Signal:   *sig,
				Features: req.Features,
			},
		}
	}

	start := time.Now()
	rows, err := backend.Run(ctx, tasks)
	if err != nil {
		f.metrics.RecordError("featurize_batch")
		return nil, err
	}
	f.metrics.RecordLatency("featurize_batch", time.Since(start).Seconds())
	f.metrics.RecordBatchSize(backend.Name(), len(ds.Signals))

	// A missing or malformed row is fatal: NaN stands only for a feature
	// function's own NaN, never for a dropped task result.
	width := len(req.Features) * channels
	for i, row := range rows {
		if row == nil || len(row) != width {
			return nil, &exec.TaskFailureError{Index: i, Reason: "no result row"}
		}
	}

	return &models.FeatureTable{
		IDs:      signalIDs(ds),
		Labels:   ds.Labels(),
		Features: req.Features,
		Channels: channels,
		Rows:     rows,
	}, nil
}

func (f *Featurizer) backend(name string) (exec.Backend, error) {
	if name == "" {
		name = f.def
	}
	b, ok := f.backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown execution backend: %s", name)
	}
	return b, nil
}

func signalIDs(ds *models.Dataset) []string {
	out := make([]string, len(ds.Signals))
	for i := range ds.Signals {
		out[i] = ds.Signals[i].ID
		if out[i] == "" {
			out[i] = fmt.Sprintf("%d", i)
		}
	}
	return out
}
