package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"NeuroFeat/internal/domain/models"
	"NeuroFeat/internal/service/exec"
	"NeuroFeat/internal/services/features"
)

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)  {}
func (nopMetrics) RecordError(string)                {}
func (nopMetrics) RecordLatency(string, float64)     {}
func (nopMetrics) RecordBatchSize(string, int)       {}

func newTestFeaturizer(t *testing.T, def string) *Featurizer {
	t.Helper()
	f, err := NewFeaturizer([]exec.Backend{
		exec.NewSequentialBackend(),
		exec.NewParallelBackend(4),
	}, def, nopMetrics{})
	if err != nil {
		t.Fatalf("new featurizer: %v", err)
	}
	return f
}

func rampDataset() *models.Dataset {
	asc := make([]float64, 10)
	desc := make([]float64, 10)
	flat := make([]float64, 10)
	for i := 0; i < 10; i++ {
		asc[i] = float64(i + 1)
		desc[i] = float64(10 - i)
		flat[i] = 5
	}
	return &models.Dataset{Signals: []models.Signal{
		{ID: "asc", Channels: [][]float64{asc}, Label: "a"},
		{ID: "desc", Channels: [][]float64{desc}, Label: "b"},
		{ID: "flat", Channels: [][]float64{flat}, Label: "a"},
	}}
}

func TestFeaturizeMeanStdTable(t *testing.T) {
	f := newTestFeaturizer(t, exec.BackendSequential)
	table, err := f.Featurize(context.Background(), rampDataset(), FeatureRequest{
		Features: []string{"mean", "std"},
	})
	if err != nil {
		t.Fatalf("featurize: %v", err)
	}
	if table.NumRows() != 3 || table.NumColumns() != 2 {
		t.Fatalf("unexpected shape %dx%d", table.NumRows(), table.NumColumns())
	}

	wantStd := math.Sqrt(8.25)
	checks := []struct {
		row     int
		mean    float64
		std     float64
	}{
		{0, 5.5, wantStd},
		{1, 5.5, wantStd},
		{2, 5.0, 0.0},
	}
	for _, c := range checks {
		mean, err := table.Value(c.row, "mean", 0)
		if err != nil {
			t.Fatalf("value: %v", err)
		}
		std, err := table.Value(c.row, "std", 0)
		if err != nil {
			t.Fatalf("value: %v", err)
		}
		if math.Abs(mean-c.mean) > 1e-9 || math.Abs(std-c.std) > 1e-9 {
			t.Fatalf("row %d: mean=%v std=%v, want mean=%v std=%v", c.row, mean, std, c.mean, c.std)
		}
	}
	if table.Labels[0] != "a" || table.Labels[1] != "b" || table.Labels[2] != "a" {
		t.Fatalf("labels misaligned: %v", table.Labels)
	}
}

func TestFeaturizeOrderingParallel(t *testing.T) {
	f := newTestFeaturizer(t, exec.BackendParallel)
	signals := make([]models.Signal, 32)
	for i := range signals {
		signals[i] = models.Signal{
			ID:       fmt.Sprintf("s%d", i),
			Channels: [][]float64{{float64(i), float64(i)}},
		}
	}
	table, err := f.Featurize(context.Background(), &models.Dataset{Signals: signals}, FeatureRequest{
		Features: []string{"mean"},
	})
	if err != nil {
		t.Fatalf("featurize: %v", err)
	}
	for i := range signals {
		v, _ := table.Value(i, "mean", 0)
		if v != float64(i) {
			t.Fatalf("row %d holds %v: ordering broken", i, v)
		}
		if table.IDs[i] != fmt.Sprintf("s%d", i) {
			t.Fatalf("id %d misaligned: %s", i, table.IDs[i])
		}
	}
}

func TestFeaturizeIdempotentSequential(t *testing.T) {
	f := newTestFeaturizer(t, exec.BackendSequential)
	req := FeatureRequest{Features: []string{"mean", "std", "slope", "iqr"}}
	first, err := f.Featurize(context.Background(), rampDataset(), req)
	if err != nil {
		t.Fatalf("featurize: %v", err)
	}
	second, err := f.Featurize(context.Background(), rampDataset(), req)
	if err != nil {
		t.Fatalf("featurize: %v", err)
	}
	for i := range first.Rows {
		for j := range first.Rows[i] {
			a, b := first.Rows[i][j], second.Rows[i][j]
			if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
				t.Fatalf("cell (%d,%d) differs between identical runs: %v vs %v", i, j, a, b)
			}
		}
	}
}

func TestFeaturizeFailingFeatureAbortsBatch(t *testing.T) {
	f := newTestFeaturizer(t, exec.BackendSequential)
	ds := &models.Dataset{Signals: []models.Signal{
		{ID: "ok", Channels: [][]float64{{1, 2, 3}}},
		{ID: "zeros", Channels: [][]float64{{0, 0, 0}}},
	}}
	custom := map[string]features.Func{
		"inv_mean": func(_, v, _ []float64) (float64, error) {
			sum := 0.0
			for _, x := range v {
				sum += x
			}
			if sum == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return float64(len(v)) / sum, nil
		},
	}
	table, err := f.Featurize(context.Background(), ds, FeatureRequest{
		Features: []string{"inv_mean"},
		Custom:   custom,
	})
	var ce *features.ComputationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ComputationError, got %v", err)
	}
	if ce.SignalID != "zeros" || ce.Feature != "inv_mean" {
		t.Fatalf("wrong fault context: %+v", ce)
	}
	if table != nil {
		t.Fatalf("expected zero rows on failure, got table with %d", table.NumRows())
	}
}

func TestFeaturizeChannelMismatchBeforeCompute(t *testing.T) {
	f := newTestFeaturizer(t, exec.BackendSequential)
	var invoked int32
	custom := map[string]features.Func{
		"probe": func(_, _, _ []float64) (float64, error) {
			atomic.AddInt32(&invoked, 1)
			return 0, nil
		},
	}
	ds := &models.Dataset{Signals: []models.Signal{
		{ID: "two", Channels: [][]float64{{1}, {2}}},
		{ID: "one", Channels: [][]float64{{1}}},
	}}
	_, err := f.Featurize(context.Background(), ds, FeatureRequest{
		Features: []string{"probe"},
		Custom:   custom,
	})
	var cce *features.ChannelCountError
	if !errors.As(err, &cce) {
		t.Fatalf("expected ChannelCountError, got %v", err)
	}
	if atomic.LoadInt32(&invoked) != 0 {
		t.Fatalf("feature computation ran before channel validation")
	}
}

func TestFeaturizeTwoChannelColumns(t *testing.T) {
	f := newTestFeaturizer(t, exec.BackendSequential)
	ds := &models.Dataset{Signals: []models.Signal{
		{ID: "s", Channels: [][]float64{{1, 2, 3}, {30, 20, 10}}},
	}}
	table, err := f.Featurize(context.Background(), ds, FeatureRequest{Features: []string{"mean"}})
	if err != nil {
		t.Fatalf("featurize: %v", err)
	}
	cols := table.Columns()
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(cols))
	}
	if cols[0] != (models.ColumnKey{Feature: "mean", Channel: 0}) ||
		cols[1] != (models.ColumnKey{Feature: "mean", Channel: 1}) {
		t.Fatalf("unexpected columns %v", cols)
	}
	v0, _ := table.Value(0, "mean", 0)
	v1, _ := table.Value(0, "mean", 1)
	if v0 != 2 || v1 != 20 {
		t.Fatalf("channel values not independent: %v %v", v0, v1)
	}
}

func TestFeaturizeUnknownFeature(t *testing.T) {
	f := newTestFeaturizer(t, exec.BackendSequential)
	_, err := f.Featurize(context.Background(), rampDataset(), FeatureRequest{
		Features: []string{"mean", "spectral_unicorn"},
	})
	var ufe *features.UnknownFeatureError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnknownFeatureError, got %v", err)
	}
}

func TestFeaturizeUnknownBackend(t *testing.T) {
	f := newTestFeaturizer(t, exec.BackendSequential)
	_, err := f.Featurize(context.Background(), rampDataset(), FeatureRequest{
		Features: []string{"mean"},
		Backend:  "carrier-pigeon",
	})
	if err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
