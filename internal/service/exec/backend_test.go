package exec

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"NeuroFeat/internal/services/features"
)

func makeTasks(n int, fail map[int]error, delay time.Duration) []Task {
	tasks := make([]Task, n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = Task{
			Index: i,
			Run: func(ctx context.Context) ([]float64, error) {
				if delay > 0 {
					time.Sleep(delay)
				}
				if err, ok := fail[i]; ok {
					return nil, err
				}
				return []float64{float64(i), float64(i * 10)}, nil
			},
		}
	}
	return tasks
}

func TestSequentialOrdering(t *testing.T) {
	b := NewSequentialBackend()
	rows, err := b.Run(context.Background(), makeTasks(5, nil, 0))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, row := range rows {
		if row[0] != float64(i) {
			t.Fatalf("row %d out of order: %v", i, row)
		}
	}
}

func TestSequentialAbortsOnError(t *testing.T) {
	var executed int32
	boom := errors.New("boom")
	tasks := make([]Task, 4)
	for i := range tasks {
		i := i
		tasks[i] = Task{
			Index: i,
			Run: func(ctx context.Context) ([]float64, error) {
				atomic.AddInt32(&executed, 1)
				if i == 1 {
					return nil, boom
				}
				return []float64{0}, nil
			},
		}
	}
	b := NewSequentialBackend()
	_, err := b.Run(context.Background(), tasks)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := atomic.LoadInt32(&executed); got != 2 {
		t.Fatalf("sequential must stop at first failure, executed %d tasks", got)
	}
}

func TestSequentialIdempotent(t *testing.T) {
	b := NewSequentialBackend()
	tasks := makeTasks(8, nil, 0)
	first, err := b.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, err := b.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := range first {
		for j := range first[i] {
			if first[i][j] != second[i][j] {
				t.Fatalf("row %d differs between identical runs", i)
			}
		}
	}
}

func TestParallelOrdering(t *testing.T) {
	b := NewParallelBackend(4)
	// Staggered delays force out-of-order completion.
	tasks := make([]Task, 10)
	for i := range tasks {
		i := i
		tasks[i] = Task{
			Index: i,
			Run: func(ctx context.Context) ([]float64, error) {
				time.Sleep(time.Duration(10-i) * time.Millisecond)
				return []float64{float64(i)}, nil
			},
		}
	}
	rows, err := b.Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, row := range rows {
		if row[0] != float64(i) {
			t.Fatalf("row %d out of order: %v", i, row)
		}
	}
}

func TestParallelSurfacesFirstError(t *testing.T) {
	boom := fmt.Errorf("worker exploded")
	b := NewParallelBackend(2)
	tasks := makeTasks(6, map[int]error{3: boom}, time.Millisecond)
	_, err := b.Run(context.Background(), tasks)
	if !errors.Is(err, boom) {
		t.Fatalf("expected worker error, got %v", err)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	tasks := makeTasks(16, nil, 0)
	seq, err := NewSequentialBackend().Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	par, err := NewParallelBackend(8).Run(context.Background(), tasks)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	for i := range seq {
		for j := range seq[i] {
			if seq[i][j] != par[i][j] {
				t.Fatalf("row %d differs between backends", i)
			}
		}
	}
}

func TestRowResultRoundTrip(t *testing.T) {
	row := []float64{1.5, math.NaN(), -3}
	res := rowResult{Index: 2, Row: encodeRow(row)}
	data, err := res.marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back rowResult
	if err := back.unmarshal(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := decodeRow(back.Row)
	if got[0] != 1.5 || !math.IsNaN(got[1]) || got[2] != -3 {
		t.Fatalf("row round trip broken: %v", got)
	}
}

func TestRowResultComputationError(t *testing.T) {
	src := &features.ComputationError{
		SignalID: "s9", Feature: "custom_f", Channel: 1,
		Err: errors.New("division by zero"),
	}
	var res rowResult
	res.Index = 4
	res.fromError(src)

	err := res.toError()
	var ce *features.ComputationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ComputationError, got %v", err)
	}
	if ce.SignalID != "s9" || ce.Feature != "custom_f" || ce.Channel != 1 {
		t.Fatalf("context lost: %+v", ce)
	}
}

func TestRowResultTaskFailure(t *testing.T) {
	res := rowResult{Index: 3, Err: "worker crash"}
	err := res.toError()
	var tfe *TaskFailureError
	if !errors.As(err, &tfe) {
		t.Fatalf("expected TaskFailureError, got %v", err)
	}
	if tfe.Index != 3 {
		t.Fatalf("unexpected index %d", tfe.Index)
	}
}
