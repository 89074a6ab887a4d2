package features

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestComputeChannel(t *testing.T) {
	fns, err := Resolve([]string{"mean", "max"}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	vals, err := ComputeChannel("sig-1", 0, nil, []float64{2, 4, 6}, nil, fns)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if vals["mean"] != 4 || vals["max"] != 6 {
		t.Fatalf("unexpected values %v", vals)
	}
}

func TestComputeChannelNaNIsValue(t *testing.T) {
	fns, err := Resolve([]string{"std"}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	vals, err := ComputeChannel("sig-1", 0, nil, []float64{1}, nil, fns)
	if err != nil {
		t.Fatalf("NaN must not be treated as an error: %v", err)
	}
	if !math.IsNaN(vals["std"]) {
		t.Fatalf("expected NaN, got %v", vals["std"])
	}
}

func TestComputeChannelError(t *testing.T) {
	custom := map[string]Func{
		"inv_first": func(_, v, _ []float64) (float64, error) {
			if v[0] == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return 1 / v[0], nil
		},
	}
	fns, err := Resolve([]string{"inv_first"}, custom)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	_, err = ComputeChannel("sig-7", 2, nil, []float64{0, 0, 0}, nil, fns)
	var ce *ComputationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ComputationError, got %v", err)
	}
	if ce.SignalID != "sig-7" || ce.Feature != "inv_first" || ce.Channel != 2 {
		t.Fatalf("error context wrong: %+v", ce)
	}
}

func TestComputeChannelPanicRecovered(t *testing.T) {
	custom := map[string]Func{
		"boom": func(_, v, _ []float64) (float64, error) {
			return v[100], nil // out of range
		},
	}
	fns, _ := Resolve([]string{"boom"}, custom)
	_, err := ComputeChannel("sig-1", 0, nil, []float64{1}, nil, fns)
	var ce *ComputationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ComputationError from panic, got %v", err)
	}
}
