package features

import (
	"math"
	"testing"
)

func compute(t *testing.T, name string, times, values, errs []float64) float64 {
	t.Helper()
	fns, err := Resolve([]string{name}, nil)
	if err != nil {
		t.Fatalf("resolve %s: %v", name, err)
	}
	v, err := fns[0].Fn(times, values, errs)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return v
}

func TestMeanStdScenario(t *testing.T) {
	asc := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	desc := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	flat := []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}

	wantStd := math.Sqrt(8.25) // ~2.87

	for _, v := range [][]float64{asc, desc} {
		if got := compute(t, "mean", nil, v, nil); got != 5.5 {
			t.Fatalf("mean = %v, want 5.5", got)
		}
		if got := compute(t, "std", nil, v, nil); math.Abs(got-wantStd) > 1e-9 {
			t.Fatalf("std = %v, want %v", got, wantStd)
		}
	}
	if got := compute(t, "mean", nil, flat, nil); got != 5.0 {
		t.Fatalf("mean = %v, want 5.0", got)
	}
	if got := compute(t, "std", nil, flat, nil); got != 0.0 {
		t.Fatalf("std = %v, want 0.0", got)
	}
}

func TestStdSinglePointIsNaN(t *testing.T) {
	if got := compute(t, "std", nil, []float64{7}, nil); !math.IsNaN(got) {
		t.Fatalf("std of single point = %v, want NaN", got)
	}
}

func TestAmplitude(t *testing.T) {
	if got := compute(t, "amplitude", nil, []float64{-2, 0, 4}, nil); got != 3 {
		t.Fatalf("amplitude = %v, want 3", got)
	}
}

func TestLineLength(t *testing.T) {
	if got := compute(t, "line_length", nil, []float64{0, 1, -1, 2}, nil); got != 6 {
		t.Fatalf("line_length = %v, want 6", got)
	}
}

func TestZeroCrossings(t *testing.T) {
	if got := compute(t, "zero_crossings", nil, []float64{1, -1, 1, -1}, nil); got != 3 {
		t.Fatalf("zero_crossings = %v, want 3", got)
	}
}

func TestSlopeWithTimes(t *testing.T) {
	times := []float64{0, 2, 4, 6}
	values := []float64{1, 5, 9, 13} // slope 2 over time
	if got := compute(t, "slope", times, values, nil); math.Abs(got-2) > 1e-9 {
		t.Fatalf("slope = %v, want 2", got)
	}
}

func TestSlopeIndexFallback(t *testing.T) {
	values := []float64{3, 5, 7}
	if got := compute(t, "slope", nil, values, nil); math.Abs(got-2) > 1e-9 {
		t.Fatalf("slope = %v, want 2", got)
	}
}

func TestWeightedMean(t *testing.T) {
	values := []float64{10, 20}
	errs := []float64{1, 2} // weights 1 and 0.25
	want := (10 + 0.25*20) / 1.25
	if got := compute(t, "weighted_mean", nil, values, errs); math.Abs(got-want) > 1e-9 {
		t.Fatalf("weighted_mean = %v, want %v", got, want)
	}
}

func TestWeightedMeanWithoutErrs(t *testing.T) {
	if got := compute(t, "weighted_mean", nil, []float64{1, 2}, nil); !math.IsNaN(got) {
		t.Fatalf("weighted_mean without errs = %v, want NaN", got)
	}
}

func TestRMSSD(t *testing.T) {
	// diffs are 2, -2 -> rms = 2
	if got := compute(t, "rmssd", nil, []float64{0, 2, 0}, nil); math.Abs(got-2) > 1e-9 {
		t.Fatalf("rmssd = %v, want 2", got)
	}
}

func TestKurtosisConstantIsNaN(t *testing.T) {
	if got := compute(t, "kurtosis", nil, []float64{1, 1, 1}, nil); !math.IsNaN(got) {
		t.Fatalf("kurtosis of constant = %v, want NaN", got)
	}
}
