package util

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	got := Mean([]float64{1, 2, 3, 4})
	if got != 2.5 {
		t.Fatalf("unexpected mean %v", got)
	}
}

func TestMeanEmpty(t *testing.T) {
	if !math.IsNaN(Mean(nil)) {
		t.Fatalf("expected NaN for empty input")
	}
}

func TestStdPopulation(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := Std(data)
	want := math.Sqrt(8.25)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("std = %v, want %v", got, want)
	}
}

func TestStdConstant(t *testing.T) {
	if got := Std([]float64{5, 5, 5, 5}); got != 0 {
		t.Fatalf("std of constant series = %v, want 0", got)
	}
}

func TestStdSinglePoint(t *testing.T) {
	if !math.IsNaN(Std([]float64{3})) {
		t.Fatalf("expected NaN for single-point std")
	}
}

func TestPercentile(t *testing.T) {
	data := []float64{4, 1, 3, 2}
	if got := Percentile(data, 50); got != 2.5 {
		t.Fatalf("median = %v, want 2.5", got)
	}
	if got := Percentile(data, 0); got != 1 {
		t.Fatalf("p0 = %v, want 1", got)
	}
	if got := Percentile(data, 100); got != 4 {
		t.Fatalf("p100 = %v, want 4", got)
	}
}

func TestIQR(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	got := IQR(data)
	if math.Abs(got-4.5) > 1e-9 {
		t.Fatalf("iqr = %v, want 4.5", got)
	}
}

func TestDiff(t *testing.T) {
	got := Diff([]float64{1, 4, 9})
	if len(got) != 2 || got[0] != 3 || got[1] != 5 {
		t.Fatalf("unexpected diff %v", got)
	}
	if len(Diff([]float64{1})) != 0 {
		t.Fatalf("expected empty diff for single element")
	}
}

func TestMinMax(t *testing.T) {
	data := []float64{3, -1, 7, 0}
	if Min(data) != -1 {
		t.Fatalf("min = %v", Min(data))
	}
	if Max(data) != 7 {
		t.Fatalf("max = %v", Max(data))
	}
}
