package features

import (
	"errors"
	"testing"

	"NeuroFeat/internal/domain/models"
)

func TestComputeSignalTwoChannels(t *testing.T) {
	sig := &models.Signal{
		ID: "s1",
		Channels: [][]float64{
			{1, 2, 3},
			{10, 20, 30},
		},
	}
	fns, err := Resolve([]string{"mean"}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	row, err := ComputeSignal(sig, fns)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// Exactly one column per (feature, channel), computed independently.
	if len(row) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(row))
	}
	if row[0] != 2 || row[1] != 20 {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestComputeSignalRowLayout(t *testing.T) {
	sig := &models.Signal{
		ID:       "s1",
		Channels: [][]float64{{1, 3}, {2, 6}},
	}
	fns, err := Resolve([]string{"mean", "max"}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	row, err := ComputeSignal(sig, fns)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	// feature-major: mean ch0, mean ch1, max ch0, max ch1
	want := []float64{2, 4, 3, 6}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("row = %v, want %v", row, want)
		}
	}
}

func TestValidateChannels(t *testing.T) {
	signals := []models.Signal{
		{ID: "a", Channels: [][]float64{{1}, {2}}},
		{ID: "b", Channels: [][]float64{{1}, {2}}},
	}
	n, err := ValidateChannels(signals)
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestValidateChannelsMismatch(t *testing.T) {
	signals := []models.Signal{
		{ID: "a", Channels: [][]float64{{1}, {2}}},
		{ID: "b", Channels: [][]float64{{1}}},
	}
	_, err := ValidateChannels(signals)
	var cce *ChannelCountError
	if !errors.As(err, &cce) {
		t.Fatalf("expected ChannelCountError, got %v", err)
	}
	if cce.SignalID != "b" || cce.Got != 1 || cce.Want != 2 {
		t.Fatalf("error context wrong: %+v", cce)
	}
}
