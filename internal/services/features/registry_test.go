package features

import (
	"errors"
	"math"
	"testing"
)

func TestResolveBuiltins(t *testing.T) {
	fns, err := Resolve([]string{"mean", "std"}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(fns) != 2 || fns[0].Name != "mean" || fns[1].Name != "std" {
		t.Fatalf("unexpected entries %+v", fns)
	}
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve([]string{"mean", "no_such_feature"}, nil)
	var ufe *UnknownFeatureError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnknownFeatureError, got %v", err)
	}
	if ufe.Name != "no_such_feature" {
		t.Fatalf("unexpected name %q", ufe.Name)
	}
}

func TestResolveCustomOverridesBuiltin(t *testing.T) {
	custom := map[string]Func{
		"mean": func(_, _, _ []float64) (float64, error) { return 42, nil },
	}
	fns, err := Resolve([]string{"mean"}, custom)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, err := fns[0].Fn(nil, []float64{1, 2, 3}, nil)
	if err != nil || v != 42 {
		t.Fatalf("override not applied: v=%v err=%v", v, err)
	}

	// The global registry must be untouched for subsequent calls.
	fns, err = Resolve([]string{"mean"}, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, _ = fns[0].Fn(nil, []float64{1, 2, 3}, nil)
	if v != 2 {
		t.Fatalf("builtin mean polluted by override: %v", v)
	}
}

func TestResolveCustomNewName(t *testing.T) {
	custom := map[string]Func{
		"double_mean": func(_, v, _ []float64) (float64, error) {
			sum := 0.0
			for _, x := range v {
				sum += x
			}
			return 2 * sum / float64(len(v)), nil
		},
	}
	fns, err := Resolve([]string{"double_mean"}, custom)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	v, _ := fns[0].Fn(nil, []float64{1, 2, 3}, nil)
	if v != 4 {
		t.Fatalf("unexpected custom result %v", v)
	}
}

func TestNamesContainsBuiltins(t *testing.T) {
	names := Names()
	want := map[string]bool{"mean": false, "std": false, "line_length": false, "weighted_mean": false}
	for _, n := range names {
		if _, ok := want[n]; ok {
			want[n] = true
		}
	}
	for n, seen := range want {
		if !seen {
			t.Fatalf("builtin %q not registered", n)
		}
	}
}

func TestBuiltinsReturnNumeric(t *testing.T) {
	// Every builtin returns a finite number or NaN for well-formed input,
	// and never errors.
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	times := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	errs := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	for _, name := range Names() {
		fns, err := Resolve([]string{name}, nil)
		if err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
		v, err := fns[0].Fn(times, values, errs)
		if err != nil {
			t.Fatalf("builtin %s errored: %v", name, err)
		}
		if math.IsInf(v, 0) {
			t.Fatalf("builtin %s returned inf", name)
		}
	}
}
