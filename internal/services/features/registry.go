package features

import (
	"sort"
	"sync"
)

// Func computes one scalar feature from a single channel. times and errs may
// be nil for uniformly sampled data without uncertainty estimates. A NaN
// return is a valid value ("undefined for this input"), not an error.
type Func func(times, values, errs []float64) (float64, error)

// Entry is a resolved (name, function) pair in request order.
type Entry struct {
	Name string
	Fn   Func
}

var (
	regMu    sync.RWMutex
	registry = map[string]Func{}
)

// Register adds or replaces a built-in feature in the process-wide registry.
// Built-ins are registered at init; runtime use is limited to process start
// wiring. Per-call overrides go through Resolve's custom argument instead.
func Register(name string, fn Func) {
	regMu.Lock()
	registry[name] = fn
	regMu.Unlock()
}

// Names returns the sorted built-in feature names.
func Names() []string {
	regMu.RLock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	regMu.RUnlock()
	sort.Strings(out)
	return out
}

// Resolve maps requested feature names to callables in request order.
// A custom entry with the same name as a built-in wins for this call only;
// the global registry is never mutated, so concurrent batches cannot observe
// each other's overrides. Any unresolvable name fails the whole request.
func Resolve(names []string, custom map[string]Func) ([]Entry, error) {
	out := make([]Entry, 0, len(names))
	regMu.RLock()
	defer regMu.RUnlock()
	for _, name := range names {
		if fn, ok := custom[name]; ok {
			out = append(out, Entry{Name: name, Fn: fn})
			continue
		}
		if fn, ok := registry[name]; ok {
			out = append(out, Entry{Name: name, Fn: fn})
			continue
		}
		return nil, &UnknownFeatureError{Name: name}
	}
	return out, nil
}
