package features

import "fmt"

// ComputeChannel applies the resolved feature functions to one channel's
// (times, values, errs) triple. Every requested feature produces exactly one
// value; a function error or panic surfaces as *ComputationError carrying
// the signal id, feature name, and channel index.
func ComputeChannel(signalID string, channel int, times, values, errs []float64, fns []Entry) (map[string]float64, error) {
	out := make(map[string]float64, len(fns))
	for _, e := range fns {
		v, err := invoke(e.Fn, times, values, errs)
		if err != nil {
			return nil, &ComputationError{SignalID: signalID, Feature: e.Name, Channel: channel, Err: err}
		}
		out[e.Name] = v
	}
	return out, nil
}

// invoke shields the caller from panicking feature functions; user-supplied
// customs are arbitrary code.
func invoke(fn Func, times, values, errs []float64) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(times, values, errs)
}
