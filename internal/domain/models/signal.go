package models

import "fmt"

// Signal is one labeled time-series instance, possibly multi-channel.
// Times and Errs are optional; when Times is present its length must match
// every channel of the signal.
type Signal struct {
	ID       string
	Times    []float64
	Channels [][]float64
	Errs     [][]float64
	Label    string
}

// NumChannels returns the channel count of the signal.
func (s *Signal) NumChannels() int { return len(s.Channels) }

// Channel returns the (times, values, errs) triple for channel ch.
// Times and errs may be nil when the signal carries none.
func (s *Signal) Channel(ch int) (times, values, errs []float64) {
	values = s.Channels[ch]
	times = s.Times
	if ch < len(s.Errs) {
		errs = s.Errs[ch]
	}
	return times, values, errs
}

// Validate checks structural invariants of a single signal.
func (s *Signal) Validate() error {
	if len(s.Channels) == 0 {
		return fmt.Errorf("signal %q: no channels", s.ID)
	}
	for ch, vals := range s.Channels {
		if len(s.Times) > 0 && len(s.Times) != len(vals) {
			return fmt.Errorf("signal %q channel %d: %d times vs %d values", s.ID, ch, len(s.Times), len(vals))
		}
		if ch < len(s.Errs) && len(s.Errs[ch]) > 0 && len(s.Errs[ch]) != len(vals) {
			return fmt.Errorf("signal %q channel %d: %d errs vs %d values", s.ID, ch, len(s.Errs[ch]), len(vals))
		}
	}
	return nil
}

// Dataset is an ordered collection of signals featurized together.
// Order is significant: row i of the resulting feature table corresponds
// to Signals[i].
type Dataset struct {
	Signals []Signal
}

// Labels returns the class labels in signal order.
func (d *Dataset) Labels() []string {
	out := make([]string, len(d.Signals))
	for i := range d.Signals {
		out[i] = d.Signals[i].Label
	}
	return out
}

// Segment is one raw chunk of samples from an acquisition device, the unit
// of the ingest path. Segments are accumulated into per-session signals in
// the corpus store.
type Segment struct {
	SessionID string
	Channel   int
	Timestamp int64 // unix seconds of the first sample
	Samples   []float64
	Label     string
}
