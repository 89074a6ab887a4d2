package features

import "fmt"

// UnknownFeatureError reports a requested feature name that is neither a
// built-in nor supplied as a custom function for the call.
type UnknownFeatureError struct {
	Name string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("unknown feature %q", e.Name)
}

// ComputationError reports a feature function that failed (returned an error
// or panicked) while computing one channel of one signal. The whole batch
// aborts on the first such failure; a silently missing value would corrupt
// the dense table.
type ComputationError struct {
	SignalID string
	Feature  string
	Channel  int
	Err      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("feature %q on signal %q channel %d: %v", e.Feature, e.SignalID, e.Channel, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// ChannelCountError reports signals within one batch that disagree on
// channel count. Raised before any feature computation starts.
type ChannelCountError struct {
	SignalID string
	Got      int
	Want     int
}

func (e *ChannelCountError) Error() string {
	return fmt.Sprintf("signal %q has %d channels, batch expects %d", e.SignalID, e.Got, e.Want)
}
