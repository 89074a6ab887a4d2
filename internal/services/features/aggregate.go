package features

import "NeuroFeat/internal/domain/models"

// ComputeSignal runs the single-channel featurizer over every channel of one
// signal and flattens the results into a dense row ordered feature-major:
// all channels of fns[0], then fns[1], and so on. Row layout must match
// models.FeatureTable.Columns.
func ComputeSignal(sig *models.Signal, fns []Entry) ([]float64, error) {
	channels := sig.NumChannels()
	row := make([]float64, len(fns)*channels)
	for ch := 0; ch < channels; ch++ {
		times, values, errs := sig.Channel(ch)
		vals, err := ComputeChannel(sig.ID, ch, times, values, errs, fns)
		if err != nil {
			return nil, err
		}
		for fi, e := range fns {
			row[fi*channels+ch] = vals[e.Name]
		}
	}
	return row, nil
}

// ValidateChannels checks that every signal in the batch carries the same
// channel count as the first one. Runs before any feature computation.
func ValidateChannels(signals []models.Signal) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}
	want := signals[0].NumChannels()
	for i := range signals {
		if got := signals[i].NumChannels(); got != want {
			return 0, &ChannelCountError{SignalID: signals[i].ID, Got: got, Want: want}
		}
	}
	return want, nil
}
