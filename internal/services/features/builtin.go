package features

import (
	"math"

	"NeuroFeat/pkg/util"
)

// Built-in feature set. Each function is pure, polymorphic over input
// length, and returns NaN when the statistic is undefined for the input.

func init() {
	Register("mean", func(_, v, _ []float64) (float64, error) { return util.Mean(v), nil })
	Register("std", func(_, v, _ []float64) (float64, error) { return util.Std(v), nil })
	Register("min", func(_, v, _ []float64) (float64, error) { return util.Min(v), nil })
	Register("max", func(_, v, _ []float64) (float64, error) { return util.Max(v), nil })
	Register("median", func(_, v, _ []float64) (float64, error) { return util.Percentile(v, 50), nil })
	Register("iqr", func(_, v, _ []float64) (float64, error) { return util.IQR(v), nil })
	Register("amplitude", amplitude)
	Register("skew", skew)
	Register("kurtosis", kurtosis)
	Register("rms", rms)
	Register("energy", energy)
	Register("rmssd", rmssd)
	Register("abs_dev", absDev)
	Register("line_length", lineLength)
	Register("zero_crossings", zeroCrossings)
	Register("slope", slope)
	Register("weighted_mean", weightedMean)
}

// amplitude is half the peak-to-peak range.
func amplitude(_, v, _ []float64) (float64, error) {
	if len(v) == 0 {
		return math.NaN(), nil
	}
	return (util.Max(v) - util.Min(v)) / 2, nil
}

func skew(_, v, _ []float64) (float64, error) {
	std := util.Std(v)
	if math.IsNaN(std) || std == 0 {
		return math.NaN(), nil
	}
	mean := util.Mean(v)
	sum := 0.0
	for _, x := range v {
		d := (x - mean) / std
		sum += d * d * d
	}
	return sum / float64(len(v)), nil
}

// kurtosis returns excess kurtosis (0 for a normal distribution).
func kurtosis(_, v, _ []float64) (float64, error) {
	std := util.Std(v)
	if math.IsNaN(std) || std == 0 {
		return math.NaN(), nil
	}
	mean := util.Mean(v)
	sum := 0.0
	for _, x := range v {
		d := (x - mean) / std
		sum += d * d * d * d
	}
	return sum/float64(len(v)) - 3, nil
}

func rms(_, v, _ []float64) (float64, error) {
	e, _ := energy(nil, v, nil)
	return math.Sqrt(e), nil
}

// energy is the mean squared amplitude.
func energy(_, v, _ []float64) (float64, error) {
	if len(v) == 0 {
		return math.NaN(), nil
	}
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return sum / float64(len(v)), nil
}

// rmssd is the root mean square of successive differences.
func rmssd(_, v, _ []float64) (float64, error) {
	diff := util.Diff(v)
	if len(diff) == 0 {
		return math.NaN(), nil
	}
	sum := 0.0
	for _, d := range diff {
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(diff))), nil
}

// absDev is the mean absolute deviation from the median.
func absDev(_, v, _ []float64) (float64, error) {
	if len(v) == 0 {
		return math.NaN(), nil
	}
	median := util.Percentile(v, 50)
	sum := 0.0
	for _, x := range v {
		sum += util.Abs(x - median)
	}
	return sum / float64(len(v)), nil
}

// lineLength is the summed absolute first difference, a standard EEG
// seizure-detection feature.
func lineLength(_, v, _ []float64) (float64, error) {
	if len(v) < 2 {
		return math.NaN(), nil
	}
	sum := 0.0
	for _, d := range util.Diff(v) {
		sum += util.Abs(d)
	}
	return sum, nil
}

func zeroCrossings(_, v, _ []float64) (float64, error) {
	if len(v) < 2 {
		return math.NaN(), nil
	}
	count := 0.0
	for i := 1; i < len(v); i++ {
		if (v[i-1] >= 0) != (v[i] >= 0) {
			count++
		}
	}
	return count, nil
}

// slope is the least-squares linear trend over the provided timestamps,
// falling back to sample index for uniformly sampled data.
func slope(t, v, _ []float64) (float64, error) {
	if len(v) < 2 {
		return math.NaN(), nil
	}
	x := t
	if len(x) != len(v) {
		x = make([]float64, len(v))
		for i := range x {
			x[i] = float64(i)
		}
	}
	mx := util.Mean(x)
	mv := util.Mean(v)
	num, den := 0.0, 0.0
	for i := range v {
		dx := x[i] - mx
		num += dx * (v[i] - mv)
		den += dx * dx
	}
	if den == 0 {
		return math.NaN(), nil
	}
	return num / den, nil
}

// weightedMean is the inverse-variance weighted mean using the per-sample
// uncertainty estimates. Without errors the statistic is undefined.
func weightedMean(_, v, e []float64) (float64, error) {
	if len(v) == 0 || len(e) != len(v) {
		return math.NaN(), nil
	}
	num, den := 0.0, 0.0
	for i := range v {
		if e[i] == 0 {
			return math.NaN(), nil
		}
		w := 1 / (e[i] * e[i])
		num += w * v[i]
		den += w
	}
	return num / den, nil
}
