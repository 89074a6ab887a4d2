package classify

import "fmt"

// Accuracy returns the fraction of predictions matching the truth labels.
func Accuracy(predicted, truth []string) (float64, error) {
	if len(predicted) != len(truth) {
		return 0, fmt.Errorf("%d predictions vs %d labels", len(predicted), len(truth))
	}
	if len(truth) == 0 {
		return 0, fmt.Errorf("empty evaluation set")
	}
	hits := 0
	for i := range truth {
		if predicted[i] == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth)), nil
}

// TrainTestSplit returns positional train/test index sets: the trailing
// testFrac share of rows is held out. Positional rather than randomized so
// repeated runs over the same table are reproducible.
func TrainTestSplit(n int, testFrac float64) (train, test []int) {
	if testFrac <= 0 || testFrac >= 1 {
		testFrac = 0.25
	}
	cut := n - int(float64(n)*testFrac)
	if cut <= 0 {
		cut = 1
	}
	if cut >= n {
		cut = n - 1
	}
	for i := 0; i < cut; i++ {
		train = append(train, i)
	}
	for i := cut; i < n; i++ {
		test = append(test, i)
	}
	return train, test
}
