package classify

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// KNN is a k-nearest-neighbors classifier over scaled feature rows.
// Fitting stores the training rows; prediction is a majority vote among the
// k nearest rows by Euclidean distance. Immutable once fitted.
type KNN struct {
	k       int
	rows    [][]float64
	labels  []string
	classes []string
}

// FitKNN fits a classifier on scaled rows with parallel labels.
func FitKNN(rows [][]float64, labels []string, k int) (*KNN, error) {
	if len(rows) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("%d rows vs %d labels", len(rows), len(labels))
	}
	if k <= 0 {
		k = 3
	}
	if k > len(rows) {
		k = len(rows)
	}

	seen := map[string]bool{}
	classes := make([]string, 0, 4)
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)

	return &KNN{k: k, rows: rows, labels: labels, classes: classes}, nil
}

// Classes returns the sorted class labels seen at fit time.
func (m *KNN) Classes() []string { return m.classes }

// Predict returns the majority label among the k nearest training rows.
func (m *KNN) Predict(row []float64) (string, error) {
	proba, err := m.PredictProba(row)
	if err != nil {
		return "", err
	}
	best, bestP := "", -1.0
	for _, c := range m.classes {
		if p := proba[c]; p > bestP {
			best, bestP = c, p
		}
	}
	return best, nil
}

// PredictProba returns per-class vote fractions among the k nearest rows.
func (m *KNN) PredictProba(row []float64) (map[string]float64, error) {
	if len(row) != len(m.rows[0]) {
		return nil, fmt.Errorf("row width %d does not match model width %d", len(row), len(m.rows[0]))
	}

	type neighbor struct {
		dist  float64
		label string
	}
	neighbors := make([]neighbor, len(m.rows))
	for i, r := range m.rows {
		neighbors[i] = neighbor{dist: euclidean(row, r), label: m.labels[i]}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].dist < neighbors[j].dist })

	votes := make(map[string]float64, len(m.classes))
	for _, c := range m.classes {
		votes[c] = 0
	}
	for i := 0; i < m.k; i++ {
		votes[neighbors[i].label] += 1 / float64(m.k)
	}
	return votes, nil
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
