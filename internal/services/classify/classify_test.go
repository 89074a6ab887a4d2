package classify

import (
	"math"
	"testing"
)

func TestFitScalerAndTransform(t *testing.T) {
	rows := [][]float64{
		{0, 10},
		{2, 10},
		{4, 10},
	}
	s, err := FitScaler(rows)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if s.Mean[0] != 2 || s.Mean[1] != 10 {
		t.Fatalf("unexpected means %v", s.Mean)
	}
	scaled, err := s.Transform([]float64{4, 10})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	// column 1 is constant: scaled to 0, not inf
	if scaled[1] != 0 {
		t.Fatalf("constant column must scale to 0, got %v", scaled[1])
	}
	if math.Abs(scaled[0]-1.224744871) > 1e-6 {
		t.Fatalf("unexpected z-score %v", scaled[0])
	}
}

func TestScalerImputesNaN(t *testing.T) {
	rows := [][]float64{
		{1, math.NaN()},
		{3, 8},
	}
	s, err := FitScaler(rows)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if s.Mean[1] != 8 {
		t.Fatalf("NaN must be skipped when fitting, mean=%v", s.Mean[1])
	}
	scaled, err := s.Transform([]float64{2, math.NaN()})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if scaled[1] != 0 {
		t.Fatalf("NaN must impute to column mean (z=0), got %v", scaled[1])
	}
}

func TestKNNPredict(t *testing.T) {
	rows := [][]float64{
		{0, 0}, {0, 1}, {1, 0},
		{10, 10}, {10, 11}, {11, 10},
	}
	labels := []string{"interictal", "interictal", "interictal", "seizure", "seizure", "seizure"}
	m, err := FitKNN(rows, labels, 3)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	got, err := m.Predict([]float64{0.5, 0.5})
	if err != nil || got != "interictal" {
		t.Fatalf("predict near origin = %q err=%v", got, err)
	}
	got, err = m.Predict([]float64{10.5, 10.5})
	if err != nil || got != "seizure" {
		t.Fatalf("predict near cluster = %q err=%v", got, err)
	}

	proba, err := m.PredictProba([]float64{10, 10})
	if err != nil {
		t.Fatalf("proba: %v", err)
	}
	if proba["seizure"] != 1 || proba["interictal"] != 0 {
		t.Fatalf("unexpected proba %v", proba)
	}
}

func TestKNNWidthMismatch(t *testing.T) {
	m, err := FitKNN([][]float64{{1, 2}}, []string{"a"}, 1)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := m.Predict([]float64{1}); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]string{"a", "b", "a", "a"}, []string{"a", "b", "b", "a"})
	if err != nil {
		t.Fatalf("accuracy: %v", err)
	}
	if acc != 0.75 {
		t.Fatalf("accuracy = %v, want 0.75", acc)
	}
}

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.3)
	if len(train) != 7 || len(test) != 3 {
		t.Fatalf("split %d/%d, want 7/3", len(train), len(test))
	}
	if test[0] != 7 {
		t.Fatalf("test set must be the trailing rows, starts at %d", test[0])
	}
	// degenerate sizes still leave at least one row on each side
	train, test = TrainTestSplit(2, 0.9)
	if len(train) != 1 || len(test) != 1 {
		t.Fatalf("degenerate split %d/%d", len(train), len(test))
	}
}
