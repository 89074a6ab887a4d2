package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"NeuroFeat/internal/domain/models"
	icache "NeuroFeat/internal/service/cache"
)

// clusteredTable builds a separable two-class table: low-amplitude rows
// labeled interictal, high-amplitude rows labeled seizure.
func clusteredTable(n int) *models.FeatureTable {
	table := &models.FeatureTable{
		Features: []string{"mean", "std"},
		Channels: 1,
	}
	for i := 0; i < n; i++ {
		jitter := float64(i%4) * 0.1
		if i%2 == 0 {
			table.Rows = append(table.Rows, []float64{1 + jitter, 0.5 + jitter})
			table.Labels = append(table.Labels, "interictal")
		} else {
			table.Rows = append(table.Rows, []float64{40 + jitter, 12 + jitter})
			table.Labels = append(table.Labels, "seizure")
		}
		table.IDs = append(table.IDs, fmt.Sprintf("s%d", i))
	}
	return table
}

func newTestTrainer() *Trainer {
	return NewTrainer(icache.NewTTLCache(), nopMetrics{}, 3, 0.25, time.Hour)
}

func TestTrainAndPredict(t *testing.T) {
	tr := newTestTrainer()
	table := clusteredTable(24)

	res, err := tr.Train(context.Background(), table, TrainOptions{})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if res.Accuracy != 1.0 {
		t.Fatalf("separable clusters should score 1.0, got %v", res.Accuracy)
	}
	if len(res.Classes) != 2 {
		t.Fatalf("unexpected classes %v", res.Classes)
	}
	if res.TrainSize+res.TestSize != 24 {
		t.Fatalf("split sizes %d+%d != 24", res.TrainSize, res.TestSize)
	}

	probe := &models.FeatureTable{
		Features: []string{"mean", "std"},
		Channels: 1,
		IDs:      []string{"a", "b"},
		Labels:   []string{"", ""},
		Rows:     [][]float64{{1.05, 0.55}, {39, 11.5}},
	}
	labels, probas, err := tr.Predict(context.Background(), res.ModelID, probe)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if labels[0] != "interictal" || labels[1] != "seizure" {
		t.Fatalf("unexpected labels %v", labels)
	}
	if probas[1]["seizure"] < 0.5 {
		t.Fatalf("unexpected proba %v", probas[1])
	}
}

func TestPredictShapeMismatch(t *testing.T) {
	tr := newTestTrainer()
	res, err := tr.Train(context.Background(), clusteredTable(12), TrainOptions{})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	bad := &models.FeatureTable{
		Features: []string{"mean"},
		Channels: 1,
		Rows:     [][]float64{{1}},
	}
	if _, _, err := tr.Predict(context.Background(), res.ModelID, bad); err == nil {
		t.Fatalf("expected shape mismatch error")
	}
}

func TestPredictUnknownModel(t *testing.T) {
	tr := newTestTrainer()
	if _, _, err := tr.Predict(context.Background(), "model-missing", clusteredTable(4)); err == nil {
		t.Fatalf("expected missing-model error")
	}
}

func TestTrainTooFewRows(t *testing.T) {
	tr := newTestTrainer()
	table := &models.FeatureTable{
		Features: []string{"mean"}, Channels: 1,
		Rows: [][]float64{{1}}, Labels: []string{"a"}, IDs: []string{"s"},
	}
	if _, err := tr.Train(context.Background(), table, TrainOptions{}); err == nil {
		t.Fatalf("expected error for single-row table")
	}
}
