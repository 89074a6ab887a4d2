package usecase

import (
	"context"
	"fmt"
	"time"

	"NeuroFeat/internal/domain/models"
	drepo "NeuroFeat/internal/domain/repository"
	dservice "NeuroFeat/internal/domain/service"
	icache "NeuroFeat/internal/service/cache"
	"NeuroFeat/internal/services/classify"
)

// FittedModel is one trained classifier plus the table shape it expects.
type FittedModel struct {
	ID         string
	Scaler     *classify.Scaler
	Classifier dservice.Classifier
	Features   []string
	Channels   int
	Accuracy   float64
	TrainedAt  time.Time
}

// TrainOptions tune one training call; zero values fall back to configured
// defaults.
type TrainOptions struct {
	K         int
	TestSplit float64
}

// TrainResult reports the fitted model and its held-out accuracy.
type TrainResult struct {
	ModelID   string   `json:"model_id"`
	Accuracy  float64  `json:"accuracy"`
	Classes   []string `json:"classes"`
	TrainSize int      `json:"train_size"`
	TestSize  int      `json:"test_size"`
}

// Trainer fits classifiers on feature tables and serves predictions from
// fitted models. Models live in a TTL store; hyperparameter search is the
// caller's business, not this service's.
type Trainer struct {
	store        *icache.TTLCache
	metrics      drepo.Metrics
	defaultK     int
	defaultSplit float64
	modelTTL     time.Duration
}

// NewTrainer creates a Trainer with a model store.
func NewTrainer(store *icache.TTLCache, metrics drepo.Metrics, defaultK int, defaultSplit float64, modelTTL time.Duration) *Trainer {
	if defaultK <= 0 {
		defaultK = 5
	}
	if defaultSplit <= 0 || defaultSplit >= 1 {
		defaultSplit = 0.25
	}
	return &Trainer{
		store:        store,
		metrics:      metrics,
		defaultK:     defaultK,
		defaultSplit: defaultSplit,
		modelTTL:     modelTTL,
	}
}

// Train fits a scaler plus kNN on the table's training share and scores
// accuracy on the held-out share.
func (t *Trainer) Train(ctx context.Context, table *models.FeatureTable, opts TrainOptions) (*TrainResult, error) {
	if table.NumRows() < 2 {
		return nil, fmt.Errorf("need at least 2 rows to train, have %d", table.NumRows())
	}
	if len(table.Labels) != table.NumRows() {
		return nil, fmt.Errorf("%d labels for %d rows", len(table.Labels), table.NumRows())
	}

	k := opts.K
	if k <= 0 {
		k = t.defaultK
	}
	split := opts.TestSplit
	if split <= 0 || split >= 1 {
		split = t.defaultSplit
	}

	start := time.Now()
	trainIdx, testIdx := classify.TrainTestSplit(table.NumRows(), split)
	trainRows, trainLabels := pickRows(table, trainIdx)
	testRows, testLabels := pickRows(table, testIdx)

	scaler, err := classify.FitScaler(trainRows)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	scaledTrain, err := scaler.TransformAll(trainRows)
	if err != nil {
		return nil, fmt.Errorf("scale train rows: %w", err)
	}
	knn, err := classify.FitKNN(scaledTrain, trainLabels, k)
	if err != nil {
		return nil, fmt.Errorf("fit knn: %w", err)
	}

	predicted := make([]string, len(testRows))
	for i, row := range testRows {
		scaled, err := scaler.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("scale test row %d: %w", i, err)
		}
		predicted[i], err = knn.Predict(scaled)
		if err != nil {
			return nil, fmt.Errorf("predict test row %d: %w", i, err)
		}
	}
	accuracy, err := classify.Accuracy(predicted, testLabels)
	if err != nil {
		return nil, err
	}

	model := &FittedModel{
		ID:         fmt.Sprintf("model-%d", time.Now().UnixNano()),
		Scaler:     scaler,
		Classifier: knn,
		Features:   table.Features,
		Channels:   table.Channels,
		Accuracy:   accuracy,
		TrainedAt:  time.Now(),
	}
	t.store.Set(model.ID, model, t.modelTTL)
	t.metrics.RecordLatency("train", time.Since(start).Seconds())

	return &TrainResult{
		ModelID:   model.ID,
		Accuracy:  accuracy,
		Classes:   knn.Classes(),
		TrainSize: len(trainIdx),
		TestSize:  len(testIdx),
	}, nil
}

// Predict applies a stored model to every row of a feature table and returns
// labels plus per-class probabilities in row order.
func (t *Trainer) Predict(ctx context.Context, modelID string, table *models.FeatureTable) ([]string, []map[string]float64, error) {
	model, err := t.Model(modelID)
	if err != nil {
		return nil, nil, err
	}
	if err := compatible(model, table); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	labels := make([]string, table.NumRows())
	probas := make([]map[string]float64, table.NumRows())
	for i, row := range table.Rows {
		scaled, err := model.Scaler.Transform(row)
		if err != nil {
			return nil, nil, fmt.Errorf("scale row %d: %w", i, err)
		}
		labels[i], err = model.Classifier.Predict(scaled)
		if err != nil {
			return nil, nil, fmt.Errorf("predict row %d: %w", i, err)
		}
		probas[i], err = model.Classifier.PredictProba(scaled)
		if err != nil {
			return nil, nil, fmt.Errorf("predict row %d: %w", i, err)
		}
	}
	t.metrics.RecordLatency("predict", time.Since(start).Seconds())
	return labels, probas, nil
}

// Model fetches a fitted model from the store.
func (t *Trainer) Model(id string) (*FittedModel, error) {
	v, ok := t.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("model %q not found or expired", id)
	}
	model, ok := v.(*FittedModel)
	if !ok {
		return nil, fmt.Errorf("model %q has unexpected type %T", id, v)
	}
	return model, nil
}

func compatible(m *FittedModel, table *models.FeatureTable) error {
	if m.Channels != table.Channels {
		return fmt.Errorf("model expects %d channels, table has %d", m.Channels, table.Channels)
	}
	if len(m.Features) != len(table.Features) {
		return fmt.Errorf("model expects %d features, table has %d", len(m.Features), len(table.Features))
	}
	for i := range m.Features {
		if m.Features[i] != table.Features[i] {
			return fmt.Errorf("feature %d: model expects %q, table has %q", i, m.Features[i], table.Features[i])
		}
	}
	return nil
}

func pickRows(table *models.FeatureTable, idx []int) ([][]float64, []string) {
	rows := make([][]float64, len(idx))
	labels := make([]string, len(idx))
	for i, j := range idx {
		rows[i] = table.Rows[j]
		labels[i] = table.Labels[j]
	}
	return rows, labels
}
