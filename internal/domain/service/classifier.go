package service

// Classifier maps one feature vector to a class label. Implementations are
// fitted by the training use case and immutable afterwards.
type Classifier interface {
	Predict(row []float64) (string, error)
	PredictProba(row []float64) (map[string]float64, error)
	Classes() []string
}
