package ml

import "errors"

// ErrFeatureMismatch is returned when a vector's width differs from the
// width the model was trained on.
var ErrFeatureMismatch = errors.New("feature count mismatch")

// Model is any predictor decoded from an exported artifact.
type Model interface {
	// NFeatures is the input width the model was trained on.
	NFeatures() int
	// FeatureNames is the training column order, when the artifact carries it.
	FeatureNames() []string
}

// Classifier predicts a class and a per-class probability distribution.
type Classifier interface {
	Model
	Predict(features []float64) (int, error)
	PredictProba(features []float64) ([]float64, error)
	Classes() []int
}

// Regressor predicts a continuous value.
type Regressor interface {
	Model
	Predict(features []float64) (float64, error)
}

// Clusterer assigns a vector to a group.
type Clusterer interface {
	Model
	Predict(features []float64) (int, error)
}

// Transformer rescales a vector before it reaches a model.
type Transformer interface {
	Model
	Transform(features []float64) ([]float64, error)
}
