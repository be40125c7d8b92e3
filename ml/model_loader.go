package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// Artifact types written by the export step of the training notebooks.
const (
	TypeForestClassifier = "random_forest_classifier"
	TypeForestRegressor  = "random_forest_regressor"
	TypeKMeans           = "kmeans"
	TypeStandardScaler   = "standard_scaler"
)

// LoadModel reads a JSON artifact. An empty modelType takes the type
// recorded in the artifact.
func LoadModel(modelType, path string) (Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeModel(modelType, payload)
}

// DecodeModel decodes and validates an artifact payload.
func DecodeModel(modelType string, payload []byte) (Model, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &header); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	switch {
	case modelType == "":
		modelType = header.Type
	case header.Type != "" && header.Type != modelType:
		return nil, fmt.Errorf("artifact type %q, expected %q", header.Type, modelType)
	}

	var model interface {
		Model
		validate() error
	}
	switch modelType {
	case TypeForestClassifier:
		model = &RandomForestClassifier{}
	case TypeForestRegressor:
		model = &RandomForestRegressor{}
	case TypeKMeans:
		model = &KMeans{}
	case TypeStandardScaler:
		model = &StandardScaler{}
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
	if err := json.Unmarshal(payload, model); err != nil {
		return nil, fmt.Errorf("decode %s: %w", modelType, err)
	}
	if err := model.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", modelType, err)
	}
	return model, nil
}

// LoadClassifier loads a random forest classifier artifact.
func LoadClassifier(path string) (Classifier, error) {
	m, err := LoadModel(TypeForestClassifier, path)
	if err != nil {
		return nil, err
	}
	return m.(Classifier), nil
}

// LoadRegressor loads a random forest regressor artifact.
func LoadRegressor(path string) (Regressor, error) {
	m, err := LoadModel(TypeForestRegressor, path)
	if err != nil {
		return nil, err
	}
	return m.(Regressor), nil
}

// LoadClusterer loads a k-means artifact.
func LoadClusterer(path string) (Clusterer, error) {
	m, err := LoadModel(TypeKMeans, path)
	if err != nil {
		return nil, err
	}
	return m.(Clusterer), nil
}

// LoadScaler loads a standard scaler artifact.
func LoadScaler(path string) (Transformer, error) {
	m, err := LoadModel(TypeStandardScaler, path)
	if err != nil {
		return nil, err
	}
	return m.(Transformer), nil
}
