package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// RandomForestClassifier averages the leaf class distributions of its trees.
type RandomForestClassifier struct {
	ClassLabels []int          `json:"classes"`
	Width       int            `json:"n_features"`
	Names       []string       `json:"feature_names,omitempty"`
	Trees       []DecisionTree `json:"trees"`
}

func (rf *RandomForestClassifier) NFeatures() int         { return rf.Width }
func (rf *RandomForestClassifier) FeatureNames() []string { return rf.Names }
func (rf *RandomForestClassifier) Classes() []int         { return append([]int(nil), rf.ClassLabels...) }

// PredictProba returns the mean over trees of each leaf's normalized class
// counts, indexed like Classes.
func (rf *RandomForestClassifier) PredictProba(features []float64) ([]float64, error) {
	if err := checkWidth(rf.Width, features); err != nil {
		return nil, err
	}
	proba := make([]float64, len(rf.ClassLabels))
	dist := make([]float64, len(rf.ClassLabels))
	for i := range rf.Trees {
		leaf, err := rf.Trees[i].Leaf(features)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		copy(dist, leaf.Value)
		if total := floats.Sum(dist); total > 0 {
			floats.Scale(1/total, dist)
		}
		floats.Add(proba, dist)
	}
	floats.Scale(1/float64(len(rf.Trees)), proba)
	return proba, nil
}

// Predict returns the class label with the highest probability.
func (rf *RandomForestClassifier) Predict(features []float64) (int, error) {
	proba, err := rf.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return rf.ClassLabels[floats.MaxIdx(proba)], nil
}

func (rf *RandomForestClassifier) validate() error {
	if rf.Width <= 0 {
		return errors.New("n_features must be positive")
	}
	if len(rf.ClassLabels) == 0 {
		return errors.New("classes are empty")
	}
	if len(rf.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	if err := checkNames(rf.Width, rf.Names); err != nil {
		return err
	}
	for i := range rf.Trees {
		if err := rf.Trees[i].validate(rf.Width, len(rf.ClassLabels)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// RandomForestRegressor averages the leaf values of its trees.
type RandomForestRegressor struct {
	Width int            `json:"n_features"`
	Names []string       `json:"feature_names,omitempty"`
	Trees []DecisionTree `json:"trees"`
}

func (rf *RandomForestRegressor) NFeatures() int         { return rf.Width }
func (rf *RandomForestRegressor) FeatureNames() []string { return rf.Names }

// Predict returns the mean tree output.
func (rf *RandomForestRegressor) Predict(features []float64) (float64, error) {
	if err := checkWidth(rf.Width, features); err != nil {
		return 0, err
	}
	outputs := make([]float64, len(rf.Trees))
	for i := range rf.Trees {
		leaf, err := rf.Trees[i].Leaf(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		outputs[i] = leaf.Value[0]
	}
	return floats.Sum(outputs) / float64(len(outputs)), nil
}

func (rf *RandomForestRegressor) validate() error {
	if rf.Width <= 0 {
		return errors.New("n_features must be positive")
	}
	if len(rf.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	if err := checkNames(rf.Width, rf.Names); err != nil {
		return err
	}
	for i := range rf.Trees {
		if err := rf.Trees[i].validate(rf.Width, 1); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func checkWidth(width int, features []float64) error {
	if len(features) != width {
		return fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), width)
	}
	return nil
}

func checkNames(width int, names []string) error {
	if len(names) != 0 && len(names) != width {
		return fmt.Errorf("%d feature names for %d features", len(names), width)
	}
	return nil
}
