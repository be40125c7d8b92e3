package ml

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// StandardScaler applies a fitted (x - mean) / scale per column.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
	Names []string  `json:"feature_names,omitempty"`
}

func (s *StandardScaler) NFeatures() int         { return len(s.Mean) }
func (s *StandardScaler) FeatureNames() []string { return s.Names }

// Transform returns a scaled copy of features.
func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if err := checkWidth(len(s.Mean), features); err != nil {
		return nil, err
	}
	out := make([]float64, len(features))
	floats.SubTo(out, features, s.Mean)
	floats.Div(out, s.Scale)
	return out, nil
}

func (s *StandardScaler) validate() error {
	if len(s.Mean) == 0 {
		return errors.New("mean is empty")
	}
	if len(s.Scale) != len(s.Mean) {
		return fmt.Errorf("%d scales for %d means", len(s.Scale), len(s.Mean))
	}
	// Constant training columns export a zero scale.
	for i, v := range s.Scale {
		if v == 0 {
			s.Scale[i] = 1
		}
	}
	return checkNames(len(s.Mean), s.Names)
}
