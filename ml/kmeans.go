package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// KMeans assigns a vector to its nearest fitted centroid.
type KMeans struct {
	Centroids [][]float64 `json:"centroids"`
	Names     []string    `json:"feature_names,omitempty"`
}

func (m *KMeans) NFeatures() int {
	if len(m.Centroids) == 0 {
		return 0
	}
	return len(m.Centroids[0])
}

func (m *KMeans) FeatureNames() []string { return m.Names }

// K is the number of clusters.
func (m *KMeans) K() int { return len(m.Centroids) }

// Predict returns the index of the nearest centroid; the first wins ties.
func (m *KMeans) Predict(features []float64) (int, error) {
	if err := checkWidth(m.NFeatures(), features); err != nil {
		return 0, err
	}
	best, bestDist := -1, math.MaxFloat64
	for k, centroid := range m.Centroids {
		if d := floats.Distance(features, centroid, 2); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best < 0 {
		return 0, errors.New("no centroid within a finite distance")
	}
	return best, nil
}

func (m *KMeans) validate() error {
	if len(m.Centroids) == 0 {
		return errors.New("no centroids")
	}
	width := len(m.Centroids[0])
	if width == 0 {
		return errors.New("empty centroid")
	}
	for k, c := range m.Centroids {
		if len(c) != width {
			return fmt.Errorf("centroid %d: width %d, want %d", k, len(c), width)
		}
	}
	return checkNames(width, m.Names)
}
