package predict

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"mlportfolio/artifacts"
	"mlportfolio/feature"
)

// Workflow turns an assembled record into an outcome using the bundle's
// models.
type Workflow interface {
	Name() string
	Title() string
	Schema() *feature.Schema
	Score(b *artifacts.Bundle, rec *feature.Record) (*Outcome, error)
}

// Outcome is the model-specific part of a Result.
type Outcome struct {
	Label string `json:"label"`

	// Student
	Class         *int               `json:"class,omitempty"`
	Probabilities []ClassProbability `json:"probabilities,omitempty"`

	// Cancer
	Value     *float64 `json:"value,omitempty"`
	DeathRate *int     `json:"death_rate,omitempty"`

	// Ship
	Cluster        *int   `json:"cluster,omitempty"`
	Description    string `json:"description,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// ClassProbability is one entry of a classifier's probability vector.
type ClassProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

type studentWorkflow struct{}

func (studentWorkflow) Name() string            { return feature.Student.Name() }
func (studentWorkflow) Title() string           { return "Student Academic Success" }
func (studentWorkflow) Schema() *feature.Schema { return feature.Student }

func (studentWorkflow) Score(b *artifacts.Bundle, rec *feature.Record) (*Outcome, error) {
	proba, err := b.Student.PredictProba(rec.Vector())
	if err != nil {
		return nil, fmt.Errorf("student classifier: %w", err)
	}
	classes := b.Student.Classes()
	out := &Outcome{Probabilities: make([]ClassProbability, len(proba))}
	for i, p := range proba {
		name, err := outcomeName(classes[i])
		if err != nil {
			return nil, err
		}
		out.Probabilities[i] = ClassProbability{Label: name, Probability: p}
	}
	best := floats.MaxIdx(proba)
	class := classes[best]
	out.Class = &class
	out.Label = out.Probabilities[best].Label
	return out, nil
}

func outcomeName(class int) (string, error) {
	if class < 0 || class >= len(feature.StudentOutcomes) {
		return "", fmt.Errorf("student classifier: unknown class %d", class)
	}
	return feature.StudentOutcomes[class], nil
}

type cancerWorkflow struct{}

func (cancerWorkflow) Name() string            { return feature.Cancer.Name() }
func (cancerWorkflow) Title() string           { return "Cancer Mortality Rate" }
func (cancerWorkflow) Schema() *feature.Schema { return feature.Cancer }

func (cancerWorkflow) Score(b *artifacts.Bundle, rec *feature.Record) (*Outcome, error) {
	v, err := b.Cancer.Predict(rec.Vector())
	if err != nil {
		return nil, fmt.Errorf("cancer regressor: %w", err)
	}
	// Deaths are whole people.
	rate := int(v)
	return &Outcome{
		Label:     fmt.Sprintf("%d per 100,000", rate),
		Value:     &v,
		DeathRate: &rate,
	}, nil
}

// Cluster describes one operational group of the ship model.
type Cluster struct {
	Label          string
	Description    string
	Recommendation string
}

// ShipClusters maps k-means cluster ids to their operational group.
var ShipClusters = map[int]Cluster{
	0: {
		Label: "High-Cost Carriers",
		Description: "Vessels with higher operational costs and critical maintenance needs. " +
			"Often older bulk/tanker ships using Heavy Fuel Oil (HFO). Consider efficiency upgrades.",
		Recommendation: "This vessel shows signs of high operational cost. " +
			"Consider engine retrofit or preventive maintenance.",
	},
	1: {
		Label: "Cost-Efficient Carriers",
		Description: "Modern, well-maintained ships (often bulk/container) with diesel engines. " +
			"Lowest operational cost and reliable performance, ideal for standard voyages.",
		Recommendation: "This is a benchmark vessel. " +
			"Use its settings (e.g., load %, speed) as a standard for similar ships.",
	},
	2: {
		Label: "Specialized Vessels",
		Description: "Typically fishing or niche vessels (e.g., steam-powered). " +
			"Well-maintained but technologically distinct. Best for specialized operations, not general cargo.",
		Recommendation: "This vessel is optimized for niche operations. " +
			"Avoid assigning it to standard cargo routes.",
	},
}

type shipWorkflow struct{}

func (shipWorkflow) Name() string            { return feature.Ship.Name() }
func (shipWorkflow) Title() string           { return "Ship Performance Clustering" }
func (shipWorkflow) Schema() *feature.Schema { return feature.Ship }

func (shipWorkflow) Score(b *artifacts.Bundle, rec *feature.Record) (*Outcome, error) {
	vec, err := feature.ShipLayout.Expand(rec)
	if err != nil {
		return nil, err
	}
	scaled, err := b.ShipScaler.Transform(vec)
	if err != nil {
		return nil, fmt.Errorf("ship scaler: %w", err)
	}
	id, err := b.ShipModel.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("ship clusterer: %w", err)
	}
	out := &Outcome{Cluster: &id}
	c, ok := ShipClusters[id]
	if !ok {
		out.Label = fmt.Sprintf("Cluster %d", id)
		return out, nil
	}
	out.Label = c.Label
	out.Description = c.Description
	out.Recommendation = c.Recommendation
	return out, nil
}

// Workflows lists every served workflow in display order.
func Workflows() []Workflow {
	return []Workflow{studentWorkflow{}, cancerWorkflow{}, shipWorkflow{}}
}
