// Package artifacts loads the model and default-vector files the predictors
// need into one immutable Bundle.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v2"

	"mlportfolio/feature"
	"mlportfolio/ml"
)

// Config lists the artifact files. Defaults files are optional; without one
// the schema's built-in defaults are used. Top feature files are optional
// lists of feature names shown first on the form.
type Config struct {
	StudentModel    string `yaml:"student_model"`
	CancerModel     string `yaml:"cancer_model"`
	ShipModel       string `yaml:"ship_model"`
	ShipScaler      string `yaml:"ship_scaler"`
	StudentDefaults string `yaml:"student_defaults"`
	CancerDefaults  string `yaml:"cancer_defaults"`
	ShipDefaults    string `yaml:"ship_defaults"`

	StudentTopFeatures string `yaml:"student_top_features"`
	CancerTopFeatures  string `yaml:"cancer_top_features"`

	Reload bool `yaml:"reload"`
}

// Paths returns every configured file.
func (c Config) Paths() []string {
	var paths []string
	for _, p := range []string{c.StudentModel, c.CancerModel, c.ShipModel, c.ShipScaler,
		c.StudentDefaults, c.CancerDefaults, c.ShipDefaults, c.StudentTopFeatures, c.CancerTopFeatures} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// ArtifactLoadError is fatal at startup: no prediction can be served until
// the artifact loads.
type ArtifactLoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load %s from %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// Bundle holds every loaded artifact. It is never mutated after Load.
type Bundle struct {
	Student    ml.Classifier
	Cancer     ml.Regressor
	ShipModel  ml.Clusterer
	ShipScaler ml.Transformer

	defaults    map[string]feature.Defaults
	keyFeatures map[string][]string
	loadedAt    time.Time
}

// Defaults returns the default vector for a schema.
func (b *Bundle) Defaults(schema string) (feature.Defaults, bool) {
	d, ok := b.defaults[schema]
	return d, ok
}

// KeyFeatures returns the top features loaded for a schema. ok is false when
// none were configured and the schema's own key flags apply.
func (b *Bundle) KeyFeatures(schema string) ([]string, bool) {
	names, ok := b.keyFeatures[schema]
	return append([]string(nil), names...), ok
}

// LoadedAt is when the bundle was built.
func (b *Bundle) LoadedAt() time.Time {
	return b.loadedAt
}

// Load reads every artifact named by cfg.
func Load(cfg Config) (*Bundle, error) {
	b := &Bundle{
		defaults:    make(map[string]feature.Defaults, 3),
		keyFeatures: make(map[string][]string, 2),
		loadedAt:    time.Now(),
	}

	var err error
	if b.Student, err = loadClassifier("student model", cfg.StudentModel, feature.Student.Names()); err != nil {
		return nil, err
	}
	if b.Cancer, err = loadRegressor("cancer model", cfg.CancerModel, feature.Cancer.Names()); err != nil {
		return nil, err
	}
	if b.ShipScaler, err = loadScaler("ship scaler", cfg.ShipScaler, feature.ShipColumns); err != nil {
		return nil, err
	}
	if b.ShipModel, err = loadClusterer("ship model", cfg.ShipModel, feature.ShipColumns); err != nil {
		return nil, err
	}

	for _, item := range []struct {
		schema *feature.Schema
		path   string
	}{
		{feature.Student, cfg.StudentDefaults},
		{feature.Cancer, cfg.CancerDefaults},
		{feature.Ship, cfg.ShipDefaults},
	} {
		d, err := LoadDefaults(item.schema, item.path)
		if err != nil {
			return nil, err
		}
		b.defaults[item.schema.Name()] = d
	}

	for _, item := range []struct {
		schema *feature.Schema
		path   string
	}{
		{feature.Student, cfg.StudentTopFeatures},
		{feature.Cancer, cfg.CancerTopFeatures},
	} {
		if item.path == "" {
			continue
		}
		names, err := LoadFeatureList(item.schema, item.path)
		if err != nil {
			return nil, err
		}
		b.keyFeatures[item.schema.Name()] = names
	}
	return b, nil
}

func required(artifact, path string) error {
	if path == "" {
		return &ArtifactLoadError{Artifact: artifact, Err: fmt.Errorf("path not configured")}
	}
	return nil
}

func loadClassifier(artifact, path string, names []string) (ml.Classifier, error) {
	if err := required(artifact, path); err != nil {
		return nil, err
	}
	m, err := ml.LoadClassifier(path)
	if err == nil {
		err = checkColumns(m, names)
	}
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}
	return m, nil
}

func loadRegressor(artifact, path string, names []string) (ml.Regressor, error) {
	if err := required(artifact, path); err != nil {
		return nil, err
	}
	m, err := ml.LoadRegressor(path)
	if err == nil {
		err = checkColumns(m, names)
	}
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}
	return m, nil
}

func loadClusterer(artifact, path string, names []string) (ml.Clusterer, error) {
	if err := required(artifact, path); err != nil {
		return nil, err
	}
	m, err := ml.LoadClusterer(path)
	if err == nil {
		err = checkColumns(m, names)
	}
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}
	return m, nil
}

func loadScaler(artifact, path string, names []string) (ml.Transformer, error) {
	if err := required(artifact, path); err != nil {
		return nil, err
	}
	m, err := ml.LoadScaler(path)
	if err == nil {
		err = checkColumns(m, names)
	}
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}
	return m, nil
}

// checkColumns makes sure the model was trained on the schema's columns.
func checkColumns(m ml.Model, names []string) error {
	if m.NFeatures() != len(names) {
		return fmt.Errorf("%w: model has %d features, schema has %d", ml.ErrFeatureMismatch, m.NFeatures(), len(names))
	}
	trained := m.FeatureNames()
	if len(trained) == 0 {
		return nil
	}
	for i, name := range names {
		if trained[i] != name {
			return fmt.Errorf("column %d is %q, schema expects %q", i, trained[i], name)
		}
	}
	return nil
}

// LoadDefaults reads a JSON or YAML mapping of feature name to default value.
// An empty path yields the schema's built-in defaults.
func LoadDefaults(schema *feature.Schema, path string) (feature.Defaults, error) {
	artifact := schema.Name() + " defaults"
	if path == "" {
		return schema.Defaults(), nil
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return feature.Defaults{}, &ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}

	raw := make(map[string]interface{})
	if isYAML(path) {
		err = yaml.Unmarshal(payload, &raw)
	} else {
		err = json.Unmarshal(payload, &raw)
	}
	if err != nil {
		return feature.Defaults{}, &ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}

	d := feature.Defaults{Values: make(map[string]float64), Labels: make(map[string]string)}
	for name, value := range raw {
		f, ok := schema.Field(name)
		if !ok {
			continue
		}
		if f.Kind == feature.KindLabel {
			s, ok := value.(string)
			if !ok {
				return feature.Defaults{}, &ArtifactLoadError{Artifact: artifact, Path: path,
					Err: fmt.Errorf("%q: expected a label, got %T", name, value)}
			}
			canonical, known := f.Vocabulary.Canonical(s)
			if !known {
				return feature.Defaults{}, &ArtifactLoadError{Artifact: artifact, Path: path,
					Err: fmt.Errorf("%q: unknown level %q, allowed %v", name, s, f.Options())}
			}
			d.Labels[name] = canonical
			continue
		}
		// yaml.v2 reads Yes/No as booleans; labels go through the vocabulary.
		v, ok := f.Encode(value)
		if !ok {
			return feature.Defaults{}, &ArtifactLoadError{Artifact: artifact, Path: path,
				Err: fmt.Errorf("%q: invalid %s default %v", name, f.Kind, value)}
		}
		d.Values[name] = v
	}
	if err := schema.ValidateDefaults(d); err != nil {
		return feature.Defaults{}, &ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}
	return d, nil
}

// LoadFeatureList reads a JSON or YAML list of feature names. Every name must
// belong to schema.
func LoadFeatureList(schema *feature.Schema, path string) ([]string, error) {
	artifact := schema.Name() + " top features"
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}
	var names []string
	if isYAML(path) {
		err = yaml.Unmarshal(payload, &names)
	} else {
		err = json.Unmarshal(payload, &names)
	}
	if err != nil {
		return nil, &ArtifactLoadError{Artifact: artifact, Path: path, Err: err}
	}
	for _, name := range names {
		if !schema.Has(name) {
			return nil, &ArtifactLoadError{Artifact: artifact, Path: path,
				Err: fmt.Errorf("unknown feature %q", name)}
		}
	}
	return names, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Holder publishes the current bundle to concurrent readers. A reload swaps
// in a new bundle; the old one is left untouched.
type Holder struct {
	current atomic.Pointer[Bundle]
}

// NewHolder wraps an initial bundle.
func NewHolder(b *Bundle) *Holder {
	h := &Holder{}
	h.current.Store(b)
	return h
}

// Get returns the current bundle.
func (h *Holder) Get() *Bundle {
	return h.current.Load()
}

// Swap publishes b.
func (h *Holder) Swap(b *Bundle) {
	h.current.Store(b)
}
