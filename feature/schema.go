package feature

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Schema is the named, ordered set of features a model expects.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema; field order is the model's column order.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("schema name is required")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("schema %s: no fields", name)
	}
	s := &Schema{
		name:   name,
		fields: append([]Field(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("schema %s: field %d has no name", name, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", name, f.Name)
		}
		if (f.Kind == KindYesNo || f.Kind == KindCategory || f.Kind == KindLabel) && f.Vocabulary == nil {
			return nil, fmt.Errorf("schema %s: field %q needs a vocabulary", name, f.Name)
		}
		s.index[f.Name] = i
	}
	return s, nil
}

func mustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name identifies the schema.
func (s *Schema) Name() string {
	return s.name
}

// Len is the number of features.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Names returns the canonical feature order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Fields returns a copy of the metadata table.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks up a feature by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Has reports whether name belongs to the schema.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Defaults returns the built-in default vector from the metadata table.
func (s *Schema) Defaults() Defaults {
	d := Defaults{
		Values: make(map[string]float64, len(s.fields)),
		Labels: make(map[string]string),
	}
	for _, f := range s.fields {
		if f.Kind == KindLabel {
			d.Labels[f.Name] = f.DefaultLabel
			continue
		}
		d.Values[f.Name] = f.Default
	}
	return d
}

// ValidateDefaults checks that d supplies a valid value for every feature.
func (s *Schema) ValidateDefaults(d Defaults) error {
	var missing []string
	for _, f := range s.fields {
		if f.Kind == KindLabel {
			label, ok := d.Labels[f.Name]
			if !ok {
				missing = append(missing, f.Name)
				continue
			}
			if _, known := f.Vocabulary.Canonical(label); !known {
				return fmt.Errorf("schema %s: default %q for %q is not a known level", s.name, label, f.Name)
			}
			continue
		}
		v, ok := d.Values[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("schema %s: default for %q is not a finite number", s.name, f.Name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("schema %s: defaults missing %d feature(s): %s", s.name, len(missing), strings.Join(missing, ", "))
	}
	return nil
}

// Defaults is a complete fallback value for every feature of a schema.
type Defaults struct {
	Values map[string]float64
	Labels map[string]string
}

// Merge overlays numeric and label overrides on top of d.
func (d Defaults) Merge(values map[string]float64, labels map[string]string) Defaults {
	out := Defaults{
		Values: make(map[string]float64, len(d.Values)+len(values)),
		Labels: make(map[string]string, len(d.Labels)+len(labels)),
	}
	for k, v := range d.Values {
		out.Values[k] = v
	}
	for k, v := range values {
		out.Values[k] = v
	}
	for k, v := range d.Labels {
		out.Labels[k] = v
	}
	for k, v := range labels {
		out.Labels[k] = v
	}
	return out
}
