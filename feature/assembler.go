package feature

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one complete, ordered feature row ready for inference.
type Record struct {
	schema    *Schema
	values    map[string]float64
	labels    map[string]string
	recovered []string
}

// Assemble merges input over defaults for schema. Every schema feature is
// present in the result; input keys outside the schema are ignored.
// Malformed numeric input keeps the default value; an unknown categorical
// label fails with *InvalidCategoryError.
func Assemble(schema *Schema, defaults Defaults, input map[string]interface{}) (*Record, error) {
	rec := &Record{
		schema: schema,
		values: make(map[string]float64, schema.Len()),
		labels: make(map[string]string),
	}
	for _, f := range schema.fields {
		if f.Kind == KindLabel {
			label := defaults.Labels[f.Name]
			if canonical, known := f.Vocabulary.Canonical(label); known {
				label = canonical
			}
			rec.labels[f.Name] = label
			continue
		}
		rec.values[f.Name] = defaults.Values[f.Name]
	}

	// Walk the schema, not the input map, so the recovered list is ordered.
	for _, f := range schema.fields {
		raw, ok := input[f.Name]
		if !ok {
			continue
		}
		switch f.Kind {
		case KindYesNo, KindCategory:
			code, ok := encodeCategory(f, raw)
			if !ok {
				return nil, &InvalidCategoryError{
					Schema:  schema.name,
					Feature: f.Name,
					Value:   raw,
					Allowed: f.Vocabulary.Labels(),
				}
			}
			rec.values[f.Name] = code
		case KindLabel:
			label, ok := raw.(string)
			if !ok {
				rec.recovered = append(rec.recovered, f.Name)
				continue
			}
			if canonical, known := f.Vocabulary.Canonical(label); known {
				label = canonical
			}
			rec.labels[f.Name] = strings.TrimSpace(label)
		default:
			v, ok := coerce(raw)
			if !ok {
				rec.recovered = append(rec.recovered, f.Name)
				continue
			}
			rec.values[f.Name] = v
		}
	}
	return rec, nil
}

// Encode converts one raw value of f to the number stored in a Record, with
// the same rules Assemble applies. Label fields are not numeric and never encode.
func (f Field) Encode(raw interface{}) (float64, bool) {
	switch f.Kind {
	case KindLabel:
		return 0, false
	case KindYesNo, KindCategory:
		return encodeCategory(f, raw)
	}
	return coerce(raw)
}

func encodeCategory(f Field, raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case string:
		return f.Vocabulary.Code(v)
	case bool:
		if f.Kind != KindYesNo {
			return 0, false
		}
		if v {
			return 1, true
		}
		return 0, true
	}
	if code, ok := coerce(raw); ok && f.Vocabulary.HasCode(code) {
		return code, true
	}
	return 0, false
}

// coerce converts numbers and numeric-looking strings to float64.
func coerce(raw interface{}) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint:
		v = float64(n)
	case uint32:
		v = float64(n)
	case uint64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Schema returns the schema the record was assembled for.
func (r *Record) Schema() *Schema {
	return r.schema
}

// Names returns every feature name in canonical order.
func (r *Record) Names() []string {
	return r.schema.Names()
}

// Value returns a numeric feature.
func (r *Record) Value(name string) (float64, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Label returns a label feature (KindLabel).
func (r *Record) Label(name string) (string, bool) {
	v, ok := r.labels[name]
	return v, ok
}

// Values returns a copy of the numeric features.
func (r *Record) Values() map[string]float64 {
	out := make(map[string]float64, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Labels returns a copy of the label features.
func (r *Record) Labels() map[string]string {
	out := make(map[string]string, len(r.labels))
	for k, v := range r.labels {
		out[k] = v
	}
	return out
}

// Vector returns the numeric features in canonical order. Label features are
// skipped; use a Layout to expand them.
func (r *Record) Vector() []float64 {
	vec := make([]float64, 0, len(r.values))
	for _, f := range r.schema.fields {
		if f.Kind == KindLabel {
			continue
		}
		vec = append(vec, r.values[f.Name])
	}
	return vec
}

// Recovered lists the features whose input could not be coerced and kept
// their default.
func (r *Record) Recovered() []string {
	return append([]string(nil), r.recovered...)
}

// Map returns every feature keyed by name, labels as strings.
func (r *Record) Map() map[string]interface{} {
	out := make(map[string]interface{}, r.schema.Len())
	for k, v := range r.values {
		out[k] = v
	}
	for k, v := range r.labels {
		out[k] = v
	}
	return out
}
