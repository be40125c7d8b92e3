package feature

import (
	"encoding/json"
	"strings"
)

// Entry pairs a user-facing label with the code the model was trained on.
type Entry struct {
	Label string
	Code  float64
}

// Vocabulary is a closed, ordered label set. It is immutable once built.
type Vocabulary struct {
	entries []Entry
	codes   map[string]float64
	aliases map[string]string
}

// NewVocabulary builds a vocabulary in the given option order.
func NewVocabulary(entries ...Entry) *Vocabulary {
	v := &Vocabulary{
		entries: append([]Entry(nil), entries...),
		codes:   make(map[string]float64, len(entries)),
	}
	for _, e := range entries {
		v.codes[e.Label] = e.Code
	}
	return v
}

// Levels builds a label-only vocabulary, codes follow the option order.
func Levels(labels ...string) *Vocabulary {
	entries := make([]Entry, len(labels))
	for i, label := range labels {
		entries[i] = Entry{Label: label, Code: float64(i)}
	}
	return NewVocabulary(entries...)
}

// WithAliases returns a copy that also accepts the alias labels.
func (v *Vocabulary) WithAliases(aliases map[string]string) *Vocabulary {
	out := NewVocabulary(v.entries...)
	out.aliases = make(map[string]string, len(aliases))
	for alias, label := range aliases {
		out.aliases[alias] = label
	}
	return out
}

// YesNo is the fixed vocabulary for binary fields.
var YesNo = NewVocabulary(Entry{"Yes", 1}, Entry{"No", 0})

// Labels returns the labels in option order.
func (v *Vocabulary) Labels() []string {
	labels := make([]string, len(v.entries))
	for i, e := range v.entries {
		labels[i] = e.Label
	}
	return labels
}

// Len is the number of distinct labels.
func (v *Vocabulary) Len() int {
	return len(v.entries)
}

// Canonical maps a label or alias to the vocabulary label.
func (v *Vocabulary) Canonical(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if _, ok := v.codes[label]; ok {
		return label, true
	}
	if target, ok := v.aliases[label]; ok {
		if _, ok := v.codes[target]; ok {
			return target, true
		}
	}
	return "", false
}

// Code looks up the trained code for a label or alias.
func (v *Vocabulary) Code(label string) (float64, bool) {
	canonical, ok := v.Canonical(label)
	if !ok {
		return 0, false
	}
	return v.codes[canonical], true
}

// HasCode reports whether code belongs to the vocabulary.
func (v *Vocabulary) HasCode(code float64) bool {
	for _, e := range v.entries {
		if e.Code == code {
			return true
		}
	}
	return false
}

// LabelFor returns the label of a code, used to preselect form options.
func (v *Vocabulary) LabelFor(code float64) (string, bool) {
	for _, e := range v.entries {
		if e.Code == code {
			return e.Label, true
		}
	}
	return "", false
}

// MarshalJSON renders the vocabulary as its option labels.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Labels())
}
