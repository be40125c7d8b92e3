// Package feature turns sparse form input into the complete, ordered feature
// vectors the trained models expect.
package feature

// Kind decides how a raw form value is encoded for the model.
type Kind int

const (
	// KindNumber is a continuous value, coerced leniently.
	KindNumber Kind = iota
	// KindInteger is an integer-coded value (course code, application mode, ...).
	KindInteger
	// KindYesNo is a binary field: Yes=1, No=0.
	KindYesNo
	// KindCategory is a label translated through a dedicated vocabulary.
	KindCategory
	// KindLabel keeps the text label for a later one-hot expansion.
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindYesNo:
		return "yes_no"
	case KindCategory:
		return "category"
	case KindLabel:
		return "label"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind render as its name in JSON form metadata.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Numeric reports whether the field is stored as a number in a Record.
func (k Kind) Numeric() bool {
	return k != KindLabel
}

// Field is one row of a schema's metadata table. The same table drives the
// form endpoint and the assembler.
type Field struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Kind    Kind   `json:"kind"`
	Section string `json:"section,omitempty"`
	Help    string `json:"help,omitempty"`
	// Key marks the indicators shown before the optional section.
	Key bool `json:"key"`

	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step float64  `json:"step,omitempty"`

	// Default is the numeric default; DefaultLabel is used for KindLabel fields.
	Default      float64 `json:"default"`
	DefaultLabel string  `json:"default_label,omitempty"`

	Vocabulary *Vocabulary `json:"options,omitempty"`
}

// Options lists the labels a form should offer for this field.
func (f Field) Options() []string {
	if f.Vocabulary == nil {
		return nil
	}
	return f.Vocabulary.Labels()
}

func bounds(min, max float64) (*float64, *float64) {
	return &min, &max
}

func number(name, label, section string, min, max, step, def float64) Field {
	lo, hi := bounds(min, max)
	return Field{Name: name, Label: label, Kind: KindNumber, Section: section, Min: lo, Max: hi, Step: step, Default: def}
}

func integer(name, label, section string, min, max, def float64) Field {
	lo, hi := bounds(min, max)
	return Field{Name: name, Label: label, Kind: KindInteger, Section: section, Min: lo, Max: hi, Step: 1, Default: def}
}

func yesNo(name, label, section string, def float64) Field {
	return Field{Name: name, Label: label, Kind: KindYesNo, Section: section, Default: def, Vocabulary: YesNo}
}

func category(name, label, section string, vocab *Vocabulary, def float64) Field {
	return Field{Name: name, Label: label, Kind: KindCategory, Section: section, Default: def, Vocabulary: vocab}
}

func key(f Field) Field {
	f.Key = true
	return f
}

func help(f Field, text string) Field {
	f.Help = text
	return f
}
