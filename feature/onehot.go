package feature

import "fmt"

// Layout is a fixed training-time column set for a schema with label
// features. Columns are "<feature>_<level>" for every label feature.
type Layout struct {
	schema  *Schema
	columns []string
	index   map[string]int
}

// NewLayout binds an explicit column order to schema. Every numeric feature
// and every level of every label feature must appear exactly once.
func NewLayout(schema *Schema, columns []string) (*Layout, error) {
	l := &Layout{
		schema:  schema,
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := l.index[c]; dup {
			return nil, fmt.Errorf("layout %s: duplicate column %q", schema.name, c)
		}
		l.index[c] = i
	}
	expected := 0
	for _, f := range schema.fields {
		if f.Kind != KindLabel {
			expected++
			if _, ok := l.index[f.Name]; !ok {
				return nil, fmt.Errorf("layout %s: missing column %q", schema.name, f.Name)
			}
			continue
		}
		for _, level := range f.Vocabulary.Labels() {
			expected++
			if _, ok := l.index[oneHotColumn(f.Name, level)]; !ok {
				return nil, fmt.Errorf("layout %s: missing column %q", schema.name, oneHotColumn(f.Name, level))
			}
		}
	}
	if expected != len(columns) {
		return nil, fmt.Errorf("layout %s: %d columns, schema expands to %d", schema.name, len(columns), expected)
	}
	return l, nil
}

func mustLayout(schema *Schema, columns []string) *Layout {
	l, err := NewLayout(schema, columns)
	if err != nil {
		panic(err)
	}
	return l
}

func oneHotColumn(feature, level string) string {
	return feature + "_" + level
}

// Columns returns the training column order.
func (l *Layout) Columns() []string {
	return append([]string(nil), l.columns...)
}

// Len is the expanded width.
func (l *Layout) Len() int {
	return len(l.columns)
}

// Schema returns the schema the layout expands.
func (l *Layout) Schema() *Schema {
	return l.schema
}

// Expand one-hot encodes the label features of rec and returns the row in
// training column order. A level outside the vocabulary yields all zeros for
// that feature.
func (l *Layout) Expand(rec *Record) ([]float64, error) {
	if rec.schema != l.schema {
		return nil, fmt.Errorf("layout %s: record assembled for schema %s", l.schema.name, rec.schema.name)
	}
	row := make([]float64, len(l.columns))
	for _, f := range l.schema.fields {
		if f.Kind != KindLabel {
			row[l.index[f.Name]] = rec.values[f.Name]
			continue
		}
		label := rec.labels[f.Name]
		if i, ok := l.index[oneHotColumn(f.Name, label)]; ok {
			row[i] = 1
		}
	}
	return row, nil
}

// ExpandMap is Expand keyed by column name.
func (l *Layout) ExpandMap(rec *Record) (map[string]float64, error) {
	row, err := l.Expand(rec)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(row))
	for i, c := range l.columns {
		out[c] = row[i]
	}
	return out, nil
}
