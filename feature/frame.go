package feature

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Frame returns the record as a single-row table with columns in canonical
// order, label features as string columns.
func (r *Record) Frame() dataframe.DataFrame {
	cols := make([]series.Series, 0, r.schema.Len())
	for _, f := range r.schema.fields {
		if f.Kind == KindLabel {
			cols = append(cols, series.New([]string{r.labels[f.Name]}, series.String, f.Name))
			continue
		}
		cols = append(cols, series.New([]float64{r.values[f.Name]}, series.Float, f.Name))
	}
	return dataframe.New(cols...)
}
