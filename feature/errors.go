package feature

import (
	"fmt"
	"strings"
)

// InvalidCategoryError reports a categorical label outside the field's
// vocabulary. It means the form and the schema disagree, so the prediction
// is aborted instead of falling back to the default.
type InvalidCategoryError struct {
	Schema  string
	Feature string
	Value   interface{}
	Allowed []string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("%s: invalid category %v for %q (allowed: %s)",
		e.Schema, e.Value, e.Feature, strings.Join(e.Allowed, ", "))
}
