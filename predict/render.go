package predict

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// summarize renders the text shown next to a prediction.
func summarize(workflow string, o *Outcome) string {
	var sb strings.Builder
	switch {
	case o.Class != nil:
		sb.WriteString(printer.Sprintf("Prediction: %s", o.Label))
		for _, p := range o.Probabilities {
			sb.WriteString("\n")
			sb.WriteString(printer.Sprintf("- %s: %.1f%%", p.Label, p.Probability*100))
		}
	case o.DeathRate != nil:
		sb.WriteString(printer.Sprintf("Predicted Death Rate: %d per 100,000 people annually", *o.DeathRate))
	case o.Cluster != nil:
		sb.WriteString(printer.Sprintf("Operational Group: %s", o.Label))
		if o.Description != "" {
			sb.WriteString("\n")
			sb.WriteString(o.Description)
		}
		if o.Recommendation != "" {
			sb.WriteString("\n")
			sb.WriteString(printer.Sprintf("Recommendation: %s", o.Recommendation))
		}
	default:
		sb.WriteString(printer.Sprintf("%s: %s", workflow, o.Label))
	}
	return sb.String()
}
