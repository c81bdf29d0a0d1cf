package domain

// Persisted pipeline status codes.
const (
	StatusProspecting = "prospecting"
	StatusEngaged     = "engaged"
	StatusQualified   = "qualified"
	StatusMeetingSet  = "meeting_set"
	StatusCustomer    = "customer"
	StatusLost        = "lost"
)

// statusLabels maps the human-facing pipeline labels shown in the cockpit
// to the status codes persisted on the lead row. The table is fixed; an
// unknown label is a validation error, never a passthrough.
var statusLabels = map[string]string{
	"Prospecting": StatusProspecting,
	"Engaged":     StatusEngaged,
	"Qualified":   StatusQualified,
	"Meeting Set": StatusMeetingSet,
	"Customer":    StatusCustomer,
	"Lost":        StatusLost,
}

// StatusCodeForLabel translates a pipeline label to its persisted code.
func StatusCodeForLabel(label string) (string, bool) {
	code, ok := statusLabels[label]
	return code, ok
}

// KnownStatusLabels returns the accepted labels, for error details.
func KnownStatusLabels() []string {
	labels := make([]string, 0, len(statusLabels))
	for label := range statusLabels {
		labels = append(labels, label)
	}
	return labels
}
