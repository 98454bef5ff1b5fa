package routing

import "strings"

// Emergency detection is intentionally permissive: plain case-folded
// substring matching, no tokenization or stemming. A false positive just
// reaches a human-staffed emergency line; a false negative is the
// unacceptable failure mode.

// defaultEmergencyKeywords applies when a tenant has not configured its
// own list.
var defaultEmergencyKeywords = []string{
	"emergency",
	"urgent",
	"severe pain",
	"bleeding",
	"swelling",
	"knocked out",
	"broken tooth",
	"can't breathe",
	"cannot breathe",
	"abscess",
	"trauma",
	"accident",
	"unbearable",
}

// DetectEmergency reports whether any keyword occurs as a substring of
// text, case-insensitively. Empty text is never an emergency. An empty
// keyword list falls back to the built-in defaults.
func DetectEmergency(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	if len(keywords) == 0 {
		keywords = defaultEmergencyKeywords
	}
	folded := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(folded, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Priority is the emergency triage tier.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityStandard Priority = "standard"
	PriorityGeneral  Priority = "general"
)

// Tiers are evaluated top-down; the first match wins. They are mutually
// exclusive by evaluation order, not by content disjointness.
var priorityTiers = []struct {
	priority Priority
	keywords []string
}{
	{PriorityCritical, []string{"can't breathe", "cannot breathe", "anaphylaxis", "allergic reaction", "unconscious", "choking"}},
	{PriorityHigh, []string{"trauma", "avulsed", "knocked out", "jaw", "fracture", "uncontrolled bleeding"}},
	{PriorityStandard, []string{"severe pain", "abscess", "swelling", "infection", "broken tooth"}},
}

// ClassifyPriority triages utterance text into an emergency tier.
func ClassifyPriority(text string) Priority {
	folded := strings.ToLower(text)
	for _, tier := range priorityTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(folded, kw) {
				return tier.priority
			}
		}
	}
	return PriorityGeneral
}
