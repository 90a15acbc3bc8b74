package triage

import "strings"

// AssignDepartment maps a model-path risk level and symptom set onto a
// department. Rule-path results carry their own department from the
// rule table, so this is consulted only when no rule fired. Pure and
// deterministic; the keyword checks within each tier are evaluated top
// to bottom.
func AssignDepartment(risk RiskLevel, symptoms []string) string {
	switch risk {
	case RiskHigh:
		switch {
		case anyContains(symptoms, "chest", "heart"):
			return "Cardiology / Emergency"
		case anyContains(symptoms, "breath"):
			return "Respiratory / Emergency"
		case anyContains(symptoms, "head", "confusion"):
			return "Neurology / Emergency"
		default:
			return "Emergency"
		}
	case RiskMedium:
		switch {
		case anyContains(symptoms, "abdominal", "stomach"):
			return "Gastroenterology"
		case anyContains(symptoms, "cough", "fever"):
			return "Internal Medicine"
		default:
			return "General Medicine"
		}
	default:
		return "Outpatient / General Practice"
	}
}

// anyContains reports whether any symptom contains any of the keywords.
func anyContains(symptoms []string, keywords ...string) bool {
	for _, s := range symptoms {
		for _, kw := range keywords {
			if strings.Contains(s, kw) {
				return true
			}
		}
	}
	return false
}
