package triage

import "testing"

func TestAssignDepartment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		risk     RiskLevel
		symptoms []string
		want     string
	}{
		{"high chest", RiskHigh, []string{"chest pain"}, "Cardiology / Emergency"},
		{"high heart keyword", RiskHigh, []string{"racing heart"}, "Cardiology / Emergency"},
		{"high breath", RiskHigh, []string{"shortness of breath"}, "Respiratory / Emergency"},
		{"high head", RiskHigh, []string{"severe headache"}, "Neurology / Emergency"},
		{"high confusion", RiskHigh, []string{"confusion"}, "Neurology / Emergency"},
		{"high fallback", RiskHigh, []string{"bleeding"}, "Emergency"},
		{"medium abdominal", RiskMedium, []string{"abdominal pain"}, "Gastroenterology"},
		{"medium stomach", RiskMedium, []string{"stomach ache"}, "Gastroenterology"},
		{"medium cough", RiskMedium, []string{"cough"}, "Internal Medicine"},
		{"medium fever", RiskMedium, []string{"fever"}, "Internal Medicine"},
		{"medium fallback", RiskMedium, []string{"fatigue"}, "General Medicine"},
		{"low anything", RiskLow, []string{"cough"}, "Outpatient / General Practice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := AssignDepartment(tt.risk, tt.symptoms)
			if got != tt.want {
				t.Errorf("AssignDepartment(%s, %v) = %q, want %q", tt.risk, tt.symptoms, got, tt.want)
			}

			// Pure function: same inputs, same output.
			if again := AssignDepartment(tt.risk, tt.symptoms); again != got {
				t.Errorf("not deterministic: %q then %q", got, again)
			}
		})
	}
}

func TestAssignDepartment_ChestBeatsBreath(t *testing.T) {
	t.Parallel()

	// Keyword checks within a tier run top to bottom: the chest branch
	// is consulted before the breath branch.
	got := AssignDepartment(RiskHigh, []string{"shortness of breath", "chest pain"})
	if got != "Cardiology / Emergency" {
		t.Errorf("got %q, want Cardiology / Emergency", got)
	}
}
