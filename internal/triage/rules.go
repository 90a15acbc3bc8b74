package triage

import (
	"strings"

	"github.com/linnemanlabs/triageai/internal/patient"
)

// RuleResult is the outcome of one rule engine evaluation. When no rule
// fires, Triggered is false and the other fields are zero.
type RuleResult struct {
	Triggered  bool
	RiskLevel  RiskLevel
	RuleName   string
	Department string
}

// rule pairs a clinical predicate with its triage outcome.
type rule struct {
	name       string
	risk       RiskLevel
	department string
	match      func(p *patient.Input) bool
}

// severeSymptoms is the vocabulary rule MULTIPLE_SEVERE counts against.
// It is intentionally wider than the model's symptom vocabulary: the
// rule works on free-text containment, so entries like
// severe_abdominal_pain are reachable through phrases the model never
// one-hot encodes.
var severeSymptoms = []string{
	"chest_pain", "shortness_of_breath", "confusion", "seizure",
	"severe_abdominal_pain", "vomiting_blood", "severe_headache",
}

var strokeSymptoms = []string{
	"confusion", "slurred_speech", "numbness", "vision_changes", "weakness",
}

// clinicalRules is evaluated top to bottom and the first match wins.
// The order is part of the clinical contract: reordering changes which
// rule a multi-condition patient resolves to, so a new rule must be
// inserted at its priority position, never appended blindly. All
// current rules escalate to HIGH; they are safety nets that override
// the statistical model, never downgrades.
var clinicalRules = []rule{
	{
		name: "SPO2_CRITICAL", risk: RiskHigh, department: "Emergency / Respiratory",
		match: func(p *patient.Input) bool {
			return p.SpO2 != nil && *p.SpO2 < 90
		},
	},
	{
		name: "BP_CRITICAL", risk: RiskHigh, department: "Cardiology / Emergency",
		match: func(p *patient.Input) bool {
			return p.BPSystolic != nil && p.BPDiastolic != nil &&
				(*p.BPSystolic > 180 || *p.BPDiastolic > 110)
		},
	},
	{
		name: "HR_EXTREME", risk: RiskHigh, department: "Cardiology",
		match: func(p *patient.Input) bool {
			return p.HeartRate != nil && (*p.HeartRate < 50 || *p.HeartRate > 120)
		},
	},
	{
		name: "FEVER_ELDERLY", risk: RiskHigh, department: "Internal Medicine",
		match: func(p *patient.Input) bool {
			return p.Temperature != nil && *p.Temperature > 39.5 && p.Age > 65
		},
	},
	{
		name: "CHEST_PAIN_CARDIAC_HX", risk: RiskHigh, department: "Cardiology / Emergency",
		match: func(p *patient.Input) bool {
			return hasSymptomParts(p.Symptoms, "chest", "pain") &&
				(hasCondition(p.PreExisting, "heart_disease") || hasCondition(p.PreExisting, "hypertension"))
		},
	},
	{
		name: "CHEST_PAIN_ELDERLY", risk: RiskHigh, department: "Cardiology / Emergency",
		match: func(p *patient.Input) bool {
			return hasSymptomParts(p.Symptoms, "chest", "pain") && p.Age > 50
		},
	},
	{
		name: "STROKE_SYMPTOMS", risk: RiskHigh, department: "Neurology / Emergency",
		match: func(p *patient.Input) bool {
			for _, tok := range strokeSymptoms {
				if hasSymptomToken(p.Symptoms, tok) {
					return true
				}
			}
			return false
		},
	},
	{
		name: "SEIZURE", risk: RiskHigh, department: "Neurology / Emergency",
		match: func(p *patient.Input) bool {
			return hasSymptomParts(p.Symptoms, "seizure")
		},
	},
	{
		name: "SOB_LOW_SPO2", risk: RiskHigh, department: "Emergency / Respiratory",
		match: func(p *patient.Input) bool {
			return hasSymptomParts(p.Symptoms, "shortness", "breath") &&
				p.SpO2 != nil && *p.SpO2 < 94
		},
	},
	{
		name: "MULTIPLE_SEVERE", risk: RiskHigh, department: "Emergency",
		match: func(p *patient.Input) bool {
			count := 0
			for _, s := range p.Symptoms {
				if hasAnyToken(s, severeSymptoms) {
					count++
				}
			}
			return count >= 3
		},
	},
	{
		name: "FEVER_EXTREME", risk: RiskHigh, department: "Infectious Disease / Emergency",
		match: func(p *patient.Input) bool {
			return p.Temperature != nil && *p.Temperature > 40.0
		},
	},
}

// EvaluateRules runs the ordered clinical rule chain against a validated
// patient. Stateless and total: it never fails, and an absent vital
// never satisfies a predicate that needs it.
func EvaluateRules(p *patient.Input) RuleResult {
	for _, r := range clinicalRules {
		if r.match(p) {
			return RuleResult{
				Triggered:  true,
				RiskLevel:  r.risk,
				RuleName:   r.name,
				Department: r.department,
			}
		}
	}
	return RuleResult{}
}

// RuleNames returns the rule identifiers in priority order, for audit
// and metric label enumeration.
func RuleNames() []string {
	names := make([]string, len(clinicalRules))
	for i, r := range clinicalRules {
		names[i] = r.name
	}
	return names
}

// underscored folds free-text spacing so "slurred speech" matches the
// slurred_speech token.
func underscored(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}

// hasSymptomParts reports whether any symptom contains every part as a
// substring. Containment rather than equality is deliberate: it trades
// precision for recall on free-text symptom entry.
func hasSymptomParts(symptoms []string, parts ...string) bool {
	for _, s := range symptoms {
		all := true
		for _, part := range parts {
			if !strings.Contains(s, part) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// hasSymptomToken reports whether any underscore-folded symptom contains
// the token.
func hasSymptomToken(symptoms []string, token string) bool {
	for _, s := range symptoms {
		if strings.Contains(underscored(s), token) {
			return true
		}
	}
	return false
}

// hasAnyToken reports whether the underscore-folded symptom contains any
// of the tokens.
func hasAnyToken(symptom string, tokens []string) bool {
	folded := underscored(symptom)
	for _, tok := range tokens {
		if strings.Contains(folded, tok) {
			return true
		}
	}
	return false
}

// hasCondition checks exact membership in the normalized condition list.
func hasCondition(conditions []string, want string) bool {
	for _, c := range conditions {
		if underscored(c) == want {
			return true
		}
	}
	return false
}
