package triage

import (
	"time"

	"github.com/linnemanlabs/triageai/internal/patient"
)

// RiskLevel is the discrete triage severity classification.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Valid reports whether r is one of the three known risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskHigh, RiskMedium, RiskLow:
		return true
	}
	return false
}

// Attribution directions for TopFactor.
const (
	DirectionIncreases = "increases"
	DirectionDecreases = "decreases"
)

// TopFactor is one per-feature attribution entry explaining a model
// prediction. Contribution is a magnitude, never negative; the sign
// lives in Direction.
type TopFactor struct {
	Feature      string  `json:"feature"`
	Contribution float64 `json:"contribution"`
	Direction    string  `json:"direction"`
}

// Prediction is the classifier adapter's output for one feature vector.
// TopFactors may be empty when attribution degraded; it never has more
// than three entries.
type Prediction struct {
	RiskLevel  RiskLevel
	Confidence float64
	TopFactors []TopFactor
}

// Result is the outcome of one triage run. PatientID is the durable
// identifier assigned by the store; a Result is never returned to a
// caller without one. Immutable once built.
type Result struct {
	PatientID     string      `json:"patient_id"`
	RiskLevel     RiskLevel   `json:"risk_level"`
	Confidence    float64     `json:"confidence"`
	Department    string      `json:"department"`
	RuleTriggered string      `json:"rule_triggered,omitempty"`
	TopFactors    []TopFactor `json:"top_factors"`
	Explanation   string      `json:"explanation"`
	CreatedAt     time.Time   `json:"triage_timestamp"`
}

// Record is the persisted form of a triage outcome: the Result plus the
// patient snapshot it was computed from.
type Record struct {
	Result
	Patient patient.Input `json:"patient"`
}

// Stats is an aggregate view over stored triage records.
type Stats struct {
	Total         int            `json:"total"`
	ByRiskLevel   map[string]int `json:"by_risk_level"`
	ByDepartment  map[string]int `json:"by_department"`
	AvgConfidence float64        `json:"avg_confidence"`
}
