package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/linnemanlabs/triageai/internal/patient"
)

// Explainer is the interface for any narrative explanation backend.
// Implementations may fail or time out; the Service always degrades to
// FallbackExplanation, so triage never fails because narrative text
// generation is down.
type Explainer interface {
	Explain(ctx context.Context, req *ExplainRequest) (string, error)
}

// ExplainRequest carries everything an explanation backend needs about
// a finished triage decision. RuleName is empty on the model path.
type ExplainRequest struct {
	Patient    *patient.Input
	RiskLevel  RiskLevel
	Department string
	TopFactors []TopFactor
	RuleName   string
}

// FallbackExplanation renders the deterministic templated explanation
// used when no explanation backend is configured or the backend failed.
// It states age, gender, risk level, the leading factors, and the
// recommended department.
func FallbackExplanation(req *ExplainRequest) string {
	return fmt.Sprintf(
		"This %d-year-old %s patient has been classified as %s RISK primarily due to %s. "+
			"Recommended for %s evaluation. "+
			"This assessment is based on clinical algorithms and machine learning analysis.",
		req.Patient.Age, req.Patient.Gender, req.RiskLevel, leadingFactors(req), req.Department,
	)
}

// leadingFactors names what drove the decision: the clinical rule when
// one fired, otherwise the top two attribution features, otherwise the
// reported symptoms.
func leadingFactors(req *ExplainRequest) string {
	if req.RuleName != "" {
		return "clinical rule " + req.RuleName
	}
	if len(req.TopFactors) > 0 {
		names := make([]string, 0, 2)
		for _, f := range req.TopFactors {
			names = append(names, f.Feature)
			if len(names) == 2 {
				break
			}
		}
		return strings.Join(names, ", ")
	}
	return "the reported symptoms"
}
