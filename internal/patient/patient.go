// Package patient defines the validated patient record that enters the
// triage pipeline, and the ingress validation that guards it. The core
// pipeline assumes an Input that passed Validate: symptoms are normalized
// lowercase and non-empty, vitals are either absent or inside clinical
// measurement ranges.
package patient

import (
	"fmt"
	"strings"
)

// Gender is the patient's recorded gender.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "Other"
)

// Input is a single patient triage request. Optional vitals are nil when
// not measured; they are never encoded as sentinel zeros.
type Input struct {
	Age     int      `json:"age"`
	Gender  Gender   `json:"gender"`
	Symptoms []string `json:"symptoms"`

	// Vital signs, optional but recommended.
	BPSystolic  *int     `json:"bp_systolic,omitempty"`
	BPDiastolic *int     `json:"bp_diastolic,omitempty"`
	HeartRate   *int     `json:"heart_rate,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	SpO2        *float64 `json:"spo2,omitempty"`

	PreExisting []string `json:"pre_existing"`
}

// ValidationError reports every constraint the input violates, so a
// caller can fix them all in one round trip.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid patient input: " + strings.Join(e.Reasons, "; ")
}

// Validate normalizes the input in place and checks all range
// constraints. Symptoms and pre-existing conditions are trimmed,
// lowercased, and empty entries dropped. Returns a *ValidationError
// listing every violation, or nil.
func (p *Input) Validate() error {
	var reasons []string

	if p.Age < 0 || p.Age > 120 {
		reasons = append(reasons, fmt.Sprintf("age %d out of range [0,120]", p.Age))
	}

	switch p.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		reasons = append(reasons, fmt.Sprintf("gender %q must be one of M, F, Other", p.Gender))
	}

	p.Symptoms = normalize(p.Symptoms)
	if len(p.Symptoms) == 0 {
		reasons = append(reasons, "at least one non-empty symptom is required")
	}
	p.PreExisting = normalize(p.PreExisting)

	if p.BPSystolic != nil && (*p.BPSystolic < 50 || *p.BPSystolic > 250) {
		reasons = append(reasons, fmt.Sprintf("bp_systolic %d out of range [50,250]", *p.BPSystolic))
	}
	if p.BPDiastolic != nil && (*p.BPDiastolic < 30 || *p.BPDiastolic > 150) {
		reasons = append(reasons, fmt.Sprintf("bp_diastolic %d out of range [30,150]", *p.BPDiastolic))
	}
	if p.HeartRate != nil && (*p.HeartRate < 30 || *p.HeartRate > 220) {
		reasons = append(reasons, fmt.Sprintf("heart_rate %d out of range [30,220]", *p.HeartRate))
	}
	if p.Temperature != nil && (*p.Temperature < 35.0 || *p.Temperature > 43.0) {
		reasons = append(reasons, fmt.Sprintf("temperature %.1f out of range [35.0,43.0]", *p.Temperature))
	}
	if p.SpO2 != nil && (*p.SpO2 < 70.0 || *p.SpO2 > 100.0) {
		reasons = append(reasons, fmt.Sprintf("spo2 %.1f out of range [70.0,100.0]", *p.SpO2))
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// normalize trims and lowercases every entry and drops the ones that end
// up empty.
func normalize(in []string) []string {
	out := in[:0]
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
