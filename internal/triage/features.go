package triage

import (
	"github.com/linnemanlabs/triageai/internal/patient"
)

// Population-normal midpoints substituted for absent vitals, so a
// missing measurement does not pull the classifier toward either risk
// extreme.
const (
	defaultSystolic    = 120
	defaultDiastolic   = 80
	defaultHeartRate   = 75
	defaultTemperature = 37.0
	defaultSpO2        = 98.0
)

// Encoder deterministically maps a validated patient record onto the
// fixed feature schema derived from the model's symptom and condition
// vocabularies. The schema order is computed once at construction and
// is the single source of truth shared with the classifier: the
// classifier bundle is validated against Schema() at load time.
type Encoder struct {
	symptoms   []string
	conditions []string
	schema     []string
}

// NewEncoder builds an encoder for the given vocabularies. The
// vocabulary order fixes the one-hot column order, so the slices must
// come from the model artifact, not be re-declared elsewhere.
func NewEncoder(symptoms, conditions []string) *Encoder {
	e := &Encoder{
		symptoms:   append([]string(nil), symptoms...),
		conditions: append([]string(nil), conditions...),
	}

	schema := []string{"age", "gender_M", "gender_F", "gender_Other",
		"bp_systolic", "bp_diastolic", "heart_rate", "temperature", "spo2"}
	for _, s := range e.symptoms {
		schema = append(schema, "symptom_"+s)
	}
	for _, c := range e.conditions {
		schema = append(schema, "condition_"+c)
	}
	schema = append(schema, "symptom_count", "condition_count")
	e.schema = schema

	return e
}

// Schema returns the exact feature column order Encode emits. Callers
// must not mutate the returned slice.
func (e *Encoder) Schema() []string { return e.schema }

// Encode transforms a validated patient into a feature vector in Schema
// order. Pure and total for validated input: same patient, bit-identical
// vector. A symptom outside the vocabulary raises symptom_count but sets
// no one-hot flag; that signal loss is intentional degradation, not an
// error.
func (e *Encoder) Encode(p *patient.Input) []float64 {
	v := make([]float64, 0, len(e.schema))

	v = append(v, float64(p.Age))
	v = append(v, oneHot(p.Gender == patient.GenderMale))
	v = append(v, oneHot(p.Gender == patient.GenderFemale))
	v = append(v, oneHot(p.Gender == patient.GenderOther))

	v = append(v, vitalInt(p.BPSystolic, defaultSystolic))
	v = append(v, vitalInt(p.BPDiastolic, defaultDiastolic))
	v = append(v, vitalInt(p.HeartRate, defaultHeartRate))
	v = append(v, vitalFloat(p.Temperature, defaultTemperature))
	v = append(v, vitalFloat(p.SpO2, defaultSpO2))

	present := make(map[string]bool, len(p.Symptoms))
	for _, s := range p.Symptoms {
		present[underscored(s)] = true
	}
	for _, s := range e.symptoms {
		v = append(v, oneHot(present[s]))
	}

	conds := make(map[string]bool, len(p.PreExisting))
	for _, c := range p.PreExisting {
		conds[underscored(c)] = true
	}
	for _, c := range e.conditions {
		v = append(v, oneHot(conds[c]))
	}

	v = append(v, float64(len(p.Symptoms)), float64(len(p.PreExisting)))

	return v
}

func oneHot(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func vitalInt(p *int, def float64) float64 {
	if p != nil {
		return float64(*p)
	}
	return def
}

func vitalFloat(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}
