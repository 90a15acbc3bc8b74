package triage

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/linnemanlabs/triageai/internal/patient"
)

var (
	testSymptomVocab   = []string{"chest_pain", "shortness_of_breath", "headache", "fever", "cough"}
	testConditionVocab = []string{"diabetes", "hypertension", "asthma"}
)

func TestEncoder_SchemaOrder(t *testing.T) {
	t.Parallel()

	e := NewEncoder(testSymptomVocab, testConditionVocab)

	want := []string{
		"age", "gender_M", "gender_F", "gender_Other",
		"bp_systolic", "bp_diastolic", "heart_rate", "temperature", "spo2",
		"symptom_chest_pain", "symptom_shortness_of_breath", "symptom_headache",
		"symptom_fever", "symptom_cough",
		"condition_diabetes", "condition_hypertension", "condition_asthma",
		"symptom_count", "condition_count",
	}
	if diff := cmp.Diff(want, e.Schema()); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestEncoder_VectorMatchesSchema(t *testing.T) {
	t.Parallel()

	e := NewEncoder(testSymptomVocab, testConditionVocab)
	p := basePatient()

	v := e.Encode(p)
	if len(v) != len(e.Schema()) {
		t.Fatalf("vector length %d, schema length %d", len(v), len(e.Schema()))
	}
}

func TestEncoder_Deterministic(t *testing.T) {
	t.Parallel()

	e := NewEncoder(testSymptomVocab, testConditionVocab)
	p := basePatient()
	p.Symptoms = []string{"chest pain", "fever"}
	p.PreExisting = []string{"diabetes"}

	a := e.Encode(p)
	b := e.Encode(p)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("encode is not deterministic (-first +second):\n%s", diff)
	}
}

func TestEncoder_KnownVector(t *testing.T) {
	t.Parallel()

	e := NewEncoder(testSymptomVocab, testConditionVocab)
	p := &patient.Input{
		Age:         67,
		Gender:      patient.GenderMale,
		Symptoms:    []string{"chest pain", "shortness of breath"},
		PreExisting: []string{"diabetes", "hypertension"},
		BPSystolic:  intp(188),
		BPDiastolic: intp(112),
		HeartRate:   intp(98),
		Temperature: floatp(37.8),
		SpO2:        floatp(94.0),
	}

	want := []float64{
		67, 1, 0, 0,
		188, 112, 98, 37.8, 94.0,
		1, 1, 0, 0, 0,
		1, 1, 0,
		2, 2,
	}
	if diff := cmp.Diff(want, e.Encode(p)); diff != "" {
		t.Errorf("vector mismatch (-want +got):\n%s", diff)
	}
}

func TestEncoder_AbsentVitalsUseDefaults(t *testing.T) {
	t.Parallel()

	e := NewEncoder(testSymptomVocab, testConditionVocab)
	p := &patient.Input{
		Age:      30,
		Gender:   patient.GenderOther,
		Symptoms: []string{"headache"},
	}

	v := e.Encode(p)

	// Vitals occupy columns 4..8 in schema order.
	wantVitals := []float64{120, 80, 75, 37.0, 98.0}
	if diff := cmp.Diff(wantVitals, v[4:9]); diff != "" {
		t.Errorf("default vitals mismatch (-want +got):\n%s", diff)
	}
	if v[3] != 1 {
		t.Error("expected gender_Other flag set")
	}
}

func TestEncoder_OutOfVocabularySymptomIsSignalLoss(t *testing.T) {
	t.Parallel()

	e := NewEncoder(testSymptomVocab, testConditionVocab)
	p := &patient.Input{
		Age:      30,
		Gender:   patient.GenderFemale,
		Symptoms: []string{"itchy elbow"},
	}

	v := e.Encode(p)

	// No one-hot flag set, but symptom_count still counts it.
	for i := 9; i < 9+len(testSymptomVocab); i++ {
		if v[i] != 0 {
			t.Errorf("unexpected symptom flag at column %d (%s)", i, e.Schema()[i])
		}
	}
	if got := v[len(v)-2]; got != 1 {
		t.Errorf("symptom_count = %v, want 1", got)
	}
}
