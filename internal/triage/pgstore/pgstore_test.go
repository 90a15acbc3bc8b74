package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/linnemanlabs/triageai/internal/patient"
	"github.com/linnemanlabs/triageai/internal/postgres"
	"github.com/linnemanlabs/triageai/internal/triage"
	"github.com/linnemanlabs/triageai/internal/triage/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("TRIAGEAI_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TRIAGEAI_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestSaveAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	rec := &triage.Record{
		Result: triage.Result{
			RiskLevel:     triage.RiskHigh,
			Confidence:    1.0,
			Department:    "Cardiology / Emergency",
			RuleTriggered: "BP_CRITICAL",
			TopFactors: []triage.TopFactor{
				{Feature: "Bp Systolic", Contribution: 1.4, Direction: triage.DirectionIncreases},
			},
			Explanation: "critical hypertension",
			CreatedAt:   now,
		},
		Patient: patient.Input{
			Age:         67,
			Gender:      patient.GenderMale,
			Symptoms:    []string{"chest pain", "shortness of breath"},
			PreExisting: []string{"diabetes"},
			BPSystolic:  intp(188),
			BPDiastolic: intp(112),
			HeartRate:   intp(98),
			Temperature: floatp(37.8),
			SpO2:        floatp(94.0),
		},
	}

	id, err := s.Save(ctx, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("Save returned empty id")
	}

	got, ok, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}

	assertEqual(t, "PatientID", id, got.PatientID)
	assertEqual(t, "RiskLevel", string(rec.RiskLevel), string(got.RiskLevel))
	assertEqual(t, "Confidence", rec.Confidence, got.Confidence)
	assertEqual(t, "Department", rec.Department, got.Department)
	assertEqual(t, "RuleTriggered", rec.RuleTriggered, got.RuleTriggered)
	assertEqual(t, "Explanation", rec.Explanation, got.Explanation)
	assertEqual(t, "Age", rec.Patient.Age, got.Patient.Age)
	assertEqual(t, "Gender", string(rec.Patient.Gender), string(got.Patient.Gender))
	assertEqual(t, "BPSystolic", *rec.Patient.BPSystolic, *got.Patient.BPSystolic)
	assertEqual(t, "SpO2", *rec.Patient.SpO2, *got.Patient.SpO2)
	assertEqual(t, "CreatedAt", rec.CreatedAt, got.CreatedAt.UTC())

	if len(got.Patient.Symptoms) != 2 || got.Patient.Symptoms[0] != "chest pain" {
		t.Errorf("Symptoms mismatch: got %v", got.Patient.Symptoms)
	}
	if len(got.TopFactors) != 1 || got.TopFactors[0].Feature != "Bp Systolic" {
		t.Errorf("TopFactors mismatch: got %v", got.TopFactors)
	}
}

func TestSave_ModelPathNullRule(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	rec := &triage.Record{
		Result: triage.Result{
			RiskLevel:   triage.RiskLow,
			Confidence:  0.61,
			Department:  "Outpatient / General Practice",
			Explanation: "mild symptoms",
			CreatedAt:   time.Now().UTC(),
		},
		Patient: patient.Input{Age: 25, Gender: patient.GenderFemale, Symptoms: []string{"cough"}},
	}

	id, err := s.Save(ctx, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.Get(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.RuleTriggered != "" {
		t.Errorf("RuleTriggered = %q, want empty for model decisions", got.RuleTriggered)
	}
	if got.Patient.BPSystolic != nil {
		t.Errorf("BPSystolic = %v, want nil for unmeasured vitals", *got.Patient.BPSystolic)
	}
	if len(got.TopFactors) != 0 {
		t.Errorf("TopFactors = %v, want empty", got.TopFactors)
	}
}

func TestGet_Missing(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.Get(context.Background(), "01NOSUCHRECORD00000000000000")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get returned ok=true for missing id")
	}
}

func TestListAndStats(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, risk := range []triage.RiskLevel{triage.RiskLow, triage.RiskHigh} {
		rec := &triage.Record{
			Result: triage.Result{
				RiskLevel:   risk,
				Confidence:  0.5,
				Department:  "Emergency",
				Explanation: "x",
				CreatedAt:   base.Add(time.Duration(i) * time.Second),
			},
			Patient: patient.Input{Age: 40, Gender: patient.GenderOther, Symptoms: []string{"pain"}},
		}
		if _, err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	recs, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) < 2 {
		t.Fatalf("List returned %d records, want at least 2", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].CreatedAt.After(recs[i-1].CreatedAt) {
			t.Errorf("List not newest first at index %d", i)
		}
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total < 2 {
		t.Errorf("Total = %d, want at least 2", st.Total)
	}
	if st.ByDepartment["Emergency"] < 2 {
		t.Errorf("ByDepartment = %v", st.ByDepartment)
	}
}

func assertEqual[T comparable](t *testing.T, field string, want, got T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", field, got, want)
	}
}
