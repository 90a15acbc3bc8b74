package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/linnemanlabs/triageai/internal/patient"
	"github.com/linnemanlabs/triageai/internal/triage"
)

func sampleRecord() *triage.Record {
	return &triage.Record{
		Result: triage.Result{
			PatientID:     "01TEST0000000000000000000000",
			RiskLevel:     triage.RiskHigh,
			Confidence:    1.0,
			Department:    "Cardiology / Emergency",
			RuleTriggered: "BP_CRITICAL",
			Explanation:   "critical hypertension",
		},
		Patient: patient.Input{Age: 67, Gender: patient.GenderMale, Symptoms: []string{"chest pain"}},
	}
}

func TestNotify(t *testing.T) {
	t.Parallel()

	var payload []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		payload, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL)
	if err := n.Notify(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("webhook payload is not JSON: %v", err)
	}
	if _, ok := msg["blocks"]; !ok {
		t.Error("payload missing blocks")
	}

	body := string(payload)
	for _, want := range []string{
		"HIGH risk triage - Cardiology / Emergency",
		"01TEST0000000000000000000000",
		"clinical rule BP_CRITICAL",
		"chest pain",
		"critical hypertension",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("payload missing %q", want)
		}
	}
}

func TestNotify_ModelDecision(t *testing.T) {
	t.Parallel()

	var payload []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	rec := sampleRecord()
	rec.RuleTriggered = ""

	if err := New(srv.URL).Notify(context.Background(), rec); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !strings.Contains(string(payload), "statistical model") {
		t.Errorf("payload should name the model as decider: %s", payload)
	}
}

func TestNotify_WebhookError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := New(srv.URL).Notify(context.Background(), sampleRecord())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("err = %v, want status in message", err)
	}
}

func TestNotify_EmptyURLIsNoop(t *testing.T) {
	t.Parallel()

	if err := New("").Notify(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Notify without webhook: %v", err)
	}
}
