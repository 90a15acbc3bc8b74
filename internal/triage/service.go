package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/triageai/internal/patient"
)

// ErrModelUnavailable is returned on the model path when the classifier
// is not loaded. Fatal to the single request, not to the process: rule
// path requests keep working.
var ErrModelUnavailable = errors.New("classifier not loaded")

// Classifier is the interface to the statistical risk model. Ready
// reports whether the frozen model artifacts finished loading; Predict
// must only be called on an encoder-produced feature vector.
type Classifier interface {
	Ready() bool
	Predict(features []float64) (*Prediction, error)
}

// Notifier delivers out-of-band notifications for finished triage
// records. Failures are logged, never surfaced to the triage caller.
type Notifier interface {
	Notify(ctx context.Context, rec *Record) error
}

// Decision paths, used for logging and metric labels.
const (
	PathRule  = "rule"
	PathModel = "model"
)

// Service orchestrates the triage pipeline: rule engine, then
// conditionally encoder + classifier + department assignment, then
// explanation and persistence. It holds no per-request mutable state;
// the loaded model artifacts behind Classifier are read-only, so
// concurrent Triage calls are safe.
type Service struct {
	store      Store
	encoder    *Encoder
	classifier Classifier
	explainer  Explainer
	notifier   Notifier
	logger     log.Logger
	metrics    *Metrics
}

// NewService creates the triage service. encoder and classifier may be
// nil together, which degrades the service to rule-path-only. explainer
// and notifier are optional.
func NewService(store Store, encoder *Encoder, classifier Classifier, explainer Explainer, notifier Notifier, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:      store,
		encoder:    encoder,
		classifier: classifier,
		explainer:  explainer,
		notifier:   notifier,
		logger:     logger,
		metrics:    metrics,
	}
}

// ModelReady reports whether the model path is available. Queryable by
// health checks; false means the service is running rule-path-only.
func (s *Service) ModelReady() bool {
	return s.encoder != nil && s.classifier != nil && s.classifier.Ready()
}

// ExplainerConfigured reports whether a narrative explanation backend is
// wired in. False means every explanation comes from the fallback
// template.
func (s *Service) ExplainerConfigured() bool {
	return s.explainer != nil
}

// Triage runs the full pipeline for one validated patient and returns
// the persisted record. The patient must have passed
// patient.Input.Validate; ranges are not re-checked here.
//
// Rule path: a fired rule supplies risk, department, and rule name
// verbatim, confidence is 1.0 and attribution is empty (rules are
// definitional, not probabilistic). Model path: encode, classify,
// assign department. Both paths then generate the explanation (with
// fallback on failure) before persisting, since the explanation text is
// part of the stored record. A persistence failure means no result is
// returned at all.
func (s *Service) Triage(ctx context.Context, p *patient.Input) (*Record, error) {
	start := time.Now()

	var (
		risk     RiskLevel
		conf     float64
		dept     string
		ruleName string
		factors  []TopFactor
		path     = PathRule
	)

	rr := EvaluateRules(p)
	if rr.Triggered {
		risk = rr.RiskLevel
		conf = 1.0
		dept = rr.Department
		ruleName = rr.RuleName
	} else {
		path = PathModel
		if !s.ModelReady() {
			s.metrics.incModelUnavailable()
			return nil, ErrModelUnavailable
		}

		pred, err := s.classifier.Predict(s.encoder.Encode(p))
		if err != nil {
			return nil, fmt.Errorf("classifier predict: %w", err)
		}
		risk = pred.RiskLevel
		conf = pred.Confidence
		factors = pred.TopFactors
		dept = AssignDepartment(risk, p.Symptoms)
	}

	explanation := s.explain(ctx, &ExplainRequest{
		Patient:    p,
		RiskLevel:  risk,
		Department: dept,
		TopFactors: factors,
		RuleName:   ruleName,
	})

	rec := &Record{
		Result: Result{
			RiskLevel:     risk,
			Confidence:    conf,
			Department:    dept,
			RuleTriggered: ruleName,
			TopFactors:    factors,
			Explanation:   explanation,
			CreatedAt:     time.Now().UTC(),
		},
		Patient: *p,
	}

	id, err := s.store.Save(ctx, rec)
	if err != nil {
		s.metrics.incPersistFailure()
		return nil, fmt.Errorf("persist triage record: %w", err)
	}
	rec.PatientID = id

	s.metrics.observeTriage(path, string(risk), ruleName, conf, time.Since(start).Seconds())

	s.logger.Info(ctx, "triage complete",
		"patient_id", rec.PatientID,
		"path", path,
		"risk_level", risk,
		"department", dept,
		"rule", ruleName,
		"confidence", conf,
		"duration", time.Since(start).Seconds(),
	)

	if s.notifier != nil && risk == RiskHigh {
		// Detached so a slow webhook never holds up the response.
		go s.notify(context.WithoutCancel(ctx), rec)
	}

	return rec, nil
}

// Get retrieves a persisted triage record by its durable identifier.
func (s *Service) Get(ctx context.Context, id string) (*Record, bool, error) {
	return s.store.Get(ctx, id)
}

// List returns the most recent triage records, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]*Record, error) {
	return s.store.List(ctx, limit)
}

// Stats returns aggregate counts over stored triage records.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx)
}

// explain asks the configured backend for a narrative explanation and
// degrades to the deterministic template when there is none, when it
// errors, or when it returns blank text.
func (s *Service) explain(ctx context.Context, req *ExplainRequest) string {
	if s.explainer == nil {
		return FallbackExplanation(req)
	}

	text, err := s.explainer.Explain(ctx, req)
	if err != nil {
		s.logger.Warn(ctx, "explanation backend failed, using fallback", "error", err)
		s.metrics.incExplanationFallback()
		return FallbackExplanation(req)
	}
	if strings.TrimSpace(text) == "" {
		s.metrics.incExplanationFallback()
		return FallbackExplanation(req)
	}
	return text
}

func (s *Service) notify(ctx context.Context, rec *Record) {
	if err := s.notifier.Notify(ctx, rec); err != nil {
		s.logger.Warn(ctx, "triage notification failed", "patient_id", rec.PatientID, "error", err)
		s.metrics.incNotifyFailure()
	}
}
