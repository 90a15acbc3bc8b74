// Package triageapi exposes the triage pipeline over HTTP: request
// validation at ingress, the triage endpoint, patient record lookup,
// aggregate stats, and a status endpoint for the degraded-mode check.
package triageapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/triageai/internal/patient"
	"github.com/linnemanlabs/triageai/internal/triage"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// TriageService defines the business operations the API needs.
type TriageService interface {
	Triage(ctx context.Context, p *patient.Input) (*triage.Record, error)
	Get(ctx context.Context, id string) (*triage.Record, bool, error)
	List(ctx context.Context, limit int) ([]*triage.Record, error)
	Stats(ctx context.Context) (*triage.Stats, error)
	ModelReady() bool
	ExplainerConfigured() bool
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    TriageService
}

// New creates a new API handler.
func New(logger log.Logger, svc TriageService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/triage", a.handleTriage)
		r.Get("/patients", a.handleListPatients)
		r.Get("/patients/{id}", a.handleGetPatient)
		r.Get("/stats", a.handleStats)
		r.Get("/status", a.handleStatus)
	})
}

func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	var p patient.Input
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// Ingress validation; the pipeline itself never re-checks ranges.
	if err := p.Validate(); err != nil {
		var verr *patient.ValidationError
		if errors.As(err, &verr) {
			a.writeValidationError(w, r, verr)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := a.svc.Triage(r.Context(), &p)
	if err != nil {
		if errors.Is(err, triage.ErrModelUnavailable) {
			a.logger.Warn(r.Context(), "triage rejected, model path unavailable")
			writeError(w, http.StatusServiceUnavailable, "risk model unavailable, service degraded to rule-path only")
			return
		}
		a.logger.Error(r.Context(), err, "triage failed")
		writeError(w, http.StatusInternalServerError, "triage failed")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("triageai.patient_id", rec.PatientID),
		attribute.String("triageai.risk_level", string(rec.RiskLevel)),
		attribute.String("triageai.department", rec.Department),
	)

	writeJSON(w, http.StatusCreated, rec.Result)
}

func (a *API) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("triageai.patient_id", id))

	rec, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get triage record", "id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleListPatients(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	recs, err := a.svc.List(r.Context(), limit)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list triage records")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if recs == nil {
		recs = []*triage.Record{}
	}

	writeJSON(w, http.StatusOK, recs)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.Stats(r.Context())
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to compute stats")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleStatus reports runtime availability of the optional
// collaborators, for the external health-check integration.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"model_loaded":        a.svc.ModelReady(),
		"explanation_enabled": a.svc.ExplainerConfigured(),
	})
}

func (a *API) writeValidationError(w http.ResponseWriter, r *http.Request, verr *patient.ValidationError) {
	a.logger.Info(r.Context(), "rejected invalid patient input", "reasons", verr.Reasons)
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":   "validation failed",
		"reasons": verr.Reasons,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
