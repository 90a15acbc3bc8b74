// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/triageai/internal/patient"
	"github.com/linnemanlabs/triageai/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/triageai/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store backed by the pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const recordColumns = `id, age, gender, symptoms, pre_existing, bp_systolic, bp_diastolic,
	heart_rate, temperature, spo2, risk_level, confidence, department, rule_triggered,
	top_factors, explanation, created_at`

// Save inserts the record under a freshly minted ULID and returns it.
// The id is only handed back after the insert commits, so a returned id
// is always durable.
func (s *Store) Save(ctx context.Context, rec *triage.Record) (string, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Save", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	id := ulid.Make().String()

	symptoms, err := json.Marshal(rec.Patient.Symptoms)
	if err != nil {
		return "", fmt.Errorf("marshal symptoms: %w", err)
	}
	preExisting, err := json.Marshal(rec.Patient.PreExisting)
	if err != nil {
		return "", fmt.Errorf("marshal pre_existing: %w", err)
	}

	var factors []byte
	if len(rec.TopFactors) > 0 {
		factors, err = json.Marshal(rec.TopFactors)
		if err != nil {
			return "", fmt.Errorf("marshal top_factors: %w", err)
		}
	}

	var ruleTriggered *string
	if rec.RuleTriggered != "" {
		ruleTriggered = &rec.RuleTriggered
	}

	query := `INSERT INTO triage_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err = s.pool.Exec(ctx, query,
		id,
		rec.Patient.Age,
		string(rec.Patient.Gender),
		symptoms,
		preExisting,
		rec.Patient.BPSystolic,
		rec.Patient.BPDiastolic,
		rec.Patient.HeartRate,
		rec.Patient.Temperature,
		rec.Patient.SpO2,
		string(rec.RiskLevel),
		rec.Confidence,
		rec.Department,
		ruleTriggered,
		factors,
		rec.Explanation,
		rec.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("insert triage record: %w", err)
	}

	return id, nil
}

// Get retrieves a triage record by id.
func (s *Store) Get(ctx context.Context, id string) (*triage.Record, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM triage_records WHERE id = $1`
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	return rec, true, nil
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*triage.Record, error) {
	ctx, span := tracer.Start(ctx, "pgstore.List", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + recordColumns + ` FROM triage_records ORDER BY created_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list triage records: %w", err)
	}
	defer rows.Close()

	var out []*triage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list triage records: %w", err)
	}

	return out, nil
}

// Stats aggregates counts and average confidence in the database.
func (s *Store) Stats(ctx context.Context) (*triage.Stats, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Stats", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	st := &triage.Stats{
		ByRiskLevel:  make(map[string]int),
		ByDepartment: make(map[string]int),
	}

	rows, err := s.pool.Query(ctx,
		`SELECT risk_level, department, COUNT(*) FROM triage_records GROUP BY risk_level, department`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("triage stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var risk, dept string
		var n int
		if err := rows.Scan(&risk, &dept, &n); err != nil {
			return nil, fmt.Errorf("triage stats: %w", err)
		}
		st.ByRiskLevel[risk] += n
		st.ByDepartment[dept] += n
		st.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("triage stats: %w", err)
	}

	if st.Total > 0 {
		if err := s.pool.QueryRow(ctx,
			`SELECT AVG(confidence) FROM triage_records`).Scan(&st.AvgConfidence); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("triage stats: %w", err)
		}
	}

	return st, nil
}

func scanRecord(row pgx.Row) (*triage.Record, error) {
	var (
		rec           triage.Record
		gender        string
		risk          string
		symptoms      []byte
		preExisting   []byte
		factors       []byte
		ruleTriggered *string
	)

	err := row.Scan(
		&rec.PatientID,
		&rec.Patient.Age,
		&gender,
		&symptoms,
		&preExisting,
		&rec.Patient.BPSystolic,
		&rec.Patient.BPDiastolic,
		&rec.Patient.HeartRate,
		&rec.Patient.Temperature,
		&rec.Patient.SpO2,
		&risk,
		&rec.Confidence,
		&rec.Department,
		&ruleTriggered,
		&factors,
		&rec.Explanation,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Patient.Gender = patient.Gender(gender)
	rec.RiskLevel = triage.RiskLevel(risk)
	if ruleTriggered != nil {
		rec.RuleTriggered = *ruleTriggered
	}

	if err := json.Unmarshal(symptoms, &rec.Patient.Symptoms); err != nil {
		return nil, fmt.Errorf("unmarshal symptoms: %w", err)
	}
	if err := json.Unmarshal(preExisting, &rec.Patient.PreExisting); err != nil {
		return nil, fmt.Errorf("unmarshal pre_existing: %w", err)
	}
	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &rec.TopFactors); err != nil {
			return nil, fmt.Errorf("unmarshal top_factors: %w", err)
		}
	}

	return &rec, nil
}
