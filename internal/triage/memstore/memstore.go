// Package memstore provides an in-memory implementation of
// triage.Store. Suitable for dev and tests; records do not survive a
// restart.
package memstore

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/triageai/internal/triage"
)

// Store holds triage records in memory.
type Store struct {
	mu      sync.RWMutex
	records map[string]*triage.Record
	order   []string // insertion order, oldest first
}

// New initializes an empty in-memory Store.
func New() *Store {
	return &Store{records: make(map[string]*triage.Record)}
}

// Save assigns a ULID identifier, stores a copy, and returns the id.
func (s *Store) Save(_ context.Context, rec *triage.Record) (string, error) {
	id := ulid.Make().String()

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	cp.PatientID = id
	s.records[id] = &cp
	s.order = append(s.order, id)

	return id, nil
}

// Get retrieves a record by id. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// List returns up to limit records, newest first.
func (s *Store) List(_ context.Context, limit int) ([]*triage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}

	out := make([]*triage.Record, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.records[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

// Stats aggregates over all stored records.
func (s *Store) Stats(_ context.Context) (*triage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := &triage.Stats{
		ByRiskLevel:  make(map[string]int),
		ByDepartment: make(map[string]int),
	}

	var confSum float64
	for _, r := range s.records {
		st.Total++
		st.ByRiskLevel[string(r.RiskLevel)]++
		st.ByDepartment[r.Department]++
		confSum += r.Confidence
	}
	if st.Total > 0 {
		st.AvgConfidence = confSum / float64(st.Total)
	}

	return st, nil
}
