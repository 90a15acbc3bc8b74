package triage

import "context"

// Store is the persistence interface for triage records. Save assigns
// and returns the durable identifier; the Service only reports success
// to its caller once it holds that identifier.
type Store interface {
	Save(ctx context.Context, rec *Record) (id string, err error)
	Get(ctx context.Context, id string) (*Record, bool, error)
	List(ctx context.Context, limit int) ([]*Record, error)
	Stats(ctx context.Context) (*Stats, error)
}
