// Package store defines the storage interface for visit records.
package store

import (
	"context"
	"errors"

	"github.com/linkmark/linkmark/pkg/model"
)

// SchemaVersion is incremented when schema changes require migration.
const SchemaVersion = 1

// ErrNotFound signals that the requested record does not exist.
// It is a valid, non-error-path outcome distinct from medium failure.
var ErrNotFound = errors.New("visit record not found")

// Store is the durable url→record mapping. URLs are expected in
// normalized form (urlnorm.Normalize); implementations re-normalize
// defensively so lookups and writes agree on identity.
//
// Implementations connect lazily: the first operation opens the medium,
// concurrent first callers share a single open attempt, and a failed
// attempt is retried by the next call rather than cached forever.
type Store interface {
	// Put upserts a record. Overwrites the timestamp if the URL exists.
	Put(ctx context.Context, url string, ts int64) error

	// Get returns the record for url, or ErrNotFound.
	Get(ctx context.Context, url string) (*model.VisitRecord, error)

	// Has reports whether url has a record.
	Has(ctx context.Context, url string) (bool, error)

	// HasMany answers visited status for a set of URLs in one query.
	// The result map has an entry for every requested URL.
	HasMany(ctx context.Context, urls []string) (map[string]bool, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Clear removes all records. Meta entries survive.
	Clear(ctx context.Context) error

	// ScanAll returns every record. One-shot: a fresh call re-scans.
	ScanAll(ctx context.Context) ([]model.VisitRecord, error)

	// LastImportTime returns the completion timestamp (epoch ms) of the
	// most recent bulk import, 0 if none has completed.
	LastImportTime(ctx context.Context) (int64, error)

	// SetLastImportTime records the bulk import completion marker.
	SetLastImportTime(ctx context.Context, ts int64) error

	// Close releases the underlying medium. A closed store stays closed.
	Close() error
}
