package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/linkmark/linkmark/pkg/model"
)

// Source supplies externally recorded visit events for bulk import.
type Source interface {
	// Visits returns events with a timestamp at or after since.
	Visits(ctx context.Context, since time.Time) ([]model.VisitRecord, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, since time.Time) ([]model.VisitRecord, error)

// Visits calls f.
func (f SourceFunc) Visits(ctx context.Context, since time.Time) ([]model.VisitRecord, error) {
	return f(ctx, since)
}

// FileSource reads visit events from a JSON file holding an array of
// {url, timestamp} objects, e.g. a browser history dump.
type FileSource struct {
	Path string
}

// Visits loads the file and filters events older than since.
func (f FileSource) Visits(_ context.Context, since time.Time) ([]model.VisitRecord, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}

	var all []model.VisitRecord
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}

	cutoff := since.UnixMilli()
	items := make([]model.VisitRecord, 0, len(all))
	for _, rec := range all {
		if rec.Timestamp >= cutoff {
			items = append(items, rec)
		}
	}
	return items, nil
}
