// Package history drives bulk import and export of visit records:
// one-shot ingestion from a visit source in fixed-size batches with
// progress accounting, and a portable tab-separated text codec.
package history

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/linkmark/linkmark/pkg/model"
	"github.com/linkmark/linkmark/pkg/store"
)

// importBatchSize bounds in-flight writes: a batch's puts run
// concurrently, but the importer awaits the whole batch before advancing.
const importBatchSize = 100

// DefaultWindow is the sliding time window of visit events pulled from a
// source when no explicit window is configured.
const DefaultWindow = 90 * 24 * time.Hour

// ErrImportRunning is returned when a bulk import is requested while one
// is already running. The active run is not queued behind or replaced.
var ErrImportRunning = errors.New("import already in progress")

// Importer runs bulk imports against a store and owns the progress
// singleton read by status pollers.
type Importer struct {
	store store.Store

	mu       sync.Mutex
	progress model.ImportProgress
}

// NewImporter creates an importer bound to st.
func NewImporter(st store.Store) *Importer {
	return &Importer{store: st}
}

// Progress returns a snapshot of the current import state.
func (im *Importer) Progress() model.ImportProgress {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.progress
}

// BulkImport ingests items in batches of importBatchSize. Puts within a
// batch run concurrently; the Imported counter advances by the full batch
// width after the batch settles, counting attempted items — a failed item
// is logged and skipped, not retried. On completion the durable
// last-import marker is written. Returns ErrImportRunning if a run is
// already active, leaving its progress untouched.
func (im *Importer) BulkImport(ctx context.Context, items []model.VisitRecord) error {
	im.mu.Lock()
	if im.progress.InProgress {
		im.mu.Unlock()
		return ErrImportRunning
	}
	im.progress = model.ImportProgress{InProgress: true, Total: len(items)}
	im.mu.Unlock()

	defer func() {
		im.mu.Lock()
		im.progress.InProgress = false
		im.mu.Unlock()
	}()

	for start := 0; start < len(items); start += importBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+importBatchSize, len(items))
		batch := items[start:end]

		var wg sync.WaitGroup
		for _, item := range batch {
			wg.Add(1)
			go func(rec model.VisitRecord) {
				defer wg.Done()
				if err := im.store.Put(ctx, rec.URL, rec.Timestamp); err != nil {
					log.Printf("import: skipping %s: %v", rec.URL, err)
				}
			}(item)
		}
		wg.Wait()

		im.mu.Lock()
		im.progress.Imported += len(batch)
		im.mu.Unlock()
	}

	if err := im.store.SetLastImportTime(ctx, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("record import completion: %w", err)
	}
	return nil
}

// ImportFromSource pulls visit events within the sliding window from src
// and bulk-imports them. A window <= 0 uses DefaultWindow.
func (im *Importer) ImportFromSource(ctx context.Context, src Source, window time.Duration) (int, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	since := time.Now().Add(-window)

	items, err := src.Visits(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("read visit source: %w", err)
	}
	if err := im.BulkImport(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}
