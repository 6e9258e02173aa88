// Package app wires the store-side components behind the message router:
// visited-status lookups, bulk import/export, and the registry of
// document sessions that receive visit and style notifications.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/linkmark/linkmark/pkg/history"
	"github.com/linkmark/linkmark/pkg/model"
	"github.com/linkmark/linkmark/pkg/store"
	"github.com/linkmark/linkmark/pkg/urlnorm"
)

// ErrNoSource means importHistory was requested with no visit source
// configured.
var ErrNoSource = errors.New("no history source configured")

// Notifiee is a document session's inbound notification surface.
type Notifiee interface {
	MarkVisited(url string)
	UpdateCSS(css string)
}

// Service implements the message actions over the store and importer.
type Service struct {
	store    store.Store
	importer *history.Importer
	source   history.Source
	window   time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]Notifiee
}

// NewService creates the store-side service. source may be nil when no
// external visit source is configured; importHistory then has nothing to
// pull from.
func NewService(st store.Store, source history.Source, window time.Duration) *Service {
	return &Service{
		store:    st,
		importer: history.NewImporter(st),
		source:   source,
		window:   window,
		sessions: make(map[uuid.UUID]Notifiee),
	}
}

// Importer exposes the bulk importer, mainly for the CLI.
func (s *Service) Importer() *history.Importer {
	return s.importer
}

// Subscribe registers a session for visit and style notifications.
func (s *Service) Subscribe(id uuid.UUID, n Notifiee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = n
}

// Unsubscribe removes a session from the registry.
func (s *Service) Unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// CheckURL answers the visited status of one URL.
func (s *Service) CheckURL(ctx context.Context, url string) (bool, error) {
	return s.store.Has(ctx, url)
}

// CheckURLs answers visited status for a set of URLs: one entry per
// distinct normalized URL, resolved with a single batched query.
func (s *Service) CheckURLs(ctx context.Context, urls []string) ([]model.LinkStatus, error) {
	keys := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		key, err := urlnorm.Normalize(u)
		if err != nil {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	found, err := s.store.HasMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	results := make([]model.LinkStatus, 0, len(keys))
	for _, key := range keys {
		results = append(results, model.LinkStatus{URL: key, Visited: found[key]})
	}
	return results, nil
}

// Stats returns the record count and last import completion time.
func (s *Service) Stats(ctx context.Context) (model.Stats, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	last, err := s.store.LastImportTime(ctx)
	if err != nil {
		return model.Stats{}, err
	}
	return model.Stats{Count: count, LastImportTime: last}, nil
}

// ImportHistory starts a bulk import from the configured visit source.
// Returns history.ErrImportRunning immediately if a run is active; the
// import itself proceeds in the background and is tracked via Progress.
func (s *Service) ImportHistory(ctx context.Context) error {
	if s.source == nil {
		return ErrNoSource
	}
	if s.importer.Progress().InProgress {
		return history.ErrImportRunning
	}

	items, err := s.source.Visits(ctx, time.Now().Add(-s.window))
	if err != nil {
		return err
	}

	// Detached from the request context: the poller observes completion
	// through getImportProgress, not through this response.
	go func() {
		if err := s.importer.BulkImport(context.Background(), items); err != nil {
			log.Printf("bulk import failed: %v", err)
		}
	}()
	return nil
}

// Progress returns the bulk import progress snapshot.
func (s *Service) Progress() model.ImportProgress {
	return s.importer.Progress()
}

// ClearHistory removes every record.
func (s *Service) ClearHistory(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// ExportHistory serializes the store to portable text.
func (s *Service) ExportHistory(ctx context.Context) (string, error) {
	return history.Export(ctx, s.store)
}

// ImportTSV ingests exported text, returning imported and error counts.
func (s *Service) ImportTSV(ctx context.Context, text string) (imported, errCount int, err error) {
	return history.ImportText(ctx, s.store, text)
}

// RecordVisit upserts a live visit and notifies every session so
// already-rendered links are marked without a fresh query.
func (s *Service) RecordVisit(ctx context.Context, url string) error {
	if err := s.store.Put(ctx, url, time.Now().UnixMilli()); err != nil {
		return err
	}
	s.MarkURLAsVisited(url)
	return nil
}

// MarkURLAsVisited pushes a mark-visited notification to all sessions.
func (s *Service) MarkURLAsVisited(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.MarkVisited(url)
	}
}

// UpdateCSS pushes a marker stylesheet update to all sessions.
func (s *Service) UpdateCSS(css string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.UpdateCSS(css)
	}
}
