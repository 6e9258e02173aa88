package annotate

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/linkmark/linkmark/pkg/store"
	"github.com/linkmark/linkmark/pkg/visited"
)

// styleElementID identifies the injected marker stylesheet so UpdateCSS
// can replace it instead of stacking duplicates.
const styleElementID = "linkmark-style"

// SessionConfig configures one document session.
type SessionConfig struct {
	// BaseURL resolves relative hrefs. Required for documents using them.
	BaseURL string

	// MarkerClass overrides DefaultMarkerClass.
	MarkerClass string

	// Exclude drops matching URLs from annotation.
	Exclude func(string) bool

	// Debounce overrides DebounceWindow.
	Debounce time.Duration
}

// Session ties one live document to its query cache, annotator, and
// mutation monitor. All session state (cache maps, scan index) lives
// here; constructing a fresh Session gives test isolation.
type Session struct {
	ID uuid.UUID

	doc       *goquery.Document
	base      *url.URL
	checker   *visited.Checker
	annotator *Annotator
	monitor   *Monitor
}

// NewSession creates a session over doc backed by st.
func NewSession(st store.Store, doc *goquery.Document, cfg SessionConfig) (*Session, error) {
	var base *url.URL
	if cfg.BaseURL != "" {
		var err error
		base, err = url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
	}

	checker := visited.NewChecker(st)
	return &Session{
		ID:        uuid.New(),
		doc:       doc,
		base:      base,
		checker:   checker,
		annotator: NewAnnotator(checker, cfg.MarkerClass, cfg.Exclude),
		monitor:   NewMonitor(cfg.Debounce),
	}, nil
}

// AnnotateOnce runs a single scan+annotate pass, for one-shot use.
func (s *Session) AnnotateOnce(ctx context.Context) {
	s.annotator.Annotate(ctx, s.doc, s.base)
}

// Run annotates the document, then re-annotates on each debounced
// mutation event until ctx is cancelled.
func (s *Session) Run(ctx context.Context) {
	go s.monitor.Run(ctx)

	s.annotator.Annotate(ctx, s.doc, s.base)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.monitor.Events():
			s.annotator.Annotate(ctx, s.doc, s.base)
		}
	}
}

// Notify signals a document mutation. Bursts within the debounce window
// coalesce into one rescan.
func (s *Session) Notify() {
	s.monitor.Notify()
}

// MarkVisited handles an external visit notification: the cache entry is
// flipped to true and already-rendered elements for that URL are marked
// without a fresh scan. Safe to call while an annotate pass is running.
func (s *Session) MarkVisited(rawURL string) {
	s.checker.MarkVisited(rawURL)
	s.annotator.MarkURL(rawURL)
}

// UpdateCSS replaces the injected marker stylesheet in the document head.
// Safe to call while an annotate pass is running.
func (s *Session) UpdateCSS(css string) {
	s.annotator.ReplaceStyle(s.doc, styleElementID, css)
}
