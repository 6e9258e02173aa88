package annotate

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkmark/linkmark/pkg/urlnorm"
	"github.com/linkmark/linkmark/pkg/visited"
)

// annotateBatchSize is the number of distinct URLs resolved per batched
// visited-status query.
const annotateBatchSize = 50

// DefaultMarkerClass is the class applied to visited link elements.
const DefaultMarkerClass = "linkmark-visited"

// Annotator applies the visited marker to link elements. The context is
// checked before each phase and at every batch boundary: a cancelled
// context means the host session is gone, so the pipeline aborts in place
// and drops the pending work instead of raising.
//
// The node tree is not safe for concurrent access, so every read or
// mutation of the document goes through mu. External notifications can
// then land while an annotate pass is running.
type Annotator struct {
	checker     *visited.Checker
	markerClass string
	exclude     func(string) bool

	mu   sync.Mutex  // serializes document access; guards last
	last *ScanResult // element index from the most recent scan
}

// NewAnnotator creates an annotator resolving statuses through checker.
// An empty markerClass falls back to DefaultMarkerClass; exclude may be
// nil.
func NewAnnotator(checker *visited.Checker, markerClass string, exclude func(string) bool) *Annotator {
	if markerClass == "" {
		markerClass = DefaultMarkerClass
	}
	return &Annotator{checker: checker, markerClass: markerClass, exclude: exclude}
}

// Annotate scans doc and marks every element whose URL is visited,
// resolving the distinct URL list in batches. Marking is idempotent.
func (a *Annotator) Annotate(ctx context.Context, doc *goquery.Document, base *url.URL) {
	if ctx.Err() != nil {
		return
	}

	a.mu.Lock()
	scan := Scan(doc, base, a.exclude)
	a.last = scan
	a.mu.Unlock()

	for start := 0; start < len(scan.URLs); start += annotateBatchSize {
		if ctx.Err() != nil {
			return
		}

		end := min(start+annotateBatchSize, len(scan.URLs))
		statuses := a.checker.CheckMany(ctx, scan.URLs[start:end])

		a.mu.Lock()
		for _, status := range statuses {
			if status.Visited {
				a.markLocked(scan.Elements[status.URL])
			}
		}
		a.mu.Unlock()
	}
}

// MarkURL marks the already-scanned elements for one URL without a fresh
// scan, for externally delivered visit notifications.
func (a *Annotator) MarkURL(rawURL string) {
	key, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return
	}
	a.markLocked(a.last.Elements[key])
}

// ReplaceStyle swaps the style element with the given id in doc's head,
// serialized with annotation passes over the same document.
func (a *Annotator) ReplaceStyle(doc *goquery.Document, id, css string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc.Find("style#" + id).Remove()

	head := doc.Find("head").First()
	if head.Length() == 0 {
		return
	}
	head.AppendHtml(fmt.Sprintf("<style id=%q>%s</style>", id, css))
}

// markLocked marks elements; callers hold mu.
func (a *Annotator) markLocked(sels []*goquery.Selection) {
	for _, sel := range sels {
		if !sel.HasClass(a.markerClass) {
			sel.AddClass(a.markerClass)
		}
	}
}
