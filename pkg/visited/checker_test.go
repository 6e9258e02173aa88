package visited

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linkmark/linkmark/pkg/model"
	"github.com/linkmark/linkmark/pkg/store"
)

// countingStore records how many queries reach the store, and can stall
// or fail them on demand.
type countingStore struct {
	mu           sync.Mutex
	visits       map[string]bool
	hasCalls     int
	hasManyCalls int
	gate         chan struct{}
	err          error
}

func newCountingStore(visited ...string) *countingStore {
	s := &countingStore{visits: make(map[string]bool)}
	for _, u := range visited {
		s.visits[u] = true
	}
	return s
}

func (s *countingStore) Has(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	s.hasCalls++
	gate := s.gate
	err := s.err
	v := s.visits[url]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return false, err
	}
	return v, nil
}

func (s *countingStore) HasMany(_ context.Context, urls []string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasManyCalls++
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		out[u] = s.visits[u]
	}
	return out, nil
}

func (s *countingStore) Put(_ context.Context, url string, _ int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[url] = true
	return nil
}

func (s *countingStore) Get(context.Context, string) (*model.VisitRecord, error) {
	return nil, store.ErrNotFound
}
func (s *countingStore) Count(context.Context) (int, error)                  { return len(s.visits), nil }
func (s *countingStore) Clear(context.Context) error                         { return nil }
func (s *countingStore) ScanAll(context.Context) ([]model.VisitRecord, error) { return nil, nil }
func (s *countingStore) LastImportTime(context.Context) (int64, error)       { return 0, nil }
func (s *countingStore) SetLastImportTime(context.Context, int64) error      { return nil }
func (s *countingStore) Close() error                                        { return nil }

func TestCheckOne(t *testing.T) {
	st := newCountingStore("https://seen.test/")
	c := NewChecker(st)
	ctx := context.Background()

	if !c.CheckOne(ctx, "https://seen.test/") {
		t.Error("visited URL reported as not visited")
	}
	if c.CheckOne(ctx, "https://unseen.test/") {
		t.Error("unvisited URL reported as visited")
	}
	if c.CheckOne(ctx, "not a url") {
		t.Error("unparseable URL must be false")
	}
}

func TestCheckOneCaches(t *testing.T) {
	st := newCountingStore("https://seen.test/")
	c := NewChecker(st)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		c.CheckOne(ctx, "https://seen.test/")
	}

	st.mu.Lock()
	calls := st.hasCalls
	st.mu.Unlock()
	if calls != 1 {
		t.Errorf("store queried %d times, want 1 (cache)", calls)
	}
}

func TestCheckOneDeduplicatesConcurrent(t *testing.T) {
	st := newCountingStore("https://seen.test/")
	gate := make(chan struct{})
	st.gate = gate
	c := NewChecker(st)
	ctx := context.Background()

	first := make(chan bool, 1)
	go func() { first <- c.CheckOne(ctx, "https://seen.test/") }()

	// Wait until the first query is in flight.
	deadline := time.After(2 * time.Second)
	for {
		st.mu.Lock()
		calls := st.hasCalls
		st.mu.Unlock()
		if calls == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first query never issued")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	second := make(chan bool, 1)
	go func() { second <- c.CheckOne(ctx, "https://seen.test/") }()

	time.Sleep(10 * time.Millisecond) // let the second caller attach
	close(gate)

	if !<-first || !<-second {
		t.Error("both callers must observe the shared result")
	}

	st.mu.Lock()
	calls := st.hasCalls
	st.mu.Unlock()
	if calls != 1 {
		t.Errorf("store queried %d times, want exactly 1", calls)
	}
}

func TestCheckOneFailureIsFalse(t *testing.T) {
	st := newCountingStore("https://seen.test/")
	st.err = errors.New("medium gone")
	c := NewChecker(st)

	if c.CheckOne(context.Background(), "https://seen.test/") {
		t.Error("query failure must degrade to not-visited")
	}
}

func TestCheckOneCancelledContext(t *testing.T) {
	st := newCountingStore("https://seen.test/")
	c := NewChecker(st)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if c.CheckOne(ctx, "https://seen.test/") {
		t.Error("cancelled context must return false")
	}
	// The abandoned outcome must not poison the cache for a live caller.
	if !c.CheckOne(context.Background(), "https://seen.test/") {
		t.Error("fresh call after cancellation should query the store")
	}
}

func TestCheckMany(t *testing.T) {
	st := newCountingStore("https://a.test/", "https://c.test/")
	c := NewChecker(st)
	ctx := context.Background()

	// Duplicates (exact and by normalization) collapse to one entry each.
	results := c.CheckMany(ctx, []string{
		"https://a.test/",
		"https://b.test/",
		"https://A.test/",
		"https://c.test/",
		"https://b.test/#frag",
	})

	want := []model.LinkStatus{
		{URL: "https://a.test/", Visited: true},
		{URL: "https://b.test/", Visited: false},
		{URL: "https://c.test/", Visited: true},
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d: %v", len(results), len(want), results)
	}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, results[i], want[i])
		}
	}

	if st.hasManyCalls != 1 {
		t.Errorf("store batched queries = %d, want 1", st.hasManyCalls)
	}
}

func TestCheckManyUsesCache(t *testing.T) {
	st := newCountingStore("https://a.test/")
	c := NewChecker(st)
	ctx := context.Background()

	c.CheckMany(ctx, []string{"https://a.test/", "https://b.test/"})
	c.CheckMany(ctx, []string{"https://a.test/", "https://b.test/"})

	if st.hasManyCalls != 1 {
		t.Errorf("second call hit the store (%d batched queries), want cache", st.hasManyCalls)
	}
}

func TestCheckManyFailureDegradesUncachedOnly(t *testing.T) {
	st := newCountingStore("https://cached.test/", "https://fresh.test/")
	c := NewChecker(st)
	ctx := context.Background()

	// Prime the cache with one URL, then break the store.
	if !c.CheckOne(ctx, "https://cached.test/") {
		t.Fatal("priming query failed")
	}
	st.mu.Lock()
	st.err = errors.New("medium gone")
	st.mu.Unlock()

	results := c.CheckMany(ctx, []string{"https://cached.test/", "https://fresh.test/"})
	byURL := make(map[string]bool, len(results))
	for _, r := range results {
		byURL[r.URL] = r.Visited
	}

	if !byURL["https://cached.test/"] {
		t.Error("cached URL must be unaffected by the batched failure")
	}
	if byURL["https://fresh.test/"] {
		t.Error("uncached URL must resolve to false on batched failure")
	}
}

func TestMarkVisited(t *testing.T) {
	st := newCountingStore()
	c := NewChecker(st)
	ctx := context.Background()

	if c.CheckOne(ctx, "https://a.test/") {
		t.Fatal("unexpectedly visited")
	}

	c.MarkVisited("https://a.test/")
	c.MarkVisited("https://a.test/") // idempotent

	if !c.CheckOne(ctx, "https://a.test/") {
		t.Error("MarkVisited must flip the cache entry")
	}

	st.mu.Lock()
	calls := st.hasCalls
	st.mu.Unlock()
	if calls != 1 {
		t.Errorf("store queried %d times, want 1 (no query after MarkVisited)", calls)
	}
}
