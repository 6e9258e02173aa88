package history

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/linkmark/linkmark/pkg/model"
	"github.com/linkmark/linkmark/pkg/store"
)

// memStore is an in-memory store.Store for exercising the importer and
// codec without a database. Keys are stored as given; failURLs injects
// per-item put failures; gate, when set, stalls every Put until closed.
type memStore struct {
	mu         sync.Mutex
	visits     map[string]int64
	lastImport int64
	failURLs   map[string]bool
	gate       chan struct{}
}

func newMemStore() *memStore {
	return &memStore{visits: make(map[string]int64), failURLs: make(map[string]bool)}
}

func (m *memStore) Put(_ context.Context, url string, ts int64) error {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failURLs[url] {
		return errors.New("injected put failure")
	}
	m.visits[url] = ts
	return nil
}

func (m *memStore) Get(_ context.Context, url string) (*model.VisitRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.visits[url]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &model.VisitRecord{URL: url, Timestamp: ts}, nil
}

func (m *memStore) Has(ctx context.Context, url string) (bool, error) {
	_, err := m.Get(ctx, url)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memStore) HasMany(_ context.Context, urls []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		_, ok := m.visits[u]
		out[u] = ok
	}
	return out, nil
}

func (m *memStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visits), nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = make(map[string]int64)
	return nil
}

func (m *memStore) ScanAll(_ context.Context) ([]model.VisitRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]model.VisitRecord, 0, len(m.visits))
	for u, ts := range m.visits {
		records = append(records, model.VisitRecord{URL: u, Timestamp: ts})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].URL < records[j].URL })
	return records, nil
}

func (m *memStore) LastImportTime(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastImport, nil
}

func (m *memStore) SetLastImportTime(_ context.Context, ts int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastImport = ts
	return nil
}

func (m *memStore) Close() error { return nil }
