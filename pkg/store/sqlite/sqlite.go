// Package sqlite provides the SQLite implementation of store.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/linkmark/linkmark/pkg/model"
	"github.com/linkmark/linkmark/pkg/store"
	"github.com/linkmark/linkmark/pkg/urlnorm"
)

// errClosed is returned by every operation after Close, including
// operations that were awaiting the lazy open when Close landed.
var errClosed = errors.New("store is closed")

// Config holds configuration for the SQLite store.
type Config struct {
	// Path to the SQLite database file.
	DBPath string

	// WAL enables WAL mode for better concurrency.
	WAL bool
}

// SQLiteStore is the SQLite implementation of store.Store.
//
// The connection is opened lazily on first use. All concurrent callers
// arriving before the open completes share the same single attempt and
// receive its outcome; a failed attempt is not cached, so a later call
// retries from scratch.
type SQLiteStore struct {
	cfg    Config
	openFn func(Config) (*sql.DB, error) // replaceable in tests

	mu      sync.Mutex
	db      *sql.DB
	opening chan struct{} // non-nil while an open attempt is in flight
	openErr error         // outcome of the most recent finished attempt
	closed  bool
}

// New creates a store handle. The database file is not touched until the
// first operation.
func New(cfg Config) *SQLiteStore {
	return &SQLiteStore{cfg: cfg, openFn: open}
}

// Close closes the database if it was ever opened.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.cfg.DBPath
}

// ────────────────────────────────────────────────────────────────────────────────
// Lazy Connection
// ────────────────────────────────────────────────────────────────────────────────

// conn returns the ready database handle, opening it on first use.
func (s *SQLiteStore) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	for {
		if s.closed {
			s.mu.Unlock()
			return nil, errClosed
		}
		if s.db != nil {
			db := s.db
			s.mu.Unlock()
			return db, nil
		}
		if s.opening == nil {
			break
		}

		// Another caller is opening; attach to its outcome.
		ch := s.opening
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, errClosed
		}
		if s.db == nil && s.opening == nil {
			err := s.openErr
			s.mu.Unlock()
			return nil, err
		}
		// Either succeeded or a new attempt started; re-check.
	}

	ch := make(chan struct{})
	s.opening = ch
	s.mu.Unlock()

	db, err := s.openFn(s.cfg)

	s.mu.Lock()
	s.opening = nil
	s.openErr = err
	if err == nil && s.closed {
		// Close landed mid-open: the handle is discarded and waiters
		// must see the closed error, not a nil database.
		s.openErr = errClosed
		s.mu.Unlock()
		close(ch)
		db.Close()
		return nil, errClosed
	}
	if err == nil {
		s.db = db
	}
	s.mu.Unlock()
	close(ch)

	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func open(cfg Config) (*sql.DB, error) {
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := cfg.DBPath + "?_foreign_keys=on"
	if cfg.WAL {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer is best practice for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS visits (
	url TEXT PRIMARY KEY,
	ts  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT
);

CREATE INDEX IF NOT EXISTS idx_visits_ts ON visits(ts);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	_, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`,
		"schema_version", strconv.Itoa(store.SchemaVersion))
	return err
}

// ────────────────────────────────────────────────────────────────────────────────
// Record Operations
// ────────────────────────────────────────────────────────────────────────────────

// Put upserts a visit record, overwriting the timestamp if the URL exists.
func (s *SQLiteStore) Put(ctx context.Context, rawURL string, ts int64) error {
	key, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	const query = `INSERT INTO visits (url, ts) VALUES (?, ?)
	ON CONFLICT(url) DO UPDATE SET ts = excluded.ts`

	if _, err := db.ExecContext(ctx, query, key, ts); err != nil {
		return fmt.Errorf("put visit: %w", err)
	}
	return nil
}

// Get returns the record for url, or store.ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, rawURL string) (*model.VisitRecord, error) {
	key, err := urlnorm.Normalize(rawURL)
	if err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rec := &model.VisitRecord{URL: key}
	err = db.QueryRowContext(ctx, `SELECT ts FROM visits WHERE url = ?`, key).Scan(&rec.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get visit: %w", err)
	}
	return rec, nil
}

// Has reports whether url has a record.
func (s *SQLiteStore) Has(ctx context.Context, rawURL string) (bool, error) {
	_, err := s.Get(ctx, rawURL)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// hasManyChunk bounds placeholders per query, staying well under SQLite's
// bound-parameter limit for arbitrarily large inputs.
const hasManyChunk = 500

// HasMany answers visited status for a set of URLs, querying in chunks of
// hasManyChunk.
func (s *SQLiteStore) HasMany(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		key, err := urlnorm.Normalize(u)
		if err != nil {
			continue // unparseable URLs are simply not visited
		}
		if _, seen := result[key]; !seen {
			result[key] = false
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return result, nil
	}

	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	for start := 0; start < len(keys); start += hasManyChunk {
		end := min(start+hasManyChunk, len(keys))
		if err := queryVisited(ctx, db, keys[start:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// queryVisited flips result entries to true for every key present in the
// visits table. len(keys) must stay under the bound-parameter limit.
func queryVisited(ctx context.Context, db *sql.DB, keys []string, result map[string]bool) error {
	placeholders := strings.Repeat("?,", len(keys))
	query := `SELECT url FROM visits WHERE url IN (` + placeholders[:len(placeholders)-1] + `)`
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return fmt.Errorf("scan visit: %w", err)
		}
		result[u] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query visits: %w", err)
	}
	return nil
}

// Count returns the number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

// Clear removes all records. Meta entries survive.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM visits`); err != nil {
		return fmt.Errorf("clear visits: %w", err)
	}
	return nil
}

// ScanAll returns every record ordered by URL. One-shot: a fresh call
// re-scans the medium.
func (s *SQLiteStore) ScanAll(ctx context.Context) ([]model.VisitRecord, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT url, ts FROM visits ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("scan visits: %w", err)
	}
	defer rows.Close()

	var records []model.VisitRecord
	for rows.Next() {
		var rec model.VisitRecord
		if err := rows.Scan(&rec.URL, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan visits: %w", err)
	}
	return records, nil
}

// ────────────────────────────────────────────────────────────────────────────────
// Meta Operations
// ────────────────────────────────────────────────────────────────────────────────

// LastImportTime returns the completion timestamp of the most recent bulk
// import in epoch milliseconds, 0 if none has completed.
func (s *SQLiteStore) LastImportTime(ctx context.Context) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	var value string
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, "last_import_time").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get meta: %w", err)
	}

	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse last_import_time %q: %w", value, err)
	}
	return ts, nil
}

// SetLastImportTime records the bulk import completion marker.
func (s *SQLiteStore) SetLastImportTime(ctx context.Context, ts int64) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`,
		"last_import_time", strconv.FormatInt(ts, 10))
	if err != nil {
		return fmt.Errorf("set meta: %w", err)
	}
	return nil
}
