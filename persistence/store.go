// Package persistence stores trained model blobs per difficulty tier in a
// local SQLite database. Saves go through a single writer goroutine so the
// game's frame path never blocks on disk I/O.
package persistence

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a tier-keyed model blob store backed by SQLite.
type Store struct {
	db *sql.DB

	ch   chan saveReq
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type saveReq struct {
	tier string
	blob []byte
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty store path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		// Small buffer: model saves are rare (every N training steps).
		ch: make(chan saveReq, 16),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		// WAL suits the append-style save pattern.
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		`CREATE TABLE IF NOT EXISTS models (
			tier TEXT PRIMARY KEY,
			blob BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("initializing store schema: %w", err)
		}
	}
	return nil
}

// Save enqueues a model blob for the tier. Fire-and-forget: a full queue or
// closed store drops the save with a warning rather than blocking the
// caller.
func (s *Store) Save(tier string, blob []byte) {
	if s == nil || s.closed.Load() {
		return
	}

	// Copy: the caller may reuse the slice immediately.
	cp := make([]byte, len(blob))
	copy(cp, blob)

	select {
	case s.ch <- saveReq{tier: tier, blob: cp}:
	default:
		slog.Warn("model save dropped, store queue full", "tier", tier)
	}
}

// Load reads the stored blob for a tier. A missing tier returns
// (nil, false, nil); callers treat that as "train from scratch".
func (s *Store) Load(tier string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, nil
	}

	var blob []byte
	err := s.db.QueryRow("SELECT blob FROM models WHERE tier = ?", tier).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading model for tier %q: %w", tier, err)
	}
	return blob, true, nil
}

// Tiers lists stored tiers with blob sizes and update times, sorted by the
// database's natural key order.
func (s *Store) Tiers() ([]TierInfo, error) {
	rows, err := s.db.Query("SELECT tier, length(blob), updated_at FROM models ORDER BY tier")
	if err != nil {
		return nil, fmt.Errorf("listing tiers: %w", err)
	}
	defer rows.Close()

	var out []TierInfo
	for rows.Next() {
		var info TierInfo
		if err := rows.Scan(&info.Tier, &info.BlobSize, &info.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// TierInfo describes one stored model row.
type TierInfo struct {
	Tier      string
	BlobSize  int64
	UpdatedAt string
}

// Close drains pending saves and closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *Store) loop() {
	for req := range s.ch {
		_, err := s.db.Exec(
			`INSERT INTO models (tier, blob, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(tier) DO UPDATE SET blob=excluded.blob, updated_at=excluded.updated_at`,
			req.tier, req.blob, time.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			// Persistence failures never surface into gameplay.
			slog.Error("model save failed", "tier", req.tier, "error", err)
		}
	}
}
