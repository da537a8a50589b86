package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/funvibe/steinlang/internal/evaluator"
)

// Store persists EvalContext snapshots in a sqlite table keyed by an opaque
// session id (spec.md §6: the storage collaborator is addressed by id, never
// by reaching into evaluator internals). Each session has its own mutex so
// concurrent Step calls against different sessions don't serialize on one
// another, while calls against the same session do — the CEK machine in
// internal/evaluator is not safe for concurrent Step calls on one
// EvalContext (spec.md §3).
type Store struct {
	db *sql.DB

	// compactionThreshold is handed to the fresh Arena each Step call builds
	// (config.StorageConfig.CompactionThresholdBytes); 0 disables compaction.
	compactionThreshold int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open opens (creating if absent) the sqlite database at dsn and ensures the
// session table exists. compactionThreshold is the live-byte ceiling passed
// to internal/evaluator.NewArena for every session this Store steps.
func Open(dsn string, compactionThreshold int64) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dsn, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS evalctx (
			id         TEXT PRIMARY KEY,
			blob       BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create table: %w", err)
	}
	return &Store{db: db, compactionThreshold: compactionThreshold, locks: make(map[string]*sync.Mutex)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Create persists a fresh EvalContext under a newly generated session id and
// returns it.
func (s *Store) Create(ctx context.Context, ec *evaluator.EvalContext) (string, error) {
	id := uuid.NewString()
	if err := s.write(ctx, id, ec); err != nil {
		return "", err
	}
	return id, nil
}

// Load reads and decodes the EvalContext stored under id.
func (s *Store) Load(ctx context.Context, id string) (*evaluator.EvalContext, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	var blob []byte
	row := s.db.QueryRowContext(ctx, `SELECT blob FROM evalctx WHERE id = ?`, id)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("storage: no session %q", id)
		}
		return nil, fmt.Errorf("storage: load %q: %w", id, err)
	}
	ec, err := DecodeEvalContext(blob)
	if err != nil {
		return nil, evaluator.NewSnapshotError(fmt.Sprintf("session %q: %v", id, err))
	}
	return ec, nil
}

// Save re-encodes and overwrites the EvalContext stored under id.
func (s *Store) Save(ctx context.Context, id string, ec *evaluator.EvalContext) error {
	return s.write(ctx, id, ec)
}

func (s *Store) write(ctx context.Context, id string, ec *evaluator.EvalContext) error {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	blob := EncodeEvalContext(ec)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evalctx (id, blob, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at
	`, id, blob, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("storage: save %q: %w", id, err)
	}
	return nil
}

// Step loads the session, runs up to maxSteps of the machine, persists the
// result, and returns the step count actually taken and the machine's first
// error (only ever evalerrors.ArityError — spec.md §7, §9).
func (s *Store) Step(ctx context.Context, id string, maxSteps int) (int, error) {
	// Load and Save each hold the session lock only while they touch the
	// row, so a second per-session lock is held across the whole
	// load-run-save cycle to keep Step calls on one session from
	// interleaving.
	sl := s.lockFor("step:" + id)
	sl.Lock()
	defer sl.Unlock()

	ec, err := s.Load(ctx, id)
	if err != nil {
		return 0, err
	}
	arena := evaluator.NewArena(s.compactionThreshold)
	ev := evaluator.New(ec, arena)
	steps, stepErr := ev.RunUpTo(maxSteps)
	if saveErr := s.Save(ctx, id, ev.Context()); saveErr != nil {
		return steps, saveErr
	}
	return steps, stepErr
}

// Delete removes a session and its lock.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM evalctx WHERE id = ?`, id); err != nil {
		return fmt.Errorf("storage: delete %q: %w", id, err)
	}
	return nil
}
