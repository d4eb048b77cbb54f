package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"railway/engine"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a game has no saves.
var ErrNotFound = errors.New("store: no save found")

// Save describes one stored snapshot.
type Save struct {
	GameID   string
	Seq      int
	Title    string
	Hash     string
	Finished bool
	SavedAt  time.Time
}

// SQLite keeps every snapshot of every game, compressed.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the index at path. ":memory:" keeps it in
// memory.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			game_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			title TEXT NOT NULL,
			hash TEXT NOT NULL,
			finished INTEGER NOT NULL DEFAULT 0,
			saved_at INTEGER NOT NULL,
			snapshot BLOB NOT NULL,
			PRIMARY KEY (game_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS saves_saved_at ON saves(saved_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores snap. Saving the same game and sequence twice replaces the
// earlier row.
func (s *SQLite) Save(ctx context.Context, snap engine.Snapshot) error {
	if snap.GameID == "" {
		return fmt.Errorf("snapshot has no game id")
	}
	blob, err := Encode(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saves (game_id, seq, title, hash, finished, saved_at, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(game_id, seq) DO UPDATE SET
		   title = excluded.title,
		   hash = excluded.hash,
		   finished = excluded.finished,
		   saved_at = excluded.saved_at,
		   snapshot = excluded.snapshot`,
		snap.GameID, snap.Seq, snap.Title, fmt.Sprintf("%016x", uint64(snap.Hash)),
		snap.Game.Finished, s.now().UTC().UnixMilli(), blob,
	)
	if err != nil {
		return fmt.Errorf("save %s/%d: %w", snap.GameID, snap.Seq, err)
	}
	return nil
}

// Latest returns the newest save of gameID.
func (s *SQLite) Latest(ctx context.Context, gameID string) (engine.Snapshot, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM saves WHERE game_id = ? ORDER BY seq DESC LIMIT 1`, gameID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return engine.Snapshot{}, err
	}
	return Decode(blob)
}

// List returns the newest save of every game, most recent first.
func (s *SQLite) List(ctx context.Context) ([]Save, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game_id, seq, title, hash, finished, saved_at FROM saves s
		 WHERE seq = (SELECT MAX(seq) FROM saves WHERE game_id = s.game_id)
		 ORDER BY saved_at DESC, game_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Save
	for rows.Next() {
		var (
			sv    Save
			saved int64
		)
		if err := rows.Scan(&sv.GameID, &sv.Seq, &sv.Title, &sv.Hash, &sv.Finished, &saved); err != nil {
			return nil, err
		}
		sv.SavedAt = time.UnixMilli(saved).UTC()
		out = append(out, sv)
	}
	return out, rows.Err()
}
