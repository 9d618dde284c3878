package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-kspace/kspace/transform"
)

// ErrNotInitialized is returned when reading from a nil store.
var ErrNotInitialized = errors.New("session: store not initialized")

// Store journals inspection sessions and their mask history in SQLite.
// A nil *Store is safe for writes, which become no-ops, so hosts can
// run without persistence.
type Store struct {
	db *sql.DB
}

// SessionRecord describes one loaded image.
type SessionRecord struct {
	ID        string
	ImageName string
	Rows      int
	Cols      int
	CreatedAt time.Time
}

// MaskEvent is one committed mask within a session.
type MaskEvent struct {
	SessionID string
	Seq       uint64
	Mask      transform.Mask
	Retained  float64
	CreatedAt time.Time
}

// Open opens (or creates) the journal database at path and ensures the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: schema: %w", err)
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
            id TEXT PRIMARY KEY,
            image_name TEXT NOT NULL,
            rows INTEGER NOT NULL,
            cols INTEGER NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS mask_events (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            session_id TEXT NOT NULL,
            seq INTEGER NOT NULL,
            cx INTEGER NOT NULL,
            cy INTEGER NOT NULL,
            radius INTEGER NOT NULL,
            retained REAL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_mask_events_session ON mask_events(session_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginSession records a newly loaded image and returns the session id.
func (s *Store) BeginSession(imageName string, rows, cols int) (string, error) {
	if s == nil {
		return "", nil
	}
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, image_name, rows, cols) VALUES (?, ?, ?, ?);`,
		id, imageName, rows, cols,
	)
	if err != nil {
		return "", fmt.Errorf("session: begin: %w", err)
	}
	return id, nil
}

// RecordMask journals one committed mask. Retained is the fraction of
// spectral power the mask kept, or a negative value when unknown.
func (s *Store) RecordMask(sessionID string, seq uint64, mask transform.Mask, retained float64) error {
	if s == nil {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO mask_events (session_id, seq, cx, cy, radius, retained) VALUES (?, ?, ?, ?, ?, ?);`,
		sessionID, int64(seq), mask.CX, mask.CY, mask.Radius, retained,
	)
	if err != nil {
		return fmt.Errorf("session: record mask: %w", err)
	}
	return nil
}

// MaskHistory returns up to limit mask events for a session, newest
// first.
func (s *Store) MaskHistory(sessionID string, limit int) ([]MaskEvent, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	rows, err := s.db.Query(
		`SELECT session_id, seq, cx, cy, radius, retained, created_at
         FROM mask_events WHERE session_id = ? ORDER BY id DESC LIMIT ?;`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("session: mask history: %w", err)
	}
	defer rows.Close()

	var events []MaskEvent
	for rows.Next() {
		var ev MaskEvent
		var seq int64
		var retained sql.NullFloat64
		if err := rows.Scan(&ev.SessionID, &seq, &ev.Mask.CX, &ev.Mask.CY, &ev.Mask.Radius, &retained, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("session: mask history: %w", err)
		}
		ev.Seq = uint64(seq)
		if retained.Valid {
			ev.Retained = retained.Float64
		} else {
			ev.Retained = -1
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecentSessions returns the latest sessions up to limit, newest first.
func (s *Store) RecentSessions(limit int) ([]SessionRecord, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	rows, err := s.db.Query(
		`SELECT id, image_name, rows, cols, created_at
         FROM sessions ORDER BY created_at DESC, id DESC LIMIT ?;`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("session: recent sessions: %w", err)
	}
	defer rows.Close()

	var recs []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.ImageName, &rec.Rows, &rec.Cols, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("session: recent sessions: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
