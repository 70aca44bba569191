// Package store provides SQLite persistence for resolved parcels.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/parcelscout/internal/validate"
)

// ErrNotFound is returned when no parcel matches.
var ErrNotFound = errors.New("store: not found")

// Store handles SQLite persistence. Concrete type, not an interface.
// All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
	// now is overridden in tests
	now func() time.Time
}

// Parcel is one resolved parcel as remembered locally.
type Parcel struct {
	ParcelID   string `validate:"required,parcelid"`
	Display    string // address the parcel was resolved from
	Query      string // text the user typed before picking
	ResolvedAt time.Time
	Opened     int // how many times it was handed off
}

// Label is the text to show for p in lists.
func (p Parcel) Label() string {
	if p.Display != "" {
		return p.Display
	}
	return p.ParcelID
}

// Open creates a Store at dbPath, creating tables as needed. File
// databases run in WAL mode; ":memory:" uses a single shared connection.
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	memory := dbPath == ":memory:"
	if memory {
		// shared cache so every pooled connection sees the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if !memory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recent_parcels (
		parcel_id TEXT PRIMARY KEY,
		display TEXT NOT NULL DEFAULT '',
		query TEXT NOT NULL DEFAULT '',
		resolved_at DATETIME NOT NULL,
		opened INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_recent_resolved ON recent_parcels(resolved_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database. Waits for in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// RecordResolution remembers a handed-off parcel. A parcel seen before is
// moved to the front and its open count bumped; a non-empty display or
// query replaces the stored one.
func (s *Store) RecordResolution(parcelID, display, query string) error {
	p := Parcel{
		ParcelID: strings.TrimSpace(parcelID),
		Display:  strings.TrimSpace(display),
		Query:    strings.TrimSpace(query),
	}
	if err := validate.Default.Struct(p); err != nil {
		return fmt.Errorf("store: invalid parcel id %q: %w", parcelID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO recent_parcels (parcel_id, display, query, resolved_at, opened)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(parcel_id) DO UPDATE SET
			display = CASE WHEN excluded.display != '' THEN excluded.display ELSE display END,
			query = CASE WHEN excluded.query != '' THEN excluded.query ELSE query END,
			resolved_at = excluded.resolved_at,
			opened = opened + 1
	`, p.ParcelID, p.Display, p.Query, s.now().UTC())
	if err != nil {
		return fmt.Errorf("record parcel %s: %w", p.ParcelID, err)
	}
	return nil
}

// Recent returns up to limit parcels, most recent first.
func (s *Store) Recent(limit int) ([]Parcel, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryParcels(`
		SELECT parcel_id, display, query, resolved_at, opened
		FROM recent_parcels
		ORDER BY resolved_at DESC, parcel_id
		LIMIT ?
	`, limit)
}

// Last returns the most recently handed-off parcel, or ErrNotFound.
func (s *Store) Last() (Parcel, error) {
	ps, err := s.Recent(1)
	if err != nil {
		return Parcel{}, err
	}
	if len(ps) == 0 {
		return Parcel{}, ErrNotFound
	}
	return ps[0], nil
}

// Get returns one parcel by id, or ErrNotFound.
func (s *Store) Get(parcelID string) (Parcel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ps, err := s.queryParcels(`
		SELECT parcel_id, display, query, resolved_at, opened
		FROM recent_parcels
		WHERE parcel_id = ?
	`, parcelID)
	if err != nil {
		return Parcel{}, err
	}
	if len(ps) == 0 {
		return Parcel{}, ErrNotFound
	}
	return ps[0], nil
}

// Forget removes a parcel. Removing an unknown id is not an error.
func (s *Store) Forget(parcelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM recent_parcels WHERE parcel_id = ?", parcelID)
	return err
}

// Count returns how many parcels are stored.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM recent_parcels").Scan(&n)
	return n, err
}

// queryParcels runs query and scans rows. Caller holds s.mu.
func (s *Store) queryParcels(query string, args ...any) ([]Parcel, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Parcel
	for rows.Next() {
		var p Parcel
		if err := rows.Scan(&p.ParcelID, &p.Display, &p.Query, &p.ResolvedAt, &p.Opened); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
