// Package novelty persists the set of (ip, port) pairs ever ingested by
// this installation. It is the sole source of truth for a record's
// IsUnseen flag and survives restarts.
package novelty

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Service is one persisted (ip, port) pair.
type Service struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// Store is a SQLite-backed seen-set. All mutating operations are
// serialized behind a mutex so concurrent ingestion paths cannot race
// the test-and-set in InsertIfAbsent.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens or creates the store at path. Use ":memory:" for an
// ephemeral store. An unreadable or corrupt database is a fatal error
// for this component; callers decide whether to abort or start fresh
// at a different path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open novelty store: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS seen_services (
			ip TEXT NOT NULL,
			port INTEGER NOT NULL,
			PRIMARY KEY (ip, port)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{db: db}, nil
}

// InsertIfAbsent atomically records the pair and reports whether it was
// new. The first call for a pair returns true; every later call for the
// same pair returns false with no write.
func (s *Store) InsertIfAbsent(ip string, port int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO seen_services (ip, port) VALUES (?, ?)`,
		ip, port,
	)
	if err != nil {
		return false, fmt.Errorf("insert service %s:%d: %w", ip, port, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Contains reports whether the pair has ever been recorded.
func (s *Store) Contains(ip string, port int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM seen_services WHERE ip = ? AND port = ?`,
		ip, port,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query service %s:%d: %w", ip, port, err)
	}
	return true, nil
}

// Remove deletes a pair. Used by maintenance tooling, not the ingestion
// path.
func (s *Store) Remove(ip string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`DELETE FROM seen_services WHERE ip = ? AND port = ?`,
		ip, port,
	)
	if err != nil {
		return fmt.Errorf("remove service %s:%d: %w", ip, port, err)
	}
	return nil
}

// Services returns every recorded pair.
func (s *Store) Services() ([]Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT ip, port FROM seen_services ORDER BY ip, port`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var svc Service
		if err := rows.Scan(&svc.IP, &svc.Port); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// Clear empties the store.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM seen_services`); err != nil {
		return fmt.Errorf("clear novelty store: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
