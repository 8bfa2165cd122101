// Package storage persists record snapshots as timestamped JSON files.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/servhound/servhound/pkg/jsonutil"
	"github.com/servhound/servhound/pkg/record"
)

// ErrNoRecords is returned when a save is requested for an empty
// snapshot; nothing is written.
var ErrNoRecords = fmt.Errorf("storage: no records to save")

// Store writes record snapshots into a results directory.
type Store struct {
	dir    string
	logger *slog.Logger

	// now is swapped in tests for stable filenames.
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a store rooted at dir. The directory is created on the
// first save, not here.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveRecords writes records to <dir>/<label>_<timestamp>.json and
// returns the written path.
func (s *Store) SaveRecords(records []*record.Record, label string) (string, error) {
	if len(records) == 0 {
		return "", ErrNoRecords
	}
	if label == "" {
		label = "results"
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", label, s.now().Format("20060102_150405")))
	data, err := jsonutil.MarshalIndent(records, "  ")
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}

	s.logger.Info("saved results", "count", len(records), "path", path)
	return path, nil
}

// LoadRecords reads a snapshot back. Unknown fields in the file are
// ignored so snapshots from newer builds still load.
func (s *Store) LoadRecords(path string) ([]*record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var records []*record.Record
	if err := jsonutil.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	s.logger.Info("loaded results", "count", len(records), "path", path)
	return records, nil
}

// List returns the snapshot files under the results directory, newest
// first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}
	// Timestamped names sort chronologically; reverse for newest first.
	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}
	return paths, nil
}
