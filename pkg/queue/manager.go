package queue

import (
	"log/slog"

	"github.com/servhound/servhound/pkg/record"
)

// Manager owns exactly two queues for the process lifetime: incoming
// search results and the processing set. Queue operations invoked
// through the manager report failures as status lines but never crash
// the caller.
type Manager struct {
	results    *Queue
	processing *Queue
	logger     *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the status logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager constructs the two queues against one novelty store.
func NewManager(novelty NoveltyRecorder, opts ...ManagerOption) *Manager {
	m := &Manager{
		results:    New(PurposeResults, novelty),
		processing: New(PurposeProcessing, novelty),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Results returns the incoming-results queue.
func (m *Manager) Results() *Queue { return m.results }

// Processing returns the processing queue.
func (m *Manager) Processing() *Queue { return m.processing }

// MoveToProcessing transfers every selected record from results to
// processing (ownership transfer, not copy) and returns both queues'
// contents. Nothing selected is a warned no-op returning empty slices.
func (m *Manager) MoveToProcessing() (proc, remaining []*record.Record) {
	selected := m.results.Selected()
	if len(selected) == 0 {
		m.logger.Warn("no items selected to move")
		return nil, nil
	}

	for _, rec := range selected {
		m.results.Remove(rec)
	}
	m.processing.append(selected)

	m.logger.Info("moved items to processing", slog.Int("count", len(selected)))
	return m.processing.Records(), m.results.Records()
}

// RemoveWhere drops records matching pred from q and returns the count.
func (m *Manager) RemoveWhere(q *Queue, pred func(*record.Record) bool) int {
	return q.removeWhere(pred)
}

// RemoveProcessed drops successfully processed items from the
// processing queue.
func (m *Manager) RemoveProcessed() int {
	removed := m.processing.removeWhere((*record.Record).WasProcessed)
	m.logger.Info("removed processed items", slog.Int("count", removed))
	return removed
}

// RemoveFailed drops failed items from the processing queue.
func (m *Manager) RemoveFailed() int {
	removed := m.processing.removeWhere((*record.Record).HasFailed)
	m.logger.Info("removed failed items", slog.Int("count", removed))
	return removed
}

// ClearDuplicates collapses the results queue to first-seen-wins per
// (ip, port).
func (m *Manager) ClearDuplicates() int {
	removed := m.results.ClearDuplicates()
	m.logger.Info("removed duplicate items", slog.Int("count", removed))
	return removed
}

// ClearSeen drops previously-seen records from the results queue.
func (m *Manager) ClearSeen() int {
	removed := m.results.RemoveAllSeen()
	m.logger.Info("removed seen items", slog.Int("count", removed))
	return removed
}

// SelectAllResults selects everything in the results queue.
func (m *Manager) SelectAllResults() {
	m.results.SelectAll()
}

// DeselectAllResults clears selection in the results queue.
func (m *Manager) DeselectAllResults() {
	m.results.DeselectAll()
}

// ClearResults empties the results queue.
func (m *Manager) ClearResults() {
	m.results.Clear()
}

// ClearProcessing empties the processing queue.
func (m *Manager) ClearProcessing() {
	m.processing.Clear()
}
