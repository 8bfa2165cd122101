// Package queue implements the ordered, dedup-aware record queues and
// the two-queue manager that moves curated targets into processing.
package queue

import (
	"sync"

	"github.com/servhound/servhound/pkg/record"
)

// Purpose tags a queue's role; display affordances differ per purpose.
type Purpose string

const (
	PurposeResults    Purpose = "RESULTS"
	PurposeProcessing Purpose = "PROCESSING"
)

// Observer receives the full queue snapshot after every mutation. It is
// the UI collaborator's binding point and may be absent.
type Observer func(snapshot []*record.Record)

// NoveltyRecorder is the persistent seen-set consulted at ingestion.
type NoveltyRecorder interface {
	InsertIfAbsent(ip string, port int) (bool, error)
}

// Queue is an ordered sequence of records with selection state. Created
// once at startup per purpose; cleared but never destroyed. All
// operations are mutex-guarded so a future concurrent ingestion path
// cannot corrupt order.
type Queue struct {
	mu       sync.Mutex
	purpose  Purpose
	records  []*record.Record
	novelty  NoveltyRecorder
	observer Observer
}

// New creates a queue. novelty may be nil, in which case every record
// ingests as unseen.
func New(purpose Purpose, novelty NoveltyRecorder) *Queue {
	return &Queue{purpose: purpose, novelty: novelty}
}

// Purpose returns the queue's role tag.
func (q *Queue) Purpose() Purpose { return q.purpose }

// Attach binds the observer. Passing nil detaches.
func (q *Queue) Attach(obs Observer) {
	q.mu.Lock()
	q.observer = obs
	q.mu.Unlock()
	q.notify()
}

// notify delivers a snapshot to the observer. Tolerates a detached or
// not-yet-mounted observer: absence is a no-op and a panic inside the
// observer never propagates to the mutating caller.
func (q *Queue) notify() {
	q.mu.Lock()
	obs := q.observer
	snapshot := q.snapshotLocked()
	q.mu.Unlock()

	if obs == nil {
		return
	}
	defer func() { _ = recover() }()
	obs(snapshot)
}

func (q *Queue) snapshotLocked() []*record.Record {
	return append([]*record.Record(nil), q.records...)
}

// Sync renotifies the observer without mutating. The engine calls this
// after mutating a record's status bundle in place.
func (q *Queue) Sync() {
	q.notify()
}

// Add ingests one record: computes novelty, clones with selection
// cleared, appends, notifies.
func (q *Queue) Add(rec *record.Record) {
	fresh := true
	if q.novelty != nil {
		if unseen, err := q.novelty.InsertIfAbsent(rec.IP, rec.Port); err == nil {
			fresh = unseen
		}
	}

	clone := rec.Clone()
	clone.IsUnseen = fresh
	clone.IsSelected = false

	q.mu.Lock()
	q.records = append(q.records, clone)
	q.mu.Unlock()
	q.notify()
}

// AddAll ingests records preserving input order.
func (q *Queue) AddAll(recs []record.Record) {
	for i := range recs {
		q.Add(&recs[i])
	}
}

// append moves already-owned records in without re-ingesting them.
// Ownership transfers to this queue.
func (q *Queue) append(recs []*record.Record) {
	q.mu.Lock()
	q.records = append(q.records, recs...)
	q.mu.Unlock()
	q.notify()
}

// SelectAll marks every record selected.
func (q *Queue) SelectAll() {
	q.mu.Lock()
	for _, r := range q.records {
		r.IsSelected = true
	}
	q.mu.Unlock()
	q.notify()
}

// DeselectAll clears selection on every record.
func (q *Queue) DeselectAll() {
	q.mu.Lock()
	for _, r := range q.records {
		r.IsSelected = false
	}
	q.mu.Unlock()
	q.notify()
}

// Selected returns the currently selected records in queue order.
func (q *Queue) Selected() []*record.Record {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*record.Record
	for _, r := range q.records {
		if r.IsSelected {
			out = append(out, r)
		}
	}
	return out
}

// Remove removes rec by identity first, falling back to (ip, port)
// equality. Reports whether a removal occurred.
func (q *Queue) Remove(rec *record.Record) bool {
	q.mu.Lock()
	removed := false
	for i, r := range q.records {
		if r == rec {
			q.records = append(q.records[:i], q.records[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		for i, r := range q.records {
			if r.IP == rec.IP && r.Port == rec.Port {
				q.records = append(q.records[:i], q.records[i+1:]...)
				removed = true
				break
			}
		}
	}
	q.mu.Unlock()

	if removed {
		q.notify()
	}
	return removed
}

// removeWhere drops every record matching pred and returns the count.
func (q *Queue) removeWhere(pred func(*record.Record) bool) int {
	q.mu.Lock()
	kept := q.records[:0]
	removed := 0
	for _, r := range q.records {
		if pred(r) {
			removed++
		} else {
			kept = append(kept, r)
		}
	}
	q.records = kept
	q.mu.Unlock()

	if removed > 0 {
		q.notify()
	}
	return removed
}

// ClearDuplicates collapses the queue to the first occurrence per
// (ip, port) key in current order and returns the number removed.
func (q *Queue) ClearDuplicates() int {
	seen := make(map[string]bool)
	return q.removeWhere(func(r *record.Record) bool {
		key := r.Key()
		if seen[key] {
			return true
		}
		seen[key] = true
		return false
	})
}

// RemoveAllSeen retains only unseen records and returns the number
// removed.
func (q *Queue) RemoveAllSeen() int {
	return q.removeWhere(func(r *record.Record) bool {
		return !r.IsUnseen
	})
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.records = nil
	q.mu.Unlock()
	q.notify()
}

// ByIndex returns the record at i, or nil when out of bounds. The index
// is only stable until the next mutation.
func (q *Queue) ByIndex(i int) *record.Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.records) {
		return nil
	}
	return q.records[i]
}

// Len returns the current record count.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Records returns a snapshot copy of the current ordering. The records
// themselves are shared, the slice is not.
func (q *Queue) Records() []*record.Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}
