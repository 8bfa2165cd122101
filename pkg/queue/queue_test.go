package queue

import (
	"testing"

	"github.com/servhound/servhound/pkg/record"
)

// fakeNovelty marks a configurable set of pairs as already seen.
type fakeNovelty struct {
	seen map[string]bool
}

func newFakeNovelty(seen ...string) *fakeNovelty {
	m := make(map[string]bool)
	for _, k := range seen {
		m[k] = true
	}
	return &fakeNovelty{seen: m}
}

func (f *fakeNovelty) InsertIfAbsent(ip string, port int) (bool, error) {
	key := (&record.Record{IP: ip, Port: port}).Key()
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func recs(pairs ...[2]any) []record.Record {
	out := make([]record.Record, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, record.Record{IP: p[0].(string), Port: p[1].(int)})
	}
	return out
}

func TestAddComputesNoveltyAndClearsSelection(t *testing.T) {
	q := New(PurposeResults, newFakeNovelty("B:2"))

	in := record.Record{IP: "A", Port: 1, IsSelected: true}
	q.Add(&in)
	q.Add(&record.Record{IP: "B", Port: 2})

	a := q.ByIndex(0)
	if !a.IsUnseen {
		t.Error("A:1 was never recorded, must ingest unseen")
	}
	if a.IsSelected {
		t.Error("ingestion must clear selection")
	}
	if q.ByIndex(1).IsUnseen {
		t.Error("B:2 was pre-recorded, must ingest seen")
	}

	// The queue owns a clone, not the caller's record.
	a.Banner = "mutated"
	if in.Banner != "" {
		t.Error("queue must clone on ingestion")
	}
}

func TestAddRepeatMarksSeen(t *testing.T) {
	q := New(PurposeResults, newFakeNovelty())

	q.Add(&record.Record{IP: "A", Port: 1})
	q.Add(&record.Record{IP: "A", Port: 1})

	if !q.ByIndex(0).IsUnseen {
		t.Error("first ingestion is unseen")
	}
	if q.ByIndex(1).IsUnseen {
		t.Error("second ingestion of the same pair is seen")
	}
}

func TestClearDuplicatesFirstSeenWins(t *testing.T) {
	q := New(PurposeResults, nil)
	q.AddAll(recs([2]any{"A", 1}, [2]any{"B", 2}, [2]any{"A", 1}, [2]any{"C", 3}))

	removed := q.ClearDuplicates()
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	want := []string{"A:1", "B:2", "C:3"}
	if q.Len() != len(want) {
		t.Fatalf("len = %d, want %d", q.Len(), len(want))
	}
	for i, k := range want {
		if got := q.ByIndex(i).Key(); got != k {
			t.Errorf("index %d = %s, want %s", i, got, k)
		}
	}
}

func TestRemoveAllSeen(t *testing.T) {
	q := New(PurposeResults, newFakeNovelty("B:2"))
	q.AddAll(recs([2]any{"A", 1}, [2]any{"B", 2}, [2]any{"C", 3}))

	removed := q.RemoveAllSeen()
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}
	for i := 0; i < q.Len(); i++ {
		if !q.ByIndex(i).IsUnseen {
			t.Errorf("record %d should be unseen", i)
		}
	}
}

func TestRemoveByIdentityThenKey(t *testing.T) {
	q := New(PurposeResults, nil)
	q.AddAll(recs([2]any{"A", 1}, [2]any{"B", 2}))

	// Identity removal.
	target := q.ByIndex(1)
	if !q.Remove(target) {
		t.Fatal("identity removal should succeed")
	}

	// Key-equality fallback for a foreign record value.
	if !q.Remove(&record.Record{IP: "A", Port: 1}) {
		t.Fatal("key-equality removal should succeed")
	}
	if q.Remove(&record.Record{IP: "Z", Port: 9}) {
		t.Error("removing an absent record should report false")
	}
	if q.Len() != 0 {
		t.Errorf("len = %d, want 0", q.Len())
	}
}

func TestByIndexBounds(t *testing.T) {
	q := New(PurposeResults, nil)
	q.Add(&record.Record{IP: "A", Port: 1})

	if q.ByIndex(-1) != nil || q.ByIndex(1) != nil {
		t.Error("out-of-bounds lookup must return nil")
	}
	if q.ByIndex(0) == nil {
		t.Error("in-bounds lookup must return the record")
	}
}

func TestObserverNotifiedSynchronously(t *testing.T) {
	q := New(PurposeResults, nil)

	var calls int
	var lastLen int
	q.Attach(func(snapshot []*record.Record) {
		calls++
		lastLen = len(snapshot)
	})

	calls = 0
	q.Add(&record.Record{IP: "A", Port: 1})
	if calls != 1 || lastLen != 1 {
		t.Errorf("after Add: calls=%d lastLen=%d", calls, lastLen)
	}

	q.SelectAll()
	if calls != 2 {
		t.Errorf("SelectAll must notify, calls=%d", calls)
	}

	q.Clear()
	if calls != 3 || lastLen != 0 {
		t.Errorf("after Clear: calls=%d lastLen=%d", calls, lastLen)
	}
}

func TestObserverPanicDoesNotPropagate(t *testing.T) {
	q := New(PurposeResults, nil)
	q.Attach(func([]*record.Record) {
		panic("renderer not mounted")
	})

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("observer panic escaped to the caller: %v", r)
		}
	}()
	q.Add(&record.Record{IP: "A", Port: 1})
	if q.Len() != 1 {
		t.Error("mutation must land even when the observer panics")
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	q := New(PurposeResults, nil)
	q.AddAll(recs([2]any{"A", 1}, [2]any{"B", 2}))

	q.SelectAll()
	if len(q.Selected()) != 2 {
		t.Error("select all should select everything")
	}
	q.DeselectAll()
	if len(q.Selected()) != 0 {
		t.Error("deselect all should clear everything")
	}
}
