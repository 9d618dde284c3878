package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-kspace/kspace/transform"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestJournalRoundTrip(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "journal.db"))

	id, err := store.BeginSession("brain.png", 128, 96)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if id == "" {
		t.Fatal("BeginSession returned an empty id")
	}

	masks := []transform.Mask{
		{CX: 48, CY: 64, Radius: 10},
		{CX: 50, CY: 64, Radius: 12},
		{CX: 52, CY: 66, Radius: 14},
	}
	for i, m := range masks {
		if err := store.RecordMask(id, uint64(i+1), m, 0.5+float64(i)*0.1); err != nil {
			t.Fatalf("RecordMask %d: %v", i, err)
		}
	}

	events, err := store.MaskHistory(id, 10)
	if err != nil {
		t.Fatalf("MaskHistory: %v", err)
	}
	if len(events) != len(masks) {
		t.Fatalf("got %d events, want %d", len(events), len(masks))
	}
	// newest first
	for i, ev := range events {
		wantSeq := uint64(len(masks) - i)
		if ev.Seq != wantSeq {
			t.Errorf("event %d has seq %d, want %d", i, ev.Seq, wantSeq)
		}
		if ev.Mask != masks[wantSeq-1] {
			t.Errorf("event %d has mask %+v, want %+v", i, ev.Mask, masks[wantSeq-1])
		}
		if ev.SessionID != id {
			t.Errorf("event %d belongs to session %q, want %q", i, ev.SessionID, id)
		}
	}

	recs, err := store.RecentSessions(5)
	if err != nil {
		t.Fatalf("RecentSessions: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d sessions, want 1", len(recs))
	}
	if recs[0].ID != id || recs[0].ImageName != "brain.png" || recs[0].Rows != 128 || recs[0].Cols != 96 {
		t.Fatalf("unexpected session record: %+v", recs[0])
	}
}

func TestMaskHistoryLimit(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "journal.db"))
	id, err := store.BeginSession("x.png", 8, 8)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	for i := 1; i <= 5; i++ {
		if err := store.RecordMask(id, uint64(i), transform.Mask{CX: i, CY: i, Radius: i}, -1); err != nil {
			t.Fatalf("RecordMask %d: %v", i, err)
		}
	}

	events, err := store.MaskHistory(id, 2)
	if err != nil {
		t.Fatalf("MaskHistory: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Seq != 5 || events[1].Seq != 4 {
		t.Fatalf("got seqs %d, %d, want 5, 4", events[0].Seq, events[1].Seq)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "journal.db"))
	first, err := store.BeginSession("a.png", 8, 8)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	second, err := store.BeginSession("b.png", 8, 8)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if first == second {
		t.Fatal("sessions share an id")
	}
	if err := store.RecordMask(first, 1, transform.Mask{CX: 1, CY: 1, Radius: 1}, -1); err != nil {
		t.Fatalf("RecordMask: %v", err)
	}

	events, err := store.MaskHistory(second, 10)
	if err != nil {
		t.Fatalf("MaskHistory: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("session %q sees %d foreign events", second, len(events))
	}
}

func TestJournalSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store := openStore(t, path)
	id, err := store.BeginSession("keep.png", 16, 16)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	if err := store.RecordMask(id, 1, transform.Mask{CX: 8, CY: 8, Radius: 4}, 0.9); err != nil {
		t.Fatalf("RecordMask: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := openStore(t, path)
	events, err := reopened.MaskHistory(id, 10)
	if err != nil {
		t.Fatalf("MaskHistory after reopen: %v", err)
	}
	if len(events) != 1 || events[0].Mask != (transform.Mask{CX: 8, CY: 8, Radius: 4}) {
		t.Fatalf("journal lost events across reopen: %+v", events)
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var store *Store
	if err := store.RecordMask("x", 1, transform.Mask{CX: 1, CY: 1, Radius: 1}, -1); err != nil {
		t.Fatalf("nil RecordMask: %v", err)
	}
	if _, err := store.BeginSession("x.png", 1, 1); err != nil {
		t.Fatalf("nil BeginSession: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
	if _, err := store.MaskHistory("x", 1); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("nil MaskHistory: got %v, want ErrNotInitialized", err)
	}
	if _, err := store.RecentSessions(1); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("nil RecentSessions: got %v, want ErrNotInitialized", err)
	}
}
