package outbox

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueAndBatchOrder(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		err := store.Enqueue(Notification{
			UserID:   "u1",
			Email:    "u1@example.com",
			TaskID:   "t1",
			Subject:  "reminder",
			RemindAt: base.Add(offset),
		})
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	pending, err := store.GetBatch(10)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}
	for i := 1; i < len(pending); i++ {
		if pending[i].RemindAt.Before(pending[i-1].RemindAt) {
			t.Fatal("batch must come back oldest remind time first")
		}
	}

	if size, err := store.Size(); err != nil || size != 3 {
		t.Errorf("Size() = %d, %v; want 3", size, err)
	}
}

func TestGetBatchHonorsLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		if err := store.Enqueue(Notification{
			UserID:   "u1",
			RemindAt: time.Now().Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	pending, err := store.GetBatch(2)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
}

func TestRemoveDeletesEntry(t *testing.T) {
	store := openTestStore(t)

	if err := store.Enqueue(Notification{UserID: "u1", RemindAt: time.Now()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	pending, err := store.GetBatch(1)
	if err != nil || len(pending) != 1 {
		t.Fatalf("GetBatch: %v (%d)", err, len(pending))
	}

	if err := store.Remove(pending[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if size, _ := store.Size(); size != 0 {
		t.Errorf("Size after remove = %d, want 0", size)
	}
}

func TestRequeuePreservesRetryCount(t *testing.T) {
	store := openTestStore(t)

	if err := store.Enqueue(Notification{UserID: "u1", RemindAt: time.Now()}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	pending, _ := store.GetBatch(1)
	n := pending[0]
	n.Retries = 2

	if err := store.Requeue(n); err != nil {
		t.Fatalf("Requeue: %v", err)
	}

	pending, _ = store.GetBatch(1)
	if len(pending) != 1 {
		t.Fatalf("pending = %d after requeue, want 1", len(pending))
	}
	if pending[0].Retries != 2 {
		t.Errorf("Retries = %d, want 2", pending[0].Retries)
	}
	if pending[0].ID != n.ID {
		t.Errorf("ID changed across requeue: %s != %s", pending[0].ID, n.ID)
	}
	if size, _ := store.Size(); size != 1 {
		t.Errorf("Size = %d, want 1", size)
	}
}

func TestCleanupDropsStaleEntries(t *testing.T) {
	store := openTestStore(t)

	stale := Notification{UserID: "u1", RemindAt: time.Now(), Queued: time.Now().Add(-48 * time.Hour)}
	fresh := Notification{UserID: "u2", RemindAt: time.Now()}
	if err := store.Enqueue(stale); err != nil {
		t.Fatalf("Enqueue stale: %v", err)
	}
	if err := store.Enqueue(fresh); err != nil {
		t.Fatalf("Enqueue fresh: %v", err)
	}

	if err := store.Cleanup(time.Now().Add(-24 * time.Hour)); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	pending, err := store.GetBatch(10)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(pending) != 1 || pending[0].UserID != "u2" {
		t.Errorf("pending = %+v, want only the fresh entry", pending)
	}
}
