package storage

import (
	"bytes"
	"testing"
)

func TestMemoryDB_PutGet(t *testing.T) {
	db := NewMemory()

	if err := db.Put([]byte("key"), []byte("value")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := db.Get([]byte("key"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("value")) {
		t.Errorf("got %q, want %q", got, "value")
	}

	if _, err := db.Get([]byte("missing")); err == nil {
		t.Error("Get on missing key succeeded")
	}
}

func TestMemoryDB_Delete(t *testing.T) {
	db := NewMemory()
	db.Put([]byte("key"), []byte("value"))

	if err := db.Delete([]byte("key")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := db.Has([]byte("key")); ok {
		t.Error("key survives delete")
	}
}

func TestMemoryDB_ForEachOrdered(t *testing.T) {
	db := NewMemory()
	db.Put([]byte("n/carol"), []byte("3"))
	db.Put([]byte("n/alice"), []byte("1"))
	db.Put([]byte("n/bob"), []byte("2"))
	db.Put([]byte("u/other"), []byte("x"))

	var keys []string
	err := db.ForEach([]byte("n/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach: %v", err)
	}

	want := []string{"n/alice", "n/bob", "n/carol"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestMemoryDB_ForEachEarlyStop(t *testing.T) {
	db := NewMemory()
	db.Put([]byte("a"), nil)
	db.Put([]byte("b"), nil)

	count := 0
	stop := bytes.ErrTooLarge // any sentinel
	err := db.ForEach(nil, func(_, _ []byte) error {
		count++
		return stop
	})
	if err != stop {
		t.Errorf("ForEach error = %v, want sentinel", err)
	}
	if count != 1 {
		t.Errorf("callback ran %d times, want 1", count)
	}
}

func TestMemoryDB_Batch(t *testing.T) {
	db := NewMemory()
	db.Put([]byte("old"), []byte("x"))

	batch := db.NewBatch()
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))
	batch.Delete([]byte("old"))

	// Nothing visible before commit.
	if ok, _ := db.Has([]byte("a")); ok {
		t.Error("batch write visible before commit")
	}

	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if ok, _ := db.Has([]byte("a")); !ok {
		t.Error("batch write missing after commit")
	}
	if ok, _ := db.Has([]byte("old")); ok {
		t.Error("batch delete missing after commit")
	}
}
