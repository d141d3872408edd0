package names

import (
	"errors"
	"testing"

	"github.com/huntnet-tech/huntnet-chain/internal/storage"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

func testData(value string, height uint64) *Data {
	return &Data{
		Value:          []byte(value),
		Height:         height,
		UpdateOutpoint: types.Outpoint{TxID: types.Hash{0x01}, Index: 0},
		Address:        testAddr(),
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	s := NewStore(storage.NewMemory(), false)

	if d, err := s.GetName([]byte("alice")); err != nil || d != nil {
		t.Fatalf("GetName on empty store = %v, %v", d, err)
	}

	want := testData("v1", 10)
	if err := s.SetName([]byte("alice"), want, true); err != nil {
		t.Fatalf("SetName: %v", err)
	}

	got, err := s.GetName([]byte("alice"))
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if err := s.DeleteName([]byte("alice")); err != nil {
		t.Fatalf("DeleteName: %v", err)
	}
	if d, _ := s.GetName([]byte("alice")); d != nil {
		t.Error("record survives delete")
	}
}

func TestStore_JSONRoundTrip(t *testing.T) {
	s := NewStore(storage.NewMemory(), false)
	want := &Data{
		Value:          []byte{0x00, 0xff, 0x10},
		Height:         42,
		UpdateOutpoint: types.Outpoint{TxID: types.Hash{0xaa}, Index: 3},
		Address:        testAddr(),
		Dead:           true,
	}
	if err := s.SetName([]byte("x"), want, false); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	got, err := s.GetName([]byte("x"))
	if err != nil {
		t.Fatalf("GetName: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("round trip: got %+v, want %+v", got, want)
	}
}

func TestStore_History(t *testing.T) {
	s := NewStore(storage.NewMemory(), true)

	s.SetName([]byte("alice"), testData("v1", 10), true)
	s.SetName([]byte("alice"), testData("v2", 20), true)
	s.SetName([]byte("alice"), testData("v3", 30), true)

	h, err := s.GetHistory([]byte("alice"))
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("history length = %d, want 2", len(h))
	}
	if string(h[0].Value) != "v1" || string(h[1].Value) != "v2" {
		t.Errorf("history = %q, %q", h[0].Value, h[1].Value)
	}
}

func TestStore_HistorySuppressed(t *testing.T) {
	s := NewStore(storage.NewMemory(), true)

	s.SetName([]byte("alice"), testData("v1", 10), true)
	// history=false is the undo-replay path: no history pollution.
	s.SetName([]byte("alice"), testData("v2", 20), false)

	h, err := s.GetHistory([]byte("alice"))
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(h) != 0 {
		t.Errorf("history length = %d, want 0", len(h))
	}
}

func TestStore_HistoryDisabled(t *testing.T) {
	s := NewStore(storage.NewMemory(), false)
	s.SetName([]byte("alice"), testData("v1", 10), true)
	s.SetName([]byte("alice"), testData("v2", 20), true)

	if _, err := s.GetHistory([]byte("alice")); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("expected ErrHistoryDisabled, got %v", err)
	}
	names, err := s.HistoryNames()
	if err != nil {
		t.Fatalf("HistoryNames: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("history keys written while disabled: %q", names)
	}
}

func TestStore_IterateOrder(t *testing.T) {
	s := NewStore(storage.NewMemory(), false)
	for _, n := range []string{"carol", "alice", "bob", "dave"} {
		s.SetName([]byte(n), testData("v", 1), false)
	}

	var got []string
	err := s.IterateNames([]byte("b"), func(name []byte, _ *Data) error {
		got = append(got, string(name))
		return nil
	})
	if err != nil {
		t.Fatalf("IterateNames: %v", err)
	}
	want := []string{"bob", "carol", "dave"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCache_OverlayAndFlush(t *testing.T) {
	store := NewStore(storage.NewMemory(), false)
	store.SetName([]byte("base"), testData("v0", 1), false)

	c := NewCache(store)
	c.SetName([]byte("alice"), testData("v1", 10), true)
	c.DeleteName([]byte("base"))

	// Overlay is visible through the cache but not yet persisted.
	if d, _ := c.GetName([]byte("alice")); d == nil {
		t.Fatal("overlay write not visible")
	}
	if d, _ := c.GetName([]byte("base")); d != nil {
		t.Fatal("overlay delete not visible")
	}
	if d, _ := store.GetName([]byte("alice")); d != nil {
		t.Fatal("overlay write leaked to store before flush")
	}

	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if d, _ := store.GetName([]byte("alice")); d == nil {
		t.Error("flushed write missing from store")
	}
	if d, _ := store.GetName([]byte("base")); d != nil {
		t.Error("flushed delete missing from store")
	}
}

func TestCache_HistoryThroughFlush(t *testing.T) {
	store := NewStore(storage.NewMemory(), true)
	store.SetName([]byte("alice"), testData("v1", 10), false)

	c := NewCache(store)
	c.SetName([]byte("alice"), testData("v2", 20), true)
	c.SetName([]byte("alice"), testData("v3", 30), true)
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	h, err := store.GetHistory([]byte("alice"))
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("history length = %d, want 2", len(h))
	}
	if string(h[0].Value) != "v1" || string(h[1].Value) != "v2" {
		t.Errorf("history = %q, %q", h[0].Value, h[1].Value)
	}
}

func TestCache_IterateMergesOverlay(t *testing.T) {
	store := NewStore(storage.NewMemory(), false)
	store.SetName([]byte("alice"), testData("v1", 1), false)
	store.SetName([]byte("carol"), testData("v1", 1), false)

	c := NewCache(store)
	c.SetName([]byte("bob"), testData("v1", 2), false)
	c.DeleteName([]byte("carol"))

	var got []string
	c.IterateNames(nil, func(name []byte, _ *Data) error {
		got = append(got, string(name))
		return nil
	})
	want := []string{"alice", "bob"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStore_SetDeleteNoResidue(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db, false)

	s.SetName([]byte("alice"), testData("v1", 10), false)
	s.DeleteName([]byte("alice"))

	count := 0
	db.ForEach(nil, func(_, _ []byte) error {
		count++
		return nil
	})
	if count != 0 {
		t.Errorf("%d keys left after set+delete, want 0", count)
	}
}
