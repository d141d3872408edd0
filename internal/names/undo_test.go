package names

import (
	"encoding/json"
	"testing"

	"github.com/huntnet-tech/huntnet-chain/internal/storage"
)

func TestTxUndo_NewName(t *testing.T) {
	s := NewStore(storage.NewMemory(), false)

	u, err := NewTxUndo([]byte("alice"), s)
	if err != nil {
		t.Fatalf("NewTxUndo: %v", err)
	}
	if !u.IsNew {
		t.Fatal("undo for absent name should be IsNew")
	}

	// Simulate the registration, then undo it.
	s.SetName([]byte("alice"), testData("v1", 10), true)
	if err := u.Apply(s); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if d, _ := s.GetName([]byte("alice")); d != nil {
		t.Error("undo of a registration should delete the record")
	}
}

func TestTxUndo_ExistingName(t *testing.T) {
	s := NewStore(storage.NewMemory(), true)
	old := testData("v1", 10)
	s.SetName([]byte("alice"), old, false)

	u, err := NewTxUndo([]byte("alice"), s)
	if err != nil {
		t.Fatalf("NewTxUndo: %v", err)
	}
	if u.IsNew {
		t.Fatal("undo for existing name should not be IsNew")
	}

	s.SetName([]byte("alice"), testData("v2", 20), true)
	if err := u.Apply(s); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, _ := s.GetName([]byte("alice"))
	if !got.Equal(old) {
		t.Errorf("restored record = %+v, want %+v", got, old)
	}

	// The reversal must not have added history entries beyond the one
	// from the forward application.
	h, _ := s.GetHistory([]byte("alice"))
	if len(h) != 1 {
		t.Errorf("history length = %d, want 1", len(h))
	}
}

func TestTxUndo_JSONRoundTrip(t *testing.T) {
	u := TxUndo{
		Name:    []byte("alice"),
		IsNew:   false,
		OldData: testData("v1", 10),
	}

	raw, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got TxUndo
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(got.Name) != "alice" || got.IsNew || !got.OldData.Equal(u.OldData) {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
