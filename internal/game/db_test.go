package game

import (
	"bytes"
	"testing"

	"github.com/huntnet-tech/huntnet-chain/internal/names"
	"github.com/huntnet-tech/huntnet-chain/internal/storage"
	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

func TestStore_Players(t *testing.T) {
	s := NewStore(storage.NewMemory())

	if ok, _ := s.HasPlayer([]byte("alice")); ok {
		t.Error("player exists in empty store")
	}

	s.AddPlayer([]byte("alice"))
	s.AddPlayer([]byte("bob"))

	if ok, _ := s.HasPlayer([]byte("alice")); !ok {
		t.Error("added player missing")
	}

	var got []string
	s.ForEachPlayer(func(name []byte) error {
		got = append(got, string(name))
		return nil
	})
	if len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("players = %v", got)
	}

	s.RemovePlayer([]byte("alice"))
	if ok, _ := s.HasPlayer([]byte("alice")); ok {
		t.Error("removed player still present")
	}
}

func TestStore_KillPlayers(t *testing.T) {
	s := NewStore(storage.NewMemory())
	view := names.NewStore(storage.NewMemory(), false)
	coins := utxo.NewStore(storage.NewMemory())

	addr := types.Script{Type: types.ScriptTypeP2PKH, Data: bytes.Repeat([]byte{0x01}, 20)}
	op := types.Outpoint{TxID: types.Hash{0x05}, Index: 0}
	coins.Put(&utxo.UTXO{Outpoint: op, Value: 100, Script: addr, Height: 10})
	view.SetName([]byte("carol"), &names.Data{
		Value:          []byte("v1"),
		Height:         10,
		UpdateOutpoint: op,
		Address:        addr,
	}, false)
	s.AddPlayer([]byte("carol"))

	revived, err := s.KillPlayers(view, coins, [][]byte{[]byte("carol"), []byte("nobody")})
	if err != nil {
		t.Fatalf("KillPlayers: %v", err)
	}
	if len(revived) != 1 || string(revived[0]) != "carol" {
		t.Fatalf("revived = %v, want [carol]", revived)
	}

	data, _ := view.GetName([]byte("carol"))
	if data == nil || !data.Dead {
		t.Errorf("record = %+v, want dead", data)
	}
	if ok, _ := s.HasPlayer([]byte("carol")); ok {
		t.Error("killed player still present")
	}
	if has, _ := coins.Has(op); has {
		t.Error("killed name's coin still unspent")
	}

	// Killing an already-dead name is a no-op.
	revived, err = s.KillPlayers(view, coins, [][]byte{[]byte("carol")})
	if err != nil {
		t.Fatalf("KillPlayers (again): %v", err)
	}
	if len(revived) != 0 {
		t.Errorf("second kill revived = %v, want none", revived)
	}
}
