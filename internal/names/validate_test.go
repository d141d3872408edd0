package names

import (
	"testing"

	"github.com/huntnet-tech/huntnet-chain/internal/storage"
	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
	"github.com/huntnet-tech/huntnet-chain/pkg/tx"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

// memPlayers is an in-memory PlayerSet for tests.
type memPlayers map[string]bool

func (m memPlayers) HasPlayer(name []byte) (bool, error) {
	return m[string(name)], nil
}

func (m memPlayers) ForEachPlayer(fn func(name []byte) error) error {
	for name := range m {
		if err := fn([]byte(name)); err != nil {
			return err
		}
	}
	return nil
}

// registerName applies a registration and mirrors it into the coin view
// and the player set, producing a consistent state.
func registerName(t *testing.T, e *testEnv, players memPlayers, name, value string, height uint64) {
	t.Helper()
	reg := namedTx(nil,
		tx.Output{Value: amount, Script: BuildRegistration(testAddr(), []byte(name), []byte(value))})
	var undo []TxUndo
	if err := ApplyTx(reg, height, e.coins, e.view, e.params, &undo); err != nil {
		t.Fatalf("ApplyTx: %v", err)
	}
	e.addCoin(t, types.Outpoint{TxID: reg.Hash(), Index: 0}, amount, reg.Outputs[0].Script, height)
	players[name] = true
}

func TestValidateNameDB_Consistent(t *testing.T) {
	e := newEnv(t)
	players := memPlayers{}
	registerName(t, e, players, "alice", "v1", 10)
	registerName(t, e, players, "bob", "v1", 11)

	if err := ValidateNameDB(e.coins, e.view, players); err != nil {
		t.Errorf("consistent state rejected: %v", err)
	}
}

func TestValidateNameDB_MissingCoin(t *testing.T) {
	e := newEnv(t)
	players := memPlayers{"alice": true}

	// Record without any backing coin.
	e.view.SetName([]byte("alice"), testData("v1", 10), false)

	if err := ValidateNameDB(e.coins, e.view, players); err == nil {
		t.Error("orphaned record passed validation")
	}
}

func TestValidateNameDB_OrphanCoin(t *testing.T) {
	e := newEnv(t)
	players := memPlayers{}

	// Name coin in the UTXO set without a DB record.
	script := BuildRegistration(testAddr(), []byte("alice"), []byte("v1"))
	e.addCoin(t, outpoint(0x01, 0), amount, script, 10)

	if err := ValidateNameDB(e.coins, e.view, players); err == nil {
		t.Error("orphaned name coin passed validation")
	}
}

func TestValidateNameDB_HeightMismatch(t *testing.T) {
	e := newEnv(t)
	players := memPlayers{}
	registerName(t, e, players, "alice", "v1", 10)

	// Corrupt the record's height.
	d, _ := e.view.GetName([]byte("alice"))
	d.Height = 99
	e.view.SetName([]byte("alice"), d, false)

	if err := ValidateNameDB(e.coins, e.view, players); err == nil {
		t.Error("height mismatch passed validation")
	}
}

func TestValidateNameDB_GameMismatch(t *testing.T) {
	e := newEnv(t)
	players := memPlayers{}
	registerName(t, e, players, "alice", "v1", 10)

	// Living name missing from the game state.
	delete(players, "alice")
	if err := ValidateNameDB(e.coins, e.view, players); err == nil {
		t.Error("missing player passed validation")
	}

	// Player without a living name.
	players["alice"] = true
	players["ghost"] = true
	if err := ValidateNameDB(e.coins, e.view, players); err == nil {
		t.Error("ghost player passed validation")
	}
}

// Dead names need no backing coin and no player; they are tolerated as
// reclaimable slots.
func TestValidateNameDB_DeadName(t *testing.T) {
	e := newEnv(t)
	players := memPlayers{}

	dead := testData("v1", 10)
	dead.Dead = true
	e.view.SetName([]byte("carol"), dead, false)

	if err := ValidateNameDB(e.coins, e.view, players); err != nil {
		t.Errorf("dead name rejected: %v", err)
	}
}

func TestValidateNameDB_HistoryWithoutRecord(t *testing.T) {
	db := storage.NewMemory()
	store := NewStore(db, true)
	coins := utxo.NewStore(storage.NewMemory())

	store.SetName([]byte("alice"), testData("v1", 10), false)
	store.SetName([]byte("alice"), testData("v2", 20), true)
	store.DeleteName([]byte("alice"))

	// History for "alice" remains, but the record is gone.
	if err := ValidateNameDB(coins, store, nil); err == nil {
		t.Error("dangling history passed validation")
	}
}
