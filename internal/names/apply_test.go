package names

import (
	"testing"

	"github.com/huntnet-tech/huntnet-chain/config"
	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
	"github.com/huntnet-tech/huntnet-chain/pkg/tx"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

// snapshot captures the full name state for equality comparison.
func snapshot(t *testing.T, view View) map[string]*Data {
	t.Helper()
	out := make(map[string]*Data)
	err := view.IterateNames(nil, func(name []byte, data *Data) error {
		out[string(name)] = data.Clone()
		return nil
	})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return out
}

func sameState(a, b map[string]*Data) bool {
	if len(a) != len(b) {
		return false
	}
	for name, data := range a {
		if !data.Equal(b[name]) {
			return false
		}
	}
	return true
}

func TestApplyTx_Registration(t *testing.T) {
	e := newEnv(t)

	reg := namedTx(nil,
		tx.Output{Value: amount, Script: BuildRegistration(testAddr(), []byte("alice"), []byte("v1"))})

	var undo []TxUndo
	if err := ApplyTx(reg, 100, e.coins, e.view, e.params, &undo); err != nil {
		t.Fatalf("ApplyTx: %v", err)
	}

	data, err := e.view.GetName([]byte("alice"))
	if err != nil || data == nil {
		t.Fatalf("GetName after apply: %v, %v", data, err)
	}
	if string(data.Value) != "v1" || data.Height != 100 || data.Dead {
		t.Errorf("record = %+v", data)
	}
	want := types.Outpoint{TxID: reg.Hash(), Index: 0}
	if data.UpdateOutpoint != want {
		t.Errorf("outpoint = %s, want %s", data.UpdateOutpoint, want)
	}

	if len(undo) != 1 || !undo[0].IsNew {
		t.Fatalf("undo = %+v, want one IsNew entry", undo)
	}
}

func TestApplyTx_PlainTxIsNoOp(t *testing.T) {
	e := newEnv(t)
	plain := &tx.Transaction{
		Version: tx.VersionPlain,
		Outputs: []tx.Output{{Value: 100, Script: testAddr()}},
	}
	var undo []TxUndo
	if err := ApplyTx(plain, 100, e.coins, e.view, e.params, &undo); err != nil {
		t.Fatalf("ApplyTx: %v", err)
	}
	if len(undo) != 0 {
		t.Errorf("undo entries for a plain tx: %+v", undo)
	}
}

// Applying a block's operations and replaying the undo list in reverse
// restores the exact pre-block state.
func TestApplyTx_UndoRoundTrip(t *testing.T) {
	e := newEnv(t)

	// Pre-block state: "bob" exists with matching coin.
	in := setupLivingName(t, e, "bob", amount, 50)
	before := snapshot(t, e.view)

	// Block: one registration and one update.
	reg := namedTx(nil,
		tx.Output{Value: amount, Script: BuildRegistration(testAddr(), []byte("alice"), []byte("v1"))})
	upd := namedTx([]types.Outpoint{in},
		tx.Output{Value: amount, Script: BuildUpdate(testAddr(), []byte("bob"), []byte("v2"))})

	var undo []TxUndo
	for _, transaction := range []*tx.Transaction{reg, upd} {
		if err := CheckTx(transaction, 100, e.coins, e.view, e.params, 0); err != nil {
			t.Fatalf("CheckTx: %v", err)
		}
		if err := ApplyTx(transaction, 100, e.coins, e.view, e.params, &undo); err != nil {
			t.Fatalf("ApplyTx: %v", err)
		}
	}
	if len(undo) != 2 {
		t.Fatalf("undo length = %d, want 2", len(undo))
	}
	if sameState(before, snapshot(t, e.view)) {
		t.Fatal("block application did not change the state")
	}

	// Reverse replay.
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i].Apply(e.view); err != nil {
			t.Fatalf("undo apply: %v", err)
		}
	}
	if !sameState(before, snapshot(t, e.view)) {
		t.Error("state differs after undo replay")
	}
}

// A revival replaces the dead record wholesale; undoing it brings the
// dead record back.
func TestApplyTx_RevivalUndo(t *testing.T) {
	e := newEnv(t)
	dead := testData("old", 40)
	dead.Dead = true
	e.view.SetName([]byte("carol"), dead, false)
	before := snapshot(t, e.view)

	reg := namedTx(nil,
		tx.Output{Value: amount, Script: BuildRegistration(testAddr(), []byte("carol"), []byte("fresh"))})
	if err := CheckTx(reg, 101, e.coins, e.view, e.params, 0); err != nil {
		t.Fatalf("CheckTx: %v", err)
	}

	var undo []TxUndo
	if err := ApplyTx(reg, 101, e.coins, e.view, e.params, &undo); err != nil {
		t.Fatalf("ApplyTx: %v", err)
	}

	data, _ := e.view.GetName([]byte("carol"))
	if data.Dead || string(data.Value) != "fresh" || data.Height != 101 {
		t.Errorf("revived record = %+v", data)
	}

	for i := len(undo) - 1; i >= 0; i-- {
		undo[i].Apply(e.view)
	}
	if !sameState(before, snapshot(t, e.view)) {
		t.Error("dead record not restored by undo")
	}
}

// A fully-ignored historic bug spends the name outputs without touching
// the name database.
func TestApplyTx_HistoricBugFullyIgnore(t *testing.T) {
	e := newEnv(t)

	reg := namedTx(nil,
		tx.Output{Value: amount, Script: BuildRegistration(testAddr(), []byte("alice"), []byte("v1"))})
	e.params.AddHistoricBug(reg.Hash(), 100, config.BugFullyIgnore)

	// The output exists in the coin view, as it would after block
	// processing created it.
	op := types.Outpoint{TxID: reg.Hash(), Index: 0}
	e.coins.Put(&utxo.UTXO{Outpoint: op, Value: amount, Script: reg.Outputs[0].Script, Height: 100})

	var undo []TxUndo
	if err := ApplyTx(reg, 100, e.coins, e.view, e.params, &undo); err != nil {
		t.Fatalf("ApplyTx: %v", err)
	}

	if d, _ := e.view.GetName([]byte("alice")); d != nil {
		t.Error("bug-listed tx wrote to the name database")
	}
	if len(undo) != 0 {
		t.Errorf("undo entries for ignored tx: %+v", undo)
	}
	if has, _ := e.coins.Has(op); has {
		t.Error("buggy name output still spendable")
	}
}

// BugInUTXO leaves the coin alone and skips the name database.
func TestApplyTx_HistoricBugInUTXO(t *testing.T) {
	e := newEnv(t)

	reg := namedTx(nil,
		tx.Output{Value: amount, Script: BuildRegistration(testAddr(), []byte("alice"), []byte("v1"))})
	e.params.AddHistoricBug(reg.Hash(), 100, config.BugInUTXO)

	op := types.Outpoint{TxID: reg.Hash(), Index: 0}
	e.coins.Put(&utxo.UTXO{Outpoint: op, Value: amount, Script: reg.Outputs[0].Script, Height: 100})

	var undo []TxUndo
	if err := ApplyTx(reg, 100, e.coins, e.view, e.params, &undo); err != nil {
		t.Fatalf("ApplyTx: %v", err)
	}
	if d, _ := e.view.GetName([]byte("alice")); d != nil {
		t.Error("bug-listed tx wrote to the name database")
	}
	if has, _ := e.coins.Has(op); !has {
		t.Error("in-utxo bug output was spent")
	}
}

func TestApplyTx_MempoolHeightPanics(t *testing.T) {
	e := newEnv(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for mempool height")
		}
	}()
	var undo []TxUndo
	reg := namedTx(nil,
		tx.Output{Value: amount, Script: BuildRegistration(testAddr(), []byte("alice"), []byte("v1"))})
	ApplyTx(reg, config.MempoolHeight, e.coins, e.view, e.params, &undo)
}
