package names

import (
	"fmt"

	"github.com/huntnet-tech/huntnet-chain/config"
	"github.com/huntnet-tech/huntnet-chain/internal/log"
	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
	"github.com/huntnet-tech/huntnet-chain/pkg/tx"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

// ApplyTx applies a transaction's name effects to the name database and
// appends one undo entry per applied operation, in output order.
//
// The transaction must already have passed CheckTx for the same height
// and views; ApplyTx performs no validation of its own.
func ApplyTx(transaction *tx.Transaction, height uint64, coins utxo.Set,
	view View, params *config.Params, undo *[]TxUndo) error {

	if height == config.MempoolHeight {
		panic("ApplyTx called with mempool height")
	}

	txid := transaction.Hash()

	// Historic bugs that should not be applied. Name outputs are marked
	// spent in that case; otherwise the UTXO set and the name database
	// would diverge.
	if typ, ok := params.IsHistoricBug(txid, height); ok && typ != config.BugFullyApply {
		if typ == config.BugFullyIgnore {
			for i, out := range transaction.Outputs {
				op, ok := DecodeScript(out.Script)
				if !ok || !op.IsAnyUpdate() {
					continue
				}
				outpoint := types.Outpoint{TxID: txid, Index: uint32(i)}
				if err := coins.Delete(outpoint); err != nil {
					log.Names.Error().
						Str("outpoint", outpoint.String()).
						Err(err).
						Msg("spending buggy name output failed")
				}
			}
		}
		return nil
	}

	// This check must come after the historic bug handling: some of the
	// outputs handled above were produced by transactions not flagged as
	// name transactions.
	if !transaction.IsNamed() {
		return nil
	}

	// Changes are encoded in the outputs. Apply them all in order.
	for i, out := range transaction.Outputs {
		op, ok := DecodeScript(out.Script)
		if !ok || !op.IsAnyUpdate() {
			continue
		}

		log.Names.Debug().
			Uint64("height", height).
			Bytes("name", op.Name).
			Msg("updating name")

		u, err := NewTxUndo(op.Name, view)
		if err != nil {
			return fmt.Errorf("snapshot undo for %q: %w", op.Name, err)
		}
		*undo = append(*undo, u)

		data := &Data{
			Value:          op.Value,
			Height:         height,
			UpdateOutpoint: types.Outpoint{TxID: txid, Index: uint32(i)},
			Address:        op.Address,
		}
		if err := view.SetName(op.Name, data, true); err != nil {
			return fmt.Errorf("set name %q: %w", op.Name, err)
		}
	}

	return nil
}
