package names

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/huntnet-tech/huntnet-chain/config"
	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
	"github.com/huntnet-tech/huntnet-chain/pkg/crypto"
	"github.com/huntnet-tech/huntnet-chain/pkg/tx"
)

// Validation errors surfaced to callers as transaction rejections.
var (
	ErrMultipleNameInputs  = errors.New("multiple name inputs into transaction")
	ErrMultipleNameOutputs = errors.New("multiple name outputs from transaction")
	ErrNameFlagMismatch    = errors.New("name flag does not match name content")
	ErrGreedyName          = errors.New("name output amount below minimum")
	ErrNameTooLong         = errors.New("name too long")
	ErrValueTooLong        = errors.New("value too long")
	ErrRandTooLarge        = errors.New("rand value too large")
	ErrCoinFetch           = errors.New("failed to fetch input coin")

	ErrNameNewWithInput = errors.New("name_new with previous name input")
	ErrNameNewWrongSize = errors.New("name_new hash has wrong size")

	ErrFirstUpdateWithNameInput = errors.New("new-style registration with name input")
	ErrFirstUpdateNonNewInput   = errors.New("name_firstupdate input is not a name_new")
	ErrFirstUpdateHashMismatch  = errors.New("name_firstupdate commitment hash mismatch")
	ErrFirstUpdateImmature      = errors.New("name_new is not mature for name_firstupdate")
	ErrFirstUpdateOnLivingName  = errors.New("name_firstupdate on a living name")

	ErrUpdateWithoutNameInput   = errors.New("name update without previous name input")
	ErrUpdateWithNonUpdateInput = errors.New("name_update input is not an update")
	ErrUpdateNameMismatch       = errors.New("name_update name differs from input")
	ErrUpdateOnMissingName      = errors.New("name_update on a name that does not exist")
	ErrUpdateOnDeadName         = errors.New("name_update on a dead name")
	ErrUpdateAmountDecreased    = errors.New("name amount decreased in update")
)

// CheckFlags modifies validation behavior.
type CheckFlags uint32

const (
	// CheckMempool suppresses the pre-commitment maturity check, which
	// depends on finalized heights unavailable in the mempool.
	CheckMempool CheckFlags = 1 << 0
)

// CheckTx decides whether a transaction's name content is valid at the
// given height against the coin view and name database. It does not
// mutate any state. A nil error means the transaction is acceptable.
func CheckTx(transaction *tx.Transaction, height uint64, coins utxo.Set,
	view Getter, params *config.Params, flags CheckFlags) error {

	txid := transaction.Hash()

	// Historic bugs are accepted as-is unless flagged for full application.
	if typ, ok := params.IsHistoricBug(txid, height); ok && typ != config.BugFullyApply {
		return nil
	}

	// Locate name inputs and outputs. At most one of each is allowed.
	nameIn := -1
	var opIn *NameOp
	var amountIn uint64
	var coinIn *utxo.UTXO
	for i, in := range transaction.Inputs {
		if in.PrevOut.IsZero() {
			continue // Coinbase input.
		}
		coin, err := coins.Get(in.PrevOut)
		if err != nil {
			return fmt.Errorf("%w: input %d (%s): %v", ErrCoinFetch, i, in.PrevOut, err)
		}
		op, ok := DecodeScript(coin.Script)
		if !ok {
			continue
		}
		if nameIn != -1 {
			return fmt.Errorf("%w: %s", ErrMultipleNameInputs, txid)
		}
		nameIn = i
		opIn = op
		amountIn = coin.Value
		coinIn = coin
	}

	nameOut := -1
	var opOut *NameOp
	for i, out := range transaction.Outputs {
		op, ok := DecodeScript(out.Script)
		if !ok {
			continue
		}
		if nameOut != -1 {
			return fmt.Errorf("%w: %s", ErrMultipleNameOutputs, txid)
		}
		nameOut = i
		opOut = op
	}

	// A transaction without the name flag must carry no name content.
	// A flagged transaction must have a name output.
	if !transaction.IsNamed() {
		if nameIn != -1 {
			return fmt.Errorf("%w: unflagged tx %s has name inputs", ErrNameFlagMismatch, txid)
		}
		if nameOut != -1 {
			return fmt.Errorf("%w: unflagged tx %s has name outputs", ErrNameFlagMismatch, txid)
		}
		return nil
	}
	if nameOut == -1 {
		return fmt.Errorf("%w: named tx %s has no name outputs", ErrNameFlagMismatch, txid)
	}

	// Minimum locked amount. The monotonic rule for updates comes below;
	// it does not hold for first updates due to the prepared-tx flow.
	if transaction.Outputs[nameOut].Value < config.NameNewCoinAmount {
		return ErrGreedyName
	}

	// name_new is simple and different from the update operations.
	if opOut.Type == OpNew {
		if nameIn != -1 {
			return ErrNameNewWithInput
		}
		if len(opOut.Hash) != crypto.Hash160Size {
			return fmt.Errorf("%w: %d bytes", ErrNameNewWrongSize, len(opOut.Hash))
		}
		return nil
	}

	// The remaining operations write a name record. A new-style
	// registration stands alone; everything else consumes a name input.
	if opOut.Type == OpFirstUpdate && opOut.NewStyle {
		if nameIn != -1 {
			return ErrFirstUpdateWithNameInput
		}
	} else if nameIn == -1 {
		return fmt.Errorf("%w: %s", ErrUpdateWithoutNameInput, txid)
	}

	name := opOut.Name
	if len(name) > config.MaxNameLength {
		return ErrNameTooLong
	}
	if len(opOut.Value) > config.MaxValueLength {
		return ErrValueTooLong
	}

	if opOut.Type == OpUpdate {
		if transaction.Outputs[nameOut].Value < amountIn {
			return fmt.Errorf("%w: tx %s", ErrUpdateAmountDecreased, txid)
		}
		if !opIn.IsAnyUpdate() {
			return ErrUpdateWithNonUpdateInput
		}
		if !bytes.Equal(name, opIn.Name) {
			return fmt.Errorf("%w: tx %s", ErrUpdateNameMismatch, txid)
		}

		// The name must exist and be living. This is redundant with the
		// move validator's checks against the game state, but the extra
		// check here can't hurt.
		old, err := view.GetName(name)
		if err != nil {
			return err
		}
		if old == nil {
			return ErrUpdateOnMissingName
		}
		if old.Dead {
			return ErrUpdateOnDeadName
		}

		// Internal consistency: the input coin from the UTXO database
		// must match the name database. A mismatch means corrupted state.
		if coinIn.Height != old.Height {
			panic(fmt.Sprintf("name %q: input coin height %d != name height %d",
				name, coinIn.Height, old.Height))
		}
		if transaction.Inputs[nameIn].PrevOut != old.UpdateOutpoint {
			panic(fmt.Sprintf("name %q: input outpoint %s != name outpoint %s",
				name, transaction.Inputs[nameIn].PrevOut, old.UpdateOutpoint))
		}

		return nil
	}

	// name_firstupdate. The commitment checks apply only to the
	// old-style registration method.
	if !opOut.NewStyle {
		if opIn.Type != OpNew {
			return ErrFirstUpdateNonNewInput
		}

		// Maturity of the commitment is checked only outside the mempool.
		if flags&CheckMempool == 0 {
			if coinIn.Height == config.MempoolHeight {
				panic(fmt.Sprintf("name %q: committed coin has mempool height", name))
			}
			if coinIn.Height+config.MinFirstUpdateDepth > height {
				return ErrFirstUpdateImmature
			}
		}

		if len(opOut.Rand) > crypto.Hash160Size {
			return fmt.Errorf("%w: %d bytes", ErrRandTooLarge, len(opOut.Rand))
		}

		commitment := crypto.NameCommitment(opOut.Rand, name)
		if !bytes.Equal(commitment[:], opIn.Hash) {
			return ErrFirstUpdateHashMismatch
		}
	}

	// A registration may only reclaim a dead slot, never a living name.
	old, err := view.GetName(name)
	if err != nil {
		return err
	}
	if old != nil && !old.Dead {
		return fmt.Errorf("%w: %q", ErrFirstUpdateOnLivingName, name)
	}

	// Conflicting registrations within one block are impossible: mining
	// validates against a layered view, so the living-name check above
	// already catches the second one.

	return nil
}
