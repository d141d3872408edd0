package mempool

import (
	"fmt"

	"github.com/huntnet-tech/huntnet-chain/internal/names"
	"github.com/huntnet-tech/huntnet-chain/pkg/tx"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

// NameIndex is the secondary index over the pool enforcing per-name
// uniqueness for pending registrations and updates, and per-hash
// uniqueness for pre-commitments. All methods are called with the pool
// lock held.
type NameIndex struct {
	news    map[string]types.Hash // commitment hash -> txid
	regs    map[string]types.Hash // name -> registering txid
	updates map[string]types.Hash // name -> updating txid
}

// newNameIndex creates an empty index.
func newNameIndex() *NameIndex {
	return &NameIndex{
		news:    make(map[string]types.Hash),
		regs:    make(map[string]types.Hash),
		updates: make(map[string]types.Hash),
	}
}

// nameOps decodes the name operations in a transaction's outputs.
// Unflagged transactions carry none by consensus rule.
func nameOps(t *tx.Transaction) []*names.NameOp {
	if !t.IsNamed() {
		return nil
	}
	var ops []*names.NameOp
	for _, out := range t.Outputs {
		if op, ok := names.DecodeScript(out.Script); ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// add records a transaction's name operations. CheckTx must have
// accepted the transaction first; a collision here is an invariant
// violation.
func (idx *NameIndex) add(txHash types.Hash, t *tx.Transaction) {
	for _, op := range nameOps(t) {
		switch op.Type {
		case names.OpNew:
			if prev, ok := idx.news[string(op.Hash)]; ok {
				// Re-adding the same transaction is fine (idempotent).
				if prev != txHash {
					panic(fmt.Sprintf("name_new hash %x already pending in %s", op.Hash, prev))
				}
				continue
			}
			idx.news[string(op.Hash)] = txHash

		case names.OpFirstUpdate:
			if _, ok := idx.regs[string(op.Name)]; ok {
				panic(fmt.Sprintf("registration for %q already pending", op.Name))
			}
			idx.regs[string(op.Name)] = txHash

		case names.OpUpdate:
			if _, ok := idx.updates[string(op.Name)]; ok {
				panic(fmt.Sprintf("update for %q already pending", op.Name))
			}
			idx.updates[string(op.Name)] = txHash
		}
	}
}

// remove erases a transaction's index entries. Each entry must be
// present.
func (idx *NameIndex) remove(t *tx.Transaction) {
	for _, op := range nameOps(t) {
		switch op.Type {
		case names.OpNew:
			if _, ok := idx.news[string(op.Hash)]; !ok {
				panic(fmt.Sprintf("removing absent name_new hash %x", op.Hash))
			}
			delete(idx.news, string(op.Hash))

		case names.OpFirstUpdate:
			if _, ok := idx.regs[string(op.Name)]; !ok {
				panic(fmt.Sprintf("removing absent registration for %q", op.Name))
			}
			delete(idx.regs, string(op.Name))

		case names.OpUpdate:
			if _, ok := idx.updates[string(op.Name)]; !ok {
				panic(fmt.Sprintf("removing absent update for %q", op.Name))
			}
			delete(idx.updates, string(op.Name))
		}
	}
}

// checkTx reports whether the transaction's name operations are free of
// conflicts with the pending pool. Chained updates on the same name are
// deliberately rejected: the pool tracks only a single operation per
// name instead of a dependency graph, and accepts only the first.
func (idx *NameIndex) checkTx(t *tx.Transaction) bool {
	for _, op := range nameOps(t) {
		switch op.Type {
		case names.OpNew:
			if prev, ok := idx.news[string(op.Hash)]; ok && prev != t.Hash() {
				return false
			}
		case names.OpFirstUpdate:
			if _, ok := idx.regs[string(op.Name)]; ok {
				return false
			}
		case names.OpUpdate:
			if _, ok := idx.updates[string(op.Name)]; ok {
				return false
			}
		}
	}
	return true
}

// txForName returns the txid of the pending registration or update for
// a name. At most one exists: the two key sets are disjoint.
func (idx *NameIndex) txForName(name []byte) (types.Hash, bool) {
	if h, ok := idx.regs[string(name)]; ok {
		if _, both := idx.updates[string(name)]; both {
			panic(fmt.Sprintf("name %q pending as both registration and update", name))
		}
		return h, true
	}
	if h, ok := idx.updates[string(name)]; ok {
		return h, true
	}
	return types.Hash{}, false
}

// check cross-validates the index against the pool contents and the
// chain-state views: every entry must be justified by a pool tx, every
// pending registration must target an absent-or-dead name, every pending
// update a living one, and the key sets must be disjoint.
func (idx *NameIndex) check(pool map[types.Hash]*entry, view names.Getter) error {
	seenRegs := make(map[string]bool)
	seenUpdates := make(map[string]bool)

	for txHash, e := range pool {
		for _, op := range nameOps(e.tx) {
			switch op.Type {
			case names.OpNew:
				mapped, ok := idx.news[string(op.Hash)]
				if !ok || mapped != txHash {
					return fmt.Errorf("name_new hash %x not indexed for %s", op.Hash, txHash)
				}

			case names.OpFirstUpdate:
				mapped, ok := idx.regs[string(op.Name)]
				if !ok || mapped != txHash {
					return fmt.Errorf("registration %q not indexed for %s", op.Name, txHash)
				}
				if seenRegs[string(op.Name)] {
					return fmt.Errorf("duplicate pending registration for %q", op.Name)
				}
				seenRegs[string(op.Name)] = true

				data, err := view.GetName(op.Name)
				if err != nil {
					return err
				}
				if data != nil && !data.Dead {
					return fmt.Errorf("pending registration for living name %q", op.Name)
				}

			case names.OpUpdate:
				mapped, ok := idx.updates[string(op.Name)]
				if !ok || mapped != txHash {
					return fmt.Errorf("update %q not indexed for %s", op.Name, txHash)
				}
				if seenUpdates[string(op.Name)] {
					return fmt.Errorf("duplicate pending update for %q", op.Name)
				}
				seenUpdates[string(op.Name)] = true

				data, err := view.GetName(op.Name)
				if err != nil {
					return err
				}
				if data == nil {
					return fmt.Errorf("pending update for missing name %q", op.Name)
				}
				if data.Dead {
					return fmt.Errorf("pending update for dead name %q", op.Name)
				}
			}
		}
	}

	if len(seenRegs) != len(idx.regs) {
		return fmt.Errorf("registration index has %d entries, pool justifies %d",
			len(idx.regs), len(seenRegs))
	}
	if len(seenUpdates) != len(idx.updates) {
		return fmt.Errorf("update index has %d entries, pool justifies %d",
			len(idx.updates), len(seenUpdates))
	}

	// A name can be pending as a registration or an update, never both.
	for name := range idx.regs {
		if _, ok := idx.updates[name]; ok {
			return fmt.Errorf("name %q pending as both registration and update", []byte(name))
		}
	}

	return nil
}
