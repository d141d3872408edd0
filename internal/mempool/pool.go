// Package mempool manages pending transactions waiting for block inclusion.
package mempool

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/huntnet-tech/huntnet-chain/config"
	"github.com/huntnet-tech/huntnet-chain/internal/names"
	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
	"github.com/huntnet-tech/huntnet-chain/pkg/tx"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

// Mempool errors.
var (
	ErrAlreadyExists = errors.New("transaction already in mempool")
	ErrConflict      = errors.New("transaction conflicts with existing mempool entry")
	ErrNameConflict  = errors.New("transaction conflicts with pending name operation")
	ErrPoolFull      = errors.New("mempool is full")
	ErrValidation    = errors.New("transaction failed validation")
	ErrFeeTooLow     = errors.New("transaction fee below minimum")
)

// entry wraps a transaction with its fee and metadata.
type entry struct {
	tx      *tx.Transaction
	txHash  types.Hash
	fee     uint64
	feeRate float64 // fee per byte of SigningBytes.
}

// Pool holds unconfirmed transactions and the name index over them.
type Pool struct {
	mu         sync.RWMutex
	txs        map[types.Hash]*entry         // txHash -> entry
	spends     map[types.Outpoint]types.Hash // outpoint -> txHash (conflict index)
	names      *NameIndex
	maxSize    int
	minFeeRate uint64 // Minimum fee rate in base units per byte (0 = no minimum).

	coins    utxo.Set
	view     names.Getter
	params   *config.Params
	heightFn func() uint64 // Current chain height (nil = mempool-height checks only).
}

// New creates a new mempool validating against the given chain-state views.
func New(coins utxo.Set, view names.Getter, params *config.Params, maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = 5000
	}
	return &Pool{
		txs:     make(map[types.Hash]*entry),
		spends:  make(map[types.Outpoint]types.Hash),
		names:   newNameIndex(),
		maxSize: maxSize,
		coins:   coins,
		view:    view,
		params:  params,
	}
}

// SetMinFeeRate sets the minimum fee rate (base units per byte) for acceptance.
func (p *Pool) SetMinFeeRate(rate uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minFeeRate = rate
}

// SetHeightFn provides the current chain height, used to validate name
// operations at the height they would confirm at.
func (p *Pool) SetHeightFn(fn func() uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heightFn = fn
}

// nextHeight returns the height used for mempool-context name checks.
func (p *Pool) nextHeight() uint64 {
	if p.heightFn == nil {
		return config.MempoolHeight
	}
	return p.heightFn() + 1
}

// Add validates and adds a transaction to the mempool.
// Returns the computed fee. Rejects duplicates, double-spend conflicts,
// and name operations colliding with pending ones.
func (p *Pool) Add(transaction *tx.Transaction) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	txHash := transaction.Hash()

	// Reject duplicates.
	if _, exists := p.txs[txHash]; exists {
		return 0, ErrAlreadyExists
	}

	// Check for double-spend conflicts.
	for _, in := range transaction.Inputs {
		if in.PrevOut.IsZero() {
			continue
		}
		if conflictHash, exists := p.spends[in.PrevOut]; exists {
			return 0, fmt.Errorf("%w: input %s already spent by %s", ErrConflict, in.PrevOut, conflictHash)
		}
	}

	// Structural validation and signatures.
	if err := transaction.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := transaction.VerifySignatures(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// UTXO-aware fee computation.
	var totalInput uint64
	for i, in := range transaction.Inputs {
		if in.PrevOut.IsZero() {
			continue
		}
		coin, err := p.coins.Get(in.PrevOut)
		if err != nil {
			return 0, fmt.Errorf("%w: input %d (%s): %v", ErrValidation, i, in.PrevOut, err)
		}
		if totalInput > math.MaxUint64-coin.Value {
			return 0, fmt.Errorf("%w: input values overflow", ErrValidation)
		}
		totalInput += coin.Value
	}
	totalOutput, err := transaction.TotalOutputValue()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if totalInput < totalOutput {
		return 0, fmt.Errorf("%w: inputs=%d outputs=%d", ErrValidation, totalInput, totalOutput)
	}
	fee := totalInput - totalOutput

	// Name pool policy first: one pending operation per name, one per
	// commitment hash. Chained operations must be rejected here before
	// the consensus check sees their inconsistent input coins.
	if !p.names.checkTx(transaction) {
		return 0, ErrNameConflict
	}

	// Name consensus rules, with the commitment maturity check
	// suppressed (it depends on finalized heights).
	if err := names.CheckTx(transaction, p.nextHeight(), p.coins, p.view, p.params, names.CheckMempool); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Compute fee rate for minimum check and eviction comparison.
	sigBytes := len(transaction.SigningBytes())
	var feeRate float64
	if sigBytes > 0 {
		feeRate = float64(fee) / float64(sigBytes)
	}

	// Enforce minimum fee rate (fee per byte of SigningBytes).
	if p.minFeeRate > 0 {
		requiredFee := p.minFeeRate * uint64(sigBytes)
		if fee < requiredFee {
			return 0, fmt.Errorf("%w: got %d, need %d (%d bytes × %d rate)", ErrFeeTooLow, fee, requiredFee, sigBytes, p.minFeeRate)
		}
	}

	// Check pool capacity — evict lowest fee-rate if new tx pays more.
	if len(p.txs) >= p.maxSize {
		lowestHash, lowestRate := p.findLowestFeeRate()
		if feeRate <= lowestRate {
			return 0, ErrPoolFull
		}
		p.removeLocked(lowestHash)
	}

	e := &entry{
		tx:      transaction,
		txHash:  txHash,
		fee:     fee,
		feeRate: feeRate,
	}

	// Add to pool, conflict index, and name index.
	p.txs[txHash] = e
	for _, in := range transaction.Inputs {
		if !in.PrevOut.IsZero() {
			p.spends[in.PrevOut] = txHash
		}
	}
	p.names.add(txHash, transaction)

	return fee, nil
}

// Remove removes a transaction from the mempool by hash.
func (p *Pool) Remove(txHash types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(txHash)
}

func (p *Pool) removeLocked(txHash types.Hash) {
	e, exists := p.txs[txHash]
	if !exists {
		return
	}
	// Clean up spend and name indexes.
	for _, in := range e.tx.Inputs {
		if !in.PrevOut.IsZero() {
			delete(p.spends, in.PrevOut)
		}
	}
	p.names.remove(e.tx)
	delete(p.txs, txHash)
}

// removeRecursiveLocked removes a transaction and every pool descendant
// spending its outputs. Returns the removed transactions.
func (p *Pool) removeRecursiveLocked(txHash types.Hash) []*tx.Transaction {
	e, exists := p.txs[txHash]
	if !exists {
		return nil
	}

	var removed []*tx.Transaction
	for i := range e.tx.Outputs {
		child := types.Outpoint{TxID: txHash, Index: uint32(i)}
		if childHash, ok := p.spends[child]; ok {
			removed = append(removed, p.removeRecursiveLocked(childHash)...)
		}
	}
	p.removeLocked(txHash)
	return append(removed, e.tx)
}

// RemoveRecursive removes a transaction and its in-pool descendants,
// returning everything removed.
func (p *Pool) RemoveRecursive(txHash types.Hash) []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeRecursiveLocked(txHash)
}

// RemoveConfirmed removes all transactions that were included in a block.
func (p *Pool) RemoveConfirmed(transactions []*tx.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range transactions {
		p.removeLocked(t.Hash())
	}
}

// RemoveNameConflicts evicts pool transactions whose pending
// registration collides with a first-update confirmed by the given block
// transaction, including their descendants. Called while connecting a
// block, before the block's own name operations are applied.
func (p *Pool) RemoveNameConflicts(blockTx *tx.Transaction) []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	var removed []*tx.Transaction
	for _, op := range nameOps(blockTx) {
		if op.Type != names.OpFirstUpdate {
			continue
		}
		if pending, ok := p.names.regs[string(op.Name)]; ok {
			removed = append(removed, p.removeRecursiveLocked(pending)...)
		}
	}
	return removed
}

// RemoveReviveConflicts evicts pending updates for names that the game
// state just transitioned from living to dead: those updates can no
// longer confirm, and the names are open for reclamation.
func (p *Pool) RemoveReviveConflicts(revived [][]byte) []*tx.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	var removed []*tx.Transaction
	for _, name := range revived {
		if pending, ok := p.names.updates[string(name)]; ok {
			removed = append(removed, p.removeRecursiveLocked(pending)...)
		}
	}
	return removed
}

// TxForName returns the txid of the pending registration or update for
// the given name, if any.
func (p *Pool) TxForName(name []byte) (types.Hash, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.names.txForName(name)
}

// CheckNames runs the name-index consistency sweep against the current
// name view. A non-nil error indicates an internal invariant violation.
func (p *Pool) CheckNames(view names.Getter) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.names.check(p.txs, view)
}

// Has checks if a transaction exists in the mempool.
func (p *Pool) Has(txHash types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.txs[txHash]
	return exists
}

// Get retrieves a transaction from the mempool.
func (p *Pool) Get(txHash types.Hash) *tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, exists := p.txs[txHash]
	if !exists {
		return nil
	}
	return e.tx
}

// GetFee returns the fee for a transaction in the mempool (0 if not found).
func (p *Pool) GetFee(txHash types.Hash) uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, exists := p.txs[txHash]
	if !exists {
		return 0
	}
	return e.fee
}

// Count returns the number of transactions in the mempool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// Hashes returns the hashes of all transactions in the mempool.
func (p *Pool) Hashes() []types.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()
	hashes := make([]types.Hash, 0, len(p.txs))
	for h := range p.txs {
		hashes = append(hashes, h)
	}
	return hashes
}

// findLowestFeeRate returns the hash and fee rate of the lowest fee-rate entry.
// Must be called with p.mu held.
func (p *Pool) findLowestFeeRate() (types.Hash, float64) {
	var lowestHash types.Hash
	lowestRate := math.MaxFloat64
	for h, e := range p.txs {
		if e.feeRate < lowestRate {
			lowestRate = e.feeRate
			lowestHash = h
		}
	}
	return lowestHash, lowestRate
}

// SelectForBlock returns transactions ordered by fee rate (highest first),
// up to the given limit.
func (p *Pool) SelectForBlock(limit int) []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]*entry, 0, len(p.txs))
	for _, e := range p.txs {
		entries = append(entries, e)
	}

	// Sort by fee rate descending.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].feeRate > entries[j].feeRate
	})

	if limit > len(entries) {
		limit = len(entries)
	}

	result := make([]*tx.Transaction, limit)
	for i := 0; i < limit; i++ {
		result[i] = entries[i].tx
	}
	return result
}
