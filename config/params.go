package config

import "github.com/huntnet-tech/huntnet-chain/pkg/types"

// =============================================================================
// Protocol rules (consensus-critical, must match across all nodes)
// =============================================================================

// Coin is the number of base units in one coin.
const Coin uint64 = 100_000_000

// Transaction structure limits.
const (
	MaxTxInputs   = 2500   // Max inputs per transaction
	MaxTxOutputs  = 2500   // Max outputs per transaction
	MaxScriptData = 65_536 // 64 KB max script data per output
)

// Name registry rules.
const (
	// MaxNameLength is the maximum length of a registered name in bytes.
	MaxNameLength = 10

	// MaxValueLength is the maximum length of a name's value in bytes.
	MaxValueLength = 4096

	// MinFirstUpdateDepth is the number of blocks a pre-commitment must be
	// buried before the matching reveal may be confirmed.
	MinFirstUpdateDepth = 2

	// NameNewCoinAmount is the minimum amount that must be locked into
	// every name output.
	NameNewCoinAmount = Coin / 10

	// MempoolHeight is the sentinel height for coins that only exist in
	// the memory pool.
	MempoolHeight uint64 = 0x7FFFFFFF
)

// BugType classifies a historic consensus bug and how a transaction
// carrying it must be handled to stay consistent with the existing chain.
type BugType int

const (
	// BugFullyIgnore skips the name operation entirely; its outputs are
	// marked spent so the UTXO set and name database stay in sync.
	BugFullyIgnore BugType = iota

	// BugFullyApply validates and applies the operation as usual.
	BugFullyApply

	// BugInUTXO leaves the output in the UTXO set but never applies it
	// to the name database.
	BugInUTXO
)

// bugKey identifies one historic bug occurrence.
type bugKey struct {
	txid   types.Hash
	height uint64
}

// Params bundles the per-chain consensus parameters that are not plain
// constants: the historic bug list and the default name-db check cadence.
type Params struct {
	historicBugs []bugEntry

	// DefaultCheckNameDB is the default -checknamedb cadence:
	// -1 disables the check, 0 forces it every block, N runs it every
	// N-th block.
	DefaultCheckNameDB int
}

type bugEntry struct {
	key bugKey
	typ BugType
}

// MainnetParams returns the consensus parameters for the main network.
// The returned historic bug list is empty; entries are registered with
// AddHistoricBug.
func MainnetParams() *Params {
	return &Params{
		DefaultCheckNameDB: 2000,
	}
}

// TestParams returns consensus parameters with an empty bug list and the
// name-db check forced every block. Used by regression tests.
func TestParams() *Params {
	return &Params{
		DefaultCheckNameDB: 0,
	}
}

// AddHistoricBug records a (txid, height) pair with its disposition.
func (p *Params) AddHistoricBug(txid types.Hash, height uint64, typ BugType) {
	p.historicBugs = append(p.historicBugs, bugEntry{bugKey{txid, height}, typ})
}

// IsHistoricBug reports whether the transaction at the given height is on
// the historic bug list and, if so, its disposition.
func (p *Params) IsHistoricBug(txid types.Hash, height uint64) (BugType, bool) {
	for _, e := range p.historicBugs {
		if e.key.txid == txid && e.key.height == height {
			return e.typ, true
		}
	}
	return BugFullyApply, false
}
