// Package chain wires the name-registry consensus rules into block
// processing: connecting a block applies coin and name effects with undo
// data, disconnecting replays the undo records in reverse.
package chain

import (
	"fmt"

	"github.com/huntnet-tech/huntnet-chain/config"
	"github.com/huntnet-tech/huntnet-chain/internal/game"
	"github.com/huntnet-tech/huntnet-chain/internal/log"
	"github.com/huntnet-tech/huntnet-chain/internal/mempool"
	"github.com/huntnet-tech/huntnet-chain/internal/names"
	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
	"github.com/huntnet-tech/huntnet-chain/pkg/tx"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

// BlockUndo stores the information needed to revert one block's coin and
// name changes. Name undo entries follow the coin records, in application
// order; reversal walks them backwards.
type BlockUndo struct {
	SpentCoins       []utxo.UTXO      `json:"spent_coins"`
	CreatedOutpoints []types.Outpoint `json:"created_outpoints"`
	Names            []names.TxUndo   `json:"names"`
}

// Chain coordinates the chain-state views for block processing. All
// methods assume the caller holds the chain-state lock.
type Chain struct {
	coins  *utxo.Store
	view   names.View
	params *config.Params
	cfg    config.NameConfig

	pool *mempool.Pool // optional
	game *game.Store   // optional

	height uint64
}

// New creates a Chain over the given views.
func New(coins *utxo.Store, view names.View, params *config.Params, cfg config.NameConfig) *Chain {
	return &Chain{coins: coins, view: view, params: params, cfg: cfg}
}

// SetPool attaches the mempool so block connection can evict conflicting
// pending transactions.
func (c *Chain) SetPool(p *mempool.Pool) { c.pool = p }

// SetGame attaches the game player store so registrations spawn players
// and the consistency check can cross-validate.
func (c *Chain) SetGame(g *game.Store) { c.game = g }

// Height returns the current chain height.
func (c *Chain) Height() uint64 { return c.height }

// ConnectBlock validates and applies a block's transactions at the given
// height. Mempool conflicts are evicted before any state is mutated, so
// the eviction decisions see the pre-block name database. Returns the
// undo data and the pool transactions that were evicted.
//
// On error the views may hold partial writes: the name view is expected
// to be a Cache overlay that the caller discards without flushing.
func (c *Chain) ConnectBlock(transactions []*tx.Transaction, height uint64) (*BlockUndo, []*tx.Transaction, error) {
	// Evict pool entries that conflict with confirmed registrations.
	// This must happen before the block's operations touch the name
	// database, so the eviction decisions see the pre-block state.
	var evicted []*tx.Transaction
	if c.pool != nil {
		for _, t := range transactions {
			evicted = append(evicted, c.pool.RemoveNameConflicts(t)...)
		}
	}

	undo := &BlockUndo{}
	for i, t := range transactions {
		txHash := t.Hash()

		// Validate against the view as updated by the preceding
		// transactions of this block, so intra-block chains resolve.
		if err := names.CheckTx(t, height, c.coins, c.view, c.params, 0); err != nil {
			return nil, nil, fmt.Errorf("tx %d (%s): %w", i, txHash, err)
		}

		// Spend inputs — save the coin before deleting for undo.
		for _, in := range t.Inputs {
			if in.PrevOut.IsZero() {
				continue
			}
			coin, err := c.coins.Get(in.PrevOut)
			if err != nil {
				return nil, nil, fmt.Errorf("get coin for undo %s: %w", in.PrevOut, err)
			}
			undo.SpentCoins = append(undo.SpentCoins, *coin)
			if err := c.coins.Delete(in.PrevOut); err != nil {
				return nil, nil, fmt.Errorf("spend %s: %w", in.PrevOut, err)
			}
		}

		// Create outputs.
		for idx, out := range t.Outputs {
			op := types.Outpoint{TxID: txHash, Index: uint32(idx)}
			undo.CreatedOutpoints = append(undo.CreatedOutpoints, op)
			u := &utxo.UTXO{
				Outpoint: op,
				Value:    out.Value,
				Script:   out.Script,
				Height:   height,
			}
			if err := c.coins.Put(u); err != nil {
				return nil, nil, fmt.Errorf("create output %s: %w", op, err)
			}
		}

		// Apply name effects, appending undo entries in output order.
		if err := names.ApplyTx(t, height, c.coins, c.view, c.params, &undo.Names); err != nil {
			return nil, nil, fmt.Errorf("apply names for %s: %w", txHash, err)
		}

		// Spawn players for confirmed registrations.
		if c.game != nil && t.IsNamed() {
			for _, out := range t.Outputs {
				op, ok := names.DecodeScript(out.Script)
				if !ok || op.Type != names.OpFirstUpdate {
					continue
				}
				if err := c.game.AddPlayer(op.Name); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	if c.pool != nil {
		c.pool.RemoveConfirmed(transactions)
	}

	c.height = height
	log.Chain.Debug().
		Uint64("height", height).
		Int("txs", len(transactions)).
		Int("evicted", len(evicted)).
		Msg("connected block")

	return undo, evicted, nil
}

// DisconnectBlock reverts a block using its undo data: name undo entries
// replay in reverse, created outputs are deleted, spent coins restored.
func (c *Chain) DisconnectBlock(undo *BlockUndo) error {
	// Name records first, newest effect first.
	for i := len(undo.Names) - 1; i >= 0; i-- {
		u := &undo.Names[i]
		if err := u.Apply(c.view); err != nil {
			return fmt.Errorf("undo name %q: %w", u.Name, err)
		}
		if c.game != nil {
			if err := c.syncPlayer(u.Name); err != nil {
				return err
			}
		}
	}

	// Delete created outputs (reverse order for safety).
	for i := len(undo.CreatedOutpoints) - 1; i >= 0; i-- {
		if err := c.coins.Delete(undo.CreatedOutpoints[i]); err != nil {
			return fmt.Errorf("delete created output %s: %w", undo.CreatedOutpoints[i], err)
		}
	}

	// Restore spent coins.
	for i := range undo.SpentCoins {
		if err := c.coins.Put(&undo.SpentCoins[i]); err != nil {
			return fmt.Errorf("restore coin %s: %w", undo.SpentCoins[i].Outpoint, err)
		}
	}

	if c.height > 0 {
		c.height--
	}
	return nil
}

// syncPlayer aligns the game player set with the name record after an
// undo entry has been applied.
func (c *Chain) syncPlayer(name []byte) error {
	data, err := c.view.GetName(name)
	if err != nil {
		return err
	}
	if data == nil || data.Dead {
		return c.game.RemovePlayer(name)
	}
	return c.game.AddPlayer(name)
}

// ApplyDeaths marks names killed by the downstream game transition as
// dead and evicts pending updates on them from the pool. Returns the
// evicted transactions.
func (c *Chain) ApplyDeaths(killed [][]byte) ([]*tx.Transaction, error) {
	if c.game == nil {
		return nil, nil
	}
	revived, err := c.game.KillPlayers(c.view, c.coins, killed)
	if err != nil {
		return nil, err
	}
	if c.pool == nil || len(revived) == 0 {
		return nil, nil
	}
	return c.pool.RemoveReviveConflicts(revived), nil
}

// CheckNameDB runs the periodic name-database consistency check. The
// cadence option: -1 disables it, 0 forces it every block, N runs it
// every N-th block and never right after a disconnect. An inconsistent
// database is logged and returned as an error; the process is not
// aborted here.
func (c *Chain) CheckNameDB(disconnect bool) error {
	option := c.cfg.CheckNameDB
	if option == -1 {
		return nil
	}
	if option != 0 {
		if disconnect || c.height%uint64(option) != 0 {
			return nil
		}
	}
	return c.ValidateNameDB()
}

// ValidateNameDB runs the full name-database consistency check now,
// regardless of the configured cadence.
func (c *Chain) ValidateNameDB() error {
	var players names.PlayerSet
	if c.game != nil {
		players = c.game
	}
	if err := names.ValidateNameDB(c.coins, c.view, players); err != nil {
		log.Chain.Error().Err(err).Msg("name database is inconsistent")
		return err
	}
	return nil
}
