// Package game holds the slice of the downstream game database the name
// registry interacts with: the set of living players keyed by name. The
// move validator owns the actual game-state transitions; this store only
// mirrors which names are alive.
package game

import (
	"fmt"

	"github.com/huntnet-tech/huntnet-chain/internal/names"
	"github.com/huntnet-tech/huntnet-chain/internal/storage"
	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
)

// prefixPlayer is the key prefix for the player set: p/<name> -> empty.
var prefixPlayer = []byte("p/")

// Store persists the set of living player names.
type Store struct {
	db storage.DB
}

// NewStore creates a player store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

func playerKey(name []byte) []byte {
	key := make([]byte, len(prefixPlayer)+len(name))
	copy(key, prefixPlayer)
	copy(key[len(prefixPlayer):], name)
	return key
}

// AddPlayer records a name as a living player.
func (s *Store) AddPlayer(name []byte) error {
	if err := s.db.Put(playerKey(name), []byte{}); err != nil {
		return fmt.Errorf("player put: %w", err)
	}
	return nil
}

// RemovePlayer removes a name from the player set.
func (s *Store) RemovePlayer(name []byte) error {
	if err := s.db.Delete(playerKey(name)); err != nil {
		return fmt.Errorf("player delete: %w", err)
	}
	return nil
}

// HasPlayer reports whether the name is a living player.
func (s *Store) HasPlayer(name []byte) (bool, error) {
	return s.db.Has(playerKey(name))
}

// ForEachPlayer visits every living player name in lexicographic order.
// Return a non-nil error from fn to stop iteration early.
func (s *Store) ForEachPlayer(fn func(name []byte) error) error {
	return s.db.ForEach(prefixPlayer, func(key, _ []byte) error {
		name := make([]byte, len(key)-len(prefixPlayer))
		copy(name, key[len(prefixPlayer):])
		return fn(name)
	})
}

// KillPlayers marks the given names dead in the name view, spends their
// name coins, and drops them from the player set. Returns the names that
// were actually living — these slots are now open for reclamation, and
// pending updates on them must be evicted from the pool.
func (s *Store) KillPlayers(view names.View, coins utxo.Set, killed [][]byte) ([][]byte, error) {
	var revivable [][]byte
	for _, name := range killed {
		data, err := view.GetName(name)
		if err != nil {
			return nil, err
		}
		if data == nil || data.Dead {
			continue
		}
		dead := data.Clone()
		dead.Dead = true
		if err := view.SetName(name, dead, true); err != nil {
			return nil, fmt.Errorf("mark %q dead: %w", name, err)
		}
		// The locked coins are collected by the game; the output leaves
		// the UTXO set with the player.
		if err := coins.Delete(data.UpdateOutpoint); err != nil {
			return nil, fmt.Errorf("spend name coin %s: %w", data.UpdateOutpoint, err)
		}
		if err := s.RemovePlayer(name); err != nil {
			return nil, err
		}
		revivable = append(revivable, name)
	}
	return revivable, nil
}
