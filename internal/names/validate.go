package names

import (
	"bytes"
	"fmt"

	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
)

// PlayerSet is the slice of the downstream game database the
// consistency check needs: which names are known as living players.
type PlayerSet interface {
	HasPlayer(name []byte) (bool, error)
	ForEachPlayer(fn func(name []byte) error) error
}

// ValidateNameDB cross-checks the name database against the UTXO set and
// the game database. A non-nil error indicates corrupted state; it is
// returned as is, and this function neither logs nor aborts.
func ValidateNameDB(coins *utxo.Store, view View, players PlayerSet) error {
	if err := view.Flush(); err != nil {
		return fmt.Errorf("flush name view: %w", err)
	}

	// Collect every name operation still sitting in the UTXO set.
	namesInUTXO := make(map[string]*utxo.UTXO)
	err := coins.ForEach(func(u *utxo.UTXO) error {
		op, ok := DecodeScript(u.Script)
		if !ok || !op.IsAnyUpdate() {
			return nil
		}
		if _, dup := namesInUTXO[string(op.Name)]; dup {
			return fmt.Errorf("name %q duplicated in UTXO set", op.Name)
		}
		namesInUTXO[string(op.Name)] = u
		return nil
	})
	if err != nil {
		return err
	}

	// Walk the name database. Every living record must be backed by the
	// exact coin it claims as its update outpoint.
	living := make(map[string]bool)
	var total int
	err = view.IterateNames(nil, func(name []byte, data *Data) error {
		total++
		if data.Dead {
			return nil
		}
		living[string(name)] = true

		u, ok := namesInUTXO[string(name)]
		if !ok {
			return fmt.Errorf("name %q in DB but not in UTXO set", name)
		}
		if u.Outpoint != data.UpdateOutpoint {
			return fmt.Errorf("name %q: UTXO outpoint %s != recorded %s",
				name, u.Outpoint, data.UpdateOutpoint)
		}
		if u.Height != data.Height {
			return fmt.Errorf("name %q: UTXO height %d != recorded %d",
				name, u.Height, data.Height)
		}
		op, _ := DecodeScript(u.Script)
		if !op.Address.Equal(data.Address) {
			return fmt.Errorf("name %q: UTXO address script differs from record", name)
		}
		if !bytes.Equal(op.Value, data.Value) {
			return fmt.Errorf("name %q: UTXO value differs from record", name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for name := range namesInUTXO {
		if !living[name] {
			return fmt.Errorf("name %q in UTXO set but not living in DB", []byte(name))
		}
	}

	// History entries may only exist for stored names, and only when
	// history tracking is on.
	if store, ok := view.(interface{ HistoryNames() ([][]byte, error) }); ok {
		histNames, err := store.HistoryNames()
		if err != nil {
			return err
		}
		historyOn := true
		if h, ok := view.(interface{ HistoryEnabled() bool }); ok {
			historyOn = h.HistoryEnabled()
		}
		if !historyOn && len(histNames) > 0 {
			return fmt.Errorf("history entries present but history is not enabled")
		}
		for _, name := range histNames {
			d, err := view.GetName(name)
			if err != nil {
				return err
			}
			if d == nil {
				return fmt.Errorf("history entry for %q without a name record", name)
			}
		}
	}

	// Every living name must be a known player, and every player a
	// living name.
	if players != nil {
		for name := range living {
			ok, err := players.HasPlayer([]byte(name))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("living name %q unknown to game state", []byte(name))
			}
		}
		err = players.ForEachPlayer(func(name []byte) error {
			if !living[string(name)] {
				return fmt.Errorf("game player %q is not a living name", name)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
