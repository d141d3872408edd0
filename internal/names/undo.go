package names

import (
	"encoding/hex"
	"encoding/json"
)

// TxUndo captures the prior state of one name so an applied operation
// can be reversed during a chain reorganization.
type TxUndo struct {
	// Name is the affected name.
	Name []byte

	// IsNew is true iff the name did not exist before the operation,
	// in which case undo deletes it.
	IsNew bool

	// OldData is the pre-operation record; meaningful only when IsNew
	// is false.
	OldData *Data
}

// NewTxUndo snapshots the current state of a name from the view.
func NewTxUndo(name []byte, view Getter) (TxUndo, error) {
	old, err := view.GetName(name)
	if err != nil {
		return TxUndo{}, err
	}
	u := TxUndo{Name: name, IsNew: old == nil}
	if old != nil {
		u.OldData = old.Clone()
	}
	return u, nil
}

// Apply restores the snapshot: delete if the operation created the name,
// otherwise write back the old record. History recording is suppressed
// so a reorg leaves no trace.
func (u *TxUndo) Apply(view View) error {
	if u.IsNew {
		return view.DeleteName(u.Name)
	}
	return view.SetName(u.Name, u.OldData, false)
}

// txUndoJSON is the JSON representation with a hex-encoded name.
type txUndoJSON struct {
	Name    string `json:"name"`
	IsNew   bool   `json:"is_new"`
	OldData *Data  `json:"old_data,omitempty"`
}

// MarshalJSON encodes the undo entry with a hex-encoded name.
func (u TxUndo) MarshalJSON() ([]byte, error) {
	return json.Marshal(txUndoJSON{
		Name:    hex.EncodeToString(u.Name),
		IsNew:   u.IsNew,
		OldData: u.OldData,
	})
}

// UnmarshalJSON decodes an undo entry with a hex-encoded name.
func (u *TxUndo) UnmarshalJSON(data []byte) error {
	var j txUndoJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	name, err := hex.DecodeString(j.Name)
	if err != nil {
		return err
	}
	u.Name = name
	u.IsNew = j.IsNew
	u.OldData = j.OldData
	return nil
}
