package names

import (
	"encoding/hex"
	"encoding/json"

	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

// Data is the authoritative state of one registered name.
type Data struct {
	// Value is the name's current payload bytes.
	Value []byte

	// Height is the block height of the last write to this record.
	Height uint64

	// UpdateOutpoint is the transaction output that produced this record.
	UpdateOutpoint types.Outpoint

	// Address is the locking script attached to that output.
	Address types.Script

	// Dead marks a name whose holder has been extinguished in the game
	// state. Dead names act as slots that a new registration may reclaim.
	Dead bool
}

// dataJSON is the JSON representation of Data with a hex-encoded value.
type dataJSON struct {
	Value          string         `json:"value"`
	Height         uint64         `json:"height"`
	UpdateOutpoint types.Outpoint `json:"update_outpoint"`
	Address        types.Script   `json:"address"`
	Dead           bool           `json:"dead,omitempty"`
}

// MarshalJSON encodes the record with a hex-encoded value.
func (d Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataJSON{
		Value:          hex.EncodeToString(d.Value),
		Height:         d.Height,
		UpdateOutpoint: d.UpdateOutpoint,
		Address:        d.Address,
		Dead:           d.Dead,
	})
}

// UnmarshalJSON decodes a record with a hex-encoded value.
func (d *Data) UnmarshalJSON(data []byte) error {
	var j dataJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	v, err := hex.DecodeString(j.Value)
	if err != nil {
		return err
	}
	if len(v) == 0 {
		v = nil
	}
	d.Value = v
	d.Height = j.Height
	d.UpdateOutpoint = j.UpdateOutpoint
	d.Address = j.Address
	d.Dead = j.Dead
	return nil
}

// Clone returns a deep copy of the record.
func (d *Data) Clone() *Data {
	c := *d
	if d.Value != nil {
		c.Value = make([]byte, len(d.Value))
		copy(c.Value, d.Value)
	}
	if d.Address.Data != nil {
		c.Address.Data = make([]byte, len(d.Address.Data))
		copy(c.Address.Data, d.Address.Data)
	}
	return &c
}

// Equal reports whether two records are identical.
func (d *Data) Equal(other *Data) bool {
	if d == nil || other == nil {
		return d == other
	}
	return string(d.Value) == string(other.Value) &&
		d.Height == other.Height &&
		d.UpdateOutpoint == other.UpdateOutpoint &&
		d.Address.Equal(other.Address) &&
		d.Dead == other.Dead
}

// History is the ordered list of a name's past records, oldest first.
type History []Data
