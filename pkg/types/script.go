package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
)

// ScriptType identifies the type of locking/unlocking script.
type ScriptType uint8

const (
	ScriptTypeP2PKH ScriptType = 0x01 // Pay to public key hash

	// Name operation scripts. The payload layout is defined by the names
	// package; the UTXO layer treats it as opaque locking data.
	ScriptTypeNameNew         ScriptType = 0x50 // Hashed pre-commitment to a registration
	ScriptTypeNameFirstUpdate ScriptType = 0x51 // Reveal / direct registration of a name
	ScriptTypeNameUpdate      ScriptType = 0x52 // Update of an existing name
)

// String returns a human-readable name for the script type.
func (st ScriptType) String() string {
	switch st {
	case ScriptTypeP2PKH:
		return "P2PKH"
	case ScriptTypeNameNew:
		return "NameNew"
	case ScriptTypeNameFirstUpdate:
		return "NameFirstUpdate"
	case ScriptTypeNameUpdate:
		return "NameUpdate"
	default:
		return "Unknown"
	}
}

// IsName returns true for the three name-operation script types.
func (st ScriptType) IsName() bool {
	switch st {
	case ScriptTypeNameNew, ScriptTypeNameFirstUpdate, ScriptTypeNameUpdate:
		return true
	}
	return false
}

// Script defines the locking condition for a UTXO.
type Script struct {
	Type ScriptType `json:"type"`
	Data []byte     `json:"data"`
}

// Equal reports whether two scripts have the same type and data.
func (s Script) Equal(other Script) bool {
	return s.Type == other.Type && bytes.Equal(s.Data, other.Data)
}

// scriptJSON is the JSON representation of a Script with hex-encoded data.
type scriptJSON struct {
	Type ScriptType `json:"type"`
	Data string     `json:"data"`
}

// MarshalJSON encodes the script with hex-encoded data.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(scriptJSON{
		Type: s.Type,
		Data: hex.EncodeToString(s.Data),
	})
}

// UnmarshalJSON decodes a script with hex-encoded data.
func (s *Script) UnmarshalJSON(data []byte) error {
	var j scriptJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	s.Type = j.Type
	if j.Data != "" {
		b, err := hex.DecodeString(j.Data)
		if err != nil {
			return err
		}
		s.Data = b
	}
	return nil
}
