// Package names implements the name-registry consensus rules: decoding of
// name-operation scripts, the name database, transaction validation and
// application, undo records, and the cross-database consistency check.
package names

import (
	"encoding/binary"

	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

// OpType identifies a name operation.
type OpType uint8

const (
	// OpNew publishes a hashed pre-commitment to a future registration.
	OpNew OpType = iota + 1
	// OpFirstUpdate reveals a pre-committed name (old style) or registers
	// one directly (new style).
	OpFirstUpdate
	// OpUpdate modifies an existing living name.
	OpUpdate
)

// String returns the operation's RPC name.
func (t OpType) String() string {
	switch t {
	case OpNew:
		return "name_new"
	case OpFirstUpdate:
		return "name_firstupdate"
	case OpUpdate:
		return "name_update"
	default:
		return "unknown"
	}
}

// NameOp is a decoded name-operation script.
type NameOp struct {
	Type OpType

	// Hash is the 20-byte registration commitment (OpNew only).
	Hash []byte

	// Name and Value are set for OpFirstUpdate and OpUpdate.
	Name  []byte
	Value []byte

	// Rand is the commitment salt revealed by an old-style OpFirstUpdate.
	Rand []byte

	// NewStyle marks an OpFirstUpdate that registers without a prior
	// commitment and therefore consumes no name input.
	NewStyle bool

	// Address is the residual locking script that owns the name output.
	Address types.Script
}

// IsAnyUpdate reports whether the operation writes a name record
// (first update or update, as opposed to a bare pre-commitment).
func (op *NameOp) IsAnyUpdate() bool {
	return op.Type == OpFirstUpdate || op.Type == OpUpdate
}

// First-update style markers in the serialized payload.
const (
	styleNew byte = 0x00
	styleOld byte = 0x01
)

// DecodeScript classifies a locking script as a name operation.
// Non-name script types and malformed payloads decode as (nil, false);
// decoding never returns an error.
func DecodeScript(s types.Script) (*NameOp, bool) {
	switch s.Type {
	case types.ScriptTypeNameNew:
		return decodeNameNew(s.Data)
	case types.ScriptTypeNameFirstUpdate:
		return decodeFirstUpdate(s.Data)
	case types.ScriptTypeNameUpdate:
		return decodeUpdate(s.Data)
	default:
		return nil, false
	}
}

func decodeNameNew(data []byte) (*NameOp, bool) {
	hash, rest, ok := readFrame(data)
	if !ok {
		return nil, false
	}
	addr, rest, ok := readAddress(rest)
	if !ok || len(rest) != 0 {
		return nil, false
	}
	return &NameOp{Type: OpNew, Hash: hash, Address: addr}, true
}

func decodeFirstUpdate(data []byte) (*NameOp, bool) {
	name, rest, ok := readFrame(data)
	if !ok || len(rest) < 1 {
		return nil, false
	}
	style := rest[0]
	rest = rest[1:]

	op := &NameOp{Type: OpFirstUpdate, Name: name}
	switch style {
	case styleOld:
		op.Rand, rest, ok = readFrame(rest)
		if !ok {
			return nil, false
		}
	case styleNew:
		op.NewStyle = true
	default:
		return nil, false
	}

	op.Value, rest, ok = readFrame(rest)
	if !ok {
		return nil, false
	}
	op.Address, rest, ok = readAddress(rest)
	if !ok || len(rest) != 0 {
		return nil, false
	}
	return op, true
}

func decodeUpdate(data []byte) (*NameOp, bool) {
	name, rest, ok := readFrame(data)
	if !ok {
		return nil, false
	}
	value, rest, ok := readFrame(rest)
	if !ok {
		return nil, false
	}
	addr, rest, ok := readAddress(rest)
	if !ok || len(rest) != 0 {
		return nil, false
	}
	return &NameOp{Type: OpUpdate, Name: name, Value: value, Address: addr}, true
}

// BuildNameNew builds the locking script for a pre-commitment.
func BuildNameNew(addr types.Script, hash []byte) types.Script {
	var data []byte
	data = appendFrame(data, hash)
	data = appendAddress(data, addr)
	return types.Script{Type: types.ScriptTypeNameNew, Data: data}
}

// BuildFirstUpdate builds the old-style reveal script consuming a
// matching pre-commitment output.
func BuildFirstUpdate(addr types.Script, name, rand, value []byte) types.Script {
	var data []byte
	data = appendFrame(data, name)
	data = append(data, styleOld)
	data = appendFrame(data, rand)
	data = appendFrame(data, value)
	data = appendAddress(data, addr)
	return types.Script{Type: types.ScriptTypeNameFirstUpdate, Data: data}
}

// BuildRegistration builds the new-style registration script, which
// registers a name without a prior commitment.
func BuildRegistration(addr types.Script, name, value []byte) types.Script {
	var data []byte
	data = appendFrame(data, name)
	data = append(data, styleNew)
	data = appendFrame(data, value)
	data = appendAddress(data, addr)
	return types.Script{Type: types.ScriptTypeNameFirstUpdate, Data: data}
}

// BuildUpdate builds the script updating an existing name.
func BuildUpdate(addr types.Script, name, value []byte) types.Script {
	var data []byte
	data = appendFrame(data, name)
	data = appendFrame(data, value)
	data = appendAddress(data, addr)
	return types.Script{Type: types.ScriptTypeNameUpdate, Data: data}
}

// Payload framing: u16 little-endian length followed by the bytes.
// The embedded address script is a type byte followed by a frame.

func appendFrame(buf, b []byte) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(b)))
	return append(buf, b...)
}

func readFrame(buf []byte) (frame, rest []byte, ok bool) {
	if len(buf) < 2 {
		return nil, nil, false
	}
	n := int(binary.LittleEndian.Uint16(buf))
	buf = buf[2:]
	if len(buf) < n {
		return nil, nil, false
	}
	frame = make([]byte, n)
	copy(frame, buf[:n])
	return frame, buf[n:], true
}

func appendAddress(buf []byte, addr types.Script) []byte {
	buf = append(buf, byte(addr.Type))
	return appendFrame(buf, addr.Data)
}

func readAddress(buf []byte) (addr types.Script, rest []byte, ok bool) {
	if len(buf) < 1 {
		return types.Script{}, nil, false
	}
	addr.Type = types.ScriptType(buf[0])
	if addr.Type.IsName() {
		// A name output's residual lock must not itself be a name script.
		return types.Script{}, nil, false
	}
	addr.Data, rest, ok = readFrame(buf[1:])
	return addr, rest, ok
}
