package names

import (
	"bytes"
	"testing"

	"github.com/huntnet-tech/huntnet-chain/pkg/crypto"
	"github.com/huntnet-tech/huntnet-chain/pkg/types"
)

func testAddr() types.Script {
	return types.Script{Type: types.ScriptTypeP2PKH, Data: bytes.Repeat([]byte{0xab}, 20)}
}

func TestDecodeScript_NameNew(t *testing.T) {
	hash := crypto.NameCommitment([]byte("salt"), []byte("alice"))
	script := BuildNameNew(testAddr(), hash[:])

	op, ok := DecodeScript(script)
	if !ok {
		t.Fatal("expected name op")
	}
	if op.Type != OpNew {
		t.Errorf("type = %v, want OpNew", op.Type)
	}
	if !bytes.Equal(op.Hash, hash[:]) {
		t.Errorf("hash = %x, want %x", op.Hash, hash)
	}
	if !op.Address.Equal(testAddr()) {
		t.Errorf("address not preserved")
	}
}

func TestDecodeScript_FirstUpdate(t *testing.T) {
	script := BuildFirstUpdate(testAddr(), []byte("alice"), []byte("salt"), []byte("v1"))

	op, ok := DecodeScript(script)
	if !ok {
		t.Fatal("expected name op")
	}
	if op.Type != OpFirstUpdate {
		t.Errorf("type = %v, want OpFirstUpdate", op.Type)
	}
	if op.NewStyle {
		t.Error("old-style reveal decoded as new style")
	}
	if string(op.Name) != "alice" || string(op.Rand) != "salt" || string(op.Value) != "v1" {
		t.Errorf("fields = %q/%q/%q", op.Name, op.Rand, op.Value)
	}
}

func TestDecodeScript_Registration(t *testing.T) {
	script := BuildRegistration(testAddr(), []byte("bob"), []byte("v1"))

	op, ok := DecodeScript(script)
	if !ok {
		t.Fatal("expected name op")
	}
	if op.Type != OpFirstUpdate || !op.NewStyle {
		t.Errorf("type = %v newStyle = %v, want new-style first update", op.Type, op.NewStyle)
	}
	if op.Rand != nil && len(op.Rand) != 0 {
		t.Errorf("rand = %x, want empty", op.Rand)
	}
}

func TestDecodeScript_Update(t *testing.T) {
	script := BuildUpdate(testAddr(), []byte("alice"), []byte("v2"))

	op, ok := DecodeScript(script)
	if !ok {
		t.Fatal("expected name op")
	}
	if op.Type != OpUpdate {
		t.Errorf("type = %v, want OpUpdate", op.Type)
	}
	if !op.IsAnyUpdate() {
		t.Error("update is not IsAnyUpdate")
	}
	if string(op.Name) != "alice" || string(op.Value) != "v2" {
		t.Errorf("fields = %q/%q", op.Name, op.Value)
	}
}

func TestDecodeScript_NonName(t *testing.T) {
	if op, ok := DecodeScript(testAddr()); ok {
		t.Errorf("P2PKH decoded as name op %v", op.Type)
	}
}

// Malformed payloads degrade to non-name instead of erroring.
func TestDecodeScript_Malformed(t *testing.T) {
	cases := map[string]types.Script{
		"empty data":      {Type: types.ScriptTypeNameUpdate, Data: nil},
		"truncated frame": {Type: types.ScriptTypeNameUpdate, Data: []byte{0xff, 0xff, 0x01}},
		"trailing bytes": func() types.Script {
			s := BuildUpdate(testAddr(), []byte("a"), []byte("v"))
			s.Data = append(s.Data, 0x00)
			return s
		}(),
		"bad style byte": func() types.Script {
			s := BuildRegistration(testAddr(), []byte("a"), []byte("v"))
			// The style marker follows the name frame.
			s.Data[2+1] = 0x7f
			return s
		}(),
		"name-typed address": func() types.Script {
			inner := BuildUpdate(testAddr(), []byte("a"), []byte("v"))
			var data []byte
			data = append(data, 0x01, 0x00, 'a')
			data = append(data, 0x01, 0x00, 'v')
			data = append(data, byte(inner.Type), 0x00, 0x00)
			return types.Script{Type: types.ScriptTypeNameUpdate, Data: data}
		}(),
	}

	for name, script := range cases {
		if _, ok := DecodeScript(script); ok {
			t.Errorf("%s: decoded as a valid name op", name)
		}
	}
}

func TestDecodeScript_RoundTripEmptyValue(t *testing.T) {
	script := BuildUpdate(testAddr(), []byte("n"), nil)
	op, ok := DecodeScript(script)
	if !ok {
		t.Fatal("expected name op")
	}
	if len(op.Value) != 0 {
		t.Errorf("value = %x, want empty", op.Value)
	}
}
