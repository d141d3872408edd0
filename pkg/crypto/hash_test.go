package crypto

import (
	"bytes"
	"testing"
)

func TestHash_Deterministic(t *testing.T) {
	a := Hash([]byte("huntnet"))
	b := Hash([]byte("huntnet"))
	if a != b {
		t.Error("same input hashes differently")
	}
	if a == Hash([]byte("other")) {
		t.Error("different inputs collide")
	}
}

func TestHash160_Truncation(t *testing.T) {
	full := Hash([]byte("data"))
	short := Hash160([]byte("data"))
	if !bytes.Equal(short[:], full[:Hash160Size]) {
		t.Error("Hash160 is not a truncation of the full hash")
	}
}

func TestNameCommitment(t *testing.T) {
	a := NameCommitment([]byte("rand"), []byte("alice"))
	b := NameCommitment([]byte("rand"), []byte("alice"))
	if a != b {
		t.Error("same commitment differs")
	}
	if a == NameCommitment([]byte("rand"), []byte("bob")) {
		t.Error("different names share a commitment")
	}
	if a == NameCommitment([]byte("dnar"), []byte("alice")) {
		t.Error("different salts share a commitment")
	}

	// The commitment is over the concatenation rand || name; the split
	// point does not matter, only the concatenated bytes.
	x := NameCommitment([]byte("ab"), []byte("c"))
	y := NameCommitment([]byte("a"), []byte("bc"))
	if x != y {
		// Concatenation-identical inputs must agree: H(ab||c) == H(a||bc).
		t.Error("commitment depends on the split, not the bytes")
	}
}

func TestSignVerify(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	digest := Hash([]byte("message"))
	sig, err := key.Sign(digest[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !VerifySignature(digest[:], sig, key.PublicKey()) {
		t.Error("valid signature rejected")
	}

	other := Hash([]byte("other"))
	if VerifySignature(other[:], sig, key.PublicKey()) {
		t.Error("signature verified against wrong digest")
	}
	if VerifySignature(digest[:], sig[:10], key.PublicKey()) {
		t.Error("truncated signature verified")
	}
}
