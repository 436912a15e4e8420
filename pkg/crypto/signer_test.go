package crypto

import (
	"testing"
)

func TestSignRecoverRoundTrip(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	payload := []byte(`{"market":0,"outcome":"yes","bid":true,"price":5000,"qty":10}`)
	sig, err := signer.SignAction(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d, want 65", len(sig))
	}

	actor, err := RecoverActor(payload, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if actor != signer.Address() {
		t.Fatalf("recovered %s, want %s", actor.Hex(), signer.Address().Hex())
	}
}

func TestRecoverAcceptsEthereumV(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	payload := []byte(`{"amount":100}`)
	sig, err := signer.SignAction(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// Wallets commonly emit V as 27/28 instead of 0/1.
	shifted := make([]byte, 65)
	copy(shifted, sig)
	shifted[64] += 27

	actor, err := RecoverActor(payload, shifted)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if actor != signer.Address() {
		t.Fatalf("recovered %s, want %s", actor.Hex(), signer.Address().Hex())
	}
}

func TestRecoverDifferentPayload(t *testing.T) {
	signer, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sig, err := signer.SignAction([]byte(`{"amount":100}`))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	actor, err := RecoverActor([]byte(`{"amount":999}`), sig)
	if err == nil && actor == signer.Address() {
		t.Fatal("signature must not verify for a different payload")
	}
}

func TestRecoverRejectsBadLength(t *testing.T) {
	if _, err := RecoverActor([]byte("x"), make([]byte, 64)); err == nil {
		t.Fatal("expected error for 64-byte signature")
	}
}

func TestFromPrivateKeyHex(t *testing.T) {
	a, err := FromPrivateKeyHex("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	if err != nil {
		t.Fatalf("with prefix: %v", err)
	}
	b, err := FromPrivateKeyHex("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	if err != nil {
		t.Fatalf("without prefix: %v", err)
	}
	if a.Address() != b.Address() {
		t.Fatalf("prefix handling changed the derived address: %s vs %s", a.Address().Hex(), b.Address().Hex())
	}
}

func TestActionHashLengthPrefixed(t *testing.T) {
	// "ab" + "c" and "a" + "bc" must not collide; the length prefix keeps
	// the domain separation honest.
	h1 := ActionHash([]byte("abc"))
	h2 := ActionHash([]byte("ab"))
	if h1 == h2 {
		t.Fatal("distinct payloads hashed equal")
	}
}
