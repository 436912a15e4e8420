// Package crypto implements the engine's authentication primitive: every
// mutating API request carries a secp256k1 signature over the keccak256
// hash of its canonical action payload, and the gateway recovers the signer
// address from it. The engine itself only ever sees the recovered address —
// the host boundary is where authority is proven.
package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Signer holds a secp256k1 key pair (Ethereum-compatible).
type Signer struct {
	priv    *ecdsa.PrivateKey
	address common.Address
}

// GenerateKey creates a new random key pair.
func GenerateKey() (*Signer, error) {
	priv, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Signer{priv: priv, address: ethcrypto.PubkeyToAddress(priv.PublicKey)}, nil
}

// FromPrivateKeyHex builds a Signer from a hex private key, with or without
// the 0x prefix.
func FromPrivateKeyHex(hexKey string) (*Signer, error) {
	if len(hexKey) > 1 && hexKey[0] == '0' && (hexKey[1] == 'x' || hexKey[1] == 'X') {
		hexKey = hexKey[2:]
	}
	priv, err := ethcrypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{priv: priv, address: ethcrypto.PubkeyToAddress(priv.PublicKey)}, nil
}

// Address returns the address derived from the public key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignAction signs an action payload. Returns a 65-byte [R || S || V]
// signature over ActionHash(payload).
func (s *Signer) SignAction(payload []byte) ([]byte, error) {
	hash := ActionHash(payload)
	sig, err := ethcrypto.Sign(hash[:], s.priv)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig, nil
}

// ActionHash is the digest clients sign: keccak256 over an EIP-191 style
// prefix and the raw payload bytes. The prefix stops an action signature
// from doubling as a signature for anything else.
func ActionHash(payload []byte) common.Hash {
	prefix := fmt.Sprintf("\x19XPR Prediction Market Action:\n%d", len(payload))
	return ethcrypto.Keccak256Hash([]byte(prefix), payload)
}

// RecoverActor recovers the address that signed an action payload.
func RecoverActor(payload, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length: %d", len(sig))
	}
	// Accept both V in {0,1} and Ethereum's {27,28}.
	s := make([]byte, 65)
	copy(s, sig)
	if s[64] >= 27 {
		s[64] -= 27
	}
	hash := ActionHash(payload)
	pub, err := ethcrypto.SigToPub(hash[:], s)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}
