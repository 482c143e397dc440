package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// PrivateKey wraps an ed25519 signing key. Consensus proposals, world head
// announcements, and receipts roots (through KeyPair) are signed with one of
// these.
type PrivateKey struct {
	key ed25519.PrivateKey
}

// PublicKey wraps an ed25519 verification key.
type PublicKey struct {
	key ed25519.PublicKey
}

// GeneratePrivateKey creates a new random ed25519 signing key.
func GeneratePrivateKey() (*PrivateKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &PrivateKey{key: priv}, nil
}

// PrivateKeyFromBytes reconstructs a private key from its raw 64-byte
// seed+public encoding, as produced by Bytes.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(b))
	}
	cloned := append([]byte(nil), b...)
	return &PrivateKey{key: ed25519.PrivateKey(cloned)}, nil
}

// PrivateKeyFromHex reconstructs a private key from its hex encoding.
func PrivateKeyFromHex(value string) (*PrivateKey, error) {
	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode private key hex: %w", err)
	}
	return PrivateKeyFromBytes(raw)
}

// Bytes returns the raw private key encoding.
func (k *PrivateKey) Bytes() []byte {
	return append([]byte(nil), k.key...)
}

// Hex returns the hex encoding of the raw private key.
func (k *PrivateKey) Hex() string {
	return hex.EncodeToString(k.key)
}

// PubKey derives the associated public key.
func (k *PrivateKey) PubKey() *PublicKey {
	pub := k.key.Public().(ed25519.PublicKey)
	return &PublicKey{key: pub}
}

// Sign produces an ed25519 signature over msg.
func (k *PrivateKey) Sign(msg []byte) []byte {
	return ed25519.Sign(k.key, msg)
}

// Bytes returns the raw public key encoding.
func (p *PublicKey) Bytes() []byte {
	return append([]byte(nil), p.key...)
}

// Hex returns the lowercase hex encoding of the public key.
func (p *PublicKey) Hex() string {
	return hex.EncodeToString(p.key)
}

// Equal reports whether two public keys hold the same bytes.
func (p *PublicKey) Equal(other *PublicKey) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.key.Equal(other.key)
}

// Verify reports whether sig is a valid ed25519 signature over msg by this key.
func (p *PublicKey) Verify(msg, sig []byte) bool {
	if p == nil || len(p.key) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(p.key, msg, sig)
}

// PublicKeyFromHex parses a hex-encoded ed25519 public key.
func PublicKeyFromHex(value string) (*PublicKey, error) {
	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode public key hex: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return &PublicKey{key: ed25519.PublicKey(raw)}, nil
}

// NodeID derives a stable node identifier from the public key: the lowercase
// hex of its bytes. Every identity printed in logs, gossip handshakes, and
// consensus attestations uses this form.
func (p *PublicKey) NodeID() string {
	return p.Hex()
}

// KeyPair bundles a node's own signing key with its public key, so callers
// that need to both sign and verify (e.g. a receipts signer validating a
// pre-existing signature before trusting it) have a single handle.
type KeyPair struct {
	Priv *PrivateKey
	Pub  *PublicKey
}

// NewKeyPair derives a KeyPair from a private key.
func NewKeyPair(priv *PrivateKey) *KeyPair {
	return &KeyPair{Priv: priv, Pub: priv.PubKey()}
}

// Sign produces an ed25519 signature over msg using the wrapped private key.
func (k *KeyPair) Sign(msg []byte) []byte { return k.Priv.Sign(msg) }

// Verify reports whether sig is a valid signature over msg by this pair's
// own public key.
func (k *KeyPair) Verify(msg, sig []byte) bool { return k.Pub.Verify(msg, sig) }
