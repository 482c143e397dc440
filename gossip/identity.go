// Package gossip implements the node's per-world pub/sub topics,
// content-addressed request/response protocols, and provider ranking
// (§4.10/§6.2/§6.3 and the original_source provider_selection policy).
package gossip

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"agentworld/crypto"
	"agentworld/world"
)

// Identity is the node's persistent gossip signing key plus the node id
// every message it sends carries.
type Identity struct {
	PrivateKey *crypto.PrivateKey
	NodeID     world.NodeID
}

type identityDisk struct {
	PrivateKey string `json:"privateKey"`
}

// LoadOrCreateIdentity reads an ed25519 private key from path, generating
// and persisting one if absent. NodeID is the key's own public key hex,
// rather than a derived address, since spec.md's node_id is just an
// opaque signer identifier.
func LoadOrCreateIdentity(path string) (*Identity, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("gossip: identity path must be provided")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create identity directory: %w", err)
	}

	if data, err := os.ReadFile(path); err == nil {
		return decodeIdentity(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read identity file: %w", err)
	}

	priv, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate identity key: %w", err)
	}
	encoded := identityDisk{PrivateKey: priv.Hex()}
	payload, err := json.MarshalIndent(&encoded, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode identity: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return nil, fmt.Errorf("persist identity: %w", err)
	}
	return &Identity{PrivateKey: priv, NodeID: world.NodeID(priv.PubKey().Hex())}, nil
}

func decodeIdentity(data []byte) (*Identity, error) {
	var stored identityDisk
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode identity JSON: %w", err)
	}
	priv, err := crypto.PrivateKeyFromHex(strings.TrimSpace(stored.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse identity key: %w", err)
	}
	return &Identity{PrivateKey: priv, NodeID: world.NodeID(priv.PubKey().Hex())}, nil
}
