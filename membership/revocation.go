// Package membership implements per-world key revocation reconciliation,
// anomaly alerting, dead-letter replay, and the cross-process scheduling
// lease that guards them (§4.12).
package membership

import (
	"fmt"
	"sort"
	"strings"

	"agentworld/codec"
)

// RevocationCheckpoint is a signed-at-the-transport-layer announcement of
// one node's revoked key set for a world.
type RevocationCheckpoint struct {
	WorldID       string   `cbor:"world_id" json:"world_id"`
	NodeID        string   `cbor:"node_id" json:"node_id"`
	AnnouncedAtMS int64    `cbor:"announced_at_ms" json:"announced_at_ms"`
	RevokedKeyIDs []string `cbor:"revoked_key_ids" json:"revoked_key_ids"`
	RevokedSetHash string  `cbor:"revoked_set_hash" json:"revoked_set_hash"`
}

// BuildRevocationCheckpoint normalizes revokedKeyIDs (trimmed, deduplicated,
// sorted) and computes revoked_set_hash = H(canonical_cbor(sorted_key_ids)).
func BuildRevocationCheckpoint(worldID, nodeID string, announcedAtMS int64, revokedKeyIDs []string) (*RevocationCheckpoint, error) {
	worldID = strings.TrimSpace(worldID)
	if worldID == "" {
		return nil, fmt.Errorf("membership: world_id cannot be empty")
	}
	nodeID = strings.TrimSpace(nodeID)
	if nodeID == "" {
		return nil, fmt.Errorf("membership: node_id cannot be empty")
	}
	normalized, err := normalizeKeyIDs(revokedKeyIDs)
	if err != nil {
		return nil, err
	}
	hash, err := revokedSetHash(normalized)
	if err != nil {
		return nil, err
	}
	return &RevocationCheckpoint{
		WorldID:        worldID,
		NodeID:         nodeID,
		AnnouncedAtMS:  announcedAtMS,
		RevokedKeyIDs:  normalized,
		RevokedSetHash: hash,
	}, nil
}

func normalizeKeyIDs(raw []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, id := range raw {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			return nil, fmt.Errorf("membership: revoked key id cannot be empty")
		}
		if seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	sort.Strings(out)
	return out, nil
}

func revokedSetHash(sortedKeyIDs []string) (string, error) {
	return codec.HashCBOR(codec.SHA256, sortedKeyIDs)
}

// KeyRevoker is the local revoked-key directory a reconcile run compares
// against and merges into.
type KeyRevoker interface {
	RevokedKeys() []string
	RevokeKey(keyID string) (bool, error)
}

// ReconcilePolicy gates which remote checkpoints are trusted and whether
// divergence is auto-merged.
type ReconcilePolicy struct {
	TrustedNodes          []string
	AutoRevokeMissingKeys bool
}

// ReconcileReport tallies the outcome of one reconcile run over a batch of
// drained checkpoints.
type ReconcileReport struct {
	Drained  int
	InSync   int
	Diverged int
	Merged   int
	Rejected int
}

// Reconcile validates each checkpoint, compares its revoked set against the
// local keyring, and (per policy) merges missing keys, exactly per §4.12's
// four-step description.
func Reconcile(worldID string, checkpoints []RevocationCheckpoint, keyring KeyRevoker, policy ReconcilePolicy) (ReconcileReport, error) {
	report := ReconcileReport{Drained: len(checkpoints)}
	for _, checkpoint := range checkpoints {
		remote, err := validateCheckpoint(worldID, checkpoint, policy)
		if err != nil {
			report.Rejected++
			continue
		}

		local := make(map[string]bool)
		for _, k := range keyring.RevokedKeys() {
			local[k] = true
		}

		diverged := len(remote) != len(local)
		if !diverged {
			for k := range remote {
				if !local[k] {
					diverged = true
					break
				}
			}
		}
		if !diverged {
			report.InSync++
			continue
		}

		report.Diverged++
		if !policy.AutoRevokeMissingKeys {
			continue
		}
		missing := make([]string, 0)
		for k := range remote {
			if !local[k] {
				missing = append(missing, k)
			}
		}
		sort.Strings(missing)
		for _, k := range missing {
			revoked, err := keyring.RevokeKey(k)
			if err != nil {
				return report, fmt.Errorf("revoke key %s: %w", k, err)
			}
			if revoked {
				report.Merged++
			}
		}
	}
	return report, nil
}

func validateCheckpoint(worldID string, checkpoint RevocationCheckpoint, policy ReconcilePolicy) (map[string]bool, error) {
	if checkpoint.WorldID != worldID {
		return nil, fmt.Errorf("membership: checkpoint world_id %s does not match %s", checkpoint.WorldID, worldID)
	}
	nodeID := strings.TrimSpace(checkpoint.NodeID)
	if nodeID == "" {
		return nil, fmt.Errorf("membership: checkpoint node_id cannot be empty")
	}
	if len(policy.TrustedNodes) > 0 {
		trusted := false
		for _, t := range policy.TrustedNodes {
			if t == nodeID {
				trusted = true
				break
			}
		}
		if !trusted {
			return nil, fmt.Errorf("membership: checkpoint node %s is not trusted", nodeID)
		}
	}

	normalized, err := normalizeKeyIDs(checkpoint.RevokedKeyIDs)
	if err != nil {
		return nil, err
	}
	expectedHash, err := revokedSetHash(normalized)
	if err != nil {
		return nil, err
	}
	if expectedHash != checkpoint.RevokedSetHash {
		return nil, fmt.Errorf("membership: checkpoint hash mismatch for node %s", nodeID)
	}

	out := make(map[string]bool, len(normalized))
	for _, k := range normalized {
		out[k] = true
	}
	return out, nil
}
