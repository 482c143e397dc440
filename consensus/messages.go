// Package consensus implements the per-world proof-of-stake engine (§4.11):
// stake-weighted supermajority attestation over block proposals, signed
// ed25519 messages, and deterministic action-root computation.
package consensus

import (
	"agentworld/codec"
	"agentworld/crypto"
	"agentworld/world"
)

// Validator is one stake-weighted participant in a world's validator set.
type Validator struct {
	ValidatorID string `cbor:"validator_id" json:"validator_id"`
	Stake       uint64 `cbor:"stake" json:"stake"`
}

// PendingAction is one deduplicated entry feeding action_root computation.
type PendingAction struct {
	ActionID         world.ActionID `cbor:"action_id" json:"action_id"`
	SubmitterPlayerID string        `cbor:"submitter_player_id" json:"submitter_player_id"`
	PayloadHash      string         `cbor:"payload_hash" json:"payload_hash"`
}

// actionRootDoc is the v2 action_root document, which includes
// submitter_player_id; actionRootDocV1 is the legacy form that omits it and
// is accepted on verify only, never produced.
type actionRootDoc struct {
	Version int             `cbor:"version" json:"version"`
	Actions []PendingAction `cbor:"actions" json:"actions"`
}

type actionRootDocV1 struct {
	Version int `cbor:"version" json:"version"`
	Actions []struct {
		ActionID    world.ActionID `cbor:"action_id" json:"action_id"`
		PayloadHash string         `cbor:"payload_hash" json:"payload_hash"`
	} `cbor:"actions" json:"actions"`
}

// ComputeActionRoot implements action_root = H(canonical_cbor({version:2,
// actions:[...]})) with actions ordered by strictly increasing action_id.
// Callers must have already deduplicated and order-checked via
// DedupActions.
func ComputeActionRoot(actions []PendingAction) string {
	doc := actionRootDoc{Version: 2, Actions: actions}
	hash, err := codec.HashCBOR(codec.BLAKE3, doc)
	if err != nil {
		return ""
	}
	return hash
}

// computeActionRootV1 recomputes the legacy (no submitter_player_id) root
// form, accepted on verify for backward compatibility.
func computeActionRootV1(actions []PendingAction) string {
	doc := actionRootDocV1{Version: 1}
	for _, a := range actions {
		doc.Actions = append(doc.Actions, struct {
			ActionID    world.ActionID `cbor:"action_id" json:"action_id"`
			PayloadHash string         `cbor:"payload_hash" json:"payload_hash"`
		}{ActionID: a.ActionID, PayloadHash: a.PayloadHash})
	}
	hash, err := codec.HashCBOR(codec.BLAKE3, doc)
	if err != nil {
		return ""
	}
	return hash
}

// VerifyActionRoot reports whether root matches either the current (v2) or
// legacy (v1) encoding of actions.
func VerifyActionRoot(actions []PendingAction, root string) bool {
	return root == ComputeActionRoot(actions) || root == computeActionRootV1(actions)
}

// ProposalMessage is a signed block proposal (§4.11).
type ProposalMessage struct {
	Version      int             `cbor:"version" json:"version"`
	WorldID      world.WorldID   `cbor:"world_id" json:"world_id"`
	NodeID       world.NodeID    `cbor:"node_id" json:"node_id"`
	ProposerID   string          `cbor:"proposer_id" json:"proposer_id"`
	Height       uint64          `cbor:"height" json:"height"`
	Slot         uint64          `cbor:"slot" json:"slot"`
	Epoch        uint64          `cbor:"epoch" json:"epoch"`
	BlockHash    string          `cbor:"block_hash" json:"block_hash"`
	ActionRoot   string          `cbor:"action_root" json:"action_root"`
	Actions      []PendingAction `cbor:"actions" json:"actions"`
	ProposedAtMS int64           `cbor:"proposed_at_ms" json:"proposed_at_ms"`
	PublicKeyHex string          `cbor:"public_key_hex" json:"public_key_hex"`
	SignatureHex string          `cbor:"signature_hex" json:"signature_hex"`
}

// AttestationMessage is a validator's vote on a (height, block_hash) pair.
type AttestationMessage struct {
	ValidatorID string `cbor:"validator_id" json:"validator_id"`
	Height      uint64 `cbor:"height" json:"height"`
	BlockHash   string `cbor:"block_hash" json:"block_hash"`
	Approve     bool   `cbor:"approve" json:"approve"`
	SourceEpoch uint64 `cbor:"source_epoch" json:"source_epoch"`
	TargetEpoch uint64 `cbor:"target_epoch" json:"target_epoch"`
	Reason      string `cbor:"reason,omitempty" json:"reason,omitempty"`
}

// CommitMessage announces a finalized height.
type CommitMessage struct {
	Height             uint64          `cbor:"height" json:"height"`
	BlockHash          string          `cbor:"block_hash" json:"block_hash"`
	ActionRoot         string          `cbor:"action_root" json:"action_root"`
	Actions            []PendingAction `cbor:"actions" json:"actions"`
	ExecutionBlockHash string          `cbor:"execution_block_hash,omitempty" json:"execution_block_hash,omitempty"`
	ExecutionStateRoot string          `cbor:"execution_state_root,omitempty" json:"execution_state_root,omitempty"`
}

// signingBytes returns the canonical CBOR encoding a proposal is signed
// over: itself with the signature field cleared.
func (m ProposalMessage) signingBytes() ([]byte, error) {
	m.SignatureHex = ""
	return codec.MarshalCBOR(m)
}

// Sign fills in PublicKeyHex/SignatureHex using key.
func (m *ProposalMessage) Sign(key *crypto.PrivateKey) error {
	m.PublicKeyHex = key.PubKey().Hex()
	data, err := m.signingBytes()
	if err != nil {
		return err
	}
	m.SignatureHex = hexEncode(key.Sign(data))
	return nil
}

// Verify checks the proposal's signature against its embedded public key.
func (m ProposalMessage) Verify() bool {
	pub, err := crypto.PublicKeyFromHex(m.PublicKeyHex)
	if err != nil {
		return false
	}
	data, err := m.signingBytes()
	if err != nil {
		return false
	}
	sig, err := hexDecode(m.SignatureHex)
	if err != nil {
		return false
	}
	return pub.Verify(data, sig)
}
