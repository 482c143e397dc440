package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentworld/crypto"
	"agentworld/world"
)

func signedProposal(t *testing.T, height uint64, blockHash string, actions []PendingAction) ProposalMessage {
	t.Helper()
	priv, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	ordered, err := DedupActions(actions)
	require.NoError(t, err)
	msg := ProposalMessage{
		Version:    1,
		Height:     height,
		BlockHash:  blockHash,
		ActionRoot: ComputeActionRoot(ordered),
		Actions:    actions,
	}
	require.NoError(t, msg.Sign(priv))
	return msg
}

func TestDedupActionsDetectsConflict(t *testing.T) {
	actions := []PendingAction{
		{ActionID: 1, PayloadHash: "a", SubmitterPlayerID: "p1"},
		{ActionID: 1, PayloadHash: "b", SubmitterPlayerID: "p1"},
	}
	_, err := DedupActions(actions)
	assert.Error(t, err)
}

func TestDedupActionsOrdersByActionID(t *testing.T) {
	actions := []PendingAction{
		{ActionID: 3, PayloadHash: "c", SubmitterPlayerID: "p1"},
		{ActionID: 1, PayloadHash: "a", SubmitterPlayerID: "p1"},
		{ActionID: 1, PayloadHash: "a", SubmitterPlayerID: "p1"},
	}
	ordered, err := DedupActions(actions)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, world.ActionID(1), ordered[0].ActionID)
	assert.Equal(t, world.ActionID(3), ordered[1].ActionID)
}

func TestVerifyActionRootAcceptsLegacyV1(t *testing.T) {
	actions := []PendingAction{{ActionID: 1, PayloadHash: "a", SubmitterPlayerID: "p1"}}
	v1Root := computeActionRootV1(actions)
	assert.True(t, VerifyActionRoot(actions, v1Root))
}

func TestEngineCommitsOnSupermajority(t *testing.T) {
	validators := []Validator{{ValidatorID: "v1", Stake: 40}, {ValidatorID: "v2", Stake: 30}, {ValidatorID: "v3", Stake: 30}}
	engine := NewEngine(validators, 2, 3, 100)

	proposal := signedProposal(t, 1, "blockA", []PendingAction{{ActionID: 1, PayloadHash: "a", SubmitterPlayerID: "p1"}})
	require.NoError(t, engine.SubmitProposal(proposal))

	require.NoError(t, engine.RecordAttestation(AttestationMessage{ValidatorID: "v1", Height: 1, BlockHash: "blockA", Approve: true}))
	decision, hash := engine.Decide(1)
	assert.Equal(t, DecisionPending, decision)

	require.NoError(t, engine.RecordAttestation(AttestationMessage{ValidatorID: "v2", Height: 1, BlockHash: "blockA", Approve: true}))
	decision, hash = engine.Decide(1)
	assert.Equal(t, DecisionCommitted, decision)
	assert.Equal(t, "blockA", hash)
	assert.Equal(t, uint64(1), engine.LastCommittedHeight())
}

func TestEngineRejectsWhenThresholdUnreachable(t *testing.T) {
	validators := []Validator{{ValidatorID: "v1", Stake: 40}, {ValidatorID: "v2", Stake: 60}}
	engine := NewEngine(validators, 2, 3, 100)

	proposal := signedProposal(t, 1, "blockA", []PendingAction{{ActionID: 1, PayloadHash: "a", SubmitterPlayerID: "p1"}})
	require.NoError(t, engine.SubmitProposal(proposal))

	require.NoError(t, engine.RecordAttestation(AttestationMessage{ValidatorID: "v2", Height: 1, BlockHash: "blockA", Approve: false}))
	decision, _ := engine.Decide(1)
	assert.Equal(t, DecisionRejected, decision)
}

func TestEngineRejectsBadActionRoot(t *testing.T) {
	proposal := signedProposal(t, 1, "blockA", []PendingAction{{ActionID: 1, PayloadHash: "a", SubmitterPlayerID: "p1"}})
	proposal.ActionRoot = "tampered"
	engine := NewEngine(nil, 2, 3, 100)
	err := engine.SubmitProposal(proposal)
	assert.Error(t, err)
}
