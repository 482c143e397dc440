package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentworld/world"
)

func baseManifest(id world.ModuleID) world.ModuleManifest {
	return world.ModuleManifest{
		ModuleID: id,
		Version:  "1.0.0",
		Kind:     world.ModuleKindReducer,
		Role:     world.ModuleRoleGameplay,
		ArtifactIdentity: world.ArtifactIdentity{
			SourceHash:        "src-1",
			BuildManifestHash: "build-1",
		},
	}
}

func TestGovernanceFullLifecycle(t *testing.T) {
	registry := world.NewModuleRegistry()
	cursor := &world.IDCursor{}
	gov := &Governance{QuorumCount: 2}

	manifest := baseManifest("combat")
	changeSet := world.ModuleChangeSet{
		Register: []world.ModuleManifest{manifest},
		Activate: []world.ModuleKey{{ModuleID: "combat", Version: "1.0.0"}},
	}

	proposal, proposed := gov.Propose(cursor, changeSet, "actor-1")
	assert.Equal(t, "Proposed", proposed.Transition)
	assert.Equal(t, world.ProposalDraft, proposal.Status)

	failures, shadowEvt, err := gov.Shadow(registry, proposal, world.Limits{})
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, "ShadowReport", shadowEvt.Transition)
	assert.Equal(t, world.ProposalShadow, proposal.Status)

	evt, err := gov.Approve(proposal, "voter-1", true)
	require.NoError(t, err)
	assert.Equal(t, "ApprovalRecorded", evt.Transition)
	assert.Equal(t, world.ProposalShadow, proposal.Status)

	evt, err = gov.Approve(proposal, "voter-2", true)
	require.NoError(t, err)
	assert.Equal(t, "Approved", evt.Transition)
	assert.Equal(t, world.ProposalApproved, proposal.Status)

	manifestUpdated, applied, err := gov.Apply(registry, proposal, "manifest-ref-1")
	require.NoError(t, err)
	assert.Equal(t, proposal.ID, manifestUpdated.ProposalID)
	assert.Equal(t, "Applied", applied.Transition)
	assert.Equal(t, world.ProposalApplied, proposal.Status)

	active := registry.ActiveManifests()
	require.Len(t, active, 1)
	assert.Equal(t, world.ModuleID("combat"), active[0].ModuleID)
}

func TestGovernanceShadowRejectsMissingArtifactIdentity(t *testing.T) {
	registry := world.NewModuleRegistry()
	cursor := &world.IDCursor{}
	gov := &Governance{QuorumCount: 1}

	manifest := world.ModuleManifest{ModuleID: "broken"}
	proposal, _ := gov.Propose(cursor, world.ModuleChangeSet{Register: []world.ModuleManifest{manifest}}, "actor-1")

	failures, _, err := gov.Shadow(registry, proposal, world.Limits{})
	require.NoError(t, err)
	require.NotEmpty(t, failures)
	assert.Equal(t, world.ProposalDraft, proposal.Status)
}

func TestCheckGameplayConflictsDetectsSharedSlot(t *testing.T) {
	registry := world.NewModuleRegistry()
	gov := &Governance{}

	existing := baseManifest("combat-a")
	existing.ABIContract.Gameplay = &world.GameplaySlot{GameMode: "default", GameplayKind: "War"}
	registry.Register(existing)
	registry.Activate("combat-a", "1.0.0")

	conflicting := baseManifest("combat-b")
	conflicting.ABIContract.Gameplay = &world.GameplaySlot{GameMode: "default", GameplayKind: "War"}

	failures := gov.checkGameplayConflicts(registry, world.ModuleChangeSet{Register: []world.ModuleManifest{conflicting}})
	require.NotEmpty(t, failures)
}

func TestGameplayModeReadiness(t *testing.T) {
	registry := world.NewModuleRegistry()
	m := baseManifest("combat")
	m.ABIContract.Gameplay = &world.GameplaySlot{GameMode: "default", GameplayKind: "War"}
	registry.Register(m)
	registry.Activate("combat", "1.0.0")

	readiness := GameplayModeReadiness(registry, "default")
	assert.True(t, readiness["War"])
	assert.False(t, readiness["Economic"])
}
