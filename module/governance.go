// Package module implements the manifest registry's governance state
// machine: proposing, shadow-validating, approving, and applying atomic
// module change sets (§4.5).
package module

import (
	"fmt"

	"agentworld/storage"
	"agentworld/world"
)

// BaselineGameplayKinds are the gameplay kinds gameplay_mode_readiness
// checks coverage over (§4.5).
var BaselineGameplayKinds = []string{"War", "Governance", "Crisis", "Economic", "Meta"}

// Governance drives the proposal state machine over a module registry. It
// does not own the registry's lifetime; callers supply it per call so the
// same governance logic works against the live World or a shadow copy.
type Governance struct {
	Blobs       *storage.BlobStore
	QuorumCount int
}

// ValidationFailure is one reason shadow validation rejected a proposal.
type ValidationFailure struct {
	ModuleID world.ModuleID
	Reason   string
}

// Propose allocates a proposal id and returns the Draft-status proposal
// plus the Governance::Proposed event body the caller must journal.
func (g *Governance) Propose(cursor *world.IDCursor, changeSet world.ModuleChangeSet, actor world.AgentID) (*world.Proposal, world.GovernanceBody) {
	id := cursor.AllocProposal()
	proposal := &world.Proposal{
		ID:        id,
		Actor:     actor,
		ChangeSet: changeSet,
		Status:    world.ProposalDraft,
		Approvals: make(map[world.AgentID]bool),
	}
	event := world.GovernanceBody{ProposalID: id, Transition: "Proposed"}
	return proposal, event
}

// Shadow dry-runs validation of a proposal's change set against registry
// and limits the caller passes in, and records the resulting report hash.
// Shadow must succeed (return no failures) before the proposal can move to
// Approved.
func (g *Governance) Shadow(registry *world.ModuleRegistry, proposal *world.Proposal, registryMaxLimits world.Limits) ([]ValidationFailure, world.GovernanceBody, error) {
	if proposal.Status != world.ProposalDraft {
		return nil, world.GovernanceBody{}, fmt.Errorf("world: proposal %d not in Draft", proposal.ID)
	}

	var failures []ValidationFailure
	for _, m := range proposal.ChangeSet.Register {
		failures = append(failures, g.validateManifest(m, registryMaxLimits)...)
	}
	failures = append(failures, g.checkGameplayConflicts(registry, proposal.ChangeSet)...)

	hash := shadowReportHash(proposal.ID, failures)
	proposal.ShadowHash = hash
	if len(failures) == 0 {
		proposal.Status = world.ProposalShadow
	}
	return failures, world.GovernanceBody{
		ProposalID: proposal.ID,
		Transition: "ShadowReport",
		Detail:     map[string]any{"hash": hash, "failures": len(failures)},
	}, nil
}

func (g *Governance) validateManifest(m world.ModuleManifest, maxLimits world.Limits) []ValidationFailure {
	var failures []ValidationFailure
	if !world.TrimmedNonEmpty(string(m.ModuleID)) {
		failures = append(failures, ValidationFailure{ModuleID: m.ModuleID, Reason: "empty module_id"})
	}
	if m.ArtifactIdentity.SourceHash == "" || m.ArtifactIdentity.BuildManifestHash == "" {
		failures = append(failures, ValidationFailure{ModuleID: m.ModuleID, Reason: "missing artifact identity"})
	}
	if g.Blobs != nil && m.WasmHash != "" {
		if !g.Blobs.Has(m.WasmHash) {
			failures = append(failures, ValidationFailure{ModuleID: m.ModuleID, Reason: "wasm blob not present in CAS"})
		}
	}
	if maxLimits.MaxMemBytes > 0 && m.Limits.MaxMemBytes > maxLimits.MaxMemBytes {
		failures = append(failures, ValidationFailure{ModuleID: m.ModuleID, Reason: "max_mem_bytes exceeds registry ceiling"})
	}
	if maxLimits.MaxGas > 0 && m.Limits.MaxGas > maxLimits.MaxGas {
		failures = append(failures, ValidationFailure{ModuleID: m.ModuleID, Reason: "max_gas exceeds registry ceiling"})
	}
	return failures
}

// checkGameplayConflicts detects two gameplay modules claiming the same
// (game_mode, gameplay_kind) pair among the currently active modules, the
// change set's activate[] entries, and every manifest in its register[]
// list (whether or not it is also activated). deactivate[] and upgrade[]
// are not taken into account.
func (g *Governance) checkGameplayConflicts(registry *world.ModuleRegistry, changeSet world.ModuleChangeSet) []ValidationFailure {
	seen := make(map[world.GameplaySlot]world.ModuleID)
	note := func(id world.ModuleID, slot *world.GameplaySlot) []ValidationFailure {
		if slot == nil {
			return nil
		}
		if other, ok := seen[*slot]; ok && other != id {
			return []ValidationFailure{{ModuleID: id, Reason: fmt.Sprintf("gameplay slot (%s,%s) conflicts with %s", slot.GameMode, slot.GameplayKind, other)}}
		}
		seen[*slot] = id
		return nil
	}

	var failures []ValidationFailure
	for _, active := range registry.ActiveManifests() {
		failures = append(failures, note(active.ModuleID, active.ABIContract.Gameplay)...)
	}
	for _, key := range changeSet.Activate {
		rec, ok := registry.Records[key]
		if !ok {
			continue
		}
		failures = append(failures, note(key.ModuleID, rec.Manifest.ABIContract.Gameplay)...)
	}
	for _, m := range changeSet.Register {
		failures = append(failures, note(m.ModuleID, m.ABIContract.Gameplay)...)
	}
	return failures
}

// Approve records approver's vote and, once QuorumCount distinct approvals
// are reached, transitions the proposal to Approved.
func (g *Governance) Approve(proposal *world.Proposal, approver world.AgentID, approve bool) (world.GovernanceBody, error) {
	if proposal.Status != world.ProposalShadow {
		return world.GovernanceBody{}, fmt.Errorf("world: proposal %d not in Shadow", proposal.ID)
	}
	if !approve {
		proposal.Status = world.ProposalRejected
		return world.GovernanceBody{ProposalID: proposal.ID, Transition: "Rejected", Detail: map[string]any{"by": string(approver)}}, nil
	}
	proposal.Approvals[approver] = true
	if len(proposal.Approvals) >= g.QuorumCount {
		proposal.Status = world.ProposalApproved
		return world.GovernanceBody{ProposalID: proposal.ID, Transition: "Approved", Detail: map[string]any{"quorum": g.QuorumCount}}, nil
	}
	return world.GovernanceBody{ProposalID: proposal.ID, Transition: "ApprovalRecorded", Detail: map[string]any{"by": string(approver), "count": len(proposal.Approvals)}}, nil
}

// Apply materializes an Approved proposal's change set into the registry.
// It returns the ManifestUpdated event (which must be journaled strictly
// before the returned Governance::Applied event, per §4.5) and the applied
// event itself.
func (g *Governance) Apply(registry *world.ModuleRegistry, proposal *world.Proposal, manifestRef string) (world.ManifestUpdatedBody, world.GovernanceBody, error) {
	if proposal.Status != world.ProposalApproved {
		return world.ManifestUpdatedBody{}, world.GovernanceBody{}, fmt.Errorf("world: proposal %d not Approved", proposal.ID)
	}
	for _, m := range proposal.ChangeSet.Register {
		registry.Register(m)
	}
	for _, key := range proposal.ChangeSet.Activate {
		registry.Activate(key.ModuleID, key.Version)
	}
	for _, id := range proposal.ChangeSet.Deactivate {
		registry.Deactivate(id)
	}
	for _, key := range proposal.ChangeSet.Upgrade {
		registry.Activate(key.ModuleID, key.Version)
	}
	proposal.Status = world.ProposalApplied
	proposal.AppliedRef = manifestRef

	manifestUpdated := world.ManifestUpdatedBody{ProposalID: proposal.ID, ManifestRef: manifestRef}
	applied := world.GovernanceBody{ProposalID: proposal.ID, Transition: "Applied"}
	return manifestUpdated, applied, nil
}

// Rollback marks the proposal RolledBack and returns the RollbackApplied
// event body. It does not touch any registry and does not check the
// proposal's current status; this package holds no history of a registry's
// past states, so restoring one is left to the caller.
func (g *Governance) Rollback(proposal *world.Proposal, reason string) world.RollbackAppliedBody {
	proposal.Status = world.ProposalRolledBack
	return world.RollbackAppliedBody{ProposalID: proposal.ID, Reason: reason}
}

// GameplayModeReadiness reports, for a given game mode, which of the
// baseline gameplay kinds have an active module claiming them.
func GameplayModeReadiness(registry *world.ModuleRegistry, mode string) map[string]bool {
	covered := make(map[string]bool, len(BaselineGameplayKinds))
	for _, kind := range BaselineGameplayKinds {
		covered[kind] = false
	}
	for _, m := range registry.ActiveManifests() {
		slot := m.ABIContract.Gameplay
		if slot == nil || slot.GameMode != mode {
			continue
		}
		if _, tracked := covered[slot.GameplayKind]; tracked {
			covered[slot.GameplayKind] = true
		}
	}
	return covered
}

func shadowReportHash(id world.ProposalID, failures []ValidationFailure) string {
	// A stable human-auditable digest, not a CAS content hash: callers that
	// need the latter should hash the canonical-CBOR-encoded failures list
	// themselves via codec.HashCBOR.
	return fmt.Sprintf("shadow-%d-%d", id, len(failures))
}
