package world

import "agentworld/codec"

// Snapshot canonically encodes the world's serializable state (everything
// except the process-local Policies closures and the in-memory Journal,
// which snapshot/replay keeps separate per §3.2).
func (w *World) Snapshot() ([]byte, error) {
	return codec.MarshalCBOR(w)
}

// FromSnapshot decodes a prior Snapshot output into a fresh World. The
// caller is responsible for replaying journal events from JournalLen
// onward via JournalAppend, since the journal itself travels separately
// from the snapshot (§4.10 step 6).
func FromSnapshot(data []byte) (*World, error) {
	w := &World{}
	if err := codec.UnmarshalCBOR(data, w); err != nil {
		return nil, err
	}
	if w.Registry == nil {
		w.Registry = NewModuleRegistry()
	}
	if w.InflightEffects == nil {
		w.InflightEffects = make(map[IntentID]EffectIntent)
	}
	if w.Capabilities == nil {
		w.Capabilities = make(map[string]CapabilityGrant)
	}
	if w.Proposals == nil {
		w.Proposals = make(map[ProposalID]*Proposal)
	}
	w.Journal = &Journal{}
	return w, nil
}
