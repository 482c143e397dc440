package world

// CapabilityGrant authorizes its cap_ref to emit intents whose kind matches
// one of scopes (§4.4).
type CapabilityGrant struct {
	CapRef    string   `cbor:"cap_ref" json:"cap_ref"`
	Scopes    []string `cbor:"scopes" json:"scopes"`
	ExpiresAt *int64   `cbor:"expires_at,omitempty" json:"expires_at,omitempty"`
}

// PolicyVerdict is the outcome of evaluating one policy rule.
type PolicyVerdict string

const (
	PolicyAllow PolicyVerdict = "Allow"
	PolicyDeny  PolicyVerdict = "Deny"
)

// PolicyRule is one entry of the ordered policy rule list; the first rule
// whose Match reports true decides the intent (§4.4).
type PolicyRule struct {
	Name    string        `cbor:"name" json:"name"`
	Match   func(intentKind string) bool `cbor:"-" json:"-"`
	Verdict PolicyVerdict `cbor:"verdict" json:"verdict"`
	Reason  string        `cbor:"reason,omitempty" json:"reason,omitempty"`
}

// EffectIntent is a queued side effect awaiting dispatch (§3.2, §4.9).
type EffectIntent struct {
	IntentID   IntentID       `cbor:"intent_id" json:"intent_id"`
	EffectKind string         `cbor:"effect_kind" json:"effect_kind"`
	Params     map[string]any `cbor:"params" json:"params"`
	CapRef     string         `cbor:"cap_ref" json:"cap_ref"`
}

// ProposalStatus is a governance proposal's state-machine position (§4.5).
type ProposalStatus string

const (
	ProposalDraft      ProposalStatus = "Draft"
	ProposalShadow     ProposalStatus = "Shadow"
	ProposalApproved   ProposalStatus = "Approved"
	ProposalApplied    ProposalStatus = "Applied"
	ProposalRejected   ProposalStatus = "Rejected"
	ProposalRolledBack ProposalStatus = "RolledBack"
)

// ModuleChangeSet is the atomic bundle of registry edits one proposal makes.
type ModuleChangeSet struct {
	Register   []ModuleManifest `cbor:"register,omitempty" json:"register,omitempty"`
	Activate   []ModuleKey      `cbor:"activate,omitempty" json:"activate,omitempty"`
	Deactivate []ModuleID       `cbor:"deactivate,omitempty" json:"deactivate,omitempty"`
	Upgrade    []ModuleKey      `cbor:"upgrade,omitempty" json:"upgrade,omitempty"`
}

// Proposal is one governance change request tracked by proposal_id.
type Proposal struct {
	ID          ProposalID      `cbor:"id" json:"id"`
	Actor       AgentID         `cbor:"actor" json:"actor"`
	ChangeSet   ModuleChangeSet `cbor:"change_set" json:"change_set"`
	Status      ProposalStatus  `cbor:"status" json:"status"`
	ShadowHash  string          `cbor:"shadow_hash,omitempty" json:"shadow_hash,omitempty"`
	Approvals   map[AgentID]bool `cbor:"approvals,omitempty" json:"approvals,omitempty"`
	AppliedRef  string          `cbor:"applied_ref,omitempty" json:"applied_ref,omitempty"`
}

// SchedulerCursor is the kernel's per-tick bookkeeping (§3.2).
type SchedulerCursor struct {
	Time            int64 `cbor:"time" json:"time"`
	ActionsThisTick int   `cbor:"actions_this_tick" json:"actions_this_tick"`
}

// ReceiptsSigner tracks the rolling receipts-root chain (§3.5 invariant 7).
type ReceiptsSigner struct {
	PrevRoot string `cbor:"prev_root" json:"prev_root"`
	Height   uint64 `cbor:"height" json:"height"`
}

// SimState is the mutable simulation substrate: agents, locations,
// resources, and opaque per-module reducer state (§3.2 `state{...}`).
type SimState struct {
	Time         int64                     `cbor:"time" json:"time"`
	Agents       map[AgentID]map[string]any `cbor:"agents" json:"agents"`
	Locations    map[LocationID]map[string]any `cbor:"locations" json:"locations"`
	Resources    map[string]any            `cbor:"resources" json:"resources"`
	ModuleStates map[ModuleID][]byte       `cbor:"module_states" json:"module_states"`
}

// World is the complete snapshot-serializable world state (§3.2).
type World struct {
	Manifest        Manifest                 `cbor:"manifest" json:"manifest"`
	Registry        *ModuleRegistry          `cbor:"registry" json:"registry"`
	State           SimState                 `cbor:"state" json:"state"`
	PendingActions  []ActionEnvelope         `cbor:"pending_actions" json:"pending_actions"`
	PendingEffects  []EffectIntent           `cbor:"pending_effects" json:"pending_effects"`
	InflightEffects map[IntentID]EffectIntent `cbor:"inflight_effects" json:"inflight_effects"`
	Capabilities    map[string]CapabilityGrant `cbor:"capabilities" json:"capabilities"`
	Policies        []PolicyRule             `cbor:"-" json:"-"`
	Proposals       map[ProposalID]*Proposal `cbor:"proposals" json:"proposals"`
	SchedulerCursor SchedulerCursor          `cbor:"scheduler_cursor" json:"scheduler_cursor"`
	ReceiptsSigner  ReceiptsSigner           `cbor:"receipts_signer" json:"receipts_signer"`
	Cursor          IDCursor                 `cbor:"cursor" json:"cursor"`
	JournalLen      uint64                   `cbor:"journal_len" json:"journal_len"`
	Journal         *Journal                 `cbor:"-" json:"-"`
}

// New constructs an empty world ready to accept actions and proposals.
func New() *World {
	return &World{
		Registry: NewModuleRegistry(),
		State: SimState{
			Agents:       make(map[AgentID]map[string]any),
			Locations:    make(map[LocationID]map[string]any),
			Resources:    make(map[string]any),
			ModuleStates: make(map[ModuleID][]byte),
		},
		InflightEffects: make(map[IntentID]EffectIntent),
		Capabilities:    make(map[string]CapabilityGrant),
		Proposals:       make(map[ProposalID]*Proposal),
		Journal:         &Journal{},
	}
}

// JournalAppend appends ev to the world's journal and keeps journal_len in
// sync, the single path every component must use to record an event.
func (w *World) JournalAppend(ev WorldEvent) error {
	if err := w.Journal.Append(ev); err != nil {
		return err
	}
	w.JournalLen = uint64(w.Journal.Len())
	return nil
}

// EnqueueAction allocates an id and appends an action to pending_actions.
func (w *World) EnqueueAction(a Action) ActionEnvelope {
	env := ActionEnvelope{ID: w.Cursor.AllocAction(), Action: a}
	w.PendingActions = append(w.PendingActions, env)
	return env
}

// PopAction removes and returns the oldest pending action, FIFO (§4.8 step 1).
func (w *World) PopAction() (ActionEnvelope, bool) {
	if len(w.PendingActions) == 0 {
		return ActionEnvelope{}, false
	}
	env := w.PendingActions[0]
	w.PendingActions = w.PendingActions[1:]
	return env, true
}

// QueueEffect allocates an intent id, appends it to pending_effects, and
// returns the intent (§4.9).
func (w *World) QueueEffect(kind string, params map[string]any, capRef string) EffectIntent {
	intent := EffectIntent{
		IntentID:   w.Cursor.AllocIntent(),
		EffectKind: kind,
		Params:     params,
		CapRef:     capRef,
	}
	w.PendingEffects = append(w.PendingEffects, intent)
	return intent
}

// TakeNextEffect moves the oldest pending effect into inflight_effects and
// returns it (§4.9 `take_next_effect`).
func (w *World) TakeNextEffect() (EffectIntent, bool) {
	if len(w.PendingEffects) == 0 {
		return EffectIntent{}, false
	}
	intent := w.PendingEffects[0]
	w.PendingEffects = w.PendingEffects[1:]
	w.InflightEffects[intent.IntentID] = intent
	return intent, true
}
