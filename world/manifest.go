package world

// Manifest is the world's configuration document; its canonical hash is the
// world's configuration identity (§3.2).
type Manifest struct {
	Version int            `cbor:"version" json:"version"`
	Content map[string]any `cbor:"content" json:"content"`
}

// ModuleKind classifies whether a module owns opaque reducer state.
type ModuleKind string

const (
	ModuleKindReducer ModuleKind = "Reducer"
	ModuleKindPure    ModuleKind = "Pure"
)

// ModuleRole groups a module by the slice of the simulation it serves.
type ModuleRole string

const (
	ModuleRoleDomain    ModuleRole = "Domain"
	ModuleRoleBody      ModuleRole = "Body"
	ModuleRoleGameplay  ModuleRole = "Gameplay"
)

// Stage identifies when a subscription fires relative to action handling.
type Stage string

const (
	StagePreAction  Stage = "PreAction"
	StagePostEvent  Stage = "PostEvent"
	StageTick       Stage = "Tick"
)

// Subscription declares when a module is invoked.
type Subscription struct {
	EventKinds  []string `cbor:"event_kinds,omitempty" json:"event_kinds,omitempty"`
	ActionKinds []string `cbor:"action_kinds,omitempty" json:"action_kinds,omitempty"`
	Stage       Stage    `cbor:"stage" json:"stage"`
	Filters     map[string]any `cbor:"filters,omitempty" json:"filters,omitempty"`
}

// ABIContract describes a module's wire contract.
type ABIContract struct {
	ABIVersion   string   `cbor:"abi_version" json:"abi_version"`
	InputSchema  string   `cbor:"input_schema" json:"input_schema"`
	OutputSchema string   `cbor:"output_schema" json:"output_schema"`
	Gameplay     *GameplaySlot `cbor:"gameplay,omitempty" json:"gameplay,omitempty"`
	CapSlots     []string `cbor:"cap_slots,omitempty" json:"cap_slots,omitempty"`
	PolicyHooks  []string `cbor:"policy_hooks,omitempty" json:"policy_hooks,omitempty"`
}

// GameplaySlot identifies the (game_mode, gameplay_kind) pair a gameplay
// module claims; two active gameplay modules may never share one (§4.5).
type GameplaySlot struct {
	GameMode     string `cbor:"game_mode" json:"game_mode"`
	GameplayKind string `cbor:"gameplay_kind" json:"gameplay_kind"`
}

// ArtifactIdentity ties a manifest to the build that produced its wasm.
type ArtifactIdentity struct {
	SourceHash       string `cbor:"source_hash" json:"source_hash"`
	BuildManifestHash string `cbor:"build_manifest_hash" json:"build_manifest_hash"`
	Signature        []byte `cbor:"signature,omitempty" json:"signature,omitempty"`
}

// Limits bounds one module instance's resource consumption (§4.6).
type Limits struct {
	MaxMemBytes   uint64 `cbor:"max_mem_bytes" json:"max_mem_bytes"`
	MaxGas        uint64 `cbor:"max_gas" json:"max_gas"`
	MaxCallRate   uint32 `cbor:"max_call_rate" json:"max_call_rate"`
	MaxOutputBytes uint64 `cbor:"max_output_bytes" json:"max_output_bytes"`
	MaxEffects    uint32 `cbor:"max_effects" json:"max_effects"`
	MaxEmits      uint32 `cbor:"max_emits" json:"max_emits"`
}

// ModuleManifest is the signed declaration of one module version (§3.4).
type ModuleManifest struct {
	ModuleID         ModuleID         `cbor:"module_id" json:"module_id"`
	Name             string           `cbor:"name" json:"name"`
	Version          string           `cbor:"version" json:"version"`
	Kind             ModuleKind       `cbor:"kind" json:"kind"`
	Role             ModuleRole       `cbor:"role" json:"role"`
	WasmHash         string           `cbor:"wasm_hash" json:"wasm_hash"`
	InterfaceVersion string           `cbor:"interface_version" json:"interface_version"`
	ABIContract      ABIContract      `cbor:"abi_contract" json:"abi_contract"`
	Exports          []string         `cbor:"exports,omitempty" json:"exports,omitempty"`
	Subscriptions    []Subscription   `cbor:"subscriptions,omitempty" json:"subscriptions,omitempty"`
	RequiredCaps     []string         `cbor:"required_caps,omitempty" json:"required_caps,omitempty"`
	ArtifactIdentity ArtifactIdentity `cbor:"artifact_identity" json:"artifact_identity"`
	Limits           Limits           `cbor:"limits" json:"limits"`
}

// Key identifies a specific manifest by (module_id, version).
type ModuleKey struct {
	ModuleID ModuleID
	Version  string
}

// ModuleRecord is a registered manifest alongside its registry bookkeeping.
type ModuleRecord struct {
	Manifest ModuleManifest `cbor:"manifest" json:"manifest"`
}

// ModuleRegistry tracks every registered manifest and which version (if
// any) of each module id is currently active.
type ModuleRegistry struct {
	Records map[ModuleKey]ModuleRecord `cbor:"-" json:"-"`
	Active  map[ModuleID]string        `cbor:"-" json:"-"`
}

// NewModuleRegistry constructs an empty registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		Records: make(map[ModuleKey]ModuleRecord),
		Active:  make(map[ModuleID]string),
	}
}

// Register adds or replaces a manifest record.
func (r *ModuleRegistry) Register(m ModuleManifest) {
	r.Records[ModuleKey{ModuleID: m.ModuleID, Version: m.Version}] = ModuleRecord{Manifest: m}
}

// Activate marks (module_id, version) as the active version for module_id.
// The caller is responsible for gameplay-slot-conflict and existence checks
// (§4.5) before calling this.
func (r *ModuleRegistry) Activate(id ModuleID, version string) {
	r.Active[id] = version
}

// Deactivate removes module_id from the active set without touching the
// registry record.
func (r *ModuleRegistry) Deactivate(id ModuleID) {
	delete(r.Active, id)
}

// ActiveManifests returns every manifest currently active, in module_id
// lexical order for deterministic iteration.
func (r *ModuleRegistry) ActiveManifests() []ModuleManifest {
	ids := make([]ModuleID, 0, len(r.Active))
	for id := range r.Active {
		ids = append(ids, id)
	}
	sortModuleIDs(ids)
	out := make([]ModuleManifest, 0, len(ids))
	for _, id := range ids {
		version := r.Active[id]
		if rec, ok := r.Records[ModuleKey{ModuleID: id, Version: version}]; ok {
			out = append(out, rec.Manifest)
		}
	}
	return out
}

func sortModuleIDs(ids []ModuleID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
