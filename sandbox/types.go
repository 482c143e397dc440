// Package sandbox hosts the wasm-1 module call contract (§4.6): the
// ModuleSandbox interface, its canonical-CBOR input/output envelopes, and
// the enforcement of the host invariants every implementation must honor.
package sandbox

import (
	"context"

	"agentworld/world"
)

// Origin identifies what triggered a module call.
type Origin struct {
	Kind string `cbor:"kind" json:"kind"`
	ID   string `cbor:"id" json:"id"`
}

// CallContext is the `ctx` field of a ModuleCallInput (§4.6).
type CallContext struct {
	V               string          `cbor:"v" json:"v"`
	ModuleID        world.ModuleID  `cbor:"module_id" json:"module_id"`
	TraceID         string          `cbor:"trace_id" json:"trace_id"`
	Time            int64           `cbor:"time" json:"time"`
	Origin          Origin          `cbor:"origin" json:"origin"`
	Limits          world.Limits    `cbor:"limits" json:"limits"`
	Stage           world.Stage     `cbor:"stage" json:"stage"`
	WorldConfigHash string          `cbor:"world_config_hash" json:"world_config_hash"`
	ManifestHash    string          `cbor:"manifest_hash" json:"manifest_hash"`
	JournalHeight   uint64          `cbor:"journal_height" json:"journal_height"`
	ModuleVersion   string          `cbor:"module_version" json:"module_version"`
	ModuleKind      world.ModuleKind `cbor:"module_kind" json:"module_kind"`
	ModuleRole      world.ModuleRole `cbor:"module_role" json:"module_role"`
}

// WasmAPIVersion is the only ctx.v this host speaks.
const WasmAPIVersion = "wasm-1"

// ModuleCallInput is the canonical-CBOR payload handed to a module call.
type ModuleCallInput struct {
	Ctx    CallContext          `cbor:"ctx" json:"ctx"`
	Event  *world.WorldEvent    `cbor:"event,omitempty" json:"event,omitempty"`
	Action *world.ActionEnvelope `cbor:"action,omitempty" json:"action,omitempty"`
	State  []byte               `cbor:"state,omitempty" json:"state,omitempty"`
}

// ModuleCallRequest wraps the canonical-CBOR-encoded input passed to a
// sandbox's Call.
type ModuleCallRequest struct {
	Input []byte
}

// ModuleEffectIntent is an effect a module asked the host to queue; it is
// run through capability/policy admission before becoming a world
// EffectIntent (§4.6 invariant 4).
type ModuleEffectIntent struct {
	EffectKind string         `cbor:"effect_kind" json:"effect_kind"`
	Params     map[string]any `cbor:"params" json:"params"`
	CapRef     string         `cbor:"cap_ref" json:"cap_ref"`
}

// ModuleEmit is an opaque event a module asked the host to journal as
// ModuleEmitted.
type ModuleEmit struct {
	EmitKind string         `cbor:"emit_kind" json:"emit_kind"`
	Payload  map[string]any `cbor:"payload" json:"payload"`
}

// TickLifecycleDirective controls whether a Stage=Tick module instance is
// rescheduled after this call (§4.6).
type TickLifecycleDirective struct {
	WakeAfterTicks *uint64 `cbor:"wake_after_ticks,omitempty" json:"wake_after_ticks,omitempty"`
	Suspend        bool    `cbor:"suspend,omitempty" json:"suspend,omitempty"`
}

// ModuleOutput is a module call's successful result.
type ModuleOutput struct {
	NewState      []byte                 `cbor:"new_state,omitempty" json:"new_state,omitempty"`
	Effects       []ModuleEffectIntent   `cbor:"effects,omitempty" json:"effects,omitempty"`
	Emits         []ModuleEmit           `cbor:"emits,omitempty" json:"emits,omitempty"`
	TickLifecycle *TickLifecycleDirective `cbor:"tick_lifecycle,omitempty" json:"tick_lifecycle,omitempty"`
	OutputBytes   uint64                 `cbor:"output_bytes" json:"output_bytes"`
}

// ModuleCallFailure is a module call's typed failure result.
type ModuleCallFailure struct {
	Code    string `cbor:"code" json:"code"`
	Message string `cbor:"message" json:"message"`
}

func (f *ModuleCallFailure) Error() string { return f.Code + ": " + f.Message }

// Failure codes a ModuleSandbox or Host may produce.
const (
	CodeInvalidOutput       = "InvalidOutput"
	CodeLimitExceeded       = "LimitExceeded"
	CodeCallRateExceeded    = "CallRateExceeded"
	CodeComputeTimeExhausted = "ComputeTimeExhausted"
	CodeComputeMemExhausted  = "ComputeMemoryExhausted"
	CodeTrapped             = "Trapped"
)

// ModuleSandbox is the host-facing contract every module runtime (wasm or
// in-process test double) implements.
type ModuleSandbox interface {
	// Call executes one module invocation against canonical-CBOR-encoded
	// input and returns a canonical-CBOR-encoded ModuleOutput, or a
	// ModuleCallFailure.
	Call(ctx context.Context, req ModuleCallRequest) ([]byte, *ModuleCallFailure)
	// Close releases runtime resources.
	Close(ctx context.Context) error
}
