package sandbox

import (
	"context"
	"fmt"
	"sync"

	"agentworld/codec"
	"agentworld/world"
)

// Host wraps a ModuleSandbox runtime with the enforcement §4.6 assigns to
// the host rather than to the module: output-shape validation, resource
// limits, per-tick call-rate limiting, and metering charges.
type Host struct {
	mu        sync.Mutex
	runtimes  map[world.ModuleID]ModuleSandbox
	callCount map[callRateKey]uint32
}

type callRateKey struct {
	module world.ModuleID
	tick   int64
}

// NewHost constructs an empty host; runtimes are registered per module via
// Register before they can be called.
func NewHost() *Host {
	return &Host{
		runtimes:  make(map[world.ModuleID]ModuleSandbox),
		callCount: make(map[callRateKey]uint32),
	}
}

// Register binds a module id to the sandbox runtime instantiated for it.
func (h *Host) Register(id world.ModuleID, rt ModuleSandbox) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runtimes[id] = rt
}

// Unregister removes and closes a module's runtime.
func (h *Host) Unregister(ctx context.Context, id world.ModuleID) error {
	h.mu.Lock()
	rt, ok := h.runtimes[id]
	delete(h.runtimes, id)
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return rt.Close(ctx)
}

// ChargeResult is the metering outcome of one successful call (§4.6
// invariant 5), applied by the caller against the owning agent's balances.
type ChargeResult struct {
	ComputeFee     uint64
	ElectricityFee uint64
}

// Invoke runs one module call end to end: marshals input, enforces the
// per-tick call-rate limit, invokes the runtime, validates the decoded
// output against manifest limits, and computes the metering charge.
// Callers still own routing ModuleOutput.Effects through capability/policy
// admission and applying ModuleOutput.NewState to module_states.
func (h *Host) Invoke(ctx context.Context, manifest world.ModuleManifest, input ModuleCallInput) (*ModuleOutput, *ChargeResult, error) {
	h.mu.Lock()
	rt, ok := h.runtimes[manifest.ModuleID]
	key := callRateKey{module: manifest.ModuleID, tick: input.Ctx.Time}
	h.callCount[key]++
	count := h.callCount[key]
	h.mu.Unlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: no sandbox runtime registered for module %s", world.ErrModuleCallFailed, manifest.ModuleID)
	}
	if manifest.Limits.MaxCallRate > 0 && count > manifest.Limits.MaxCallRate {
		return nil, nil, fmt.Errorf("%w: %s", world.ErrModuleCallFailed, (&ModuleCallFailure{Code: CodeCallRateExceeded, Message: "call rate exceeded"}).Error())
	}

	inputBytes, err := codec.MarshalCBOR(input)
	if err != nil {
		return nil, nil, fmt.Errorf("world: encode module call input: %w", err)
	}

	outBytes, failure := rt.Call(ctx, ModuleCallRequest{Input: inputBytes})
	if failure != nil {
		return nil, nil, fmt.Errorf("%w: %s", world.ErrModuleCallFailed, failure.Error())
	}

	var out ModuleOutput
	if err := codec.UnmarshalCBOR(outBytes, &out); err != nil {
		return nil, nil, fmt.Errorf("%w: decode module output: %v", world.ErrModuleCallFailed, err)
	}

	if err := validateOutput(manifest, &out); err != nil {
		return nil, nil, err
	}

	charge := computeCharge(len(inputBytes), &out)
	return &out, charge, nil
}

func validateOutput(manifest world.ModuleManifest, out *ModuleOutput) error {
	if manifest.Kind == world.ModuleKindPure && len(out.NewState) > 0 {
		return fmt.Errorf("%w: %s", world.ErrModuleCallFailed, (&ModuleCallFailure{Code: CodeInvalidOutput, Message: "pure module produced new_state"}).Error())
	}
	limits := manifest.Limits
	if limits.MaxEffects > 0 && uint32(len(out.Effects)) > limits.MaxEffects {
		return fmt.Errorf("%w: %s", world.ErrModuleCallFailed, (&ModuleCallFailure{Code: CodeLimitExceeded, Message: "effects exceeded max_effects"}).Error())
	}
	if limits.MaxEmits > 0 && uint32(len(out.Emits)) > limits.MaxEmits {
		return fmt.Errorf("%w: %s", world.ErrModuleCallFailed, (&ModuleCallFailure{Code: CodeLimitExceeded, Message: "emits exceeded max_emits"}).Error())
	}
	if limits.MaxOutputBytes > 0 && out.OutputBytes > limits.MaxOutputBytes {
		return fmt.Errorf("%w: %s", world.ErrModuleCallFailed, (&ModuleCallFailure{Code: CodeLimitExceeded, Message: "output_bytes exceeded max_output_bytes"}).Error())
	}
	return nil
}

// computeCharge implements the §4.6 invariant 5 fee formula.
func computeCharge(inputBytes int, out *ModuleOutput) *ChargeResult {
	dataUnits := uint64((inputBytes + int(out.OutputBytes) + 1023) / 1024)
	compute := dataUnits + 2*uint64(len(out.Effects)) + uint64(len(out.Emits))
	newStateCost := uint64(0)
	if len(out.NewState) > 0 {
		newStateCost = 1
	}
	electricity := 1 + uint64(len(out.Effects)) + uint64(len(out.Emits)) + newStateCost
	return &ChargeResult{ComputeFee: compute, ElectricityFee: electricity}
}
