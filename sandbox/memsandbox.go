package sandbox

import (
	"context"

	"agentworld/codec"
)

// HandlerFunc is a native Go stand-in for a module body, used by
// MemSandbox in tests and local scenarios where compiling a wasm binary is
// unnecessary overhead.
type HandlerFunc func(ModuleCallInput) (ModuleOutput, *ModuleCallFailure)

// MemSandbox runs a module call as a direct Go function call instead of
// through a wasm runtime. It exists purely for tests and the demo CLI's
// built-in scenarios; it provides none of WasmSandbox's isolation
// guarantees and must never be wired to an untrusted module.
type MemSandbox struct {
	handler HandlerFunc
}

// NewMemSandbox wraps handler as a ModuleSandbox.
func NewMemSandbox(handler HandlerFunc) *MemSandbox {
	return &MemSandbox{handler: handler}
}

// Call decodes req.Input, invokes the handler, and re-encodes its result.
func (s *MemSandbox) Call(ctx context.Context, req ModuleCallRequest) ([]byte, *ModuleCallFailure) {
	var input ModuleCallInput
	if err := codec.UnmarshalCBOR(req.Input, &input); err != nil {
		return nil, &ModuleCallFailure{Code: CodeTrapped, Message: err.Error()}
	}
	out, failure := s.handler(input)
	if failure != nil {
		return nil, failure
	}
	data, err := codec.MarshalCBOR(out)
	if err != nil {
		return nil, &ModuleCallFailure{Code: CodeInvalidOutput, Message: err.Error()}
	}
	return data, nil
}

// Close is a no-op; MemSandbox owns no external resources.
func (s *MemSandbox) Close(ctx context.Context) error { return nil }
