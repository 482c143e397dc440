package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// WasmSandbox runs one module's wasm binary under wazero with deny-by-
// default host access: no filesystem, no network, no ambient clock beyond
// the ctx.time the host passes in-band through the CBOR input.
type WasmSandbox struct {
	runtime      wazero.Runtime
	compiled     wazero.CompiledModule
	callTimeout  time.Duration
}

// NewWasmSandbox compiles wasmBytes under a runtime whose linear memory is
// capped at maxMemBytes (rounded down to whole 64KiB pages, at least one
// page) and returns a sandbox
// ready to serve repeated calls against that one compiled module.
func NewWasmSandbox(ctx context.Context, wasmBytes []byte, maxMemBytes uint64, callTimeout time.Duration) (*WasmSandbox, error) {
	cfg := wazero.NewRuntimeConfig()
	if maxMemBytes > 0 {
		pages := uint32(maxMemBytes / 65536)
		if pages == 0 {
			pages = 1
		}
		cfg = cfg.WithMemoryLimitPages(pages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("sandbox: instantiate wasi: %w", err)
	}
	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("sandbox: compile module: %w", err)
	}
	return &WasmSandbox{runtime: rt, compiled: compiled, callTimeout: callTimeout}, nil
}

// Call feeds req.Input to the module's stdin and returns the bytes it wrote
// to stdout as the module's canonical-CBOR ModuleOutput.
func (s *WasmSandbox) Call(ctx context.Context, req ModuleCallRequest) ([]byte, *ModuleCallFailure) {
	callCtx := ctx
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithStdin(bytes.NewReader(req.Input)).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithName("module-call")
	// Deliberately no WithFSConfig, no WithSysWalltime/WithSysNanotime, no
	// WithRandSource: the module sees neither host clock nor filesystem.

	mod, err := s.runtime.InstantiateModule(callCtx, s.compiled, modCfg)
	if err != nil {
		if callCtx.Err() != nil {
			return nil, &ModuleCallFailure{Code: CodeComputeTimeExhausted, Message: err.Error()}
		}
		return nil, &ModuleCallFailure{Code: CodeTrapped, Message: err.Error()}
	}
	defer func() { _ = mod.Close(callCtx) }()

	if stderr.Len() > 0 {
		return nil, &ModuleCallFailure{Code: CodeTrapped, Message: stderr.String()}
	}
	return stdout.Bytes(), nil
}

// Close shuts down the wazero runtime backing this sandbox.
func (s *WasmSandbox) Close(ctx context.Context) error {
	_ = s.compiled.Close(ctx)
	return s.runtime.Close(ctx)
}
