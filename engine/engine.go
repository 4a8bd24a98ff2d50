package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/pycall/errors"
)

// Engine owns a wazero runtime shared by every module loaded through it.
type Engine struct {
	runtime wazero.Runtime
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// NewEngine creates a new wazero-based engine
func NewEngine(ctx context.Context) (*Engine, error) {
	return NewEngineWithConfig(ctx, nil)
}

// NewEngineWithConfig creates a new engine with custom configuration
func NewEngineWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Engine{runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg)}, nil
}

// LoadModule compiles a guest object runtime from its wasm binary.
func (e *Engine) LoadModule(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}
	return &Module{engine: e, compiled: compiled}, nil
}

func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Module is a compiled guest object runtime, ready to instantiate.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// Instantiate creates one guest instance. Every required ABI export is
// resolved here; a module missing any of them is rejected.
func (m *Module) Instantiate(ctx context.Context, name string) (*Guest, error) {
	cfg := wazero.NewModuleConfig().WithName(name)
	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}

	mem := mod.Memory()
	if mem == nil {
		_ = mod.Close(ctx)
		return nil, errors.InvalidInput(errors.PhaseRuntime, "guest exports no memory")
	}

	fns := make(map[string]api.Function, len(requiredExports))
	for _, exp := range requiredExports {
		fn := mod.ExportedFunction(exp)
		if fn == nil {
			_ = mod.Close(ctx)
			return nil, errors.NotFound(errors.PhaseRuntime, "guest export", exp)
		}
		fns[exp] = fn
	}

	Logger().Info("guest instantiated", zap.String("module", name))
	return &Guest{ctx: ctx, mod: mod, mem: mem, fns: fns}, nil
}

func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
