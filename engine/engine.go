package engine

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/fesily/wasm-nginx-module/errors"
)

// Name identifies the underlying engine backend.
const Name = "wazero"

// Engine is the process-wide compilation/execution engine. At most one live
// Engine should exist per process; it must outlive every Store derived from
// it.
type Engine struct {
	cache  wazero.CompilationCache
	config wazero.RuntimeConfig

	mu     sync.Mutex
	closed bool
}

// Config holds configuration for engine creation.
type Config struct {
	// MemoryLimitPages sets the maximum memory per plugin in pages (64KB
	// each). 0 means the engine default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// New creates the engine with default configuration.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates the engine with custom configuration.
func NewWithConfig(_ context.Context, cfg *Config) (*Engine, error) {
	cache := wazero.NewCompilationCache()

	runtimeCfg := wazero.NewRuntimeConfig().WithCompilationCache(cache)
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	if cfg != nil {
		Logger().Debug("created engine",
			zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages))
	} else {
		Logger().Debug("created engine")
	}

	return &Engine{
		cache:  cache,
		config: runtimeCfg,
	}, nil
}

// NewStore creates a fresh, isolated store bound to the engine. Compiled
// code is shared through the engine's compilation cache; all runtime state
// belongs to the store alone.
func (e *Engine) NewStore(ctx context.Context) (*Store, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil, errors.New(errors.PhaseLoad, errors.KindEngine, "engine is closed")
	}

	return &Store{runtime: wazero.NewRuntimeWithConfig(ctx, e.config)}, nil
}

// Close destroys the engine. It must only be called after every Store has
// been closed; it is a no-op when called again.
func (e *Engine) Close(ctx context.Context) error {
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	Logger().Debug("closing engine")
	return e.cache.Close(ctx)
}

// Store is the isolated runtime state for one plugin instantiation. It is
// NOT safe for concurrent use.
type Store struct {
	runtime wazero.Runtime
}

// Compile compiles bytecode into a module within this store. The module is
// owned by the store and released with it.
func (s *Store) Compile(ctx context.Context, bytecode []byte) (wazero.CompiledModule, error) {
	compiled, err := s.runtime.CompileModule(ctx, bytecode)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	return compiled, nil
}

// Runtime exposes the underlying wazero runtime for import binding and
// instantiation.
func (s *Store) Runtime() wazero.Runtime {
	return s.runtime
}

// Close releases the store and transitively everything instantiated in it.
func (s *Store) Close(ctx context.Context) error {
	return s.runtime.Close(ctx)
}
