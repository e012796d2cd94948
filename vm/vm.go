package vm

import (
	"context"

	"go.uber.org/zap"

	wasmvm "github.com/fesily/wasm-nginx-module"
	"github.com/fesily/wasm-nginx-module/engine"
	"github.com/fesily/wasm-nginx-module/errors"
	"github.com/fesily/wasm-nginx-module/hostapi"
	"github.com/fesily/wasm-nginx-module/linker"
	"github.com/fesily/wasm-nginx-module/wasi"
	"github.com/fesily/wasm-nginx-module/wasm"
)

// VM is the wazero-backed plugin VM. One VM serves the whole host
// process; plugins loaded from it are mutually isolated.
type VM struct {
	engine  *engine.Engine
	apis    hostapi.Table
	wasiCfg *wasi.Config
	log     *zap.Logger
	engCfg  *engine.Config
	ownEng  bool
	logSet  bool
}

var _ wasmvm.VM = (*VM)(nil)

// Option configures a VM at creation time.
type Option func(*VM)

// WithHostAPIs sets the host API table bound to every loaded plugin.
func WithHostAPIs(table hostapi.Table) Option {
	return func(v *VM) { v.apis = table }
}

// WithWASIConfig overrides the WASI environment plugins run in. The
// default inherits the host process's argv, environment and stdio.
func WithWASIConfig(cfg *wasi.Config) Option {
	return func(v *VM) { v.wasiCfg = cfg }
}

// WithLogger sets the VM's logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(v *VM) {
		v.log = log
		v.logSet = true
	}
}

// WithEngine supplies an externally managed engine. The VM will not
// close it.
func WithEngine(eng *engine.Engine) Option {
	return func(v *VM) {
		v.engine = eng
		v.ownEng = false
	}
}

// WithEngineConfig tunes the engine the VM creates for itself. Ignored
// when WithEngine is also given.
func WithEngineConfig(cfg *engine.Config) Option {
	return func(v *VM) { v.engCfg = cfg }
}

// New initializes the VM. This is the process-wide engine init: call it
// once at startup, before any plugin loads.
func New(ctx context.Context, opts ...Option) (*VM, error) {
	v := &VM{
		wasiCfg: wasi.New(),
		log:     zap.NewNop(),
		ownEng:  true,
	}
	for _, opt := range opts {
		opt(v)
	}

	// Only an explicitly configured logger reaches the process-global
	// engine logger; the default must not displace one installed earlier.
	if v.logSet {
		engine.SetLogger(v.log)
	}

	if v.engine == nil {
		eng, err := engine.NewWithConfig(ctx, v.engCfg)
		if err != nil {
			return nil, errors.Init("create engine", err)
		}
		v.engine = eng
	}

	v.log.Info("init wasm vm: " + engine.Name)
	return v, nil
}

// Name identifies the underlying engine.
func (v *VM) Name() string {
	return engine.Name
}

// Load compiles bytecode into an isolated store, binds WASI and the
// host API table, and instantiates the module. On any failure every
// resource acquired so far is released in reverse order and the error
// is reported; no partially loaded plugin ever exists.
func (v *VM) Load(ctx context.Context, bytecode []byte) (wasmvm.Plugin, error) {
	if !wasm.IsModule(bytecode) {
		err := errors.Load("invalid bytecode", nil)
		report(v.log, "failed to compile the wasm code", err)
		return nil, err
	}

	store, err := v.engine.NewStore(ctx)
	if err != nil {
		report(v.log, "failed to create the wasm store", err)
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			store.Close(ctx)
		}
	}()

	compiled, err := store.Compile(ctx, bytecode)
	if err != nil {
		report(v.log, "failed to compile the wasm code", err)
		return nil, err
	}

	defer func() {
		if !ok {
			compiled.Close(ctx)
		}
	}()

	lnk := linker.New(store, v.log)
	if err := lnk.DefineWASI(ctx); err != nil {
		report(v.log, "failed to define wasi", err)
		return nil, err
	}
	if err := lnk.DefineHostAPIs(ctx, v.apis); err != nil {
		report(v.log, "failed to define host APIs", err)
		return nil, err
	}

	instance, err := lnk.Instantiate(ctx, compiled, v.wasiCfg.ModuleConfig())
	if err != nil {
		report(v.log, "failed to instantiate the wasm module", err)
		return nil, err
	}

	ok = true
	v.log.Info("loaded wasm plugin")
	return &Plugin{
		store:    store,
		module:   compiled,
		linker:   lnk,
		instance: instance,
		log:      v.log,
	}, nil
}

// Close destroys the engine. Call it only once every plugin has been
// closed; further calls are no-ops.
func (v *VM) Close(ctx context.Context) error {
	if v == nil || v.engine == nil {
		return nil
	}
	v.log.Info("cleanup wasm vm: " + engine.Name)
	if !v.ownEng {
		v.engine = nil
		return nil
	}
	err := v.engine.Close(ctx)
	v.engine = nil
	return err
}
