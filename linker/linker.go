package linker

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/fesily/wasm-nginx-module/engine"
	"github.com/fesily/wasm-nginx-module/errors"
	"github.com/fesily/wasm-nginx-module/hostapi"
)

// HostNamespace is the import module name guests use for host APIs.
const HostNamespace = "env"

// Linker binds imports for one plugin. It owns no resources itself;
// everything it defines lives in the plugin's store and is released
// when the store closes.
type Linker struct {
	store *engine.Store
	log   *zap.Logger
}

// New creates a linker scoped to the given store.
func New(store *engine.Store, log *zap.Logger) *Linker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Linker{store: store, log: log}
}

// DefineWASI instantiates the WASI preview1 host module into the store.
func (l *Linker) DefineWASI(ctx context.Context) error {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, l.store.Runtime()); err != nil {
		return errors.WASI("define wasi", err)
	}
	l.log.Debug("defined wasi preview1")
	return nil
}

// DefineHostAPIs binds every entry of the table under HostNamespace.
// The table is validated first and the whole namespace is instantiated
// in one step: either all host APIs become importable or none do.
func (l *Linker) DefineHostAPIs(ctx context.Context, table hostapi.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}

	builder := l.store.Runtime().NewHostModuleBuilder(HostNamespace)
	for _, d := range table {
		l.log.Debug("binding host API",
			zap.String("namespace", HostNamespace),
			zap.String("name", d.Name),
			zap.Stringer("shape", d.Shape))
		builder.NewFunctionBuilder().
			WithGoModuleFunction(d.Func, d.Shape.ParamTypes(), d.ResultTypes()).
			Export(d.Name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return errors.Registration(HostNamespace, "", err)
	}
	return nil
}

// Instantiate creates a live instance of the compiled module against
// everything defined so far. The instance is anonymous: plugins are
// addressed by handle, not by module name.
func (l *Linker) Instantiate(ctx context.Context, compiled wazero.CompiledModule, cfg wazero.ModuleConfig) (api.Module, error) {
	instance, err := l.store.Runtime().InstantiateModule(ctx, compiled, cfg.WithName(""))
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	return instance, nil
}
