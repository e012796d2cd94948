package vm

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmvm "github.com/fesily/wasm-nginx-module"
	"github.com/fesily/wasm-nginx-module/engine"
	"github.com/fesily/wasm-nginx-module/linker"
)

// Plugin is one loaded guest module. Its compiled module, linker
// bindings and live instance all live in a store owned exclusively by
// this plugin.
type Plugin struct {
	store    *engine.Store
	module   wazero.CompiledModule
	linker   *linker.Linker
	instance api.Module
	log      *zap.Logger
}

var _ wasmvm.Plugin = (*Plugin)(nil)

// Exports returns the definitions of the instance's exported functions,
// keyed by export name.
func (p *Plugin) Exports() map[string]api.FunctionDefinition {
	return p.instance.ExportedFunctionDefinitions()
}

// Close releases the plugin: module first, then the store, which takes
// the linker's bindings and the instance with it. Safe to call more
// than once.
func (p *Plugin) Close(ctx context.Context) error {
	if p == nil || p.store == nil {
		return nil
	}
	if p.module != nil {
		if err := p.module.Close(ctx); err != nil {
			p.log.Warn("failed to close compiled module", zap.Error(err))
		}
		p.module = nil
	}
	err := p.store.Close(ctx)
	p.store = nil
	p.linker = nil
	p.instance = nil
	p.log.Info("unloaded wasm plugin")
	return err
}
