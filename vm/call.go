package vm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmvm "github.com/fesily/wasm-nginx-module"
	"github.com/fesily/wasm-nginx-module/errors"
	"github.com/fesily/wasm-nginx-module/hostapi"
)

// Call invokes the named guest export through the typed trampoline.
//
// A missing export is not a failure: optional hooks a plugin chose not
// to implement yield OK. When hasResult is set the export must return
// exactly one i32, and that value becomes the Status, whatever it is.
// Dispatch errors, traps, unknown shapes and result-contract violations
// all collapse to Error; the instance stays usable after a trap.
func (p *Plugin) Call(ctx context.Context, name string, hasResult bool, shape hostapi.Shape, args ...int32) wasmvm.Status {
	fn := p.instance.ExportedFunction(name)
	if fn == nil {
		p.log.Debug("export not found, skipped", zap.String("func", name))
		return wasmvm.OK
	}

	var params []uint64
	switch shape {
	case hostapi.ShapeVoid:
		// no params
	case hostapi.ShapeI32I32:
		if len(args) < 2 {
			report(p.log, "failed to call the wasm function",
				errors.InvalidInput(errors.PhaseCall,
					fmt.Sprintf("shape %s needs 2 arguments, got %d", shape, len(args))))
			return wasmvm.Error
		}
		params = []uint64{uint64(uint32(args[0])), uint64(uint32(args[1]))}
	default:
		report(p.log, "failed to call the wasm function", errors.UnknownShape(shape))
		return wasmvm.Error
	}

	p.log.Debug("calling wasm function",
		zap.String("func", name),
		zap.Stringer("shape", shape))

	results, err := fn.Call(ctx, params...)
	if err != nil {
		report(p.log, "failed to call the wasm function", err)
		return wasmvm.Error
	}

	if !hasResult {
		return wasmvm.OK
	}

	resultTypes := fn.Definition().ResultTypes()
	if len(resultTypes) != 1 || resultTypes[0] != api.ValueTypeI32 || len(results) != 1 {
		report(p.log, "failed to call the wasm function",
			errors.TypeMismatch(fmt.Sprintf("function %q: expected a single i32 result", name)))
		return wasmvm.Error
	}

	return wasmvm.Status(int32(uint32(results[0])))
}
