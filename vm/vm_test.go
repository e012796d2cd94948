package vm

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	wasmvm "github.com/fesily/wasm-nginx-module"
	"github.com/fesily/wasm-nginx-module/engine"
	"github.com/fesily/wasm-nginx-module/hostapi"
	"github.com/fesily/wasm-nginx-module/wasm"
)

func newVM(t *testing.T, opts ...Option) *VM {
	t.Helper()
	ctx := context.Background()

	v, err := New(ctx, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { v.Close(ctx) })
	return v
}

// testPlugin builds a plugin exporting:
//
//	add(i32, i32) -> i32   returns a+b
//	sub(i32, i32) -> i32   returns a-b
//	fire()                 no params, no result
//	crash()                loads memory out of bounds
//	noresult(i32, i32)     two params, no result
//	ratio() -> f64         returns a non-i32 result
func testPlugin(t *testing.T, v *VM) wasmvm.Plugin {
	t.Helper()
	ctx := context.Background()

	b := wasm.NewBuilder()
	sigAdd := wasm.FuncType{Params: []byte{wasm.I32, wasm.I32}, Results: []byte{wasm.I32}}
	add := b.Func(sigAdd, wasm.Body(wasm.LocalGet(0), wasm.LocalGet(1), wasm.I32Add(), wasm.End()))
	b.Export("add", add)

	sub := b.Func(sigAdd, wasm.Body(wasm.LocalGet(0), wasm.LocalGet(1), wasm.I32Sub(), wasm.End()))
	b.Export("sub", sub)

	fire := b.Func(wasm.FuncType{}, wasm.Body(wasm.End()))
	b.Export("fire", fire)

	crash := b.Func(wasm.FuncType{}, wasm.Body(
		wasm.I32Const(0x7ffffff0), wasm.I32Load(2, 0), wasm.Drop(), wasm.End()))
	b.Export("crash", crash)
	b.Memory(1)

	noresult := b.Func(wasm.FuncType{Params: []byte{wasm.I32, wasm.I32}},
		wasm.Body(wasm.End()))
	b.Export("noresult", noresult)

	ratio := b.Func(wasm.FuncType{Results: []byte{wasm.F64}},
		wasm.Body(wasm.F64Const(0.5), wasm.End()))
	b.Export("ratio", ratio)

	plugin, err := v.Load(ctx, b.Build())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	t.Cleanup(func() { plugin.Close(ctx) })
	return plugin
}

func TestVM_Name(t *testing.T) {
	v := newVM(t)
	if v.Name() != "wazero" {
		t.Errorf("Name() = %q, want %q", v.Name(), "wazero")
	}
}

func TestVM_CloseIdempotent(t *testing.T) {
	ctx := context.Background()

	v, err := New(ctx)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := v.Close(ctx); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := v.Close(ctx); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	var nilVM *VM
	if err := nilVM.Close(ctx); err != nil {
		t.Errorf("nil Close failed: %v", err)
	}
}

func TestVM_DefaultLoggerKeepsEngineLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	custom := zap.New(core)

	newVM(t, WithLogger(custom))

	// A later VM without an explicit logger must not displace the
	// engine logger the first VM installed.
	newVM(t)

	engine.Logger().Debug("engine logger check")
	if logs.FilterMessage("engine logger check").Len() != 1 {
		t.Error("engine logger was replaced by a VM with the default logger")
	}
}

func TestVM_CallAdd(t *testing.T) {
	ctx := context.Background()
	plugin := testPlugin(t, newVM(t))

	got := plugin.Call(ctx, "add", true, hostapi.ShapeI32I32, 2, 3)
	if got != 5 {
		t.Errorf("add(2, 3) = %d, want 5", got)
	}

	got = plugin.Call(ctx, "add", true, hostapi.ShapeI32I32, -10, 3)
	if got != -7 {
		t.Errorf("add(-10, 3) = %d, want -7", got)
	}
}

func TestVM_CallPositionalArgs(t *testing.T) {
	ctx := context.Background()
	plugin := testPlugin(t, newVM(t))

	// Subtraction is order-sensitive: arg0 must land in param0.
	if got := plugin.Call(ctx, "sub", true, hostapi.ShapeI32I32, 10, 4); got != 6 {
		t.Errorf("sub(10, 4) = %d, want 6", got)
	}
	if got := plugin.Call(ctx, "sub", true, hostapi.ShapeI32I32, 4, 10); got != -6 {
		t.Errorf("sub(4, 10) = %d, want -6", got)
	}
}

func TestVM_CallVoid(t *testing.T) {
	ctx := context.Background()
	plugin := testPlugin(t, newVM(t))

	if got := plugin.Call(ctx, "fire", false, hostapi.ShapeVoid); got != wasmvm.OK {
		t.Errorf("fire() = %d, want OK", got)
	}
}

func TestVM_CallMissingExport(t *testing.T) {
	ctx := context.Background()
	plugin := testPlugin(t, newVM(t))

	if got := plugin.Call(ctx, "optional_hook", false, hostapi.ShapeVoid); got != wasmvm.OK {
		t.Errorf("missing export = %d, want OK", got)
	}
}

func TestVM_CallUnknownShape(t *testing.T) {
	ctx := context.Background()
	plugin := testPlugin(t, newVM(t))

	// The trampoline only dispatches void and two-i32 shapes.
	if got := plugin.Call(ctx, "add", true, hostapi.ShapeI32, 1); got != wasmvm.Error {
		t.Errorf("one-i32 shape = %d, want Error", got)
	}
	if got := plugin.Call(ctx, "add", true, hostapi.Shape(99), 1, 2); got != wasmvm.Error {
		t.Errorf("out-of-range shape = %d, want Error", got)
	}
}

func TestVM_CallArgCountMismatch(t *testing.T) {
	ctx := context.Background()
	plugin := testPlugin(t, newVM(t))

	// A two-i32 shape with too few arguments must fail as a status,
	// never panic across the host boundary.
	if got := plugin.Call(ctx, "add", true, hostapi.ShapeI32I32, 7); got != wasmvm.Error {
		t.Errorf("add with 1 arg = %d, want Error", got)
	}
	if got := plugin.Call(ctx, "add", true, hostapi.ShapeI32I32); got != wasmvm.Error {
		t.Errorf("add with 0 args = %d, want Error", got)
	}

	// Extra arguments beyond the shape are ignored.
	if got := plugin.Call(ctx, "add", true, hostapi.ShapeI32I32, 2, 3, 9); got != 5 {
		t.Errorf("add with 3 args = %d, want 5", got)
	}

	// The plugin stays usable afterwards.
	if got := plugin.Call(ctx, "add", true, hostapi.ShapeI32I32, 2, 3); got != 5 {
		t.Errorf("add after mismatch = %d, want 5", got)
	}
}

func TestVM_CallTrapThenRecover(t *testing.T) {
	ctx := context.Background()
	plugin := testPlugin(t, newVM(t))

	if got := plugin.Call(ctx, "crash", false, hostapi.ShapeVoid); got != wasmvm.Error {
		t.Errorf("crash() = %d, want Error", got)
	}

	// The instance survives a trap; a healthy call still works.
	if got := plugin.Call(ctx, "add", true, hostapi.ShapeI32I32, 2, 3); got != 5 {
		t.Errorf("add after trap = %d, want 5", got)
	}
}

func TestVM_CallResultContract(t *testing.T) {
	ctx := context.Background()
	plugin := testPlugin(t, newVM(t))

	// hasResult demanded of an export that returns nothing.
	if got := plugin.Call(ctx, "noresult", true, hostapi.ShapeI32I32, 1, 2); got != wasmvm.Error {
		t.Errorf("void export with hasResult = %d, want Error", got)
	}

	// hasResult demanded of an export returning f64.
	if got := plugin.Call(ctx, "ratio", true, hostapi.ShapeVoid); got != wasmvm.Error {
		t.Errorf("f64 export with hasResult = %d, want Error", got)
	}

	// hasResult false ignores the export's i32 result.
	if got := plugin.Call(ctx, "add", false, hostapi.ShapeI32I32, 1, 2); got != wasmvm.OK {
		t.Errorf("add without hasResult = %d, want OK", got)
	}
}

func TestVM_CallGuestStatusConflation(t *testing.T) {
	ctx := context.Background()
	v := newVM(t)

	// An export returning -1 is indistinguishable from a failed call.
	b := wasm.NewBuilder()
	fn := b.Func(wasm.FuncType{Results: []byte{wasm.I32}},
		wasm.Body(wasm.I32Const(-1), wasm.End()))
	b.Export("veto", fn)

	plugin, err := v.Load(ctx, b.Build())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer plugin.Close(ctx)

	if got := plugin.Call(ctx, "veto", true, hostapi.ShapeVoid); got != wasmvm.Error {
		t.Errorf("veto() = %d, want -1", got)
	}
}
