package vm

import (
	"bytes"
	"context"
	"testing"

	wasmvm "github.com/fesily/wasm-nginx-module"
	"github.com/fesily/wasm-nginx-module/hostapi"
	"github.com/fesily/wasm-nginx-module/wasi"
	"github.com/fesily/wasm-nginx-module/wasm"
)

func TestVM_WASIGuestExit(t *testing.T) {
	ctx := context.Background()
	v := newVM(t, WithWASIConfig(
		wasi.New().
			WithArgs([]string{"plugin"}).
			WithStdout(&bytes.Buffer{}).
			WithStderr(&bytes.Buffer{}),
	))

	// Guest calls wasi proc_exit(3). The call surfaces as a failure.
	b := wasm.NewBuilder()
	exit := b.ImportFunc("wasi_snapshot_preview1", "proc_exit",
		wasm.FuncType{Params: []byte{wasm.I32}})
	fn := b.Func(wasm.FuncType{}, wasm.Body(
		wasm.I32Const(3), wasm.Call(exit), wasm.End(),
	))
	b.Export("quit", fn)

	plugin, err := v.Load(ctx, b.Build())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer plugin.Close(ctx)

	if got := plugin.Call(ctx, "quit", false, hostapi.ShapeVoid); got != wasmvm.Error {
		t.Errorf("quit() = %d, want Error", got)
	}
}

func TestVM_WASIImportsResolve(t *testing.T) {
	ctx := context.Background()
	v := newVM(t)

	// A module importing several preview1 functions must link even when
	// none of them is ever called.
	b := wasm.NewBuilder()
	b.ImportFunc("wasi_snapshot_preview1", "fd_write", wasm.FuncType{
		Params:  []byte{wasm.I32, wasm.I32, wasm.I32, wasm.I32},
		Results: []byte{wasm.I32},
	})
	b.ImportFunc("wasi_snapshot_preview1", "environ_sizes_get", wasm.FuncType{
		Params:  []byte{wasm.I32, wasm.I32},
		Results: []byte{wasm.I32},
	})
	fn := b.Func(wasm.FuncType{}, wasm.Body(wasm.End()))
	b.Export("noop", fn)
	b.Memory(1)

	plugin, err := v.Load(ctx, b.Build())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer plugin.Close(ctx)

	if got := plugin.Call(ctx, "noop", false, hostapi.ShapeVoid); got != wasmvm.OK {
		t.Errorf("noop() = %d, want OK", got)
	}
}
