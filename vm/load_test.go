package vm

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/tetratelabs/wazero/api"

	wasmvm "github.com/fesily/wasm-nginx-module"
	"github.com/fesily/wasm-nginx-module/errors"
	"github.com/fesily/wasm-nginx-module/hostapi"
	"github.com/fesily/wasm-nginx-module/wasm"
)

func TestVM_LoadInvalidBytecode(t *testing.T) {
	ctx := context.Background()
	v := newVM(t)

	tests := []struct {
		name string
		in   []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"text", []byte("#!/bin/sh\necho hi")},
		{"truncated header", []byte{0x00, 0x61, 0x73}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plugin, err := v.Load(ctx, tc.in)
			if err == nil {
				t.Fatal("expected load to fail")
			}
			if plugin != nil {
				t.Error("no plugin should exist after a failed load")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) || e.Phase != errors.PhaseLoad {
				t.Errorf("expected a load-phase error, got %v", err)
			}
		})
	}

	// The VM remains usable after failed loads.
	testPlugin(t, v)
}

func TestVM_LoadMalformedModule(t *testing.T) {
	ctx := context.Background()
	v := newVM(t)

	// Valid header, garbage sections.
	bad := append([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, 0xff, 0xff, 0xff)
	if _, err := v.Load(ctx, bad); err == nil {
		t.Error("expected compile failure")
	}
}

func TestVM_LoadUnresolvedImport(t *testing.T) {
	ctx := context.Background()
	v := newVM(t) // no host APIs registered

	b := wasm.NewBuilder()
	imp := b.ImportFunc("env", "ngx_log", wasm.FuncType{
		Params:  []byte{wasm.I32, wasm.I32},
		Results: []byte{wasm.I32},
	})
	fn := b.Func(wasm.FuncType{}, wasm.Body(
		wasm.I32Const(0), wasm.I32Const(0), wasm.Call(imp), wasm.Drop(), wasm.End(),
	))
	b.Export("run", fn)

	if _, err := v.Load(ctx, b.Build()); err == nil {
		t.Error("expected load to fail on unresolved import")
	}
}

func TestVM_LoadWithHostAPIs(t *testing.T) {
	ctx := context.Background()

	var logged []int32
	table := hostapi.FromSentinel([]hostapi.Descriptor{
		{
			Name:  "ngx_log",
			Shape: hostapi.ShapeI32I32,
			Func: func(_ context.Context, _ api.Module, stack []uint64) {
				logged = append(logged, int32(uint32(stack[0])), int32(uint32(stack[1])))
				stack[0] = 0
			},
		},
		{}, // sentinel
		{Name: "after_sentinel", Shape: hostapi.ShapeVoid, Func: nil},
	})

	v := newVM(t, WithHostAPIs(table))

	b := wasm.NewBuilder()
	imp := b.ImportFunc("env", "ngx_log", wasm.FuncType{
		Params:  []byte{wasm.I32, wasm.I32},
		Results: []byte{wasm.I32},
	})
	fn := b.Func(wasm.FuncType{}, wasm.Body(
		wasm.I32Const(4), wasm.I32Const(7), wasm.Call(imp), wasm.Drop(), wasm.End(),
	))
	b.Export("run", fn)

	plugin, err := v.Load(ctx, b.Build())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer plugin.Close(ctx)

	if got := plugin.Call(ctx, "run", false, hostapi.ShapeVoid); got != wasmvm.OK {
		t.Fatalf("run() = %d, want OK", got)
	}
	if len(logged) != 2 || logged[0] != 4 || logged[1] != 7 {
		t.Errorf("host API saw %v, want [4 7]", logged)
	}
}

func TestVM_PluginIsolation(t *testing.T) {
	ctx := context.Background()
	v := newVM(t)

	p1 := testPlugin(t, v)
	p2 := testPlugin(t, v)

	if err := p1.Close(ctx); err != nil {
		t.Fatalf("close p1: %v", err)
	}

	// p2 is unaffected by p1's unload.
	if got := p2.Call(ctx, "add", true, hostapi.ShapeI32I32, 20, 22); got != 42 {
		t.Errorf("add on surviving plugin = %d, want 42", got)
	}
}

func TestPlugin_CloseIdempotent(t *testing.T) {
	ctx := context.Background()
	plugin := testPlugin(t, newVM(t))

	if err := plugin.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := plugin.Close(ctx); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestPlugin_Exports(t *testing.T) {
	v := newVM(t)
	plugin := testPlugin(t, v).(*Plugin)

	exports := plugin.Exports()
	for _, name := range []string{"add", "fire", "crash", "noresult"} {
		if _, ok := exports[name]; !ok {
			t.Errorf("export %q missing", name)
		}
	}
}
