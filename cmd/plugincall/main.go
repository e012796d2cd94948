package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmvm "github.com/fesily/wasm-nginx-module"
	"github.com/fesily/wasm-nginx-module/hostapi"
	"github.com/fesily/wasm-nginx-module/vm"
	"github.com/fesily/wasm-nginx-module/wasi"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to plugin wasm file")
		funcName    = flag.String("func", "", "Exported function to call")
		argStr      = flag.String("args", "", "i32 arguments (comma-separated, 0 or 2 of them)")
		hasResult   = flag.Bool("result", false, "Expect a single i32 result")
		envVars     = flag.String("env", "", "Environment variables (KEY=VAL,KEY2=VAL2)")
		cliArgs     = flag.String("argv", "", "Plugin argv (comma-separated)")
		list        = flag.Bool("list", false, "List exported functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose VM logging")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: plugincall -wasm <file.wasm> -func name [-args a,b] [-result]")
		fmt.Fprintln(os.Stderr, "       plugincall -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       plugincall -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*wasmFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *funcName, *argStr, *envVars, *cliArgs, *hasResult, *list, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile, funcName, argStr, envStr, argvStr string, hasResult, listOnly, verbose bool) error {
	ctx := context.Background()

	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	log := zap.NewNop()
	if verbose {
		log, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
	}

	wasiCfg := wasi.New()
	if envStr != "" {
		var environ []string
		for _, kv := range strings.Split(envStr, ",") {
			if strings.Contains(kv, "=") {
				environ = append(environ, kv)
			}
		}
		wasiCfg.WithEnviron(environ)
	}
	if argvStr != "" {
		wasiCfg.WithArgs(strings.Split(argvStr, ","))
	}

	v, err := vm.New(ctx,
		vm.WithHostAPIs(demoHostAPIs()),
		vm.WithWASIConfig(wasiCfg),
		vm.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("init vm: %w", err)
	}
	defer v.Close(ctx)

	plugin, err := v.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("load plugin: %w", err)
	}
	defer plugin.Close(ctx)

	exports := plugin.(*vm.Plugin).Exports()
	fmt.Printf("Plugin: %s\n", wasmFile)
	fmt.Printf("Exported functions:\n")
	for _, name := range sortedNames(exports) {
		fmt.Printf("  %s\n", formatDef(name, exports[name]))
	}

	if listOnly {
		return nil
	}
	if funcName == "" {
		fmt.Println("\nUse -func to specify a function to call.")
		return nil
	}

	args, shape, err := parseArgs(argStr)
	if err != nil {
		return err
	}

	fmt.Printf("\nCalling %s(%s)...\n", funcName, argStr)
	status := plugin.Call(ctx, funcName, hasResult, shape, args...)
	fmt.Printf("Status: %d", status)
	if status == wasmvm.OK {
		fmt.Printf(" (ok)")
	} else if status == wasmvm.Error {
		fmt.Printf(" (error)")
	}
	fmt.Println()
	return nil
}

// parseArgs converts the comma-separated flag to i32 arguments and the
// shape the trampoline should use.
func parseArgs(argStr string) ([]int32, hostapi.Shape, error) {
	if argStr == "" {
		return nil, hostapi.ShapeVoid, nil
	}
	parts := strings.Split(argStr, ",")
	args := make([]int32, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, 0, fmt.Errorf("argument %q: %w", p, err)
		}
		args = append(args, int32(n))
	}
	switch len(args) {
	case 0:
		return nil, hostapi.ShapeVoid, nil
	case 2:
		return args, hostapi.ShapeI32I32, nil
	default:
		return nil, 0, fmt.Errorf("the call trampoline takes 0 or 2 i32 arguments, got %d", len(args))
	}
}

func sortedNames(defs map[string]api.FunctionDefinition) []string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatDef(name string, def api.FunctionDefinition) string {
	var params []string
	for _, t := range def.ParamTypes() {
		params = append(params, api.ValueTypeName(t))
	}
	out := name + "(" + strings.Join(params, ", ") + ")"
	if results := def.ResultTypes(); len(results) > 0 {
		var rs []string
		for _, t := range results {
			rs = append(rs, api.ValueTypeName(t))
		}
		out += " -> " + strings.Join(rs, ", ")
	}
	return out
}

// demoHostAPIs is the host API table this tool binds under "env":
// a logger and a clock, enough for typical plugin smoke tests.
func demoHostAPIs() hostapi.Table {
	return hostapi.FromSentinel([]hostapi.Descriptor{
		{
			Name:  "ngx_log",
			Shape: hostapi.ShapeI32I32,
			Func: func(_ context.Context, _ api.Module, stack []uint64) {
				fmt.Printf("[plugin] log(%d, %d)\n", int32(uint32(stack[0])), int32(uint32(stack[1])))
				stack[0] = 0
			},
		},
		{
			Name:  "ngx_time",
			Shape: hostapi.ShapeVoid,
			Func: func(_ context.Context, _ api.Module, stack []uint64) {
				stack[0] = uint64(uint32(time.Now().Unix()))
			},
		},
		{}, // sentinel
	})
}
