package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ember/internal/compiler"
	"ember/internal/interp"
	"ember/internal/vm"
)

var runCmd = &cobra.Command{
	Use:   "run <file.wisp>",
	Short: "Compile and execute an ember script",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

func init() {
	runCmd.Flags().Bool("gc-now", false, "force a garbage collection after the script returns")
	runCmd.Flags().Bool("cache", false, "cache compiled bytecode on disk, keyed by source hash")
	runCmd.Flags().String("dump-heap", "", "write a msgpack heap snapshot to this path after the script returns")
}

func runScript(cmd *cobra.Command, args []string) error {
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	applyColorFlag(cmd)

	config := vm.Config{Compile: compiler.Compile}
	if configPath, _ := cmd.Root().PersistentFlags().GetString("config"); configPath != "" {
		fileConfig, err := vm.LoadFileConfig(configPath)
		if err != nil {
			return err
		}
		config = fileConfig.Apply(config)
	}

	if useCache, _ := cmd.Flags().GetBool("cache"); useCache {
		moduleCache, err := vm.OpenModuleCache("ember")
		if err != nil {
			return fmt.Errorf("opening module cache: %w", err)
		}
		config.Compile = cachingCompile(moduleCache, config.Compile)
	}

	interp.Install()
	machine := vm.NewVM(config)

	moduleName := moduleNameForPath(path)
	result := machine.Interpret(moduleName, string(source))

	if gcNow, _ := cmd.Flags().GetBool("gc-now"); gcNow {
		machine.CollectGarbage()
	}

	if dumpPath, _ := cmd.Flags().GetString("dump-heap"); dumpPath != "" {
		if err := writeHeapSnapshot(machine, dumpPath); err != nil {
			return fmt.Errorf("dumping heap: %w", err)
		}
	}

	switch result {
	case vm.ResultCompileError:
		os.Exit(1)
	case vm.ResultRuntimeError:
		os.Exit(70)
	}
	return nil
}

// cachingCompile wraps a CompileFn with a ModuleCache lookup: a hit
// skips next entirely and reattaches the cached function to whatever
// ObjModule this run is using, a miss compiles normally and writes the
// result back for next time.
func cachingCompile(cache *vm.ModuleCache, next vm.CompileFn) vm.CompileFn {
	return func(v *vm.VM, moduleName, source string) (*vm.ObjFunction, error) {
		hash := vm.SourceHash(source)
		module, ok := v.Module(moduleName)
		if !ok {
			module = vm.NewModule(v, vm.NewString(v, moduleName))
			v.RegisterModule(moduleName, module)
		}
		if fn, hit, err := cache.Get(v, module, hash); err == nil && hit {
			return fn, nil
		}
		fn, err := next(v, moduleName, source)
		if err != nil {
			return nil, err
		}
		_ = cache.Put(hash, fn)
		return fn, nil
	}
}

func writeHeapSnapshot(machine *vm.VM, path string) error {
	data, err := vm.MarshalHeapSnapshot(machine.DumpHeap())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func moduleNameForPath(path string) string {
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			base = path[i+1:]
			break
		}
	}
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return base[:i]
		}
	}
	return base
}

func applyColorFlag(cmd *cobra.Command) {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
}
