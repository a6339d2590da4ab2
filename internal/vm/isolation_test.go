package vm

import (
	"fmt"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

// installTrivialRunner satisfies vm.Interpret's runnerHook requirement
// without depending on internal/interp (which imports this package,
// so a direct import here would cycle). It only understands the
// single OpEnd instruction isolationCompile ever emits.
var installTrivialRunner = sync.OnceFunc(func() {
	SetRunner(func(v *VM, f *ObjFiber) bool {
		f.FinishNormally(v, NullVal())
		return true
	})
})

// TestVMsAreIsolated drives N independent VMs concurrently through
// compile+run, the property §5 calls isolation-across-VMs: each VM
// owns its own object list, module registry, symbol table, and
// current fiber, so nothing one run allocates or interns is visible
// from another. errgroup collects the first failure across the fleet
// rather than needing a hand-rolled WaitGroup+error-channel.
func TestVMsAreIsolated(t *testing.T) {
	const fleet = 16

	installTrivialRunner()

	var g errgroup.Group
	for i := 0; i < fleet; i++ {
		i := i
		g.Go(func() error {
			v := NewVM(Config{Compile: isolationCompile})
			moduleName := fmt.Sprintf("isolation-%d", i)
			source := fmt.Sprintf("fiber %d", i)

			result := v.Interpret(moduleName, source)
			if result != ResultSuccess {
				return fmt.Errorf("VM %d: Interpret = %v, want success", i, result)
			}

			want := v.methodNames.Len()
			sym := v.MethodSymbol("probe")
			if sym != want {
				return fmt.Errorf("VM %d: newly interned symbol = %d, want %d, the size of this VM's own table (no cross-VM sharing)", i, sym, want)
			}

			if _, ok := v.Module(moduleName); !ok {
				return fmt.Errorf("VM %d: module %q not registered on its own VM", i, moduleName)
			}
			for j := 0; j < fleet; j++ {
				if j == i {
					continue
				}
				if _, ok := v.Module(fmt.Sprintf("isolation-%d", j)); ok {
					return fmt.Errorf("VM %d: saw module belonging to VM %d", i, j)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

// isolationCompile is a CompileFn stand-in that ignores its source
// text and returns a single-instruction function, since the test is
// about VM state isolation, not compiler correctness.
func isolationCompile(v *VM, moduleName, source string) (*ObjFunction, error) {
	module, ok := v.Module(moduleName)
	if !ok {
		module = NewModule(v, NewString(v, moduleName))
		v.RegisterModule(moduleName, module)
	}
	fn := NewFunction(v, module, "<isolation>")
	fn.Code = []byte{byte(OpEnd)}
	return fn, nil
}
