package vm

import (
	"fmt"
	"os"
)

// InterpretResult mirrors the three outcomes the embedder can observe
// from Interpret.
type InterpretResult int

const (
	ResultSuccess InterpretResult = iota
	ResultCompileError
	ResultRuntimeError
)

// LoadModuleFn resolves the source for an imported module.
type LoadModuleFn func(name string) (string, bool)

// BindForeignMethodFn resolves a foreign method registered by the
// embedder for (module, class, signature, isStatic).
type BindForeignMethodFn func(module, class, signature string, isStatic bool) ForeignFn

// BindForeignClassFn resolves allocate/finalize hooks for a foreign
// class.
type BindForeignClassFn func(module, class string) (allocate ForeignFn, finalize func())

// WriteFn is the print sink; ErrorFn is the compile/runtime error sink.
type WriteFn func(text string)
type ErrorFn func(kind ErrorKind, module string, line int, message string)

// CompileFn compiles source text for a module into a top-level
// function. It is the core's one delegation point to the external
// lexer/parser/compiler that spec.md places out of scope: the core
// itself never parses text.
type CompileFn func(v *VM, moduleName, source string) (*ObjFunction, error)

// Config is the embedding surface's VM lifecycle configuration.
type Config struct {
	LoadModuleFn        LoadModuleFn
	BindForeignMethodFn BindForeignMethodFn
	BindForeignClassFn  BindForeignClassFn
	WriteFn             WriteFn
	ErrorFn             ErrorFn
	Compile             CompileFn

	InitialHeapSize int64
	MinHeapSize     int64
	HeapGrowPercent int64
	MaxStackSlots   int
}

func (c *Config) setDefaults() {
	if c.MaxStackSlots <= 0 {
		c.MaxStackSlots = defaultStackSlots
	}
	if c.WriteFn == nil {
		c.WriteFn = func(s string) { fmt.Fprint(os.Stdout, s) }
	}
	if c.ErrorFn == nil {
		c.ErrorFn = defaultErrorFn(os.Stderr)
	}
}

// VM owns one independent object list, module registry, and root set.
// Multiple VMs may coexist in a process and share no state (§5
// isolation-across-VMs).
type VM struct {
	config    Config
	allocator *Allocator

	firstObject *Obj
	modules     map[string]*ObjModule
	methodNames SymbolTable

	handles       []*Handle
	compilerRoots []object
	foreign       ForeignMethods

	current     *ObjFiber
	nextFiberID uint64

	// Core classes, seeded by bootstrapCore before any module compiles.
	classClass    *ObjClass
	objectClass   *ObjClass
	fiberClass    *ObjClass
	nullClass     *ObjClass
	boolClass     *ObjClass
	numberClass   *ObjClass
	stringClass   *ObjClass
	listClass     *ObjClass
	mapClass      *ObjClass
	rangeClass    *ObjClass
	functionClass *ObjClass
}

// NewVM constructs a VM from config, seeding the core class hierarchy
// before returning. freeVM has no Go analogue: dropping the *VM value
// is enough, since nothing outside the process's own GC owns it.
func NewVM(config Config) *VM {
	config.setDefaults()
	v := &VM{
		config:  config,
		modules: make(map[string]*ObjModule),
	}
	v.allocator = newAllocator(v, config.InitialHeapSize, config.MinHeapSize, config.HeapGrowPercent)
	v.bootstrapCore()
	return v
}

// registerObject accounts for obj's size — possibly triggering a
// collection, the allocator's "value allocated" moment from the GC
// safety contract — before linking it into the intrusive "all
// objects" list. The order matters: obj is not yet reachable from any
// root, so if accounting triggers a GC it must run as though obj does
// not exist yet (mirroring the reference allocator, where a fresh
// allocation is linked into the object list only after the
// underlying reallocate() call returns); linking first would expose
// an unmarked, unrooted object to that same collection and sweep it
// out from under its own constructor.
func (v *VM) registerObject(o *Obj, size int64) {
	v.allocator.Account(size)
	o.next = v.firstObject
	v.firstObject = o
}

func (v *VM) pushRoot(val Value) { v.allocator.pushRoot(val) }
func (v *VM) popRoot()           { v.allocator.popRoot() }

func (v *VM) PushCompilerRoot(o object) { v.compilerRoots = append(v.compilerRoots, o) }
func (v *VM) PopCompilerRoot() {
	if len(v.compilerRoots) == 0 {
		return
	}
	v.compilerRoots = v.compilerRoots[:len(v.compilerRoots)-1]
}

// Module looks up a registered module by name.
func (v *VM) Module(name string) (*ObjModule, bool) {
	m, ok := v.modules[name]
	return m, ok
}

// RegisterModule adds (or replaces) a module in the VM-wide registry,
// keyed by name, so it becomes a GC root.
func (v *VM) RegisterModule(name string, m *ObjModule) { v.modules[name] = m }

// MethodSymbol interns a method selector into ember's global,
// dense-integer method symbol table (§9 "method dispatch via symbol
// indices").
func (v *VM) MethodSymbol(selector string) int { return v.methodNames.Ensure(selector) }

// BytesAllocated exposes the allocator's live-byte estimate, mostly
// for tests asserting invariant 8 (GC idempotence) and the end-to-end
// scenario in §8 about string reclamation.
func (v *VM) BytesAllocated() int64 { return v.allocator.BytesAllocated() }

// CollectGarbage forces a collection outside of the normal
// allocation-triggered path, for tests and the `ember run --gc-now`
// debug flag.
func (v *VM) CollectGarbage() { v.collectGarbage() }

// Interpret compiles and runs source as module `moduleName`,
// delegating compilation to config.Compile (the external collaborator
// spec.md §1 calls out) and returning one of the three InterpretResult
// outcomes described in §6.
func (v *VM) Interpret(moduleName, source string) InterpretResult {
	if v.config.Compile == nil {
		v.reportError(ErrorCompile, moduleName, 0, "no compiler configured")
		return ResultCompileError
	}
	module, ok := v.modules[moduleName]
	if !ok {
		module = NewModule(v, NewString(v, moduleName))
		v.RegisterModule(moduleName, module)
	}
	fn, err := v.config.Compile(v, moduleName, source)
	if err != nil {
		v.reportError(ErrorCompile, moduleName, 0, err.Error())
		return ResultCompileError
	}
	fn.Module = module
	closure := NewClosure(v, fn)
	fiber := NewFiber(v, closure)
	v.current = fiber

	if !v.run(fiber) {
		// v.current may no longer be `fiber` itself: a Call/TryCall
		// transfer can leave a callee several fibers deep as the one
		// that actually failed unprotected, per §4.9's unwind rule.
		v.reportRuntimeError(v.current)
		return ResultRuntimeError
	}
	return ResultSuccess
}

// Current returns the fiber presently executing on v — the target of
// the most recent Call/TryCall transfer, or the root fiber passed to
// Interpret if none has happened. internal/interp consults this to
// know which fiber's frames to dispatch next.
func (v *VM) Current() *ObjFiber { return v.current }

// run drives fiber to completion or failure. The actual opcode
// dispatch loop lives outside the core (internal/interp), consistent
// with spec.md placing "the bytecode interpreter loop" out of scope;
// the core only exposes the hook the embedder/CLI wires up.
var runnerHook func(v *VM, f *ObjFiber) bool

// SetRunner installs the bytecode dispatch loop implementation. Called
// once by cmd/ember (or tests) with internal/interp.Run.
func SetRunner(fn func(v *VM, f *ObjFiber) bool) { runnerHook = fn }

func (v *VM) run(f *ObjFiber) bool {
	if runnerHook == nil {
		panic("vm: no runner installed; call vm.SetRunner first")
	}
	return runnerHook(v, f)
}

func (v *VM) Write(text string) {
	if v.config.WriteFn != nil {
		v.config.WriteFn(text)
	}
}

func (v *VM) reportRuntimeError(f *ObjFiber) {
	msg := "unknown error"
	if f.Error.IsObj() {
		if s, ok := f.Error.AsObj().(*ObjString); ok {
			msg = s.value
		}
	}
	for i := len(f.Frames) - 1; i >= 0; i-- {
		fr := f.Frames[i]
		name, line, module := "?", 0, ""
		if fr.Closure != nil {
			name = fr.Closure.Fn.DebugName
			line = fr.Closure.Fn.LineFor(fr.IP)
			if fr.Closure.Fn.Module != nil && fr.Closure.Fn.Module.Name != nil {
				module = fr.Closure.Fn.Module.Name.value
			}
		}
		v.reportError(ErrorRuntime, module, line, fmt.Sprintf("%s: %s", name, msg))
	}
}
