package interp

import (
	"testing"

	"ember/internal/vm"
)

func u16(n int) (byte, byte) { return byte(n >> 8), byte(n & 0xff) }

// TestTryCallResumesCallerWithError drives spec.md §8 scenario 4
// end to end through the real dispatch loop: fiber A tries fiber B,
// B fails, and A must observe the error as the call's result and
// remain resumable (it keeps running its own next instruction rather
// than unwinding).
func TestTryCallResumesCallerWithError(t *testing.T) {
	v := vm.NewVM(vm.Config{})
	Install()

	module := vm.NewModule(v, vm.NewString(v, "main"))

	// Fiber B: push a non-number constant, then negate it — a
	// deterministic runtime failure ("operand must be a number")
	// without needing a dedicated abort primitive.
	bFn := vm.NewFunction(v, module, "<fiberB>")
	bFn.Constants = []vm.Value{vm.ObjVal(vm.NewString(v, "nope"))}
	bFn.Code = []byte{
		byte(vm.OpConstant), 0, 0,
		byte(vm.OpNegate),
	}
	bClosure := vm.NewClosure(v, bFn)
	b := vm.NewFiber(v, bClosure)

	// Fiber A: push fiber B as a constant, try-call it with no
	// arguments, then stop — leaving the call's result on its stack.
	trySym := v.MethodSymbol("try()")
	hi, lo := u16(trySym)
	aFn := vm.NewFunction(v, module, "<fiberA>")
	aFn.Constants = []vm.Value{vm.ObjVal(b)}
	aFn.Code = []byte{
		byte(vm.OpConstant), 0, 0,
		byte(vm.OpCall), 0, hi, lo,
		byte(vm.OpEnd),
	}
	aClosure := vm.NewClosure(v, aFn)
	a := vm.NewFiber(v, aClosure)

	ok := Run(v, a)
	if !ok {
		t.Fatal("a protected try-call failing inside the callee must not fail the caller")
	}
	if !b.HasError() {
		t.Fatal("fiber B must have recorded its own error")
	}
	if b.Caller != a {
		t.Fatal("fiber B's caller link must survive its failure")
	}

	result := a.Stack[0]
	s, ok2 := result.AsObj().(*vm.ObjString)
	if !ok2 {
		t.Fatalf("fiber A's call result = %v, want the error String", result)
	}
	if s.Value() != "operand must be a number" {
		t.Fatalf("fiber A observed %q, want %q", s.Value(), "operand must be a number")
	}

	if v.Current() != a {
		t.Fatal("after B resumes A, A must be the VM's current fiber")
	}
}

// TestCallUnwindsPastCallerWhenUnprotected mirrors the previous test
// but uses the unprotected call(), so B's failure must escape all the
// way out of Run rather than resume A.
func TestCallUnwindsPastCallerWhenUnprotected(t *testing.T) {
	v := vm.NewVM(vm.Config{})
	Install()

	module := vm.NewModule(v, vm.NewString(v, "main"))

	bFn := vm.NewFunction(v, module, "<fiberB>")
	bFn.Constants = []vm.Value{vm.ObjVal(vm.NewString(v, "nope"))}
	bFn.Code = []byte{
		byte(vm.OpConstant), 0, 0,
		byte(vm.OpNegate),
	}
	bClosure := vm.NewClosure(v, bFn)
	b := vm.NewFiber(v, bClosure)

	callSym := v.MethodSymbol("call()")
	hi, lo := u16(callSym)
	aFn := vm.NewFunction(v, module, "<fiberA>")
	aFn.Constants = []vm.Value{vm.ObjVal(b)}
	aFn.Code = []byte{
		byte(vm.OpConstant), 0, 0,
		byte(vm.OpCall), 0, hi, lo,
		byte(vm.OpEnd),
	}
	aClosure := vm.NewClosure(v, aFn)
	a := vm.NewFiber(v, aClosure)

	ok := Run(v, a)
	if ok {
		t.Fatal("an unprotected call() failing inside the callee must fail the whole run")
	}
	if v.Current() != b {
		t.Fatalf("the unhandled error must be left on the fiber that actually failed, got %v", v.Current())
	}
}
