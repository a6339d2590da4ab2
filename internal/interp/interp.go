// Package interp is the bytecode dispatch loop internal/compiler's
// output runs on: a straightforward switch-per-opcode evaluator over
// internal/vm's fiber/closure/value types, installed into the core via
// vm.SetRunner so vm.Interpret never needs to import this package
// (mirroring wren_vm.c's runInterpreter being the one piece of
// wren_vm.c the compiler translation unit never calls into directly).
package interp

import (
	"fmt"

	"ember/internal/vm"
)

// Install wires Run into the core as its bytecode runner. cmd/ember
// calls this once during startup, before any vm.Interpret call.
func Install() {
	vm.SetRunner(Run)
}

// Run drives the fiber chain rooted at start to completion or
// failure. The fiber actually executing can change mid-loop: a
// Call/TryCall transfer (dispatched through OpCall like any other
// method) reassigns v.Current(), so Run re-reads it every iteration
// instead of closing over a fixed fiber — the same way wren_vm.c's
// runInterpreter reloads its `fiber` local after a fiber switch rather
// than recursing. A failure is handled once, at the top of the loop:
// if the fiber that just failed was reached through a try-protected
// transfer, its caller resumes with the error as the call's result
// and the loop keeps going; otherwise Run returns false with
// v.Current() left pointing at whichever fiber actually holds the
// error, for vm.Interpret to report.
func Run(v *vm.VM, start *vm.ObjFiber) bool {
	for {
		f := v.Current()
		if f.HasError() {
			if next := f.FinishWithError(v); next != nil {
				continue
			}
			return false
		}

		frame := f.CurrentFrame()
		if frame == nil {
			return true
		}
		code := frame.Closure.Fn.Code
		op := vm.OpCode(code[frame.IP])
		frame.IP++

		switch op {
		case vm.OpConstant:
			idx := readU16(frame, code)
			push(f, frame.Closure.Fn.Constants[idx])

		case vm.OpNull:
			push(f, vm.NullVal())
		case vm.OpTrue:
			push(f, vm.BoolVal(true))
		case vm.OpFalse:
			push(f, vm.BoolVal(false))
		case vm.OpPop:
			pop(f)
		case vm.OpDup:
			push(f, peek(f, 0))

		case vm.OpGetLocal:
			slot := readU8(frame, code)
			push(f, f.Stack[frame.StackBase+slot])
		case vm.OpSetLocal:
			slot := readU8(frame, code)
			f.Stack[frame.StackBase+slot] = peek(f, 0)

		case vm.OpGetUpvalue:
			idx := readU8(frame, code)
			push(f, frame.Closure.Upvalues[idx].Get())
		case vm.OpSetUpvalue:
			idx := readU8(frame, code)
			frame.Closure.Upvalues[idx].Set(peek(f, 0))

		case vm.OpGetModuleVar:
			sym := readU16(frame, code)
			push(f, frame.Closure.Fn.Module.VariableAt(sym))
		case vm.OpSetModuleVar:
			sym := readU16(frame, code)
			frame.Closure.Fn.Module.Variables[sym] = peek(f, 0)

		case vm.OpGetField:
			idx := readU8(frame, code)
			recv := pop(f)
			inst, ok := recv.AsObj().(*vm.ObjInstance)
			if !ok {
				fail(v, f, "receiver has no fields")
				continue
			}
			push(f, inst.Fields[idx])
		case vm.OpSetField:
			idx := readU8(frame, code)
			val := pop(f)
			recv := pop(f)
			inst, ok := recv.AsObj().(*vm.ObjInstance)
			if !ok {
				fail(v, f, "receiver has no fields")
				continue
			}
			inst.Fields[idx] = val
			push(f, val)

		case vm.OpClosure:
			execClosure(v, f, frame, code)

		case vm.OpCall:
			execCall(v, f, frame, code)
		case vm.OpCallValue:
			execCallValue(v, f, frame, code)
		case vm.OpReturn:
			result, done := execReturn(f)
			if done {
				if next := f.FinishNormally(v, result); next == nil {
					return true
				}
			}

		case vm.OpJump:
			offset := readU16(frame, code)
			frame.IP += offset
		case vm.OpJumpIfFalse:
			offset := readU16(frame, code)
			cond := pop(f)
			if !vm.IsTruthy(cond) {
				frame.IP += offset
			}
		case vm.OpLoop:
			offset := readU16(frame, code)
			frame.IP -= offset

		case vm.OpNot:
			val := pop(f)
			push(f, vm.BoolVal(!vm.IsTruthy(val)))
		case vm.OpNegate:
			val := pop(f)
			if !val.IsNumber() {
				fail(v, f, "operand must be a number")
				continue
			}
			push(f, vm.NumberVal(-val.AsNumber()))

		case vm.OpList:
			push(f, vm.ObjVal(vm.NewList(v)))
		case vm.OpListAppend:
			val := pop(f)
			lst, ok := peek(f, 0).AsObj().(*vm.ObjList)
			if !ok {
				fail(v, f, "expected a list")
				continue
			}
			lst.Append(v, val)
		case vm.OpMap:
			push(f, vm.ObjVal(vm.NewMap(v)))
		case vm.OpMapInsert:
			val := pop(f)
			key := pop(f)
			m, ok := peek(f, 0).AsObj().(*vm.ObjMap)
			if !ok {
				fail(v, f, "expected a map")
				continue
			}
			m.Set(v, key, val)

		case vm.OpCloseUpvalue:
			slot := readU8(frame, code)
			f.CloseUpvaluesFrom(frame.StackBase + slot)

		case vm.OpEnd:
			if next := f.FinishNormally(v, vm.NullVal()); next == nil {
				return true
			}

		default:
			fail(v, f, fmt.Sprintf("unknown opcode %d", op))
		}
	}
}

func readU8(frame *vm.CallFrame, code []byte) int {
	b := code[frame.IP]
	frame.IP++
	return int(b)
}

func readU16(frame *vm.CallFrame, code []byte) int {
	hi, lo := code[frame.IP], code[frame.IP+1]
	frame.IP += 2
	return int(hi)<<8 | int(lo)
}

func push(f *vm.ObjFiber, val vm.Value) { f.Push(val) }

func pop(f *vm.ObjFiber) vm.Value { return f.Pop() }

func peek(f *vm.ObjFiber, depth int) vm.Value {
	return *f.SlotPtr(f.SP - 1 - depth)
}

// fail raises a runtime error on f. The loop's own top-of-iteration
// check decides what happens next — resume a try-protected caller, or
// stop — so every call site just fails and lets control return to the
// top of Run, typically via `continue`.
func fail(v *vm.VM, f *vm.ObjFiber, message string) {
	f.Fail(v, message)
}

// execClosure materializes an OpClosure instruction: it reads the
// child ObjFunction out of the current frame's constant table, then
// for each declared upvalue either captures one of the *enclosing*
// frame's live locals or forwards one of the enclosing closure's own
// upvalues, exactly as clox's OP_CLOSURE handler does.
func execClosure(v *vm.VM, f *vm.ObjFiber, frame *vm.CallFrame, code []byte) {
	fnIdx := readU16(frame, code)
	fn, ok := frame.Closure.Fn.Constants[fnIdx].AsObj().(*vm.ObjFunction)
	if !ok {
		fail(v, f, "expected a function constant")
		return
	}
	closure := vm.NewClosure(v, fn)
	for i := 0; i < fn.NumUpvalues; i++ {
		isLocal := readU8(frame, code) != 0
		idx := readU8(frame, code)
		if isLocal {
			closure.Upvalues[i] = f.CaptureUpvalue(v, frame.StackBase+idx)
		} else {
			closure.Upvalues[i] = frame.Closure.Upvalues[idx]
		}
	}
	push(f, vm.ObjVal(closure))
}

// execCall implements symbol dispatch: look up the method by class +
// symbol on the receiver (at stack depth argCount below the top), then
// either run it inline (primitive/foreign), push a new frame over the
// receiver+args already sitting on the stack (block), or — for
// MethodFiberTransfer — hand control to a different fiber entirely
// without leaving anything behind on f's own stack.
func execCall(v *vm.VM, f *vm.ObjFiber, frame *vm.CallFrame, code []byte) {
	argCount := readU8(frame, code)
	sym := readU16(frame, code)

	receiver := peek(f, argCount)
	class := v.ClassOf(receiver)
	method, ok := class.MethodAt(sym)
	if !ok {
		fail(v, f, fmt.Sprintf("%s does not implement the requested method", vm.ToString(v, receiver)))
		return
	}

	base := f.SP - argCount - 1
	switch method.Kind {
	case vm.MethodPrimitive:
		args := make([]vm.Value, argCount)
		copy(args, f.Stack[base+1:f.SP])
		result, ok := method.Primitive(v, receiver, args)
		if !ok {
			return
		}
		f.SP = base
		push(f, result)
	case vm.MethodForeign:
		slots := f.Stack[base:f.SP]
		result := method.Foreign(v, slots)
		f.SP = base
		push(f, result)
	case vm.MethodBlock:
		f.PushFrame(method.Closure, base)
	case vm.MethodFiberTransfer:
		execFiberTransfer(v, f, receiver, method, base, argCount)
	default:
		fail(v, f, "method has no implementation")
	}
}

// execFiberTransfer is MethodFiberTransfer's handler: it discards the
// receiver+args from f's own stack (f produces nothing until it is
// itself resumed later) and hands control to the target fiber via
// Call or TryCall. A failure here (receiver isn't a fiber, or isn't
// callable) fails f directly, exactly like any other primitive error.
func execFiberTransfer(v *vm.VM, f *vm.ObjFiber, receiver vm.Value, method vm.Method, base, argCount int) {
	target, ok := receiver.AsObj().(*vm.ObjFiber)
	if !ok {
		f.SP = base
		fail(v, f, "receiver is not a Fiber")
		return
	}
	arg := vm.NullVal()
	if argCount > 0 {
		arg = f.Stack[base+1]
	}
	f.SP = base
	if method.FiberTry {
		target.TryCall(v, arg)
	} else {
		target.Call(v, arg)
	}
}

// execCallValue implements direct closure invocation (a bare `f(...)`
// call, as opposed to symbol dispatch): no receiver slot is reserved,
// so the callee's own stack slot sits one below the new frame's
// StackBase — ReturnBase records that for OpReturn to collapse to.
func execCallValue(v *vm.VM, f *vm.ObjFiber, frame *vm.CallFrame, code []byte) {
	argCount := readU8(frame, code)
	calleeIdx := f.SP - argCount - 1
	callee := f.Stack[calleeIdx]
	closure, ok := callee.AsObj().(*vm.ObjClosure)
	if !ok {
		fail(v, f, "can only call a function value")
		return
	}
	if closure.Fn.Arity != argCount {
		fail(v, f, fmt.Sprintf("expected %d arguments but got %d", closure.Fn.Arity, argCount))
		return
	}
	f.PushFrameReturningTo(closure, calleeIdx+1, calleeIdx)
}

// execReturn pops the current frame, closes any upvalues that were
// pointing into it, and leaves its result at ReturnBase. It reports
// whether the fiber's outermost frame just returned (the fiber's
// entry function finishing normally) and, if so, the result it
// produced — for Run to hand to FinishNormally.
func execReturn(f *vm.ObjFiber) (vm.Value, bool) {
	result := pop(f)
	fr := f.PopFrame()
	f.CloseUpvaluesFrom(fr.StackBase)
	f.SP = fr.ReturnBase
	if len(f.Frames) == 0 {
		return result, true
	}
	push(f, result)
	return vm.NullVal(), false
}
