package vm

// CallFrame is one activation record on a Fiber's frame stack.
// ReturnBase is usually equal to StackBase (the receiver/first-arg
// slot doubles as the slot OpReturn collapses the stack to); a direct
// OpCallValue invocation has no receiver slot, so its frame's args
// start one slot higher than the callee value OpReturn must also
// discard — ReturnBase records that true collapse target.
type CallFrame struct {
	Closure    *ObjClosure
	IP         int
	StackBase  int
	ReturnBase int
}

// ObjFiber is an independently-scheduled call stack: frames, value
// stack, open-upvalue list, and error slot. Fibers are the unit of
// cooperative concurrency (§5): at most one is ever executing.
type ObjFiber struct {
	Obj
	Frames []CallFrame
	Stack  []Value

	openUpvalues *ObjUpvalue // head of the list, sorted by descending slot index

	Caller         *ObjFiber
	Error          Value // Null while healthy; an ObjString once failed
	CallerIsTrying bool
	ID             uint64

	SP int // index one past the highest live value on Stack

	state fiberState
}

type fiberState uint8

const (
	fiberNew fiberState = iota
	fiberRunning
	fiberSuspended
	fiberDone
)

func (f *ObjFiber) trace(gc *gcState) {
	for _, fr := range f.Frames {
		if fr.Closure != nil {
			gc.markObject(fr.Closure)
		}
	}
	for i := 0; i < len(f.Stack); i++ {
		gc.markValue(f.Stack[i])
	}
	for u := f.openUpvalues; u != nil; u = u.openNext {
		gc.markObject(u)
	}
	if f.Caller != nil {
		gc.markObject(f.Caller)
	}
	gc.markValue(f.Error)
}

const (
	defaultStackSlots = 1024
	defaultMaxFrames  = 256
)

// NewFiber allocates a fiber and assigns it the next id from the VM's
// monotonically increasing counter. The stack and frame arrays are
// fixed-size: §3 describes Fiber's stacks as fixed-size, which sidesteps
// the problem of growth invalidating open upvalues' pointers into the
// stack (the reference instead fixes up pointers after a realloc; a
// fixed capacity is the simpler, behaviorally equivalent choice ember
// makes here).
func NewFiber(v *VM, closure *ObjClosure) *ObjFiber {
	f := &ObjFiber{
		Frames: make([]CallFrame, 0, defaultMaxFrames),
		Stack:  make([]Value, v.config.MaxStackSlots),
		Error:  NullVal(),
	}
	initObj(&f.Obj, KindFiber, v.fiberClass)
	v.nextFiberID++
	f.ID = v.nextFiberID
	v.registerObject(&f.Obj, int64(64+len(f.Stack)*16))
	if closure != nil {
		f.Reset(closure)
	}
	return f
}

// Reset establishes frame 0 at the base of the value stack with the
// given closure and instruction pointer zero.
func (f *ObjFiber) Reset(closure *ObjClosure) {
	f.Frames = f.Frames[:0]
	f.Frames = append(f.Frames, CallFrame{Closure: closure, IP: 0, StackBase: 0, ReturnBase: 0})
	f.Stack = f.Stack[:cap(f.Stack)]
	for i := range f.Stack {
		f.Stack[i] = NullVal()
	}
	f.SP = 0
	f.openUpvalues = nil
	f.Error = NullVal()
	f.state = fiberNew
}

func (f *ObjFiber) HasError() bool { return !f.Error.IsNull() }

func (f *ObjFiber) stackTop() int {
	if len(f.Frames) == 0 {
		return 0
	}
	return f.Frames[len(f.Frames)-1].StackBase
}

// SlotPtr returns a pointer to the value stack slot at absolute index
// i, used both for direct stack access and to capture upvalues.
func (f *ObjFiber) SlotPtr(i int) *Value { return &f.Stack[i] }

// Push and Pop are the fiber's own value-stack primitives, shared by
// internal/interp's dispatch loop and the Call/TryCall transfer below
// so the two never drift out of sync on how SP advances.
func (f *ObjFiber) Push(v Value) {
	*f.SlotPtr(f.SP) = v
	f.SP++
}

func (f *ObjFiber) Pop() Value {
	f.SP--
	return *f.SlotPtr(f.SP)
}

// CaptureUpvalue finds or creates the open upvalue for the stack slot
// at absolute index `slot`, inserting new nodes so the list stays
// sorted by descending slot index, exactly as §4.8 requires.
func (f *ObjFiber) CaptureUpvalue(v *VM, slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	cur := f.openUpvalues
	for cur != nil && cur.slot > slot {
		prev = cur
		cur = cur.openNext
	}
	if cur != nil && cur.slot == slot {
		return cur
	}
	created := NewUpvalue(v, f.SlotPtr(slot), slot)
	created.openNext = cur
	if prev == nil {
		f.openUpvalues = created
	} else {
		prev.openNext = created
	}
	return created
}

// CloseUpvaluesFrom closes every open upvalue whose slot index is >=
// from, per §4.8/invariant 6: walks the open list from the head while
// addr >= from (the list is sorted descending, so this is a prefix).
func (f *ObjFiber) CloseUpvaluesFrom(from int) {
	for f.openUpvalues != nil && f.openUpvalues.slot >= from {
		f.openUpvalues.Close()
		f.openUpvalues = f.openUpvalues.openNext
	}
}

// PushFrame enters a new call frame for closure starting at stackBase,
// where OpReturn also collapses the stack back to (the common case: a
// symbol-dispatched call whose receiver occupies StackBase itself).
func (f *ObjFiber) PushFrame(closure *ObjClosure, stackBase int) {
	f.PushFrameReturningTo(closure, stackBase, stackBase)
}

// PushFrameReturningTo is PushFrame for callers whose collapse target
// sits below StackBase — an OpCallValue invocation has no receiver
// slot, so the callee closure value itself (one slot under the first
// argument) must also be discarded on return.
func (f *ObjFiber) PushFrameReturningTo(closure *ObjClosure, stackBase, returnBase int) {
	f.Frames = append(f.Frames, CallFrame{Closure: closure, StackBase: stackBase, ReturnBase: returnBase})
}

// PopFrame discards the innermost frame and returns it.
func (f *ObjFiber) PopFrame() CallFrame {
	fr := f.Frames[len(f.Frames)-1]
	f.Frames = f.Frames[:len(f.Frames)-1]
	return fr
}

func (f *ObjFiber) CurrentFrame() *CallFrame {
	if len(f.Frames) == 0 {
		return nil
	}
	return &f.Frames[len(f.Frames)-1]
}

// Fail stashes an error String into the fiber's error slot and marks
// it done. It does not itself resume anyone — FinishWithError decides
// whether a caller catches this per §4.9; the dispatch loop calls
// both in sequence.
func (f *ObjFiber) Fail(v *VM, message string) {
	f.Error = ObjVal(NewString(v, message))
	f.state = fiberDone
}

// Call transfers control to f without protection: f's caller becomes
// whichever fiber is currently running on v, arg is delivered as the
// value f resumes with, and v's current fiber becomes f. Reports
// false (and fails the calling fiber instead) if f cannot be called.
func (f *ObjFiber) Call(v *VM, arg Value) bool {
	if !f.beginTransfer(v, arg) {
		return false
	}
	f.CallerIsTrying = false
	return true
}

// TryCall is Call, but marks the transfer as protected: a runtime
// error raised inside f (directly, or by a fiber f itself calls)
// resumes this caller with the error String as the call's result
// instead of unwinding past it, per §4.9's end-to-end scenario.
func (f *ObjFiber) TryCall(v *VM, arg Value) bool {
	if !f.beginTransfer(v, arg) {
		return false
	}
	f.CallerIsTrying = true
	return true
}

// beginTransfer is Call/TryCall's shared core: validate f is
// resumable, link it to its new caller, deliver arg, and make it v's
// current fiber.
func (f *ObjFiber) beginTransfer(v *VM, arg Value) bool {
	if f.state == fiberRunning || f.state == fiberDone {
		v.current.Fail(v, "cannot call a fiber that is running or already finished")
		return false
	}
	f.Caller = v.current
	f.resume(arg)
	v.current = f
	return true
}

// resume delivers arg as the value f's suspended transfer point
// evaluates to. A freshly-reset fiber has never run, so arg becomes
// its entry function's sole argument (if it takes one) rather than a
// value some mid-execution instruction is waiting on; ember does not
// yet give scripts a way to yield and be resumed mid-frame, so that is
// the only case beginTransfer needs to handle.
func (f *ObjFiber) resume(arg Value) {
	if f.state == fiberNew {
		if fr := f.CurrentFrame(); fr != nil && fr.Closure != nil && fr.Closure.Fn.Arity > 0 {
			f.Push(arg)
		}
	}
	f.state = fiberRunning
}

// FinishNormally marks f done having produced result, and reports
// which fiber execution continues on: f.Caller, now resumed with
// result as the value of the call/try expression that started f, or
// nil if f had no caller (v's outermost fiber just finished).
func (f *ObjFiber) FinishNormally(v *VM, result Value) *ObjFiber {
	f.state = fiberDone
	caller := f.Caller
	if caller == nil {
		return nil
	}
	caller.Push(result)
	v.current = caller
	return caller
}

// FinishWithError is Fail's continuation: if f was reached through a
// try-protected transfer, its caller resumes with f.Error as the
// call's result (the caller "caught" it) and FinishWithError reports
// that caller; otherwise it reports nil and f.Error stays in place for
// the embedder to read off v.Current().
func (f *ObjFiber) FinishWithError(v *VM) *ObjFiber {
	if f.Caller == nil || !f.CallerIsTrying {
		return nil
	}
	caller := f.Caller
	caller.Push(f.Error)
	v.current = caller
	return caller
}
