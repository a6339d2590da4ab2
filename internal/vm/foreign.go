package vm

// Handle is an opaque, embedder-held reference to a Value that must
// survive garbage collection across calls back into the VM — the
// "pin/unpin" bridging primitive §6 requires. It is intentionally not
// an object: handles are never visible to script code.
type Handle struct {
	value  Value
	pinned bool
}

// NewHandle pins v and returns a Handle the embedder can hold onto
// indefinitely; it is rooted by VM.markRoots until ReleaseHandle.
func (v *VM) NewHandle(val Value) *Handle {
	h := &Handle{value: val, pinned: true}
	v.handles = append(v.handles, h)
	return h
}

// ReleaseHandle unpins h and drops it from the VM's handle list.
func (v *VM) ReleaseHandle(h *Handle) {
	h.pinned = false
	for i, cur := range v.handles {
		if cur == h {
			v.handles = append(v.handles[:i], v.handles[i+1:]...)
			return
		}
	}
}

func (h *Handle) Value() Value { return h.value }

// SlotArray is the fiber-local argument/return array a foreign method
// is invoked with: slots[0] is the receiver, slots[1:] are arguments;
// the foreign function's return value is the call's result.
type SlotArray []Value

// GetSlot and SetSlot read/write a call frame's local slots by index,
// counted from the current frame's stack base — the "operations to
// read/write slots in a call frame by index" §6 asks for.
func (v *VM) GetSlot(f *ObjFiber, index int) Value {
	fr := f.CurrentFrame()
	return f.Stack[fr.StackBase+index]
}

func (v *VM) SetSlot(f *ObjFiber, index int, val Value) {
	fr := f.CurrentFrame()
	f.Stack[fr.StackBase+index] = val
}

// foreignKey identifies one registered foreign method.
type foreignKey struct {
	module    string
	class     string
	signature string
	isStatic  bool
}

// ForeignMethods is the registry foreign methods are installed into;
// BindForeignMethodFn (Config) is consulted lazily the first time a
// foreign method declaration is bound to a class, matching the
// reference's bindForeignMethodFn callback timing.
type ForeignMethods struct {
	byKey map[foreignKey]ForeignFn
}

func (v *VM) RegisterForeignMethod(module, class, signature string, isStatic bool, fn ForeignFn) {
	if v.foreign.byKey == nil {
		v.foreign.byKey = make(map[foreignKey]ForeignFn)
	}
	v.foreign.byKey[foreignKey{module, class, signature, isStatic}] = fn
}

func (v *VM) LookupForeignMethod(module, class, signature string, isStatic bool) (ForeignFn, bool) {
	if v.foreign.byKey != nil {
		if fn, ok := v.foreign.byKey[foreignKey{module, class, signature, isStatic}]; ok {
			return fn, true
		}
	}
	if v.config.BindForeignMethodFn != nil {
		fn := v.config.BindForeignMethodFn(module, class, signature, isStatic)
		if fn != nil {
			return fn, true
		}
	}
	return nil, false
}
