package vm

// gcState carries the gray-stack worklist for one collection cycle. It
// is a plain slice rather than recursion, so the mark phase has no
// recursion-depth bound — the spec explicitly calls this out as an
// acceptable implementation strategy for the otherwise-recursive
// reference algorithm.
type gcState struct {
	gray []object
	live int64 // re-accumulated bytesAllocated, reset to 0 before marking
}

func (gc *gcState) markObject(o object) {
	if o == nil {
		return
	}
	h := o.Header()
	if h.marked {
		return
	}
	h.marked = true
	gc.live += sizeOfObj(o)
	gc.gray = append(gc.gray, o)
}

func (gc *gcState) markValue(v Value) {
	if v.IsObj() {
		gc.markObject(v.AsObj())
	}
}

// sizeOfObj returns an object's current accounting size, so a full
// mark pass re-establishes bytesAllocated from scratch. For lists,
// maps and classes that size follows their present backing storage,
// whose growth after allocation is not passed through Account, so it
// can exceed the size accounted when the object was allocated.
func sizeOfObj(o object) int64 {
	switch t := o.(type) {
	case *ObjString:
		return stringObjSize(len(t.value))
	case *ObjList:
		return listObjSize(t.elems.Cap())
	case *ObjMap:
		return mapObjSize(len(t.entries))
	case *ObjRange:
		return 40
	case *ObjFunction:
		return 64
	case *ObjClosure:
		return int64(24 + 8*len(t.Upvalues))
	case *ObjUpvalue:
		return 32
	case *ObjClass:
		return classObjSize(len(t.Methods))
	case *ObjInstance:
		return instanceObjSize(len(t.Fields))
	case *ObjFiber:
		return int64(64 + len(t.Stack)*16)
	case *ObjModule:
		return 48
	default:
		return 16
	}
}

// collectGarbage runs one full mark-sweep cycle: mark from the root
// set, drain the gray stack, sweep the intrusive object list, then ask
// the allocator to recompute its threshold from the freshly
// re-established live size.
func (v *VM) collectGarbage() {
	gc := &gcState{}
	v.markRoots(gc)
	for len(gc.gray) > 0 {
		o := gc.gray[len(gc.gray)-1]
		gc.gray = gc.gray[:len(gc.gray)-1]
		o.trace(gc)
	}
	v.sweep()
	v.allocator.bytesAllocated = gc.live
	v.allocator.AfterCollect()
}

// markRoots marks: the current fiber, every module in the registry,
// the compiler's working set (if a compile is in progress), and the
// explicit temporary-root stack.
func (v *VM) markRoots(gc *gcState) {
	if v.current != nil {
		gc.markObject(v.current)
	}
	for _, m := range v.modules {
		gc.markObject(m)
	}
	for _, h := range v.handles {
		if h.pinned {
			gc.markValue(h.value)
		}
	}
	for _, r := range v.allocator.roots {
		gc.markValue(r)
	}
	for _, c := range v.compilerRoots {
		gc.markObject(c)
	}
	v.markCoreClasses(gc)
}

func (v *VM) markCoreClasses(gc *gcState) {
	for _, c := range []*ObjClass{
		v.classClass, v.objectClass, v.fiberClass, v.nullClass, v.boolClass,
		v.numberClass, v.stringClass, v.listClass, v.mapClass, v.rangeClass,
		v.functionClass,
	} {
		if c != nil {
			gc.markObject(c)
		}
	}
}

// sweep walks the intrusive "all objects" list once: unmarked objects
// are unlinked (and thus become eligible for Go's own GC once nothing
// else references them); survivors have their mark bit cleared and
// are rethreaded onto the new list head in the same relative order.
func (v *VM) sweep() {
	var head, tail *Obj
	for cur := v.firstObject; cur != nil; {
		next := cur.next
		if cur.marked {
			cur.marked = false
			cur.next = nil
			if head == nil {
				head = cur
				tail = cur
			} else {
				tail.next = cur
				tail = cur
			}
		}
		cur = next
	}
	v.firstObject = head
}
