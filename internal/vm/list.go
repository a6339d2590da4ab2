package vm

// ObjList is a growable sequence of Values over Buffer, matching the
// geometric growth and shrink-to-half policy in §3/§4.6.
type ObjList struct {
	Obj
	elems Buffer[Value]
}

func (l *ObjList) trace(gc *gcState) {
	for i := 0; i < l.elems.Len(); i++ {
		gc.markValue(l.elems.At(i))
	}
}

func listObjSize(cap int) int64 { return int64(24 + cap*16) }

func NewList(v *VM) *ObjList {
	l := &ObjList{}
	initObj(&l.Obj, KindList, v.listClass)
	v.registerObject(&l.Obj, listObjSize(0))
	return l
}

// IndexFromValue converts a script-level numeric index (possibly
// negative, counting from the end) into a Go slice index, or -1 if it
// is out of range.
func (l *ObjList) IndexFromValue(n Value) int {
	i := capFor(n.AsNumber())
	if i < 0 {
		i += l.elems.Len()
	}
	if i < 0 || i >= l.elems.Len() {
		return -1
	}
	return i
}

func (l *ObjList) Len() int          { return l.elems.Len() }
func (l *ObjList) Get(i int) Value   { return l.elems.At(i) }
func (l *ObjList) Set(i int, v Value) { l.elems.Set(i, v) }

// Append adds v to the end of the list, rooting v across the append in
// case growth triggers an allocation (and therefore a possible GC).
func (l *ObjList) Append(v *VM, val Value) {
	v.pushRoot(val)
	l.elems.Write(val)
	v.popRoot()
}

// Insert appends a slot, shifts [i..] right by one, and stores val at
// i — §4.6's description verbatim. val is root-protected across the
// append to guard against the shift-triggered growth.
func (l *ObjList) Insert(v *VM, val Value, i int) {
	v.pushRoot(val)
	l.elems.Write(NullVal()) // grow by one slot
	data := l.elems.Slice()
	for j := len(data) - 1; j > i; j-- {
		data[j] = data[j-1]
	}
	data[i] = val
	v.popRoot()
}

// RemoveAt reads the value at i, shifts the tail left, decrements the
// count, and shrinks capacity by half once capacity/2 >= count.
func (l *ObjList) RemoveAt(i int) Value {
	data := l.elems.Slice()
	removed := data[i]
	copy(data[i:], data[i+1:])
	l.elems.SetLen(len(data) - 1)
	if half := l.elems.Cap() / 2; half >= l.elems.Len() && half >= minCapacity {
		l.elems.ShrinkTo(half)
	}
	return removed
}
