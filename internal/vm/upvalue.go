package vm

// ObjUpvalue is a captured variable. Open upvalues point into a live
// Fiber stack slot; closed upvalues have copied that slot's Value into
// their own `closed` field. openNext chains through the owning Fiber's
// open-upvalue list, kept sorted by descending slot address.
type ObjUpvalue struct {
	Obj
	location *Value // non-nil while open
	slot     int     // stack index location points at, while open
	closed   Value
	openNext *ObjUpvalue // next-lower-address open upvalue in the owning fiber's list
}

func (u *ObjUpvalue) trace(gc *gcState) {
	if u.location != nil {
		gc.markValue(*u.location)
	} else {
		gc.markValue(u.closed)
	}
}

func NewUpvalue(v *VM, location *Value, slot int) *ObjUpvalue {
	u := &ObjUpvalue{location: location, slot: slot}
	initObj(&u.Obj, KindUpvalue, nil)
	v.registerObject(&u.Obj, 32)
	return u
}

func (u *ObjUpvalue) IsOpen() bool { return u.location != nil }

func (u *ObjUpvalue) Get() Value {
	if u.location != nil {
		return *u.location
	}
	return u.closed
}

func (u *ObjUpvalue) Set(val Value) {
	if u.location != nil {
		*u.location = val
		return
	}
	u.closed = val
}

// Close copies the slot's current Value into `closed` and retargets
// location at that field. It leaves openNext untouched — the caller
// (CloseUpvaluesFrom) still needs it to reach the next open upvalue in
// the list before overwriting f.openUpvalues.
func (u *ObjUpvalue) Close() {
	if u.location == nil {
		return
	}
	u.closed = *u.location
	u.location = nil
}
