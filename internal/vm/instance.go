package vm

// ObjInstance is a user-defined object: its class plus one Value per
// declared field (including inherited fields, laid out superclass
// fields first).
type ObjInstance struct {
	Obj
	Fields []Value
}

func (i *ObjInstance) trace(gc *gcState) {
	for _, f := range i.Fields {
		gc.markValue(f)
	}
}

func instanceObjSize(numFields int) int64 { return int64(24 + numFields*16) }

func NewInstance(v *VM, class *ObjClass) *ObjInstance {
	inst := &ObjInstance{Fields: make([]Value, class.NumFields)}
	for i := range inst.Fields {
		inst.Fields[i] = NullVal()
	}
	initObj(&inst.Obj, KindInstance, class)
	v.registerObject(&inst.Obj, instanceObjSize(class.NumFields))
	return inst
}
