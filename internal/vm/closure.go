package vm

// ObjClosure pairs a compiled function with the upvalues it captured
// when created.
type ObjClosure struct {
	Obj
	Fn        *ObjFunction
	Upvalues  []*ObjUpvalue
}

func (c *ObjClosure) trace(gc *gcState) {
	gc.markObject(c.Fn)
	for _, u := range c.Upvalues {
		gc.markObject(u)
	}
}

func NewClosure(v *VM, fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Fn: fn, Upvalues: make([]*ObjUpvalue, fn.NumUpvalues)}
	initObj(&c.Obj, KindClosure, v.functionClass)
	v.registerObject(&c.Obj, int64(24+8*fn.NumUpvalues))
	return c
}
