package vm

// ObjRange is an immutable numeric interval, inclusive or exclusive,
// structurally equal to another range with the same (from, to,
// inclusive) triple.
type ObjRange struct {
	Obj
	from      float64
	to        float64
	inclusive bool
}

func (r *ObjRange) trace(gc *gcState) {}

func NewRange(v *VM, from, to float64, inclusive bool) *ObjRange {
	r := &ObjRange{from: from, to: to, inclusive: inclusive}
	initObj(&r.Obj, KindRange, v.rangeClass)
	v.registerObject(&r.Obj, 40)
	return r
}

func (r *ObjRange) From() float64    { return r.from }
func (r *ObjRange) To() float64      { return r.to }
func (r *ObjRange) Inclusive() bool  { return r.inclusive }

// Len reports the number of integers the range spans when used as an
// iterable, mirroring how List/String iteration counts elements.
func (r *ObjRange) Len() int {
	n := r.to - r.from
	if r.inclusive {
		n++
	}
	if n < 0 {
		return 0
	}
	return int(n)
}
