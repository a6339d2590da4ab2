package vm

// MethodKind tags what a class's method-table slot holds.
type MethodKind uint8

const (
	MethodNone MethodKind = iota
	MethodPrimitive
	MethodForeign
	MethodBlock
	// MethodFiberTransfer dispatches through ObjFiber.Call/TryCall
	// instead of returning a value inline — the interpreter loop keeps
	// running, but against whatever fiber v.Current() names afterward.
	// FiberTry distinguishes try(_) (failures resume the caller) from
	// call(_) (failures unwind past the caller, per §4.9).
	MethodFiberTransfer
)

// Primitive is a method implemented directly in Go against the core
// (the "primitive-cfunc" method kind). It returns the result and
// whether the call succeeded; on failure the error has already been
// stashed on the running fiber.
type Primitive func(v *VM, receiver Value, args []Value) (Value, bool)

// ForeignFn is an embedder-registered method (the "foreign-cfunc" kind).
type ForeignFn func(v *VM, slots []Value) Value

// Method is one entry in a class's method table, indexed by global
// method symbol.
type Method struct {
	Kind      MethodKind
	Primitive Primitive
	Foreign   ForeignFn
	Closure   *ObjClosure
	FiberTry  bool
}

// ObjClass is {superclass, name, numFields (includes superclass
// fields), methods}. Every class has a metaclass, reachable via
// Obj.Class(), whose sole instance is the class itself.
type ObjClass struct {
	Obj
	Superclass *ObjClass
	Name       *ObjString
	NumFields  int
	Methods    []Method
	IsForeign  bool
}

func (c *ObjClass) trace(gc *gcState) {
	gc.markObject(c.Header().Class()) // the metaclass
	if c.Superclass != nil {
		gc.markObject(c.Superclass)
	}
	gc.markObject(c.Name)
	for _, m := range c.Methods {
		if m.Kind == MethodBlock && m.Closure != nil {
			gc.markObject(m.Closure.Fn)
		}
	}
}

func classObjSize(numMethods int) int64 { return int64(40 + numMethods*56) }

// newBareClass allocates a class header without wiring a superclass or
// metaclass; callers (NewClass, bootstrapCore) finish construction.
func newBareClass(v *VM, name *ObjString, numFields int, metaclass *ObjClass) *ObjClass {
	c := &ObjClass{Name: name, NumFields: numFields}
	initObj(&c.Obj, KindClass, metaclass)
	v.registerObject(&c.Obj, classObjSize(0))
	return c
}

// NewClass implements §4.7's four-step recipe: allocate the metaclass,
// bind it to the root Class, allocate the class itself with the
// metaclass as its class-of, then bind the superclass (copying its
// methods by symbol index).
func NewClass(v *VM, superclass *ObjClass, numFields int, name *ObjString) *ObjClass {
	metaName := NewString(v, name.value+" metaclass")
	meta := newBareClass(v, metaName, 0, v.classClass)
	meta.Superclass = v.classClass
	meta.Methods = append(meta.Methods, v.classClass.Methods...)

	class := newBareClass(v, name, numFields, meta)
	v.BindSuperclass(class, superclass)
	return class
}

// BindSuperclass sets class.Superclass, folds the superclass's field
// count into class.NumFields, and copies each of the superclass's
// methods by symbol index into class. Subclass methods declared later
// overwrite these copies; there is no dynamic chain walk at call time.
func (v *VM) BindSuperclass(class, superclass *ObjClass) {
	class.Superclass = superclass
	if superclass == nil {
		return
	}
	class.NumFields += superclass.NumFields
	v.growMethods(class, len(superclass.Methods)-1)
	for i, m := range superclass.Methods {
		class.Methods[i] = m
	}
}

// growMethods pads class.Methods with MethodNone fillers so that
// symbol `upTo` is a valid index, keeping symbol indices stable across
// every class in the VM.
func (v *VM) growMethods(class *ObjClass, upTo int) {
	for len(class.Methods) <= upTo {
		class.Methods = append(class.Methods, Method{Kind: MethodNone})
	}
}

// BindMethod installs method at the given global method symbol,
// growing the table with MethodNone fillers as needed.
func (v *VM) BindMethod(class *ObjClass, symbol int, method Method) {
	v.growMethods(class, symbol)
	class.Methods[symbol] = method
}

func (c *ObjClass) MethodAt(symbol int) (Method, bool) {
	if symbol < 0 || symbol >= len(c.Methods) || c.Methods[symbol].Kind == MethodNone {
		return Method{}, false
	}
	return c.Methods[symbol], true
}
