package vm

// bootstrapCore seeds the root Class, Object, and every built-in
// class + metaclass before any module is compiled, matching
// wren_core.c's wrenInitializeCore. Class and Object are mutually
// referential (Class's class-of is "Class metaclass", whose
// superclass is "Object metaclass", whose class-of is Class) so they
// are allocated bare and wired by hand; every other core class goes
// through the ordinary NewClass path once Class/Object exist.
func (v *VM) bootstrapCore() {
	objectName := NewString(v, "Object")
	classNameStr := NewString(v, "Class")

	objectClass := newBareClass(v, objectName, 0, nil)
	classClass := newBareClass(v, classNameStr, 0, nil)

	objectMeta := newBareClass(v, NewString(v, "Object metaclass"), 0, classClass)
	classMeta := newBareClass(v, NewString(v, "Class metaclass"), 0, classClass)

	objectMeta.Superclass = classClass
	classMeta.Superclass = objectMeta

	objectClass.Header().setClass(objectMeta)
	classClass.Header().setClass(classMeta)
	classClass.Superclass = objectClass

	v.objectClass = objectClass
	v.classClass = classClass

	// Object's own methods must exist before any subclass is created:
	// NewClass/BindSuperclass copies the superclass's method table by
	// symbol index at construction time, not via a dynamic chain walk.
	v.bindObjectPrimitives()

	v.nullClass = v.NewCoreClass("Null", 0)
	v.boolClass = v.NewCoreClass("Bool", 0)
	v.numberClass = v.NewCoreClass("Num", 0)
	v.stringClass = v.NewCoreClass("String", 0)
	v.listClass = v.NewCoreClass("List", 0)
	v.mapClass = v.NewCoreClass("Map", 0)
	v.rangeClass = v.NewCoreClass("Range", 0)
	v.fiberClass = v.NewCoreClass("Fiber", 0)
	v.functionClass = v.NewCoreClass("Function", 0)

	v.bindNumberPrimitives()
	v.bindStringPrimitives()
	v.bindListPrimitives()
	v.bindMapPrimitives()
	v.bindRangePrimitives()
	v.bindFiberPrimitives()
}

// NewCoreClass is NewClass specialized to "subclass of Object, in the
// implicit core module" — every built-in value type but Object/Class
// itself is defined this way.
func (v *VM) NewCoreClass(name string, numFields int) *ObjClass {
	return NewClass(v, v.objectClass, numFields, NewString(v, name))
}

// ObjectClass exposes the root class so internal/compiler can build
// user-declared classes as ordinary subclasses of Object.
func (v *VM) ObjectClass() *ObjClass { return v.objectClass }

func (v *VM) bindPrimitive(class *ObjClass, selector string, fn Primitive) {
	sym := v.MethodSymbol(selector)
	v.BindMethod(class, sym, Method{Kind: MethodPrimitive, Primitive: fn})
}

// bindFiberTransfer installs a Call/TryCall dispatch at selector,
// distinguished from an ordinary primitive because it doesn't return a
// value inline — internal/interp's dispatch loop reads FiberTry off
// the bound Method to choose between the two.
func (v *VM) bindFiberTransfer(class *ObjClass, selector string, try bool) {
	sym := v.MethodSymbol(selector)
	v.BindMethod(class, sym, Method{Kind: MethodFiberTransfer, FiberTry: try})
}

func (v *VM) bindObjectPrimitives() {
	v.bindPrimitive(v.objectClass, "==(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return BoolVal(ValuesEqual(recv, args[0])), true
	})
	v.bindPrimitive(v.objectClass, "!=(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return BoolVal(!ValuesEqual(recv, args[0])), true
	})
	v.bindPrimitive(v.objectClass, "toString", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return ObjVal(NewString(vm, ToString(vm, recv))), true
	})
	v.bindPrimitive(v.objectClass, "is(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		target, ok := args[0].AsObj().(*ObjClass)
		if !ok {
			vm.current.Fail(vm, "right operand must be a class")
			return NullVal(), false
		}
		return BoolVal(vm.IsInstanceOf(recv, target)), true
	})
}

// ToString renders any Value the way the scripting surface's
// top-level `toString`/string-interpolation would: numbers via
// NumToString, strings as themselves, booleans/null as their literal
// spelling, classes as their name, ranges as `from..to`/`from...to`,
// and every other object as "instance of " followed by its class name.
func ToString(v *VM, val Value) string {
	switch {
	case val.IsNull():
		return "null"
	case val.IsBool():
		if val.AsBool() {
			return "true"
		}
		return "false"
	case val.IsNumber():
		return NumToString(val.AsNumber())
	case val.IsObj():
		switch o := val.AsObj().(type) {
		case *ObjString:
			return o.value
		case *ObjClass:
			return o.Name.value
		case *ObjRange:
			if o.inclusive {
				return NumToString(o.from) + ".." + NumToString(o.to)
			}
			return NumToString(o.from) + "..." + NumToString(o.to)
		default:
			return "instance of " + val.AsObj().Header().Class().Name.value
		}
	}
	return "?"
}

// IsInstanceOf walks val's class chain looking for target, which is
// the dynamic dispatch the `is` operator needs.
func (v *VM) IsInstanceOf(val Value, target *ObjClass) bool {
	class := v.ClassOf(val)
	for class != nil {
		if class == target {
			return true
		}
		class = class.Superclass
	}
	return false
}

// ClassOf returns val's runtime class, covering the value kinds that
// are not heap objects (null, bool, number) directly from the VM's
// bootstrapped core classes.
func (v *VM) ClassOf(val Value) *ObjClass {
	switch {
	case val.IsNull():
		return v.nullClass
	case val.IsBool():
		return v.boolClass
	case val.IsNumber():
		return v.numberClass
	case val.IsObj():
		return val.AsObj().Header().Class()
	}
	return nil
}
