package vm

import "math"

// numArg extracts args[i] as a float64, failing the fiber if it is
// not a Num — the "type mismatch" runtime error family from §7.
func numArg(vm *VM, recv Value, args []Value, i int) (float64, bool) {
	if !args[i].IsNumber() {
		vm.current.Fail(vm, "argument must be a num")
		return 0, false
	}
	return args[i].AsNumber(), true
}

func (v *VM) bindNumberPrimitives() {
	c := v.numberClass
	binOp := func(selector string, fn func(vm *VM, a, b float64) Value) {
		v.bindPrimitive(c, selector, func(vm *VM, recv Value, args []Value) (Value, bool) {
			b, ok := numArg(vm, recv, args, 0)
			if !ok {
				return NullVal(), false
			}
			return fn(vm, recv.AsNumber(), b), true
		})
	}
	binOp("+(_)", func(vm *VM, a, b float64) Value { return NumberVal(a + b) })
	binOp("-(_)", func(vm *VM, a, b float64) Value { return NumberVal(a - b) })
	binOp("*(_)", func(vm *VM, a, b float64) Value { return NumberVal(a * b) })
	binOp("/(_)", func(vm *VM, a, b float64) Value { return NumberVal(a / b) })
	binOp("%(_)", func(vm *VM, a, b float64) Value { return NumberVal(math.Mod(a, b)) })
	binOp("<(_)", func(vm *VM, a, b float64) Value { return BoolVal(a < b) })
	binOp(">(_)", func(vm *VM, a, b float64) Value { return BoolVal(a > b) })
	binOp("<=(_)", func(vm *VM, a, b float64) Value { return BoolVal(a <= b) })
	binOp(">=(_)", func(vm *VM, a, b float64) Value { return BoolVal(a >= b) })
	binOp("..(_)", func(vm *VM, a, b float64) Value { return ObjVal(NewRange(vm, a, b, true)) })
	binOp("...(_)", func(vm *VM, a, b float64) Value { return ObjVal(NewRange(vm, a, b, false)) })

	v.bindPrimitive(c, "-", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(-recv.AsNumber()), true
	})
	v.bindPrimitive(c, "abs", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(math.Abs(recv.AsNumber())), true
	})
	v.bindPrimitive(c, "sqrt", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(math.Sqrt(recv.AsNumber())), true
	})
	v.bindPrimitive(c, "floor", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(math.Floor(recv.AsNumber())), true
	})
	v.bindPrimitive(c, "ceil", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(math.Ceil(recv.AsNumber())), true
	})
	v.bindPrimitive(c, "isNan", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return BoolVal(math.IsNaN(recv.AsNumber())), true
	})
	v.bindPrimitive(c, "toString", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return ObjVal(NewString(vm, NumToString(recv.AsNumber()))), true
	})
}

func (v *VM) bindStringPrimitives() {
	c := v.stringClass
	v.bindPrimitive(c, "+(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		other, ok := args[0].AsObj().(*ObjString)
		if !ok {
			vm.current.Fail(vm, "right operand must be a string")
			return NullVal(), false
		}
		return ObjVal(NewString(vm, recv.AsObj().(*ObjString).value+other.value)), true
	})
	v.bindPrimitive(c, "count", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(float64(recv.AsObj().(*ObjString).Len())), true
	})
	v.bindPrimitive(c, "toString", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return recv, true
	})
	v.bindPrimitive(c, "contains(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		needle, ok := args[0].AsObj().(*ObjString)
		if !ok {
			vm.current.Fail(vm, "argument must be a string")
			return NullVal(), false
		}
		s := recv.AsObj().(*ObjString)
		return BoolVal(Find(s.value, needle.value) != notFound), true
	})
	v.bindPrimitive(c, "[_]", func(vm *VM, recv Value, args []Value) (Value, bool) {
		s := recv.AsObj().(*ObjString)
		i, ok := numArg(vm, recv, args, 0)
		if !ok {
			return NullVal(), false
		}
		idx := int(i)
		if idx < 0 {
			idx += s.Len()
		}
		if idx < 0 || idx >= s.Len() {
			vm.current.Fail(vm, "string index out of bounds")
			return NullVal(), false
		}
		return ObjVal(CodePointAt(vm, s, idx)), true
	})
	v.bindPrimitive(c, "displayWidth", func(vm *VM, recv Value, args []Value) (Value, bool) {
		s := recv.AsObj().(*ObjString)
		return NumberVal(float64(DisplayWidth(s.value))), true
	})
}

func (v *VM) bindListPrimitives() {
	c := v.listClass
	v.bindPrimitive(c, "add(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		recv.AsObj().(*ObjList).Append(vm, args[0])
		return args[0], true
	})
	v.bindPrimitive(c, "insert(_,_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		l := recv.AsObj().(*ObjList)
		i := l.IndexFromValue(args[1])
		if i < 0 {
			i = l.Len()
		}
		l.Insert(vm, args[0], i)
		return args[0], true
	})
	v.bindPrimitive(c, "removeAt(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		l := recv.AsObj().(*ObjList)
		i := l.IndexFromValue(args[0])
		if i < 0 {
			vm.current.Fail(vm, "list index out of bounds")
			return NullVal(), false
		}
		return l.RemoveAt(i), true
	})
	v.bindPrimitive(c, "count", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(float64(recv.AsObj().(*ObjList).Len())), true
	})
	v.bindPrimitive(c, "[_]", func(vm *VM, recv Value, args []Value) (Value, bool) {
		l := recv.AsObj().(*ObjList)
		i := l.IndexFromValue(args[0])
		if i < 0 {
			vm.current.Fail(vm, "list index out of bounds")
			return NullVal(), false
		}
		return l.Get(i), true
	})
	v.bindPrimitive(c, "[_]=(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		l := recv.AsObj().(*ObjList)
		i := l.IndexFromValue(args[0])
		if i < 0 {
			vm.current.Fail(vm, "list index out of bounds")
			return NullVal(), false
		}
		l.Set(i, args[1])
		return args[1], true
	})
}

func (v *VM) bindMapPrimitives() {
	c := v.mapClass
	v.bindPrimitive(c, "[_]", func(vm *VM, recv Value, args []Value) (Value, bool) {
		val, ok := recv.AsObj().(*ObjMap).Get(args[0])
		if !ok {
			return NullVal(), true
		}
		return val, true
	})
	v.bindPrimitive(c, "[_]=(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		recv.AsObj().(*ObjMap).Set(vm, args[0], args[1])
		return args[1], true
	})
	v.bindPrimitive(c, "containsKey(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return BoolVal(recv.AsObj().(*ObjMap).ContainsKey(args[0])), true
	})
	v.bindPrimitive(c, "remove(_)", func(vm *VM, recv Value, args []Value) (Value, bool) {
		val, _ := recv.AsObj().(*ObjMap).Delete(args[0])
		return val, true
	})
	v.bindPrimitive(c, "count", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(float64(recv.AsObj().(*ObjMap).Count())), true
	})
}

func (v *VM) bindRangePrimitives() {
	c := v.rangeClass
	v.bindPrimitive(c, "from", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(recv.AsObj().(*ObjRange).From()), true
	})
	v.bindPrimitive(c, "to", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(recv.AsObj().(*ObjRange).To()), true
	})
	v.bindPrimitive(c, "isInclusive", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return BoolVal(recv.AsObj().(*ObjRange).Inclusive()), true
	})
	v.bindPrimitive(c, "count", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return NumberVal(float64(recv.AsObj().(*ObjRange).Len())), true
	})
	v.bindPrimitive(c, "toString", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return ObjVal(NewString(vm, ToString(vm, recv))), true
	})
}

func (v *VM) bindFiberPrimitives() {
	c := v.fiberClass
	v.bindPrimitive(c, "isDone", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return BoolVal(recv.AsObj().(*ObjFiber).state == fiberDone), true
	})
	v.bindPrimitive(c, "error", func(vm *VM, recv Value, args []Value) (Value, bool) {
		return recv.AsObj().(*ObjFiber).Error, true
	})

	// call/try transfer control to the receiver fiber instead of
	// returning a value inline (§4.9); internal/interp's execCall
	// special-cases MethodFiberTransfer rather than invoking a Go func.
	v.bindFiberTransfer(c, "call()", false)
	v.bindFiberTransfer(c, "call(_)", false)
	v.bindFiberTransfer(c, "try()", true)
	v.bindFiberTransfer(c, "try(_)", true)
}
