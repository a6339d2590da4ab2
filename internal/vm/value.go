package vm

import "math"

// TrueVal and FalseVal are convenience wrappers over BoolVal, mirroring
// the named singletons the spec calls out.
func TrueVal() Value  { return BoolVal(true) }
func FalseVal() Value { return BoolVal(false) }

// IsTruthy reports whether v is script-truthy: only false and null are
// falsey, everything else (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	if v.IsNull() {
		return false
	}
	if v.IsBool() {
		return v.AsBool()
	}
	return true
}

// ValuesSame is bitwise/identity equality: numbers compare by IEEE-754
// equality (so NaN != NaN), objects compare by identity.
func ValuesSame(a, b Value) bool {
	switch {
	case a.IsNull():
		return b.IsNull()
	case a.IsBool():
		return b.IsBool() && a.AsBool() == b.AsBool()
	case a.IsNumber():
		return b.IsNumber() && a.AsNumber() == b.AsNumber()
	case a.IsObj():
		if !b.IsObj() {
			return false
		}
		ak, _ := a.ObjKind()
		bk, _ := b.ObjKind()
		if ak != bk {
			return false
		}
		return a.AsObj().Header() == b.AsObj().Header()
	default:
		return false
	}
}

// ValuesEqual is ValuesSame plus structural fallback for strings
// (length+hash+bytes) and ranges (tuple equality).
func ValuesEqual(a, b Value) bool {
	if ValuesSame(a, b) {
		return true
	}
	if a.IsObj() && b.IsObj() {
		ak, _ := a.ObjKind()
		bk, _ := b.ObjKind()
		if ak != bk {
			return false
		}
		switch ak {
		case KindString:
			as := a.AsObj().(*ObjString)
			bs := b.AsObj().(*ObjString)
			return as.hash == bs.hash && as.value == bs.value
		case KindRange:
			ar := a.AsObj().(*ObjRange)
			br := b.AsObj().(*ObjRange)
			return ar.from == br.from && ar.to == br.to && ar.inclusive == br.inclusive
		}
	}
	return false
}

const (
	hashNull  uint32 = 0x00000001
	hashTrue  uint32 = 0x00000002
	hashFalse uint32 = 0x00000003
)

// HashValue computes the hash used by Map. Fibers hash by id; every
// other object type besides String, Class, Range is unhashable and
// this is a programmer error (fatal, like indexing a map with a list
// in the scripting surface).
func HashValue(v Value) uint32 {
	switch {
	case v.IsNull():
		return hashNull
	case v.IsBool():
		if v.AsBool() {
			return hashTrue
		}
		return hashFalse
	case v.IsNumber():
		return hashNumber(v.AsNumber())
	case v.IsObj():
		kind, _ := v.ObjKind()
		switch kind {
		case KindString:
			return v.AsObj().(*ObjString).hash
		case KindClass:
			return v.AsObj().(*ObjClass).Name.hash
		case KindRange:
			r := v.AsObj().(*ObjRange)
			return hashNumber(r.from) ^ hashNumber(r.to)
		case KindFiber:
			return uint32(v.AsObj().(*ObjFiber).ID)
		default:
			panic("vm: value of type " + kind.String() + " is not hashable")
		}
	}
	panic("vm: unhashable value")
}

func hashNumber(n float64) uint32 {
	bits := math.Float64bits(n)
	return uint32(bits) ^ uint32(bits>>32)
}

// TypeName reports the runtime type name of v, used by diagnostics and
// by the "type mismatch" family of runtime errors.
func TypeName(v Value) string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsBool():
		return "bool"
	case v.IsNumber():
		return "num"
	case v.IsObj():
		kind, _ := v.ObjKind()
		return kind.String()
	}
	return "unknown"
}
