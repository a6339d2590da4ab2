//go:build !nanbox

package vm

// Value is the portable tagged-union build selected by default. The
// nanbox build (value_nanbox.go, behind the "nanbox" build tag)
// provides the same API over a packed 64-bit representation; callers
// never need to know which one is active.
type Value struct {
	kind valueKind
	b    bool
	n    float64
	o    object
}

type valueKind uint8

const (
	vkNull valueKind = iota
	vkBool
	vkNumber
	vkObj
	vkUndefined
)

func NullVal() Value          { return Value{kind: vkNull} }
func BoolVal(b bool) Value    { return Value{kind: vkBool, b: b} }
func NumberVal(n float64) Value { return Value{kind: vkNumber, n: n} }
func ObjVal(o object) Value {
	if o == nil {
		return NullVal()
	}
	return Value{kind: vkObj, o: o}
}

// UndefinedVal is an internal-only sentinel distinct from NullVal used
// by Map to mark empty/tombstone slots. It is never constructible from
// script code and Map never hands it back to a caller.
func UndefinedVal() Value { return Value{kind: vkUndefined} }

func (v Value) IsNull() bool      { return v.kind == vkNull }
func (v Value) IsBool() bool      { return v.kind == vkBool }
func (v Value) IsNumber() bool    { return v.kind == vkNumber }
func (v Value) IsObj() bool       { return v.kind == vkObj }
func (v Value) IsUndefined() bool { return v.kind == vkUndefined }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.n }
func (v Value) AsObj() object    { return v.o }

// ObjKind reports the underlying object's Kind, or false if v is not
// an object reference.
func (v Value) ObjKind() (Kind, bool) {
	if v.kind != vkObj {
		return 0, false
	}
	return v.o.Header().Kind(), true
}
