package vm

// ObjFunction is a compiled bytecode unit: it owns its bytecode,
// constant array, source line map, and debug name. The bytecode
// compiler (internal/compiler) is the only producer of these; the
// core only ever stores and marks them.
type ObjFunction struct {
	Obj
	Code        []byte
	Lines       []int // parallel to Code, source line per byte (operand bytes carry their instruction's line)
	Constants   []Value
	Arity       int
	NumUpvalues int
	Module      *ObjModule
	DebugName   string
	MaxSlots    int // largest local-variable slot count the compiler planned for
}

func (f *ObjFunction) trace(gc *gcState) {
	for _, c := range f.Constants {
		gc.markValue(c)
	}
	if f.Module != nil {
		gc.markObject(f.Module)
	}
}

func NewFunction(v *VM, module *ObjModule, debugName string) *ObjFunction {
	f := &ObjFunction{Module: module, DebugName: debugName}
	initObj(&f.Obj, KindFunction, v.functionClass)
	v.registerObject(&f.Obj, 64)
	return f
}

// LineFor returns the source line associated with the instruction at
// byte offset ip, or 0 if unknown.
func (f *ObjFunction) LineFor(ip int) int {
	if ip < 0 || ip >= len(f.Lines) {
		return 0
	}
	return f.Lines[ip]
}
