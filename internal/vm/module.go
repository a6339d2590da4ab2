package vm

// ObjModule is a top-level variable name table and value buffer: the
// symbol table orders declaration, `variables` holds one Value per
// name in parallel. A slot that has been referenced but not yet
// defined holds the numeric sentinel equal to its declaration line
// number (DeclareUndefined stores it and IsUndefined tests for it).
type ObjModule struct {
	Obj
	Name          *ObjString // nil for the implicit main module
	VariableNames SymbolTable
	Variables     []Value
}

func (m *ObjModule) trace(gc *gcState) {
	if m.Name != nil {
		gc.markObject(m.Name)
	}
	for _, v := range m.Variables {
		gc.markValue(v)
	}
}

func NewModule(v *VM, name *ObjString) *ObjModule {
	m := &ObjModule{Name: name}
	initObj(&m.Obj, KindModule, nil)
	v.registerObject(&m.Obj, 48)
	return m
}

// DeclareUndefined records that `name` was referenced on `line` before
// being defined, storing the sentinel NumberVal(line) so a later
// forward-reference check can report the original declaration line.
func (m *ObjModule) DeclareUndefined(name string, line int) int {
	sym := m.VariableNames.Ensure(name)
	for len(m.Variables) <= sym {
		m.Variables = append(m.Variables, NullVal())
	}
	if sym == len(m.Variables)-1 {
		m.Variables[sym] = NumberVal(float64(line))
	}
	return sym
}

// Define binds name to value, returning its symbol. If the slot held
// the "undefined, declared on line N" sentinel, it is resolved.
func (m *ObjModule) Define(name string, value Value) int {
	sym := m.VariableNames.Ensure(name)
	for len(m.Variables) <= sym {
		m.Variables = append(m.Variables, NullVal())
	}
	m.Variables[sym] = value
	return sym
}

func (m *ObjModule) IsUndefined(sym int) bool {
	return sym >= 0 && sym < len(m.Variables) && m.Variables[sym].IsNumber()
}

func (m *ObjModule) VariableAt(sym int) Value {
	if sym < 0 || sym >= len(m.Variables) {
		return NullVal()
	}
	return m.Variables[sym]
}
