package vm

import "testing"

func TestSymbolTableEnsureIsIdempotent(t *testing.T) {
	var t1 SymbolTable
	a := t1.Ensure("foo")
	b := t1.Ensure("bar")
	c := t1.Ensure("foo")
	if a != c {
		t.Fatalf("Ensure must return the same index for a repeated name: %d vs %d", a, c)
	}
	if a == b {
		t.Fatal("distinct names must get distinct indices")
	}
	if t1.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", t1.Len())
	}
}

func TestSymbolTableFindMissing(t *testing.T) {
	var t1 SymbolTable
	t1.Ensure("foo")
	if got := t1.Find("bar"); got != -1 {
		t.Fatalf("Find for a missing name should return -1, got %d", got)
	}
}

func TestSymbolTableNameAtRoundTrip(t *testing.T) {
	var t1 SymbolTable
	idx := t1.Ensure("hello")
	if got := t1.NameAt(idx); got != "hello" {
		t.Fatalf("NameAt(%d) = %q, want %q", idx, got, "hello")
	}
	if got := t1.NameAt(99); got != "" {
		t.Fatalf("NameAt out of range should return empty, got %q", got)
	}
}

func TestModuleDeclareUndefinedThenDefine(t *testing.T) {
	v := NewVM(Config{})
	m := NewModule(v, NewString(v, "main"))
	sym := m.DeclareUndefined("x", 7)
	if !m.IsUndefined(sym) {
		t.Fatal("a declared-but-not-defined slot must report IsUndefined")
	}
	if m.VariableAt(sym).AsNumber() != 7 {
		t.Fatalf("undefined slot should hold its declaration line as a sentinel, got %v", m.VariableAt(sym))
	}
	m.Define("x", NumberVal(42))
	if m.IsUndefined(sym) {
		t.Fatal("defining the variable must clear the undefined sentinel")
	}
	if m.VariableAt(sym).AsNumber() != 42 {
		t.Fatalf("VariableAt after Define = %v, want 42", m.VariableAt(sym))
	}
}

func TestModuleDefineReusesExistingSymbol(t *testing.T) {
	v := NewVM(Config{})
	m := NewModule(v, NewString(v, "main"))
	sym1 := m.Define("y", NumberVal(1))
	sym2 := m.Define("y", NumberVal(2))
	if sym1 != sym2 {
		t.Fatal("redefining the same top-level name must reuse its symbol")
	}
	if m.VariableAt(sym1).AsNumber() != 2 {
		t.Fatal("the second Define must overwrite the value")
	}
}
