package vm

import (
	"math"
	"testing"
)

func TestTruthiness(t *testing.T) {
	falsey := []Value{NullVal(), FalseVal()}
	for _, v := range falsey {
		if IsTruthy(v) {
			t.Errorf("expected %v to be falsey", v)
		}
	}
	truthy := []Value{TrueVal(), NumberVal(0), NumberVal(1)}
	for _, v := range truthy {
		if !IsTruthy(v) {
			t.Errorf("expected %v to be truthy", v)
		}
	}
}

func TestValuesSameNaN(t *testing.T) {
	nan := NumberVal(math.NaN())
	if ValuesSame(nan, nan) {
		t.Fatal("NaN must not compare same as itself, per IEEE-754")
	}
}

func TestValuesSameSingletons(t *testing.T) {
	if !ValuesSame(NullVal(), NullVal()) {
		t.Fatal("null must be unique and self-same")
	}
	if !ValuesSame(TrueVal(), TrueVal()) || !ValuesSame(FalseVal(), FalseVal()) {
		t.Fatal("true/false must be self-same")
	}
	if ValuesSame(TrueVal(), FalseVal()) {
		t.Fatal("true and false must differ")
	}
	if ValuesSame(NullVal(), FalseVal()) {
		t.Fatal("null and false must not compare same")
	}
}

func TestValuesEqualStringStructural(t *testing.T) {
	v := NewVM(Config{})
	a := ObjVal(NewString(v, "hello"))
	b := ObjVal(NewString(v, "hello"))
	if ValuesSame(a, b) {
		t.Fatal("two distinct string objects should not be identity-same")
	}
	if !ValuesEqual(a, b) {
		t.Fatal("two strings with equal bytes must be ValuesEqual")
	}
	c := ObjVal(NewString(v, "world"))
	if ValuesEqual(a, c) {
		t.Fatal("strings with different bytes must not be equal")
	}
}

func TestValuesEqualRangeStructural(t *testing.T) {
	v := NewVM(Config{})
	r1 := ObjVal(NewRange(v, 1, 5, true))
	r2 := ObjVal(NewRange(v, 1, 5, true))
	r3 := ObjVal(NewRange(v, 1, 5, false))
	if !ValuesEqual(r1, r2) {
		t.Fatal("ranges with the same (from,to,inclusive) triple must be equal")
	}
	if ValuesEqual(r1, r3) {
		t.Fatal("ranges differing only in inclusivity must not be equal")
	}
}

func TestHashValueStableForStrings(t *testing.T) {
	v := NewVM(Config{})
	a := NewString(v, "abracadabra")
	b := NewString(v, "abracadabra")
	if HashValue(ObjVal(a)) != HashValue(ObjVal(b)) {
		t.Fatal("equal-content strings must hash the same")
	}
}

func TestHashValueNumberXOR(t *testing.T) {
	n := 3.14159
	bits := math.Float64bits(n)
	want := uint32(bits) ^ uint32(bits>>32)
	if got := HashValue(NumberVal(n)); got != want {
		t.Fatalf("hash(%v) = %x, want %x", n, got, want)
	}
}

func TestHashValueDistinctSingletons(t *testing.T) {
	hn := HashValue(NullVal())
	ht := HashValue(TrueVal())
	hf := HashValue(FalseVal())
	if hn == ht || hn == hf || ht == hf {
		t.Fatal("null/true/false must hash to distinct small constants")
	}
}

func TestHashValueUnhashablePanics(t *testing.T) {
	v := NewVM(Config{})
	l := ObjVal(NewList(v))
	defer func() {
		if recover() == nil {
			t.Fatal("hashing a list must panic (unhashable)")
		}
	}()
	HashValue(l)
}

func TestUndefinedDistinctFromNull(t *testing.T) {
	u := UndefinedVal()
	if !u.IsUndefined() {
		t.Fatal("UndefinedVal must report IsUndefined")
	}
	if u.IsNull() {
		t.Fatal("UndefinedVal must not be IsNull")
	}
	n := NullVal()
	if n.IsUndefined() {
		t.Fatal("NullVal must not be IsUndefined")
	}
}
