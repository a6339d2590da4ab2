package vm

import "testing"

func TestBufferGrowthDoublesFromMinCapacity(t *testing.T) {
	var b Buffer[int]
	if b.Cap() != 0 {
		t.Fatalf("fresh buffer must start at capacity 0, got %d", b.Cap())
	}
	b.Write(1)
	if b.Cap() != minCapacity {
		t.Fatalf("first write must grow to minCapacity=%d, got %d", minCapacity, b.Cap())
	}
	for i := 0; i < minCapacity-1; i++ {
		b.Write(i)
	}
	if b.Cap() != minCapacity {
		t.Fatalf("capacity should still be %d after filling it exactly, got %d", minCapacity, b.Cap())
	}
	b.Write(999)
	if b.Cap() != minCapacity*2 {
		t.Fatalf("capacity must double past minCapacity, got %d", b.Cap())
	}
}

func TestBufferFill(t *testing.T) {
	var b Buffer[int]
	b.Fill(7, 5)
	if b.Len() != 5 {
		t.Fatalf("Fill(7, 5) should produce length 5, got %d", b.Len())
	}
	for i := 0; i < 5; i++ {
		if b.At(i) != 7 {
			t.Fatalf("Fill element %d = %d, want 7", i, b.At(i))
		}
	}
}

func TestBufferClear(t *testing.T) {
	var b Buffer[int]
	b.Write(1)
	b.Write(2)
	b.Clear()
	if b.Len() != 0 || b.Cap() != 0 {
		t.Fatalf("Clear must reset length and capacity to 0, got len=%d cap=%d", b.Len(), b.Cap())
	}
}

func TestBufferShrinkTo(t *testing.T) {
	var b Buffer[int]
	for i := 0; i < 20; i++ {
		b.Write(i)
	}
	b.ShrinkTo(8)
	if b.Cap() != 8 {
		t.Fatalf("ShrinkTo(8) should leave capacity 8, got %d", b.Cap())
	}
	if b.Len() != 8 {
		t.Fatalf("ShrinkTo(8) should truncate length to 8, got %d", b.Len())
	}
	for i := 0; i < 8; i++ {
		if b.At(i) != i {
			t.Fatalf("ShrinkTo must keep the first elements, at %d got %d", i, b.At(i))
		}
	}
}

func TestListInsertAtBoundaries(t *testing.T) {
	v := NewVM(Config{})
	l := NewList(v)
	l.Append(v, NumberVal(1))
	l.Append(v, NumberVal(2))
	l.Append(v, NumberVal(3))

	l.Insert(v, NumberVal(0), 0)
	if l.Get(0).AsNumber() != 0 {
		t.Fatalf("insert at index 0 failed: got %v", l.Get(0))
	}
	if l.Len() != 4 {
		t.Fatalf("expected length 4 after insert, got %d", l.Len())
	}

	l.Insert(v, NumberVal(99), l.Len())
	if l.Get(l.Len()-1).AsNumber() != 99 {
		t.Fatalf("insert at count (append via insert) failed: got %v", l.Get(l.Len()-1))
	}

	want := []float64{0, 1, 2, 3, 99}
	for i, w := range want {
		if l.Get(i).AsNumber() != w {
			t.Fatalf("index %d = %v, want %v", i, l.Get(i), w)
		}
	}
}

func TestListRemoveAtShrinksCapacityByHalf(t *testing.T) {
	v := NewVM(Config{})
	l := NewList(v)
	for i := 0; i < minCapacity*2; i++ {
		l.Append(v, NumberVal(float64(i)))
	}
	startCap := l.elems.Cap()
	for l.Len() > minCapacity {
		l.RemoveAt(l.Len() - 1)
	}
	if l.elems.Cap() >= startCap {
		t.Fatalf("removing elements down to minCapacity should have shrunk capacity from %d, got %d", startCap, l.elems.Cap())
	}
	if l.elems.Cap() < minCapacity {
		t.Fatalf("capacity must never drop below minCapacity=%d, got %d", minCapacity, l.elems.Cap())
	}
}

func TestListRemoveAtPreservesOrder(t *testing.T) {
	v := NewVM(Config{})
	l := NewList(v)
	for i := 0; i < 5; i++ {
		l.Append(v, NumberVal(float64(i)))
	}
	removed := l.RemoveAt(2)
	if removed.AsNumber() != 2 {
		t.Fatalf("RemoveAt(2) should return the removed value 2, got %v", removed)
	}
	want := []float64{0, 1, 3, 4}
	if l.Len() != len(want) {
		t.Fatalf("length after remove = %d, want %d", l.Len(), len(want))
	}
	for i, w := range want {
		if l.Get(i).AsNumber() != w {
			t.Fatalf("index %d = %v, want %v", i, l.Get(i), w)
		}
	}
}

func TestListIndexFromValueNegative(t *testing.T) {
	v := NewVM(Config{})
	l := NewList(v)
	for i := 0; i < 5; i++ {
		l.Append(v, NumberVal(float64(i)))
	}
	if got := l.IndexFromValue(NumberVal(-1)); got != 4 {
		t.Fatalf("index -1 should map to last element (4), got %d", got)
	}
	if got := l.IndexFromValue(NumberVal(-5)); got != 0 {
		t.Fatalf("index -5 should map to first element (0), got %d", got)
	}
	if got := l.IndexFromValue(NumberVal(-6)); got != -1 {
		t.Fatalf("index -6 is out of range, want -1, got %d", got)
	}
	if got := l.IndexFromValue(NumberVal(5)); got != -1 {
		t.Fatalf("index 5 (== count) is out of range, want -1, got %d", got)
	}
}
