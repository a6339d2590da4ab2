package vm

import "testing"

func TestMapSetGetRoundTrip(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	key := ObjVal(NewString(v, "k"))
	val := NumberVal(42)
	m.Set(v, key, val)
	got, ok := m.Get(key)
	if !ok {
		t.Fatal("expected key to be present after Set")
	}
	if !ValuesEqual(got, val) {
		t.Fatalf("got %v, want %v", got, val)
	}
}

func TestMapRemoveKeyThenGetFails(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	key := NumberVal(7)
	m.Set(v, key, TrueVal())
	if _, ok := m.Delete(key); !ok {
		t.Fatal("Delete should report success for a present key")
	}
	if _, ok := m.Get(key); ok {
		t.Fatal("Get after Delete must fail")
	}
}

func TestMapLastWriterWins(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	key := NumberVal(1)
	m.Set(v, key, NumberVal(1))
	m.Set(v, key, NumberVal(2))
	got, ok := m.Get(key)
	if !ok || got.AsNumber() != 2 {
		t.Fatalf("expected last write (2) to win, got %v ok=%v", got, ok)
	}
	if m.Count() != 1 {
		t.Fatalf("re-setting the same key must not grow count, got %d", m.Count())
	}
}

func TestMapNullKeyIsNotConfusedWithEmptySlot(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	m.Set(v, NullVal(), FalseVal())
	got, ok := m.Get(NullVal())
	if !ok {
		t.Fatal("null must be usable as a real map key mapped to false")
	}
	if !ValuesSame(got, FalseVal()) {
		t.Fatalf("got %v, want false", got)
	}
	if m.Count() != 1 {
		t.Fatalf("count should be 1, got %d", m.Count())
	}
}

func TestMapGrowthThrough16_32_64(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	const n = 64
	for i := 0; i < n; i++ {
		m.Set(v, NumberVal(float64(i)), NumberVal(float64(i*10)))
	}
	for i := 0; i < n; i++ {
		got, ok := m.Get(NumberVal(float64(i)))
		if !ok {
			t.Fatalf("key %d missing after growing through resizes", i)
		}
		if got.AsNumber() != float64(i*10) {
			t.Fatalf("key %d = %v, want %v", i, got, i*10)
		}
	}
	if m.Count() != n {
		t.Fatalf("count = %d, want %d", m.Count(), n)
	}
}

func TestMapLoadFactorCeiling(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	for i := 0; i < 100; i++ {
		m.Set(v, NumberVal(float64(i)), NullVal())
		if float64(m.Count()) > float64(len(m.entries))*0.75 {
			t.Fatalf("load factor ceiling exceeded: count=%d capacity=%d", m.Count(), len(m.entries))
		}
	}
}

func TestMapInsertDeleteInsertReusesTombstone(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	// A second live key keeps the table allocated across the delete;
	// deleting a map's only key frees its table outright.
	m.Set(v, ObjVal(NewString(v, "keep")), NumberVal(0))
	key := ObjVal(NewString(v, "reuse"))
	m.Set(v, key, NumberVal(1))
	before := len(m.entries)
	slot, _ := findEntry(m.entries, key)
	m.Delete(key)
	m.Set(v, key, NumberVal(2))
	after := len(m.entries)
	if after != before {
		t.Fatalf("re-inserting after a delete should reuse the tombstone slot, not resize: before=%d after=%d", before, after)
	}
	if reused, _ := findEntry(m.entries, key); reused != slot {
		t.Fatalf("re-inserted key landed in slot %d, want its tombstoned slot %d", reused, slot)
	}
	got, ok := m.Get(key)
	if !ok || got.AsNumber() != 2 {
		t.Fatalf("expected the reinserted value 2, got %v ok=%v", got, ok)
	}
}

// TestMapTombstoneDoesNotOrphanLaterKey exercises the "remember first
// tombstone, keep probing" rule from §4.4: deleting a key earlier in a
// probe chain must not hide a later key that collided into the same
// chain.
func TestMapTombstoneDoesNotOrphanLaterKey(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	m.resize(minCapacity)
	capn := len(m.entries)

	// Find two distinct numeric keys that collide on the same initial
	// probe slot.
	var a, b float64 = -1, -1
	seen := map[int]float64{}
	for k := float64(0); k < 4096 && (a < 0 || b < 0); k++ {
		idx := int(HashValue(NumberVal(k))) % capn
		if prior, ok := seen[idx]; ok {
			a, b = prior, k
			break
		}
		seen[idx] = k
	}
	if a < 0 {
		t.Skip("no colliding pair found in search range")
	}

	m.Set(v, NumberVal(a), NumberVal(100))
	m.Set(v, NumberVal(b), NumberVal(200))

	m.Delete(NumberVal(a))

	got, ok := m.Get(NumberVal(b))
	if !ok {
		t.Fatal("deleting the earlier colliding key must not orphan the later one")
	}
	if got.AsNumber() != 200 {
		t.Fatalf("got %v, want 200", got)
	}
}

func TestMapEndToEndEvenOddScenario(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	for i := 0; i < 100; i++ {
		m.Set(v, NumberVal(float64(i)), NumberVal(float64(i)))
	}
	for i := 0; i < 100; i += 2 {
		m.Delete(NumberVal(float64(i)))
	}
	for i := 100; i < 150; i++ {
		m.Set(v, NumberVal(float64(i)), NumberVal(float64(i)))
	}
	for k := 1; k < 100; k += 2 {
		if _, ok := m.Get(NumberVal(float64(k))); !ok {
			t.Fatalf("odd key %d should still be present", k)
		}
	}
	for k := 100; k < 150; k++ {
		if _, ok := m.Get(NumberVal(float64(k))); !ok {
			t.Fatalf("key %d should be present", k)
		}
	}
	for k := 0; k < 100; k += 2 {
		if _, ok := m.Get(NumberVal(float64(k))); ok {
			t.Fatalf("even key %d should have been deleted", k)
		}
	}
}

func TestMapShrinkNeverBelowMinCapacity(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	for i := 0; i < 40; i++ {
		m.Set(v, NumberVal(float64(i)), NullVal())
	}
	for i := 0; i < 39; i++ {
		m.Delete(NumberVal(float64(i)))
	}
	if len(m.entries) != 0 && len(m.entries) < minCapacity {
		t.Fatalf("map capacity must never sit between 0 and minCapacity, got %d", len(m.entries))
	}
}

func TestMapDeleteToEmptyFreesTable(t *testing.T) {
	v := NewVM(Config{})
	m := NewMap(v)
	m.Set(v, NumberVal(1), NumberVal(1))
	m.Delete(NumberVal(1))
	if m.entries != nil {
		t.Fatalf("deleting the last key should free the table entirely, got len=%d", len(m.entries))
	}
	if m.Count() != 0 {
		t.Fatalf("count after emptying should be 0, got %d", m.Count())
	}
}
