package vm

// mapEntry is a single slot in the open-addressed table. A slot is
// empty when key.IsUndefined() && value is FalseVal; tombstone when
// key.IsUndefined() && value is TrueVal; otherwise occupied.
type mapEntry struct {
	key   Value
	value Value
}

// ObjMap is an open-addressed hash table from Value to Value with
// tombstones, load factor ceiling 75%, growing by x2 and shrinking by
// /2 (never below capacity 16).
type ObjMap struct {
	Obj
	entries []mapEntry
	count   int // occupied entries, excluding tombstones
}

func (m *ObjMap) trace(gc *gcState) {
	for _, e := range m.entries {
		if isEmptySlot(e) || isTombstone(e) {
			continue
		}
		gc.markValue(e.key)
		gc.markValue(e.value)
	}
}

func mapObjSize(cap int) int64 { return int64(24 + cap*32) }

func NewMap(v *VM) *ObjMap {
	m := &ObjMap{}
	initObj(&m.Obj, KindMap, v.mapClass)
	v.registerObject(&m.Obj, mapObjSize(0))
	return m
}

// undefinedVal is the sentinel used for empty/tombstone keys. It is
// never visible to script code: Get/Set/Delete never hand it back.
// It is a distinct Value kind from null so that a map may legitimately
// hold null as a key without colliding with the empty-slot marker.
func undefinedVal() Value { return UndefinedVal() }

func isEmptySlot(e mapEntry) bool {
	return e.key.IsUndefined() && !IsTruthy(e.value)
}

func isTombstone(e mapEntry) bool {
	return e.key.IsUndefined() && IsTruthy(e.value)
}

func (m *ObjMap) Count() int { return m.count }

// findEntry linearly probes from hash(key) mod capacity. It stops on
// empty, skips tombstones, and succeeds on key equality — §4.4.
func findEntry(entries []mapEntry, key Value) (int, bool) {
	if len(entries) == 0 {
		return -1, false
	}
	capn := len(entries)
	idx := int(HashValue(key)) % capn
	for {
		e := entries[idx]
		if isEmptySlot(e) {
			return -1, false
		}
		if !isTombstone(e) && ValuesEqual(e.key, key) {
			return idx, true
		}
		idx = (idx + 1) % capn
	}
}

// addEntry inserts into a sized table per the "remember first
// tombstone, keep probing" rule §4.4 requires: probing continues past
// a remembered tombstone until the key is found (update in place) or
// an empty slot is seen (insert, reusing the tombstone if one was
// seen). Returns whether a new key was added.
func addEntry(entries []mapEntry, key Value, value Value) bool {
	capn := len(entries)
	idx := int(HashValue(key)) % capn
	tombstone := -1
	for {
		e := entries[idx]
		if isEmptySlot(e) {
			target := idx
			if tombstone != -1 {
				target = tombstone
			}
			entries[target] = mapEntry{key: key, value: value}
			return true
		}
		if isTombstone(e) {
			if tombstone == -1 {
				tombstone = idx
			}
		} else if ValuesEqual(e.key, key) {
			entries[idx] = mapEntry{key: key, value: value}
			return false
		}
		idx = (idx + 1) % capn
	}
}

func (m *ObjMap) resize(newCap int) {
	fresh := make([]mapEntry, newCap)
	for i := range fresh {
		fresh[i] = mapEntry{key: undefinedVal(), value: FalseVal()}
	}
	for _, e := range m.entries {
		if isEmptySlot(e) || isTombstone(e) {
			continue
		}
		addEntry(fresh, e.key, e.value)
	}
	m.entries = fresh
}

// Set inserts or updates key -> value, growing the table first if the
// post-insert load factor would exceed 75%.
func (m *ObjMap) Set(v *VM, key, value Value) {
	v.pushRoot(key)
	v.pushRoot(value)
	if len(m.entries) == 0 {
		m.resize(minCapacity)
	} else if (m.count+1)*4 > len(m.entries)*3 {
		m.resize(len(m.entries) * 2)
	}
	if addEntry(m.entries, key, value) {
		m.count++
	}
	v.popRoot()
	v.popRoot()
}

// Get returns the value for key and whether it was present.
func (m *ObjMap) Get(key Value) (Value, bool) {
	idx, ok := findEntry(m.entries, key)
	if !ok {
		return NullVal(), false
	}
	return m.entries[idx].value, true
}

func (m *ObjMap) ContainsKey(key Value) bool {
	_, ok := findEntry(m.entries, key)
	return ok
}

// Delete removes key, turning its slot into a tombstone. If count
// reaches 0 the table is freed entirely; otherwise it shrinks once the
// post-remove count falls below (capacity/2) x 75%, never below 16.
func (m *ObjMap) Delete(key Value) (Value, bool) {
	idx, ok := findEntry(m.entries, key)
	if !ok {
		return NullVal(), false
	}
	removed := m.entries[idx].value
	m.entries[idx] = mapEntry{key: undefinedVal(), value: TrueVal()}
	m.count--
	if m.count == 0 {
		m.entries = nil
	} else if half := len(m.entries) / 2; half >= minCapacity && m.count < (half*3)/4 {
		m.resize(half)
	}
	return removed, true
}

// Each calls fn for every occupied entry, in table order.
func (m *ObjMap) Each(fn func(key, value Value)) {
	for _, e := range m.entries {
		if isEmptySlot(e) || isTombstone(e) {
			continue
		}
		fn(e.key, e.value)
	}
}
