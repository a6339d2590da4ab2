package vm

// SymbolTable is an ordered list of distinct names; Ensure returns the
// existing index or appends. Lookup is linear scan — acceptable per
// §3, since modules and method symbols are small. Deletion is not
// supported.
type SymbolTable struct {
	names []string
}

// Ensure returns the index of name, appending it if it is not already
// present.
func (t *SymbolTable) Ensure(name string) int {
	if i := t.Find(name); i >= 0 {
		return i
	}
	t.names = append(t.names, name)
	return len(t.names) - 1
}

// Find returns the index of name, or -1 if it is not present.
func (t *SymbolTable) Find(name string) int {
	for i, n := range t.names {
		if n == name {
			return i
		}
	}
	return -1
}

func (t *SymbolTable) NameAt(i int) string {
	if i < 0 || i >= len(t.names) {
		return ""
	}
	return t.names[i]
}

func (t *SymbolTable) Len() int { return len(t.names) }

// Clear drops every name. Named "Clear" rather than "Free" because Go
// has no owned buffer to release by hand; the reference frees each
// owned name buffer before freeing the table itself.
func (t *SymbolTable) Clear() { t.names = nil }
