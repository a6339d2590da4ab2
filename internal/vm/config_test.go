package vm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileConfigApplyOverridesOnlyNonZero(t *testing.T) {
	base := Config{InitialHeapSize: 1, MinHeapSize: 2, HeapGrowPercent: 3, MaxStackSlots: 4}
	fc := FileConfig{Heap: heapConfig{InitialBytes: 100}}
	merged := fc.Apply(base)
	if merged.InitialHeapSize != 100 {
		t.Fatalf("InitialHeapSize = %d, want 100", merged.InitialHeapSize)
	}
	if merged.MinHeapSize != 2 || merged.HeapGrowPercent != 3 || merged.MaxStackSlots != 4 {
		t.Fatal("unset fields in the file config must leave base's values untouched")
	}
}

func TestLoadFileConfigParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.toml")
	contents := `
[heap]
initial_bytes = 2097152
min_bytes = 1048576
grow_percent = 200

[fiber]
max_stack_slots = 2048
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig returned an error: %v", err)
	}
	if fc.Heap.InitialBytes != 2097152 || fc.Heap.MinBytes != 1048576 || fc.Heap.GrowPercent != 200 {
		t.Fatalf("heap config mismatch: %+v", fc.Heap)
	}
	if fc.Fiber.MaxStackSlots != 2048 {
		t.Fatalf("fiber config mismatch: %+v", fc.Fiber)
	}
}

func TestLoadFileConfigMissingTablesAreZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.toml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig returned an error: %v", err)
	}
	if fc.Heap.InitialBytes != 0 || fc.Fiber.MaxStackSlots != 0 {
		t.Fatal("an ember.toml with no [heap]/[fiber] tables must leave zero values for setDefaults to fill in")
	}
}
