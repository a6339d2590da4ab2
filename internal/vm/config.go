package vm

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// FileConfig is the shape of an optional ember.toml project manifest,
// overriding a subset of Config's allocator/stack tuning knobs. It
// exists so embedders and the CLI share one source of truth for VM
// tuning instead of hardcoding numbers in cmd/ember.
type FileConfig struct {
	Heap  heapConfig  `toml:"heap"`
	Fiber fiberConfig `toml:"fiber"`
}

type heapConfig struct {
	InitialBytes int64 `toml:"initial_bytes"`
	MinBytes     int64 `toml:"min_bytes"`
	GrowPercent  int64 `toml:"grow_percent"`
}

type fiberConfig struct {
	MaxStackSlots int `toml:"max_stack_slots"`
}

// LoadFileConfig parses an ember.toml at path into a FileConfig. A
// missing [heap] or [fiber] table is fine; NewVM fills in anything
// left zero (Config.setDefaults the stack size, newAllocator the heap
// sizes).
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return fc, nil
}

// Apply overlays the file config onto base, returning the merged
// Config. Zero fields in fc leave base's value untouched.
func (fc FileConfig) Apply(base Config) Config {
	if fc.Heap.InitialBytes > 0 {
		base.InitialHeapSize = fc.Heap.InitialBytes
	}
	if fc.Heap.MinBytes > 0 {
		base.MinHeapSize = fc.Heap.MinBytes
	}
	if fc.Heap.GrowPercent > 0 {
		base.HeapGrowPercent = fc.Heap.GrowPercent
	}
	if fc.Fiber.MaxStackSlots > 0 {
		base.MaxStackSlots = fc.Fiber.MaxStackSlots
	}
	return base
}
