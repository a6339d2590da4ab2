package vm

import "github.com/vmihailenco/msgpack/v5"

// HeapObjectSummary is one entry in a DumpHeap snapshot: enough to see
// what's live and which class it belongs to, not a full structural
// dump — reconstructing cross-references would mean serializing
// pointer identity, which a debug snapshot has no use for.
type HeapObjectSummary struct {
	Kind      string
	ClassName string
}

// HeapSnapshot is DumpHeap's result: object counts by kind plus the
// allocator's live-byte estimate.
type HeapSnapshot struct {
	BytesAllocated int64
	ObjectsByKind  map[string]int
	Objects        []HeapObjectSummary
}

// DumpHeap walks the intrusive all-objects list and snapshots it,
// exercised by `ember run --dump-heap`. Grounded on the teacher's own
// msgpack-based serialization idiom (internal/driver.DiskCache) — here
// used for an in-memory inspection aid rather than a disk cache.
func (v *VM) DumpHeap() *HeapSnapshot {
	snap := &HeapSnapshot{
		BytesAllocated: v.BytesAllocated(),
		ObjectsByKind:  make(map[string]int),
	}
	for o := v.firstObject; o != nil; o = o.next {
		kind := o.Kind().String()
		snap.ObjectsByKind[kind]++
		className := ""
		if o.Class() != nil && o.Class().Name != nil {
			className = o.Class().Name.Value()
		}
		snap.Objects = append(snap.Objects, HeapObjectSummary{Kind: kind, ClassName: className})
	}
	return snap
}

// MarshalHeapSnapshot msgpack-encodes a DumpHeap result, the format
// `ember run --dump-heap <path>` writes to that path.
func MarshalHeapSnapshot(snap *HeapSnapshot) ([]byte, error) {
	return msgpack.Marshal(snap)
}
