package vm

import "testing"

func TestAllocatorAccountingTracksLiveBytes(t *testing.T) {
	a := newAllocator(&VM{}, 1<<30, 1<<20, 150) // large nextGC so no GC fires
	a.vm = nil
	a.Account(100)
	if a.BytesAllocated() != 100 {
		t.Fatalf("bytesAllocated = %d, want 100", a.BytesAllocated())
	}
	a.Account(-40)
	if a.BytesAllocated() != 60 {
		t.Fatalf("bytesAllocated = %d, want 60", a.BytesAllocated())
	}
}

func TestAllocatorAfterCollectGrowthPolicy(t *testing.T) {
	a := newAllocator(&VM{}, 0, 1<<20, 150)
	a.bytesAllocated = 1000
	a.AfterCollect()
	want := int64(1000 * 150 / 100)
	if want < a.minHeapSize {
		want = a.minHeapSize
	}
	if a.nextGC != want {
		t.Fatalf("nextGC = %d, want %d", a.nextGC, want)
	}
}

func TestAllocatorAfterCollectNeverBelowMinHeap(t *testing.T) {
	a := newAllocator(&VM{}, 0, 1<<20, 150)
	a.bytesAllocated = 10
	a.AfterCollect()
	if a.nextGC != a.minHeapSize {
		t.Fatalf("nextGC = %d, want the min heap floor %d", a.nextGC, a.minHeapSize)
	}
}

func TestAllocatorPushPopRootBalance(t *testing.T) {
	a := newAllocator(&VM{}, 0, 0, 0)
	a.pushRoot(NumberVal(1))
	a.pushRoot(NumberVal(2))
	if len(a.roots) != 2 {
		t.Fatalf("expected 2 roots pushed, got %d", len(a.roots))
	}
	a.popRoot()
	if len(a.roots) != 1 {
		t.Fatalf("expected 1 root after one pop, got %d", len(a.roots))
	}
}

func TestAllocatorPopRootWithoutPushPanics(t *testing.T) {
	a := newAllocator(&VM{}, 0, 0, 0)
	defer func() {
		if recover() == nil {
			t.Fatal("popRoot with an empty root stack must panic")
		}
	}()
	a.popRoot()
}

func TestAllocatorTriggersGCWhenOverThreshold(t *testing.T) {
	v := NewVM(Config{InitialHeapSize: 1, MinHeapSize: 1})
	// Root nothing; allocate enough garbage strings that bytesAllocated
	// exceeds the threshold, forcing collectGarbage to run at least
	// once. NewVM's own bootstrap collections leave nextGC at
	// heapGrowPercent of the core's live size, not at the tiny
	// configured minimum, so the strings must outgrow that headroom.
	// We only assert this doesn't panic and reclaims unrooted data.
	const count = 2000
	before := v.BytesAllocated()
	for i := 0; i < count; i++ {
		NewString(v, padString(i))
	}
	if v.BytesAllocated() >= before+count*57 {
		t.Fatalf("expected at least one GC to have reclaimed unrooted strings, bytesAllocated=%d", v.BytesAllocated())
	}
}
