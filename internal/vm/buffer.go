package vm

import "fortio.org/safecast"

// minCapacity is the smallest non-zero capacity any Buffer or Map
// grows to; it is also the granularity every later resize is a power
// of two multiple of.
const minCapacity = 16

// Buffer is a growable contiguous sequence of fixed-layout elements,
// backed by a Go slice. It grows geometrically (factor 2, starting at
// minCapacity) and never shrinks on its own; callers that need
// shrink-on-removal semantics (List) implement that themselves using
// Buffer as the storage primitive.
type Buffer[T any] struct {
	data []T
}

func (b *Buffer[T]) Len() int { return len(b.data) }
func (b *Buffer[T]) Cap() int { return cap(b.data) }

func (b *Buffer[T]) At(i int) T     { return b.data[i] }
func (b *Buffer[T]) Set(i int, v T) { b.data[i] = v }

func (b *Buffer[T]) Slice() []T { return b.data }

// Write appends v, growing capacity geometrically when the backing
// array is full. Amortized O(1).
func (b *Buffer[T]) Write(v T) {
	if len(b.data) == cap(b.data) {
		b.grow(len(b.data) + 1)
	}
	b.data = append(b.data, v)
}

// Fill appends n copies of v.
func (b *Buffer[T]) Fill(v T, n int) {
	for i := 0; i < n; i++ {
		b.Write(v)
	}
}

// Clear frees the backing array and resets the buffer to empty.
func (b *Buffer[T]) Clear() {
	b.data = nil
}

// grow ensures capacity for at least `need` elements using the
// doubling-from-minCapacity policy §4.3 requires.
func (b *Buffer[T]) grow(need int) {
	newCap := cap(b.data)
	if newCap == 0 {
		newCap = minCapacity
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]T, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
}

// ShrinkTo reallocates the backing array down to exactly newCap,
// keeping the first min(newCap, Len) elements. Used by List's
// shrink-to-half policy; Map resizes its own entry slice instead.
func (b *Buffer[T]) ShrinkTo(newCap int) {
	keep := len(b.data)
	if keep > newCap {
		keep = newCap
	}
	shrunk := make([]T, keep, newCap)
	copy(shrunk, b.data[:keep])
	b.data = shrunk
}

// EnsureCap grows the backing array to at least `n` without changing
// Len, used by List/Map when they manage count and capacity directly
// instead of appending one element at a time.
func (b *Buffer[T]) EnsureCap(n int) {
	if cap(b.data) >= n {
		return
	}
	b.grow(n)
}

// SetLen resizes the logical length, zero-filling any newly exposed
// slots. Capacity must already be sufficient (call EnsureCap first).
func (b *Buffer[T]) SetLen(n int) {
	if n <= len(b.data) {
		b.data = b.data[:n]
		return
	}
	b.EnsureCap(n)
	b.data = b.data[:n]
}

// capFor converts a float64 index to an int safely, matching
// the teacher's habit of routing every width-narrowing cast through
// safecast rather than a bare conversion.
func capFor(n float64) int {
	v, err := safecast.Convert[int](n)
	if err != nil {
		panic("vm: capacity out of range: " + err.Error())
	}
	return v
}
