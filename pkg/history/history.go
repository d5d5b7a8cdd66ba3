// Package history provides a fixed-capacity ring buffer used as the
// backing store for all windowed stream statistics. Capacity is fixed at
// construction and never grows, which bounds memory no matter how long a
// stream runs.
package history

import "github.com/Cedriik/CCTVBoardDraft/internal/core/domain"

// Bounded is a ring buffer of values with overwrite-on-full semantics.
// Once count reaches capacity, each Push evicts the logically oldest
// entry. Entries are stored by value, so eviction never leaves a
// dangling reference.
//
// Bounded is not safe for concurrent use; the analyzer guards it with
// its own lock.
type Bounded[T any] struct {
	items []T
	head  int // index of the oldest entry
	count int
}

// NewBounded creates a ring with the given capacity. Capacity must be
// positive; anything else is normalized to 1.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[T]{items: make([]T, capacity)}
}

// Push appends item, evicting the oldest entry when the ring is full.
// It always succeeds and runs in O(1).
func (b *Bounded[T]) Push(item T) {
	tail := (b.head + b.count) % len(b.items)
	b.items[tail] = item
	if b.count == len(b.items) {
		// Full: the slot just written was the oldest entry.
		b.head = (b.head + 1) % len(b.items)
	} else {
		b.count++
	}
}

// At returns the entry at logical index i, where 0 is the oldest entry
// and Len()-1 the newest. Indexing outside [0, Len()) is a caller bug
// and reported as domain.ErrOutOfRange.
func (b *Bounded[T]) At(i int) (T, error) {
	if i < 0 || i >= b.count {
		var zero T
		return zero, domain.ErrOutOfRange
	}
	return b.items[(b.head+i)%len(b.items)], nil
}

// Len returns the number of live entries.
func (b *Bounded[T]) Len() int { return b.count }

// Cap returns the fixed capacity.
func (b *Bounded[T]) Cap() int { return len(b.items) }

// Full reports whether the next Push will evict.
func (b *Bounded[T]) Full() bool { return b.count == len(b.items) }

// Clear drops all entries. Capacity is unchanged.
func (b *Bounded[T]) Clear() {
	b.head = 0
	b.count = 0
}
