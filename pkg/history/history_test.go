package history

import (
	"testing"

	"github.com/Cedriik/CCTVBoardDraft/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounded_PushAndAt(t *testing.T) {
	b := NewBounded[uint32](4)

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 4, b.Cap())
	assert.False(t, b.Full())

	b.Push(10)
	b.Push(20)
	b.Push(30)

	assert.Equal(t, 3, b.Len())
	for i, want := range []uint32{10, 20, 30} {
		got, err := b.At(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestBounded_OverwritesOldestWhenFull(t *testing.T) {
	b := NewBounded[int](3)

	// capacity + k pushes: the oldest k entries become unobservable
	for i := 1; i <= 5; i++ {
		b.Push(i)
	}

	assert.Equal(t, 3, b.Len())
	assert.True(t, b.Full())

	for i, want := range []int{3, 4, 5} {
		got, err := b.At(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestBounded_SizeNeverExceedsCapacity(t *testing.T) {
	b := NewBounded[int](8)
	for i := 0; i < 1000; i++ {
		b.Push(i)
		assert.LessOrEqual(t, b.Len(), b.Cap())
	}
}

func TestBounded_AtOutOfRange(t *testing.T) {
	b := NewBounded[int](2)
	b.Push(1)

	_, err := b.At(1)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	_, err = b.At(-1)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
}

func TestBounded_Clear(t *testing.T) {
	b := NewBounded[int](3)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.Push(4) // wraps

	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 3, b.Cap())

	b.Push(7)
	got, err := b.At(0)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestBounded_ZeroCapacityNormalized(t *testing.T) {
	b := NewBounded[int](0)
	assert.Equal(t, 1, b.Cap())
	b.Push(1)
	b.Push(2)
	got, err := b.At(0)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}
