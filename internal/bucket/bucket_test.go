package bucket

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetPutRoundTrip(t *testing.T) {
	pool := New(DefaultMaxAllocBytes, nil)
	b, err := pool.Get()
	require.NoError(t, err)
	require.NotNil(t, b)
	require.True(t, b.Len() == 0)

	b.Append(Slot{Prime: 7, MultipleOffset: 49, WheelIndex: 3})
	require.Equal(t, 1, b.Len())
	require.False(t, b.Full())

	pool.Put(b)
	b2, err := pool.Get()
	require.NoError(t, err)
	require.Equal(t, 0, b2.Len(), "returned bucket must be reset before reuse")
}

func TestBucketFillsToCapacity(t *testing.T) {
	b := &Bucket{}
	for i := 0; i < Capacity; i++ {
		require.False(t, b.Full())
		b.Append(Slot{Prime: uint64(i)})
	}
	require.True(t, b.Full())
	require.Len(t, b.Slots(), Capacity)
}

func TestListAppendAllocatesAcrossBuckets(t *testing.T) {
	pool := New(DefaultMaxAllocBytes, nil)
	var list List

	n := Capacity + 10
	for i := 0; i < n; i++ {
		require.NoError(t, list.Append(pool, Slot{Prime: uint64(i)}))
	}

	count := 0
	for b := list.Head(); b != nil; b = b.Next {
		count += b.Len()
	}
	require.Equal(t, n, count)
}

func TestPoolExhaustionReturnsResourceError(t *testing.T) {
	// A tiny budget that cannot even hold one slab of buckets.
	pool := New(1, nil)
	_, err := pool.Get()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrExhausted)
}
