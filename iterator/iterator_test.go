package iterator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func trialPrimesAbove(n uint64, count int) []uint64 {
	var out []uint64
	candidate := n + 1
	for len(out) < count {
		if isPrime(candidate) {
			out = append(out, candidate)
		}
		candidate++
	}
	return out
}

func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	for d := uint64(2); d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

func TestNextPrimeMatchesTrialDivision(t *testing.T) {
	want := trialPrimesAbove(0, 50)
	it := New()
	for i, w := range want {
		got, err := it.NextPrime()
		require.NoError(t, err)
		require.Equal(t, w, got, "index %d", i)
	}
}

func TestNextPrimeIsStrictlyAscending(t *testing.T) {
	it := New()
	it.JumpTo(1000, 0)
	var last uint64
	for i := 0; i < 200; i++ {
		p, err := it.NextPrime()
		require.NoError(t, err)
		require.Greater(t, p, last)
		last = p
	}
}

func TestRoundTripFromPrimeReturnsSamePrime(t *testing.T) {
	for _, p := range []uint64{2, 3, 5, 7, 97, 7919, 104729} {
		it := New()
		it.JumpTo(p, 0)
		next, err := it.NextPrime()
		require.NoError(t, err)
		require.Greater(t, next, p)

		prev, err := it.PrevPrime()
		require.NoError(t, err)
		require.Equal(t, p, prev, "round trip from %d via %d", p, next)
	}
}

func TestPrevPrimeWalksBelowTwoForever(t *testing.T) {
	it := New()
	it.JumpTo(5, 0)
	got := map[uint64]bool{}
	for i := 0; i < 10; i++ {
		p, err := it.PrevPrime()
		require.NoError(t, err)
		got[p] = true
	}
	require.Contains(t, got, uint64(0))
	require.Contains(t, got, uint64(2))
	require.Contains(t, got, uint64(3))

	// Once exhausted, every further call returns 0.
	for i := 0; i < 5; i++ {
		p, err := it.PrevPrime()
		require.NoError(t, err)
		require.Equal(t, uint64(0), p)
	}
}

func TestJumpToResetsCursor(t *testing.T) {
	it := New()
	_, err := it.NextPrime()
	require.NoError(t, err)

	it.JumpTo(100, 0)
	got, err := it.NextPrime()
	require.NoError(t, err)
	require.Equal(t, uint64(101), got) // 101 is prime, first > 100
}

func TestDirectionSwitchDiscardsStaleCache(t *testing.T) {
	it := New()
	it.JumpTo(100, 0)

	var forwardRun []uint64
	for i := 0; i < 5; i++ {
		p, err := it.NextPrime()
		require.NoError(t, err)
		forwardRun = append(forwardRun, p)
	}

	p, err := it.PrevPrime()
	require.NoError(t, err)
	require.Equal(t, forwardRun[len(forwardRun)-2], p)
}
