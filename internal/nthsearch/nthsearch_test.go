package nthsearch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

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

// nthPrimeAbove returns the n-th prime strictly greater than start, by
// trial division, for comparison against NthPrime's approximation loop.
func nthPrimeAbove(n int, start uint64) uint64 {
	candidate := start + 1
	found := 0
	for {
		if isPrime(candidate) {
			found++
			if found == n {
				return candidate
			}
		}
		candidate++
	}
}

func TestNthPrimeFromZeroMatchesTrialDivision(t *testing.T) {
	for _, n := range []int64{1, 2, 10, 100, 1000} {
		want := nthPrimeAbove(int(n), 0)
		got, err := NthPrime(context.Background(), n, 0)
		require.NoError(t, err)
		require.Equal(t, want, got, "n=%d", n)
	}
}

func TestNthPrimeZeroBehavesLikeOne(t *testing.T) {
	want, err := NthPrime(context.Background(), 1, 0)
	require.NoError(t, err)
	got, err := NthPrime(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestNthPrimeFromOffsetStart(t *testing.T) {
	want := nthPrimeAbove(50, 10000)
	got, err := NthPrime(context.Background(), 50, 10000)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestNthPrimeNegativeWalksBackward(t *testing.T) {
	// The 10th prime above 0 is 29; the 9th prime below 29, counting
	// down from it, should land back on 2 (the 1st prime).
	forward, err := NthPrime(context.Background(), 10, 0)
	require.NoError(t, err)

	back, err := NthPrime(context.Background(), -9, forward)
	require.NoError(t, err)
	require.Equal(t, uint64(2), back)
}

func TestNthPrimeUnderflowReturnsError(t *testing.T) {
	_, err := NthPrime(context.Background(), -1000, 10)
	require.ErrorIs(t, err, ErrUnderflow)
}

func TestPixApproximatesPrimeCountingFunction(t *testing.T) {
	// pi(100) = 25; the crude x/log(x) approximation need not be exact,
	// only in the right ballpark.
	got := pix(100)
	require.InDelta(t, 25, got, 15)
}
