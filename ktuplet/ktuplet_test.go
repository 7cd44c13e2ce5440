package ktuplet

import (
	"context"
	"testing"

	"github.com/pchuck/primesieve/internal/engine"
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

func bruteCount(start, stop uint64, patterns []Pattern) uint64 {
	var count uint64
	for p := start; p <= stop; p++ {
		if !isPrime(p) {
			continue
		}
		for _, pat := range patterns {
			ok := true
			for _, d := range pat.Deltas[1:] {
				if !isPrime(p + d) {
					ok = false
					break
				}
			}
			if ok {
				count++
				break
			}
		}
	}
	return count
}

// startBase excludes 2, 3 and 5 as tuplet bases: wheel-30 never
// represents them as sieve bits, so the counter's domain starts at the
// first representable residue, 7 (matching the documented boundary
// simplification in DESIGN.md).
const startBase = 7

func countWith(t *testing.T, start, stop uint64, patterns []Pattern) uint64 {
	t.Helper()
	d, err := engine.New(start, stop, 32, 0, nil)
	require.NoError(t, err)
	c := NewCounter(patterns, false)
	require.NoError(t, d.Run(context.Background(), c))
	c.Flush()
	return c.Count()
}

func TestTwinsMatchBruteForce(t *testing.T) {
	require.Equal(t, bruteCount(startBase, 100000, Twins), countWith(t, startBase, 100000, Twins))
}

func TestTripletsMatchBruteForce(t *testing.T) {
	require.Equal(t, bruteCount(startBase, 100000, Triplets), countWith(t, startBase, 100000, Triplets))
}

func TestQuadrupletsMatchBruteForce(t *testing.T) {
	require.Equal(t, bruteCount(startBase, 200000, Quadruplets), countWith(t, startBase, 200000, Quadruplets))
}

func TestSextupletsMatchBruteForce(t *testing.T) {
	require.Equal(t, bruteCount(startBase, 2000000, Sextuplets), countWith(t, startBase, 2000000, Sextuplets))
}

func TestCollectMatchesReturnsAscendingBasePrimes(t *testing.T) {
	d, err := engine.New(startBase, 1000, 16, 0, nil)
	require.NoError(t, err)
	c := NewCounter(Twins, true)
	require.NoError(t, d.Run(context.Background(), c))
	c.Flush()

	require.Equal(t, bruteCount(startBase, 1000, Twins), uint64(len(c.Matches())))
	for i := 1; i < len(c.Matches()); i++ {
		require.Less(t, c.Matches()[i-1], c.Matches()[i])
	}
}
