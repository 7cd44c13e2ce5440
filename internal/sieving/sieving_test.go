package sieving

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func trialPrimes(limit uint64) []uint64 {
	var out []uint64
	for n := uint64(2); n <= limit; n++ {
		isPrime := true
		for d := uint64(2); d*d <= n; d++ {
			if n%d == 0 {
				isPrime = false
				break
			}
		}
		if isPrime {
			out = append(out, n)
		}
	}
	return out
}

func collect(g *Generator) []uint64 {
	var out []uint64
	for {
		p, ok := g.Next()
		if !ok {
			break
		}
		out = append(out, p)
	}
	return out
}

func TestGeneratorMatchesTrialDivisionSmallLimit(t *testing.T) {
	const limit = 100
	got := collect(New(limit))
	require.Equal(t, trialPrimes(limit), got)
}

func TestGeneratorSpansMultipleSegments(t *testing.T) {
	// segmentSizeBytes*30 is the span of one internal segment; push past
	// several of them to exercise advanceSegment and the bootstrap
	// admission loop repeatedly.
	const limit = segmentSizeBytes*30*3 + 997
	got := collect(New(limit))
	require.Equal(t, trialPrimes(limit), got)
}

func TestGeneratorBelowWheelThreshold(t *testing.T) {
	for _, limit := range []uint64{0, 1, 2, 3, 4, 5, 6} {
		got := collect(New(limit))
		require.Equal(t, trialPrimes(limit), got, "limit=%d", limit)
	}
}
