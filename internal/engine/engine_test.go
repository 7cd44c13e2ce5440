package engine

import (
	"context"
	"math/bits"
	"testing"

	"github.com/pchuck/primesieve/wheel"
	"github.com/stretchr/testify/require"
)

// countConsumer sums set bits across every segment it sees.
type countConsumer struct{ count uint64 }

func (c *countConsumer) Consume(sieve []byte, sieveSize int, segmentLow uint64) error {
	for _, b := range sieve[:sieveSize] {
		c.count += uint64(bits.OnesCount8(b))
	}
	return nil
}

// listConsumer appends every prime it sees, in ascending order.
type listConsumer struct{ primes []uint64 }

func (c *listConsumer) Consume(sieve []byte, sieveSize int, segmentLow uint64) error {
	for byteIdx := 0; byteIdx < sieveSize; byteIdx++ {
		b := sieve[byteIdx]
		if b == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&wheel.BitValues[bit] != 0 {
				c.primes = append(c.primes, segmentLow+uint64(byteIdx)*30+wheel.Residues[bit])
			}
		}
	}
	return nil
}

func trialPrimesInRange(start, stop uint64) []uint64 {
	var out []uint64
	for n := start; n <= stop; n++ {
		if n < 2 {
			continue
		}
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

func runList(t *testing.T, start, stop uint64, sieveSize int) []uint64 {
	t.Helper()
	d, err := New(start, stop, sieveSize, 0, nil)
	require.NoError(t, err)
	c := &listConsumer{}
	require.NoError(t, d.Run(context.Background(), c))
	return c.primes
}

func TestEnginePrimesMatchTrialDivisionSmallRange(t *testing.T) {
	got := runList(t, 0, 10000, 64)
	require.Equal(t, trialPrimesInRange(0, 10000), got)
}

func TestEnginePrimesMatchTrialDivisionOffsetStart(t *testing.T) {
	// start well above 0 so PreSieve's edge-case branch and boundary
	// masking on the first segment both get exercised.
	got := runList(t, 1_000_003, 1_010_003, 64)
	require.Equal(t, trialPrimesInRange(1_000_003, 1_010_003), got)
}

func TestEngineCountMatchesListLength(t *testing.T) {
	const start, stop = 0, 50000
	d, err := New(start, stop, 32, 0, nil)
	require.NoError(t, err)
	c := &countConsumer{}
	require.NoError(t, d.Run(context.Background(), c))
	require.Len(t, trialPrimesInRange(start, stop), int(c.count))
}

func TestEngineSmallSieveSizeForcesAllClassifiers(t *testing.T) {
	// A tiny sieve size pushes far more primes into Medium/Big than a
	// production-sized one would, exercising the full dispatch path: with
	// a 1-byte segment, Small takes primes <= 30, Medium those <= 480 and
	// Big the sieving primes up to sqrt(300000) ~ 547 above that.
	got := runList(t, 0, 300000, 1)
	require.Equal(t, trialPrimesInRange(0, 300000), got)
}

func TestEngineRejectsOutOfRangeInterval(t *testing.T) {
	_, err := New(10, 5, 64, 0, nil)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = New(0, MaxStop+1, 64, 0, nil)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestEngineRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d, err := New(0, 1_000_000, 64, 0, nil)
	require.NoError(t, err)
	c := &countConsumer{}
	err = d.Run(ctx, c)
	require.ErrorIs(t, err, context.Canceled)
	// The first segment still ran before cancellation was observed.
	require.Greater(t, c.count, uint64(0))
}
