// Package sieving generates the sieving primes in [0, limit] that feed
// the three Erat* classifiers (spec §4.6). It is itself a small
// segmented wheel-30 sieve, recursively bootstrapped: the primes it
// needs to sieve its own tiny segments (those <= sqrt(limit)) come from
// a one-shot trial-division sieve, never from another layer of
// recursion, so the recursion terminates in exactly one step as spec
// §4.6 describes.
package sieving

import (
	"math"

	"github.com/pchuck/primesieve/internal/erat"
	"github.com/pchuck/primesieve/prime"
	"github.com/pchuck/primesieve/wheel"
)

// segmentSizeBytes is the "few KiB" byte array spec §4.6 asks for — this
// generator only ever needs to hold sieving primes up to sqrt(limit), so
// it stays tiny regardless of how large limit itself is.
const segmentSizeBytes = 8192

// maxPrimeGapMargin bounds the gap between sqrt(limit) and the next
// prime above it, so the bootstrap trial sieve is guaranteed to cover
// every prime the segmented phase will need as a sieving prime. Actual
// prime gaps near 2^32 are a few hundred at most; this margin is
// generous for any limit this package is asked to handle (spec caps
// stop, and hence limit, well under 2^32).
const maxPrimeGapMargin = 2048

// Generator produces ascending primes in [0, limit].
type Generator struct {
	limit uint64

	// 2, 3 and 5 are emitted directly: wheel-30 never represents them.
	emittedSmall int

	bootstrap    []bool // trial-sieved primality up to sqrt(limit)+margin
	bootstrapIdx uint64 // next bootstrap index to test as a new sieving prime

	small      *erat.Small
	segmentLow uint64
	sieve      []byte
	bitCursor  int // next bit (0..8*segmentSizeBytes-1) to inspect in sieve
	started    bool
	exhausted  bool
}

// New returns a generator for all primes in [0, limit].
func New(limit uint64) *Generator {
	g := &Generator{limit: limit, small: erat.NewSmall()}
	if limit >= 7 {
		g.bootstrap = bootstrapSieve(limit)
		g.bootstrapIdx = 7
	}
	return g
}

// bootstrapSieve delegates to prime.SieveOfEratosthenes for the one-shot
// trial sieve up to sqrt(limit)+margin, reusing the classic odd-only
// sieve the teacher already implements rather than hand-rolling a
// second copy of it here.
func bootstrapSieve(limit uint64) []bool {
	n := uint64(math.Sqrt(float64(limit))) + maxPrimeGapMargin
	primes := prime.SieveOfEratosthenes(int(n) + 1)

	isPrime := make([]bool, n+1)
	for _, p := range primes {
		isPrime[p] = true
	}
	return isPrime
}

// Next returns the next ascending prime <= limit, or ok=false once
// exhausted.
func (g *Generator) Next() (prime uint64, ok bool) {
	if g.emittedSmall < 3 {
		for _, p := range [3]uint64{2, 3, 5} {
			if uint64(g.emittedSmall) == indexOf3(p) && p <= g.limit {
				g.emittedSmall++
				return p, true
			}
		}
		g.emittedSmall = 3
	}
	if g.exhausted || g.limit < 7 {
		return 0, false
	}
	if !g.started {
		g.started = true
		g.sieve = make([]byte, segmentSizeBytes)
		g.advanceSegment()
	}

	for {
		for g.bitCursor < segmentSizeBytes*8 {
			byteIdx := g.bitCursor / 8
			bit := g.bitCursor % 8
			g.bitCursor++
			if g.sieve[byteIdx]&wheel.BitValues[bit] != 0 {
				n := g.segmentLow + uint64(byteIdx)*30 + wheel.Residues[bit]
				if n > g.limit {
					g.exhausted = true
					return 0, false
				}
				return n, true
			}
		}
		if g.segmentLow+segmentSizeBytes*30 > g.limit {
			g.exhausted = true
			return 0, false
		}
		g.segmentLow += segmentSizeBytes * 30
		g.advanceSegment()
	}
}

func indexOf3(p uint64) uint64 {
	switch p {
	case 2:
		return 0
	case 3:
		return 1
	default:
		return 2
	}
}

// advanceSegment resets the sieve byte array, admits any bootstrap
// primes whose square has now entered the segment, crosses off their
// multiples, and rewinds the bit cursor to the start.
func (g *Generator) advanceSegment() {
	for i := range g.sieve {
		g.sieve[i] = 0xff
	}
	high := g.segmentLow + segmentSizeBytes*30
	for g.bootstrapIdx*g.bootstrapIdx < high && g.bootstrapIdx < uint64(len(g.bootstrap)) {
		p := g.bootstrapIdx
		g.bootstrapIdx++
		if p >= uint64(len(g.bootstrap)) || !g.bootstrap[p] {
			continue
		}
		m := p * p
		off, wi := wheel.FirstMultipleOffset(g.segmentLow, m)
		g.small.Add(p, off, wi, wheel.ResidueIndex(p))
	}
	g.small.CrossOff(g.sieve, segmentSizeBytes)
	if g.segmentLow == 0 {
		// 1 has no prime factors, so crossoff never clears its bit
		// (residue 1, byte 0); it must be cleared explicitly.
		g.sieve[0] &^= wheel.BitValues[wheel.IndexOf(1)]
	}
	g.bitCursor = 0
}
