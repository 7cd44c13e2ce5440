// Package presieve implements the pre-sieve buffer: a read-only bitmap
// of multiples of the smallest primes, replicated into each fresh
// segment so the classifier tiers only ever have to deal with primes
// above the pre-sieve limit. Grounded on
// original_source/src/primesieve/PreSieve.cpp.
package presieve

import (
	"math"

	"github.com/pchuck/primesieve/wheel"
)

// limits and their primeProduct, per spec §3's list (one level deeper
// than original_source/src/primesieve/PreSieve.cpp, which stops at 23):
// the buffer only ever needs to encode primes > 5, since wheel-30
// already excludes multiples of 2, 3 and 5 by construction.
var (
	limits       = [...]uint64{7, 11, 13, 17, 19, 23, 29}
	primeProduct = [...]uint64{210, 2310, 30030, 510510, 9699690, 223092870, 6469693230}
)

// PreSieve owns the read-only buffer and the parameters it was built
// with. Lives for one sieve driver invocation (spec §3).
type PreSieve struct {
	limit        uint64
	primeProduct uint64
	buffer       []byte
}

// New builds a PreSieve sized for the interval [start, stop], per spec
// §4.2's edge case: a small dist gets the smallest limit so one-time init
// cost never dominates; a large dist gets the largest limit whose
// primeProduct still fits the /100 budget.
func New(start, stop uint64) *PreSieve {
	dist := stop - start
	isqrtStop := uint64(math.Sqrt(float64(stop)))

	// smallest limit by default; spec §4.2's edge case.
	limit, pp := limits[0], primeProduct[0]

	if dist >= 100*isqrtStop {
		threshold := dist / 100
		for i, l := range limits {
			if primeProduct[i] <= threshold {
				limit, pp = l, primeProduct[i]
			}
		}
	}

	ps := &PreSieve{limit: limit, primeProduct: pp}
	ps.build()
	return ps
}

// Limit returns the largest prime whose multiples this buffer removes.
func (p *PreSieve) Limit() uint64 { return p.limit }

// build runs a tiny, direct sieve of Eratosthenes over the buffer (one
// bit per wheel-30 residue, same encoding as the segment sieve byte
// array) to clear multiples of every prime <= p.limit.
func (p *PreSieve) build() {
	size := p.primeProduct / wheel.NumbersPerByte
	if size == 0 {
		size = 1
	}
	p.buffer = make([]byte, size)
	for i := range p.buffer {
		p.buffer[i] = 0xff
	}

	for _, prime := range []uint64{7, 11, 13, 17, 19, 23, 29} {
		if prime > p.limit {
			break
		}
		p.crossOff(prime)
	}
}

// crossOff clears every bit in the buffer corresponding to a multiple of
// prime, walking the wheel exactly as the segment crossoff loops do.
func (p *PreSieve) crossOff(prime uint64) {
	col := wheel.ResidueIndex(prime)

	m := prime * prime
	for wheel.IndexOf(m%30) < 0 {
		m += prime
	}
	// The buffer tiles with period primeProduct, so only m's residue
	// within that period matters.
	mm := m % p.primeProduct
	_, wi := wheel.FirstMultipleOffset(0, mm)

	p.crossOffFrom(mm, prime, wi, col)
}

// crossOffFrom walks all multiples of prime starting at the wheel-30
// aligned position `start` (0 <= start < primeProduct), wrapping around
// the buffer's period as needed, clearing bits until the buffer length
// is exhausted (the buffer represents exactly one period, so each
// multiple position within it is visited once).
func (p *PreSieve) crossOffFrom(start, prime uint64, wi uint8, col int) {
	period := p.primeProduct
	steps := period / prime // multiples of prime coprime to 30 within one period, upper bound on iterations
	pos := start
	for i := uint64(0); i < steps+8; i++ {
		byteIdx := (pos / 30) % uint64(len(p.buffer))
		bit := wheel.IndexOf(pos % 30)
		if bit >= 0 {
			p.buffer[byteIdx] &^= wheel.BitValues[bit]
		}
		tr := wheel.Table[wi][col]
		pos += tr.MultipleIncrement * prime
		wi = tr.NextWheelIndex
		if pos >= period+start {
			break
		}
	}
}

// Copy fills sieve[:sieveSize] with the pre-sieved pattern for the
// segment starting at segmentLow, per spec §4.2: map segmentLow into the
// buffer's period and tile it across the requested length.
func (p *PreSieve) Copy(sieve []byte, sieveSize int, segmentLow uint64) {
	if segmentLow == 0 {
		// 1 is coprime to every prime, so it is never crossed off as
		// anyone's multiple and isn't prime. Its bit (bit 0 of byte 0)
		// is cleared here, in the first segment only: in the periodic
		// buffer the same bit also stands for 1 + k*primeProduct.
		defer func() { sieve[0] &^= wheel.BitValues[wheel.IndexOf(1)] }()
	}
	bufLen := uint64(len(p.buffer))
	remainder := segmentLow % p.primeProduct
	index := remainder / wheel.NumbersPerByte

	sizeLeft := bufLen - index
	n := uint64(sieveSize)
	if n <= sizeLeft {
		copy(sieve[:n], p.buffer[index:index+n])
		return
	}
	copy(sieve[:sizeLeft], p.buffer[index:])
	pos := sizeLeft
	for pos+bufLen < n {
		copy(sieve[pos:pos+bufLen], p.buffer)
		pos += bufLen
	}
	copy(sieve[pos:n], p.buffer[:n-pos])
}
