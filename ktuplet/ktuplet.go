// Package ktuplet finds prime k-tuplets (admissible constellations of
// 2 to 6 primes in a fixed offset pattern) by pattern-matching against
// the sieve's own bit array, per spec §4.7/§9's "k-tuplet ANDs a
// tuple-shape mask with the byte". It plugs in as an
// engine.Consumer, so it runs inline with the segmented sieve rather
// than re-deriving primality from scratch.
package ktuplet

import "github.com/pchuck/primesieve/wheel"

// Pattern is one admissible offset pattern for a k-tuplet: Deltas[0] is
// always 0 (the base prime itself); the rest are the offsets the other
// k-1 members must sit at, all relative to the base.
type Pattern struct {
	Deltas []uint64
}

// Patterns for 2..6-tuplets, matching the constellations primesieve
// itself reports (source: original_source's documented k-tuplet
// definitions). A number counts once per base prime even when more than
// one pattern matches it (only possible for very small p).
var (
	Twins        = []Pattern{{Deltas: []uint64{0, 2}}}
	Triplets     = []Pattern{{Deltas: []uint64{0, 2, 6}}, {Deltas: []uint64{0, 4, 6}}}
	Quadruplets  = []Pattern{{Deltas: []uint64{0, 2, 6, 8}}}
	Quintuplets  = []Pattern{{Deltas: []uint64{0, 2, 6, 8, 12}}, {Deltas: []uint64{0, 4, 6, 10, 12}}}
	Sextuplets = []Pattern{{Deltas: []uint64{0, 4, 6, 10, 12, 16}}}
)

// Counter is an engine.Consumer that counts (and optionally collects)
// base primes matching any of its patterns. Because the widest offset
// across all k-tuplet shapes is 16 — less than the 30 numbers one sieve
// byte covers — resolving a candidate never needs more than the byte it
// lives in plus the very next one, so Counter only ever buffers a single
// pending byte across segment boundaries; the segmented memory bound
// the rest of the driver relies on is preserved.
type Counter struct {
	patterns []Pattern
	collect  bool

	count   uint64
	matches []uint64

	havePending bool
	pendingBase uint64
	pendingByte byte
}

// NewCounter returns a Counter for the given patterns. When collect is
// true, Matches() returns every base prime found; otherwise only Count()
// is tracked, avoiding an unbounded allocation for large ranges.
func NewCounter(patterns []Pattern, collect bool) *Counter {
	return &Counter{patterns: patterns, collect: collect}
}

// Count reports how many base primes matched so far.
func (c *Counter) Count() uint64 { return c.count }

// Matches returns the collected base primes, ascending. Empty unless
// constructed with collect=true.
func (c *Counter) Matches() []uint64 { return c.matches }

// Consume implements engine.Consumer.
func (c *Counter) Consume(sieve []byte, sieveSize int, segmentLow uint64) error {
	if c.havePending {
		var next byte
		if sieveSize > 0 {
			next = sieve[0]
		}
		c.resolve(c.pendingBase, c.pendingByte, next)
		c.havePending = false
	}

	for i := 0; i < sieveSize-1; i++ {
		base := segmentLow + uint64(i)*wheel.NumbersPerByte
		c.resolve(base, sieve[i], sieve[i+1])
	}

	if sieveSize > 0 {
		c.pendingBase = segmentLow + uint64(sieveSize-1)*wheel.NumbersPerByte
		c.pendingByte = sieve[sieveSize-1]
		c.havePending = true
	}
	return nil
}

// Flush resolves a final pending byte against an empty successor — call
// once after the driver's Run has returned. Any candidate whose pattern
// reaches into the unswept byte beyond simply won't match, which is
// correct: nothing beyond the sieved range has been vouched prime.
func (c *Counter) Flush() {
	if !c.havePending {
		return
	}
	c.resolve(c.pendingBase, c.pendingByte, 0)
	c.havePending = false
}

func (c *Counter) resolve(base uint64, cur, next byte) {
	if cur == 0 {
		return
	}
	for bit := 0; bit < 8; bit++ {
		if cur&wheel.BitValues[bit] == 0 {
			continue
		}
		p := base + wheel.Residues[bit]
		for _, pat := range c.patterns {
			if c.matchesPattern(p, base, cur, next, pat) {
				c.count++
				if c.collect {
					c.matches = append(c.matches, p)
				}
				break
			}
		}
	}
}

func (c *Counter) matchesPattern(p, base uint64, cur, next byte, pat Pattern) bool {
	for _, d := range pat.Deltas[1:] {
		if !bitSet(p+d, base, cur, next) {
			return false
		}
	}
	return true
}

// bitSet reports whether n is marked prime, given the byte covering
// [base, base+30) and the one covering [base+30, base+60).
func bitSet(n, base uint64, cur, next byte) bool {
	if n < base || n >= base+2*wheel.NumbersPerByte {
		return false
	}
	rel := n - base
	b := cur
	if rel >= wheel.NumbersPerByte {
		rel -= wheel.NumbersPerByte
		b = next
	}
	bit := wheel.IndexOf(rel)
	if bit < 0 {
		return false
	}
	return b&wheel.BitValues[bit] != 0
}
