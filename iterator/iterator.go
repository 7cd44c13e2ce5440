// Package iterator implements stateful forward/backward prime
// enumeration with an adaptively sized internal cache, per spec §4.8.
// Each refill runs a throwaway engine.Driver over a small window rather
// than keeping one sieve alive across calls, trading a little redundant
// setup for a much simpler lifetime story. Grounded on
// original_source/src/primesieve/iterator.cpp's skipto/
// generate_next_primes/generate_prev_primes/get_distance.
package iterator

import (
	"context"
	"math"

	"github.com/pchuck/primesieve/internal/engine"
	"github.com/pchuck/primesieve/wheel"
	"github.com/pkg/errors"
)

// tinyCacheSize is the initial window size, in "primes worth" of
// distance (spec §4.8: "starts at 1 KiB worth of primes").
const tinyCacheSize = 1024

// maxCacheSize bounds how large the adaptive window is allowed to grow.
const maxCacheSize = 1 << 20

// refillSieveSize is the segment width used for the throwaway drivers
// backing each refill — small, since a refill window itself is small.
const refillSieveSize = 64

// hintMargin stands in for original_source's max_prime_gap(n): when a
// window is bumped to reach stopHint, it is extended by this much past
// it so the hint itself is never left dangling right at the edge.
const hintMargin = 2048

// ErrEndOfRange is returned by NextPrime when forward iteration has
// exhausted the representable range.
var ErrEndOfRange = errors.New("iterator: no more primes in the representable range")

// direction tracks which way the cursor last moved, so a change of
// direction knows to discard the other direction's stale cache instead
// of misreading it.
type direction int8

const (
	none direction = iota
	forward
	backward
)

// Iterator holds one shared cursor (pos) and moves it forward or
// backward on demand. NextPrime always looks for the first prime
// strictly greater than pos; PrevPrime for the first strictly less —
// so alternating the two from a prime p returns p itself once the other
// direction steps back across it (spec §8's round-trip property).
type Iterator struct {
	pos      uint64
	stopHint uint64
	dir      direction

	cache []uint64
	idx   int

	cacheSize         uint64
	exhaustedForward  bool
	exhaustedBackward bool
}

// New returns an iterator positioned at 0; call JumpTo before use.
func New() *Iterator {
	it := &Iterator{}
	it.JumpTo(0, 0)
	return it
}

// JumpTo resets the cursor to n, remembering stopHint to size the first
// window (spec §4.8).
func (it *Iterator) JumpTo(n, stopHint uint64) {
	it.pos = n
	it.stopHint = stopHint
	it.dir = none
	it.cache = nil
	it.idx = 0
	it.cacheSize = tinyCacheSize
	it.exhaustedForward = false
	it.exhaustedBackward = false
}

// NextPrime returns the next ascending prime > the cursor.
func (it *Iterator) NextPrime() (uint64, error) {
	if it.dir != forward {
		it.cache, it.idx = nil, 0
		it.dir = forward
	}
	if it.idx < len(it.cache) {
		p := it.cache[it.idx]
		it.idx++
		it.pos = p
		return p, nil
	}
	return it.refillForward()
}

// PrevPrime returns the next descending prime < the cursor. Once
// iteration has walked below 2 it returns 0 forever, per spec §4.8.
func (it *Iterator) PrevPrime() (uint64, error) {
	if it.exhaustedBackward {
		return 0, nil
	}
	if it.dir != backward {
		it.cache, it.idx = nil, 0
		it.dir = backward
	}
	if it.idx > 0 {
		it.idx--
		it.pos = it.cache[it.idx]
		return it.pos, nil
	}
	return it.refillBackward()
}

func (it *Iterator) distance(n uint64) uint64 {
	if n < 10 {
		n = 10
	}
	target := it.cacheSize
	if target > maxCacheSize {
		target = maxCacheSize
	}
	dist := uint64(float64(target) * math.Log(float64(n)))
	if dist < 30 {
		dist = 30
	}
	return dist
}

func (it *Iterator) growCacheSize() {
	next := it.cacheSize * 2
	if next > maxCacheSize {
		next = maxCacheSize
	}
	it.cacheSize = next
}

func (it *Iterator) refillForward() (uint64, error) {
	if it.exhaustedForward {
		return 0, errors.WithStack(ErrEndOfRange)
	}
	if it.pos >= engine.MaxStop {
		it.exhaustedForward = true
		return 0, errors.WithStack(ErrEndOfRange)
	}
	start := it.pos + 1
	for {
		stop := start + it.distance(start)
		if start <= it.stopHint && stop >= it.stopHint {
			stop = it.stopHint + hintMargin
		}
		if stop > engine.MaxStop {
			stop = engine.MaxStop
		}

		primes, err := sieveWindow(start, stop)
		if err != nil {
			return 0, errors.Wrap(err, "iterator: forward refill")
		}
		it.growCacheSize()

		if len(primes) == 0 {
			if stop >= engine.MaxStop {
				it.exhaustedForward = true
				return 0, errors.WithStack(ErrEndOfRange)
			}
			start = stop + 1
			continue
		}

		it.cache = primes
		it.idx = 1
		it.pos = primes[0]
		return it.pos, nil
	}
}

func (it *Iterator) refillBackward() (uint64, error) {
	if it.pos == 0 {
		it.exhaustedBackward = true
		return 0, nil
	}
	stop := it.pos - 1
	for {
		var start uint64
		if d := it.distance(stop); d >= stop {
			start = 0
		} else {
			start = stop - d
		}
		if start <= it.stopHint && stop >= it.stopHint {
			if it.stopHint > hintMargin {
				start = it.stopHint - hintMargin
			} else {
				start = 0
			}
		}

		primes, err := sieveWindow(start, stop)
		if err != nil {
			return 0, errors.Wrap(err, "iterator: backward refill")
		}
		it.growCacheSize()

		if start <= 2 {
			primes = append([]uint64{0}, primes...)
		}
		if len(primes) == 0 {
			if start == 0 {
				it.exhaustedBackward = true
				return 0, nil
			}
			stop = start - 1
			continue
		}

		it.cache = primes
		it.idx = len(primes) - 1
		it.pos = it.cache[it.idx]
		return it.pos, nil
	}
}

// sieveWindow collects every prime in [low, high] ascending.
func sieveWindow(low, high uint64) ([]uint64, error) {
	d, err := engine.New(low, high, refillSieveSize, 0, nil)
	if err != nil {
		return nil, err
	}
	c := &collector{}
	// 2, 3 and 5 have no bit in the wheel-30 sieve and are added here.
	for _, p := range [...]uint64{2, 3, 5} {
		if p >= low && p <= high {
			c.primes = append(c.primes, p)
		}
	}
	if err := d.Run(context.Background(), c); err != nil {
		return nil, err
	}
	return c.primes, nil
}

type collector struct{ primes []uint64 }

func (c *collector) Consume(sieve []byte, sieveSize int, segmentLow uint64) error {
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
