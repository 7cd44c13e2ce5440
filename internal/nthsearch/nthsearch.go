// Package nthsearch finds the n-th prime > (or, for negative n, the
// |n|-th prime <) a starting point without sieving the whole interval
// up front: an approximation oracle (pix/nthPrimeDist, after Rosser's
// bound) guesses how far away the n-th prime should be, a sequence of
// exact counts over ever-refined windows narrows in on it, and a final
// short iterator walk lands on the exact value. Grounded on
// original_source/src/primesieve/nthPrime.cpp.
package nthsearch

import (
	"context"
	"math"
	"math/bits"

	"github.com/pchuck/primesieve/config"
	"github.com/pchuck/primesieve/internal/engine"
	"github.com/pchuck/primesieve/iterator"
	"github.com/pkg/errors"
)

// ErrOutOfRange is returned when the search walks past engine.MaxStop
// while still short of the n-th prime.
var ErrOutOfRange = errors.New("nthsearch: n-th prime exceeds the maximum supported value")

// ErrUnderflow is returned when a backward search runs off the bottom
// of the number line (stop reaches 0) before reaching count == n.
var ErrUnderflow = errors.New("nthsearch: n-th prime below the minimum supported value, n is too small")

// tinyNFloor bounds how small the final brute-force iterator walk is
// allowed to be before the approximation loop hands off to it.
const tinyNFloor = 100000

// pix approximates the prime-counting function pi(n) = n / log(n).
func pix(n int64) int64 {
	x := float64(n)
	logx := math.Log(math.Max(4.0, x))
	return int64(x / logx)
}

// nthPrimeDist estimates the distance from start to the n-th prime,
// given that count primes have already been found. The correction
// terms keep the estimate a safe over- or under-shoot depending on
// search direction, so the caller's window always converges.
func nthPrimeDist(n, count int64, start uint64) uint64 {
	x := math.Abs(float64(n - count))
	x = math.Max(x, 4.0)

	logx := math.Log(x)
	loglogx := math.Log(logx)
	p := x * (logx + loglogx - 1)

	if count >= n {
		if uint64(p) < start {
			start -= uint64(p)
		} else {
			start = 0
		}
	}

	startPix := float64(start) + p/loglogx
	startPix = math.Max(4.0, startPix)
	logStartPix := math.Log(startPix)
	dist := math.Max(p, x*logStartPix)

	if count < n {
		dist -= math.Sqrt(dist) * math.Log(logStartPix) * 2
	}
	if count > n {
		dist += math.Sqrt(dist) * math.Log(logStartPix) * 2
	}

	maxPrimeGap := logStartPix * logStartPix
	dist = math.Max(dist, maxPrimeGap)
	if dist < 0 {
		dist = 0
	}
	return uint64(dist)
}

// sieveBackwards reports whether the search has overshot and needs to
// retract: it has found at least n primes, but not exactly n landing on
// a stop of 0 (which is already exact).
func sieveBackwards(n, count int64, stop uint64) bool {
	return count >= n && !(count == n && stop < 2)
}

func addSat(a, dist uint64) uint64 {
	if dist > engine.MaxStop-a {
		return engine.MaxStop
	}
	return a + dist
}

func subSat(a, dist uint64) uint64 {
	if dist > a {
		return 0
	}
	return a - dist
}

// countRange counts primes in [start, stop] with a single driver run,
// the same way the approximation loop's successive windows are each
// counted exactly once.
func countRange(ctx context.Context, start, stop uint64) (int64, error) {
	if start > stop {
		return 0, nil
	}
	d, err := engine.New(start, stop, config.SieveSizeBytes(), 0, nil)
	if err != nil {
		return 0, err
	}
	c := &popcountConsumer{}
	if err := d.Run(ctx, c); err != nil {
		return 0, err
	}
	// 2, 3 and 5 have no bit in the wheel-30 sieve and are counted here.
	for _, p := range [...]uint64{2, 3, 5} {
		if p >= start && p <= stop {
			c.count++
		}
	}
	return int64(c.count), nil
}

// NthPrime returns the n-th prime greater than start (n > 0), or the
// |n|-th prime less than start (n < 0); n == 0 behaves like n == 1.
func NthPrime(ctx context.Context, n int64, start uint64) (uint64, error) {
	if n == 0 {
		n = 1
	}
	if n > 0 {
		start = addSat(start, 1)
	} else {
		start = subSat(start, 1)
	}

	stop := start
	dist := nthPrimeDist(n, 0, start)
	guess := addSat(start, dist)

	var count int64
	tinyN := int64(tinyNFloor)
	if g := pix(int64(math.Sqrt(float64(guess)))); g > tinyN {
		tinyN = g
	}

	for (n-count) > tinyN || sieveBackwards(n, count, stop) {
		if count < n {
			if start >= engine.MaxStop {
				return 0, errors.WithStack(ErrOutOfRange)
			}
			dist = nthPrimeDist(n, count, start)
			stop = addSat(start, dist)
			got, err := countRange(ctx, start, stop)
			if err != nil {
				return 0, err
			}
			count += got
			start = addSat(stop, 1)
		}
		if sieveBackwards(n, count, stop) {
			if stop == 0 {
				return 0, errors.WithStack(ErrUnderflow)
			}
			dist = nthPrimeDist(n, count, stop)
			start = subSat(start, dist)
			got, err := countRange(ctx, start, stop)
			if err != nil {
				return 0, err
			}
			count -= got
			stop = subSat(start, 1)
		}
	}

	if start >= engine.MaxStop {
		return 0, errors.WithStack(ErrOutOfRange)
	}
	if n < 0 {
		count--
	}
	dist = nthPrimeDist(n, count, start) * 2
	stop = addSat(start, dist)

	it := iterator.New()
	// NextPrime returns primes strictly above the cursor; placing it one
	// below start makes start itself the first candidate.
	if start > 0 {
		it.JumpTo(start-1, stop)
	} else {
		it.JumpTo(0, stop)
	}
	var prime uint64
	for ; count < n; count++ {
		p, err := it.NextPrime()
		if err != nil {
			return 0, errors.WithStack(ErrOutOfRange)
		}
		prime = p
	}
	return prime, nil
}

type popcountConsumer struct{ count uint64 }

func (c *popcountConsumer) Consume(sieve []byte, sieveSize int, segmentLow uint64) error {
	for _, b := range sieve[:sieveSize] {
		c.count += uint64(bits.OnesCount8(b))
	}
	return nil
}
