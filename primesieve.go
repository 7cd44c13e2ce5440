// Package primesieve generates primes and prime k-tuplets over
// arbitrary 64-bit intervals via a segmented sieve of Eratosthenes,
// wheel-30 factorization, a small-prime pre-sieve, a bucketed
// sieving-prime store and a parallel thread partitioner. It exposes
// counting, enumeration, nth-prime search and k-tuplet counting.
package primesieve

import (
	"context"
	"errors"

	"github.com/pchuck/primesieve/config"
	"github.com/pchuck/primesieve/internal/engine"
	"github.com/pchuck/primesieve/internal/nthsearch"
	"github.com/pchuck/primesieve/iterator"
	"github.com/pchuck/primesieve/ktuplet"
	"github.com/pchuck/primesieve/parallel"
)

var (
	errOutOfOrder    = errors.New("primesieve: start after stop")
	errStopTooLarge  = errors.New("primesieve: stop exceeds the maximum supported value")
	errNegativeCount = errors.New("primesieve: n must be non-negative")
)

// Integer is the set of output types GeneratePrimes/GenerateNPrimes can
// fill a caller's slice with.
type Integer interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

func checkRange(start, stop uint64) error {
	if start > stop {
		return newError(ArgumentError, errOutOfOrder)
	}
	if stop > engine.MaxStop {
		return newError(OutOfRange, errStopTooLarge)
	}
	return nil
}

// CountPrimes returns the number of primes in [start, stop], using
// config.NumThreads() workers.
func CountPrimes(start, stop uint64) (uint64, error) {
	if err := checkRange(start, stop); err != nil {
		return 0, err
	}
	n, err := parallel.CountPrimes(context.Background(), start, stop, config.NumThreads())
	if err != nil {
		return 0, wrapErr(Resource, err)
	}
	return n, nil
}

func countTuplets(start, stop uint64, patterns []ktuplet.Pattern) (uint64, error) {
	if err := checkRange(start, stop); err != nil {
		return 0, err
	}
	// A constellation is counted by its base prime: the sieve runs 16 (the
	// widest pattern offset) past stop so members beyond stop are seen,
	// and the constellations whose base lies past stop are subtracted.
	ext := engine.MaxStop
	if stop < engine.MaxStop-16 {
		ext = stop + 16
	}
	var counts [2]uint64
	for i, lo := range []uint64{start, stop + 1} {
		if lo > ext {
			break
		}
		d, err := engine.New(lo, ext, config.SieveSizeBytes(), 0, nil)
		if err != nil {
			return 0, wrapErr(OutOfRange, err)
		}
		c := ktuplet.NewCounter(patterns, false)
		if err := d.Run(context.Background(), c); err != nil {
			return 0, wrapErr(Resource, err)
		}
		c.Flush()
		counts[i] = c.Count()
	}
	return counts[0] - counts[1], nil
}

// CountTwins returns the number of prime-twin (p, p+2) constellations
// whose base prime p lies in [start, stop]. Twins whose base is 3 or 5
// have no wheel-30 bit and are not counted.
func CountTwins(start, stop uint64) (uint64, error) { return countTuplets(start, stop, ktuplet.Twins) }

// CountTriplets returns the number of prime-triplet constellations whose
// base prime lies in [start, stop]. The triplet with base 5 is not counted.
func CountTriplets(start, stop uint64) (uint64, error) {
	return countTuplets(start, stop, ktuplet.Triplets)
}

// CountQuadruplets returns the number of prime-quadruplet constellations
// whose base prime lies in [start, stop]. The quadruplet with base 5 is
// not counted.
func CountQuadruplets(start, stop uint64) (uint64, error) {
	return countTuplets(start, stop, ktuplet.Quadruplets)
}

// CountQuintuplets returns the number of prime-quintuplet constellations
// whose base prime lies in [start, stop]. The quintuplet with base 5 is
// not counted.
func CountQuintuplets(start, stop uint64) (uint64, error) {
	return countTuplets(start, stop, ktuplet.Quintuplets)
}

// CountSextuplets returns the number of prime-sextuplet constellations
// whose base prime lies in [start, stop].
func CountSextuplets(start, stop uint64) (uint64, error) {
	return countTuplets(start, stop, ktuplet.Sextuplets)
}

// NthPrime returns the n-th prime greater than start (n > 0), or the
// |n|-th prime less than start (n < 0); n == 0 behaves like n == 1
// (spec §4.10, following original_source's Mathematica-style convention).
func NthPrime(n int64, start uint64) (uint64, error) {
	if start > engine.MaxStop {
		return 0, newError(OutOfRange, errStopTooLarge)
	}
	p, err := nthsearch.NthPrime(context.Background(), n, start)
	if err != nil {
		if errors.Is(err, nthsearch.ErrUnderflow) {
			return 0, wrapErr(NthPrimeUnderflow, err)
		}
		return 0, wrapErr(OutOfRange, err)
	}
	return p, nil
}

// NextPrime returns the smallest prime strictly greater than n, a thin
// wrapper over the iterator package (spec §6.11, after original_source's
// standalone next_prime helper).
func NextPrime(n uint64) (uint64, error) {
	it := iterator.New()
	it.JumpTo(n, 0)
	p, err := it.NextPrime()
	if err != nil {
		return 0, wrapErr(OutOfRange, err)
	}
	return p, nil
}

// PrevPrime returns the largest prime strictly less than n, or 0 once
// iteration has walked below 2 (spec §6.11, after original_source's
// standalone previous_prime helper).
func PrevPrime(n uint64) (uint64, error) {
	it := iterator.New()
	it.JumpTo(n, 0)
	p, err := it.PrevPrime()
	if err != nil {
		return 0, wrapErr(OutOfRange, err)
	}
	return p, nil
}

// GeneratePrimes appends every prime in [start, stop], ascending, to
// *out, using config.NumThreads() workers.
func GeneratePrimes[T Integer](start, stop uint64, out *[]T) error {
	if err := checkRange(start, stop); err != nil {
		return err
	}
	var primes []uint64
	if err := parallel.GeneratePrimes(context.Background(), start, stop, config.NumThreads(), &primes); err != nil {
		return wrapErr(Resource, err)
	}
	for _, p := range primes {
		*out = append(*out, T(p))
	}
	return nil
}

// GenerateNPrimes appends the first n primes at or after start to *out,
// ascending, growing the search window geometrically until n primes are
// found.
func GenerateNPrimes[T Integer](n int, start uint64, out *[]T) error {
	if n < 0 {
		return newError(ArgumentError, errNegativeCount)
	}
	it := iterator.New()
	if start > 0 {
		it.JumpTo(start-1, 0)
	} else {
		it.JumpTo(0, 0)
	}
	for i := 0; i < n; i++ {
		p, err := it.NextPrime()
		if err != nil {
			return wrapErr(OutOfRange, err)
		}
		*out = append(*out, T(p))
	}
	return nil
}
