package main

import (
	"fmt"

	"github.com/pchuck/primesieve"
)

// countLevel dispatches to the top-level primesieve counting function
// for the requested k-tuplet level (1=primes .. 6=sextuplets).
func countLevel(start, stop uint64, level int) (uint64, error) {
	switch level {
	case 1:
		return primesieve.CountPrimes(start, stop)
	case 2:
		return primesieve.CountTwins(start, stop)
	case 3:
		return primesieve.CountTriplets(start, stop)
	case 4:
		return primesieve.CountQuadruplets(start, stop)
	case 5:
		return primesieve.CountQuintuplets(start, stop)
	case 6:
		return primesieve.CountSextuplets(start, stop)
	default:
		return 0, fmt.Errorf("count: unsupported level %d", level)
	}
}

func nthPrimeCLI(n int64, start uint64) (uint64, error) {
	return primesieve.NthPrime(n, start)
}
