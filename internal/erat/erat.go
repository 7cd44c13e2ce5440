// Package erat implements the three sieving-prime classifiers described
// in spec §4.3-§4.5: EratSmall crosses off multiples directly in the
// segment byte array every segment; EratMedium stores primes in one
// bucket list replayed every segment; EratBig stores primes in a ring of
// future-segment-indexed bucket lists for primes with at most one
// multiple every many segments. All three share the wheel-30 stepping
// primitive below.
package erat

import "github.com/pchuck/primesieve/wheel"

// step clears one bit for prime's current multiple (at byteOffset within
// sieve, encoded by wheelIndex) and returns the next multiple's position.
func step(sieve []byte, byteOffset uint64, wheelIndex uint8, prime uint64, col int) (nextOffset uint64, nextWheelIndex uint8) {
	tr := wheel.Table[wheelIndex][col]
	sieve[byteOffset] &^= tr.Mask
	// MultipleIncrement counts multiples of prime (number space), so the
	// step is taken on the number and converted back to a byte offset.
	next := byteOffset*wheel.NumbersPerByte + wheel.Residues[wheelIndex] + tr.MultipleIncrement*prime
	return next / wheel.NumbersPerByte, tr.NextWheelIndex
}

// ThresholdsForSieveSize returns the (small, medium) prime boundaries for
// a segment of sieveSizeBytes bytes, per the classifier-threshold open
// question in spec §9: EratSmall takes primes up to roughly one segment
// width (many multiples per segment); EratMedium takes primes up to
// MediumFactor segment-widths (a handful of multiples per segment);
// everything above that goes to EratBig. Correctness does not depend on
// the exact split — see erat_test.go's ThresholdInvariance case.
func ThresholdsForSieveSize(sieveSizeBytes int) (smallMax, mediumMax uint64) {
	small := uint64(sieveSizeBytes) * wheel.NumbersPerByte
	medium := small * MediumFactor
	return small, medium
}

// MediumFactor sets how many segment-widths' worth of primes EratMedium
// handles before EratBig takes over.
const MediumFactor = 16
