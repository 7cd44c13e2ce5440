// Package config holds process-wide sieve-size and thread-count
// settings (spec §6.1): init-at-first-use defaults, settable once and
// read many times from any goroutine.
package config

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Sieve size bounds in KiB, per spec §6.1.
const (
	MinSieveSizeKiB = 16
	MaxSieveSizeKiB = 8192

	defaultSieveSizeKiB = 32 // a conservative stand-in for "L1 cache size"
)

var (
	once         sync.Once
	sieveSizeKiB atomic.Int64
	numThreads   atomic.Int64
)

func ensureDefaults() {
	once.Do(func() {
		sieveSizeKiB.Store(defaultSieveSizeKiB)
		numThreads.Store(int64(runtime.GOMAXPROCS(0)))
	})
}

// SetSieveSize sets the segment width in KiB, rounded up to the next
// power of two, after validating it against [MinSieveSizeKiB,
// MaxSieveSizeKiB].
func SetSieveSize(kib int) error {
	if kib < MinSieveSizeKiB || kib > MaxSieveSizeKiB {
		return errors.Errorf("config: sieve size %d KiB out of range [%d, %d]", kib, MinSieveSizeKiB, MaxSieveSizeKiB)
	}
	ensureDefaults()
	sieveSizeKiB.Store(int64(roundUpPow2(kib)))
	return nil
}

// SieveSize returns the current segment width in KiB.
func SieveSize() int {
	ensureDefaults()
	return int(sieveSizeKiB.Load())
}

// SieveSizeBytes returns the current segment width in bytes, as the
// sieve driver expects it.
func SieveSizeBytes() int {
	return SieveSize() * 1024
}

// SetNumThreads sets the worker count for the parallel driver, after
// validating it against [1, GOMAXPROCS(0)].
func SetNumThreads(n int) error {
	max := runtime.GOMAXPROCS(0)
	if n < 1 || n > max {
		return errors.Errorf("config: thread count %d out of range [1, %d]", n, max)
	}
	ensureDefaults()
	numThreads.Store(int64(n))
	return nil
}

// NumThreads returns the current worker count for the parallel driver.
func NumThreads() int {
	ensureDefaults()
	return int(numThreads.Load())
}

func roundUpPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
