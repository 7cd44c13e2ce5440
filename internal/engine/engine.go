// Package engine implements the segmented sieve driver (spec §4.7): it
// owns one PreSieve, one MemoryPool and the three Erat* classifiers for
// a single goroutine's share of [start, stop], and feeds each finished
// segment's byte array to a Consumer. Grounded on
// original_source/src/primesieve/SievingPrimes.cpp's driving loop and
// segmented_sieve.cpp.
package engine

import (
	"context"
	"math"

	"github.com/pchuck/primesieve/internal/bucket"
	"github.com/pchuck/primesieve/internal/erat"
	"github.com/pchuck/primesieve/internal/presieve"
	"github.com/pchuck/primesieve/internal/sieving"
	"github.com/pchuck/primesieve/wheel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MaxStop is the largest stop value a driver will sieve to (spec §1:
// 2^64 - 2^32*10 - 1, the largest value below 2^64 - 2^32*10).
const MaxStop = ^uint64(0) - uint64(1)<<32*10

// ErrOutOfRange is returned by New when start > stop or stop > MaxStop.
var ErrOutOfRange = errors.New("engine: start after stop, or stop exceeds the maximum supported value")

// Consumer receives one fully crossed-off, boundary-masked segment at a
// time. sieve[:sieveSize] is valid for the duration of the call only —
// the driver reuses the same backing array for every segment.
type Consumer interface {
	Consume(sieve []byte, sieveSize int, segmentLow uint64) error
}

// Driver sieves [start, stop] one segment at a time.
type Driver struct {
	start, stop uint64
	sieveSize   int // bytes

	segmentLow uint64
	sieve      []byte

	pre    *presieve.PreSieve
	small  *erat.Small
	medium *erat.Medium
	big    *erat.Big
	pool   *bucket.MemoryPool

	primes      *sieving.Generator
	pending     uint64
	hasPending  bool
	smallMax    uint64
	mediumMax   uint64

	log *zap.SugaredLogger

	// onSegment, when set, is called after every segment is sieved but
	// before Consume, so a caller can drive a best-effort status report
	// (spec §1: "progress/status UI beyond a best-effort hook" is the
	// one piece of status reporting explicitly still in scope).
	onSegment func(segmentLow, stop uint64)
}

// SetProgressHook installs fn to be called with (segmentLow, stop) once
// per segment, for a best-effort status display. Passing nil disables
// the hook (the default).
func (d *Driver) SetProgressHook(fn func(segmentLow, stop uint64)) {
	d.onSegment = fn
}

// New validates [start, stop], aligns the first segment to a multiple of
// 30, and initializes PreSieve, the MemoryPool and the sieving-prime
// generator. sieveSizeBytes is the segment width; maxPoolBytes bounds the
// MemoryPool (0 selects bucket.DefaultMaxAllocBytes).
func New(start, stop uint64, sieveSizeBytes int, maxPoolBytes int64, log *zap.SugaredLogger) (*Driver, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if start > stop || stop > MaxStop {
		return nil, errors.Wrapf(ErrOutOfRange, "start=%d stop=%d", start, stop)
	}

	pre := presieve.New(start, stop)
	pool := bucket.New(maxPoolBytes, log)
	smallMax, mediumMax := erat.ThresholdsForSieveSize(sieveSizeBytes)
	ringSize := erat.RingSize(stop, sieveSizeBytes)

	sqrtStop := uint64(math.Sqrt(float64(stop))) + 2

	d := &Driver{
		start:      start,
		stop:       stop,
		sieveSize:  sieveSizeBytes,
		segmentLow: (start / wheel.NumbersPerByte) * wheel.NumbersPerByte,
		sieve:      make([]byte, sieveSizeBytes),
		pre:        pre,
		small:      erat.NewSmall(),
		medium:     erat.NewMedium(pool),
		big:        erat.NewBig(pool, sieveSizeBytes, ringSize),
		pool:       pool,
		primes:     sieving.New(sqrtStop),
		smallMax:   smallMax,
		mediumMax:  mediumMax,
		log:        log,
	}
	log.Debugw("engine initialized", "start", start, "stop", stop, "sieveSizeBytes", sieveSizeBytes, "preSieveLimit", pre.Limit())
	return d, nil
}

// Run sieves forward from the aligned start segment through stop,
// calling c.Consume once per segment. It checks ctx between segments
// (spec §5's coarse-grained cooperative cancellation) and, on
// cancellation, returns ctx.Err() after the in-flight segment finishes.
func (d *Driver) Run(ctx context.Context, c Consumer) error {
	for d.segmentLow <= d.stop {
		if err := d.sieveSegment(); err != nil {
			return err
		}
		if d.onSegment != nil {
			d.onSegment(d.segmentLow, d.stop)
		}
		if err := c.Consume(d.sieve, d.sieveSize, d.segmentLow); err != nil {
			return err
		}
		d.segmentLow += uint64(d.sieveSize) * wheel.NumbersPerByte
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

func (d *Driver) sieveSegment() error {
	segmentHigh := d.segmentLow + uint64(d.sieveSize)*wheel.NumbersPerByte

	if err := d.admitSievingPrimes(segmentHigh); err != nil {
		return err
	}

	d.pre.Copy(d.sieve, d.sieveSize, d.segmentLow)
	if d.segmentLow == 0 {
		// The pre-sieve clears every multiple of its primes, the primes
		// themselves included; all of them lie in byte 0 and are set
		// again here.
		for _, p := range [...]uint64{7, 11, 13, 17, 19, 23, 29} {
			if p <= d.pre.Limit() {
				d.sieve[0] |= wheel.BitValues[wheel.IndexOf(p)]
			}
		}
	}
	d.small.CrossOff(d.sieve, uint64(d.sieveSize))
	d.medium.CrossOff(d.sieve, uint64(d.sieveSize))

	currentSegIdx := d.segmentLow / (uint64(d.sieveSize) * wheel.NumbersPerByte)
	if err := d.big.CrossOff(d.sieve, uint64(d.sieveSize), currentSegIdx); err != nil {
		return err
	}

	d.maskBoundaries(segmentHigh)
	return nil
}

// admitSievingPrimes pulls primes from the generator and dispatches each
// one to EratSmall/Medium/Big by size, as soon as its square enters the
// segment currently being prepared (spec §4.7: "if new sieving primes
// are needed ... pull them from SievingPrimes and dispatch ... by
// size").
func (d *Driver) admitSievingPrimes(segmentHigh uint64) error {
	for {
		p, ok := d.nextCandidatePrime()
		if !ok {
			return nil
		}
		if p*p > segmentHigh {
			d.pending, d.hasPending = p, true
			return nil
		}
		d.hasPending = false
		if p <= d.pre.Limit() {
			continue
		}

		m := p * p
		if m < d.segmentLow {
			m = ((d.segmentLow + p - 1) / p) * p
		}
		for wheel.IndexOf(m%30) < 0 {
			m += p
		}
		off, wi := wheel.FirstMultipleOffset(d.segmentLow, m)
		col := wheel.ResidueIndex(p)

		switch {
		case p <= d.smallMax:
			d.small.Add(p, off, wi, col)
		case p <= d.mediumMax:
			if err := d.medium.Add(p, off, wi); err != nil {
				return err
			}
		default:
			currentSegIdx := d.segmentLow / (uint64(d.sieveSize) * wheel.NumbersPerByte)
			if err := d.big.Add(p, off, wi, currentSegIdx); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) nextCandidatePrime() (uint64, bool) {
	if d.hasPending {
		return d.pending, true
	}
	return d.primes.Next()
}

// maskBoundaries clears bits below start (first segment) and above stop
// (last segment), per spec §4.7.
func (d *Driver) maskBoundaries(segmentHigh uint64) {
	isFirst := d.segmentLow <= d.start && d.start < segmentHigh
	isLast := segmentHigh > d.stop
	if !isFirst && !isLast {
		return
	}
	for byteIdx := 0; byteIdx < d.sieveSize; byteIdx++ {
		base := d.segmentLow + uint64(byteIdx)*wheel.NumbersPerByte
		for bit := 0; bit < 8; bit++ {
			n := base + wheel.Residues[bit]
			if (isFirst && n < d.start) || (isLast && n > d.stop) {
				d.sieve[byteIdx] &^= wheel.BitValues[bit]
			}
		}
	}
}
