// Package parallel partitions [start, stop] into aligned sub-intervals
// and runs one independent engine.Driver per worker, per spec §4.9.
// Fork-join uses golang.org/x/sync/errgroup, the only concurrency
// primitive the driver itself ever touches (spec §5: "the parallel
// driver is the only fork-join point").
package parallel

import (
	"context"
	"math/bits"
	"sort"

	"github.com/pchuck/primesieve/config"
	"github.com/pchuck/primesieve/internal/engine"
	"github.com/pchuck/primesieve/wheel"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// chunk is one worker's aligned sub-interval.
type chunk struct {
	index       int
	start, stop uint64
}

// partition splits [start, stop] into up to numThreads chunks, each
// aligned to a multiple of 30*sieveSizeBytes so no chunk boundary falls
// mid-segment (spec §4.9).
func partition(start, stop uint64, numThreads, sieveSizeBytes int) []chunk {
	align := uint64(sieveSizeBytes) * wheel.NumbersPerByte
	span := stop - (start - start%align) + 1
	chunkSpan := span / uint64(numThreads)
	if chunkSpan < align {
		chunkSpan = align
	}
	chunkSpan = ((chunkSpan + align - 1) / align) * align

	var chunks []chunk
	low := start
	for low <= stop {
		high := low - low%align + chunkSpan - 1
		if high > stop {
			high = stop
		}
		chunks = append(chunks, chunk{index: len(chunks), start: low, stop: high})
		if high == stop {
			break
		}
		low = high + 1
	}
	return chunks
}

// countConsumer sums popcount(sieve) across every segment it sees.
type countConsumer struct{ count uint64 }

func (c *countConsumer) Consume(sieve []byte, sieveSize int, segmentLow uint64) error {
	for _, b := range sieve[:sieveSize] {
		c.count += uint64(bits.OnesCount8(b))
	}
	return nil
}

// CountPrimes sums counts from numThreads independent drivers run over
// disjoint, aligned sub-intervals (spec §4.9: "For counting, workers
// return integers and the caller sums").
func CountPrimes(ctx context.Context, start, stop uint64, numThreads int) (uint64, error) {
	if numThreads < 1 {
		numThreads = 1
	}
	sieveSize := config.SieveSizeBytes()
	chunks := partition(start, stop, numThreads, sieveSize)

	var total atomic.Uint64
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range chunks {
		ch := ch
		g.Go(func() error {
			d, err := engine.New(ch.start, ch.stop, sieveSize, 0, nil)
			if err != nil {
				return errors.Wrapf(err, "parallel: chunk %d", ch.index)
			}
			c := &countConsumer{}
			if err := d.Run(gctx, c); err != nil {
				return errors.Wrapf(err, "parallel: chunk %d", ch.index)
			}
			total.Add(c.count)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	n := total.Load()
	// 2, 3 and 5 have no bit in the wheel-30 sieve and are counted here.
	for _, p := range [...]uint64{2, 3, 5} {
		if p >= start && p <= stop {
			n++
		}
	}
	return n, nil
}

// listConsumer appends every prime a single chunk's driver sees.
type listConsumer struct{ primes []uint64 }

func (c *listConsumer) Consume(sieve []byte, sieveSize int, segmentLow uint64) error {
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

// GeneratePrimes runs one driver per chunk and appends their output to
// out in ascending, global order. Per-chunk output is buffered and
// flushed in chunk order (spec §4.9 and §5's ordering guarantee for the
// enumeration path), since chunks themselves may finish out of order.
func GeneratePrimes(ctx context.Context, start, stop uint64, numThreads int, out *[]uint64) error {
	if numThreads < 1 {
		numThreads = 1
	}
	sieveSize := config.SieveSizeBytes()
	chunks := partition(start, stop, numThreads, sieveSize)

	results := make([][]uint64, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range chunks {
		ch := ch
		g.Go(func() error {
			d, err := engine.New(ch.start, ch.stop, sieveSize, 0, nil)
			if err != nil {
				return errors.Wrapf(err, "parallel: chunk %d", ch.index)
			}
			c := &listConsumer{}
			if err := d.Run(gctx, c); err != nil {
				return errors.Wrapf(err, "parallel: chunk %d", ch.index)
			}
			results[ch.index] = c.primes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// 2, 3 and 5 have no bit in the wheel-30 sieve and are added here.
	for _, p := range [...]uint64{2, 3, 5} {
		if p >= start && p <= stop {
			*out = append(*out, p)
		}
	}
	for _, primes := range results {
		*out = append(*out, primes...)
	}
	return nil
}

// callbackConsumer invokes fn(prime, threadIndex) for every prime it
// sees, with no mutual exclusion — the caller owns accumulation (spec
// §4.9's "parallel callback" variant).
type callbackConsumer struct {
	threadIndex int
	fn          func(prime uint64, threadIndex int)
}

func (c *callbackConsumer) Consume(sieve []byte, sieveSize int, segmentLow uint64) error {
	for byteIdx := 0; byteIdx < sieveSize; byteIdx++ {
		b := sieve[byteIdx]
		if b == 0 {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&wheel.BitValues[bit] != 0 {
				c.fn(segmentLow+uint64(byteIdx)*30+wheel.Residues[bit], c.threadIndex)
			}
		}
	}
	return nil
}

// RunCallback dispatches fn(prime, threadIndex) from numThreads workers
// with no ordering or mutual-exclusion guarantees: the caller is
// responsible for any per-thread accumulator and its final reduction
// (spec §4.9, mirroring original_source/examples/parallel_callback.cpp).
func RunCallback(ctx context.Context, start, stop uint64, numThreads int, fn func(prime uint64, threadIndex int)) error {
	if numThreads < 1 {
		numThreads = 1
	}
	sieveSize := config.SieveSizeBytes()
	chunks := partition(start, stop, numThreads, sieveSize)

	// 2, 3 and 5 have no bit in the wheel-30 sieve; they are passed to fn
	// here, as thread 0, before the workers start.
	for _, p := range [...]uint64{2, 3, 5} {
		if p >= start && p <= stop {
			fn(p, 0)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ch := range chunks {
		ch := ch
		g.Go(func() error {
			d, err := engine.New(ch.start, ch.stop, sieveSize, 0, nil)
			if err != nil {
				return errors.Wrapf(err, "parallel: chunk %d", ch.index)
			}
			c := &callbackConsumer{threadIndex: ch.index, fn: fn}
			return errors.Wrapf(d.Run(gctx, c), "parallel: chunk %d", ch.index)
		})
	}
	return g.Wait()
}

// sortUint64s sorts s ascending in place. Nothing in this package calls
// it; only TestSortUint64sOrdersAscending exercises it.
func sortUint64s(s []uint64) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
