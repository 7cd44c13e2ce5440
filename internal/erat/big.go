package erat

import (
	"github.com/pchuck/primesieve/internal/bucket"
	"github.com/pchuck/primesieve/wheel"
)

// Big crosses off multiples of primes that have at most one multiple per
// segment, often skipping many consecutive segments entirely (spec
// §4.5). It keeps a ring of bucket lists, one per future segment modulo
// ringSize. A prime whose next multiple lies less than one lap ahead is
// enqueued into the list for the segment holding it; one lying further
// ahead is parked in the furthest list and re-enqueued, without crossing
// anything off, each time that list comes due.
type Big struct {
	buckets   []bucket.List
	ringSize  uint64
	sieveSize uint64
	pool      *bucket.MemoryPool
}

// RingSize returns 1 + ceil(sqrt(stop) / (30*sieveSize)), per spec §4.5:
// the number of segments that sqrt(stop) spans, plus one. A step can
// reach up to 6*prime past the current multiple, so a next multiple may
// still lie more than one lap ahead; Big parks such primes (see Big).
func RingSize(stop uint64, sieveSizeBytes int) uint64 {
	segmentSpan := uint64(sieveSizeBytes) * wheel.NumbersPerByte
	isqrtStop := isqrt(stop)
	return 1 + (isqrtStop+segmentSpan-1)/segmentSpan
}

func isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	r := uint64(1) << ((bitsLen(n) + 1) / 2)
	for {
		next := (r + n/r) / 2
		if next >= r {
			return r
		}
		r = next
	}
}

func bitsLen(n uint64) uint {
	var b uint
	for n > 0 {
		b++
		n >>= 1
	}
	return b
}

// NewBig returns an empty classifier. sieveSizeBytes is the segment
// width in bytes; ringSize should come from RingSize.
func NewBig(pool *bucket.MemoryPool, sieveSizeBytes int, ringSize uint64) *Big {
	return &Big{
		buckets:   make([]bucket.List, ringSize),
		ringSize:  ringSize,
		sieveSize: uint64(sieveSizeBytes),
		pool:      pool,
	}
}

// Add stores a new sieving prime. byteOffset is relative to
// currentSegmentIdx's start; wheelIndex describes its first multiple.
func (b *Big) Add(prime, byteOffset uint64, wheelIndex uint8, currentSegmentIdx uint64) error {
	return b.enqueue(prime, byteOffset, wheelIndex, currentSegmentIdx)
}

func (b *Big) enqueue(prime, byteOffset uint64, wheelIndex uint8, currentSegmentIdx uint64) error {
	segmentsAhead := byteOffset / b.sieveSize
	if segmentsAhead >= b.ringSize {
		segmentsAhead = b.ringSize - 1
	}
	offsetWithinSegment := byteOffset - segmentsAhead*b.sieveSize
	target := (currentSegmentIdx + segmentsAhead) % b.ringSize
	return b.buckets[target].Append(b.pool, bucket.Slot{
		Prime:          prime,
		MultipleOffset: offsetWithinSegment,
		WheelIndex:     wheelIndex,
	})
}

// CrossOff clears the one multiple due this segment for every prime in
// the ring slot for currentSegmentIdx, then re-enqueues each prime into
// the slot for wherever its next multiple lands, and finally returns the
// drained list's buckets to the pool. A parked prime (offset beyond this
// segment) is re-enqueued unchanged.
func (b *Big) CrossOff(sieve []byte, sieveSize uint64, currentSegmentIdx uint64) error {
	idx := currentSegmentIdx % b.ringSize
	list := &b.buckets[idx]

	for bk := list.Head(); bk != nil; bk = bk.Next {
		for _, s := range bk.Slots() {
			col := wheel.ResidueIndex(s.Prime)
			offset, wi := s.MultipleOffset, s.WheelIndex
			if offset < sieveSize {
				offset, wi = step(sieve, offset, wi, s.Prime, col)
			}
			if err := b.enqueue(s.Prime, offset, wi, currentSegmentIdx); err != nil {
				return err
			}
		}
	}

	b.pool.Put(list.Head())
	list.Clear()
	return nil
}
