package erat

import (
	"github.com/pchuck/primesieve/internal/bucket"
	"github.com/pchuck/primesieve/wheel"
)

// Medium crosses off multiples of primes that recur a few times per
// segment (spec §4.4). Storing one entry per slice slot as Small does
// would mean scanning the whole slice every segment even once a prime's
// density has dropped; Medium instead keeps its primes in a bucket list
// that is replayed, and rewritten in place, every segment.
type Medium struct {
	list bucket.List
	pool *bucket.MemoryPool
}

// NewMedium returns an empty classifier drawing buckets from pool.
func NewMedium(pool *bucket.MemoryPool) *Medium {
	return &Medium{pool: pool}
}

// Add stores a new sieving prime, allocating a bucket from the pool if
// the current tail is full.
func (m *Medium) Add(prime, multipleOffset uint64, wheelIndex uint8) error {
	return m.list.Append(m.pool, bucket.Slot{Prime: prime, MultipleOffset: multipleOffset, WheelIndex: wheelIndex})
}

// Empty reports whether Medium currently tracks no primes.
func (m *Medium) Empty() bool { return m.list.Empty() }

// CrossOff walks every bucket's slots, clearing multiples that fall
// within [0, sieveSize) and rewriting each slot's offset/wheelIndex for
// next segment in place — no bucket ever needs to move between lists.
func (m *Medium) CrossOff(sieve []byte, sieveSize uint64) {
	for b := m.list.Head(); b != nil; b = b.Next {
		slots := b.Slots()
		for i := range slots {
			s := &slots[i]
			col := wheel.ResidueIndex(s.Prime)
			offset, wi := s.MultipleOffset, s.WheelIndex
			for offset < sieveSize {
				offset, wi = step(sieve, offset, wi, s.Prime, col)
			}
			s.MultipleOffset = offset - sieveSize
			s.WheelIndex = wi
		}
	}
}
