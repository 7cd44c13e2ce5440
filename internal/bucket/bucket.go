// Package bucket implements the fixed-capacity sieving-prime buckets and
// the pool that hands them out, used by EratMedium and EratBig to store
// primes whose multiples fall only occasionally within a segment.
package bucket

import (
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Capacity is the number of sieving primes a single Bucket holds, a power
// of two as in spec §3. The Bucket itself (Capacity slots plus a count
// and a link) is not a power of two in bytes.
const Capacity = 1024

// InitialBuckets is the size of the pool's first slab allocation.
const InitialBuckets = 128

// GrowthNumerator / GrowthDenominator express the <= 9/8 growth factor
// the pool applies to its slab size on each subsequent allocation.
const (
	GrowthNumerator   = 9
	GrowthDenominator = 8
)

// DefaultMaxAllocBytes bounds the total memory the pool may hand out,
// per spec §5's "MAX_ALLOC_BYTES (configurable; default ~1 GiB total)".
const DefaultMaxAllocBytes = 1 << 30

// Slot is a single (sieving-prime, multiple-offset, wheel-index) record —
// the SievingPrime 2-tuple from spec §3, with the owning prime carried
// alongside it so a bucket never needs to recover it by other means.
type Slot struct {
	Prime          uint64
	MultipleOffset uint64
	WheelIndex     uint8
}

// Bucket is a fixed-capacity run of Slots plus a link to the next bucket
// in its list. Go has no natural-alignment pointer-masking trick (spec
// §9's restated "bucket-owner recovery"), so ownership is tracked purely
// through this Next link: callers walk the list, they never need to
// recover a Bucket from a Slot.
type Bucket struct {
	slots [Capacity]Slot
	count int
	Next  *Bucket
}

// Len reports how many slots are occupied.
func (b *Bucket) Len() int { return b.count }

// Full reports whether the bucket has no more room.
func (b *Bucket) Full() bool { return b.count == Capacity }

// Append stores a slot. The caller must check Full first.
func (b *Bucket) Append(s Slot) {
	b.slots[b.count] = s
	b.count++
}

// Slots returns the occupied portion of the bucket's backing array.
func (b *Bucket) Slots() []Slot { return b.slots[:b.count] }

// reset clears a bucket for reuse, dropping its stale Next link.
func (b *Bucket) reset() {
	b.count = 0
	b.Next = nil
}

// MemoryPool pre-allocates slabs of Buckets and serves them on demand,
// avoiding a per-bucket allocation/deallocation on the sieving hot path
// (spec §3's MemoryPool, grounded on original_source/src/MemoryPool.cpp).
// A MemoryPool is owned and mutated exclusively by a single sieve driver
// goroutine; spec §5 forbids sharing it across threads.
type MemoryPool struct {
	free         *Bucket
	slabs        [][]Bucket
	nextSlabSize int
	allocated    atomic.Int64
	maxBytes     int64
	log          *zap.SugaredLogger
}

// New creates a pool bounded by maxBytes total bucket memory. A nil log
// disables pool lifecycle logging.
func New(maxBytes int64, log *zap.SugaredLogger) *MemoryPool {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxAllocBytes
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &MemoryPool{
		nextSlabSize: InitialBuckets,
		maxBytes:     maxBytes,
		log:          log,
	}
}

// Get returns a fresh, empty Bucket, growing the pool if its free stock
// is empty. Returns a Resource-kind error if the byte budget is
// exhausted.
func (p *MemoryPool) Get() (*Bucket, error) {
	if p.free == nil {
		if err := p.allocateSlab(); err != nil {
			return nil, err
		}
	}
	b := p.free
	p.free = b.Next
	b.Next = nil
	return b, nil
}

// Put returns a bucket (and the rest of its list, if any) to the pool's
// free stock for reuse.
func (p *MemoryPool) Put(b *Bucket) {
	for b != nil {
		next := b.Next
		b.reset()
		b.Next = p.free
		p.free = b
		b = next
	}
}

// AllocatedBytes reports the total bytes the pool has handed out across
// all slabs so far.
func (p *MemoryPool) AllocatedBytes() int64 { return p.allocated.Load() }

func (p *MemoryPool) allocateSlab() error {
	size := p.nextSlabSize
	const bucketBytes = int64(Capacity)*24 + 16 // approx Slot size + bookkeeping
	wouldBe := p.allocated.Load() + int64(size)*bucketBytes
	if wouldBe > p.maxBytes {
		size = int(max64(0, (p.maxBytes-p.allocated.Load())/bucketBytes))
		if size < 1 {
			p.log.Errorw("memory pool exhausted", "allocatedBytes", p.allocated.Load(), "maxBytes", p.maxBytes)
			return errors.Wrapf(ErrExhausted, "memory pool: allocated %d bytes, cap %d", p.allocated.Load(), p.maxBytes)
		}
	}

	slab := make([]Bucket, size)
	p.slabs = append(p.slabs, slab)
	for i := range slab {
		slab[i].reset()
		if i+1 < len(slab) {
			slab[i].Next = &slab[i+1]
		}
	}
	slab[len(slab)-1].Next = p.free
	p.free = &slab[0]

	p.allocated.Add(int64(size) * bucketBytes)
	p.log.Debugw("memory pool grew", "buckets", size, "totalBytes", p.allocated.Load())

	p.nextSlabSize = size * GrowthNumerator / GrowthDenominator
	if p.nextSlabSize <= size {
		p.nextSlabSize = size + 1
	}
	return nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// ErrExhausted is the sentinel cause wrapped into a Resource-kind error
// when the pool's byte budget is exceeded.
var ErrExhausted = errors.New("memory pool: allocation budget exhausted")

// List is a singly-linked chain of Buckets being appended to, tracking
// its own tail so Append is O(1).
type List struct {
	head, tail *Bucket
}

// Append stores a slot, pulling a fresh bucket from pool when the
// current tail is full or the list is empty. Returns the (possibly new)
// resource error from the pool.
func (l *List) Append(pool *MemoryPool, s Slot) error {
	if l.tail == nil || l.tail.Full() {
		b, err := pool.Get()
		if err != nil {
			return err
		}
		if l.head == nil {
			l.head = b
		} else {
			l.tail.Next = b
		}
		l.tail = b
	}
	l.tail.Append(s)
	return nil
}

// Head returns the first bucket in the list, or nil if empty.
func (l *List) Head() *Bucket { return l.head }

// Empty reports whether the list holds no buckets.
func (l *List) Empty() bool { return l.head == nil }

// Clear detaches the list (the caller is expected to have already
// returned its buckets to a pool via pool.Put(list.Head())).
func (l *List) Clear() { l.head, l.tail = nil, nil }
