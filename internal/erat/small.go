package erat

// entry is a single sieving prime tracked by Small: its value, the
// byte-offset of its next multiple relative to the current segment, the
// wheel index describing which bit that multiple occupies, and the
// wheel-table column for its own residue class (constant for the
// prime's lifetime, cached to avoid recomputing it every segment).
type entry struct {
	prime      uint64
	offset     uint64
	wheelIndex uint8
	col        int
}

// Small crosses off multiples of primes that recur many times within a
// single segment (spec §4.3). It works directly on the segment's byte
// array with a plain slice of entries — bucketing would cost more than
// it saves for primes this dense.
type Small struct {
	entries []entry
}

// NewSmall returns an empty classifier.
func NewSmall() *Small { return &Small{} }

// Add stores a new sieving prime. multipleOffset/wheelIndex describe its
// first relevant multiple relative to the segment in which Add is
// called.
func (s *Small) Add(prime, multipleOffset uint64, wheelIndex uint8, col int) {
	s.entries = append(s.entries, entry{prime: prime, offset: multipleOffset, wheelIndex: wheelIndex, col: col})
}

// Len reports how many sieving primes this classifier currently tracks.
func (s *Small) Len() int { return len(s.entries) }

// CrossOff clears, for every stored prime, all multiples that fall
// within [0, sieveSize) of sieve, carrying the remainder over into the
// next segment (spec §4.3: "the final (offset - sieveSize, wheelIndex)
// is stored back").
func (s *Small) CrossOff(sieve []byte, sieveSize uint64) {
	for i := range s.entries {
		e := &s.entries[i]
		offset, wi := e.offset, e.wheelIndex
		for offset < sieveSize {
			offset, wi = step(sieve, offset, wi, e.prime, e.col)
		}
		e.offset = offset - sieveSize
		e.wheelIndex = wi
	}
}
