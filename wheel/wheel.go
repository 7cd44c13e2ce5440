// Package wheel implements wheel-30 factorization: the static tables
// that let the segmented sieve skip multiples of 2, 3 and 5 for free by
// packing the 8 residues coprime to 30 into the 8 bits of one byte.
package wheel

// Residues holds the 8 integers in [0, 30) coprime to 30, ascending.
// Bit i of a sieve byte represents the residue Residues[i].
var Residues = [8]uint64{1, 7, 11, 13, 17, 19, 23, 29}

// NumbersPerByte is the span of natural numbers a single sieve byte covers.
const NumbersPerByte = 30

// BitValues holds 1<<i for each bit position, so callers can avoid the
// shift in the hottest part of the crossoff loop.
var BitValues = [8]byte{1, 2, 4, 8, 16, 32, 64, 128}

// residueIndex maps a residue mod 30 to its bit position, or -1 if the
// residue is not coprime to 30.
var residueIndex [30]int8

func init() {
	for i := range residueIndex {
		residueIndex[i] = -1
	}
	for i, r := range Residues {
		residueIndex[r] = int8(i)
	}
}

// IndexOf returns the bit position of residue r (0 <= r < 30), or -1 if r
// shares a factor with 30.
func IndexOf(r uint64) int {
	return int(residueIndex[r%30])
}

// Transition is one row of the wheel's (wheelIndex, primeResidueIndex)
// transition table: advancing a sieving prime p (with p%30 ==
// Residues[primeResidueIndex]) past the multiple currently encoded by
// wheelIndex clears Mask in the sieve byte at the multiple's offset, then
// the next multiple is MultipleIncrement*p further on and is described by
// NextWheelIndex.
type Transition struct {
	Mask              byte
	MultipleIncrement uint64
	NextWheelIndex    uint8
}

// Table is the 8x8 transition table described in spec §4.1: Table[i][j]
// is used when the current wheel index is i and the sieving prime's
// residue class is j (Residues[j] == p%30).
var Table [8][8]Transition

func init() {
	for i, base := range Residues {
		for j, pr := range Residues {
			s, nextResidue := nextCoprimeStep(base, pr)
			Table[i][j] = Transition{
				Mask:              BitValues[i],
				MultipleIncrement: s,
				NextWheelIndex:    uint8(IndexOf(nextResidue)),
			}
		}
	}
}

// nextCoprimeStep finds the smallest s >= 1 such that base + s*pr, taken
// mod 30, is again coprime to 30, and returns that s and the resulting
// residue. base is the current multiple's residue (Residues[i]); pr is
// the sieving prime's own residue (Residues[j] == p%30). Since pr is
// coprime to 30, the walk base+pr, base+2*pr, ... visits every residue
// class mod 30 and is guaranteed to land on a coprime one within 30
// steps; which step, and which residue, depends on both base and pr, so
// this cannot be collapsed into a function of i alone.
func nextCoprimeStep(base, pr uint64) (s uint64, residue uint64) {
	for s = 1; ; s++ {
		residue = (base + s*pr) % 30
		if IndexOf(residue) >= 0 {
			return s, residue
		}
	}
}

// FirstMultipleOffset computes, for a sieving prime p whose first
// relevant multiple is m (m coprime to 30, m a multiple of p), the byte
// offset of m relative to low (low must be a multiple of 30) and the
// wheel index describing which bit of that byte m occupies.
func FirstMultipleOffset(low, m uint64) (byteOffset uint64, wheelIndex uint8) {
	delta := m - low
	byteOffset = delta / 30
	wheelIndex = uint8(IndexOf(delta % 30))
	return
}

// ResidueIndex returns the wheel-table column for a prime p (p must be
// coprime to 30, true for all primes > 5).
func ResidueIndex(p uint64) int {
	return IndexOf(p % 30)
}
