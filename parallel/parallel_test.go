package parallel

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func trialDivisionCount(start, stop uint64) uint64 {
	var n uint64
	for i := start; i <= stop; i++ {
		if isPrime(i) {
			n++
		}
	}
	return n
}

func isPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	for d := uint64(2); d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

func TestPartitionCoversWholeRangeWithoutOverlap(t *testing.T) {
	chunks := partition(100, 100000, 4, 64)
	require.Equal(t, uint64(100), chunks[0].start)
	require.Equal(t, uint64(100000), chunks[len(chunks)-1].stop)
	for i := 1; i < len(chunks); i++ {
		require.Equal(t, chunks[i-1].stop+1, chunks[i].start)
	}
}

func TestCountPrimesMatchesTrialDivision(t *testing.T) {
	got, err := CountPrimes(context.Background(), 0, 10000, 4)
	require.NoError(t, err)
	require.Equal(t, trialDivisionCount(0, 10000), got)
}

func TestCountPrimesSingleThreadMatchesMultiThread(t *testing.T) {
	single, err := CountPrimes(context.Background(), 2, 50000, 1)
	require.NoError(t, err)
	multi, err := CountPrimes(context.Background(), 2, 50000, 8)
	require.NoError(t, err)
	require.Equal(t, single, multi)
}

func TestGeneratePrimesReturnsAscendingGlobalOrder(t *testing.T) {
	var out []uint64
	require.NoError(t, GeneratePrimes(context.Background(), 0, 20000, 5, &out))

	for i := 1; i < len(out); i++ {
		require.Less(t, out[i-1], out[i])
	}
	require.Equal(t, trialDivisionCount(0, 20000), uint64(len(out)))
}

func TestRunCallbackVisitsEveryPrimeExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	seen := map[uint64]int{}
	err := RunCallback(context.Background(), 0, 20000, 4, func(prime uint64, threadIndex int) {
		mu.Lock()
		seen[prime]++
		mu.Unlock()
	})
	require.NoError(t, err)

	want := trialDivisionCount(0, 20000)
	require.Equal(t, int(want), len(seen))
	for p, c := range seen {
		require.Equal(t, 1, c, "prime %d visited %d times", p, c)
	}
}

func TestGeneratePrimesMatchesTrialDivisionExactly(t *testing.T) {
	var out []uint64
	require.NoError(t, GeneratePrimes(context.Background(), 0, 2000, 3, &out))

	var want []uint64
	for i := uint64(0); i <= 2000; i++ {
		if isPrime(i) {
			want = append(want, i)
		}
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("GeneratePrimes(0, 2000) mismatch (-want +got):\n%s", diff)
	}
}

func TestSortUint64sOrdersAscending(t *testing.T) {
	s := []uint64{5, 1, 3}
	sortUint64s(s)
	require.Equal(t, []uint64{1, 3, 5}, s)
}
