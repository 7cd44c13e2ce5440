package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetSieveSizeRoundsUpToPowerOfTwo(t *testing.T) {
	require.NoError(t, SetSieveSize(100))
	require.Equal(t, 128, SieveSize())
	require.Equal(t, 128*1024, SieveSizeBytes())
}

func TestSetSieveSizeRejectsOutOfRange(t *testing.T) {
	require.Error(t, SetSieveSize(MinSieveSizeKiB-1))
	require.Error(t, SetSieveSize(MaxSieveSizeKiB+1))
}

func TestSetNumThreadsRejectsOutOfRange(t *testing.T) {
	require.Error(t, SetNumThreads(0))
	require.NoError(t, SetNumThreads(1))
	require.Equal(t, 1, NumThreads())
}

func TestDefaultsAreInitializedLazily(t *testing.T) {
	require.GreaterOrEqual(t, SieveSize(), MinSieveSizeKiB)
	require.GreaterOrEqual(t, NumThreads(), 1)
}
