package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsenumAcceptsPowerOfTenForm(t *testing.T) {
	n, err := parsenum("10^6")
	require.NoError(t, err)
	require.Equal(t, uint64(1000000), n)
}

func TestParsenumAcceptsScientificForm(t *testing.T) {
	n, err := parsenum("1e6")
	require.NoError(t, err)
	require.Equal(t, uint64(1000000), n)
}

func TestParsenumAcceptsPlainDecimal(t *testing.T) {
	n, err := parsenum("12345")
	require.NoError(t, err)
	require.Equal(t, uint64(12345), n)
}

func TestParsenumRejectsGarbage(t *testing.T) {
	_, err := parsenum("abc")
	require.Error(t, err)
}

func TestRunCountsPrimesByDefault(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"100"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "primes: 25")
}

func TestRunCountExplicitTwins(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-c=2", "10", "30"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "twins: 3")
}

func TestRunRejectsBadOperand(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"notanumber"}, &out, &errOut)
	require.Equal(t, 1, code)
	require.NotEmpty(t, errOut.String())
}

func TestRunVersionFlag(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-v"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.True(t, strings.HasPrefix(out.String(), "primesieve "))
}

func TestRunSelfTest(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"--test"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "self-test passed")
}

func TestRunNthPrime(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"-n", "10"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "29")
}
