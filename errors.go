package primesieve

import "github.com/pkg/errors"

// Kind classifies why a primesieve operation failed (spec §7).
type Kind int

const (
	// OutOfRange means start/stop fell outside the supported interval.
	OutOfRange Kind = iota
	// Overflow means an internal computation would exceed the maximum
	// supported stop value.
	Overflow
	// Resource means a MemoryPool or similar internal allocator was
	// exhausted.
	Resource
	// ArgumentError means a caller-supplied argument (sieve size,
	// thread count, n) was invalid.
	ArgumentError
	// NthPrimeUnderflow means an nth-prime search walked below the
	// bottom of the number line before finding its target.
	NthPrimeUnderflow
)

func (k Kind) String() string {
	switch k {
	case OutOfRange:
		return "out of range"
	case Overflow:
		return "overflow"
	case Resource:
		return "resource"
	case ArgumentError:
		return "argument error"
	case NthPrimeUnderflow:
		return "nth prime underflow"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every exported primesieve
// operation: a Kind plus the underlying cause, so callers can match on
// either via errors.Is/errors.As.
type Error struct {
	Kind  Kind
	cause error
}

func newError(k Kind, cause error) *Error {
	return &Error{Kind: k, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.cause.Error()
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As can see
// through to it, in addition to matching on the Kind itself via Is.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is lets errors.Is(err, SomeKind) work by comparing Kind values
// directly, without requiring callers to construct an *Error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

// Error satisfies the error interface for Kind itself, so callers can
// write errors.Is(err, primesieve.OutOfRange) against a bare Kind.
func (k Kind) Error() string { return k.String() }

func wrapErr(k Kind, cause error) error {
	if cause == nil {
		return nil
	}
	return newError(k, errors.WithStack(cause))
}
