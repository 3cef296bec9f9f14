package types

import "errors"

// Decode and sanitization errors.
var (
	// ErrMalformedEncoding indicates the byte layout could not be parsed:
	// bad compact-length prefix, truncated buffer, or trailing garbage.
	ErrMalformedEncoding = errors.New("malformed transaction encoding")

	// ErrSignatureCountOverflow indicates the declared signature count,
	// scaled to bytes, overflows or exceeds the buffer.
	ErrSignatureCountOverflow = errors.New("signature count overflows packet")

	// ErrStructuralViolation indicates a decoded transaction violates a
	// structural invariant (index out of bounds, inconsistent header,
	// duplicate account key).
	ErrStructuralViolation = errors.New("transaction failed sanitization")
)
