// internal/chain/errors.go
package chain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed read.
type ErrorKind uint8

const (
	// ErrUnknown: not produced by a Reader. Not retried.
	ErrUnknown ErrorKind = 0

	// ErrTransport: timeout, connection reset, rate limiting. Retryable.
	ErrTransport ErrorKind = iota + 1
	// ErrMalformed: the response could not be decoded. Permanent.
	ErrMalformed
	// ErrReverted: the contract call reverted. Permanent.
	ErrReverted
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport"
	case ErrMalformed:
		return "malformed"
	case ErrReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// ReadError is the typed failure of one Reader operation.
type ReadError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *ReadError) Error() string {
	if e == nil {
		return "chain: read error"
	}
	if e.Err == nil {
		return fmt.Sprintf("chain: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("chain: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Errorf builds a ReadError around a formatted cause.
func Errorf(op string, kind ErrorKind, format string, args ...any) error {
	return &ReadError{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err is worth another attempt.
// Deadline errors count as transport failures; cancellation does not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var re *ReadError
	if errors.As(err, &re) {
		return re.Kind == ErrTransport
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// KindOf returns the classification of err. It agrees with IsTransient:
// a bare deadline is a transport failure, any other error that did not
// come from a Reader is ErrUnknown.
func KindOf(err error) ErrorKind {
	var re *ReadError
	if errors.As(err, &re) {
		return re.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransport
	}
	return ErrUnknown
}
