// Package errs implements the error-kind taxonomy shared by every layer of
// the resolution pipeline. A single tagged type is used instead of one
// struct per kind because all kinds share the same wrapping and
// propagation rules.
package errs

import "fmt"

// Kind classifies why an operation failed.
type Kind int

const (
	// Network covers transport failures and non-2xx responses other than 404.
	Network Kind = iota
	// NotFound is an HTTP 404 from the catalog.
	NotFound
	// Parse covers malformed decklist lines and unresolvable names.
	Parse
	// Cache covers disk I/O failures and corrupt metadata.
	Cache
	// Protocol covers a JSON response missing a required field.
	Protocol
	// Cancelled covers an operation halted by context cancellation.
	Cancelled
	// RateLimited is never produced internally; reserved for upstream surfacing.
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "network"
	case NotFound:
		return "not_found"
	case Parse:
		return "parse"
	case Cache:
		return "cache"
	case Protocol:
		return "protocol"
	case Cancelled:
		return "cancelled"
	case RateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Error is the single error type used across the pipeline. Line is set
// when the error is attributable to a specific decklist source line
// (0 means unset).
type Error struct {
	Kind    Kind
	Op      string
	Line    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	prefix := e.Op
	if e.Line > 0 {
		prefix = fmt.Sprintf("%s (line %d)", prefix, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error of the given kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap constructs an *Error of the given kind wrapping err.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: err.Error(), Err: err}
}

// WithLine returns a copy of e tagged with a decklist source line number.
func (e *Error) WithLine(line int) *Error {
	cp := *e
	cp.Line = line
	return &cp
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if err == nil {
		return false
	}
	if as, ok := err.(*Error); ok {
		e = as
	} else if errIs, ok := err.(interface{ Unwrap() error }); ok {
		return Is(errIs.Unwrap(), kind)
	} else {
		return false
	}
	return e.Kind == kind
}

// IsNotFound reports whether err is a NotFound-kind error.
func IsNotFound(err error) bool { return Is(err, NotFound) }
