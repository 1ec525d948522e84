package taxlot

import (
	"errors"
	"fmt"
)

// Kind classifies a reconciliation or estimation failure. Expected
// "no match" conditions are not errors at all, they are reported through
// ok-style returns.
type Kind int

const (
	// KindDataGap marks a recoverable gap in acquisition data; the engine
	// degrades to a synthetic lot and a warning.
	KindDataGap Kind = iota
	// KindValidation marks logically impossible input, rejected at ingestion.
	KindValidation
	// KindComputation marks an unsupported equity type or missing source
	// event data; fatal for one sale/lot, never for the batch.
	KindComputation
	// KindConfiguration marks a missing bracket or exemption table for a
	// requested year; fatal for that computation only.
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindDataGap:
		return "data_gap"
	case KindValidation:
		return "validation"
	case KindComputation:
		return "computation"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is the domain error type. It wraps an optional cause and carries a
// Kind so callers can route on it with errors.As.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a domain error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
