package preservation

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch on failure class without
// string matching or catch-all handlers.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindIO
	KindPersistence
	KindIngestion
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindIO:
		return "io"
	case KindPersistence:
		return "persistence"
	case KindIngestion:
		return "ingestion"
	case KindCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Error is the single error type raised by the preservation core.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

// Errf creates a new Error of the given kind.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a kind and message prefix. The original error stays
// reachable through errors.Unwrap.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// KindOf extracts the Kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
