package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the HTTP layer can pick a status code
// without inspecting error messages.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidType
	KindConflict
	KindBadInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidType:
		return "invalid_type"
	case KindConflict:
		return "conflict"
	case KindBadInput:
		return "bad_input"
	default:
		return "internal"
	}
}

// Error carries a kind plus a human-readable detail. The detail is safe to
// return to clients; wrapped causes are not.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func NotFound(detail string) *Error    { return New(KindNotFound, detail) }
func Forbidden(detail string) *Error   { return New(KindForbidden, detail) }
func InvalidType(detail string) *Error { return New(KindInvalidType, detail) }
func Conflict(detail string) *Error    { return New(KindConflict, detail) }
func BadInput(detail string) *Error    { return New(KindBadInput, detail) }

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Detail: "internal error", Err: err}
}

// KindOf extracts the kind from an error chain. Errors that never passed
// through this package report KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
