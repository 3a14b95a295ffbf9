// Package apperrors classifies failures so the transport layer can map them
// to response categories without inspecting messages.
package apperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindDomain
	KindConflict
	KindAllocationExhausted
	KindUnauthorized
	KindForbidden
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindDomain:
		return "domain"
	case KindConflict:
		return "conflict"
	case KindAllocationExhausted:
		return "allocation_exhausted"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Error is a classified error. Err carries the underlying cause, if any, for
// diagnostics; Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrCannotCancel       = &Error{Kind: KindDomain, Message: "cannot cancel parcel after dispatch"}
	ErrAlreadyCancelled   = &Error{Kind: KindDomain, Message: "parcel already cancelled"}
	ErrParcelBlocked      = &Error{Kind: KindDomain, Message: "parcel is blocked"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "invalid credentials"}
	ErrUserBlocked        = &Error{Kind: KindForbidden, Message: "user is blocked"}
	ErrTooManyRequests    = &Error{Kind: KindRateLimited, Message: "too many attempts, try again later"}
)

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// AllocationExhausted reports that no free identifier was found within the
// retry budget. last is the final collision or error observed.
func AllocationExhausted(what string, attempts int, last error) error {
	return &Error{
		Kind:    KindAllocationExhausted,
		Message: fmt.Sprintf("failed to allocate a unique %s after %d attempts, please try again", what, attempts),
		Err:     last,
	}
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// PublicMessage returns the client-safe message of a classified error.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// DuplicateError is returned by storage when a write violates a uniqueness
// constraint. Field names the logical column (tracking_id, short_id, email).
type DuplicateError struct {
	Field string
	Err   error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s: %v", e.Field, e.Err)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// IsDuplicate reports whether err is a uniqueness violation on field.
// An empty field matches any duplicate.
func IsDuplicate(err error, field string) bool {
	var d *DuplicateError
	if !errors.As(err, &d) {
		return false
	}
	return field == "" || d.Field == field
}
