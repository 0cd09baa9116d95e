package models

import (
	"errors"
	"fmt"
)

// Kind distinguishes domain failures so transports can map them.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindAuth                Kind = "AuthError"
	KindInsufficientFunds   Kind = "InsufficientFunds"
	KindInsufficientShares  Kind = "InsufficientShares"
	KindNoPosition          Kind = "NoPosition"
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	KindNotFound            Kind = "NotFound"
	KindConflict            Kind = "Conflict"
)

// Error is a domain error carrying a Kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNoPosition)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation          = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrAuth                = &Error{Kind: KindAuth, Message: "unauthorized"}
	ErrInsufficientFunds   = &Error{Kind: KindInsufficientFunds, Message: "not enough cash"}
	ErrInsufficientShares  = &Error{Kind: KindInsufficientShares, Message: "not enough shares"}
	ErrNoPosition          = &Error{Kind: KindNoPosition, Message: "no open position"}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable, Message: "price unavailable"}
	ErrNotFound            = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict            = &Error{Kind: KindConflict, Message: "already exists"}
)

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when err
// is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
