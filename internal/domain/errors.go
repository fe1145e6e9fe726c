package domain

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrTokenNotFound    = errors.New("reset token not found")
	ErrTokenExpired     = errors.New("reset token expired")
	ErrSessionInvalid   = errors.New("session is invalid or expired")
)

type ErrorKind string

const (
	KindValidation ErrorKind = "VALIDATION"
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindExpired    ErrorKind = "EXPIRED"
	KindMismatch   ErrorKind = "MISMATCH"
	KindConflict   ErrorKind = "CONFLICT"
	KindDependency ErrorKind = "DEPENDENCY_ERROR"
)

// KindOf classifies err into the auth error taxonomy. Anything that is not one
// of the domain sentinels is a dependency failure.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrTokenNotFound), errors.Is(err, ErrSessionInvalid):
		return KindNotFound
	case errors.Is(err, ErrTokenExpired):
		return KindExpired
	case errors.Is(err, ErrPasswordMismatch):
		return KindMismatch
	case errors.Is(err, ErrUserExists):
		return KindConflict
	default:
		return KindDependency
	}
}
