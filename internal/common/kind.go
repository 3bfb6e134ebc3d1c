package common

import (
	"errors"
	"net/http"
)

// ErrorKind classifies the outcome of a core operation. It travels inside
// results instead of raw errors so transports can map it to a status code.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInvalidInput
	KindUnauthorized
	KindConflict
	KindNotFound
	KindAlreadyInProgress
	KindNoActiveTransaction
	KindInternal
)

var kindNames = map[ErrorKind]string{
	KindNone:                "none",
	KindInvalidInput:        "invalid_input",
	KindUnauthorized:        "unauthorized",
	KindConflict:            "conflict",
	KindNotFound:            "not_found",
	KindAlreadyInProgress:   "already_in_progress",
	KindNoActiveTransaction: "no_active_transaction",
	KindInternal:            "internal",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// KindOf maps an error chain to its ErrorKind. Unrecognised errors are
// Internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrCodeMismatch):
		return KindInvalidInput
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired):
		return KindUnauthorized
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyInProgress):
		return KindAlreadyInProgress
	case errors.Is(err, ErrNoActiveTransaction):
		return KindNoActiveTransaction
	default:
		return KindInternal
	}
}

// HTTPStatus is the status code shared by both transports for a kind.
// Failed sign-in and password checks are reported as 400 so that the
// response does not differ from other malformed requests.
func HTTPStatus(k ErrorKind) int {
	switch k {
	case KindNone:
		return http.StatusOK
	case KindInvalidInput, KindUnauthorized:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
