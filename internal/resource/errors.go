package resource

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrInvalidQuery      = errors.New("invalid query")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
)

// Error lleva el mensaje que ve el cliente para uno de los sentinels de arriba.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Invalidf construye un ErrValidation con mensaje.
func Invalidf(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func Conflictf(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

func Forbiddenf(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

// Unauthenticated es el error para operaciones que exigen identidad.
func Unauthenticated() error {
	return &Error{Kind: ErrUnauthorized, Msg: "authentication required"}
}
