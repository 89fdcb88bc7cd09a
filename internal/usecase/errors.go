package usecase

import (
	"errors"
	"fmt"

	"github.com/xavierca1/pipeline-crm/internal/entity"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeForbidden    = "FORBIDDEN"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeBackend      = "BACKEND_ERROR"
	CodeAuthBackend  = "AUTH_BACKEND_ERROR"
)

// DomainError is an expected failure the caller can act on (bad input,
// missing parent, duplicate, missing permission).
type DomainError struct {
	Code    string
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps an unexpected backend failure.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func notFound(msg string) error {
	return &DomainError{Code: CodeNotFound, Message: msg, Err: entity.ErrNotFound}
}

func conflict(msg string, err error) error {
	return &DomainError{Code: CodeConflict, Message: msg, Err: err}
}

func forbidden(msg string) error {
	return &DomainError{Code: CodeForbidden, Message: msg, Err: entity.ErrForbidden}
}

func invalid(msg string) error {
	return &DomainError{Code: CodeValidation, Message: msg}
}

func technical(msg string, err error) error {
	return &TechnicalError{Code: CodeBackend, Message: msg, Err: err}
}

// storeError turns a repository error into the matching use case error.
// what names the record for not-found messages, e.g. "lead".
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case IsDomainError(err), IsTechnicalError(err):
		return err
	case errors.Is(err, entity.ErrNotFound):
		return notFound(what + " not found")
	case errors.Is(err, entity.ErrConflict):
		return conflict(what+" already exists", err)
	case errors.Is(err, entity.ErrForbidden):
		return forbidden("access denied")
	}
	return technical("failed to access "+what, err)
}
