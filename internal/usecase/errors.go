package usecase

import (
	"errors"
	"fmt"

	"github.com/hireflow/intake-engine/internal/domain"
)

// Kind classifies a usecase failure by the step that produced it.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindFetch      Kind = "fetch_error"
	KindSave       Kind = "save_error"
	KindRepository Kind = "repository_error"
	KindNotFound   Kind = "not_found"
	KindDomain     Kind = "domain_error"
)

// Error is returned by every usecase. Err is the underlying cause and stays
// reachable through errors.Is and errors.As.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of a usecase error, or "" for any other error.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

func fail(op string, kind Kind, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func invalid(op, format string, args ...any) *Error {
	return fail(op, KindValidation, domain.Withf(domain.ErrInvalidValue, format, args...))
}

// fetchFailed maps a repository read error, keeping not-found distinct.
func fetchFailed(op string, err error) *Error {
	if errors.Is(err, domain.ErrNotFound) {
		return fail(op, KindNotFound, err)
	}
	return fail(op, KindFetch, err)
}
