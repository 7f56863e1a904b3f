package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Error is the coded error type shared by the domain, store and config layers.
// Two Errors match under errors.Is when their codes are equal, so a sentinel
// can be compared against a copy that carries a more specific message.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is a *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates an Error with the given code and message.
func NewError(code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// WrapError derives an Error from a sentinel, appending the cause to its message.
func WrapError(sentinel *Error, cause error) *Error {
	return &Error{Code: sentinel.Code, Message: fmt.Sprintf("%s: %v", sentinel.Message, cause)}
}

// Withf derives an Error from a sentinel with a formatted detail message.
func Withf(sentinel *Error, format string, args ...any) *Error {
	return &Error{Code: sentinel.Code, Message: fmt.Sprintf("%s: %s", sentinel.Message, fmt.Sprintf(format, args...))}
}

// Error codes.
const (
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeExtractionNotReviewed   = "EXTRACTION_NOT_REVIEWED"
	CodeConsentNotChecked       = "CONSENT_NOT_CHECKED"
	CodeRequiredTodosIncomplete = "REQUIRED_TODOS_INCOMPLETE"
	CodeAlreadySubmitted        = "ALREADY_SUBMITTED"
	CodeSessionCompleted        = "SESSION_COMPLETED"
	CodeInvalidValue            = "INVALID_VALUE"
	CodeNotFound                = "NOT_FOUND"
	CodeOptimisticLock          = "OPTIMISTIC_LOCK"
	CodeStoreInit               = "STORE_INIT"
	CodeConfigInvalid           = "CONFIG_INVALID"
)

// ---- Aggregate errors ----

var (
	ErrAlreadySubmitted = &Error{Code: CodeAlreadySubmitted, Message: "application already submitted"}
	ErrSessionCompleted = &Error{Code: CodeSessionCompleted, Message: "chat session already completed"}
	ErrInvalidValue     = &Error{Code: CodeInvalidValue, Message: "invalid value"}
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "record not found"}
	ErrOptimisticLock   = &Error{Code: CodeOptimisticLock, Message: "optimistic lock conflict: record was modified concurrently"}
)

// ---- Store / Config errors ----

var (
	ErrStoreInit     = &Error{Code: CodeStoreInit, Message: "failed to initialize store"}
	ErrConfigInvalid = &Error{Code: CodeConfigInvalid, Message: "invalid configuration"}
)

// TransitionError reports a rejected status transition. To always holds the
// target the caller attempted.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition %s -> %s", e.Entity, e.From, e.To)
}

// Code returns INVALID_TRANSITION.
func (e *TransitionError) Code() string { return CodeInvalidTransition }

// SubmissionError reports the first unmet submission precondition.
type SubmissionError struct {
	Code              string
	IncompleteTodoIDs []TodoID
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	if len(e.IncompleteTodoIDs) == 0 {
		return "submission rejected: " + e.Code
	}
	ids := make([]string, len(e.IncompleteTodoIDs))
	for i, id := range e.IncompleteTodoIDs {
		ids[i] = string(id)
	}
	return fmt.Sprintf("submission rejected: %s [%s]", e.Code, strings.Join(ids, ", "))
}

// NewIncompleteTodosError builds a REQUIRED_TODOS_INCOMPLETE error with ids sorted.
func NewIncompleteTodosError(ids []TodoID) *SubmissionError {
	sorted := make([]TodoID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &SubmissionError{Code: CodeRequiredTodosIncomplete, IncompleteTodoIDs: sorted}
}
