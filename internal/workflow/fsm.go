// Package workflow holds the intake state machine services: todo
// transitions, fallback escalation and the submission gate.
package workflow

import (
	"time"

	"github.com/hireflow/intake-engine/internal/domain"
)

// TransitionService drives an ApplicationTodo through its lifecycle.
// Every method returns the new snapshot, or a *domain.TransitionError whose
// To field is the status the caller attempted.
type TransitionService struct {
	Now func() time.Time
}

// NewTransitionService creates a TransitionService using the wall clock.
func NewTransitionService() *TransitionService {
	return &TransitionService{Now: time.Now}
}

func (s *TransitionService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *TransitionService) transition(todo domain.ApplicationTodo, next domain.TodoStatus) (domain.ApplicationTodo, error) {
	if !todo.Status.CanTransitionTo(next) {
		return todo, &domain.TransitionError{Entity: "todo", From: string(todo.Status), To: string(next)}
	}
	return todo.TransitionTo(next, s.now())
}

// MarkQuestionSent moves pending -> awaiting_answer.
func (s *TransitionService) MarkQuestionSent(todo domain.ApplicationTodo) (domain.ApplicationTodo, error) {
	return s.transition(todo, domain.TodoAwaitingAnswer)
}

// MarkAnswerReceived moves awaiting_answer -> validating.
func (s *TransitionService) MarkAnswerReceived(todo domain.ApplicationTodo) (domain.ApplicationTodo, error) {
	return s.transition(todo, domain.TodoValidating)
}

// MarkExtractionSucceeded completes a validating todo with value.
func (s *TransitionService) MarkExtractionSucceeded(todo domain.ApplicationTodo, value string) (domain.ApplicationTodo, error) {
	if todo.Status != domain.TodoValidating {
		return todo, &domain.TransitionError{Entity: "todo", From: string(todo.Status), To: string(domain.TodoDone)}
	}
	return todo.MarkDone(value, s.now())
}

// MarkNeedsClarification moves validating -> needs_clarification.
func (s *TransitionService) MarkNeedsClarification(todo domain.ApplicationTodo) (domain.ApplicationTodo, error) {
	return s.transition(todo, domain.TodoNeedsClarification)
}

// MarkClarificationSent moves needs_clarification -> awaiting_answer.
func (s *TransitionService) MarkClarificationSent(todo domain.ApplicationTodo) (domain.ApplicationTodo, error) {
	return s.transition(todo, domain.TodoAwaitingAnswer)
}

// MarkFallback moves any todo to manual_input. It cannot fail.
func (s *TransitionService) MarkFallback(todo domain.ApplicationTodo) domain.ApplicationTodo {
	return todo.ForceManualInput(s.now())
}

// MarkManualInputCompleted completes a manual_input todo with value.
func (s *TransitionService) MarkManualInputCompleted(todo domain.ApplicationTodo, value string) (domain.ApplicationTodo, error) {
	if todo.Status != domain.TodoManualInput {
		return todo, &domain.TransitionError{Entity: "todo", From: string(todo.Status), To: string(domain.TodoDone)}
	}
	return todo.MarkDone(value, s.now())
}

// ResetForCorrection reopens a done todo so the applicant can correct it.
func (s *TransitionService) ResetForCorrection(todo domain.ApplicationTodo) (domain.ApplicationTodo, error) {
	if todo.Status != domain.TodoDone {
		return todo, &domain.TransitionError{Entity: "todo", From: string(todo.Status), To: string(domain.TodoPending)}
	}
	return todo.ResetToPending(s.now())
}
