package workflow

import (
	"github.com/hireflow/intake-engine/internal/domain"
)

// FallbackService decides when automated extraction gives up and converts the
// remaining todos to manual input. It has no side effects; callers persist
// the returned todos.
type FallbackService struct {
	Transitions *TransitionService
}

// NewFallbackService creates a FallbackService sharing the given transitions.
// A nil ts uses the wall clock.
func NewFallbackService(ts *TransitionService) *FallbackService {
	if ts == nil {
		ts = NewTransitionService()
	}
	return &FallbackService{Transitions: ts}
}

// ShouldTriggerFallback reports whether the session's failure streaks call for
// escalation. The thresholds live on domain.ChatSession.
func (f *FallbackService) ShouldTriggerFallback(session domain.ChatSession) bool {
	return session.ShouldFallback()
}

// IncompleteTodos returns the todos that are neither done nor already in
// manual_input, in their original order.
func (f *FallbackService) IncompleteTodos(todos []domain.ApplicationTodo) []domain.ApplicationTodo {
	var out []domain.ApplicationTodo
	for _, t := range todos {
		if t.Status == domain.TodoDone || t.Status == domain.TodoManualInput {
			continue
		}
		out = append(out, t)
	}
	return out
}

// TriggerFallback forces every todo that is not done into manual_input.
// Done todos are returned unchanged.
func (f *FallbackService) TriggerFallback(todos []domain.ApplicationTodo) []domain.ApplicationTodo {
	out := make([]domain.ApplicationTodo, len(todos))
	for i, t := range todos {
		if t.Status == domain.TodoDone {
			out[i] = t
			continue
		}
		out[i] = f.Transitions.MarkFallback(t)
	}
	return out
}
