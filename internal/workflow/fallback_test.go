package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/intake-engine/internal/domain"
)

func TestFallbackService_ShouldTriggerFallback(t *testing.T) {
	f := NewFallbackService(newTestTransitions())

	tests := []struct {
		name       string
		review     int
		extraction int
		timeout    int
		want       bool
	}{
		{"clean", 0, 0, 0, false},
		{"review_at_threshold", 3, 0, 0, true},
		{"one_below_each", 2, 1, 1, false},
		{"extraction_at_threshold", 0, 2, 0, true},
		{"timeout_at_threshold", 0, 0, 2, true},
		{"review_over_threshold", 5, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.ChatSession{
				ReviewFailStreak:     tt.review,
				ExtractionFailStreak: tt.extraction,
				TimeoutStreak:        tt.timeout,
			}
			assert.Equal(t, tt.want, f.ShouldTriggerFallback(s))
			assert.Equal(t, s.ShouldFallback(), f.ShouldTriggerFallback(s))
		})
	}
}

func TestFallbackService_IncompleteTodos(t *testing.T) {
	f := NewFallbackService(newTestTransitions())

	todos := make([]domain.ApplicationTodo, 0, len(domain.TodoStatuses))
	for i, st := range domain.TodoStatuses {
		todo := todoIn(st)
		todo.ID = domain.TodoID(string(rune('a' + i)))
		todos = append(todos, todo)
	}

	got := f.IncompleteTodos(todos)
	require.Len(t, got, 4)
	for _, todo := range got {
		assert.NotEqual(t, domain.TodoDone, todo.Status)
		assert.NotEqual(t, domain.TodoManualInput, todo.Status)
	}
	assert.Empty(t, f.IncompleteTodos(nil))
}

func TestFallbackService_TriggerFallback(t *testing.T) {
	f := NewFallbackService(newTestTransitions())

	done := todoIn(domain.TodoDone)
	done.ID = "t-done"
	pending := todoIn(domain.TodoPending)
	pending.ID = "t-pending"
	awaiting := todoIn(domain.TodoAwaitingAnswer)
	awaiting.ID = "t-awaiting"

	got := f.TriggerFallback([]domain.ApplicationTodo{done, pending, awaiting})
	require.Len(t, got, 3)

	assert.Equal(t, done, got[0], "done todo must be untouched")
	assert.Equal(t, domain.TodoManualInput, got[1].Status)
	assert.Equal(t, domain.TodoManualInput, got[2].Status)
	assert.Equal(t, domain.TodoID("t-pending"), got[1].ID)
	assert.Equal(t, domain.TodoID("t-awaiting"), got[2].ID)

	assert.Equal(t, domain.TodoPending, pending.Status, "input slice elements must not be modified")
}

func TestFallbackService_TriggerFallback_ManualInputStays(t *testing.T) {
	f := NewFallbackService(nil)
	got := f.TriggerFallback([]domain.ApplicationTodo{todoIn(domain.TodoManualInput)})
	assert.Equal(t, domain.TodoManualInput, got[0].Status)
}
