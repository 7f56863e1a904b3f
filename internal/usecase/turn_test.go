package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/intake-engine/internal/domain"
)

func TestParseTurnEvent(t *testing.T) {
	for _, ev := range []TurnEvent{
		EventQuestionSent, EventAnswerReceived, EventExtractionSucceeded,
		EventNeedsClarification, EventClarificationSent, EventExtractionFailed,
		EventReviewFailed, EventReviewPassed, EventTimeout,
	} {
		got, err := ParseTurnEvent(string(ev))
		require.NoError(t, err)
		assert.Equal(t, ev, got)
	}
	_, err := ParseTurnEvent("teleported")
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestRecordTurn_HappyPath(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	sid := string(start.Session.ID)
	todo := start.Todos[0]

	res := f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: string(todo.ID), Event: "question_sent"})
	require.NotNil(t, res.Todo)
	assert.Equal(t, domain.TodoAwaitingAnswer, res.Todo.Status)

	res = f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: string(todo.ID), Event: "answer_received", Message: "Berlin"})
	assert.Equal(t, domain.TodoValidating, res.Todo.Status)

	res = f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: string(todo.ID), Event: "extraction_succeeded", Value: "Berlin"})
	assert.Equal(t, domain.TodoDone, res.Todo.Status)
	assert.Equal(t, "Berlin", res.Todo.Value())
	require.NotNil(t, res.Field)
	assert.Equal(t, "Berlin", res.Field.Value)
	assert.Equal(t, domain.SourceLLM, res.Field.Source)
	assert.Equal(t, todo.JobFormFieldID, res.Field.FormFieldID)
	assert.False(t, res.FallbackTriggered)

	assert.Equal(t, 3, res.Session.TurnCount)
	assert.Equal(t, int64(4), res.Session.Version)
	assert.Equal(t, domain.TodoDone, f.todos.rows[todo.ID].Status)
	require.Len(t, f.logs.messages, 1)
	assert.Equal(t, domain.RoleApplicant, f.logs.messages[0].Role)
	assert.Empty(t, f.logs.messages[0].Agent)
	assert.Len(t, f.logs.toolCalls, 3)
}

func TestRecordTurn_ClarificationLoop(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	sid := string(start.Session.ID)
	tid := string(start.Todos[0].ID)

	for _, ev := range []string{"question_sent", "answer_received", "needs_clarification", "clarification_sent", "answer_received"} {
		f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: tid, Event: ev})
	}
	assert.Equal(t, domain.TodoValidating, f.todos.rows[start.Todos[0].ID].Status)
}

func TestRecordTurn_InvalidTransitionPersistsNothing(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})

	_, err := f.svc.RecordTurn(context.Background(), RecordTurnRequest{
		SessionID: string(start.Session.ID),
		TodoID:    string(start.Todos[0].ID),
		Event:     "answer_received",
	})
	requireKind(t, err, KindDomain)
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, string(domain.TodoValidating), te.To)

	s := f.sessions.rows[start.Session.ID]
	assert.Equal(t, 0, s.TurnCount)
	assert.Empty(t, f.logs.toolCalls)
}

func TestRecordTurn_Validation(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	sid := string(start.Session.ID)
	tid := string(start.Todos[0].ID)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RecordTurnRequest
	}{
		{"missing session", RecordTurnRequest{Event: "timeout"}},
		{"unknown event", RecordTurnRequest{SessionID: sid, Event: "teleported"}},
		{"todo event without todo", RecordTurnRequest{SessionID: sid, Event: "question_sent"}},
		{"extraction without value", RecordTurnRequest{SessionID: sid, TodoID: tid, Event: "extraction_succeeded"}},
		{"bad role", RecordTurnRequest{SessionID: sid, Event: "timeout", Message: "hi", Role: "robot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordTurn(ctx, tt.req)
			requireKind(t, err, KindValidation)
		})
	}
}

func TestRecordTurn_TodoFromOtherApplication(t *testing.T) {
	f := newFixture(t, Options{})
	first := f.start(t, StartInterviewRequest{})
	second := f.start(t, StartInterviewRequest{})

	_, err := f.svc.RecordTurn(context.Background(), RecordTurnRequest{
		SessionID: string(first.Session.ID),
		TodoID:    string(second.Todos[0].ID),
		Event:     "question_sent",
	})
	requireKind(t, err, KindValidation)
}

func TestRecordTurn_CompletedSessionRejected(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	ctx := context.Background()

	_, err := f.svc.CompleteSession(ctx, CompleteSessionRequest{SessionID: string(start.Session.ID)})
	require.NoError(t, err)

	_, err = f.svc.RecordTurn(ctx, RecordTurnRequest{SessionID: string(start.Session.ID), Event: "timeout"})
	requireKind(t, err, KindDomain)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
}

func TestRecordTurn_StreaksResetOnSuccess(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	sid := string(start.Session.ID)
	tid := string(start.Todos[0].ID)

	res := f.turn(t, RecordTurnRequest{SessionID: sid, Event: "review_failed"})
	assert.Equal(t, 1, res.Session.ReviewFailStreak)
	res = f.turn(t, RecordTurnRequest{SessionID: sid, Event: "review_passed"})
	assert.Equal(t, 0, res.Session.ReviewFailStreak)

	res = f.turn(t, RecordTurnRequest{SessionID: sid, Event: "timeout"})
	assert.Equal(t, 1, res.Session.TimeoutStreak)
	f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: tid, Event: "question_sent"})
	res = f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: tid, Event: "answer_received"})
	assert.Equal(t, 0, res.Session.TimeoutStreak)

	res = f.turn(t, RecordTurnRequest{SessionID: sid, Event: "extraction_failed"})
	assert.Equal(t, 1, res.Session.ExtractionFailStreak)
	res = f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: tid, Event: "extraction_succeeded", Value: "Berlin"})
	assert.Equal(t, 0, res.Session.ExtractionFailStreak)
	assert.False(t, res.FallbackTriggered)
}

func TestRecordTurn_FallbackOnStreak(t *testing.T) {
	tests := []struct {
		event string
		times int
	}{
		{"review_failed", domain.ReviewFailThreshold},
		{"extraction_failed", domain.ExtractionFailThreshold},
		{"timeout", domain.TimeoutThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			f := newFixture(t, Options{})
			start := f.start(t, StartInterviewRequest{})
			sid := start.Session.ID
			f.answer(t, sid, start.Todos[0].ID, "Berlin")

			var res RecordTurnResult
			for i := 0; i < tt.times; i++ {
				res = f.turn(t, RecordTurnRequest{SessionID: string(sid), Event: tt.event})
				if i < tt.times-1 {
					assert.False(t, res.FallbackTriggered, "turn %d", i)
				}
			}
			assert.True(t, res.FallbackTriggered)
			assert.Equal(t, domain.SessionActive, res.Session.Status)

			assert.Equal(t, domain.TodoDone, f.todos.rows[start.Todos[0].ID].Status)
			assert.Equal(t, domain.TodoManualInput, f.todos.rows[start.Todos[1].ID].Status)
			assert.Equal(t, domain.TodoManualInput, f.todos.rows[start.Todos[2].ID].Status)
		})
	}
}

func TestRecordTurn_HardCapCompletesSession(t *testing.T) {
	f := newFixture(t, Options{Caps: domain.Caps{Soft: 1, Hard: 2}})
	start := f.start(t, StartInterviewRequest{})
	sid := string(start.Session.ID)
	tid := string(start.Todos[0].ID)

	res := f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: tid, Event: "question_sent"})
	require.NotNil(t, res.Session.SoftCappedAt)
	assert.Nil(t, res.Session.HardCappedAt)
	assert.False(t, res.FallbackTriggered)

	res = f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: tid, Event: "answer_received"})
	require.NotNil(t, res.Session.HardCappedAt)
	assert.True(t, res.FallbackTriggered)
	assert.Equal(t, domain.SessionCompleted, res.Session.Status)
	require.NotNil(t, res.Todo)
	assert.Equal(t, domain.TodoManualInput, res.Todo.Status)
	for _, todo := range start.Todos {
		assert.Equal(t, domain.TodoManualInput, f.todos.rows[todo.ID].Status)
	}

	_, err := f.svc.RecordTurn(context.Background(), RecordTurnRequest{SessionID: sid, Event: "timeout"})
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
}

func TestRecordTurn_FailedWriteRollsBackTurn(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	sid := string(start.Session.ID)
	tid := string(start.Todos[0].ID)
	f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: tid, Event: "question_sent"})
	f.turn(t, RecordTurnRequest{SessionID: sid, TodoID: tid, Event: "answer_received"})

	f.fields.saveErr = errBoom
	req := RecordTurnRequest{SessionID: sid, TodoID: tid, Event: "extraction_succeeded", Value: "Berlin", Message: "I live in Berlin"}
	res, err := f.svc.RecordTurn(context.Background(), req)
	requireKind(t, err, KindSave)
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, res.Todo)

	assert.Equal(t, domain.TodoValidating, f.todos.rows[start.Todos[0].ID].Status)
	assert.Equal(t, 2, f.sessions.rows[start.Session.ID].TurnCount)
	assert.Empty(t, f.fields.rows)
	assert.Empty(t, f.logs.messages)
	assert.Len(t, f.logs.toolCalls, 2)

	f.fields.saveErr = nil
	res = f.turn(t, req)
	assert.Equal(t, domain.TodoDone, res.Todo.Status)
	require.NotNil(t, res.Field)
	assert.Len(t, f.fields.rows, 1)
	assert.Equal(t, 3, res.Session.TurnCount)
}

func TestRecordTurn_LogFailureRollsBackTurn(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	f.logs.err = errBoom

	_, err := f.svc.RecordTurn(context.Background(), RecordTurnRequest{
		SessionID: string(start.Session.ID),
		TodoID:    string(start.Todos[0].ID),
		Event:     "question_sent",
	})
	requireKind(t, err, KindRepository)
	assert.Equal(t, domain.TodoPending, f.todos.rows[start.Todos[0].ID].Status)
	assert.Equal(t, 0, f.sessions.rows[start.Session.ID].TurnCount)
	assert.Equal(t, start.Session.Version, f.sessions.rows[start.Session.ID].Version)
}

func TestRecordTurn_FallbackReportedOnlyWhenTodosChange(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	sid := string(start.Session.ID)

	f.turn(t, RecordTurnRequest{SessionID: sid, Event: "timeout"})
	res := f.turn(t, RecordTurnRequest{SessionID: sid, Event: "timeout"})
	assert.True(t, res.FallbackTriggered)

	res = f.turn(t, RecordTurnRequest{SessionID: sid, Event: "timeout"})
	assert.False(t, res.FallbackTriggered)
	assert.Equal(t, 3, res.Session.TimeoutStreak)
	for _, todo := range start.Todos {
		assert.Equal(t, domain.TodoManualInput, f.todos.rows[todo.ID].Status)
	}
}

func TestRecordTurn_SubmittedApplication(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.submitted(t)
	sid := string(start.Session.ID)
	optional := start.Todos[2]

	_, err := f.svc.RecordTurn(context.Background(), RecordTurnRequest{SessionID: sid, TodoID: string(optional.ID), Event: "question_sent"})
	requireKind(t, err, KindDomain)
	assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)

	var res RecordTurnResult
	for i := 0; i < domain.ReviewFailThreshold; i++ {
		res = f.turn(t, RecordTurnRequest{SessionID: sid, Event: "review_failed"})
	}
	assert.False(t, res.FallbackTriggered)
	assert.Equal(t, domain.ReviewFailThreshold, res.Session.ReviewFailStreak)
	assert.Equal(t, domain.TodoPending, f.todos.rows[optional.ID].Status)
}
