package usecase

import (
	"context"

	"github.com/hireflow/intake-engine/internal/domain"
)

// TurnEvent is the outcome of one chat turn as reported by the agents.
type TurnEvent string

const (
	EventQuestionSent        TurnEvent = "question_sent"
	EventAnswerReceived      TurnEvent = "answer_received"
	EventExtractionSucceeded TurnEvent = "extraction_succeeded"
	EventNeedsClarification  TurnEvent = "needs_clarification"
	EventClarificationSent   TurnEvent = "clarification_sent"
	EventExtractionFailed    TurnEvent = "extraction_failed"
	EventReviewFailed        TurnEvent = "review_failed"
	EventReviewPassed        TurnEvent = "review_passed"
	EventTimeout             TurnEvent = "timeout"
)

// todoEvents need a todo to act on; the rest only touch session counters.
var todoEvents = map[TurnEvent]bool{
	EventQuestionSent:        true,
	EventAnswerReceived:      true,
	EventExtractionSucceeded: true,
	EventNeedsClarification:  true,
	EventClarificationSent:   true,
	EventExtractionFailed:    false,
	EventReviewFailed:        false,
	EventReviewPassed:        false,
	EventTimeout:             false,
}

// ParseTurnEvent converts a raw string to a TurnEvent.
func ParseTurnEvent(s string) (TurnEvent, error) {
	e := TurnEvent(s)
	if _, ok := todoEvents[e]; !ok {
		return "", domain.Withf(domain.ErrInvalidValue, "unknown turn event %q", s)
	}
	return e, nil
}

func (e TurnEvent) failed() bool {
	return e == EventExtractionFailed || e == EventReviewFailed || e == EventTimeout
}

// RecordTurnRequest reports one chat turn. TodoID is required for events that
// move a todo and optional otherwise. Message, when set, is appended to the
// transcript with Role (default applicant).
type RecordTurnRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	TodoID    string `json:"todo_id"`
	Event     string `json:"event" validate:"required"`
	Value     string `json:"value"`
	Message   string `json:"message"`
	Role      string `json:"role"`
}

// RecordTurnResult reports the session after the turn, the todo the event
// acted on (if any) and whether this turn moved any todo to manual input.
// Later turns on a tripped session report false once nothing is left to
// convert.
type RecordTurnResult struct {
	Session           domain.ChatSession      `json:"session"`
	Todo              *domain.ApplicationTodo `json:"todo,omitempty"`
	Field             *domain.ExtractedField  `json:"field,omitempty"`
	FallbackTriggered bool                    `json:"fallback_triggered"`
}

// RecordTurn counts a turn on an active session, applies the event to the
// todo and the failure streaks, logs the turn and escalates to manual input
// when a streak threshold or the hard cap is reached. Reaching the hard cap
// also completes the session. Once the application is submitted, todo events
// are rejected and no todo is escalated. The whole turn commits in one unit
// of work.
func (s *Service) RecordTurn(ctx context.Context, req RecordTurnRequest) (RecordTurnResult, error) {
	const op = "RecordTurn"
	var res RecordTurnResult

	if err := s.check(op, req); err != nil {
		return res, err
	}
	sessionID, err := parseID[domain.ChatSessionID](op, "session_id", req.SessionID)
	if err != nil {
		return res, err
	}
	event, err := ParseTurnEvent(req.Event)
	if err != nil {
		return res, fail(op, KindValidation, err)
	}
	role := domain.RoleApplicant
	if req.Role != "" {
		if role, err = domain.ParseMessageRole(req.Role); err != nil {
			return res, fail(op, KindValidation, err)
		}
	}
	var todoID *domain.TodoID
	if req.TodoID != "" {
		id, err := parseID[domain.TodoID](op, "todo_id", req.TodoID)
		if err != nil {
			return res, err
		}
		todoID = &id
	}
	if todoEvents[event] && todoID == nil {
		return res, invalid(op, "event %s requires a todo", event)
	}
	if event == EventExtractionSucceeded && req.Value == "" {
		return res, invalid(op, "event %s requires a value", event)
	}

	err = s.run(ctx, op, KindSave, func(u unit) error {
		res, err = u.recordTurn(ctx, op, sessionID, todoID, event, role, req)
		return err
	})
	if err != nil {
		return RecordTurnResult{}, err
	}
	return res, nil
}

func (u unit) recordTurn(ctx context.Context, op string, sessionID domain.ChatSessionID, todoID *domain.TodoID,
	event TurnEvent, role domain.MessageRole, req RecordTurnRequest) (RecordTurnResult, error) {
	var res RecordTurnResult

	session, err := u.loadSession(ctx, op, sessionID)
	if err != nil {
		return res, err
	}
	if !session.IsActive() {
		return res, fail(op, KindDomain, domain.Withf(domain.ErrSessionCompleted, "session %s", sessionID))
	}

	// Answers on a submitted application are frozen; the turn is still counted.
	submitted := false
	if session.ApplicationID != nil {
		app, err := u.loadApplication(ctx, op, *session.ApplicationID)
		if err != nil {
			return res, err
		}
		submitted = app.IsSubmitted()
	}

	var todo domain.ApplicationTodo
	if todoEvents[event] {
		if submitted {
			return res, fail(op, KindDomain, domain.Withf(domain.ErrAlreadySubmitted, "application %s", *session.ApplicationID))
		}
		if todo, err = u.loadTodo(ctx, op, *todoID); err != nil {
			return res, err
		}
		if session.ApplicationID == nil || todo.ApplicationID != *session.ApplicationID {
			return res, invalid(op, "todo %s does not belong to session %s", todo.ID, session.ID)
		}
	}

	now := u.now()
	session = session.IncrementTurnCount(now)
	if session.SoftCapReached() {
		session = session.MarkSoftCapped(now)
	}
	if session.HardCapReached() {
		session = session.MarkHardCapped(now)
	}

	switch event {
	case EventQuestionSent:
		todo, err = u.transitions.MarkQuestionSent(todo)
	case EventAnswerReceived:
		todo, err = u.transitions.MarkAnswerReceived(todo)
		session = session.ResetTimeoutStreak(now)
	case EventExtractionSucceeded:
		todo, err = u.transitions.MarkExtractionSucceeded(todo, req.Value)
		session = session.ResetExtractionFailStreak(now)
	case EventNeedsClarification:
		todo, err = u.transitions.MarkNeedsClarification(todo)
	case EventClarificationSent:
		todo, err = u.transitions.MarkClarificationSent(todo)
	case EventExtractionFailed:
		session = session.IncrementExtractionFailStreak(now)
	case EventReviewFailed:
		session = session.IncrementReviewFailStreak(now)
	case EventReviewPassed:
		session = session.ResetReviewFailStreak(now)
	case EventTimeout:
		session = session.IncrementTimeoutStreak(now)
	}
	if err != nil {
		return res, fail(op, KindDomain, err)
	}

	hardCapped := session.HardCapReached()
	fallback := u.fallback.ShouldTriggerFallback(session) || hardCapped
	if hardCapped {
		if session, err = session.Complete(now); err != nil {
			return res, fail(op, KindDomain, err)
		}
	}

	// The session save is the concurrency guard for the whole turn.
	if res.Session, err = u.saveSession(ctx, op, session); err != nil {
		return res, err
	}

	if todoEvents[event] {
		if err := u.saveTodo(ctx, op, todo); err != nil {
			return res, err
		}
		res.Todo = &todo
	}
	if event == EventExtractionSucceeded {
		field, err := u.upsertField(ctx, op, todo, domain.SourceLLM)
		if err != nil {
			return res, err
		}
		res.Field = &field
	}

	if req.Message != "" {
		msg := domain.ChatMessage{
			ID:            domain.NewID[domain.ChatMessageID](),
			ChatSessionID: session.ID,
			Role:          role,
			Content:       req.Message,
			CreatedAt:     now,
		}
		if role != domain.RoleApplicant {
			msg.Agent = session.CurrentAgent
		}
		if err := u.repos.Logs.AppendMessage(ctx, msg); err != nil {
			return res, fail(op, KindRepository, err)
		}
	}

	call := domain.ToolCallLog{
		ID:            domain.NewID[domain.ToolCallLogID](),
		ChatSessionID: session.ID,
		TodoID:        todoID,
		ToolName:      string(event),
		Input:         req.Value,
		Succeeded:     !event.failed(),
		CreatedAt:     now,
	}
	if res.Todo != nil {
		call.Output = string(res.Todo.Status)
	}
	if err := u.repos.Logs.AppendToolCall(ctx, call); err != nil {
		return res, fail(op, KindRepository, err)
	}

	if fallback && !submitted && session.ApplicationID != nil {
		if res.FallbackTriggered, err = u.escalate(ctx, op, session, &res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// escalate moves every unfinished todo of the session's application to
// manual input and persists the ones that changed. It reports whether any
// todo was converted.
func (u unit) escalate(ctx context.Context, op string, session domain.ChatSession, res *RecordTurnResult) (bool, error) {
	todos, err := u.repos.Todos.ListByApplication(ctx, *session.ApplicationID)
	if err != nil {
		return false, fail(op, KindFetch, err)
	}

	converted := u.fallback.TriggerFallback(todos)
	var changed []domain.ApplicationTodo
	for i, t := range converted {
		if t.Status == todos[i].Status {
			continue
		}
		changed = append(changed, t)
		if res.Todo != nil && res.Todo.ID == t.ID {
			updated := t
			res.Todo = &updated
		}
	}
	if len(changed) == 0 {
		return false, nil
	}
	if err := u.repos.Todos.SaveAll(ctx, changed); err != nil {
		u.logger.Error("save fallback todos failed", "op", op, "session_id", session.ID, "error", err)
		return false, fail(op, KindSave, err)
	}

	u.logger.Warn("fallback to manual input",
		"session_id", session.ID,
		"application_id", *session.ApplicationID,
		"review_fail_streak", session.ReviewFailStreak,
		"extraction_fail_streak", session.ExtractionFailStreak,
		"timeout_streak", session.TimeoutStreak,
		"hard_capped", session.HardCapReached(),
		"todos_converted", len(changed))
	return true, nil
}
