package usecase

import (
	"context"

	"github.com/hireflow/intake-engine/internal/domain"
)

// StartInterviewRequest opens an application for a job and its chat session.
// Nil caps fall back to the service defaults; zero means unlimited.
type StartInterviewRequest struct {
	JobID           string         `json:"job_id" validate:"required"`
	SchemaVersionID string         `json:"schema_version_id" validate:"required"`
	Contact         domain.Contact `json:"contact"`
	SoftCap         *int           `json:"soft_cap" validate:"omitempty,min=0"`
	HardCap         *int           `json:"hard_cap" validate:"omitempty,min=0"`
}

// StartInterviewResult holds the created aggregates.
type StartInterviewResult struct {
	Application domain.Application       `json:"application"`
	Todos       []domain.ApplicationTodo `json:"todos"`
	Session     domain.ChatSession       `json:"session"`
}

// StartInterview creates an application in status new with one pending todo
// per fact definition of the schema version, plus an application session.
func (s *Service) StartInterview(ctx context.Context, req StartInterviewRequest) (StartInterviewResult, error) {
	const op = "StartInterview"
	var res StartInterviewResult

	if err := s.check(op, req); err != nil {
		return res, err
	}
	jobID, err := parseID[domain.JobID](op, "job_id", req.JobID)
	if err != nil {
		return res, err
	}
	schemaID, err := parseID[domain.SchemaVersionID](op, "schema_version_id", req.SchemaVersionID)
	if err != nil {
		return res, err
	}
	caps := s.caps
	if req.SoftCap != nil {
		caps.Soft = *req.SoftCap
	}
	if req.HardCap != nil {
		caps.Hard = *req.HardCap
	}
	if caps.Soft > 0 && caps.Hard > 0 && caps.Hard < caps.Soft {
		return res, invalid(op, "hard cap %d is below soft cap %d", caps.Hard, caps.Soft)
	}

	err = s.run(ctx, op, KindSave, func(u unit) error {
		defs, err := u.repos.Facts.ListBySchemaVersion(ctx, schemaID)
		if err != nil {
			return fail(op, KindFetch, err)
		}
		if len(defs) == 0 {
			return invalid(op, "schema version %s has no fact definitions", schemaID)
		}

		now := u.now()
		app := domain.NewApplication(domain.NewID[domain.ApplicationID](), jobID, schemaID, now).Bootstrap(req.Contact, now)
		if res.Application, err = u.saveApplication(ctx, op, app); err != nil {
			return err
		}

		todos := make([]domain.ApplicationTodo, len(defs))
		for i, d := range defs {
			todos[i] = domain.NewApplicationTodo(domain.NewID[domain.TodoID](), app.ID, d, now)
		}
		if err := u.repos.Todos.SaveAll(ctx, todos); err != nil {
			u.logger.Error("save todos failed", "op", op, "application_id", app.ID, "error", err)
			return fail(op, KindSave, err)
		}
		res.Todos = todos

		session := domain.NewApplicationSession(domain.NewID[domain.ChatSessionID](), app.ID, u.agent, caps, now)
		res.Session, err = u.saveSession(ctx, op, session)
		return err
	})
	if err != nil {
		return StartInterviewResult{}, err
	}

	s.logger.Info("interview started",
		"application_id", res.Application.ID,
		"session_id", res.Session.ID,
		"job_id", jobID,
		"todos", len(res.Todos))
	return res, nil
}

// ChangeAgentRequest hands an active session to another agent.
type ChangeAgentRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Agent     string `json:"agent" validate:"required"`
}

// ChangeAgent sets the current agent of an active session.
func (s *Service) ChangeAgent(ctx context.Context, req ChangeAgentRequest) (domain.ChatSession, error) {
	const op = "ChangeAgent"

	if err := s.check(op, req); err != nil {
		return domain.ChatSession{}, err
	}
	id, err := parseID[domain.ChatSessionID](op, "session_id", req.SessionID)
	if err != nil {
		return domain.ChatSession{}, err
	}
	agent, err := domain.ParseAgentType(req.Agent)
	if err != nil {
		return domain.ChatSession{}, fail(op, KindValidation, err)
	}

	var saved domain.ChatSession
	err = s.run(ctx, op, KindSave, func(u unit) error {
		session, err := u.loadSession(ctx, op, id)
		if err != nil {
			return err
		}
		if !session.IsActive() {
			return fail(op, KindDomain, domain.Withf(domain.ErrSessionCompleted, "session %s", id))
		}
		saved, err = u.saveSession(ctx, op, session.ChangeAgent(agent, u.now()))
		return err
	})
	if err != nil {
		return domain.ChatSession{}, err
	}
	return saved, nil
}

// CompleteSessionRequest closes a session.
type CompleteSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// CompleteSession moves a session from active to completed.
func (s *Service) CompleteSession(ctx context.Context, req CompleteSessionRequest) (domain.ChatSession, error) {
	const op = "CompleteSession"

	if err := s.check(op, req); err != nil {
		return domain.ChatSession{}, err
	}
	id, err := parseID[domain.ChatSessionID](op, "session_id", req.SessionID)
	if err != nil {
		return domain.ChatSession{}, err
	}
	var saved domain.ChatSession
	err = s.run(ctx, op, KindSave, func(u unit) error {
		session, err := u.loadSession(ctx, op, id)
		if err != nil {
			return err
		}
		done, err := session.Complete(u.now())
		if err != nil {
			return fail(op, KindDomain, err)
		}
		saved, err = u.saveSession(ctx, op, done)
		return err
	})
	if err != nil {
		return domain.ChatSession{}, err
	}
	return saved, nil
}

// SessionView is a session with its transcript.
type SessionView struct {
	Session   domain.ChatSession   `json:"session"`
	Messages  []domain.ChatMessage `json:"messages"`
	ToolCalls []domain.ToolCallLog `json:"tool_calls"`
}

// GetSession loads a session with its messages and tool calls.
func (s *Service) GetSession(ctx context.Context, sessionID string) (SessionView, error) {
	const op = "GetSession"
	var view SessionView

	id, err := parseID[domain.ChatSessionID](op, "session_id", sessionID)
	if err != nil {
		return view, err
	}
	err = s.run(ctx, op, KindFetch, func(u unit) error {
		var err error
		if view.Session, err = u.loadSession(ctx, op, id); err != nil {
			return err
		}
		if view.Messages, err = u.repos.Logs.ListMessages(ctx, id); err != nil {
			return fail(op, KindRepository, err)
		}
		if view.ToolCalls, err = u.repos.Logs.ListToolCalls(ctx, id); err != nil {
			return fail(op, KindRepository, err)
		}
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	return view, nil
}
