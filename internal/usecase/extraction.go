package usecase

import (
	"context"

	"github.com/hireflow/intake-engine/internal/domain"
)

// SaveExtractedFieldRequest completes a todo with an answer.
type SaveExtractedFieldRequest struct {
	TodoID string `json:"todo_id" validate:"required"`
	Value  string `json:"value" validate:"required"`
}

// FieldResult is a todo together with its extracted field.
type FieldResult struct {
	Todo  domain.ApplicationTodo `json:"todo"`
	Field domain.ExtractedField  `json:"field"`
}

// SaveExtractedField completes a validating todo (source llm) or a
// manual_input todo (source manual) and stores the extracted field. Todos in
// any other state are rejected with an INVALID_TRANSITION domain error.
func (s *Service) SaveExtractedField(ctx context.Context, req SaveExtractedFieldRequest) (FieldResult, error) {
	const op = "SaveExtractedField"
	var res FieldResult

	if err := s.check(op, req); err != nil {
		return res, err
	}
	id, err := parseID[domain.TodoID](op, "todo_id", req.TodoID)
	if err != nil {
		return res, err
	}
	err = s.run(ctx, op, KindSave, func(u unit) error {
		todo, err := u.loadOpenTodo(ctx, op, id)
		if err != nil {
			return err
		}

		source := domain.SourceLLM
		if todo.Status == domain.TodoManualInput {
			source = domain.SourceManual
			todo, err = u.transitions.MarkManualInputCompleted(todo, req.Value)
		} else {
			todo, err = u.transitions.MarkExtractionSucceeded(todo, req.Value)
		}
		if err != nil {
			return fail(op, KindDomain, err)
		}

		if err := u.saveTodo(ctx, op, todo); err != nil {
			return err
		}
		res.Todo = todo
		res.Field, err = u.upsertField(ctx, op, todo, source)
		return err
	})
	if err != nil {
		return FieldResult{}, err
	}
	return res, nil
}

// UpdateExtractedFieldRequest corrects a stored answer.
type UpdateExtractedFieldRequest struct {
	FieldID string `json:"field_id" validate:"required"`
	Value   string `json:"value" validate:"required"`
}

// UpdateExtractedField replaces the value of an extracted field and of its
// done todo. The correction is recorded as manual.
func (s *Service) UpdateExtractedField(ctx context.Context, req UpdateExtractedFieldRequest) (FieldResult, error) {
	const op = "UpdateExtractedField"
	var res FieldResult

	if err := s.check(op, req); err != nil {
		return res, err
	}
	id, err := parseID[domain.ExtractedFieldID](op, "field_id", req.FieldID)
	if err != nil {
		return res, err
	}
	err = s.run(ctx, op, KindSave, func(u unit) error {
		field, err := u.repos.Fields.FindByID(ctx, id)
		if err != nil {
			return fetchFailed(op, err)
		}
		todo, err := u.loadOpenTodo(ctx, op, field.TodoID)
		if err != nil {
			return err
		}

		now := u.now()
		if todo, err = todo.ReviseValue(req.Value, now); err != nil {
			return fail(op, KindDomain, err)
		}
		field = field.WithValue(req.Value, domain.SourceManual, now)

		if err := u.saveTodo(ctx, op, todo); err != nil {
			return err
		}
		if err := u.repos.Fields.Save(ctx, field); err != nil {
			u.logger.Error("save extracted field failed", "op", op, "field_id", field.ID, "error", err)
			return fail(op, KindSave, err)
		}
		res = FieldResult{Todo: todo, Field: field}
		return nil
	})
	if err != nil {
		return FieldResult{}, err
	}
	return res, nil
}

// ReopenTodoRequest reopens an answered todo.
type ReopenTodoRequest struct {
	TodoID string `json:"todo_id" validate:"required"`
}

// ReopenTodo moves a done todo back to pending so it can be asked again.
func (s *Service) ReopenTodo(ctx context.Context, req ReopenTodoRequest) (domain.ApplicationTodo, error) {
	const op = "ReopenTodo"

	if err := s.check(op, req); err != nil {
		return domain.ApplicationTodo{}, err
	}
	id, err := parseID[domain.TodoID](op, "todo_id", req.TodoID)
	if err != nil {
		return domain.ApplicationTodo{}, err
	}
	var reopened domain.ApplicationTodo
	err = s.run(ctx, op, KindSave, func(u unit) error {
		todo, err := u.loadOpenTodo(ctx, op, id)
		if err != nil {
			return err
		}
		if reopened, err = u.transitions.ResetForCorrection(todo); err != nil {
			return fail(op, KindDomain, err)
		}
		return u.saveTodo(ctx, op, reopened)
	})
	if err != nil {
		return domain.ApplicationTodo{}, err
	}
	return reopened, nil
}
