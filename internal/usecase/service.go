// Package usecase orchestrates the intake workflow: it loads aggregates
// through the repository interfaces, applies the domain and workflow rules
// and persists the resulting snapshots.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hireflow/intake-engine/internal/domain"
	"github.com/hireflow/intake-engine/internal/workflow"
)

// Options configures a Service. Zero values pick the defaults.
type Options struct {
	// Caps are the turn caps given to new sessions when the request has none.
	Caps         domain.Caps
	DefaultAgent domain.AgentType
	Logger       *slog.Logger
	Now          func() time.Time
}

// Service runs the intake usecases. Each usecase reads and writes through a
// single unit of work.
type Service struct {
	uow         UnitOfWork
	transitions *workflow.TransitionService
	fallback    *workflow.FallbackService
	gate        *workflow.SubmissionService
	validate    *validator.Validate
	logger      *slog.Logger
	now         func() time.Time
	caps        domain.Caps
	agent       domain.AgentType
}

// New creates a Service whose usecases run inside uow.
func New(uow UnitOfWork, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultAgent == "" {
		opts.DefaultAgent = domain.AgentInterviewer
	}
	ts := &workflow.TransitionService{Now: opts.Now}
	return &Service{
		uow:         uow,
		transitions: ts,
		fallback:    workflow.NewFallbackService(ts),
		gate:        workflow.NewSubmissionService(),
		validate:    validator.New(),
		logger:      opts.Logger,
		now:         opts.Now,
		caps:        opts.Caps,
		agent:       opts.DefaultAgent,
	}
}

func (s *Service) check(op string, req any) error {
	if err := s.validate.Struct(req); err != nil {
		return fail(op, KindValidation, err)
	}
	return nil
}

// unit is one pass of a usecase over the repositories of a single
// transaction.
type unit struct {
	*Service
	repos Repositories
}

// run executes fn in a unit of work. Errors from fn pass through unchanged; a
// failure to begin or commit is reported with kind.
func (s *Service) run(ctx context.Context, op string, kind Kind, fn func(u unit) error) error {
	err := s.uow.Do(ctx, func(repos Repositories) error {
		return fn(unit{Service: s, repos: repos})
	})
	if err == nil {
		return nil
	}
	var uerr *Error
	if errors.As(err, &uerr) {
		return err
	}
	s.logger.Error("unit of work failed", "op", op, "error", err)
	return fail(op, kind, err)
}

func parseID[T domain.ID](op, field, raw string) (T, error) {
	id, err := domain.ParseID[T](raw)
	if err != nil {
		return id, invalid(op, "%s: %v", field, err)
	}
	return id, nil
}

func (u unit) loadApplication(ctx context.Context, op string, id domain.ApplicationID) (domain.Application, error) {
	app, err := u.repos.Applications.FindByID(ctx, id)
	if err != nil {
		return app, fetchFailed(op, err)
	}
	return app, nil
}

func (u unit) loadTodo(ctx context.Context, op string, id domain.TodoID) (domain.ApplicationTodo, error) {
	todo, err := u.repos.Todos.FindByID(ctx, id)
	if err != nil {
		return todo, fetchFailed(op, err)
	}
	return todo, nil
}

func (u unit) loadSession(ctx context.Context, op string, id domain.ChatSessionID) (domain.ChatSession, error) {
	session, err := u.repos.Sessions.FindByID(ctx, id)
	if err != nil {
		return session, fetchFailed(op, err)
	}
	return session, nil
}

// loadOpenTodo loads a todo and rejects it when its application has already
// been submitted.
func (u unit) loadOpenTodo(ctx context.Context, op string, id domain.TodoID) (domain.ApplicationTodo, error) {
	todo, err := u.loadTodo(ctx, op, id)
	if err != nil {
		return todo, err
	}
	app, err := u.loadApplication(ctx, op, todo.ApplicationID)
	if err != nil {
		return todo, err
	}
	if app.IsSubmitted() {
		return todo, fail(op, KindDomain, domain.Withf(domain.ErrAlreadySubmitted, "application %s", app.ID))
	}
	return todo, nil
}

func (u unit) saveApplication(ctx context.Context, op string, app domain.Application) (domain.Application, error) {
	saved, err := u.repos.Applications.Save(ctx, app)
	if err != nil {
		u.logger.Error("save application failed", "op", op, "application_id", app.ID, "error", err)
		return app, fail(op, KindSave, err)
	}
	return saved, nil
}

func (u unit) saveSession(ctx context.Context, op string, session domain.ChatSession) (domain.ChatSession, error) {
	saved, err := u.repos.Sessions.Save(ctx, session)
	if err != nil {
		u.logger.Error("save chat session failed", "op", op, "session_id", session.ID, "error", err)
		return session, fail(op, KindSave, err)
	}
	return saved, nil
}

func (u unit) saveTodo(ctx context.Context, op string, todo domain.ApplicationTodo) error {
	if err := u.repos.Todos.Save(ctx, todo); err != nil {
		u.logger.Error("save todo failed", "op", op, "todo_id", todo.ID, "error", err)
		return fail(op, KindSave, err)
	}
	return nil
}

// upsertField stores value as the extracted field of a done todo, reusing the
// existing field when there is one.
func (u unit) upsertField(ctx context.Context, op string, todo domain.ApplicationTodo, source domain.ExtractionSource) (domain.ExtractedField, error) {
	now := u.now()
	field, err := u.repos.Fields.FindByTodo(ctx, todo.ID)
	switch {
	case err == nil:
		field = field.WithValue(todo.Value(), source, now)
	case errors.Is(err, domain.ErrNotFound):
		field = domain.NewExtractedField(domain.NewID[domain.ExtractedFieldID](), todo, source, now)
	default:
		return field, fail(op, KindFetch, err)
	}
	if err := u.repos.Fields.Save(ctx, field); err != nil {
		u.logger.Error("save extracted field failed", "op", op, "todo_id", todo.ID, "error", err)
		return field, fail(op, KindSave, err)
	}
	return field, nil
}
