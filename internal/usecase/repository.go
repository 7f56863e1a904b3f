package usecase

import (
	"context"

	"github.com/hireflow/intake-engine/internal/domain"
)

// Repository interfaces are the persistence boundary of the usecases. The
// store package satisfies them with SQLite; tests use in-memory fakes.
// Lookups of missing records return an error matching domain.ErrNotFound.

type ApplicationRepository interface {
	FindByID(ctx context.Context, id domain.ApplicationID) (domain.Application, error)
	// Save returns the stored snapshot with its new version, or
	// domain.ErrOptimisticLock when the stored version moved on.
	Save(ctx context.Context, app domain.Application) (domain.Application, error)
}

type TodoRepository interface {
	FindByID(ctx context.Context, id domain.TodoID) (domain.ApplicationTodo, error)
	ListByApplication(ctx context.Context, appID domain.ApplicationID) ([]domain.ApplicationTodo, error)
	Save(ctx context.Context, todo domain.ApplicationTodo) error
	SaveAll(ctx context.Context, todos []domain.ApplicationTodo) error
}

type ChatSessionRepository interface {
	FindByID(ctx context.Context, id domain.ChatSessionID) (domain.ChatSession, error)
	ListByApplication(ctx context.Context, appID domain.ApplicationID) ([]domain.ChatSession, error)
	Save(ctx context.Context, s domain.ChatSession) (domain.ChatSession, error)
}

type ExtractedFieldRepository interface {
	FindByID(ctx context.Context, id domain.ExtractedFieldID) (domain.ExtractedField, error)
	FindByTodo(ctx context.Context, todoID domain.TodoID) (domain.ExtractedField, error)
	ListByApplication(ctx context.Context, appID domain.ApplicationID) ([]domain.ExtractedField, error)
	Save(ctx context.Context, f domain.ExtractedField) error
}

type FactDefinitionRepository interface {
	InsertAll(ctx context.Context, defs []domain.FieldFactDefinition) error
	ListBySchemaVersion(ctx context.Context, id domain.SchemaVersionID) ([]domain.FieldFactDefinition, error)
}

// LogRepository stores the append-only records.
type LogRepository interface {
	AppendConsent(ctx context.Context, c domain.ConsentLog) error
	ListConsents(ctx context.Context, appID domain.ApplicationID) ([]domain.ConsentLog, error)
	AppendMessage(ctx context.Context, m domain.ChatMessage) error
	ListMessages(ctx context.Context, sessionID domain.ChatSessionID) ([]domain.ChatMessage, error)
	AppendToolCall(ctx context.Context, l domain.ToolCallLog) error
	ListToolCalls(ctx context.Context, sessionID domain.ChatSessionID) ([]domain.ToolCallLog, error)
}

// Repositories groups the repositories a Service needs.
type Repositories struct {
	Applications ApplicationRepository
	Todos        TodoRepository
	Sessions     ChatSessionRepository
	Fields       ExtractedFieldRepository
	Facts        FactDefinitionRepository
	Logs         LogRepository
}

// UnitOfWork runs fn over repositories that share one transaction. Every
// write fn makes is committed together when fn returns nil and discarded
// when it returns an error.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos Repositories) error) error
}
