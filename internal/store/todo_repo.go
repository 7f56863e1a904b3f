package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hireflow/intake-engine/internal/domain"
)

// TodoRepo handles persistence for ApplicationTodo records. Todos are never
// deleted.
type TodoRepo struct {
	DB Queryer
}

const todoColumns = `id, application_id, fact_definition_id, job_form_field_id, fact, done_criteria,
	required, status, extracted_value, sort_order, created_at, updated_at`

// FindByID retrieves a todo by its ID.
func (r *TodoRepo) FindByID(ctx context.Context, id domain.TodoID) (domain.ApplicationTodo, error) {
	q := `SELECT ` + todoColumns + ` FROM application_todos WHERE id = ?`
	todo, err := scanTodo(r.DB.QueryRowContext(ctx, q, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ApplicationTodo{}, domain.Withf(domain.ErrNotFound, "todo %s", id)
		}
		return domain.ApplicationTodo{}, fmt.Errorf("get todo: %w", err)
	}
	return todo, nil
}

// ListByApplication returns all todos of an application in interview order.
func (r *TodoRepo) ListByApplication(ctx context.Context, appID domain.ApplicationID) ([]domain.ApplicationTodo, error) {
	q := `SELECT ` + todoColumns + ` FROM application_todos
WHERE application_id = ?
ORDER BY sort_order ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, q, string(appID))
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	var todos []domain.ApplicationTodo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Save upserts a single todo.
func (r *TodoRepo) Save(ctx context.Context, todo domain.ApplicationTodo) error {
	return upsertTodo(ctx, r.DB, todo)
}

// SaveAll upserts todos in a single transaction.
func (r *TodoRepo) SaveAll(ctx context.Context, todos []domain.ApplicationTodo) error {
	if len(todos) == 0 {
		return nil
	}
	return withTx(ctx, r.DB, func(tx Queryer) error {
		for _, t := range todos {
			if err := upsertTodo(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertTodo(ctx context.Context, q Queryer, t domain.ApplicationTodo) error {
	const stmt = `INSERT INTO application_todos (id, application_id, fact_definition_id, job_form_field_id, fact, done_criteria,
	required, status, extracted_value, sort_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	required = excluded.required,
	status = excluded.status,
	extracted_value = excluded.extracted_value,
	updated_at = excluded.updated_at`
	_, err := q.ExecContext(ctx, stmt,
		string(t.ID),
		string(t.ApplicationID),
		string(t.FactDefinitionID),
		string(t.JobFormFieldID),
		t.Fact,
		t.DoneCriteria,
		boolInt(t.Required),
		string(t.Status),
		nullString(t.ExtractedValue),
		t.SortOrder,
		toMillis(t.CreatedAt),
		toMillis(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save todo %s: %w", t.ID, err)
	}
	return nil
}

func scanTodo(row scanner) (domain.ApplicationTodo, error) {
	var (
		t                                 domain.ApplicationTodo
		id, appID, defID, fieldID, status string
		value                             sql.NullString
		required                          int
		createdAt, updatedAt              int64
	)
	err := row.Scan(&id, &appID, &defID, &fieldID, &t.Fact, &t.DoneCriteria,
		&required, &status, &value, &t.SortOrder, &createdAt, &updatedAt)
	if err != nil {
		return t, err
	}
	t.ID = domain.TodoID(id)
	t.ApplicationID = domain.ApplicationID(appID)
	t.FactDefinitionID = domain.FactDefinitionID(defID)
	t.JobFormFieldID = domain.FormFieldID(fieldID)
	t.Required = required != 0
	t.Status = domain.TodoStatus(status)
	t.ExtractedValue = stringPtr(value)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return t, nil
}
