package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hireflow/intake-engine/internal/domain"
)

// ExtractedFieldRepo handles persistence for ExtractedField records.
type ExtractedFieldRepo struct {
	DB Queryer
}

const fieldColumns = `id, application_id, todo_id, form_field_id, value, source, created_at, updated_at`

// FindByID retrieves an extracted field by its ID.
func (r *ExtractedFieldRepo) FindByID(ctx context.Context, id domain.ExtractedFieldID) (domain.ExtractedField, error) {
	q := `SELECT ` + fieldColumns + ` FROM extracted_fields WHERE id = ?`
	return r.findOne(ctx, q, string(id), "extracted field "+string(id))
}

// FindByTodo retrieves the extracted field of a todo.
func (r *ExtractedFieldRepo) FindByTodo(ctx context.Context, todoID domain.TodoID) (domain.ExtractedField, error) {
	q := `SELECT ` + fieldColumns + ` FROM extracted_fields WHERE todo_id = ?`
	return r.findOne(ctx, q, string(todoID), "extracted field for todo "+string(todoID))
}

func (r *ExtractedFieldRepo) findOne(ctx context.Context, q, arg, what string) (domain.ExtractedField, error) {
	f, err := scanField(r.DB.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ExtractedField{}, domain.Withf(domain.ErrNotFound, "%s", what)
		}
		return domain.ExtractedField{}, fmt.Errorf("get extracted field: %w", err)
	}
	return f, nil
}

// ListByApplication returns all extracted fields of an application.
func (r *ExtractedFieldRepo) ListByApplication(ctx context.Context, appID domain.ApplicationID) ([]domain.ExtractedField, error) {
	q := `SELECT ` + fieldColumns + ` FROM extracted_fields
WHERE application_id = ?
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, q, string(appID))
	if err != nil {
		return nil, fmt.Errorf("list extracted fields: %w", err)
	}
	defer rows.Close()

	var fields []domain.ExtractedField
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan extracted field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// Save upserts a field keyed by its todo. A second field for the same todo
// replaces the value of the first and keeps the first ID.
func (r *ExtractedFieldRepo) Save(ctx context.Context, f domain.ExtractedField) error {
	return withTx(ctx, r.DB, func(tx Queryer) error {
		const update = `UPDATE extracted_fields SET value = ?, source = ?, updated_at = ? WHERE todo_id = ?`
		res, err := tx.ExecContext(ctx, update, f.Value, string(f.Source), toMillis(f.UpdatedAt), string(f.TodoID))
		if err != nil {
			return fmt.Errorf("update extracted field: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("check rows affected: %w", err)
		} else if n > 0 {
			return nil
		}

		const insert = `INSERT INTO extracted_fields (id, application_id, todo_id, form_field_id, value, source, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		_, err = tx.ExecContext(ctx, insert,
			string(f.ID),
			string(f.ApplicationID),
			string(f.TodoID),
			string(f.FormFieldID),
			f.Value,
			string(f.Source),
			toMillis(f.CreatedAt),
			toMillis(f.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("create extracted field: %w", err)
		}
		return nil
	})
}

func scanField(row scanner) (domain.ExtractedField, error) {
	var (
		f                                  domain.ExtractedField
		id, appID, todoID, fieldID, source string
		createdAt, updatedAt               int64
	)
	if err := row.Scan(&id, &appID, &todoID, &fieldID, &f.Value, &source, &createdAt, &updatedAt); err != nil {
		return f, err
	}
	f.ID = domain.ExtractedFieldID(id)
	f.ApplicationID = domain.ApplicationID(appID)
	f.TodoID = domain.TodoID(todoID)
	f.FormFieldID = domain.FormFieldID(fieldID)
	f.Source = domain.ExtractionSource(source)
	f.CreatedAt = fromMillis(createdAt)
	f.UpdatedAt = fromMillis(updatedAt)
	return f, nil
}
