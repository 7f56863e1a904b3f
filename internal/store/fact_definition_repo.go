package store

import (
	"context"
	"fmt"

	"github.com/hireflow/intake-engine/internal/domain"
)

// FactDefinitionRepo handles persistence for FieldFactDefinition records.
// Definitions are insert-only.
type FactDefinitionRepo struct {
	DB Queryer
}

// InsertAll stores definitions in a single transaction. Inserting an ID that
// already exists fails the whole batch.
func (r *FactDefinitionRepo) InsertAll(ctx context.Context, defs []domain.FieldFactDefinition) error {
	const q = `INSERT INTO fact_definitions (id, schema_version_id, job_form_field_id, fact, done_criteria, required, sort_order)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	return withTx(ctx, r.DB, func(tx Queryer) error {
		for _, d := range defs {
			_, err := tx.ExecContext(ctx, q,
				string(d.ID),
				string(d.SchemaVersionID),
				string(d.JobFormFieldID),
				d.Fact,
				d.DoneCriteria,
				boolInt(d.Required),
				d.SortOrder,
			)
			if err != nil {
				return fmt.Errorf("insert fact definition %s: %w", d.ID, err)
			}
		}
		return nil
	})
}

// ListBySchemaVersion returns the definitions of a schema version ordered by
// sort order.
func (r *FactDefinitionRepo) ListBySchemaVersion(ctx context.Context, id domain.SchemaVersionID) ([]domain.FieldFactDefinition, error) {
	const q = `SELECT id, schema_version_id, job_form_field_id, fact, done_criteria, required, sort_order
FROM fact_definitions
WHERE schema_version_id = ?
ORDER BY sort_order ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, q, string(id))
	if err != nil {
		return nil, fmt.Errorf("list fact definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.FieldFactDefinition
	for rows.Next() {
		var (
			d                        domain.FieldFactDefinition
			defID, schemaID, fieldID string
			required                 int
		)
		if err := rows.Scan(&defID, &schemaID, &fieldID, &d.Fact, &d.DoneCriteria, &required, &d.SortOrder); err != nil {
			return nil, fmt.Errorf("scan fact definition: %w", err)
		}
		d.ID = domain.FactDefinitionID(defID)
		d.SchemaVersionID = domain.SchemaVersionID(schemaID)
		d.JobFormFieldID = domain.FormFieldID(fieldID)
		d.Required = required != 0
		defs = append(defs, d)
	}
	return defs, rows.Err()
}
