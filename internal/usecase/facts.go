package usecase

import (
	"context"

	"github.com/hireflow/intake-engine/internal/domain"
)

// ImportFactDefinitionsRequest loads the fact definitions of one form schema
// version. Definitions without an ID get a generated one; an empty
// SchemaVersionID on a definition inherits the request's.
type ImportFactDefinitionsRequest struct {
	SchemaVersionID string                       `json:"schema_version_id" yaml:"schema_version_id" validate:"required"`
	Definitions     []domain.FieldFactDefinition `json:"definitions" yaml:"definitions" validate:"required,min=1,dive"`
}

// ImportFactDefinitions stores a batch of immutable fact definitions. The
// batch is all or nothing.
func (s *Service) ImportFactDefinitions(ctx context.Context, req ImportFactDefinitionsRequest) ([]domain.FieldFactDefinition, error) {
	const op = "ImportFactDefinitions"

	if err := s.check(op, req); err != nil {
		return nil, err
	}
	schemaID, err := parseID[domain.SchemaVersionID](op, "schema_version_id", req.SchemaVersionID)
	if err != nil {
		return nil, err
	}

	defs := make([]domain.FieldFactDefinition, len(req.Definitions))
	seen := make(map[domain.FactDefinitionID]bool, len(defs))
	for i, d := range req.Definitions {
		switch d.SchemaVersionID {
		case "":
			d.SchemaVersionID = schemaID
		case schemaID:
		default:
			return nil, invalid(op, "definition %d belongs to schema version %s, want %s", i, d.SchemaVersionID, schemaID)
		}
		if d.ID == "" {
			d.ID = domain.NewID[domain.FactDefinitionID]()
		}
		if _, err := parseID[domain.FactDefinitionID](op, "id", string(d.ID)); err != nil {
			return nil, err
		}
		if _, err := parseID[domain.FormFieldID](op, "job_form_field_id", string(d.JobFormFieldID)); err != nil {
			return nil, err
		}
		if seen[d.ID] {
			return nil, invalid(op, "duplicate definition id %s", d.ID)
		}
		seen[d.ID] = true
		defs[i] = d
	}

	err = s.run(ctx, op, KindSave, func(u unit) error {
		if err := u.repos.Facts.InsertAll(ctx, defs); err != nil {
			u.logger.Error("import fact definitions failed", "schema_version_id", schemaID, "error", err)
			return fail(op, KindSave, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("fact definitions imported", "schema_version_id", schemaID, "count", len(defs))
	return defs, nil
}
