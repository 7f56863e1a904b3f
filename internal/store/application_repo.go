package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hireflow/intake-engine/internal/domain"
)

// ApplicationRepo handles persistence for Application aggregates.
type ApplicationRepo struct {
	DB Queryer
}

const applicationColumns = `id, job_id, schema_version_id, applicant_name, applicant_email, applicant_phone,
	status, extraction_reviewed_at, consent_checked_at, submitted_at, version, created_at, updated_at`

// FindByID retrieves an application by its ID.
func (r *ApplicationRepo) FindByID(ctx context.Context, id domain.ApplicationID) (domain.Application, error) {
	q := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, q, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Application{}, domain.Withf(domain.ErrNotFound, "application %s", id)
		}
		return domain.Application{}, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

// Save inserts a new application (Version 0) or updates an existing one
// using optimistic locking on version. The stored snapshot is returned with
// its new version.
func (r *ApplicationRepo) Save(ctx context.Context, app domain.Application) (domain.Application, error) {
	if app.Version == 0 {
		if err := r.insert(ctx, app); err != nil {
			return app, err
		}
		app.Version = 1
		return app, nil
	}

	const q = `UPDATE applications SET
		applicant_name = ?,
		applicant_email = ?,
		applicant_phone = ?,
		status = ?,
		extraction_reviewed_at = ?,
		consent_checked_at = ?,
		submitted_at = ?,
		version = version + 1,
		updated_at = ?
	WHERE id = ? AND version = ?`

	res, err := r.DB.ExecContext(ctx, q,
		nullString(app.ApplicantName),
		nullString(app.ApplicantEmail),
		nullString(app.ApplicantPhone),
		string(app.Status),
		nullMillis(app.ExtractionReviewedAt),
		nullMillis(app.ConsentCheckedAt),
		nullMillis(app.SubmittedAt),
		toMillis(app.UpdatedAt),
		string(app.ID),
		app.Version,
	)
	if err != nil {
		return app, fmt.Errorf("update application: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return app, fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return app, domain.ErrOptimisticLock
	}
	app.Version++
	return app, nil
}

func (r *ApplicationRepo) insert(ctx context.Context, app domain.Application) error {
	const q = `INSERT INTO applications (id, job_id, schema_version_id, applicant_name, applicant_email, applicant_phone,
	status, extraction_reviewed_at, consent_checked_at, submitted_at, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`
	_, err := r.DB.ExecContext(ctx, q,
		string(app.ID),
		string(app.JobID),
		string(app.SchemaVersionID),
		nullString(app.ApplicantName),
		nullString(app.ApplicantEmail),
		nullString(app.ApplicantPhone),
		string(app.Status),
		nullMillis(app.ExtractionReviewedAt),
		nullMillis(app.ConsentCheckedAt),
		nullMillis(app.SubmittedAt),
		toMillis(app.CreatedAt),
		toMillis(app.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func scanApplication(row scanner) (domain.Application, error) {
	var (
		a                               domain.Application
		id, jobID, schemaID, status     string
		name, email, phone              sql.NullString
		reviewedAt, consentAt, submitAt sql.NullInt64
		createdAt, updatedAt            int64
	)
	err := row.Scan(&id, &jobID, &schemaID, &name, &email, &phone,
		&status, &reviewedAt, &consentAt, &submitAt, &a.Version, &createdAt, &updatedAt)
	if err != nil {
		return a, err
	}
	a.ID = domain.ApplicationID(id)
	a.JobID = domain.JobID(jobID)
	a.SchemaVersionID = domain.SchemaVersionID(schemaID)
	a.ApplicantName = stringPtr(name)
	a.ApplicantEmail = stringPtr(email)
	a.ApplicantPhone = stringPtr(phone)
	a.Status = domain.ApplicationStatus(status)
	a.ExtractionReviewedAt = timePtr(reviewedAt)
	a.ConsentCheckedAt = timePtr(consentAt)
	a.SubmittedAt = timePtr(submitAt)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}
