package domain

import "time"

// Contact holds the applicant details captured when an interview bootstraps.
type Contact struct {
	Name  string `json:"name" validate:"omitempty,max=200"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=40"`
}

// Application is the aggregate root for one applicant's interaction with one
// job. Methods return modified copies; the receiver is never changed.
type Application struct {
	ID                   ApplicationID     `json:"id"`
	JobID                JobID             `json:"job_id"`
	SchemaVersionID      SchemaVersionID   `json:"schema_version_id"`
	ApplicantName        *string           `json:"applicant_name"`
	ApplicantEmail       *string           `json:"applicant_email"`
	ApplicantPhone       *string           `json:"applicant_phone"`
	Status               ApplicationStatus `json:"status"`
	ExtractionReviewedAt *time.Time        `json:"extraction_reviewed_at"`
	ConsentCheckedAt     *time.Time        `json:"consent_checked_at"`
	SubmittedAt          *time.Time        `json:"submitted_at"`
	Version              int64             `json:"version"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// NewApplication opens an application in status new.
func NewApplication(id ApplicationID, jobID JobID, schemaVersionID SchemaVersionID, now time.Time) Application {
	return Application{
		ID:              id,
		JobID:           jobID,
		SchemaVersionID: schemaVersionID,
		Status:          ApplicationNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stamp(now time.Time) *time.Time {
	return &now
}

// Bootstrap records the applicant's contact details. Empty fields leave the
// existing value untouched.
func (a Application) Bootstrap(c Contact, now time.Time) Application {
	if v := optional(c.Name); v != nil {
		a.ApplicantName = v
	}
	if v := optional(c.Email); v != nil {
		a.ApplicantEmail = v
	}
	if v := optional(c.Phone); v != nil {
		a.ApplicantPhone = v
	}
	a.UpdatedAt = now
	return a
}

// IsSubmitted reports whether Submit has succeeded.
func (a Application) IsSubmitted() bool { return a.SubmittedAt != nil }

// MarkExtractionReviewed records that the applicant reviewed the extracted
// values. The first timestamp is kept.
func (a Application) MarkExtractionReviewed(now time.Time) Application {
	if a.ExtractionReviewedAt == nil {
		a.ExtractionReviewedAt = stamp(now)
	}
	a.UpdatedAt = now
	return a
}

// CheckConsent records consent. Extraction must have been reviewed first.
// The first timestamp is kept.
func (a Application) CheckConsent(now time.Time) (Application, error) {
	if a.ExtractionReviewedAt == nil {
		return a, &SubmissionError{Code: CodeExtractionNotReviewed}
	}
	if a.ConsentCheckedAt == nil {
		a.ConsentCheckedAt = stamp(now)
	}
	a.UpdatedAt = now
	return a, nil
}

// Submit finalizes the application.
func (a Application) Submit(now time.Time) (Application, error) {
	switch {
	case a.SubmittedAt != nil:
		return a, ErrAlreadySubmitted
	case a.ExtractionReviewedAt == nil:
		return a, &SubmissionError{Code: CodeExtractionNotReviewed}
	case a.ConsentCheckedAt == nil:
		return a, &SubmissionError{Code: CodeConsentNotChecked}
	}
	a.SubmittedAt = stamp(now)
	a.UpdatedAt = now
	return a, nil
}

// UpdateStatus moves the application to next.
func (a Application) UpdateStatus(next ApplicationStatus, now time.Time) (Application, error) {
	if !a.Status.CanTransitionTo(next) {
		return a, &TransitionError{Entity: "application", From: string(a.Status), To: string(next)}
	}
	a.Status = next
	a.UpdatedAt = now
	return a, nil
}
