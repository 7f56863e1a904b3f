package workflow

import (
	"github.com/hireflow/intake-engine/internal/domain"
)

// SubmissionService is the aggregate-level gate in front of
// Application.Submit. It sees every todo of the application at once.
type SubmissionService struct{}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService() *SubmissionService {
	return &SubmissionService{}
}

// Validate checks, in order, that extraction was reviewed, consent was
// checked and every required todo is done. It stops at the first failure and
// returns it as a *domain.SubmissionError.
func (s *SubmissionService) Validate(app domain.Application, todos []domain.ApplicationTodo) error {
	if app.ExtractionReviewedAt == nil {
		return &domain.SubmissionError{Code: domain.CodeExtractionNotReviewed}
	}
	if app.ConsentCheckedAt == nil {
		return &domain.SubmissionError{Code: domain.CodeConsentNotChecked}
	}

	var incomplete []domain.TodoID
	for _, t := range todos {
		if t.Required && t.Status != domain.TodoDone {
			incomplete = append(incomplete, t.ID)
		}
	}
	if len(incomplete) > 0 {
		return domain.NewIncompleteTodosError(incomplete)
	}
	return nil
}
