package usecase

import (
	"context"

	"github.com/hireflow/intake-engine/internal/domain"
)

// ApplicationRequest addresses one application.
type ApplicationRequest struct {
	ApplicationID string `json:"application_id" validate:"required"`
}

// applicationID validates req and parses the application ID it addresses.
func (s *Service) applicationID(op string, req any, raw string) (domain.ApplicationID, error) {
	if err := s.check(op, req); err != nil {
		return "", err
	}
	return parseID[domain.ApplicationID](op, "application_id", raw)
}

// MarkExtractionReviewed records that the applicant reviewed the extracted
// answers. Repeated calls keep the first timestamp.
func (s *Service) MarkExtractionReviewed(ctx context.Context, req ApplicationRequest) (domain.Application, error) {
	const op = "MarkExtractionReviewed"

	id, err := s.applicationID(op, req, req.ApplicationID)
	if err != nil {
		return domain.Application{}, err
	}
	var saved domain.Application
	err = s.run(ctx, op, KindSave, func(u unit) error {
		app, err := u.loadApplication(ctx, op, id)
		if err != nil {
			return err
		}
		saved, err = u.saveApplication(ctx, op, app.MarkExtractionReviewed(u.now()))
		return err
	})
	return saved, err
}

// CheckConsentRequest records consent with the text the applicant agreed to.
type CheckConsentRequest struct {
	ApplicationID string `json:"application_id" validate:"required"`
	ConsentText   string `json:"consent_text" validate:"max=10000"`
}

// CheckConsent marks consent on a reviewed application and appends a consent
// log entry.
func (s *Service) CheckConsent(ctx context.Context, req CheckConsentRequest) (domain.Application, error) {
	const op = "CheckConsent"

	id, err := s.applicationID(op, req, req.ApplicationID)
	if err != nil {
		return domain.Application{}, err
	}
	var saved domain.Application
	err = s.run(ctx, op, KindSave, func(u unit) error {
		app, err := u.loadApplication(ctx, op, id)
		if err != nil {
			return err
		}
		now := u.now()
		consented, err := app.CheckConsent(now)
		if err != nil {
			return fail(op, KindDomain, err)
		}
		if saved, err = u.saveApplication(ctx, op, consented); err != nil {
			return err
		}

		entry := domain.ConsentLog{
			ID:            domain.NewID[domain.ConsentLogID](),
			ApplicationID: app.ID,
			ConsentText:   req.ConsentText,
			CreatedAt:     now,
		}
		if err := u.repos.Logs.AppendConsent(ctx, entry); err != nil {
			return fail(op, KindRepository, err)
		}
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	return saved, nil
}

// SubmitApplication runs the submission gate over the application and all of
// its todos, then records the submission.
func (s *Service) SubmitApplication(ctx context.Context, req ApplicationRequest) (domain.Application, error) {
	const op = "SubmitApplication"

	id, err := s.applicationID(op, req, req.ApplicationID)
	if err != nil {
		return domain.Application{}, err
	}
	var saved domain.Application
	err = s.run(ctx, op, KindSave, func(u unit) error {
		app, err := u.loadApplication(ctx, op, id)
		if err != nil {
			return err
		}
		if app.IsSubmitted() {
			return fail(op, KindDomain, domain.Withf(domain.ErrAlreadySubmitted, "application %s", app.ID))
		}
		todos, err := u.repos.Todos.ListByApplication(ctx, app.ID)
		if err != nil {
			return fail(op, KindFetch, err)
		}
		if err := u.gate.Validate(app, todos); err != nil {
			return fail(op, KindDomain, err)
		}
		submitted, err := app.Submit(u.now())
		if err != nil {
			return fail(op, KindDomain, err)
		}
		if saved, err = u.saveApplication(ctx, op, submitted); err != nil {
			return err
		}
		u.logger.Info("application submitted", "application_id", app.ID, "todos", len(todos))
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	return saved, nil
}

// UpdateApplicationStatusRequest moves an application through review.
type UpdateApplicationStatusRequest struct {
	ApplicationID string `json:"application_id" validate:"required"`
	Status        string `json:"status" validate:"required"`
}

// UpdateApplicationStatus changes the review status of an application.
func (s *Service) UpdateApplicationStatus(ctx context.Context, req UpdateApplicationStatusRequest) (domain.Application, error) {
	const op = "UpdateApplicationStatus"

	id, err := s.applicationID(op, req, req.ApplicationID)
	if err != nil {
		return domain.Application{}, err
	}
	next, err := domain.ParseApplicationStatus(req.Status)
	if err != nil {
		return domain.Application{}, fail(op, KindValidation, err)
	}
	var saved domain.Application
	err = s.run(ctx, op, KindSave, func(u unit) error {
		app, err := u.loadApplication(ctx, op, id)
		if err != nil {
			return err
		}
		updated, err := app.UpdateStatus(next, u.now())
		if err != nil {
			return fail(op, KindDomain, err)
		}
		if saved, err = u.saveApplication(ctx, op, updated); err != nil {
			return err
		}
		u.logger.Info("application status changed", "application_id", app.ID, "from", app.Status, "to", next)
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	return saved, nil
}

// ApplicationView is an application with everything collected for it.
type ApplicationView struct {
	Application domain.Application       `json:"application"`
	Todos       []domain.ApplicationTodo `json:"todos"`
	Fields      []domain.ExtractedField  `json:"fields"`
	Sessions    []domain.ChatSession     `json:"sessions"`
	Consents    []domain.ConsentLog      `json:"consents"`
}

// GetApplication loads an application with its todos, extracted fields,
// sessions and consent log.
func (s *Service) GetApplication(ctx context.Context, req ApplicationRequest) (ApplicationView, error) {
	const op = "GetApplication"
	var view ApplicationView

	id, err := s.applicationID(op, req, req.ApplicationID)
	if err != nil {
		return view, err
	}
	err = s.run(ctx, op, KindFetch, func(u unit) error {
		var err error
		if view.Application, err = u.loadApplication(ctx, op, id); err != nil {
			return err
		}
		if view.Todos, err = u.repos.Todos.ListByApplication(ctx, id); err != nil {
			return fail(op, KindFetch, err)
		}
		if view.Fields, err = u.repos.Fields.ListByApplication(ctx, id); err != nil {
			return fail(op, KindFetch, err)
		}
		if view.Sessions, err = u.repos.Sessions.ListByApplication(ctx, id); err != nil {
			return fail(op, KindFetch, err)
		}
		if view.Consents, err = u.repos.Logs.ListConsents(ctx, id); err != nil {
			return fail(op, KindRepository, err)
		}
		return nil
	})
	if err != nil {
		return ApplicationView{}, err
	}
	return view, nil
}
