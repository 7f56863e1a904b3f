package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireflow/intake-engine/internal/domain"
)

// submitted runs a full interview up to a successful submission. The
// optional third todo is left pending.
func (f *fixture) submitted(t *testing.T) StartInterviewResult {
	t.Helper()
	ctx := context.Background()
	start := f.start(t, StartInterviewRequest{})
	f.answer(t, start.Session.ID, start.Todos[0].ID, "Berlin")
	f.answer(t, start.Session.ID, start.Todos[1].ID, "2026-04-01")

	req := ApplicationRequest{ApplicationID: string(start.Application.ID)}
	_, err := f.svc.MarkExtractionReviewed(ctx, req)
	require.NoError(t, err)
	_, err = f.svc.CheckConsent(ctx, CheckConsentRequest{ApplicationID: req.ApplicationID, ConsentText: "I agree"})
	require.NoError(t, err)
	_, err = f.svc.SubmitApplication(ctx, req)
	require.NoError(t, err)
	return start
}

func TestSubmitApplication_FullFlow(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.submitted(t)

	app := f.apps.rows[start.Application.ID]
	require.NotNil(t, app.SubmittedAt)
	require.NotNil(t, app.ExtractionReviewedAt)
	require.NotNil(t, app.ConsentCheckedAt)
	assert.Equal(t, domain.TodoPending, f.todos.rows[start.Todos[2].ID].Status)

	require.Len(t, f.logs.consents, 1)
	assert.Equal(t, "I agree", f.logs.consents[0].ConsentText)
	assert.Equal(t, start.Application.ID, f.logs.consents[0].ApplicationID)

	_, err := f.svc.SubmitApplication(context.Background(), ApplicationRequest{ApplicationID: string(start.Application.ID)})
	requireKind(t, err, KindDomain)
	assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)
}

func TestSubmitApplication_GateOrder(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	ctx := context.Background()
	req := ApplicationRequest{ApplicationID: string(start.Application.ID)}

	_, err := f.svc.SubmitApplication(ctx, req)
	requireKind(t, err, KindDomain)
	var se *domain.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.CodeExtractionNotReviewed, se.Code)

	_, err = f.svc.MarkExtractionReviewed(ctx, req)
	require.NoError(t, err)
	_, err = f.svc.SubmitApplication(ctx, req)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.CodeConsentNotChecked, se.Code)

	_, err = f.svc.CheckConsent(ctx, CheckConsentRequest{ApplicationID: req.ApplicationID})
	require.NoError(t, err)
	_, err = f.svc.SubmitApplication(ctx, req)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.CodeRequiredTodosIncomplete, se.Code)

	want := []domain.TodoID{start.Todos[0].ID, start.Todos[1].ID}
	if want[1] < want[0] {
		want[0], want[1] = want[1], want[0]
	}
	assert.Equal(t, want, se.IncompleteTodoIDs)
	assert.Nil(t, f.apps.rows[start.Application.ID].SubmittedAt)
}

func TestCheckConsent_RequiresReview(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})

	_, err := f.svc.CheckConsent(context.Background(), CheckConsentRequest{ApplicationID: string(start.Application.ID)})
	requireKind(t, err, KindDomain)
	var se *domain.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.CodeExtractionNotReviewed, se.Code)
	assert.Empty(t, f.logs.consents)
}

func TestMarkExtractionReviewed_KeepsFirstTimestamp(t *testing.T) {
	clock := t0
	f := newFixture(t, Options{})
	f.svc.now = func() time.Time { return clock }
	start := f.start(t, StartInterviewRequest{})
	ctx := context.Background()
	req := ApplicationRequest{ApplicationID: string(start.Application.ID)}

	first, err := f.svc.MarkExtractionReviewed(ctx, req)
	require.NoError(t, err)
	clock = t0.Add(time.Hour)
	second, err := f.svc.MarkExtractionReviewed(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, *first.ExtractionReviewedAt, *second.ExtractionReviewedAt)
	assert.Equal(t, first.Version+1, second.Version)
}

func TestUpdateApplicationStatus(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	ctx := context.Background()
	id := string(start.Application.ID)

	app, err := f.svc.UpdateApplicationStatus(ctx, UpdateApplicationStatusRequest{ApplicationID: id, Status: "scheduling"})
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationScheduling, app.Status)

	_, err = f.svc.UpdateApplicationStatus(ctx, UpdateApplicationStatusRequest{ApplicationID: id, Status: "closed"})
	requireKind(t, err, KindDomain)
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "application", te.Entity)

	_, err = f.svc.UpdateApplicationStatus(ctx, UpdateApplicationStatusRequest{ApplicationID: id, Status: "hired"})
	requireKind(t, err, KindValidation)
}

func TestUpdateApplicationStatus_SaveConflict(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.start(t, StartInterviewRequest{})
	f.apps.saveErr = domain.ErrOptimisticLock

	_, err := f.svc.UpdateApplicationStatus(context.Background(), UpdateApplicationStatusRequest{
		ApplicationID: string(start.Application.ID),
		Status:        "closed",
	})
	requireKind(t, err, KindSave)
	assert.ErrorIs(t, err, domain.ErrOptimisticLock)
}

func TestGetApplication(t *testing.T) {
	f := newFixture(t, Options{})
	start := f.submitted(t)

	view, err := f.svc.GetApplication(context.Background(), ApplicationRequest{ApplicationID: string(start.Application.ID)})
	require.NoError(t, err)
	assert.Equal(t, start.Application.ID, view.Application.ID)
	assert.Len(t, view.Todos, 3)
	assert.Len(t, view.Fields, 2)
	assert.Len(t, view.Sessions, 1)
	assert.Len(t, view.Consents, 1)

	_, err = f.svc.GetApplication(context.Background(), ApplicationRequest{ApplicationID: "missing"})
	requireKind(t, err, KindNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetApplication(context.Background(), ApplicationRequest{})
	requireKind(t, err, KindValidation)
}
