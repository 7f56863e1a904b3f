package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hireflow/intake-engine/internal/domain"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type memApplications struct {
	rows    map[domain.ApplicationID]domain.Application
	saveErr error
}

func (m *memApplications) FindByID(_ context.Context, id domain.ApplicationID) (domain.Application, error) {
	app, ok := m.rows[id]
	if !ok {
		return app, domain.Withf(domain.ErrNotFound, "application %s", id)
	}
	return app, nil
}

func (m *memApplications) Save(_ context.Context, app domain.Application) (domain.Application, error) {
	if m.saveErr != nil {
		return app, m.saveErr
	}
	if cur, ok := m.rows[app.ID]; ok && cur.Version != app.Version {
		return app, domain.ErrOptimisticLock
	}
	app.Version++
	m.rows[app.ID] = app
	return app, nil
}

type memTodos struct {
	rows    map[domain.TodoID]domain.ApplicationTodo
	saveErr error
}

func (m *memTodos) FindByID(_ context.Context, id domain.TodoID) (domain.ApplicationTodo, error) {
	t, ok := m.rows[id]
	if !ok {
		return t, domain.Withf(domain.ErrNotFound, "todo %s", id)
	}
	return t, nil
}

func (m *memTodos) ListByApplication(_ context.Context, appID domain.ApplicationID) ([]domain.ApplicationTodo, error) {
	var out []domain.ApplicationTodo
	for _, t := range m.rows {
		if t.ApplicationID == appID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memTodos) Save(_ context.Context, t domain.ApplicationTodo) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rows[t.ID] = t
	return nil
}

func (m *memTodos) SaveAll(ctx context.Context, todos []domain.ApplicationTodo) error {
	for _, t := range todos {
		if err := m.Save(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

type memSessions struct {
	rows map[domain.ChatSessionID]domain.ChatSession
}

func (m *memSessions) FindByID(_ context.Context, id domain.ChatSessionID) (domain.ChatSession, error) {
	s, ok := m.rows[id]
	if !ok {
		return s, domain.Withf(domain.ErrNotFound, "chat session %s", id)
	}
	return s, nil
}

func (m *memSessions) ListByApplication(_ context.Context, appID domain.ApplicationID) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	for _, s := range m.rows {
		if s.ApplicationID != nil && *s.ApplicationID == appID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSessions) Save(_ context.Context, s domain.ChatSession) (domain.ChatSession, error) {
	if cur, ok := m.rows[s.ID]; ok && cur.Version != s.Version {
		return s, domain.ErrOptimisticLock
	}
	s.Version++
	m.rows[s.ID] = s
	return s, nil
}

type memFields struct {
	rows    map[domain.ExtractedFieldID]domain.ExtractedField
	saveErr error
}

func (m *memFields) FindByID(_ context.Context, id domain.ExtractedFieldID) (domain.ExtractedField, error) {
	f, ok := m.rows[id]
	if !ok {
		return f, domain.Withf(domain.ErrNotFound, "extracted field %s", id)
	}
	return f, nil
}

func (m *memFields) FindByTodo(_ context.Context, todoID domain.TodoID) (domain.ExtractedField, error) {
	for _, f := range m.rows {
		if f.TodoID == todoID {
			return f, nil
		}
	}
	return domain.ExtractedField{}, domain.Withf(domain.ErrNotFound, "extracted field for todo %s", todoID)
}

func (m *memFields) ListByApplication(_ context.Context, appID domain.ApplicationID) ([]domain.ExtractedField, error) {
	var out []domain.ExtractedField
	for _, f := range m.rows {
		if f.ApplicationID == appID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFields) Save(_ context.Context, f domain.ExtractedField) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.rows[f.ID] = f
	return nil
}

type memFacts struct {
	rows []domain.FieldFactDefinition
	err  error
}

func (m *memFacts) InsertAll(_ context.Context, defs []domain.FieldFactDefinition) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, defs...)
	return nil
}

func (m *memFacts) ListBySchemaVersion(_ context.Context, id domain.SchemaVersionID) ([]domain.FieldFactDefinition, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.FieldFactDefinition
	for _, d := range m.rows {
		if d.SchemaVersionID == id {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

type memLogs struct {
	consents  []domain.ConsentLog
	messages  []domain.ChatMessage
	toolCalls []domain.ToolCallLog
	err       error
}

func (m *memLogs) AppendConsent(_ context.Context, c domain.ConsentLog) error {
	if m.err != nil {
		return m.err
	}
	m.consents = append(m.consents, c)
	return nil
}

func (m *memLogs) ListConsents(_ context.Context, appID domain.ApplicationID) ([]domain.ConsentLog, error) {
	var out []domain.ConsentLog
	for _, c := range m.consents {
		if c.ApplicationID == appID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memLogs) AppendMessage(_ context.Context, msg domain.ChatMessage) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memLogs) ListMessages(_ context.Context, id domain.ChatSessionID) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, msg := range m.messages {
		if msg.ChatSessionID == id {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memLogs) AppendToolCall(_ context.Context, l domain.ToolCallLog) error {
	if m.err != nil {
		return m.err
	}
	m.toolCalls = append(m.toolCalls, l)
	return nil
}

func (m *memLogs) ListToolCalls(_ context.Context, id domain.ChatSessionID) ([]domain.ToolCallLog, error) {
	var out []domain.ToolCallLog
	for _, l := range m.toolCalls {
		if l.ChatSessionID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

// memUnitOfWork gives the fakes transaction semantics: the state of every
// repository is restored when fn fails.
type memUnitOfWork struct {
	f *fixture
}

func (u memUnitOfWork) Do(_ context.Context, fn func(repos Repositories) error) error {
	f := u.f
	apps := maps.Clone(f.apps.rows)
	todos := maps.Clone(f.todos.rows)
	sessions := maps.Clone(f.sessions.rows)
	fields := maps.Clone(f.fields.rows)
	facts := slices.Clone(f.facts.rows)
	consents := slices.Clone(f.logs.consents)
	messages := slices.Clone(f.logs.messages)
	toolCalls := slices.Clone(f.logs.toolCalls)

	if err := fn(f.repos()); err != nil {
		f.apps.rows = apps
		f.todos.rows = todos
		f.sessions.rows = sessions
		f.fields.rows = fields
		f.facts.rows = facts
		f.logs.consents = consents
		f.logs.messages = messages
		f.logs.toolCalls = toolCalls
		return err
	}
	return nil
}

// fixture bundles a Service with direct access to its fake repositories.
type fixture struct {
	svc      *Service
	apps     *memApplications
	todos    *memTodos
	sessions *memSessions
	fields   *memFields
	facts    *memFacts
	logs     *memLogs
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		apps:     &memApplications{rows: map[domain.ApplicationID]domain.Application{}},
		todos:    &memTodos{rows: map[domain.TodoID]domain.ApplicationTodo{}},
		sessions: &memSessions{rows: map[domain.ChatSessionID]domain.ChatSession{}},
		fields:   &memFields{rows: map[domain.ExtractedFieldID]domain.ExtractedField{}},
		facts:    &memFacts{},
		logs:     &memLogs{},
	}
	f.facts.rows = []domain.FieldFactDefinition{
		{ID: "def-city", SchemaVersionID: "schema-v1", JobFormFieldID: "field-city", Fact: "city", Required: true, SortOrder: 1},
		{ID: "def-start", SchemaVersionID: "schema-v1", JobFormFieldID: "field-start", Fact: "start date", Required: true, SortOrder: 2},
		{ID: "def-note", SchemaVersionID: "schema-v1", JobFormFieldID: "field-note", Fact: "notes", Required: false, SortOrder: 3},
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return t0 }
	}
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	f.svc = New(memUnitOfWork{f: f}, opts)
	return f
}

func (f *fixture) repos() Repositories {
	return Repositories{
		Applications: f.apps,
		Todos:        f.todos,
		Sessions:     f.sessions,
		Fields:       f.fields,
		Facts:        f.facts,
		Logs:         f.logs,
	}
}

// start opens an interview and returns its result.
func (f *fixture) start(t *testing.T, req StartInterviewRequest) StartInterviewResult {
	t.Helper()
	if req.JobID == "" {
		req.JobID = "job-001"
	}
	if req.SchemaVersionID == "" {
		req.SchemaVersionID = "schema-v1"
	}
	res, err := f.svc.StartInterview(context.Background(), req)
	require.NoError(t, err)
	return res
}

// turn records an event and fails the test on error.
func (f *fixture) turn(t *testing.T, req RecordTurnRequest) RecordTurnResult {
	t.Helper()
	res, err := f.svc.RecordTurn(context.Background(), req)
	require.NoError(t, err)
	return res
}

// answer drives a todo from pending to done through the chat events.
func (f *fixture) answer(t *testing.T, sessionID domain.ChatSessionID, todoID domain.TodoID, value string) {
	t.Helper()
	for _, ev := range []TurnEvent{EventQuestionSent, EventAnswerReceived} {
		f.turn(t, RecordTurnRequest{SessionID: string(sessionID), TodoID: string(todoID), Event: string(ev)})
	}
	f.turn(t, RecordTurnRequest{SessionID: string(sessionID), TodoID: string(todoID), Event: string(EventExtractionSucceeded), Value: value})
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
}

var errBoom = errors.New("boom")
