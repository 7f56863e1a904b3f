package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hireflow/intake-engine/internal/domain"
)

// LogRepo handles the append-only records: consent logs, chat messages and
// tool call logs. There are no update or delete paths.
type LogRepo struct {
	DB Queryer
}

// AppendConsent inserts a consent log entry.
func (r *LogRepo) AppendConsent(ctx context.Context, c domain.ConsentLog) error {
	const q = `INSERT INTO consent_logs (id, application_id, consent_text, created_at)
VALUES (?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, q,
		string(c.ID),
		string(c.ApplicationID),
		c.ConsentText,
		toMillis(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append consent log: %w", err)
	}
	return nil
}

// ListConsents returns the consent log of an application, oldest first.
func (r *LogRepo) ListConsents(ctx context.Context, appID domain.ApplicationID) ([]domain.ConsentLog, error) {
	const q = `SELECT id, application_id, consent_text, created_at
FROM consent_logs
WHERE application_id = ?
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, q, string(appID))
	if err != nil {
		return nil, fmt.Errorf("list consent logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ConsentLog
	for rows.Next() {
		var (
			c         domain.ConsentLog
			id, app   string
			createdAt int64
		)
		if err := rows.Scan(&id, &app, &c.ConsentText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan consent log: %w", err)
		}
		c.ID = domain.ConsentLogID(id)
		c.ApplicationID = domain.ApplicationID(app)
		c.CreatedAt = fromMillis(createdAt)
		logs = append(logs, c)
	}
	return logs, rows.Err()
}

// AppendMessage inserts a chat message.
func (r *LogRepo) AppendMessage(ctx context.Context, m domain.ChatMessage) error {
	const q = `INSERT INTO chat_messages (id, chat_session_id, role, agent, content, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.DB.ExecContext(ctx, q,
		string(m.ID),
		string(m.ChatSessionID),
		string(m.Role),
		string(m.Agent),
		m.Content,
		toMillis(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// ListMessages returns the messages of a session in insertion order.
func (r *LogRepo) ListMessages(ctx context.Context, sessionID domain.ChatSessionID) ([]domain.ChatMessage, error) {
	const q = `SELECT id, chat_session_id, role, agent, content, created_at
FROM chat_messages
WHERE chat_session_id = ?
ORDER BY seq ASC`

	rows, err := r.DB.QueryContext(ctx, q, string(sessionID))
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var (
			m                        domain.ChatMessage
			id, session, role, agent string
			createdAt                int64
		)
		if err := rows.Scan(&id, &session, &role, &agent, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.ID = domain.ChatMessageID(id)
		m.ChatSessionID = domain.ChatSessionID(session)
		m.Role = domain.MessageRole(role)
		m.Agent = domain.AgentType(agent)
		m.CreatedAt = fromMillis(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// AppendToolCall inserts a tool call log entry.
func (r *LogRepo) AppendToolCall(ctx context.Context, l domain.ToolCallLog) error {
	const q = `INSERT INTO tool_call_logs (id, chat_session_id, todo_id, tool_name, input, output, succeeded, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	var todoID sql.NullString
	if l.TodoID != nil {
		todoID = sql.NullString{String: string(*l.TodoID), Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, q,
		string(l.ID),
		string(l.ChatSessionID),
		todoID,
		l.ToolName,
		l.Input,
		l.Output,
		boolInt(l.Succeeded),
		toMillis(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append tool call log: %w", err)
	}
	return nil
}

// ListToolCalls returns the tool calls of a session in insertion order.
func (r *LogRepo) ListToolCalls(ctx context.Context, sessionID domain.ChatSessionID) ([]domain.ToolCallLog, error) {
	const q = `SELECT id, chat_session_id, todo_id, tool_name, input, output, succeeded, created_at
FROM tool_call_logs
WHERE chat_session_id = ?
ORDER BY seq ASC`

	rows, err := r.DB.QueryContext(ctx, q, string(sessionID))
	if err != nil {
		return nil, fmt.Errorf("list tool call logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ToolCallLog
	for rows.Next() {
		var (
			l           domain.ToolCallLog
			id, session string
			todoID      sql.NullString
			succeeded   int
			createdAt   int64
		)
		if err := rows.Scan(&id, &session, &todoID, &l.ToolName, &l.Input, &l.Output, &succeeded, &createdAt); err != nil {
			return nil, fmt.Errorf("scan tool call log: %w", err)
		}
		l.ID = domain.ToolCallLogID(id)
		l.ChatSessionID = domain.ChatSessionID(session)
		if todoID.Valid {
			t := domain.TodoID(todoID.String)
			l.TodoID = &t
		}
		l.Succeeded = succeeded != 0
		l.CreatedAt = fromMillis(createdAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
