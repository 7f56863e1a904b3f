package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hireflow/intake-engine/internal/domain"
)

// ChatSessionRepo handles persistence for ChatSession records. Concurrent
// turns on the same session are serialized by the version check in Save.
type ChatSessionRepo struct {
	DB Queryer
}

const sessionColumns = `id, type, application_id, form_id, status, turn_count, soft_cap, hard_cap,
	soft_capped_at, hard_capped_at, review_fail_streak, extraction_fail_streak, timeout_streak,
	current_agent, plan, plan_schema_version, version, created_at, updated_at, completed_at`

// FindByID retrieves a chat session by its ID.
func (r *ChatSessionRepo) FindByID(ctx context.Context, id domain.ChatSessionID) (domain.ChatSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM chat_sessions WHERE id = ?`
	s, err := scanSession(r.DB.QueryRowContext(ctx, q, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ChatSession{}, domain.Withf(domain.ErrNotFound, "chat session %s", id)
		}
		return domain.ChatSession{}, fmt.Errorf("get chat session: %w", err)
	}
	return s, nil
}

// ListByApplication returns the sessions of an application, oldest first.
func (r *ChatSessionRepo) ListByApplication(ctx context.Context, appID domain.ApplicationID) ([]domain.ChatSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM chat_sessions
WHERE application_id = ?
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, q, string(appID))
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Save inserts a new session (Version 0) or updates an existing one using
// optimistic locking. The stored snapshot is returned with its new version.
func (r *ChatSessionRepo) Save(ctx context.Context, s domain.ChatSession) (domain.ChatSession, error) {
	if s.Version == 0 {
		if err := r.insert(ctx, s); err != nil {
			return s, err
		}
		s.Version = 1
		return s, nil
	}

	const q = `UPDATE chat_sessions SET
		status = ?,
		turn_count = ?,
		soft_cap = ?,
		hard_cap = ?,
		soft_capped_at = ?,
		hard_capped_at = ?,
		review_fail_streak = ?,
		extraction_fail_streak = ?,
		timeout_streak = ?,
		current_agent = ?,
		plan = ?,
		plan_schema_version = ?,
		version = version + 1,
		updated_at = ?,
		completed_at = ?
	WHERE id = ? AND version = ?`

	res, err := r.DB.ExecContext(ctx, q,
		string(s.Status),
		s.TurnCount,
		nullInt(s.SoftCap),
		nullInt(s.HardCap),
		nullMillis(s.SoftCappedAt),
		nullMillis(s.HardCappedAt),
		s.ReviewFailStreak,
		s.ExtractionFailStreak,
		s.TimeoutStreak,
		string(s.CurrentAgent),
		nullString(s.Plan),
		nullInt(s.PlanSchemaVersion),
		toMillis(s.UpdatedAt),
		nullMillis(s.CompletedAt),
		string(s.ID),
		s.Version,
	)
	if err != nil {
		return s, fmt.Errorf("update chat session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return s, fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return s, domain.ErrOptimisticLock
	}
	s.Version++
	return s, nil
}

func (r *ChatSessionRepo) insert(ctx context.Context, s domain.ChatSession) error {
	const q = `INSERT INTO chat_sessions (id, type, application_id, form_id, status, turn_count, soft_cap, hard_cap,
	soft_capped_at, hard_capped_at, review_fail_streak, extraction_fail_streak, timeout_streak,
	current_agent, plan, plan_schema_version, version, created_at, updated_at, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)`

	var appID sql.NullString
	if s.ApplicationID != nil {
		appID = sql.NullString{String: string(*s.ApplicationID), Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, q,
		string(s.ID),
		string(s.Type),
		appID,
		nullString(s.FormID),
		string(s.Status),
		s.TurnCount,
		nullInt(s.SoftCap),
		nullInt(s.HardCap),
		nullMillis(s.SoftCappedAt),
		nullMillis(s.HardCappedAt),
		s.ReviewFailStreak,
		s.ExtractionFailStreak,
		s.TimeoutStreak,
		string(s.CurrentAgent),
		nullString(s.Plan),
		nullInt(s.PlanSchemaVersion),
		toMillis(s.CreatedAt),
		toMillis(s.UpdatedAt),
		nullMillis(s.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("create chat session: %w", err)
	}
	return nil
}

func scanSession(row scanner) (domain.ChatSession, error) {
	var (
		s                             domain.ChatSession
		id, typ, status, agent        string
		appID, formID, plan           sql.NullString
		softCap, hardCap, planVersion sql.NullInt64
		softAt, hardAt, completedAt   sql.NullInt64
		createdAt, updatedAt          int64
	)
	err := row.Scan(&id, &typ, &appID, &formID, &status, &s.TurnCount, &softCap, &hardCap,
		&softAt, &hardAt, &s.ReviewFailStreak, &s.ExtractionFailStreak, &s.TimeoutStreak,
		&agent, &plan, &planVersion, &s.Version, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return s, err
	}
	s.ID = domain.ChatSessionID(id)
	s.Type = domain.ChatSessionType(typ)
	if appID.Valid {
		a := domain.ApplicationID(appID.String)
		s.ApplicationID = &a
	}
	s.FormID = stringPtr(formID)
	s.Status = domain.ChatSessionStatus(status)
	s.SoftCap = intPtr(softCap)
	s.HardCap = intPtr(hardCap)
	s.SoftCappedAt = timePtr(softAt)
	s.HardCappedAt = timePtr(hardAt)
	s.CurrentAgent = domain.AgentType(agent)
	s.Plan = stringPtr(plan)
	s.PlanSchemaVersion = intPtr(planVersion)
	s.CreatedAt = fromMillis(createdAt)
	s.UpdatedAt = fromMillis(updatedAt)
	s.CompletedAt = timePtr(completedAt)
	return s, nil
}
