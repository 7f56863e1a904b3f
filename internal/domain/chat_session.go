package domain

import "time"

// Fallback thresholds. Reaching any one of them trips escalation to manual input.
const (
	ReviewFailThreshold     = 3
	ExtractionFailThreshold = 2
	TimeoutThreshold        = 2
)

// ChatSession is one conversational thread with an applicant. Counter
// methods return modified copies and never reset a streak on their own;
// callers reset explicitly after a successful step.
type ChatSession struct {
	ID                   ChatSessionID     `json:"id"`
	Type                 ChatSessionType   `json:"type"`
	ApplicationID        *ApplicationID    `json:"application_id"`
	FormID               *string           `json:"form_id"`
	Status               ChatSessionStatus `json:"status"`
	TurnCount            int               `json:"turn_count"`
	SoftCap              *int              `json:"soft_cap"`
	HardCap              *int              `json:"hard_cap"`
	SoftCappedAt         *time.Time        `json:"soft_capped_at"`
	HardCappedAt         *time.Time        `json:"hard_capped_at"`
	ReviewFailStreak     int               `json:"review_fail_streak"`
	ExtractionFailStreak int               `json:"extraction_fail_streak"`
	TimeoutStreak        int               `json:"timeout_streak"`
	CurrentAgent         AgentType         `json:"current_agent"`
	Plan                 *string           `json:"plan"`
	PlanSchemaVersion    *int              `json:"plan_schema_version"`
	Version              int64             `json:"version"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	CompletedAt          *time.Time        `json:"completed_at"`
}

// Caps are the optional turn budgets of a session. Zero means unlimited.
type Caps struct {
	Soft int
	Hard int
}

func capPtr(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}

// NewApplicationSession opens an active session for an application.
func NewApplicationSession(id ChatSessionID, appID ApplicationID, agent AgentType, caps Caps, now time.Time) ChatSession {
	return ChatSession{
		ID:            id,
		Type:          SessionTypeApplication,
		ApplicationID: &appID,
		Status:        SessionActive,
		SoftCap:       capPtr(caps.Soft),
		HardCap:       capPtr(caps.Hard),
		CurrentAgent:  agent,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewFormResponseSession opens an active session bound to a form response.
func NewFormResponseSession(id ChatSessionID, formID string, agent AgentType, caps Caps, now time.Time) ChatSession {
	return ChatSession{
		ID:           id,
		Type:         SessionTypeFormResponse,
		FormID:       &formID,
		Status:       SessionActive,
		SoftCap:      capPtr(caps.Soft),
		HardCap:      capPtr(caps.Hard),
		CurrentAgent: agent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ShouldFallback reports whether any failure streak reached its threshold.
func (s ChatSession) ShouldFallback() bool {
	return s.ReviewFailStreak >= ReviewFailThreshold ||
		s.ExtractionFailStreak >= ExtractionFailThreshold ||
		s.TimeoutStreak >= TimeoutThreshold
}

// IsActive reports whether the session still accepts turns.
func (s ChatSession) IsActive() bool { return s.Status == SessionActive }

// IncrementTurnCount counts one more chat turn.
func (s ChatSession) IncrementTurnCount(now time.Time) ChatSession {
	s.TurnCount++
	s.UpdatedAt = now
	return s
}

// IncrementReviewFailStreak records a failed answer review.
func (s ChatSession) IncrementReviewFailStreak(now time.Time) ChatSession {
	s.ReviewFailStreak++
	s.UpdatedAt = now
	return s
}

// ResetReviewFailStreak clears the review failures after a passed review.
func (s ChatSession) ResetReviewFailStreak(now time.Time) ChatSession {
	s.ReviewFailStreak = 0
	s.UpdatedAt = now
	return s
}

// IncrementExtractionFailStreak records an answer the extractor could not use.
func (s ChatSession) IncrementExtractionFailStreak(now time.Time) ChatSession {
	s.ExtractionFailStreak++
	s.UpdatedAt = now
	return s
}

// ResetExtractionFailStreak clears the extraction failures after a successful extraction.
func (s ChatSession) ResetExtractionFailStreak(now time.Time) ChatSession {
	s.ExtractionFailStreak = 0
	s.UpdatedAt = now
	return s
}

// IncrementTimeoutStreak records a turn the applicant left unanswered.
func (s ChatSession) IncrementTimeoutStreak(now time.Time) ChatSession {
	s.TimeoutStreak++
	s.UpdatedAt = now
	return s
}

// ResetTimeoutStreak clears the timeouts once the applicant answers again.
func (s ChatSession) ResetTimeoutStreak(now time.Time) ChatSession {
	s.TimeoutStreak = 0
	s.UpdatedAt = now
	return s
}

// ChangeAgent hands the session to another agent role.
func (s ChatSession) ChangeAgent(agent AgentType, now time.Time) ChatSession {
	s.CurrentAgent = agent
	s.UpdatedAt = now
	return s
}

// WithPlan stores a serialized interview plan and its schema version.
func (s ChatSession) WithPlan(plan string, schemaVersion int, now time.Time) ChatSession {
	s.Plan = &plan
	s.PlanSchemaVersion = &schemaVersion
	s.UpdatedAt = now
	return s
}

// SoftCapReached reports whether the turn count is at or past the soft cap.
func (s ChatSession) SoftCapReached() bool {
	return s.SoftCap != nil && s.TurnCount >= *s.SoftCap
}

// HardCapReached reports whether the turn count is at or past the hard cap.
func (s ChatSession) HardCapReached() bool {
	return s.HardCap != nil && s.TurnCount >= *s.HardCap
}

// MarkSoftCapped records when the soft cap was crossed. Set once.
func (s ChatSession) MarkSoftCapped(now time.Time) ChatSession {
	if s.SoftCappedAt == nil {
		s.SoftCappedAt = stamp(now)
		s.UpdatedAt = now
	}
	return s
}

// MarkHardCapped records when the hard cap was crossed. Set once.
func (s ChatSession) MarkHardCapped(now time.Time) ChatSession {
	if s.HardCappedAt == nil {
		s.HardCappedAt = stamp(now)
		s.UpdatedAt = now
	}
	return s
}

// Complete closes the session.
func (s ChatSession) Complete(now time.Time) (ChatSession, error) {
	if !s.Status.CanTransitionTo(SessionCompleted) {
		return s, ErrSessionCompleted
	}
	s.Status = SessionCompleted
	s.CompletedAt = stamp(now)
	s.UpdatedAt = now
	return s, nil
}
