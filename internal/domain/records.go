package domain

import "time"

// ExtractedField is the accepted answer for one todo. There is at most one
// per todo; saving again replaces the value.
type ExtractedField struct {
	ID            ExtractedFieldID `json:"id"`
	ApplicationID ApplicationID    `json:"application_id"`
	TodoID        TodoID           `json:"todo_id"`
	FormFieldID   FormFieldID      `json:"form_field_id"`
	Value         string           `json:"value"`
	Source        ExtractionSource `json:"source"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewExtractedField builds the field for a completed todo.
func NewExtractedField(id ExtractedFieldID, todo ApplicationTodo, source ExtractionSource, now time.Time) ExtractedField {
	return ExtractedField{
		ID:            id,
		ApplicationID: todo.ApplicationID,
		TodoID:        todo.ID,
		FormFieldID:   todo.JobFormFieldID,
		Value:         todo.Value(),
		Source:        source,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// WithValue returns a copy holding value.
func (f ExtractedField) WithValue(value string, source ExtractionSource, now time.Time) ExtractedField {
	f.Value = value
	f.Source = source
	f.UpdatedAt = now
	return f
}

// ConsentLog is an append-only record of consent given on an application.
type ConsentLog struct {
	ID            ConsentLogID  `json:"id"`
	ApplicationID ApplicationID `json:"application_id"`
	ConsentText   string        `json:"consent_text"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ChatMessage is an append-only message in a chat session.
type ChatMessage struct {
	ID            ChatMessageID `json:"id"`
	ChatSessionID ChatSessionID `json:"chat_session_id"`
	Role          MessageRole   `json:"role"`
	Agent         AgentType     `json:"agent"`
	Content       string        `json:"content"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ToolCallLog is an append-only record of one tool interaction in a session.
type ToolCallLog struct {
	ID            ToolCallLogID `json:"id"`
	ChatSessionID ChatSessionID `json:"chat_session_id"`
	TodoID        *TodoID       `json:"todo_id"`
	ToolName      string        `json:"tool_name"`
	Input         string        `json:"input"`
	Output        string        `json:"output"`
	Succeeded     bool          `json:"succeeded"`
	CreatedAt     time.Time     `json:"created_at"`
}
