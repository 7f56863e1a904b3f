package domain

import "time"

// FieldFactDefinition describes one piece of information to extract from an
// applicant. Definitions are scoped to a form schema version and never change.
type FieldFactDefinition struct {
	ID              FactDefinitionID `json:"id" yaml:"id"`
	SchemaVersionID SchemaVersionID  `json:"schema_version_id" yaml:"schema_version_id"`
	JobFormFieldID  FormFieldID      `json:"job_form_field_id" yaml:"job_form_field_id" validate:"required"`
	Fact            string           `json:"fact" yaml:"fact" validate:"required"`
	DoneCriteria    string           `json:"done_criteria" yaml:"done_criteria"`
	Required        bool             `json:"required" yaml:"required"`
	SortOrder       int              `json:"sort_order" yaml:"sort_order" validate:"min=0"`
}

// ApplicationTodo tracks extraction of one fact during an interview.
// ExtractedValue is non-nil exactly when Status is TodoDone.
type ApplicationTodo struct {
	ID               TodoID           `json:"id"`
	ApplicationID    ApplicationID    `json:"application_id"`
	FactDefinitionID FactDefinitionID `json:"fact_definition_id"`
	JobFormFieldID   FormFieldID      `json:"job_form_field_id"`
	Fact             string           `json:"fact"`
	DoneCriteria     string           `json:"done_criteria"`
	Required         bool             `json:"required"`
	Status           TodoStatus       `json:"status"`
	ExtractedValue   *string          `json:"extracted_value"`
	SortOrder        int              `json:"sort_order"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewApplicationTodo opens a pending todo for def on the given application.
func NewApplicationTodo(id TodoID, appID ApplicationID, def FieldFactDefinition, now time.Time) ApplicationTodo {
	return ApplicationTodo{
		ID:               id,
		ApplicationID:    appID,
		FactDefinitionID: def.ID,
		JobFormFieldID:   def.JobFormFieldID,
		Fact:             def.Fact,
		DoneCriteria:     def.DoneCriteria,
		Required:         def.Required,
		Status:           TodoPending,
		SortOrder:        def.SortOrder,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (t ApplicationTodo) invalid(next TodoStatus) *TransitionError {
	return &TransitionError{Entity: "todo", From: string(t.Status), To: string(next)}
}

// IsDone reports whether the todo holds an extracted value.
func (t ApplicationTodo) IsDone() bool { return t.Status == TodoDone }

// Value returns the extracted value, or "" when none is set.
func (t ApplicationTodo) Value() string {
	if t.ExtractedValue == nil {
		return ""
	}
	return *t.ExtractedValue
}

// TransitionTo moves the todo to next when CanTransitionTo allows it. It does
// not set a value, so transitions into done must go through MarkDone.
func (t ApplicationTodo) TransitionTo(next TodoStatus, now time.Time) (ApplicationTodo, error) {
	if next == TodoDone || !t.Status.CanTransitionTo(next) {
		return t, t.invalid(next)
	}
	t.Status = next
	t.ExtractedValue = nil
	t.UpdatedAt = now
	return t, nil
}

// MarkDone completes the todo with value.
func (t ApplicationTodo) MarkDone(value string, now time.Time) (ApplicationTodo, error) {
	if !t.Status.CanTransitionTo(TodoDone) {
		return t, t.invalid(TodoDone)
	}
	t.Status = TodoDone
	t.ExtractedValue = &value
	t.UpdatedAt = now
	return t, nil
}

// ForceManualInput moves the todo to manual_input from any state.
func (t ApplicationTodo) ForceManualInput(now time.Time) ApplicationTodo {
	t.Status = TodoManualInput
	t.ExtractedValue = nil
	t.UpdatedAt = now
	return t
}

// ResetToPending reopens a done todo and clears its value.
func (t ApplicationTodo) ResetToPending(now time.Time) (ApplicationTodo, error) {
	if t.Status != TodoDone {
		return t, t.invalid(TodoPending)
	}
	t.Status = TodoPending
	t.ExtractedValue = nil
	t.UpdatedAt = now
	return t, nil
}

// ReviseValue replaces the value of a done todo.
func (t ApplicationTodo) ReviseValue(value string, now time.Time) (ApplicationTodo, error) {
	if t.Status != TodoDone {
		return t, t.invalid(TodoDone)
	}
	t.ExtractedValue = &value
	t.UpdatedAt = now
	return t, nil
}

// WithRequired returns a copy with the required flag changed.
func (t ApplicationTodo) WithRequired(required bool, now time.Time) ApplicationTodo {
	t.Required = required
	t.UpdatedAt = now
	return t
}
