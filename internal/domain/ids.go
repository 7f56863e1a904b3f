package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Identifier types. Each aggregate and record has its own so they cannot be
// mixed up at call sites.
type (
	ApplicationID    string
	TodoID           string
	ChatSessionID    string
	JobID            string
	SchemaVersionID  string
	FactDefinitionID string
	FormFieldID      string
	ExtractedFieldID string
	ConsentLogID     string
	ChatMessageID    string
	ToolCallLogID    string
)

// ID is the constraint satisfied by every identifier type.
type ID interface {
	~string
}

// NewID returns a fresh random identifier.
func NewID[T ID]() T {
	return T(uuid.NewString())
}

// ParseID validates raw input as an identifier. Empty strings and strings
// containing whitespace are rejected.
func ParseID[T ID](raw string) (T, error) {
	if raw == "" {
		return "", Withf(ErrInvalidValue, "identifier is empty")
	}
	if strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return "", Withf(ErrInvalidValue, "identifier %q contains whitespace", raw)
	}
	return T(raw), nil
}

// MustID is ParseID for trusted input. It panics on malformed identifiers.
func MustID[T ID](raw string) T {
	id, err := ParseID[T](raw)
	if err != nil {
		panic(err)
	}
	return id
}
