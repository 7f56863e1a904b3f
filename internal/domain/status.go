// Package domain defines the entities, value types and errors of the
// applicant intake engine.
package domain

// TodoStatus is the lifecycle state of an ApplicationTodo.
//
//	pending ─► awaiting_answer ─► validating ─► done ─► pending (correction)
//	                 ▲                 │
//	                 └─ needs_clarification
//
//	any ─► manual_input ─► done
type TodoStatus string

const (
	TodoPending            TodoStatus = "pending"
	TodoAwaitingAnswer     TodoStatus = "awaiting_answer"
	TodoValidating         TodoStatus = "validating"
	TodoNeedsClarification TodoStatus = "needs_clarification"
	TodoManualInput        TodoStatus = "manual_input"
	TodoDone               TodoStatus = "done"
)

// TodoStatuses lists every TodoStatus.
var TodoStatuses = []TodoStatus{
	TodoPending, TodoAwaitingAnswer, TodoValidating,
	TodoNeedsClarification, TodoManualInput, TodoDone,
}

var todoTransitions = map[TodoStatus]map[TodoStatus]bool{
	TodoPending:            {TodoAwaitingAnswer: true},
	TodoAwaitingAnswer:     {TodoValidating: true},
	TodoValidating:         {TodoDone: true, TodoNeedsClarification: true},
	TodoNeedsClarification: {TodoAwaitingAnswer: true},
	TodoManualInput:        {TodoDone: true},
	TodoDone:               {TodoPending: true}, // user correction
}

// ParseTodoStatus converts a raw string to a TodoStatus.
func ParseTodoStatus(s string) (TodoStatus, error) {
	st := TodoStatus(s)
	if _, ok := todoTransitions[st]; !ok {
		return "", Withf(ErrInvalidValue, "unknown todo status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s TodoStatus) CanTransitionTo(next TodoStatus) bool {
	// manual_input is reachable from everywhere.
	if next == TodoManualInput {
		return true
	}
	return todoTransitions[s][next]
}

// ApplicationStatus is the review state of an Application.
type ApplicationStatus string

const (
	ApplicationNew         ApplicationStatus = "new"
	ApplicationScheduling  ApplicationStatus = "scheduling"
	ApplicationInterviewed ApplicationStatus = "interviewed"
	ApplicationClosed      ApplicationStatus = "closed"
)

var applicationTransitions = map[ApplicationStatus]map[ApplicationStatus]bool{
	ApplicationNew:         {ApplicationScheduling: true, ApplicationClosed: true},
	ApplicationScheduling:  {ApplicationInterviewed: true},
	ApplicationInterviewed: {ApplicationClosed: true},
	ApplicationClosed:      {},
}

// ParseApplicationStatus converts a raw string to an ApplicationStatus.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	if _, ok := applicationTransitions[st]; !ok {
		return "", Withf(ErrInvalidValue, "unknown application status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	return applicationTransitions[s][next]
}

// ChatSessionStatus is the state of a ChatSession. completed is terminal.
type ChatSessionStatus string

const (
	SessionActive    ChatSessionStatus = "active"
	SessionCompleted ChatSessionStatus = "completed"
)

// ParseChatSessionStatus converts a raw string to a ChatSessionStatus.
func ParseChatSessionStatus(s string) (ChatSessionStatus, error) {
	switch st := ChatSessionStatus(s); st {
	case SessionActive, SessionCompleted:
		return st, nil
	}
	return "", Withf(ErrInvalidValue, "unknown chat session status %q", s)
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s ChatSessionStatus) CanTransitionTo(next ChatSessionStatus) bool {
	return s == SessionActive && next == SessionCompleted
}

// ReviewPolicyVersionStatus is the publication state of a review policy version.
type ReviewPolicyVersionStatus string

const (
	PolicyDraft     ReviewPolicyVersionStatus = "draft"
	PolicyPublished ReviewPolicyVersionStatus = "published"
	PolicyArchived  ReviewPolicyVersionStatus = "archived"
)

var policyTransitions = map[ReviewPolicyVersionStatus]map[ReviewPolicyVersionStatus]bool{
	PolicyDraft:     {PolicyPublished: true, PolicyArchived: true},
	PolicyPublished: {PolicyArchived: true},
	PolicyArchived:  {},
}

// ParseReviewPolicyVersionStatus converts a raw string to a ReviewPolicyVersionStatus.
func ParseReviewPolicyVersionStatus(s string) (ReviewPolicyVersionStatus, error) {
	st := ReviewPolicyVersionStatus(s)
	if _, ok := policyTransitions[st]; !ok {
		return "", Withf(ErrInvalidValue, "unknown review policy version status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s ReviewPolicyVersionStatus) CanTransitionTo(next ReviewPolicyVersionStatus) bool {
	return policyTransitions[s][next]
}

// AgentType is the role currently driving a chat session.
type AgentType string

const (
	AgentOrchestrator AgentType = "orchestrator"
	AgentInterviewer  AgentType = "interviewer"
	AgentExtractor    AgentType = "extractor"
	AgentReviewer     AgentType = "reviewer"
)

// ParseAgentType converts a raw string to an AgentType.
func ParseAgentType(s string) (AgentType, error) {
	switch a := AgentType(s); a {
	case AgentOrchestrator, AgentInterviewer, AgentExtractor, AgentReviewer:
		return a, nil
	}
	return "", Withf(ErrInvalidValue, "unknown agent type %q", s)
}

// ChatSessionType says what a chat session is attached to.
type ChatSessionType string

const (
	SessionTypeFormResponse ChatSessionType = "form_response"
	SessionTypeApplication  ChatSessionType = "application"
)

// ParseChatSessionType converts a raw string to a ChatSessionType.
func ParseChatSessionType(s string) (ChatSessionType, error) {
	switch t := ChatSessionType(s); t {
	case SessionTypeFormResponse, SessionTypeApplication:
		return t, nil
	}
	return "", Withf(ErrInvalidValue, "unknown chat session type %q", s)
}

// ExtractionSource records who produced an extracted value.
type ExtractionSource string

const (
	SourceLLM    ExtractionSource = "llm"
	SourceManual ExtractionSource = "manual"
)

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleApplicant MessageRole = "applicant"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ParseMessageRole converts a raw string to a MessageRole.
func ParseMessageRole(s string) (MessageRole, error) {
	switch r := MessageRole(s); r {
	case RoleApplicant, RoleAssistant, RoleSystem:
		return r, nil
	}
	return "", Withf(ErrInvalidValue, "unknown message role %q", s)
}
