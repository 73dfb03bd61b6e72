// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the application.
package domain

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid reports whether the role is one of the three known speaker categories.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is a single conversation turn. Messages are plain values:
// construct them, pass them to a provider, never mutate them.
// Ordering within a slice is conversation order and is significant.
type Message struct {
	// Role is the speaker category of this turn.
	Role Role `json:"role"`

	// Content is the text of the turn. Empty content is legal and
	// passed through to providers unchanged.
	Content string `json:"content"`
}

// SystemMessage builds a system-role message from text.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message from text.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant-role message from text.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
