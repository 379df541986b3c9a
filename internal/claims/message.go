package claims

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleAgent  MessageRole = "agent"
	RoleSystem MessageRole = "system"
)

// MessageType distinguishes plain text from the photo exchange steps.
type MessageType string

const (
	MessageText        MessageType = "text"
	MessageImageReq    MessageType = "image_request"
	MessageImageUpload MessageType = "image_upload"
)

// ChatMessage is one entry in the claim conversation. Messages are never
// edited or removed after creation; transcript order is chronological order.
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type,omitempty" yaml:"type"`
	ImageURL  string      `json:"imageUrl,omitempty" yaml:"imageUrl"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewChatMessage builds a message with a fresh unique id and the current
// time. Empty content is meaningful only for image uploads.
func NewChatMessage(role MessageRole, content string, typ MessageType, imageURL string) ChatMessage {
	if typ == "" {
		typ = MessageText
	}
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Type:      typ,
		ImageURL:  imageURL,
		Timestamp: time.Now(),
	}
}

// ActionStatus is the outcome level of an audit-log entry.
type ActionStatus string

const (
	ActionPending ActionStatus = "pending"
	ActionSuccess ActionStatus = "success"
	ActionWarning ActionStatus = "warning"
	ActionError   ActionStatus = "error"
)

// AgentAction is one audit-log entry recorded by a pipeline agent. Entries
// are immutable after creation and stored newest-first.
type AgentAction struct {
	ID        string       `json:"id,omitempty" yaml:"-"`
	AgentName string       `json:"agentName" yaml:"agentName"`
	Action    string       `json:"action" yaml:"action"`
	Details   string       `json:"details" yaml:"details"`
	Status    ActionStatus `json:"status" yaml:"status"`
	Timestamp time.Time    `json:"timestamp" yaml:"-"`
}

// Stamp fills in the id and timestamp if the caller left them absent.
func (a AgentAction) Stamp() AgentAction {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}
	return a
}
