package protocol

import (
	"time"

	"github.com/google/uuid"
)

// MessageType classifies an inter-role message.
type MessageType string

// Message type constants.
const (
	MsgTaskAssignment MessageType = "task_assignment"
	MsgObservation    MessageType = "observation"
	MsgAnalysis       MessageType = "analysis"
	MsgReproduction   MessageType = "reproduction"
	MsgExecution      MessageType = "execution"
	MsgDesign         MessageType = "design"
	MsgFeedback       MessageType = "feedback"
	MsgStatusUpdate   MessageType = "status_update"
)

// Message is the envelope for all inter-role communication. An empty
// Receiver marks a broadcast. Messages are immutable once constructed;
// nothing in the engine mutates a message after Send.
type Message struct {
	ID        string         `json:"id"`
	Sender    Role           `json:"sender"`
	Receiver  Role           `json:"receiver,omitempty"` // empty = broadcast
	Type      MessageType    `json:"type"`
	Content   string         `json:"content"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	ParentID  string         `json:"parent_id,omitempty"`
}

// NewMessage constructs a Message with a fresh ID and timestamp. A nil data
// map is replaced with an empty one so capability code can index freely.
func NewMessage(sender, receiver Role, typ MessageType, content string, data map[string]any) Message {
	if data == nil {
		data = map[string]any{}
	}
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Receiver:  receiver,
		Type:      typ,
		Content:   content,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Broadcast reports whether the message has no designated receiver.
func (m Message) Broadcast() bool {
	return m.Receiver == ""
}

// DataBool reads a boolean flag from the payload. Absent or non-bool
// values read as false.
func (m Message) DataBool(key string) bool {
	v, ok := m.Data[key].(bool)
	return ok && v
}

// DataString reads a string value from the payload, "" if absent.
func (m Message) DataString(key string) string {
	v, _ := m.Data[key].(string)
	return v
}
