package conversation

import (
	"time"

	"study-assistant/internal/ragapi"
)

// Sender identifies who produced a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single conversation turn. Messages are never mutated after
// they are appended.
type Message struct {
	ID        string                  `json:"id"`
	Content   string                  `json:"content"`
	Sender    Sender                  `json:"sender"`
	Timestamp time.Time               `json:"timestamp"`
	Sources   []ragapi.SourceDocument `json:"sources,omitempty"`
}

// Status is the store's position in the request lifecycle
type Status int

const (
	StatusIdle Status = iota
	StatusAwaitingResponse
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusAwaitingResponse:
		return "awaiting_response"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// State is a snapshot of the conversation
type State struct {
	SessionID string
	Messages  []Message
	IsLoading bool
	Error     string
	Connected bool

	// ConversationLength is the backend's count after the last answer.
	ConversationLength int
}

// Status derives the lifecycle status from the flags.
func (s State) Status() Status {
	switch {
	case s.IsLoading:
		return StatusAwaitingResponse
	case s.Error != "":
		return StatusError
	default:
		return StatusIdle
	}
}

// CanSubmit reports whether the input control should be enabled.
func (s State) CanSubmit() bool {
	return s.Connected && !s.IsLoading
}

// Last returns the most recent message, if any.
func (s State) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
