package transcript

import (
	"time"

	"study-assistant/internal/conversation"
)

// Transcript is the exported form of one session
type Transcript struct {
	SessionID  string                 `json:"session_id"`
	ExportedAt time.Time              `json:"exported_at"`
	Messages   []conversation.Message `json:"messages"`
}
