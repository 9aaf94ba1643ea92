package conversation

import (
	"errors"

	"study-assistant/internal/ragapi"
)

// Guard failures returned by Store transitions.
var (
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrNotConnected    = errors.New("not connected to the backend")
	ErrRequestInFlight = errors.New("a question is already being answered")
	ErrNotAwaiting     = errors.New("no question is awaiting a response")
	ErrNoResponse      = errors.New("backend returned no response")
)

// User-facing error banners. Raw error text is never shown.
const (
	MessageNotConnected    = "Not connected to the backend server. Please make sure the server is running."
	MessageNoKnowledgeBase = "No knowledge base found. Please make sure documents are uploaded to the system first."
	MessageServerError     = "Server error occurred. Please try again in a moment."
	MessageTimeout         = "Request timed out. The question might be too complex or the server is busy."
	MessageUnknown         = "Sorry, I encountered an error while processing your question."
)

// WelcomeID is the fixed identifier of the greeting message.
const WelcomeID = "welcome"

// WelcomeText greets the user at the start of every session.
const WelcomeText = "Hello! I'm your Study Assistant. I can help you find information from your uploaded documents. What would you like to know?"

// ErrorMessage maps a failed ask to the banner shown to the user.
func ErrorMessage(err error) string {
	switch ragapi.KindOf(err) {
	case ragapi.KindNoKnowledgeBase:
		return MessageNoKnowledgeBase
	case ragapi.KindServerError:
		return MessageServerError
	case ragapi.KindTimeout:
		return MessageTimeout
	default:
		return MessageUnknown
	}
}
