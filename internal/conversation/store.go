package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"study-assistant/internal/logger"
	"study-assistant/internal/ragapi"
)

// Asker answers questions. *ragapi.Client implements it.
type Asker interface {
	Ask(ctx context.Context, question string) (*ragapi.AskResponse, error)
}

// HealthChecker reports backend liveness. *ragapi.Client implements it.
type HealthChecker interface {
	CheckHealth(ctx context.Context) bool
}

// IDSource generates message identifiers. *id.Generator implements it.
type IDSource interface {
	Next() string
}

// Store owns the conversation: messages, loading flag, error banner and
// connectivity. All transitions go through its methods; at most one ask
// is outstanding at any time.
type Store struct {
	mu    sync.Mutex
	asker Asker
	ids   IDSource
	now   func() time.Time

	state    State
	welcomed bool
	pending  string

	connectOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// NewStore creates an empty, disconnected store
func NewStore(asker Asker, ids IDSource) *Store {
	return &Store{
		asker: asker,
		ids:   ids,
		now:   time.Now,
		state: State{
			SessionID: uuid.New().String(),
			Messages:  []Message{},
		},
		subs: make(map[int]func(State)),
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	key := s.nextSub
	s.nextSub++
	s.subs[key] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, key)
	}
}

// Initialize appends the welcome message if the session has no messages yet.
// It has no effect after the first call in a session.
func (s *Store) Initialize() {
	s.mu.Lock()
	changed := s.welcomeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed {
		s.notify(snap)
	}
}

// Connect runs the one-shot connectivity check. Only the first call in the
// store's lifetime contacts the backend; concurrent callers wait for it and
// later calls return the stored result.
func (s *Store) Connect(ctx context.Context, checker HealthChecker) bool {
	s.connectOnce.Do(func() {
		connected := checker.CheckHealth(ctx)
		logger.Log.Info("connectivity checked", "connected", connected)
		s.SetConnected(connected)
	})
	return s.Snapshot().Connected
}

// SetConnected records the connectivity flag.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	if s.state.Connected == connected {
		s.mu.Unlock()
		return
	}
	s.state.Connected = connected
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Submit starts an ask-request for question.
//
// When disconnected it only sets the not-connected banner and returns
// ErrNotConnected. Otherwise it appends the user message, clears the error
// and marks the store as loading, in that order. The caller must then
// deliver the outcome with Resolve or Fail; Send does all of this.
func (s *Store) Submit(question string) error {
	question = strings.TrimSpace(question)

	s.mu.Lock()
	if s.state.IsLoading {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	if question == "" {
		s.mu.Unlock()
		return ErrEmptyQuestion
	}
	if !s.state.Connected {
		s.state.Error = MessageNotConnected
		snap := s.snapshotLocked()
		s.mu.Unlock()

		logger.Log.Debug("submit blocked", "reason", "not connected")
		s.notify(snap)
		return ErrNotConnected
	}

	msg := s.newMessageLocked(SenderUser, question, nil)
	s.state.Messages = append(s.state.Messages, msg)
	s.state.Error = ""
	s.state.IsLoading = true
	s.pending = question
	snap := s.snapshotLocked()
	s.mu.Unlock()

	logger.Log.Debug("question submitted", "message_id", msg.ID, "session", snap.SessionID)
	s.notify(snap)
	return nil
}

// Pending returns the question awaiting a response.
func (s *Store) Pending() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, s.state.IsLoading
}

// Resolve completes the outstanding request with an answer. A nil response
// fails the request as an unknown error and returns ErrNoResponse.
func (s *Store) Resolve(resp *ragapi.AskResponse) error {
	if resp == nil {
		if err := s.Fail(ragapi.ErrUnknown); err != nil {
			return err
		}
		return ErrNoResponse
	}

	s.mu.Lock()
	if !s.state.IsLoading {
		s.mu.Unlock()
		return ErrNotAwaiting
	}

	sources := []ragapi.SourceDocument{}
	if len(resp.Sources) > 0 {
		sources = append(sources, resp.Sources...)
	}
	msg := s.newMessageLocked(SenderAssistant, resp.Answer, sources)
	s.state.Messages = append(s.state.Messages, msg)
	s.state.IsLoading = false
	s.state.ConversationLength = resp.ConversationLength
	s.pending = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	logger.Log.Debug("question answered", "message_id", msg.ID, "sources", len(sources))
	s.notify(snap)
	return nil
}

// Fail completes the outstanding request with an error. No message is
// appended; the user's question stays in the transcript.
func (s *Store) Fail(err error) error {
	s.mu.Lock()
	if !s.state.IsLoading {
		s.mu.Unlock()
		return ErrNotAwaiting
	}

	s.state.IsLoading = false
	s.state.Error = ErrorMessage(err)
	s.pending = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	logger.Log.Debug("question failed", "kind", ragapi.KindOf(err), "error", err)
	s.notify(snap)
	return nil
}

// Send submits question, asks the backend and applies the outcome.
// Transport failures are reported to the user through the error banner and
// also returned for logging.
func (s *Store) Send(ctx context.Context, question string) error {
	if err := s.Submit(question); err != nil {
		return err
	}
	return s.Complete(ctx)
}

// Complete asks the backend for the pending question and applies the
// outcome with Resolve or Fail. Front ends that keep reading input call it
// in the background after a successful Submit.
func (s *Store) Complete(ctx context.Context) error {
	question, ok := s.Pending()
	if !ok {
		return ErrNotAwaiting
	}

	resp, err := s.asker.Ask(ctx, question)
	if err != nil {
		if ferr := s.Fail(err); ferr != nil {
			return ferr
		}
		return err
	}
	return s.Resolve(resp)
}

// ClearError dismisses the error banner. It is a no-op when no error is set.
func (s *Store) ClearError() {
	s.mu.Lock()
	if s.state.Error == "" {
		s.mu.Unlock()
		return
	}
	s.state.Error = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Reset discards the conversation and starts a new session with a fresh
// welcome message. Connectivity is kept.
func (s *Store) Reset() error {
	s.mu.Lock()
	if s.state.IsLoading {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	s.state = State{
		SessionID: uuid.New().String(),
		Messages:  []Message{},
		Connected: s.state.Connected,
	}
	s.welcomed = false
	s.welcomeLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	logger.Log.Info("conversation reset", "session", snap.SessionID)
	s.notify(snap)
	return nil
}

// welcomeLocked appends the greeting once per session (must be called with lock held)
func (s *Store) welcomeLocked() bool {
	if s.welcomed || len(s.state.Messages) > 0 {
		return false
	}
	s.welcomed = true
	s.state.Messages = append(s.state.Messages, Message{
		ID:        WelcomeID,
		Content:   WelcomeText,
		Sender:    SenderAssistant,
		Timestamp: s.now(),
	})
	return true
}

// newMessageLocked builds a message with a fresh identifier (must be called with lock held)
func (s *Store) newMessageLocked(sender Sender, content string, sources []ragapi.SourceDocument) Message {
	return Message{
		ID:        s.ids.Next(),
		Content:   content,
		Sender:    sender,
		Timestamp: s.now(),
		Sources:   sources,
	}
}

// snapshotLocked copies the state (must be called with lock held)
func (s *Store) snapshotLocked() State {
	snap := s.state
	snap.Messages = make([]Message, len(s.state.Messages))
	copy(snap.Messages, s.state.Messages)
	return snap
}

// notify delivers snap to every subscriber
func (s *Store) notify(snap State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
