package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-assistant/internal/config"
	"study-assistant/internal/conversation"
)

// backend is a fake RAG API that records the questions it receives. When
// hold is set, answers wait until it is closed.
type backend struct {
	srv  *httptest.Server
	hold chan struct{}

	mu        sync.Mutex
	questions []string
}

func newBackend(t *testing.T, hold chan struct{}) *backend {
	t.Helper()
	b := &backend{hold: hold}

	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "RAG API is running"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/rag/ask", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		b.mu.Lock()
		b.questions = append(b.questions, req.Question)
		b.mu.Unlock()

		if b.hold != nil {
			select {
			case <-b.hold:
			case <-r.Context().Done():
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"answer": "You asked: " + req.Question,
			"sources": []map[string]string{
				{"source": "lecture-3.pdf", "chunk_id": "lecture-3.pdf_7", "content_preview": "gradient descent"},
			},
			"conversation_length": 1,
		})
	}).Methods(http.MethodPost)

	b.srv = httptest.NewServer(r)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) received() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.questions...)
}

// syncBuffer is an output sink safe to read while the session writes to it
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.BaseURL = baseURL
	cfg.Plain = true
	cfg.HealthTimeout = time.Second
	cfg.TranscriptDir = t.TempDir()
	require.NoError(t, cfg.Validate())
	return cfg
}

// startSession runs a plain session fed through a pipe
func startSession(t *testing.T, cfg *config.Config) (*App, *io.PipeWriter, *syncBuffer, <-chan error) {
	t.Helper()
	pr, pw := io.Pipe()
	out := &syncBuffer{}

	a, err := New(cfg, pr, out)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	t.Cleanup(func() { pw.Close() })
	return a, pw, out, done
}

func write(t *testing.T, w io.Writer, line string) {
	t.Helper()
	_, err := io.WriteString(w, line+"\n")
	require.NoError(t, err)
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
	}
}

func answered(a *App, n int) func() bool {
	return func() bool {
		st := a.Store().Snapshot()
		return !st.IsLoading && len(st.Messages) == n
	}
}

func TestPlainSession(t *testing.T) {
	b := newBackend(t, nil)
	cfg := testConfig(t, b.srv.URL)
	a, in, out, done := startSession(t, cfg)

	write(t, in, "What is gradient descent?")
	require.Eventually(t, answered(a, 3), 5*time.Second, 10*time.Millisecond)

	write(t, in, "/status")
	write(t, in, "/save")
	write(t, in, "/exit")
	waitDone(t, done)

	got := out.String()
	assert.Contains(t, got, "Connected")
	assert.Contains(t, got, "Hello!")
	assert.Contains(t, got, "You asked: What is gradient descent?")
	assert.Contains(t, got, "lecture-3.pdf")
	assert.Contains(t, got, "3 messages")
	assert.Contains(t, got, "✓ Transcript saved")
	assert.Contains(t, got, "Good luck with your studies!")

	st := a.Store().Snapshot()
	assert.True(t, st.Connected)
	assert.Len(t, st.Messages, 3)
	assert.FileExists(t, filepath.Join(cfg.TranscriptDir, st.SessionID+".json"))
	assert.Equal(t, []string{"What is gradient descent?"}, b.received())
}

func TestPlainSessionRejectsQuestionWhileAnswering(t *testing.T) {
	hold := make(chan struct{})
	b := newBackend(t, hold)
	var once sync.Once
	release := func() { once.Do(func() { close(hold) }) }
	t.Cleanup(release)

	a, in, out, done := startSession(t, testConfig(t, b.srv.URL))

	write(t, in, "first question")
	require.Eventually(t, func() bool {
		return a.Store().Snapshot().IsLoading && len(b.received()) == 1
	}, 5*time.Second, 10*time.Millisecond)

	write(t, in, "second question")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Wait for the current answer first.")
	}, 5*time.Second, 10*time.Millisecond)

	release()
	require.Eventually(t, answered(a, 3), 5*time.Second, 10*time.Millisecond)

	write(t, in, "/exit")
	waitDone(t, done)

	assert.Equal(t, []string{"first question"}, b.received())
	st := a.Store().Snapshot()
	assert.Equal(t, "first question", st.Messages[1].Content)
	assert.Equal(t, "You asked: first question", st.Messages[2].Content)
	assert.NotContains(t, out.String(), "You asked: second question")
}

func TestPlainSessionDisconnected(t *testing.T) {
	b := newBackend(t, nil)
	url := b.srv.URL
	b.srv.Close()

	cfg := testConfig(t, url)
	var out bytes.Buffer
	a, err := New(cfg, strings.NewReader("one\ntwo\nthree\n"), &out)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Disconnected")
	assert.Contains(t, got, conversation.MessageNotConnected)
	assert.Equal(t, 3, strings.Count(got, "(/dismiss to clear)"), "every rejected question is reported")
	assert.Len(t, a.Store().Snapshot().Messages, 1)
	assert.Empty(t, b.received())
}

func TestRunStopsOnCancel(t *testing.T) {
	b := newBackend(t, nil)
	cfg := testConfig(t, b.srv.URL)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	defer r.Close()

	a, err := New(cfg, r, &bytes.Buffer{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	waitDone(t, done)
}

func TestNewRejectsBadNodeID(t *testing.T) {
	cfg := config.NewConfig()
	cfg.NodeID = 5000
	_, err := New(cfg, strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}
