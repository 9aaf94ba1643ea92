package ragapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBackend starts a fake backend with the given handlers mounted on the real routes.
func newBackend(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	for path, h := range routes {
		method := http.MethodPost
		if path == pathHealth {
			method = http.MethodGet
		}
		r.HandleFunc(path, h).Methods(method)
	}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func status(code int, detail string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"detail": detail})
	}
}

func TestAsk(t *testing.T) {
	srv := newBackend(t, map[string]http.HandlerFunc{
		pathAsk: func(w http.ResponseWriter, r *http.Request) {
			var req AskRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "What is backpropagation?", req.Question)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			w.Write([]byte(`{
				"answer": "Backpropagation computes gradients layer by layer.",
				"sources": [{"source": "lecture3.pdf", "chunk_id": "lecture3.pdf_12", "content_preview": "The chain rule..."}],
				"conversation_length": 1
			}`))
		},
	})

	c := NewClient(srv.URL, time.Second, time.Second)
	resp, err := c.Ask(context.Background(), "What is backpropagation?")
	require.NoError(t, err)

	assert.Equal(t, "Backpropagation computes gradients layer by layer.", resp.Answer)
	assert.Equal(t, 1, resp.ConversationLength)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, SourceDocument{
		Source:         "lecture3.pdf",
		ChunkID:        "lecture3.pdf_12",
		ContentPreview: "The chain rule...",
	}, resp.Sources[0])
}

func TestAskNullSourcesBecomesEmpty(t *testing.T) {
	srv := newBackend(t, map[string]http.HandlerFunc{
		pathAsk: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"answer": "ok", "sources": null, "conversation_length": 3}`))
		},
	})

	resp, err := NewClient(srv.URL, time.Second, time.Second).Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
}

func TestAskEmptyQuestion(t *testing.T) {
	called := false
	srv := newBackend(t, map[string]http.HandlerFunc{
		pathAsk: func(w http.ResponseWriter, r *http.Request) { called = true },
	})

	_, err := NewClient(srv.URL, time.Second, time.Second).Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.False(t, called)
}

func TestAskClassifiesStatus(t *testing.T) {
	cases := []struct {
		code int
		want error
		kind Kind
	}{
		{http.StatusBadRequest, ErrNoKnowledgeBase, KindNoKnowledgeBase},
		{http.StatusInternalServerError, ErrServerError, KindServerError},
		{http.StatusServiceUnavailable, ErrUnknown, KindUnknown},
		{http.StatusNotFound, ErrUnknown, KindUnknown},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.code), func(t *testing.T) {
			srv := newBackend(t, map[string]http.HandlerFunc{
				pathAsk: status(tc.code, "No ChromaDB found. Use /init-db first to create knowledge base."),
			})

			_, err := NewClient(srv.URL, time.Second, time.Second).Ask(context.Background(), "q")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.kind, KindOf(err))

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.code, apiErr.StatusCode)
			assert.Equal(t, "No ChromaDB found. Use /init-db first to create knowledge base.", apiErr.Detail)
		})
	}
}

func TestAskTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newBackend(t, map[string]http.HandlerFunc{
		pathAsk: func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		},
	})
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond, 50*time.Millisecond).Ask(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestAskContextDeadline(t *testing.T) {
	srv := newBackend(t, map[string]http.HandlerFunc{
		pathAsk: func(w http.ResponseWriter, r *http.Request) { <-r.Context().Done() },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, 5*time.Second, time.Second).Ask(ctx, "q")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAskUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second, time.Second).Ask(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestAskMalformedBody(t *testing.T) {
	srv := newBackend(t, map[string]http.HandlerFunc{
		pathAsk: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`<html>oops`)) },
	})

	_, err := NewClient(srv.URL, time.Second, time.Second).Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestCheckHealth(t *testing.T) {
	healthy := newBackend(t, map[string]http.HandlerFunc{
		pathHealth: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"message": "Study Assistant RAG API"}`))
		},
	})
	assert.True(t, NewClient(healthy.URL, time.Second, time.Second).CheckHealth(context.Background()))

	failing := newBackend(t, map[string]http.HandlerFunc{
		pathHealth: status(http.StatusBadGateway, "down"),
	})
	assert.False(t, NewClient(failing.URL, time.Second, time.Second).CheckHealth(context.Background()))

	gone := httptest.NewServer(http.NotFoundHandler())
	url := gone.URL
	gone.Close()
	assert.False(t, NewClient(url, time.Second, time.Second).CheckHealth(context.Background()))
}

func TestCheckHealthTimeout(t *testing.T) {
	slow := newBackend(t, map[string]http.HandlerFunc{
		pathHealth: func(w http.ResponseWriter, r *http.Request) { <-r.Context().Done() },
	})

	start := time.Now()
	assert.False(t, NewClient(slow.URL, 5*time.Second, 40*time.Millisecond).CheckHealth(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestInitKnowledgeBase(t *testing.T) {
	srv := newBackend(t, map[string]http.HandlerFunc{
		pathInitDB: func(w http.ResponseWriter, r *http.Request) {
			var req DocumentsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"/data/a.pdf", "/data/b.pdf"}, req.PDFPaths)

			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"status": "success", "message": "ChromaDB initialized successfully with PDFs", "documents_processed": 2, "chunks_created": 57}`))
		},
	})

	resp, err := NewClient(srv.URL, time.Second, time.Second).InitKnowledgeBase(context.Background(), []string{"/data/a.pdf", "/data/b.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.DocumentsProcessed)
	assert.Equal(t, 57, resp.ChunksCreated)
}

func TestAddDocuments(t *testing.T) {
	srv := newBackend(t, map[string]http.HandlerFunc{
		pathAddPDF: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "success", "message": "PDFs added", "new_documents_added": 12, "total_documents": 69}`))
		},
	})

	resp, err := NewClient(srv.URL, time.Second, time.Second).AddDocuments(context.Background(), []string{"/data/c.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 12, resp.NewDocumentsAdded)
	assert.Equal(t, 69, resp.TotalDocuments)

	_, err = NewClient(srv.URL, time.Second, time.Second).AddDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestKindOfPlainErrors(t *testing.T) {
	assert.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
}
