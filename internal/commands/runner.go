package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"study-assistant/internal/conversation"
	"study-assistant/internal/logger"
	"study-assistant/internal/ragapi"
	"study-assistant/internal/transcript"
	"study-assistant/internal/ui"
)

// Documents maintains the backend knowledge base. *ragapi.Client implements it.
type Documents interface {
	InitKnowledgeBase(ctx context.Context, pdfPaths []string) (*ragapi.InitResponse, error)
	AddDocuments(ctx context.Context, pdfPaths []string) (*ragapi.AddResponse, error)
}

// Result is what a command wants shown to the user
type Result struct {
	Notice  string
	Warning bool
	Success bool // a file was written or documents were indexed
	Quit    bool
}

// Runner executes commands against the session
type Runner struct {
	store       *conversation.Store
	docs        Documents
	transcripts *transcript.Writer
	renderer    *ui.Renderer
}

// NewRunner creates a command runner
func NewRunner(store *conversation.Store, docs Documents, transcripts *transcript.Writer, renderer *ui.Renderer) *Runner {
	return &Runner{
		store:       store,
		docs:        docs,
		transcripts: transcripts,
		renderer:    renderer,
	}
}

// Run executes cmd. Questions are sent synchronously; interactive front
// ends that need the request to run in the background call the store
// directly instead.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	switch cmd.Kind {
	case KindEmpty:
		return Result{}, nil

	case KindAsk:
		// The outcome is reported through the store's error banner.
		if err := r.store.Send(ctx, cmd.Text); err != nil {
			logger.Log.Debug("question not answered", "error", err)
		}
		return Result{}, nil

	case KindHelp:
		return Result{Notice: Help}, nil

	case KindExit:
		return Result{Quit: true}, nil

	case KindClear:
		if err := r.store.Reset(); err != nil {
			return Result{}, err
		}
		return Result{Notice: "Started a new conversation"}, nil

	case KindDismiss:
		r.store.ClearError()
		return Result{}, nil

	case KindSources:
		r.renderer.ShowSources = !r.renderer.ShowSources
		if r.renderer.ShowSources {
			return Result{Notice: "Sources will be shown under answers"}, nil
		}
		return Result{Notice: "Sources hidden"}, nil

	case KindSave:
		path := ""
		if len(cmd.Args) > 0 {
			path = cmd.Args[0]
		}
		written, err := r.transcripts.Save(r.store.Snapshot(), path)
		if err != nil {
			return Result{}, err
		}
		return Result{Notice: "Transcript saved to " + written, Success: true}, nil

	case KindInit:
		return r.initKnowledgeBase(ctx, cmd.Args)

	case KindAdd:
		return r.addDocuments(ctx, cmd.Args)

	case KindStatus:
		return Result{Notice: Status(r.store.Snapshot())}, nil

	default:
		return Result{Notice: fmt.Sprintf("Unknown command %q. Type /help for the list of commands.", cmd.Text), Warning: true}, nil
	}
}

// Status summarises the session in one line
func Status(st conversation.State) string {
	conn := "disconnected"
	if st.Connected {
		conn = "connected"
	}
	return fmt.Sprintf("Backend %s · %s · %d messages · backend conversation length %d · session %s",
		conn, st.Status(), len(st.Messages), st.ConversationLength, st.SessionID)
}

func (r *Runner) initKnowledgeBase(ctx context.Context, args []string) (Result, error) {
	paths := expandPaths(args)
	if len(paths) == 0 {
		return Result{Notice: "Usage: /init <pdf>...", Warning: true}, nil
	}

	resp, err := r.docs.InitKnowledgeBase(ctx, paths)
	if err != nil {
		logger.Log.Warn("knowledge base init failed", "paths", paths, "error", err)
		return Result{Notice: documentsError(err, false), Warning: true}, nil
	}
	return Result{Notice: fmt.Sprintf("Knowledge base created: %d documents, %d chunks", resp.DocumentsProcessed, resp.ChunksCreated), Success: true}, nil
}

func (r *Runner) addDocuments(ctx context.Context, args []string) (Result, error) {
	paths := expandPaths(args)
	if len(paths) == 0 {
		return Result{Notice: "Usage: /add <pdf>...", Warning: true}, nil
	}

	resp, err := r.docs.AddDocuments(ctx, paths)
	if err != nil {
		logger.Log.Warn("adding documents failed", "paths", paths, "error", err)
		return Result{Notice: documentsError(err, true), Warning: true}, nil
	}
	return Result{Notice: fmt.Sprintf("Added %d chunks, knowledge base now holds %d", resp.NewDocumentsAdded, resp.TotalDocuments), Success: true}, nil
}

// documentsError maps a knowledge-base failure to a user-facing message
func documentsError(err error, adding bool) string {
	switch {
	case errors.Is(err, ragapi.ErrNoKnowledgeBase) && adding:
		return "No existing knowledge base. Use /init first."
	case errors.Is(err, ragapi.ErrNoKnowledgeBase):
		return "No valid content found in the provided PDFs."
	case errors.Is(err, ragapi.ErrTimeout):
		return "Indexing timed out. Try fewer documents at a time."
	case errors.Is(err, ragapi.ErrServerError):
		return "Server error while indexing documents. Please try again in a moment."
	default:
		return "Could not reach the backend to index documents."
	}
}

// expandPaths resolves glob patterns against the local filesystem.
// Arguments that match nothing are passed through unchanged, since paths are
// resolved on the backend host.
func expandPaths(args []string) []string {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			paths = append(paths, arg)
			continue
		}
		for _, m := range matches {
			if abs, err := filepath.Abs(m); err == nil {
				m = abs
			}
			paths = append(paths, m)
		}
	}
	return paths
}
