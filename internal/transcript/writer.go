package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"study-assistant/internal/conversation"
	"study-assistant/internal/logger"
)

// Writer exports conversation transcripts as JSON files.
// Exports are write-only; nothing is loaded back into a session.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a writer that defaults to files under dir
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// DefaultPath returns <dir>/<session-id>.json
func (w *Writer) DefaultPath(sessionID string) string {
	return filepath.Join(w.dir, sessionID+".json")
}

// Save writes the state's messages to path, or to DefaultPath when path is empty.
// It returns the path written.
func (w *Writer) Save(state conversation.State, path string) (string, error) {
	if path == "" {
		path = w.DefaultPath(state.SessionID)
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create transcript directory: %w", err)
	}

	t := Transcript{
		SessionID:  state.SessionID,
		ExportedAt: w.now(),
		Messages:   state.Messages,
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript: %w", err)
	}

	// Write to temp file
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	logger.Log.Info("transcript exported", "path", path, "messages", len(t.Messages))
	return path, nil
}
