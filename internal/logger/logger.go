package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log is the process-wide logger. It discards everything until Init is called.
var Log = slog.New(slog.NewTextHandler(io.Discard, nil))

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// Init replaces Log with a text logger writing to sink.
//
// sink is either "stderr" (or empty) or a file path. The returned close func
// must be called on shutdown to release the file.
func Init(level, sink string) (func() error, error) {
	lv, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	var w io.Writer
	closeFn := func() error { return nil }

	switch sink {
	case "", "stderr":
		w = os.Stderr
	default:
		if err := os.MkdirAll(filepath.Dir(sink), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(sink, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", sink, err)
		}
		w = f
		closeFn = f.Close
	}

	Log = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv}))
	return closeFn, nil
}
