package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LogFileName is the log file inside log_dir.
const LogFileName = "hoard.log"

// logOutput is one destination of a hoardHandler and the lowest level it
// receives.
type logOutput struct {
	w   io.Writer
	min slog.Level
}

// hoardHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<opID>\t<message>\t<key=value ...>
//
// Each line is written to every output whose level it meets.
type hoardHandler struct {
	outputs []logOutput
	opID    string
	attrs   []slog.Attr
}

func (h *hoardHandler) Enabled(_ context.Context, level slog.Level) bool {
	for _, o := range h.outputs {
		if level >= o.min {
			return true
		}
	}
	return false
}

func (h *hoardHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	ts := r.Time.UTC().Format("2006-01-02T15:04:05Z")
	fmt.Fprintf(&buf, "%s\t%s\t%s\t%s", ts, r.Level.String(), h.opID, r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&buf, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&buf, "\t%s=%v", a.Key, a.Value)
		return true
	})
	buf.WriteByte('\n')

	for _, o := range h.outputs {
		if r.Level < o.min {
			continue
		}
		if _, err := o.w.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func (h *hoardHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &hoardHandler{
		outputs: h.outputs,
		opID:    h.opID,
		attrs:   append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *hoardHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger that writes everything to
// logDir/hoard.log and warnings and errors to stderr. It returns the
// slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir string, opID string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, LogFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := &hoardHandler{
		outputs: []logOutput{
			{w: f, min: slog.LevelDebug},
			{w: os.Stderr, min: slog.LevelWarn},
		},
		opID: opID,
	}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the hoard.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
