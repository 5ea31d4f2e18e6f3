package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"salespulse/internal/config"
)

// logState is the process-wide logger and the file it may own.
var logState struct {
	mu     sync.Mutex
	logger *slog.Logger
	file   *os.File
}

// InitializeLogger builds the process logger from cfg and installs it as the
// slog default. Later calls return the logger built by the first one.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	logState.mu.Lock()
	defer logState.mu.Unlock()

	if logState.logger != nil {
		return logState.logger, nil
	}

	w, file, err := logDestination(cfg)
	if err != nil {
		return nil, err
	}
	logger := slog.New(newContextHandler(w, parseLogLevel(cfg.Level), true))

	logState.logger = logger
	logState.file = file
	slog.SetDefault(logger)
	return logger, nil
}

// GetLogger returns the process logger, or the slog default before
// InitializeLogger ran.
func GetLogger() *slog.Logger {
	logState.mu.Lock()
	defer logState.mu.Unlock()

	if logState.logger == nil {
		return slog.Default()
	}
	return logState.logger
}

// NewLogger returns a JSON logger on w that is independent of the process
// logger. The report command and tests use it.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(newContextHandler(w, parseLogLevel(level), false))
}

// CloseLogFile closes the log file opened by InitializeLogger, if any.
func CloseLogFile() error {
	logState.mu.Lock()
	defer logState.mu.Unlock()

	if logState.file == nil {
		return nil
	}
	err := logState.file.Close()
	logState.file = nil
	return err
}

func resetLogger() {
	_ = CloseLogFile()
	logState.mu.Lock()
	logState.logger = nil
	logState.mu.Unlock()
}

// logDestination resolves the configured output. The returned file is nil
// for console output.
func logDestination(cfg config.LoggingConfig) (io.Writer, *os.File, error) {
	output := strings.ToLower(cfg.Output)
	if output != "file" && output != "both" {
		return os.Stdout, nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	if output == "both" {
		return io.MultiWriter(os.Stdout, file), file, nil
	}
	return file, file, nil
}

// parseLogLevel maps a config level name to a slog level; unknown names
// fall back to info.
func parseLogLevel(level string) slog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// contextHandler copies request and batch identifiers from the context onto
// every record.
type contextHandler struct {
	slog.Handler
}

func newContextHandler(w io.Writer, level slog.Level, addSource bool) *contextHandler {
	return &contextHandler{Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     level,
	})}
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	if id := GetBatchID(ctx); id != "" {
		r.AddAttrs(slog.String("batch_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
