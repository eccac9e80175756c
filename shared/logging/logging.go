package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// New builds the process logger: text on stderr, plus JSON lines appended to
// file when one is given. The returned func closes the file.
func New(level, file string) (*slog.Logger, func() error) {
	lvl := ParseLevel(level)
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})

	if file == "" {
		return slog.New(stderrHandler), func() error { return nil }
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger := slog.New(stderrHandler)
		logger.Error("failed to open log file, using stderr only", "error", err, "file", file)
		return logger, func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: lvl})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler)), f.Close
}

// NewFileOnly logs JSON lines to file alone, for interactive commands that
// own the terminal.
func NewFileOnly(level, file string) (*slog.Logger, func() error) {
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return Discard(), func() error { return nil }
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: ParseLevel(level)})), f.Close
}

// NewWithWriters is New with explicit destinations, for tests.
func NewWithWriters(stderr, file io.Writer, level string) *slog.Logger {
	lvl := ParseLevel(level)
	return slog.New(slogmulti.Fanout(
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}),
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: lvl}),
	))
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RedactEmail keeps the first character of the local part and the domain.
func RedactEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}
