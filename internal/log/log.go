package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

type Level = slog.Level

const (
	Debug = slog.LevelDebug
	Info  = slog.LevelInfo
	Warn  = slog.LevelWarn
	Error = slog.LevelError
)

var nameToLevel = map[string]Level{"debug": Debug, "info": Info, "warn": Warn, "error": Error}

// Logger writes one JSON object per line. Values that look like credentials
// are redacted before they reach the output.
type Logger struct {
	sl *slog.Logger
}

// New returns a logger writing to stderr at the level named by
// MOVIEQA_LOG_LEVEL (default info).
func New() *Logger {
	return NewWriter(os.Stderr, ParseLevel(os.Getenv("MOVIEQA_LOG_LEVEL")))
}

// NewWriter returns a logger writing to w at the given level.
func NewWriter(w io.Writer, lvl Level) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: maskAttr,
	})
	return &Logger{sl: slog.New(h)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger { return NewWriter(io.Discard, Error+1) }

// ParseLevel maps debug|info|warn|error to a level; unknown names yield Info.
func ParseLevel(s string) Level {
	if l, ok := nameToLevel[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return Info
}

func (l *Logger) With(kv map[string]string) *Logger {
	args := make([]any, 0, len(kv)*2)
	for k, v := range kv {
		args = append(args, k, v)
	}
	return &Logger{sl: l.sl.With(args...)}
}

func (l *Logger) Enabled(level Level) bool {
	return l.sl.Enabled(context.Background(), level)
}

func (l *Logger) Debug(msg string, kv ...any) { l.sl.Debug(msg, pairs(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.sl.Info(msg, pairs(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sl.Warn(msg, pairs(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.sl.Error(msg, pairs(kv)...) }

// pairs drops keys that are not strings and a dangling trailing key, so a
// malformed call never produces slog's !BADKEY entries.
func pairs(kv []any) []any {
	out := make([]any, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		v := kv[i+1]
		if err, ok := v.(error); ok && err != nil {
			v = err.Error()
		}
		out = append(out, k, v)
	}
	return out
}

var secretKeys = []string{"key", "token", "secret", "password", "authorization", "api_key", "apikey", "bearer"}

// maskAttr redacts likely secret values.
func maskAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		return a
	}
	switch a.Key {
	case slog.MessageKey, slog.LevelKey, slog.TimeKey, "req_id", "path", "url":
		return a
	}
	s := a.Value.String()
	lowerK := strings.ToLower(a.Key)
	for _, p := range secretKeys {
		if strings.Contains(lowerK, p) {
			return slog.String(a.Key, redact(s))
		}
	}
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		parts := strings.SplitN(s, " ", 2)
		return slog.String(a.Key, "Bearer "+redact(parts[1]))
	}
	if strings.HasPrefix(s, "sk-") || looksSecret(s) {
		return slog.String(a.Key, redact(s))
	}
	return a
}

// long unbroken tokens only; ordinary words, paths and URLs keep their shape
var secretLike = regexp.MustCompile(`^[A-Za-z0-9_\-]{32,}$`)

func looksSecret(s string) bool { return secretLike.MatchString(s) }

func redact(s string) string {
	n := len(s)
	if n <= 8 {
		return "***"
	}
	return fmt.Sprintf("%s***%s", s[:4], s[n-4:])
}
