package logging

import (
	"context"
	"log/slog"
	"strings"

	"reelpress/internal/services"
)

// String is a shorthand for slog.String.
func String(key, value string) slog.Attr { return slog.String(key, value) }

// Int is a shorthand for slog.Int.
func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

// Int64 is a shorthand for slog.Int64.
func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

// Bool is a shorthand for slog.Bool.
func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

// Any is a shorthand for slog.Any.
func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

// Error attaches an error under the conventional "error" key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Alert tags a record so operators can route it to paging.
func Alert(value string) slog.Attr {
	return slog.String(FieldAlert, strings.TrimSpace(value))
}

// Args converts attrs to the variadic form expected by slog.Logger methods.
func Args(attrs ...slog.Attr) []any {
	out := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NoopHandler drops all records.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h NoopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h NoopHandler) WithGroup(string) slog.Handler           { return h }

// NewComponentLogger scopes a logger to a named component.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	component = strings.TrimSpace(component)
	if component == "" {
		return logger
	}
	return logger.With(slog.String(FieldComponent, component))
}

// ErrorWithContext logs err at ERROR level with its classification and a
// short operator hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, err error, hint string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	all := make([]slog.Attr, 0, len(attrs)+4)
	all = append(all, slog.String(FieldEventType, eventType))
	if kind := services.ErrorKind(err); kind != "" {
		all = append(all, slog.String(FieldErrorKind, kind))
	}
	if hint = strings.TrimSpace(hint); hint != "" {
		all = append(all, slog.String(FieldErrorHint, hint))
	}
	all = append(all, Error(err))
	all = append(all, attrs...)
	logger.Error(msg, Args(all...)...)
}

// WarnWithContext logs a degraded-but-continuing condition.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}
	all := append([]slog.Attr{slog.String(FieldEventType, eventType)}, attrs...)
	logger.Warn(msg, Args(all...)...)
}
