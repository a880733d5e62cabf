package logging

import (
	"context"
	"log/slog"

	"reelpress/internal/services"
)

// Field keys shared across packages so log consumers can rely on them.
const (
	FieldComponent = "component"
	FieldStage     = "stage"
	FieldJobID     = "job_id"
	FieldFileID    = "file_id"
	FieldSkillID   = "skill_id"
	FieldRequestID = "request_id"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldErrorKind = "error_kind"
	FieldAlert     = "alert"
)

// ContextFields extracts the identifiers carried on ctx as slog attrs.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, id))
	}
	if id, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if id, ok := services.FileIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFileID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger enriched with the identifiers carried on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
