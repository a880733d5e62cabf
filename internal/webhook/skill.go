package webhook

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"

	"reelpress/internal/admission"
	"reelpress/internal/logging"
	"reelpress/internal/observability"
	"reelpress/internal/services"
	"reelpress/internal/signature"
)

const (
	msgForbidden       = "Launch failed signature check"
	msgUnsupportedType = "File is not audio or video"
	msgStarted         = "Video processing started"
	msgErrorPrefix     = "Error processing skill request: "

	maxBodyBytes = 1 << 20
)

type skillHandler struct {
	gate   Admitter
	queue  Enqueuer
	logger *slog.Logger
}

func (h *skillHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := services.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	ctx, span := observability.StartSpan(ctx, "admission.admit")
	var spanErr error
	defer func() { observability.EndSpan(span, spanErr) }()

	logger := logging.WithContext(ctx, h.logger)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		spanErr = err
		logging.ErrorWithContext(logger, "skill request body unreadable", "webhook_error", err,
			"skill payloads are small JSON documents; check the sender")
		writeText(w, http.StatusInternalServerError, msgErrorPrefix+err.Error())
		return
	}

	item, err := h.gate.Admit(ctx, admission.Event{Body: body, Headers: signature.FromHTTP(r.Header)})
	if err != nil {
		if rej, ok := admission.AsRejection(err); ok {
			span.SetAttributes(attribute.String("admission.rejection", string(rej.Reason)))
			switch rej.Reason {
			case admission.ReasonForbidden:
				logging.WarnWithContext(logger, "skill request failed signature check", "webhook_forbidden")
				writeText(w, http.StatusForbidden, msgForbidden)
				return
			case admission.ReasonUnsupportedMediaType:
				logger.Info("skill request ignored: unsupported media", logging.String("detail", rej.Message))
				writeText(w, http.StatusUnsupportedMediaType, msgUnsupportedType)
				return
			}
		}
		spanErr = err
		logging.ErrorWithContext(logger, "skill request failed", "webhook_error", err,
			"check the skill payload shape",
			logging.String("skill_error_code", admission.SkillErrorCode(err)))
		writeText(w, http.StatusInternalServerError, msgErrorPrefix+err.Error())
		return
	}

	ctx = services.WithFileID(ctx, item.FileID)
	logger = logging.WithContext(ctx, h.logger)
	span.SetAttributes(attribute.String("file.id", item.FileID), attribute.String("file.name", item.FileName))

	id, err := h.queue.Enqueue(ctx, item)
	if err != nil {
		spanErr = err
		logging.ErrorWithContext(logger, "enqueue work item failed", "webhook_enqueue_failed", err,
			"check the queue database",
			logging.String("skill_error_code", admission.SkillErrorCode(err)))
		writeText(w, http.StatusInternalServerError, msgErrorPrefix+err.Error())
		return
	}
	logger.Info("skill request accepted",
		logging.Int64("message_id", id),
		logging.String(logging.FieldSkillID, item.SkillID),
		logging.String("file_name", item.FileName),
	)
	writeText(w, http.StatusOK, msgStarted)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
