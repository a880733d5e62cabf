package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Disposition tells a queue consumer what to do with a delivery whose handler
// returned an error.
type Disposition string

const (
	// DispositionRetry releases the lease so the message is redelivered and,
	// after the receive budget is spent, dead-lettered.
	DispositionRetry Disposition = "retry"
	// DispositionDrop acknowledges the message; redelivery cannot succeed.
	DispositionDrop Disposition = "drop"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureDisposition maps a stage error to the queue action the consumer
// should take. Malformed payloads and broken configuration are dropped because
// replaying the same message cannot fix them; everything else is retried.
func FailureDisposition(err error) Disposition {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return DispositionDrop
	default:
		return DispositionRetry
	}
}

// ErrorKind returns a short label for the marker carried by err, suitable for
// the error_kind log field.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrExternalTool):
		return "external"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
