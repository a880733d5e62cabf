package admission

import (
	"errors"
	"fmt"
)

// Reason classifies a rejected invocation.
type Reason string

const (
	// ReasonForbidden means the delivery signature did not verify.
	ReasonForbidden Reason = "forbidden"
	// ReasonUnsupportedMediaType means the source is neither audio nor video.
	ReasonUnsupportedMediaType Reason = "unsupported_media_type"
)

// Rejection is returned when an invocation is well-formed but not admitted.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("admission rejected (%s): %s", r.Reason, r.Message)
}

// AsRejection extracts a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// Skill error codes understood by the content platform when a skill reports
// a failed invocation.
const (
	SkillErrorFileProcessing    = "skills_file_processing_error"
	SkillErrorInvalidFileSize   = "skills_invalid_file_size_error"
	SkillErrorInvalidFileFormat = "skills_invalid_file_format_error"
	SkillErrorInvalidEvent      = "skills_invalid_event_error"
	SkillErrorNoInfoFound       = "skills_no_info_found"
	SkillErrorInvocations       = "skills_invocations_error"
	SkillErrorExternalAuth      = "skills_external_auth_error"
	SkillErrorBilling           = "skills_billing_error"
	SkillErrorUnknown           = "skills_unknown_error"
)

// SkillErrorCode maps an admission outcome to the platform error code.
func SkillErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if rej, ok := AsRejection(err); ok {
		switch rej.Reason {
		case ReasonForbidden:
			return SkillErrorExternalAuth
		case ReasonUnsupportedMediaType:
			return SkillErrorInvalidFileFormat
		}
	}
	var payloadErr *PayloadError
	if errors.As(err, &payloadErr) {
		return SkillErrorInvalidEvent
	}
	return SkillErrorUnknown
}
