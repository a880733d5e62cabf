package admission

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"reelpress/internal/job"
	"reelpress/internal/signature"
)

// Event is an inbound skill invocation.
type Event struct {
	Body    []byte
	Headers signature.Headers
}

// PayloadError reports a body that could not be turned into a work item.
type PayloadError struct {
	Field string
	Err   error
}

func (e *PayloadError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid skill payload: %v", e.Err)
	}
	return fmt.Sprintf("invalid skill payload: %s: %v", e.Field, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// Gate admits skill invocations.
type Gate struct {
	PrimaryKey   string
	SecondaryKey string
	Verifier     signature.Verifier
}

// NewGate builds a gate for the given signing keys.
func NewGate(primaryKey, secondaryKey string) *Gate {
	return &Gate{PrimaryKey: primaryKey, SecondaryKey: secondaryKey}
}

// Admit parses, authenticates, and classifies ev. It returns a *Rejection
// for signature or media-type failures and a *PayloadError for malformed
// bodies.
func (g *Gate) Admit(_ context.Context, ev Event) (job.WorkItem, error) {
	item, err := parsePayload(ev.Body)
	if err != nil {
		return job.WorkItem{}, err
	}
	if !g.Verifier.Verify(ev.Body, ev.Headers, g.PrimaryKey, g.SecondaryKey) {
		return job.WorkItem{}, &Rejection{Reason: ReasonForbidden, Message: "Launch failed signature check"}
	}
	if !IsVideo(item.FileName) && !IsAudio(item.FileName) {
		return job.WorkItem{}, &Rejection{Reason: ReasonUnsupportedMediaType, Message: "File is not audio or video"}
	}
	if err := item.Validate(); err != nil {
		return job.WorkItem{}, &PayloadError{Err: err}
	}
	return item, nil
}

type skillPayload struct {
	ID    flexString `json:"id"`
	Skill struct {
		ID flexString `json:"id"`
	} `json:"skill"`
	Source struct {
		ID     flexString `json:"id"`
		Name   string     `json:"name"`
		Size   flexString `json:"size"`
		Parent struct {
			ID flexString `json:"id"`
		} `json:"parent"`
	} `json:"source"`
	Token struct {
		Read struct {
			AccessToken string `json:"access_token"`
		} `json:"read"`
		Write struct {
			AccessToken string `json:"access_token"`
		} `json:"write"`
	} `json:"token"`
	Event struct {
		CreatedBy struct {
			ID flexString `json:"id"`
		} `json:"created_by"`
	} `json:"event"`
}

func parsePayload(body []byte) (job.WorkItem, error) {
	var p skillPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return job.WorkItem{}, &PayloadError{Err: err}
	}
	required := []struct {
		field string
		value string
	}{
		{"id", string(p.ID)},
		{"skill.id", string(p.Skill.ID)},
		{"source.id", string(p.Source.ID)},
		{"source.name", p.Source.Name},
		{"source.parent.id", string(p.Source.Parent.ID)},
		{"token.read.access_token", p.Token.Read.AccessToken},
		{"token.write.access_token", p.Token.Write.AccessToken},
		{"event.created_by.id", string(p.Event.CreatedBy.ID)},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return job.WorkItem{}, &PayloadError{Field: r.field, Err: fmt.Errorf("missing")}
		}
	}
	var size int64
	if s := strings.TrimSpace(string(p.Source.Size)); s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return job.WorkItem{}, &PayloadError{Field: "source.size", Err: err}
		}
		size = parsed
	}
	return job.WorkItem{
		RequestID:      string(p.ID),
		SkillID:        string(p.Skill.ID),
		FileID:         string(p.Source.ID),
		FileName:       p.Source.Name,
		FileSize:       size,
		FileReadToken:  p.Token.Read.AccessToken,
		FileWriteToken: p.Token.Write.AccessToken,
		UserID:         string(p.Event.CreatedBy.ID),
		FolderID:       string(p.Source.Parent.ID),
	}, nil
}

// flexString accepts JSON strings and numbers. Platform identifiers arrive
// as either.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
