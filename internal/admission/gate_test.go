package admission_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelpress/internal/admission"
	"reelpress/internal/signature"
	"reelpress/internal/testsupport"
)

const (
	primary   = "primary-key"
	secondary = "secondary-key"
)

func admit(t *testing.T, body []byte, primarySign, secondarySign string) error {
	t.Helper()
	gate := admission.NewGate(primary, secondary)
	headers := signature.FromHTTP(testsupport.SignWebhook(body, primarySign, secondarySign))
	_, err := gate.Admit(context.Background(), admission.Event{Body: body, Headers: headers})
	return err
}

func TestAdmitBuildsWorkItem(t *testing.T) {
	body := testsupport.SkillPayload(t, "keynote.mp4")
	gate := admission.NewGate(primary, secondary)
	headers := signature.FromHTTP(testsupport.SignWebhook(body, primary, ""))

	item, err := gate.Admit(context.Background(), admission.Event{Body: body, Headers: headers})
	if err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if item.RequestID != "req-123" || item.SkillID != "skill-456" || item.FileID != "file-789" {
		t.Fatalf("unexpected identifiers %+v", item)
	}
	if item.FileName != "keynote.mp4" || item.FileSize != 4096 || item.FolderID != "folder-1" || item.UserID != "user-42" {
		t.Fatalf("unexpected file context %+v", item)
	}
	if item.FileReadToken != "read-token" || item.FileWriteToken != "write-token" {
		t.Fatalf("unexpected tokens %+v", item)
	}
}

func TestAdmitRejectsBadSignature(t *testing.T) {
	body := testsupport.SkillPayload(t, "keynote.mp4")
	err := admit(t, body, "not-the-key", "also-wrong")
	rej, ok := admission.AsRejection(err)
	if !ok || rej.Reason != admission.ReasonForbidden {
		t.Fatalf("expected forbidden rejection, got %v", err)
	}
	if admission.SkillErrorCode(err) != admission.SkillErrorExternalAuth {
		t.Fatalf("unexpected skill error code %q", admission.SkillErrorCode(err))
	}
}

func TestAdmitAcceptsSecondarySignature(t *testing.T) {
	body := testsupport.SkillPayload(t, "talk.wav")
	if err := admit(t, body, "", secondary); err != nil {
		t.Fatalf("expected secondary signature to pass: %v", err)
	}
}

func TestAdmitEveryAllowListedExtension(t *testing.T) {
	exts := append(admission.VideoExtensions(), admission.AudioExtensions()...)
	for _, ext := range exts {
		for _, variant := range []string{ext, strings.ToUpper(ext)} {
			body := testsupport.SkillPayload(t, "clip"+variant)
			if err := admit(t, body, primary, ""); err != nil {
				t.Fatalf("extension %s rejected: %v", variant, err)
			}
		}
	}
}

func TestAdmitRejectsUnlistedExtensions(t *testing.T) {
	for _, name := range []string{"notes.txt", "slides.pdf", "image.png", "archive.zip", "noext", "movie.mp4.exe"} {
		body := testsupport.SkillPayload(t, name)
		err := admit(t, body, primary, "")
		rej, ok := admission.AsRejection(err)
		if !ok || rej.Reason != admission.ReasonUnsupportedMediaType {
			t.Fatalf("%s: expected unsupported media rejection, got %v", name, err)
		}
	}
}

func TestAdmitMalformedPayload(t *testing.T) {
	cases := map[string][]byte{
		"not json":      []byte("{"),
		"missing token": []byte(`{"id":"1","skill":{"id":"s"},"source":{"id":"f","name":"a.mp4","size":1,"parent":{"id":"p"}},"event":{"created_by":{"id":"u"}}}`),
	}
	for name, body := range cases {
		err := admit(t, body, primary, "")
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if _, ok := admission.AsRejection(err); ok {
			t.Fatalf("%s: malformed payload must not be a rejection", name)
		}
		var payloadErr *admission.PayloadError
		if !errors.As(err, &payloadErr) {
			t.Fatalf("%s: expected PayloadError, got %T", name, err)
		}
	}
}

func TestAdmitAcceptsNumericIdentifiers(t *testing.T) {
	body := []byte(`{"id":1,"skill":{"id":2},"source":{"id":3,"name":"a.mp3","size":"17","parent":{"id":4}},"token":{"read":{"access_token":"r"},"write":{"access_token":"w"}},"event":{"created_by":{"id":5}}}`)
	gate := admission.NewGate(primary, secondary)
	headers := signature.FromHTTP(testsupport.SignWebhook(body, primary, ""))
	item, err := gate.Admit(context.Background(), admission.Event{Body: body, Headers: headers})
	if err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if item.FileID != "3" || item.FileSize != 17 || item.UserID != "5" {
		t.Fatalf("unexpected item %+v", item)
	}
}
