package box

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reelpress/internal/services"
	"reelpress/internal/services/httpretry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Config{APIBaseURL: server.URL, UploadBaseURL: server.URL + "/upload"}, StaticToken("tok"),
		WithRetryPolicy(httpretry.Policy{Attempts: 3, BaseDelay: time.Millisecond, Sleeper: func(time.Duration) {}}))
}

func TestDownloadFileRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2.0/files/f1/content" || r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Authorization"))
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("video-bytes"))
	})
	data, err := client.DownloadFile(context.Background(), "f1")
	if err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}
	if string(data) != "video-bytes" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("unexpected download %q after %d calls", data, calls)
	}
}

func TestDownloadFileNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := client.DownloadFile(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUploadFileConflictUploadsNewVersion(t *testing.T) {
	var versionUploaded bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload/2.0/files/content":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if !strings.Contains(r.FormValue("attributes"), `"parent":{"id":"folder-1"}`) {
				t.Errorf("unexpected attributes %s", r.FormValue("attributes"))
			}
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"type":"error","status":409,"code":"item_name_in_use","context_info":{"conflicts":{"id":"existing-1","type":"file"}}}`))
		case "/upload/2.0/files/existing-1/content":
			versionUploaded = true
			_, _ = w.Write([]byte(`{"entries":[{"id":"existing-1","name":"demo.srt"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	file, err := client.UploadFile(context.Background(), "folder-1", "demo.srt", []byte("1\n"))
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if !versionUploaded || file.ID != "existing-1" {
		t.Fatalf("expected new version of existing file, got %+v", file)
	}
}

func TestEnsureFolderReusesConflict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"type":"error","status":409,"context_info":{"conflicts":[{"id":"thumbs-9","type":"folder"}]}}`))
	})
	id, err := client.EnsureFolder(context.Background(), "folder-1", "thumbnails")
	if err != nil {
		t.Fatalf("EnsureFolder failed: %v", err)
	}
	if id != "thumbs-9" {
		t.Fatalf("expected reused folder id, got %q", id)
	}
}

func TestCreateSharedLink(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Query().Get("fields") != "shared_link" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
		var body map[string]map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["shared_link"]["access"] != "company" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"id":"f1","shared_link":{"url":"https://app.example/s/abc","access":"company"}}`))
	})
	link, err := client.CreateSharedLink(context.Background(), "f1", "")
	if err != nil {
		t.Fatalf("CreateSharedLink failed: %v", err)
	}
	if link != "https://app.example/s/abc" {
		t.Fatalf("unexpected link %q", link)
	}
}

func TestAskAIAndExtract(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/2.0/ai/ask":
			if !strings.Contains(string(body), `"ai_agent":{"type":"ai_agent_id","id":"agent-1"}`) {
				t.Errorf("missing agent in %s", body)
			}
			_, _ = w.Write([]byte(`{"answer":"A tweet"}`))
		case "/2.0/ai/extract_structured":
			_, _ = w.Write([]byte(`{"answer":{"topic":"Go","tags":"go,ai"}}`))
		}
	})
	answer, err := client.AskAI(context.Background(), AskRequest{Prompt: "p", Content: "c", FileID: "ai", AgentID: "agent-1"})
	if err != nil || answer != "A tweet" {
		t.Fatalf("AskAI = %q, %v", answer, err)
	}
	fields, err := client.ExtractStructured(context.Background(), "ai", "c", "videoMeta")
	if err != nil || fields["topic"] != "Go" {
		t.Fatalf("ExtractStructured = %v, %v", fields, err)
	}
}

func TestDocGenBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2.0/docgen_batches":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["input_source"] != "api" || body["output_type"] != "docx" {
				t.Errorf("unexpected docgen body %v", body)
			}
			_, _ = w.Write([]byte(`{"id":"batch-1"}`))
		case "/2.0/docgen_batch_jobs/batch-1":
			_, _ = w.Write([]byte(`{"entries":[{"id":"j1","status":"completed","output_file":{"id":"doc-1"}}]}`))
		}
	})
	id, err := client.CreateDocGenBatch(context.Background(), DocGenRequest{TemplateID: "tpl", DestinationFolderID: "folder-1", FileName: "demo"})
	if err != nil || id != "batch-1" {
		t.Fatalf("CreateDocGenBatch = %q, %v", id, err)
	}
	jobs, err := client.GetDocGenBatchJobs(context.Background(), id)
	if err != nil || len(jobs) != 1 || jobs[0].Status != DocGenStatusCompleted || jobs[0].OutputFileID() != "doc-1" {
		t.Fatalf("GetDocGenBatchJobs = %+v, %v", jobs, err)
	}
}

func TestClientCredentialsCachesToken(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("box_subject_type") != "user" || r.Form.Get("box_subject_id") != "user-42" {
			t.Errorf("unexpected subject %v", r.Form)
		}
		_, _ = w.Write([]byte(`{"access_token":"abc","expires_in":3600}`))
	}))
	defer server.Close()

	now := time.Unix(1_700_000_000, 0)
	creds := NewUserCredentials(server.URL, "id", "secret", "user-42")
	creds.Now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		token, err := creds.Token(context.Background())
		if err != nil || token != "abc" {
			t.Fatalf("Token = %q, %v", token, err)
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected cached token, got %d requests", calls)
	}
	now = now.Add(3600*time.Second - 29*time.Second)
	if _, err := creds.Token(context.Background()); err != nil {
		t.Fatalf("Token refresh failed: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected refresh inside expiry margin, got %d requests", calls)
	}
}

func TestStaticTokenRejectsEmpty(t *testing.T) {
	if _, err := StaticToken("").Token(context.Background()); err == nil {
		t.Fatal("expected error for empty token")
	}
}
