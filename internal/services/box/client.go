package box

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelpress/internal/services/httpretry"
)

const (
	DefaultAPIBaseURL    = "https://api.box.com"
	DefaultUploadBaseURL = "https://upload.box.com/api"
	defaultHTTPTimeout   = 120 * time.Second
)

// Config captures endpoint settings.
type Config struct {
	APIBaseURL     string
	UploadBaseURL  string
	TimeoutSeconds int
}

// Client talks to the content API with a single identity.
type Client struct {
	apiBase    string
	uploadBase string
	tokens     TokenSource
	httpClient *http.Client
	retry      httpretry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy httpretry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// New constructs a client authenticated by tokens.
func New(cfg Config, tokens TokenSource, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		apiBase:    strings.TrimRight(firstNonEmpty(cfg.APIBaseURL, DefaultAPIBaseURL), "/"),
		uploadBase: strings.TrimRight(firstNonEmpty(cfg.UploadBaseURL, DefaultUploadBaseURL), "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		retry:      httpretry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError carries the platform's error envelope.
type APIError struct {
	Type        string          `json:"type"`
	Status      int             `json:"status"`
	Code        string          `json:"code"`
	Message     string          `json:"message"`
	ContextInfo json.RawMessage `json:"context_info"`
}

type request struct {
	op     string
	method string
	url    string
	body   func() (io.Reader, string, error)
}

// do runs req with retries and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	return c.retry.Do(ctx, req.op, func(ctx context.Context) error {
		data, err := c.once(ctx, req)
		if err != nil {
			return err
		}
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", req.op, err)
		}
		return nil
	})
}

func (c *Client) once(ctx context.Context, req request) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.op, err)
	}
	var body io.Reader
	contentType := ""
	if req.body != nil {
		body, contentType, err = req.body()
		if err != nil {
			return nil, fmt.Errorf("%s: build body: %w", req.op, err)
		}
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", req.op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.op, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", req.op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return data, httpretry.NewStatusError(req.op, resp, data)
	}
	return data, nil
}

func jsonBody(v any) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// conflictID extracts the id of the conflicting item from a 409 envelope.
// Files report a single object, folders an array.
func conflictID(err error) (string, bool) {
	var statusErr *httpretry.StatusError
	if !asStatus(err, &statusErr) || statusErr.StatusCode != http.StatusConflict {
		return "", false
	}
	var envelope APIError
	if json.Unmarshal([]byte(statusErr.Body), &envelope) != nil || len(envelope.ContextInfo) == 0 {
		return "", false
	}
	var info struct {
		Conflicts json.RawMessage `json:"conflicts"`
	}
	if json.Unmarshal(envelope.ContextInfo, &info) != nil || len(info.Conflicts) == 0 {
		return "", false
	}
	var single itemRef
	if json.Unmarshal(info.Conflicts, &single) == nil && single.ID != "" {
		return single.ID, true
	}
	var many []itemRef
	if json.Unmarshal(info.Conflicts, &many) == nil && len(many) > 0 && many[0].ID != "" {
		return many[0].ID, true
	}
	return "", false
}

type itemRef struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
