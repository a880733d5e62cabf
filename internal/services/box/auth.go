package box

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"reelpress/internal/services/httpretry"
)

// tokenRefreshMargin is subtracted from a token's lifetime before reuse.
const tokenRefreshMargin = 30 * time.Second

// TokenSource yields bearer tokens.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token returns the token or an error when it is empty.
func (t StaticToken) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", errors.New("box auth: empty token")
	}
	return string(t), nil
}

// ClientCredentials obtains tokens with the client-credentials grant and
// caches them until shortly before they expire.
type ClientCredentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	// SubjectType is "user" or "enterprise".
	SubjectType string
	SubjectID   string
	HTTPClient  *http.Client
	Now         func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewUserCredentials returns a source acting as userID.
func NewUserCredentials(apiBaseURL, clientID, clientSecret, userID string) *ClientCredentials {
	return &ClientCredentials{
		TokenURL:     strings.TrimRight(apiBaseURL, "/") + "/oauth2/token",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		SubjectType:  "user",
		SubjectID:    userID,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns a cached token or requests a new one.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if c.token != "" && now.Before(c.expires) {
		return c.token, nil
	}
	if c.ClientID == "" || c.ClientSecret == "" {
		return "", errors.New("box auth: client id and secret required")
	}
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	if c.SubjectType != "" {
		form.Set("box_subject_type", c.SubjectType)
		form.Set("box_subject_id", c.SubjectID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("box auth: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("box auth: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("box auth: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", httpretry.NewStatusError("box auth", resp, body)
	}
	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("box auth: decode: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("box auth: empty access token")
	}
	c.token = parsed.AccessToken
	lifetime := time.Duration(parsed.ExpiresIn)*time.Second - tokenRefreshMargin
	if lifetime < 0 {
		lifetime = 0
	}
	c.expires = now.Add(lifetime)
	return c.token, nil
}

func (c *ClientCredentials) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
