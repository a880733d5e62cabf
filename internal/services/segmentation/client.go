package segmentation

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"reelpress/internal/services"
	"reelpress/internal/services/httpretry"
)

const (
	DefaultModel       = "u2net"
	defaultHTTPTimeout = 120 * time.Second
)

// Config captures the server location and model.
type Config struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client removes image backgrounds.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      httpretry.Policy
}

// Option customizes the client.
type Option func(*Client)

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(policy httpretry.Policy) Option {
	return func(c *Client) { c.retry = policy }
}

// NewClient constructs a Client.
func NewClient(cfg Config, opts ...Option) *Client {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{cfg: cfg, httpClient: &http.Client{Timeout: timeout}, retry: httpretry.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RemoveBackground uploads a PNG and returns the cut-out as RGBA.
func (c *Client) RemoveBackground(ctx context.Context, img image.Image) (*image.NRGBA, error) {
	if c.cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "thumbnail", "segmentation", "segmentation url not configured", nil)
	}
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		return nil, fmt.Errorf("segmentation: encode input: %w", err)
	}

	var result []byte
	err := c.retry.Do(ctx, "segmentation", func(ctx context.Context) error {
		data, err := c.post(ctx, encoded.Bytes())
		if err != nil {
			return err
		}
		result = data
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "thumbnail", "segmentation", "background removal failed", err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(result))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "thumbnail", "segmentation", "decode response", err)
	}
	return toNRGBA(decoded), nil
}

func (c *Client) post(ctx context.Context, pngData []byte) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("model", c.cfg.Model); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile("file", "frame.png")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(pngData); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/remove", &body)
	if err != nil {
		return nil, fmt.Errorf("segmentation: new request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("segmentation: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("segmentation: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, httpretry.NewStatusError("segmentation", resp, data)
	}
	return data, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
