package box

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"reelpress/internal/services"
	"reelpress/internal/services/httpretry"
)

// File is the subset of file metadata the pipeline reads.
type File struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Size       int64       `json:"size"`
	SharedLink *SharedLink `json:"shared_link,omitempty"`
}

// SharedLink describes a file's shared link.
type SharedLink struct {
	URL    string `json:"url"`
	Access string `json:"access"`
}

// Folder is the subset of folder metadata the pipeline reads.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fileCollection struct {
	Entries []File `json:"entries"`
}

// DownloadFile returns the content of fileID.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	if fileID == "" {
		return nil, services.Wrap(services.ErrValidation, "box", "download", "file id required", nil)
	}
	var data []byte
	req := request{
		op:     "box download",
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/2.0/files/%s/content", c.apiBase, url.PathEscape(fileID)),
	}
	err := c.retry.Do(ctx, req.op, func(ctx context.Context) error {
		body, err := c.once(ctx, req)
		if err != nil {
			return err
		}
		data = body
		return nil
	})
	if err != nil {
		return nil, c.classify(err, "download")
	}
	return data, nil
}

// UploadFile stores content as name inside folderID. A name conflict
// uploads a new version of the existing file.
func (c *Client) UploadFile(ctx context.Context, folderID, name string, content []byte) (File, error) {
	if folderID == "" {
		folderID = "0"
	}
	attrs := map[string]any{"name": name, "parent": itemRef{ID: folderID}}
	var out fileCollection
	err := c.do(ctx, request{
		op:     "box upload",
		method: http.MethodPost,
		url:    c.uploadBase + "/2.0/files/content",
		body:   multipartBody(attrs, name, content),
	}, &out)
	if err != nil {
		existing, ok := conflictID(err)
		if !ok {
			return File{}, c.classify(err, "upload")
		}
		return c.uploadVersion(ctx, existing, name, content)
	}
	if len(out.Entries) == 0 {
		return File{}, errors.New("box upload: empty response")
	}
	return out.Entries[0], nil
}

func (c *Client) uploadVersion(ctx context.Context, fileID, name string, content []byte) (File, error) {
	var out fileCollection
	err := c.do(ctx, request{
		op:     "box upload version",
		method: http.MethodPost,
		url:    fmt.Sprintf("%s/2.0/files/%s/content", c.uploadBase, url.PathEscape(fileID)),
		body:   multipartBody(map[string]any{"name": name}, name, content),
	}, &out)
	if err != nil {
		return File{}, c.classify(err, "upload version")
	}
	if len(out.Entries) == 0 {
		return File{}, errors.New("box upload version: empty response")
	}
	return out.Entries[0], nil
}

func multipartBody(attrs map[string]any, name string, content []byte) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		encoded, err := json.Marshal(attrs)
		if err != nil {
			return nil, "", err
		}
		if err := w.WriteField("attributes", string(encoded)); err != nil {
			return nil, "", err
		}
		part, err := w.CreateFormFile("file", name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(content); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}
}

// CreateSharedLink enables a shared link on fileID and returns its URL.
func (c *Client) CreateSharedLink(ctx context.Context, fileID, access string) (string, error) {
	if access == "" {
		access = "company"
	}
	var out File
	err := c.do(ctx, request{
		op:     "box shared link",
		method: http.MethodPut,
		url:    fmt.Sprintf("%s/2.0/files/%s?fields=shared_link", c.apiBase, url.PathEscape(fileID)),
		body:   jsonBody(map[string]any{"shared_link": map[string]string{"access": access}}),
	}, &out)
	if err != nil {
		return "", c.classify(err, "shared link")
	}
	if out.SharedLink == nil || out.SharedLink.URL == "" {
		return "", errors.New("box shared link: response missing url")
	}
	return out.SharedLink.URL, nil
}

// EnsureFolder creates name under parentID, reusing an existing folder of
// the same name.
func (c *Client) EnsureFolder(ctx context.Context, parentID, name string) (string, error) {
	var out Folder
	err := c.do(ctx, request{
		op:     "box create folder",
		method: http.MethodPost,
		url:    c.apiBase + "/2.0/folders",
		body:   jsonBody(map[string]any{"name": name, "parent": itemRef{ID: parentID}}),
	}, &out)
	if err != nil {
		if existing, ok := conflictID(err); ok {
			return existing, nil
		}
		return "", c.classify(err, "create folder")
	}
	return out.ID, nil
}

// classify maps API failures onto the service error markers.
func (c *Client) classify(err error, op string) error {
	var statusErr *httpretry.StatusError
	if asStatus(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "box", op, "item not found", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "box", op, "access denied", err)
		}
	}
	return services.Wrap(services.ErrTransient, "box", op, "request failed", err)
}

func asStatus(err error, target **httpretry.StatusError) bool {
	return errors.As(err, target)
}
