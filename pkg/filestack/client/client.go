// Package client sends requests built by filestack.URLBuilder to the Filestack API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/filestack-go/pkg/filestack"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("filestack api: %s", e.Status)
	}
	return fmt.Sprintf("filestack api: %s: %s", e.Status, e.Body)
}

// Temporary reports whether the request may succeed if retried.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

// FileLink describes a stored file as returned by the store and overwrite calls.
type FileLink struct {
	URL       string `json:"url"`
	Handle    string `json:"-"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"type"`
	Key       string `json:"key,omitempty"`
	Container string `json:"container,omitempty"`
}

// Client performs Filestack API calls. It is safe for concurrent use.
type Client struct {
	apiKey        string
	security      filestack.Signer
	builder       *filestack.URLBuilder
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	logger        *slog.Logger
}

// Option is a functional option for configuring a Client
type Option func(*Client)

// New creates a new client for apiKey
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		builder: filestack.NewURLBuilder(),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		retryAttempts: 3,
		retryDelay:    1 * time.Second,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithSecurity signs every request with s
func WithSecurity(s filestack.Signer) Option {
	return func(c *Client) {
		c.security = s
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRetry configures retry behavior. attempts below 1 are treated as 1.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.retryAttempts = attempts
		c.retryDelay = delay
	}
}

// WithURLBuilder overrides the endpoints requests are sent to
func WithURLBuilder(b *filestack.URLBuilder) Option {
	return func(c *Client) {
		c.builder = b
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Upload stores data and returns the resulting file link. Only the upload
// options (filename, mimetype, path, container, access, base64decode) and
// location are used.
func (c *Client) Upload(ctx context.Context, data io.Reader, opts filestack.Options) (*FileLink, error) {
	u, err := c.builder.CreateURL(filestack.ActionUpload, c.apiKey, opts, c.security)
	if err != nil {
		return nil, err
	}

	contentType := opts.Normalize().Get(filestack.OptMimetype)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return c.send(ctx, http.MethodPost, u, data, contentType)
}

// Overwrite replaces the content of handle with data.
func (c *Client) Overwrite(ctx context.Context, handle string, data io.Reader) (*FileLink, error) {
	u, err := c.builder.CreateURL(filestack.ActionOverwrite, c.apiKey,
		filestack.Options{{Key: filestack.OptHandle, Value: handle}}, c.security)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPost, u, data, "application/octet-stream")
}

// Delete removes the file identified by handle.
func (c *Client) Delete(ctx context.Context, handle string) error {
	u, err := c.builder.CreateURL(filestack.ActionDelete, c.apiKey,
		filestack.Options{{Key: filestack.OptHandle, Value: handle}}, c.security)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodDelete, u, nil, "")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Transform applies tasks to handle and copies the processed file to w.
func (c *Client) Transform(ctx context.Context, handle, tasks string, w io.Writer) (int64, error) {
	u, err := c.builder.CreateURL(filestack.ActionTransform, c.apiKey, filestack.Options{
		{Key: filestack.OptTasksStr, Value: tasks},
		{Key: filestack.OptHandle, Value: handle},
	}, c.security)
	if err != nil {
		return 0, err
	}

	resp, err := c.do(ctx, http.MethodGet, u, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read transform response: %w", err)
	}
	return n, nil
}

func (c *Client) send(ctx context.Context, method, u string, data io.Reader, contentType string) (*FileLink, error) {
	// Buffer the body so it can be replayed on retry.
	body, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload data: %w", err)
	}

	resp, err := c.do(ctx, method, u, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var link FileLink
	if err := json.NewDecoder(resp.Body).Decode(&link); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	link.Handle = HandleFromURL(link.URL)
	return &link, nil
}

// do sends the request, retrying transport errors and 5xx responses. On success
// the caller owns the response body.
func (c *Client) do(ctx context.Context, method, u string, body []byte, contentType string) (*http.Response, error) {
	requestID := uuid.New().String()

	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			// Wait before retry
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", filestack.UserAgent())
		req.Header.Set("X-Request-ID", requestID)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		c.logger.Debug("filestack request", "method", method, "request_id", requestID, "attempt", attempt+1)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn("filestack request failed", "method", method, "request_id", requestID, "err", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		apiErr := readAPIError(resp)
		lastErr = apiErr

		// Don't retry on client errors (4xx)
		if !apiErr.Temporary() {
			return nil, apiErr
		}
		c.logger.Warn("filestack server error", "method", method, "request_id", requestID, "status", resp.StatusCode)
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.retryAttempts, lastErr)
}

func readAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(bytes.TrimSpace(msg)),
	}
}

// HandleFromURL extracts the file handle from a CDN file URL.
func HandleFromURL(fileURL string) string {
	u, err := url.Parse(fileURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	return path.Base(u.Path)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
