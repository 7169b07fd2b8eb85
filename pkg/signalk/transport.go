package signalk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxBodySize is the number of response body bytes read; the rest is dropped.
const MaxBodySize = 1024

// Response is an HTTP response with its body already read as UTF-8 text.
type Response struct {
	Status int
	Body   string
}

// HTTPTransport is the HTTP capability the authorization client consumes.
type HTTPTransport interface {
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error)
	Get(ctx context.Context, url string) (*Response, error)
}

// HTTPClient implements HTTPTransport on net/http.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient returns a transport whose requests time out after timeout.
// A zero timeout means no timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Post sends body with the given headers. A JSON content type is set unless
// the caller provides one.
func (h *HTTPClient) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return h.do(req)
}

// Get fetches url.
func (h *HTTPClient) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return h.do(req)
}

func (h *HTTPClient) do(req *http.Request) (*Response, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, errors.New("response body is not valid UTF-8")
	}

	return &Response{Status: resp.StatusCode, Body: string(data)}, nil
}

// httpURL joins the server root and a path. A root without a scheme gets http://.
func httpURL(root, path string) string {
	root = strings.TrimRight(root, "/")
	if !strings.Contains(root, "://") {
		root = "http://" + root
	}
	return root + path
}

// wsURL builds the WebSocket URL for path on the server root.
func wsURL(root, path string) string {
	root = strings.TrimRight(root, "/")
	switch {
	case strings.HasPrefix(root, "https://"):
		root = "wss://" + strings.TrimPrefix(root, "https://")
	case strings.HasPrefix(root, "http://"):
		root = "ws://" + strings.TrimPrefix(root, "http://")
	case !strings.Contains(root, "://"):
		root = "ws://" + root
	}
	return root + path
}
