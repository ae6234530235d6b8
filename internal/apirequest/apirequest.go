// Package apirequest is a small HTTP helper for calling JSON and form APIs
// from steps.
package apirequest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const formContentType = "application/x-www-form-urlencoded"

// MaxLoggedBody bounds the response body preview in debug logs.
const MaxLoggedBody = 512

// Response is a buffered HTTP response.
type Response struct {
	Status int
	// JSON is the body when it parses as JSON, otherwise "{}".
	JSON []byte
	Text string
	OK   bool
}

// Get returns the value at a gjson path in the JSON body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.JSON, path)
}

// Client issues requests. The zero value uses http.DefaultClient.
type Client struct {
	HTTP *http.Client
}

func New(c *http.Client) *Client {
	return &Client{HTTP: c}
}

func (c *Client) httpClient() *http.Client {
	if c == nil || c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// Post sends body form-encoded when the Content-Type header is
// application/x-www-form-urlencoded, JSON otherwise.
func (c *Client) Post(ctx context.Context, endpoint string, headers map[string]string, body any) (*Response, error) {
	var (
		reader io.Reader
		err    error
	)
	if strings.Contains(strings.ToLower(headerValue(headers, "Content-Type")), formContentType) {
		reader, err = formBody(body)
	} else {
		reader, err = jsonBody(body)
	}
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, endpoint, headers, reader)
}

func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, headers, nil)
}

func (c *Client) Put(ctx context.Context, endpoint string, headers map[string]string, body any) (*Response, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, endpoint, headers, reader)
}

func (c *Client) Delete(ctx context.Context, endpoint string, headers map[string]string, body any) (*Response, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodDelete, endpoint, headers, reader)
}

func (c *Client) do(ctx context.Context, method, endpoint string, headers map[string]string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("api request", "method", method, "url", endpoint)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, endpoint, err)
	}

	out := &Response{
		Status: resp.StatusCode,
		Text:   string(raw),
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		JSON:   []byte("{}"),
	}
	if gjson.ValidBytes(raw) && len(bytes.TrimSpace(raw)) > 0 {
		out.JSON = raw
	}
	preview, truncated, size, digest := truncateBytes(raw, MaxLoggedBody)
	attrs := []any{"method", method, "url", endpoint, "status", out.Status, "bytes", size, "body", string(preview)}
	if truncated {
		attrs = append(attrs, "truncated", true, "sha256", digest)
	}
	slog.Debug("api response", attrs...)
	return out, nil
}

// truncateBytes cuts in to maxBytes and reports the original size and its
// sha256 when it did.
func truncateBytes(in []byte, maxBytes int) ([]byte, bool, int, string) {
	if maxBytes <= 0 || len(in) <= maxBytes {
		return in, false, len(in), ""
	}
	sum := sha256.Sum256(in)
	return in[:maxBytes], true, len(in), hex.EncodeToString(sum[:])
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func jsonBody(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return bytes.NewReader(raw), nil
}

// formBody encodes url.Values, map[string]string or map[string]any.
func formBody(body any) (io.Reader, error) {
	values := url.Values{}
	switch b := body.(type) {
	case nil:
	case url.Values:
		values = b
	case map[string]string:
		for k, v := range b {
			values.Set(k, v)
		}
	case map[string]any:
		for k, v := range b {
			values.Set(k, fmt.Sprint(v))
		}
	default:
		return nil, fmt.Errorf("form body: unsupported type %T", body)
	}
	return strings.NewReader(values.Encode()), nil
}
