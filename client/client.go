// Package client is the session-aware HTTP client every backend call goes through.
//
// It attaches the bearer token, and on a 401 asks the session for a new access token
// once and replays the request once. Anything else is handed back untouched.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"gestion-admin/session"
)

// Client sends requests to the backend on behalf of a Session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	pending atomic.Int64
}

// New builds a client. A nil hc gets a 30s timeout.
func New(baseURL string, sess *session.Session, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		session: sess,
	}
}

// BaseURL is the backend root, without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Session returns the session whose tokens the client sends.
func (c *Client) Session() *session.Session { return c.session }

// Pending is the number of requests currently in flight.
func (c *Client) Pending() int64 { return c.pending.Load() }

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Err returns nil for a 2xx response and an *APIError otherwise.
func (r *Response) Err(fallback string) error {
	if r.OK() {
		return nil
	}
	return NewAPIError(r.StatusCode, r.Body, fallback)
}

// Do performs an authenticated request. body may be nil, a *Form, raw JSON as []byte
// or json.RawMessage, an io.Reader of JSON, or any value to marshal.
//
// Non-401 responses come back as they are, errors included. A 401 triggers one
// token refresh and one replay with identical bytes; if the refresh fails the session
// is torn down and session.ErrSessionExpired returned. Transport errors are never retried.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	c.pending.Add(1)
	defer c.pending.Add(-1)

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	token := c.session.Token()
	resp, err := c.send(ctx, method, path, payload, contentType, token)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	fresh, err := c.session.Refresh(ctx, token)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, method, path, payload, contentType, fresh)
}

// Public performs a request without credentials and without refresh handling.
// Used for login, where a 401 means bad credentials.
func (c *Client) Public(ctx context.Context, method, path string, body any) (*Response, error) {
	c.pending.Add(1)
	defer c.pending.Add(-1)

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, method, path, payload, contentType, "")
}

// JSON is Do followed by decoding a 2xx body into out. Failures become *APIError.
func (c *Client) JSON(ctx context.Context, method, path string, in, out any) error {
	resp, err := c.Do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if err := resp.Err(""); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, contentType, token string) (*Response, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

const jsonContentType = "application/json"

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, jsonContentType, nil
	case *Form:
		return b.encode()
	case []byte:
		return b, jsonContentType, nil
	case json.RawMessage:
		return b, jsonContentType, nil
	case io.Reader:
		data, err := io.ReadAll(b)
		return data, jsonContentType, err
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request: %w", err)
		}
		return data, jsonContentType, nil
	}
}

// DecodeList reads a collection either wrapped in a paginated {"results": [...]}
// envelope or as a bare array. Any other shape is an empty list.
func DecodeList[T any](body []byte) ([]T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []T{}, nil
	}
	if body[0] == '[' {
		var out []T
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}
	var env struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if env.Results == nil {
		return []T{}, nil
	}
	return env.Results, nil
}
