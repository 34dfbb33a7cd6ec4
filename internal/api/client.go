// Package api talks to the receipts backend. Every call is a single attempt:
// no retries, no timeouts beyond what the caller's context imposes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/form/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hmeicr/hmeicr/internal/buildinfo"
	"github.com/hmeicr/hmeicr/internal/logging"
)

const (
	csrfHeader      = "X-CSRFToken"
	requestIDHeader = "X-Request-ID"
	formContentType = "application/x-www-form-urlencoded"
	maxBodyBytes    = 10 << 20
)

// TokenSource supplies the anti-forgery token for mutating calls.
type TokenSource interface {
	CSRFToken() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// CSRFToken implements TokenSource.
func (f TokenFunc) CSRFToken() string { return f() }

// Client is a backend client holding the session cookie jar.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenSource
	encoder *form.Encoder
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added
// when the given client has none, since the backend session lives in a cookie.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		if cp.Jar == nil {
			cp.Jar = c.http.Jar
		}
		c.http = &cp
	}
}

// WithTokenSource sets where the CSRF token is read from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q: missing host", baseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Jar: jar},
		tokens:  TokenFunc(func() string { return "" }),
		encoder: form.NewEncoder(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("api")
	return c, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// send performs one request and returns the body of a 2xx response. payload,
// when non-nil, is form-encoded from its `form` struct tags.
func (c *Client) send(ctx context.Context, op, method string, payload any, path ...string) ([]byte, error) {
	var (
		body   io.Reader
		values url.Values
	)
	if payload != nil {
		var err error
		values, err = c.encoder.Encode(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encoding form: %w", op, err)
		}
		body = strings.NewReader(values.Encode())
	}

	target := c.baseURL.JoinPath(path...)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set(requestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", formContentType)
	}
	if method != http.MethodGet {
		if token := c.tokens.CSRFToken(); token != "" {
			req.Header.Set(csrfHeader, token)
		}
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", target.Path),
		zap.String("request_id", requestID),
	}
	if payload != nil {
		fields = append(fields, logging.Form(values))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", append(fields, zap.Error(err))...)
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.logger.Warn("reading response failed", append(fields, zap.Error(err))...)
		return nil, &NetworkError{Op: op, Err: err}
	}

	c.logger.Debug("request completed", append(fields,
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)...)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Message: messageFrom(data)}
	}
	return data, nil
}

// messageFrom pulls an optional human-readable message out of a response body.
func messageFrom(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

func decode(op string, data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func looksLikeJSON(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && (data[0] == '{' || data[0] == '[')
}
