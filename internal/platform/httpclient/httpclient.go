// Package httpclient: cliente JSON para llamadas salientes (introspección de tokens).
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "procurement-hub"
	maxBody          = 1 << 20
)

// Client envuelve *http.Client. Retries aplica solo a fallas de red y 5xx.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Retries   int
	Backoff   time.Duration
}

func New(timeout time.Duration) *Client {
	return NewWithTransport(timeout, nil)
}

// NewWithTransport permite inyectar un Transport (tests).
func NewWithTransport(timeout time.Duration, tr http.RoundTripper) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tr == nil {
		tr = http.DefaultTransport
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout, Transport: tr},
		UserAgent: DefaultUserAgent,
		Retries:   1,
		Backoff:   200 * time.Millisecond,
	}
}

// HTTPError es una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

func (e *HTTPError) retryable() bool { return e.StatusCode >= 500 }

// DoJSON envía in (si no es nil) como JSON y decodifica la respuesta en out.
// Propaga el request id de chi si el ctx lo trae.
func (c *Client) DoJSON(ctx context.Context, method, pathOrURL string, headers map[string]string, in, out any) error {
	if c == nil || c.HTTP == nil {
		return errors.New("httpclient: nil client")
	}
	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return err
	}

	var payload []byte
	if in != nil {
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.Backoff * time.Duration(attempt)):
			}
		}
		raw, err := c.do(ctx, method, fullURL, headers, payload)
		if err == nil {
			if out == nil || len(raw) == 0 {
				return nil
			}
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("httpclient: unmarshal json: %w", err)
			}
			return nil
		}
		lastErr = err
		var he *HTTPError
		if errors.As(err, &he) && !he.retryable() {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, method, fullURL string, headers map[string]string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if id := chimw.GetReqID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return "", errors.New("httpclient: empty url")
	}
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL, nil
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", errors.New("httpclient: relative path requires BaseURL")
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return strings.TrimRight(c.BaseURL, "/") + pathOrURL, nil
}
