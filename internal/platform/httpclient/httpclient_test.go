package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c := New(time.Second)
	c.Backoff = time.Millisecond
	ctx := context.WithValue(context.Background(), chimw.RequestIDKey, "req-1")

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.DoJSON(ctx, http.MethodPost, ts.URL, nil, map[string]string{"a": "b"}, &out))
	assert.True(t, out.OK)
	assert.EqualValues(t, 2, calls.Load())
}

func TestDoJSON_ClientErrorsAreFinal(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := New(time.Second)
	c.BaseURL = ts.URL + "/"
	err := c.DoJSON(context.Background(), http.MethodGet, "introspect", nil, nil, nil)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.Equal(t, "nope", he.Body)
	assert.EqualValues(t, 1, calls.Load())
}

func TestResolveURL(t *testing.T) {
	c := New(0)
	_, err := c.resolveURL("/x")
	assert.Error(t, err)
	_, err = c.resolveURL("  ")
	assert.Error(t, err)

	u, err := c.resolveURL("https://id.example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, "https://id.example.com/v1", u)
}
