package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOpts(baseURL string) Options {
	return Options{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Model:          "test-model",
		Timeout:        2 * time.Second,
		BackoffInitial: time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
		BackoffElapsed: time.Second,
	}
}

func TestGenerate_Success(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hi Sarah,\n\nGreat profile.\n\nBest regards,\nAlex"}}]}`))
	}))
	defer srv.Close()

	c := New(fastOpts(srv.URL))
	out, err := c.Generate(context.Background(), "system", "user", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "Hi Sarah,")
}

func TestGenerate_TruncatesToMaxChars(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}}]}`))
	}))
	defer srv.Close()

	c := New(fastOpts(srv.URL))
	out, err := c.Generate(context.Background(), "s", "u", 10)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 10)
}

func TestGenerate_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"recovered after a retry, message body"}}]}`))
	}))
	defer srv.Close()

	c := New(fastOpts(srv.URL))
	out, err := c.Generate(context.Background(), "s", "u", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "recovered")
	mu.Lock()
	assert.Equal(t, 2, calls)
	mu.Unlock()
}

func TestGenerate_ModelRejectionDoesNotRetry(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid model"}}`))
	}))
	defer srv.Close()

	c := New(fastOpts(srv.URL))
	_, err := c.Generate(context.Background(), "s", "u", 0)
	require.Error(t, err)
	mu.Lock()
	assert.Equal(t, 1, calls, "4xx is permanent")
	mu.Unlock()
}

func TestGenerate_EmptyCompletionIsError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  "}}]}`))
	}))
	defer srv.Close()

	c := New(fastOpts(srv.URL))
	_, err := c.Generate(context.Background(), "s", "u", 0)
	assert.Error(t, err)
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	t.Parallel()
	c := New(Options{BaseURL: "http://unused"})
	_, err := c.Generate(context.Background(), "s", "u", 0)
	assert.Error(t, err)
}

func TestHealthy(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(fastOpts(srv.URL))
	assert.True(t, c.Healthy(context.Background()))

	down := New(fastOpts("http://127.0.0.1:1"))
	assert.False(t, down.Healthy(context.Background()))

	nokey := New(Options{BaseURL: srv.URL})
	assert.False(t, nokey.Healthy(context.Background()))
}

func TestMock(t *testing.T) {
	t.Parallel()
	m := &Mock{}
	assert.True(t, m.Healthy(context.Background()))
	out, err := m.Generate(context.Background(), "sys", "Candidate: Sarah Chen\nLocation: CA", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "Hi Sarah,")

	m.Unhealthy = true
	assert.False(t, m.Healthy(context.Background()))
}
