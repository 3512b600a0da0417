package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/app"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/config"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/cache"
)

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://a.example", []string{"https://a.example"}},
		{" https://a.example , https://b.example ", []string{"https://a.example", "https://b.example"}},
		{" , ", []string{"*"}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, app.ParseOrigins(tc.in), tc.in)
	}
}

type noopEngine struct{}

func (noopEngine) SourceCandidates(_ context.Context, spec domain.JobSpec) (domain.JobResult, error) {
	return domain.JobResult{JobID: spec.ID}, nil
}

func (noopEngine) ProcessBatch(_ context.Context, specs []domain.JobSpec) []domain.JobResult {
	return make([]domain.JobResult, len(specs))
}

type openLimiter struct{}

func (openLimiter) Acquire(context.Context, string) error { return nil }
func (openLimiter) ReportThrottle(string, time.Duration)  {}
func (openLimiter) Throttled(string) bool                 { return false }

func TestBuildRouter_Routes(t *testing.T) {
	t.Parallel()
	cfg := config.Config{RateLimitPerMin: 100, CORSAllowOrigins: "*"}
	srv := httpserver.NewServer(cfg, noopEngine{}, openLimiter{}, nil, cache.NewMemory(8), []string{domain.SourceLinkedIn})
	h := app.BuildRouter(cfg, srv)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/source-candidates",
		strings.NewReader(`{"description": "Backend engineer"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
