// Package source implements the candidate discovery adapters. Each adapter
// shares one fetch core: consult the cache, pace through the rate limiter,
// call the upstream with bounded retries, and report failures without ever
// failing the job.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/cache"
)

const maxBodyBytes = 2 << 20

var errUnparseable = errors.New("unparseable source response")

// Deps are the shared collaborators every adapter goes through.
type Deps struct {
	Limiter domain.Limiter
	Cache   domain.Cache
	HTTP    *http.Client
}

// Options configure one adapter instance.
type Options struct {
	BaseURL       string
	Credential    string
	DemoMode      bool
	CacheTTL      time.Duration
	MaxRetries    int
	MaxInFlight   int
	RetryInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = 4
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 500 * time.Millisecond
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 24 * time.Hour
	}
	return o
}

// driver is the per-source part of an adapter: how to build the upstream
// request, parse its response, and synthesize demo data.
type driver interface {
	sourceID() string
	newRequest(ctx context.Context, baseURL, credential string, spec domain.JobSpec) (*http.Request, error)
	parse(body []byte) ([]map[string]any, error)
	demo(rng *rand.Rand, spec domain.JobSpec) []map[string]any
}

// enricher is implemented by drivers that follow up the initial search with
// per-result fetches.
type enricher interface {
	enrich(ctx context.Context, a *Adapter, items []map[string]any)
}

// Adapter wraps a driver with the shared fetch behavior. It satisfies
// domain.SourceAdapter.
type Adapter struct {
	drv  driver
	deps Deps
	opts Options
	sem  chan struct{}
	now  func() time.Time
}

func newAdapter(drv driver, deps Deps, opts Options) *Adapter {
	if deps.HTTP == nil {
		deps.HTTP = &http.Client{Timeout: 20 * time.Second}
	}
	opts = opts.withDefaults()
	return &Adapter{
		drv:  drv,
		deps: deps,
		opts: opts,
		sem:  make(chan struct{}, opts.MaxInFlight),
		now:  time.Now,
	}
}

// SourceID returns the adapter's source identifier.
func (a *Adapter) SourceID() string { return a.drv.sourceID() }

// Fetch returns raw candidate records for the job. Failures are reported on
// the channel; the returned slice is empty in that case, never nil alongside
// an error.
func (a *Adapter) Fetch(ctx context.Context, spec domain.JobSpec, failures chan<- domain.PartialFailure) []domain.RawRecord {
	start := a.now()
	defer func() {
		observability.SourceFetchDuration.WithLabelValues(a.SourceID()).Observe(a.now().Sub(start).Seconds())
	}()

	fp := Fingerprint(spec)
	key := cache.SourceKey(a.SourceID(), fp)
	if raw, ok := a.deps.Cache.Get(ctx, key); ok {
		var recs []domain.RawRecord
		if err := json.Unmarshal(raw, &recs); err == nil {
			observability.SourceCacheHitsTotal.WithLabelValues(a.SourceID()).Inc()
			observability.SourceRequestsTotal.WithLabelValues(a.SourceID(), "cache").Inc()
			return recs
		}
		a.deps.Cache.Invalidate(ctx, key)
	}

	var (
		items     []map[string]any
		synthetic bool
	)
	if a.opts.DemoMode {
		items = a.drv.demo(demoRNG(a.SourceID(), fp), spec)
		synthetic = true
	} else {
		var err error
		items, err = a.fetchRemote(ctx, spec)
		if err != nil {
			reason := failureReason(ctx, err)
			slog.Warn("source fetch failed",
				slog.String("source", a.SourceID()),
				slog.String("reason", reason),
				slog.Any("error", err))
			observability.SourceRequestsTotal.WithLabelValues(a.SourceID(), "error").Inc()
			failures <- domain.PartialFailure{SourceID: a.SourceID(), Reason: reason}
			return nil
		}
	}

	recs := a.tag(items, synthetic)
	if blob, err := json.Marshal(recs); err == nil {
		a.deps.Cache.Put(ctx, key, blob, a.opts.CacheTTL)
	}
	observability.SourceRequestsTotal.WithLabelValues(a.SourceID(), "ok").Inc()
	return recs
}

// fetchRemote performs the upstream search. Concurrent jobs share the
// per-source in-flight cap.
func (a *Adapter) fetchRemote(ctx context.Context, spec domain.JobSpec) ([]map[string]any, error) {
	select {
	case a.sem <- struct{}{}:
		defer func() { <-a.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var items []map[string]any
	attempt := func() error {
		if err := a.deps.Limiter.Acquire(ctx, a.SourceID()); err != nil {
			return backoff.Permanent(err)
		}
		req, err := a.drv.newRequest(ctx, a.opts.BaseURL, a.opts.Credential, spec)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("op=source.request source=%s: %w", a.SourceID(), err))
		}
		resp, err := a.deps.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("op=source.fetch source=%s: %w", a.SourceID(), err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), a.now())
			a.deps.Limiter.ReportThrottle(a.SourceID(), retryAfter)
			return fmt.Errorf("op=source.fetch source=%s status=429: %w", a.SourceID(), domain.ErrSourceThrottled)
		case resp.StatusCode >= 500:
			return fmt.Errorf("op=source.fetch source=%s status=%d: %w", a.SourceID(), resp.StatusCode, domain.ErrSourceUnavailable)
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("op=source.fetch source=%s status=%d: %w", a.SourceID(), resp.StatusCode, domain.ErrSourceUnavailable))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("op=source.read source=%s: %w", a.SourceID(), err)
		}
		parsed, err := a.drv.parse(body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("op=source.parse source=%s: %w", a.SourceID(), errUnparseable))
		}
		items = parsed
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.opts.RetryInterval), uint64(a.opts.MaxRetries)),
		ctx,
	)
	if err := backoff.Retry(attempt, bo); err != nil {
		return nil, err
	}

	if e, ok := a.drv.(enricher); ok {
		e.enrich(ctx, a, items)
	}
	return items, nil
}

func (a *Adapter) tag(items []map[string]any, synthetic bool) []domain.RawRecord {
	now := a.now().UTC()
	recs := make([]domain.RawRecord, 0, len(items))
	for _, fields := range items {
		recs = append(recs, domain.RawRecord{
			ID:        ulid.Make().String(),
			SourceID:  a.SourceID(),
			FetchedAt: now,
			Synthetic: synthetic,
			Fields:    fields,
		})
	}
	return recs
}

func failureReason(ctx context.Context, err error) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		return domain.ReasonTimeout
	case errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled):
		return domain.ReasonCancelled
	case errors.Is(err, domain.ErrSourceThrottled):
		return domain.ReasonThrottled
	case errors.Is(err, errUnparseable):
		return domain.ReasonUnparseable
	default:
		return domain.ReasonTransport
	}
}

// parseRetryAfter understands both delta-seconds and HTTP-date forms. Zero
// means the server gave no usable hint and the limiter picks its own backoff.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// Fingerprint derives the stable cache key input for a job's query. Only the
// fields that shape the upstream search participate, so reworded but
// equivalent jobs share cache entries.
func Fingerprint(spec domain.JobSpec) string {
	req := append([]string(nil), spec.RequiredSkills...)
	sort.Strings(req)
	locs := append([]string(nil), spec.LocationPreferences...)
	parts := []string{
		strings.ToLower(strings.TrimSpace(spec.Description)),
		strings.ToLower(strings.Join(req, ",")),
		strings.ToLower(strings.Join(locs, ",")),
		strings.ToLower(spec.SeniorityHint),
	}
	return strings.Join(parts, "|")
}

// searchQuery flattens the job into the free-text query sent upstream.
func searchQuery(spec domain.JobSpec) string {
	parts := []string{spec.Description}
	parts = append(parts, spec.RequiredSkills...)
	if len(spec.LocationPreferences) > 0 {
		parts = append(parts, spec.LocationPreferences[0])
	}
	return strings.Join(parts, " ")
}
