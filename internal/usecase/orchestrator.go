// Package usecase drives the sourcing pipeline for one job: discover
// candidates across sources, normalize and merge them, score and rank, and
// optionally generate outreach messages.
package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/cache"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/merger"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/normalizer"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/outreach"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/scorer"
)

// Options bound the pipeline's time and concurrency budget.
type Options struct {
	JobTimeout          time.Duration
	SourceFetchTimeout  time.Duration
	GlobalMaxInFlight   int
	OutreachConcurrency int
	BatchConcurrency    int
	ScoreCacheTTL       time.Duration
}

func (o Options) withDefaults() Options {
	if o.JobTimeout <= 0 {
		o.JobTimeout = 120 * time.Second
	}
	if o.SourceFetchTimeout <= 0 {
		o.SourceFetchTimeout = 30 * time.Second
	}
	if o.GlobalMaxInFlight <= 0 {
		o.GlobalMaxInFlight = 20
	}
	if o.OutreachConcurrency <= 0 {
		o.OutreachConcurrency = 4
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = 4
	}
	if o.ScoreCacheTTL <= 0 {
		o.ScoreCacheTTL = time.Hour
	}
	return o
}

// Orchestrator owns the job lifecycle. It is safe for concurrent use; the
// admission semaphore caps concurrent jobs process-wide.
type Orchestrator struct {
	adapters  []domain.SourceAdapter
	normalize *normalizer.Normalizer
	score     *scorer.Scorer
	messages  *outreach.Generator
	store     domain.Cache
	opts      Options
	admission chan struct{}
	now       func() time.Time
}

// NewOrchestrator wires the pipeline stages together. store may be nil to
// disable score caching.
func NewOrchestrator(adapters []domain.SourceAdapter, n *normalizer.Normalizer, s *scorer.Scorer, g *outreach.Generator, store domain.Cache, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		adapters:  adapters,
		normalize: n,
		score:     s,
		messages:  g,
		store:     store,
		opts:      opts,
		admission: make(chan struct{}, opts.GlobalMaxInFlight),
		now:       time.Now,
	}
}

// SourceCandidates runs one job end to end. Source outages surface as
// partial failures, never as an error; the only error paths are an invalid
// spec and a saturated engine.
func (o *Orchestrator) SourceCandidates(ctx context.Context, spec domain.JobSpec) (domain.JobResult, error) {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if err := spec.Validate(); err != nil {
		return domain.JobResult{}, err
	}

	select {
	case o.admission <- struct{}{}:
		defer func() { <-o.admission }()
	default:
		return domain.JobResult{}, fmt.Errorf("op=usecase.SourceCandidates job=%s: %w", spec.ID, domain.ErrEngineBusy)
	}

	observability.JobsStartedTotal.Inc()
	observability.JobsInFlight.Inc()
	defer observability.JobsInFlight.Dec()

	ctx, cancel := context.WithTimeout(ctx, o.opts.JobTimeout)
	defer cancel()

	start := o.now()
	log := slog.With(slog.String("job_id", spec.ID))
	o.transition(log, domain.StatePending, domain.StateDiscovering)

	candidates, failures := o.discover(ctx, log, spec)

	o.transition(log, domain.StateDiscovering, domain.StateNormalizing)
	o.transition(log, domain.StateNormalizing, domain.StateMerging)
	merged := merger.Merge(candidates)

	o.transition(log, domain.StateMerging, domain.StateScoring)
	jobFP := scoreFingerprint(spec)
	scored := make([]domain.ScoredCandidate, 0, len(merged))
	for _, c := range merged {
		sc, hit := o.cachedScore(ctx, c, jobFP)
		if !hit {
			sc = o.score.Score(c, spec)
			o.storeScore(ctx, sc, jobFP)
		}
		observability.FitScoreHistogram.Observe(sc.FitScore)
		scored = append(scored, sc)
	}

	o.transition(log, domain.StateScoring, domain.StateRanking)
	scorer.Rank(scored)
	top := scored
	if len(top) > spec.MaxCandidates {
		top = top[:spec.MaxCandidates]
	}

	result := domain.JobResult{
		JobID:           spec.ID,
		CandidatesFound: len(merged),
		TopCandidates:   top,
		PartialFailures: failures,
	}

	last := domain.StateRanking
	if spec.IncludeOutreach && len(top) > 0 {
		o.transition(log, domain.StateRanking, domain.StateGenerating)
		result.Messages = o.generate(ctx, top, spec)
		last = domain.StateGenerating
	}

	result.ProcessingTimeMS = o.now().Sub(start).Milliseconds()
	o.transition(log, last, domain.StateCompleted)

	outcome := "ok"
	if len(failures) > 0 {
		outcome = "partial"
	}
	observability.JobsCompletedTotal.WithLabelValues(outcome).Inc()
	observability.CandidatesFound.Observe(float64(len(merged)))
	log.Info("job completed",
		slog.Int("candidates_found", result.CandidatesFound),
		slog.Int("top_candidates", len(result.TopCandidates)),
		slog.Int("partial_failures", len(result.PartialFailures)),
		slog.Int64("processing_time_ms", result.ProcessingTimeMS))
	return result, nil
}

// ProcessBatch runs jobs with bounded concurrency and never aborts the batch:
// a rejected spec yields a result with no candidates for its position. Results
// line up with the input order.
func (o *Orchestrator) ProcessBatch(ctx context.Context, specs []domain.JobSpec) []domain.JobResult {
	results := make([]domain.JobResult, len(specs))
	sem := make(chan struct{}, o.opts.BatchConcurrency)
	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec domain.JobSpec) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res, err := o.SourceCandidates(ctx, spec)
			if err != nil {
				slog.Warn("batch job rejected", slog.String("job_id", spec.ID), slog.Any("error", err))
				res = domain.JobResult{JobID: spec.ID}
			}
			results[i] = res
		}(i, spec)
	}
	wg.Wait()
	return results
}

// discover fans out to every adapter, normalizing records as they arrive.
// Each source gets its own timeout; a cancelled or exhausted source is
// recorded as a partial failure by the adapter itself.
func (o *Orchestrator) discover(ctx context.Context, log *slog.Logger, spec domain.JobSpec) ([]domain.Candidate, []domain.PartialFailure) {
	type fetchResult struct {
		records []domain.RawRecord
	}
	failureCh := make(chan domain.PartialFailure, len(o.adapters)*2)
	recordCh := make(chan fetchResult, len(o.adapters))

	var wg sync.WaitGroup
	for _, adapter := range o.adapters {
		wg.Add(1)
		go func(a domain.SourceAdapter) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, o.opts.SourceFetchTimeout)
			defer cancel()
			recordCh <- fetchResult{records: a.Fetch(fetchCtx, spec, failureCh)}
		}(adapter)
	}
	go func() {
		wg.Wait()
		close(recordCh)
		close(failureCh)
	}()

	var candidates []domain.Candidate
	dropped := 0
	for res := range recordCh {
		for _, rec := range res.records {
			c, err := o.normalize.Normalize(rec)
			if err != nil {
				dropped++
				continue
			}
			candidates = append(candidates, c)
		}
	}
	if dropped > 0 {
		log.Debug("records dropped during normalization", slog.Int("dropped", dropped))
	}

	var failures []domain.PartialFailure
	for f := range failureCh {
		failures = append(failures, f)
	}
	return candidates, failures
}

// generate produces outreach for the ranked list with bounded parallelism,
// preserving rank order in the output.
func (o *Orchestrator) generate(ctx context.Context, top []domain.ScoredCandidate, spec domain.JobSpec) []domain.OutreachMessage {
	out := make([]domain.OutreachMessage, len(top))
	sem := make(chan struct{}, o.opts.OutreachConcurrency)
	var wg sync.WaitGroup
	for i, cand := range top {
		wg.Add(1)
		go func(i int, cand domain.ScoredCandidate) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i] = o.messages.Generate(ctx, cand, spec)
		}(i, cand)
	}
	wg.Wait()
	return out
}

func (o *Orchestrator) transition(log *slog.Logger, from, to domain.JobState) {
	log.Debug("state transition", slog.String("from", string(from)), slog.String("to", string(to)))
}

// cachedScore looks up a previously computed score for (candidate, job).
func (o *Orchestrator) cachedScore(ctx context.Context, c domain.Candidate, jobFP string) (domain.ScoredCandidate, bool) {
	if o.store == nil {
		return domain.ScoredCandidate{}, false
	}
	raw, ok := o.store.Get(ctx, cache.ScoreKey(c.IdentityKey, jobFP))
	if !ok {
		return domain.ScoredCandidate{}, false
	}
	var sc domain.ScoredCandidate
	if err := json.Unmarshal(raw, &sc); err != nil {
		return domain.ScoredCandidate{}, false
	}
	return sc, true
}

func (o *Orchestrator) storeScore(ctx context.Context, sc domain.ScoredCandidate, jobFP string) {
	if o.store == nil {
		return
	}
	raw, err := json.Marshal(sc)
	if err != nil {
		return
	}
	o.store.Put(ctx, cache.ScoreKey(sc.IdentityKey, jobFP), raw, o.opts.ScoreCacheTTL)
}

// scoreFingerprint canonicalizes the scoring-relevant spec fields so jobs
// with the same rubric share cached scores. Skill and location order is
// irrelevant to the score, so the lists are sorted first.
func scoreFingerprint(spec domain.JobSpec) string {
	sortedLower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			out = append(out, strings.ToLower(strings.TrimSpace(s)))
		}
		sort.Strings(out)
		return out
	}
	weights := make([]string, 0, len(spec.Weights()))
	for dim, w := range spec.Weights() {
		weights = append(weights, fmt.Sprintf("%s=%.4f", dim, w))
	}
	sort.Strings(weights)
	parts := []string{
		strings.ToLower(strings.TrimSpace(spec.Description)),
		strings.Join(sortedLower(spec.RequiredSkills), ","),
		strings.Join(sortedLower(spec.PreferredSkills), ","),
		strings.Join(sortedLower(spec.LocationPreferences), ","),
		strings.ToLower(spec.SeniorityHint),
		strings.Join(weights, ","),
	}
	return strings.Join(parts, "|")
}
