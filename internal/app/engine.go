package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	aicl "github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/ai"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/source"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/config"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/cache"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/normalizer"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/outreach"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/scorer"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/usecase"
)

// Engine bundles the wired pipeline and the shared components the HTTP
// surface needs alongside it.
type Engine struct {
	Orchestrator *usecase.Orchestrator
	Limiter      *ratelimiter.Limiter
	Cache        domain.Cache
	AI           domain.AIClient
	SourceIDs    []string
}

// BuildEngine wires the full pipeline from configuration: rate limiter
// buckets, cache kind, enabled source adapters, scorer references, outreach
// generation, and the orchestrator.
func BuildEngine(cfg config.Config) (*Engine, error) {
	limiter := buildLimiter(cfg)

	store, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}

	refs, err := config.LoadScoringRefs(cfg.ScoringRefsPath)
	if err != nil {
		return nil, err
	}

	ai := buildAIClient(cfg)

	adapters, sourceIDs := buildAdapters(cfg, limiter, store)
	if len(adapters) == 0 {
		slog.Warn("no source adapters enabled")
	}

	gen := outreach.New(ai, limiter, outreach.Options{
		Timeout:      cfg.AITimeout,
		MaxChars:     cfg.AIMaxOutput,
		PromptBudget: cfg.AIPromptBudget,
	})

	orch := usecase.NewOrchestrator(
		adapters,
		normalizer.New(refs.SkillVocabulary),
		scorer.New(refs),
		gen,
		store,
		usecase.Options{
			JobTimeout:          cfg.JobTimeout,
			SourceFetchTimeout:  cfg.SourceFetchTimeout,
			GlobalMaxInFlight:   cfg.GlobalMaxInFlight,
			OutreachConcurrency: cfg.OutreachConcurrency,
		},
	)

	return &Engine{
		Orchestrator: orch,
		Limiter:      limiter,
		Cache:        store,
		AI:           ai,
		SourceIDs:    sourceIDs,
	}, nil
}

func buildLimiter(cfg config.Config) *ratelimiter.Limiter {
	buckets := map[string]ratelimiter.BucketConfig{
		ratelimiter.GlobalSource: {
			Capacity: cfg.GlobalPerWin,
			Window:   time.Duration(cfg.GlobalWindowS) * time.Second,
		},
		domain.SourceAI: {
			Capacity: cfg.AIPerWin,
			Window:   time.Duration(cfg.AIWindowS) * time.Second,
		},
	}
	for id, sc := range cfg.Sources() {
		if !sc.Enabled {
			continue
		}
		buckets[id] = ratelimiter.BucketConfig{
			Capacity: sc.RequestsPerWindow,
			Window:   time.Duration(sc.WindowSeconds) * time.Second,
		}
	}
	return ratelimiter.New(buckets, ratelimiter.Options{
		Strategy:  ratelimiter.ParseStrategy(cfg.BackoffStrategy),
		BaseDelay: cfg.BackoffBase,
		MaxDelay:  cfg.BackoffMax,
	})
}

func buildCache(cfg config.Config) (domain.Cache, error) {
	switch cfg.CacheKind {
	case "external":
		store, err := cache.NewRedisFromURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("op=app.BuildEngine cache: %w", err)
		}
		return store, nil
	default:
		return cache.NewMemory(cfg.CacheCapacity), nil
	}
}

// buildAIClient returns the real client when a key is configured, the
// deterministic mock in dev/demo runs, and nil (template-only outreach)
// otherwise.
func buildAIClient(cfg config.Config) domain.AIClient {
	if cfg.AIAPIKey != "" {
		return aicl.New(aicl.Options{
			BaseURL:        cfg.AIBaseURL,
			APIKey:         cfg.AIAPIKey,
			Model:          cfg.AIModel,
			Timeout:        cfg.AITimeout,
			BackoffInitial: cfg.AIBackoffBase,
			BackoffMax:     cfg.AIBackoffMax,
			BackoffElapsed: cfg.AIBackoffElapse,
		})
	}
	if cfg.IsDev() {
		return &aicl.Mock{}
	}
	return nil
}

func buildAdapters(cfg config.Config, limiter *ratelimiter.Limiter, store domain.Cache) ([]domain.SourceAdapter, []string) {
	deps := source.Deps{
		Limiter: limiter,
		Cache:   store,
		HTTP:    &http.Client{Timeout: cfg.SourceFetchTimeout},
	}
	constructors := map[string]func(source.Deps, source.Options) *source.Adapter{
		domain.SourceLinkedIn: source.NewLinkedIn,
		domain.SourceGitHub:   source.NewGitHub,
		domain.SourceTwitter:  source.NewTwitter,
		domain.SourceWebsite:  source.NewWebsite,
	}
	order := []string{domain.SourceLinkedIn, domain.SourceGitHub, domain.SourceTwitter, domain.SourceWebsite}

	var adapters []domain.SourceAdapter
	var ids []string
	sources := cfg.Sources()
	for _, id := range order {
		sc, ok := sources[id]
		if !ok || !sc.Enabled {
			continue
		}
		adapters = append(adapters, constructors[id](deps, source.Options{
			BaseURL:       sc.BaseURL,
			Credential:    sc.Credential,
			DemoMode:      sc.DemoMode,
			CacheTTL:      cfg.CacheDefaultTTL,
			MaxRetries:    cfg.MaxRetries,
			MaxInFlight:   sc.MaxInFlight,
			RetryInterval: 500 * time.Millisecond,
		}))
		ids = append(ids, id)
	}
	return adapters, ids
}
