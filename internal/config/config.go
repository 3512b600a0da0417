// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// SourceConfig holds the per-source options recognized by the engine.
type SourceConfig struct {
	Enabled           bool
	BaseURL           string
	Credential        string
	RequestsPerWindow int
	WindowSeconds     int
	MaxInFlight       int
	DemoMode          bool
}

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv          string `env:"APP_ENV" envDefault:"dev"`
	Port            int    `env:"PORT" envDefault:"8080"`
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"ai-candidate-sourcer"`

	// Primary profile source
	LinkedInEnabled  bool   `env:"LINKEDIN_ENABLED" envDefault:"true"`
	LinkedInBaseURL  string `env:"LINKEDIN_BASE_URL" envDefault:"https://api.linkedin-search.example.com"`
	LinkedInAPIKey   string `env:"LINKEDIN_API_KEY"`
	LinkedInPerWin   int    `env:"LINKEDIN_REQUESTS_PER_WINDOW" envDefault:"30"`
	LinkedInWindowS  int    `env:"LINKEDIN_WINDOW_SECONDS" envDefault:"60"`
	LinkedInInFlight int    `env:"LINKEDIN_MAX_IN_FLIGHT" envDefault:"4"`
	LinkedInDemoMode bool   `env:"LINKEDIN_DEMO_MODE" envDefault:"false"`

	// Code-hosting source
	GitHubEnabled  bool   `env:"GITHUB_ENABLED" envDefault:"true"`
	GitHubBaseURL  string `env:"GITHUB_BASE_URL" envDefault:"https://api.github.com"`
	GitHubToken    string `env:"GITHUB_TOKEN"`
	GitHubPerWin   int    `env:"GITHUB_REQUESTS_PER_WINDOW" envDefault:"30"`
	GitHubWindowS  int    `env:"GITHUB_WINDOW_SECONDS" envDefault:"60"`
	GitHubInFlight int    `env:"GITHUB_MAX_IN_FLIGHT" envDefault:"4"`
	GitHubDemoMode bool   `env:"GITHUB_DEMO_MODE" envDefault:"false"`

	// Microblog source
	TwitterEnabled  bool   `env:"TWITTER_ENABLED" envDefault:"true"`
	TwitterBaseURL  string `env:"TWITTER_BASE_URL" envDefault:"https://api.twitter.com/2"`
	TwitterToken    string `env:"TWITTER_BEARER_TOKEN"`
	TwitterPerWin   int    `env:"TWITTER_REQUESTS_PER_WINDOW" envDefault:"15"`
	TwitterWindowS  int    `env:"TWITTER_WINDOW_SECONDS" envDefault:"60"`
	TwitterInFlight int    `env:"TWITTER_MAX_IN_FLIGHT" envDefault:"4"`
	TwitterDemoMode bool   `env:"TWITTER_DEMO_MODE" envDefault:"false"`

	// Personal-site source
	WebsiteEnabled  bool   `env:"WEBSITE_ENABLED" envDefault:"true"`
	WebsiteBaseURL  string `env:"WEBSITE_BASE_URL" envDefault:""`
	WebsitePerWin   int    `env:"WEBSITE_REQUESTS_PER_WINDOW" envDefault:"20"`
	WebsiteWindowS  int    `env:"WEBSITE_WINDOW_SECONDS" envDefault:"60"`
	WebsiteInFlight int    `env:"WEBSITE_MAX_IN_FLIGHT" envDefault:"4"`
	WebsiteDemoMode bool   `env:"WEBSITE_DEMO_MODE" envDefault:"false"`

	// AI backend
	AIProvider      string        `env:"AI_PROVIDER" envDefault:"openrouter"`
	AIModel         string        `env:"AI_MODEL" envDefault:"meta-llama/llama-3.1-8b-instruct"`
	AIBaseURL       string        `env:"AI_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	AIAPIKey        string        `env:"AI_API_KEY"`
	AITimeout       time.Duration `env:"AI_TIMEOUT" envDefault:"15s"`
	AIMaxOutput     int           `env:"AI_MAX_OUTPUT_CHARS" envDefault:"1200"`
	AIPerWin        int           `env:"AI_REQUESTS_PER_WINDOW" envDefault:"20"`
	AIWindowS       int           `env:"AI_WINDOW_SECONDS" envDefault:"60"`
	AIPromptBudget  int           `env:"AI_PROMPT_TOKEN_BUDGET" envDefault:"1500"`
	AIBackoffBase   time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"1s"`
	AIBackoffMax    time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"10s"`
	AIBackoffElapse time.Duration `env:"AI_BACKOFF_MAX_ELAPSED_TIME" envDefault:"30s"`

	// Cache
	CacheKind       string        `env:"CACHE_KIND" envDefault:"memory"`
	CacheDefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"24h"`
	CacheCapacity   int           `env:"CACHE_CAPACITY" envDefault:"4096"`
	RedisURL        string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Scoring
	ScoringRefsPath string `env:"SCORING_REFS_PATH" envDefault:""`

	// Rate limiter
	BackoffStrategy string        `env:"BACKOFF_STRATEGY" envDefault:"exponential"`
	BackoffBase     time.Duration `env:"BACKOFF_BASE" envDefault:"1s"`
	BackoffMax      time.Duration `env:"BACKOFF_MAX" envDefault:"60s"`
	GlobalPerWin    int           `env:"GLOBAL_REQUESTS_PER_WINDOW" envDefault:"120"`
	GlobalWindowS   int           `env:"GLOBAL_WINDOW_SECONDS" envDefault:"60"`

	// Orchestrator
	JobTimeout          time.Duration `env:"JOB_TIMEOUT" envDefault:"120s"`
	SourceFetchTimeout  time.Duration `env:"SOURCE_FETCH_TIMEOUT" envDefault:"30s"`
	GlobalMaxInFlight   int           `env:"GLOBAL_MAX_IN_FLIGHT" envDefault:"20"`
	OutreachConcurrency int           `env:"OUTREACH_CONCURRENCY" envDefault:"4"`
	MaxRetries          int           `env:"SOURCE_MAX_RETRIES" envDefault:"3"`

	// HTTP server
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	RateLimitPerMin       int           `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"130s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// Sources returns per-source configs keyed by source id.
func (c Config) Sources() map[string]SourceConfig {
	return map[string]SourceConfig{
		"linkedin": {
			Enabled: c.LinkedInEnabled, BaseURL: c.LinkedInBaseURL, Credential: c.LinkedInAPIKey,
			RequestsPerWindow: c.LinkedInPerWin, WindowSeconds: c.LinkedInWindowS,
			MaxInFlight: c.LinkedInInFlight, DemoMode: c.LinkedInDemoMode,
		},
		"github": {
			Enabled: c.GitHubEnabled, BaseURL: c.GitHubBaseURL, Credential: c.GitHubToken,
			RequestsPerWindow: c.GitHubPerWin, WindowSeconds: c.GitHubWindowS,
			MaxInFlight: c.GitHubInFlight, DemoMode: c.GitHubDemoMode,
		},
		"twitter": {
			Enabled: c.TwitterEnabled, BaseURL: c.TwitterBaseURL, Credential: c.TwitterToken,
			RequestsPerWindow: c.TwitterPerWin, WindowSeconds: c.TwitterWindowS,
			MaxInFlight: c.TwitterInFlight, DemoMode: c.TwitterDemoMode,
		},
		"website": {
			Enabled: c.WebsiteEnabled, BaseURL: c.WebsiteBaseURL,
			RequestsPerWindow: c.WebsitePerWin, WindowSeconds: c.WebsiteWindowS,
			MaxInFlight: c.WebsiteInFlight, DemoMode: c.WebsiteDemoMode,
		},
	}
}
