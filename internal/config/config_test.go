package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/config"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.CacheKind)
	assert.Equal(t, 24*time.Hour, cfg.CacheDefaultTTL)
	assert.Equal(t, 120*time.Second, cfg.JobTimeout)
	assert.Equal(t, 30*time.Second, cfg.SourceFetchTimeout)
	assert.Equal(t, 15*time.Second, cfg.AITimeout)
	assert.Equal(t, 20, cfg.GlobalMaxInFlight)
	assert.Equal(t, 4, cfg.OutreachConcurrency)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "exponential", cfg.BackoffStrategy)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LINKEDIN_REQUESTS_PER_WINDOW", "2")
	t.Setenv("LINKEDIN_WINDOW_SECONDS", "60")
	t.Setenv("LINKEDIN_DEMO_MODE", "true")
	t.Setenv("CACHE_KIND", "external")

	cfg, err := config.Load()
	require.NoError(t, err)
	src := cfg.Sources()["linkedin"]
	assert.Equal(t, 2, src.RequestsPerWindow)
	assert.Equal(t, 60, src.WindowSeconds)
	assert.True(t, src.DemoMode)
	assert.Equal(t, "external", cfg.CacheKind)
}

func TestSources_AllFourPresent(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	srcs := cfg.Sources()
	for _, id := range []string{"linkedin", "github", "twitter", "website"} {
		s, ok := srcs[id]
		require.True(t, ok, "missing source %s", id)
		assert.Positive(t, s.RequestsPerWindow)
		assert.Positive(t, s.WindowSeconds)
		assert.Positive(t, s.MaxInFlight)
	}
}

func TestEnvModeHelpers(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.IsProd())
	assert.False(t, cfg.IsDev())
}

func TestLoadScoringRefs_Defaults(t *testing.T) {
	t.Parallel()
	refs, err := config.LoadScoringRefs("")
	require.NoError(t, err)
	assert.Contains(t, refs.EliteSchools, "stanford")
	assert.Contains(t, refs.TopTierCompanies, "google")
	assert.Contains(t, refs.SkillVocabulary, "pytorch")
	assert.NotEmpty(t, refs.MetroAreas["bay area"])
}

func TestLoadScoringRefs_Overlay(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.yaml")
	body := "elite_schools:\n  - hogwarts\ntop_tier_companies:\n  - acme ai\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	refs, err := config.LoadScoringRefs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hogwarts"}, refs.EliteSchools)
	assert.Equal(t, []string{"acme ai"}, refs.TopTierCompanies)
	// untouched sections keep defaults
	assert.Contains(t, refs.SkillVocabulary, "python")
	assert.InDelta(t, 0.25, refs.RubricWeights[domain.DimExperienceMatch], 1e-9)
}

func TestLoadScoringRefs_RubricWeightsOverlay(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.yaml")
	body := "rubric_weights:\n  experience_match: 0.5\n  education: 0.5\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	refs, err := config.LoadScoringRefs(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, refs.RubricWeights[domain.DimExperienceMatch], 1e-9)
	assert.InDelta(t, 0.5, refs.RubricWeights[domain.DimEducation], 1e-9)
	_, ok := refs.RubricWeights[domain.DimTenure]
	assert.False(t, ok, "overlay replaces the default weight map")
}

func TestLoadScoringRefs_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.LoadScoringRefs("/definitely/not/here.yaml")
	require.Error(t, err)
}
