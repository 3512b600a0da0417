package normalizer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/normalizer"
)

func TestParseHeadline(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		headline string
		title    string
		company  string
	}{
		{"plain at", "Senior ML Engineer at Google", "Senior ML Engineer", "Google"},
		{"bullet after company", "Senior ML Engineer at Google • React Expert", "Senior ML Engineer", "Google"},
		{"pipe after company", "Engineer at Stripe | Payments", "Engineer", "Stripe"},
		{"dash after company", "Engineer at Stripe - Payments", "Engineer", "Stripe"},
		{"no company", "Freelance Data Scientist", "Freelance Data Scientist", ""},
		{"uppercase At", "CTO At Acme", "CTO", "Acme"},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			title, company := normalizer.ParseHeadline(tc.headline)
			assert.Equal(t, tc.title, title)
			assert.Equal(t, tc.company, company)
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"HTTPS://LinkedIn.com/in/SarahChen?trk=123#top", "https://linkedin.com/in/SarahChen"},
		{"https://github.com/sarah/", "https://github.com/sarah"},
		{"not a url", ""},
		{"", ""},
		{"relative/path", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizer.CanonicalURL(tc.in), tc.in)
	}
}

func TestNormalize_LinkedInProfile(t *testing.T) {
	t.Parallel()
	n := normalizer.New([]string{"pytorch", "machine learning"})
	rec := domain.RawRecord{
		ID:        "rec-1",
		SourceID:  domain.SourceLinkedIn,
		FetchedAt: time.Now(),
		Fields: map[string]any{
			"name":        "Sarah Chen",
			"headline":    "ML   Research Engineer at Google",
			"location":    "Mountain View, CA",
			"profile_url": "https://LinkedIn.com/in/sarahchen?utm=x",
			"snippet":     "Works on PyTorch internals.",
			"skills":      []any{"Python", "PyTorch", "Machine Learning"},
			"experience": []any{
				map[string]any{"title": "ML Research Engineer", "company": "Google", "start": "2021-03", "end": "Present"},
			},
			"education": []any{
				map[string]any{"degree": "MS Computer Science", "school": "Stanford University", "year": "2019"},
			},
		},
	}

	c, err := n.Normalize(rec)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Chen", c.Name)
	assert.Equal(t, "ML Research Engineer at Google", c.Headline)
	assert.Equal(t, "https://linkedin.com/in/sarahchen", c.PrimaryProfileURL)
	assert.Equal(t, "https://linkedin.com/in/sarahchen", c.IdentityKey)
	require.Len(t, c.Experience, 1)
	assert.True(t, c.Experience[0].Current())
	assert.Contains(t, c.Skills, "python")
	assert.Contains(t, c.Skills, "pytorch")
	assert.InDelta(t, 1.0, c.Completeness, 1e-9, "all expected fields present")
}

func TestNormalize_VocabularyFromFreeText(t *testing.T) {
	t.Parallel()
	n := normalizer.New([]string{"kubernetes", "terraform"})
	rec := domain.RawRecord{
		SourceID: domain.SourceLinkedIn,
		Fields: map[string]any{
			"name":     "Lee Park",
			"headline": "Platform Engineer at Acme",
			"snippet":  "Runs Kubernetes clusters with Terraform.",
		},
	}
	c, err := n.Normalize(rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"kubernetes", "terraform"}, c.Skills)
}

func TestNormalize_GitHubEnrichment(t *testing.T) {
	t.Parallel()
	n := normalizer.New(nil)
	rec := domain.RawRecord{
		SourceID:  domain.SourceGitHub,
		FetchedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Fields: map[string]any{
			"name":         "Sarah Chen",
			"username":     "sarahchen",
			"profile_url":  "https://github.com/sarahchen",
			"public_repos": float64(42),
			"followers":    float64(310),
			"total_stars":  float64(1200),
			"top_language": "Python",
			"languages":    []any{"Python", "Go"},
		},
	}
	c, err := n.Normalize(rec)
	require.NoError(t, err)
	enr, ok := c.Sources[domain.SourceGitHub]
	require.True(t, ok)
	require.NotNil(t, enr.GitHub)
	assert.Equal(t, 42, enr.GitHub.PublicRepos)
	assert.Equal(t, "Python", enr.GitHub.TopLanguage)
	assert.Equal(t, []string{"go", "python"}, c.Skills)
}

func TestNormalize_IdentityKeyFallbackHash(t *testing.T) {
	t.Parallel()
	n := normalizer.New(nil)
	rec := domain.RawRecord{
		SourceID: domain.SourceLinkedIn,
		Fields:   map[string]any{"name": "Sarah Chen", "location": "Berkeley, CA"},
	}
	c1, err := n.Normalize(rec)
	require.NoError(t, err)
	assert.Regexp(t, `^anon:[0-9a-f]{16}$`, c1.IdentityKey)

	// Same name and first location token hash to the same key.
	rec.Fields["location"] = "Berkeley, California"
	c2, err := n.Normalize(rec)
	require.NoError(t, err)
	assert.Equal(t, c1.IdentityKey, c2.IdentityKey)

	// A different name is a different person.
	rec.Fields["name"] = "Sara Chen"
	c3, err := n.Normalize(rec)
	require.NoError(t, err)
	assert.NotEqual(t, c1.IdentityKey, c3.IdentityKey)
}

func TestNormalize_UnparseableRecord(t *testing.T) {
	t.Parallel()
	n := normalizer.New(nil)
	_, err := n.Normalize(domain.RawRecord{SourceID: domain.SourceLinkedIn, Fields: map[string]any{"snippet": "noise"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = n.Normalize(domain.RawRecord{SourceID: "mystery", Fields: map[string]any{"name": "X"}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCompleteness_Partial(t *testing.T) {
	t.Parallel()
	c := domain.Candidate{Name: "A", Headline: "B"}
	assert.InDelta(t, 0.35, normalizer.Completeness(c), 1e-9)
}
