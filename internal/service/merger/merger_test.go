package merger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/merger"
)

func TestMerge_SkillsUnion(t *testing.T) {
	t.Parallel()
	a := domain.Candidate{
		IdentityKey:  "https://linkedin.com/in/sarah",
		Name:         "Sarah Chen",
		Skills:       []string{"python", "pytorch"},
		Completeness: 0.6,
	}
	b := domain.Candidate{
		IdentityKey:  "https://linkedin.com/in/sarah",
		Name:         "Sarah Chen",
		Skills:       []string{"go", "python"},
		Completeness: 0.3,
	}

	out := merger.Merge([]domain.Candidate{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, []string{"go", "python", "pytorch"}, out[0].Skills)
}

func TestMerge_MostCompleteWinsScalars(t *testing.T) {
	t.Parallel()
	rich := domain.Candidate{
		IdentityKey:  "k",
		Name:         "Sarah Chen",
		Headline:     "ML Research Engineer at Google",
		Completeness: 0.8,
	}
	sparse := domain.Candidate{
		IdentityKey:  "k",
		Name:         "S. Chen",
		Location:     "Mountain View, CA",
		Completeness: 0.2,
	}

	out := merger.Merge([]domain.Candidate{sparse, rich})
	require.Len(t, out, 1)
	assert.Equal(t, "Sarah Chen", out[0].Name, "base comes from the more complete record")
	assert.Equal(t, "Mountain View, CA", out[0].Location, "gaps filled from the sparser one")
}

func TestMerge_ExperiencePrefersLongerDescription(t *testing.T) {
	t.Parallel()
	short := domain.Candidate{
		IdentityKey:  "k",
		Name:         "A",
		Completeness: 0.5,
		Experience: []domain.Experience{
			{Title: "Engineer", Company: "Acme", Start: "2020-01", Description: "built things"},
		},
	}
	long := domain.Candidate{
		IdentityKey:  "k",
		Name:         "A",
		Completeness: 0.4,
		Experience: []domain.Experience{
			{Title: "Engineer", Company: "Acme", Start: "2020-01", Description: "built the billing pipeline end to end"},
			{Title: "Intern", Company: "Beta", Start: "2019-06"},
		},
	}

	out := merger.Merge([]domain.Candidate{short, long})
	require.Len(t, out, 1)
	require.Len(t, out[0].Experience, 2)
	assert.Equal(t, "built the billing pipeline end to end", out[0].Experience[0].Description)
}

func TestMerge_EducationKeyedBySchoolDegreeYear(t *testing.T) {
	t.Parallel()
	a := domain.Candidate{
		IdentityKey:  "k",
		Name:         "A",
		Completeness: 0.5,
		Education: []domain.Education{
			{School: "Stanford University", Degree: "MS Computer Science", Year: "2016"},
		},
	}
	b := domain.Candidate{
		IdentityKey:  "k",
		Name:         "A",
		Completeness: 0.4,
		Education: []domain.Education{
			{School: "Stanford University", Degree: "MS Computer Science", Year: "2016"},
			{School: "Stanford University", Degree: "MS Computer Science", Year: "2019"},
		},
	}

	out := merger.Merge([]domain.Candidate{a, b})
	require.Len(t, out, 1)
	assert.Len(t, out[0].Education, 2,
		"same school and degree in a different year is a distinct entry")
}

func TestMerge_SourcesLaterFetchWins(t *testing.T) {
	t.Parallel()
	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	a := domain.Candidate{
		IdentityKey:  "k",
		Name:         "A",
		Completeness: 0.5,
		Sources: map[string]domain.Enrichment{
			domain.SourceGitHub: {SourceID: domain.SourceGitHub, FetchedAt: early, GitHub: &domain.GitHubStats{Followers: 10}},
		},
	}
	b := domain.Candidate{
		IdentityKey:  "k",
		Name:         "A",
		Completeness: 0.4,
		Sources: map[string]domain.Enrichment{
			domain.SourceGitHub:  {SourceID: domain.SourceGitHub, FetchedAt: late, GitHub: &domain.GitHubStats{Followers: 25}},
			domain.SourceTwitter: {SourceID: domain.SourceTwitter, FetchedAt: early, Twitter: &domain.TwitterStats{Handle: "a"}},
		},
	}

	out := merger.Merge([]domain.Candidate{a, b})
	require.Len(t, out, 1)
	require.Len(t, out[0].Sources, 2)
	assert.Equal(t, 25, out[0].Sources[domain.SourceGitHub].GitHub.Followers)
}

func TestMerge_Idempotent(t *testing.T) {
	t.Parallel()
	in := []domain.Candidate{
		{IdentityKey: "b", Name: "B", Skills: []string{"go"}, Completeness: 0.3},
		{IdentityKey: "a", Name: "A", Skills: []string{"python"}, Completeness: 0.5},
		{IdentityKey: "a", Name: "A", Skills: []string{"sql"}, Completeness: 0.2},
	}

	once := merger.Merge(in)
	twice := merger.Merge(once)
	assert.Equal(t, once, twice)
	require.Len(t, once, 2)
	assert.Equal(t, "a", once[0].IdentityKey, "output ordered by identity key")
}

func TestMerge_DistinctKeysStayDistinct(t *testing.T) {
	t.Parallel()
	in := []domain.Candidate{
		{IdentityKey: "x", Name: "Sarah Chen", Completeness: 0.5},
		{IdentityKey: "y", Name: "Sara Chen", Completeness: 0.5},
	}
	out := merger.Merge(in)
	assert.Len(t, out, 2, "near-duplicate names with different keys are different people")
}
