package outreach_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/outreach"
)

type mockAI struct {
	healthy bool
	resp    string
	err     error
	calls   int
}

func (m *mockAI) Generate(context.Context, string, string, int) (string, error) {
	m.calls++
	return m.resp, m.err
}

func (m *mockAI) Healthy(context.Context) bool { return m.healthy }

func sarah() domain.ScoredCandidate {
	return domain.ScoredCandidate{
		Candidate: domain.Candidate{
			IdentityKey: "https://linkedin.com/in/sarahchen",
			Name:        "Sarah Chen",
			Headline:    "ML Research Engineer at Google",
			Location:    "Mountain View, CA",
			Skills:      []string{"PyTorch", "Python", "Transformers"},
			Experience: []domain.Experience{
				{Title: "ML Research Engineer", Company: "Google", Start: "2021-03", End: "present"},
			},
		},
		FitScore:   8.7,
		Confidence: 0.8,
	}
}

func mlJob() domain.JobSpec {
	return domain.JobSpec{
		ID:              "job-1",
		Description:     "We train models for code generation.\n- Forbes AI 50 company\n- Remote flexibility",
		RequiredSkills:  []string{"pytorch", "python"},
		PreferredSkills: []string{"llm"},
		JobTitle:        "ML Research Engineer",
		JobCompany:      "Windsurf",
		IncludeOutreach: true,
		MaxCandidates:   5,
	}
}

func TestGenerate_TemplateFallbackIsDeterministic(t *testing.T) {
	t.Parallel()
	g := outreach.New(nil, nil, outreach.Options{SignOff: "Alex Recruiter"})

	first := g.Generate(context.Background(), sarah(), mlJob())
	second := g.Generate(context.Background(), sarah(), mlJob())

	assert.Equal(t, domain.MethodTemplate, first.Method)
	assert.Equal(t, first.Body, second.Body, "template output must be byte-identical")

	assert.True(t, strings.HasPrefix(first.Body, "Hi Sarah,"), "greeting uses the first name")
	assert.Contains(t, first.Body, "Google")
	assert.Contains(t, first.Body, "PyTorch")
	assert.Contains(t, first.Body, "ML Research Engineer")
	assert.Contains(t, first.Body, "Windsurf")
	assert.Contains(t, first.Body, "Alex Recruiter")
	assert.Contains(t, first.Body, "- Forbes AI 50 company")
	assert.Equal(t, len([]rune(first.Body)), first.CharCount)
	assert.Equal(t, "https://linkedin.com/in/sarahchen", first.CandidateRef)
}

func TestGenerate_TemplateClassSelection(t *testing.T) {
	t.Parallel()
	g := outreach.New(nil, nil, outreach.Options{})

	exec := sarah()
	exec.Headline = "VP of Engineering at Stripe"
	exec.Experience = []domain.Experience{{Title: "VP of Engineering", Company: "Stripe", End: "present"}}
	msg := g.Generate(context.Background(), exec, mlJob())
	assert.Contains(t, msg.Body, "Your leadership experience", "executive class")

	founder := sarah()
	founder.Headline = "Founder at Stealth"
	founder.Experience = []domain.Experience{{Title: "Founder", Company: "Stealth", End: "present"}}
	msg = g.Generate(context.Background(), founder, mlJob())
	assert.Contains(t, msg.Body, "entrepreneurial background", "startup class")

	msg = g.Generate(context.Background(), sarah(), mlJob())
	assert.Contains(t, msg.Body, "research background", "researcher class from 'research' token")
}

func TestGenerate_AIPathUsedWhenHealthy(t *testing.T) {
	t.Parallel()
	ai := &mockAI{
		healthy: true,
		resp: "Hi Sarah,\n\nYour work on PyTorch at Google stood out to me. We are hiring an " +
			"ML Research Engineer at Windsurf and your background fits well.\n\nBest regards,\nAlex",
	}
	g := outreach.New(ai, nil, outreach.Options{})

	msg := g.Generate(context.Background(), sarah(), mlJob())
	assert.Equal(t, domain.MethodAI, msg.Method)
	assert.True(t, strings.HasPrefix(msg.Body, "Hi Sarah,"))
	assert.Equal(t, 1, ai.calls)
}

func TestGenerate_AIFillerIsStripped(t *testing.T) {
	t.Parallel()
	ai := &mockAI{
		healthy: true,
		resp: "Sure, here is the message:\n\nHi Sarah,\n\nYour PyTorch experience at Google is exactly " +
			"what the Windsurf team needs for their ML Research Engineer role.\n\nBest regards,\nAlex",
	}
	g := outreach.New(ai, nil, outreach.Options{})

	msg := g.Generate(context.Background(), sarah(), mlJob())
	assert.Equal(t, domain.MethodAI, msg.Method)
	assert.True(t, strings.HasPrefix(msg.Body, "Hi Sarah,"), "leading filler removed: %q", msg.Body)
}

func TestGenerate_UnusableAIFallsBack(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		ai   *mockAI
	}{
		{"unhealthy backend", &mockAI{healthy: false}},
		{"transport error", &mockAI{healthy: true, err: errors.New("dial tcp: refused")}},
		{"too short", &mockAI{healthy: true, resp: "Hi Sarah, quick note."}},
		{"refusal", &mockAI{healthy: true, resp: "As an AI language model, I cannot write personalized recruiting messages for real individuals without consent."}},
		{"leaked placeholder", &mockAI{healthy: true, resp: "Hi Sarah,\n\nWe think you would be great for the {job_title} role given your strong background in systems.\n\nBest regards,\nAlex"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := outreach.New(tc.ai, nil, outreach.Options{})
			msg := g.Generate(context.Background(), sarah(), mlJob())
			require.Equal(t, domain.MethodTemplate, msg.Method)
			assert.True(t, strings.HasPrefix(msg.Body, "Hi Sarah,"))
		})
	}
}

func TestGenerate_MissingNameUsesNeutralGreeting(t *testing.T) {
	t.Parallel()
	g := outreach.New(nil, nil, outreach.Options{})
	c := sarah()
	c.Name = ""
	msg := g.Generate(context.Background(), c, mlJob())
	assert.True(t, strings.HasPrefix(msg.Body, "Hi there,"))
}

func TestGenerate_NoSkillOverlapStillReads(t *testing.T) {
	t.Parallel()
	g := outreach.New(nil, nil, outreach.Options{})
	c := sarah()
	c.Skills = []string{"cobol"}
	c.Headline = "Senior Engineer at Acme"
	c.Experience = []domain.Experience{{Title: "Senior Engineer", Company: "Acme", End: "present"}}
	msg := g.Generate(context.Background(), c, mlJob())
	assert.Contains(t, msg.Body, "your technical expertise")
	assert.NotContains(t, msg.Body, "{", "no unexpanded placeholders")
}
