package source

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

// Demo mode synthesizes plausible records without touching the network. The
// generator is seeded from the source and query fingerprint, so the same job
// always yields the same records and the pipeline behaves reproducibly in
// demos and tests.

func demoRNG(sourceID, fingerprint string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sourceID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(fingerprint))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

type persona struct {
	name     string
	slug     string
	title    string
	company  string
	prevRole string
	prevCo   string
	school   string
	degree   string
	location string
	skills   []string
}

// The persona pool is shared across sources so the same people surface on
// every platform with consistent names, employers, and locations. Each
// source still emits its own platform URL, so the records stay distinct
// identities unless a source supplies a shared canonical URL.
var personas = []persona{
	{
		name: "Sarah Chen", slug: "sarahchen",
		title: "ML Research Engineer", company: "Google",
		prevRole: "Software Engineer", prevCo: "Stripe",
		school: "Stanford University", degree: "MS Computer Science",
		location: "Mountain View, CA",
		skills:   []string{"Python", "PyTorch", "Machine Learning", "Transformers"},
	},
	{
		name: "Raj Patel", slug: "rajpatel",
		title: "Senior Backend Engineer", company: "Stripe",
		prevRole: "Backend Engineer", prevCo: "Twilio",
		school: "University of Michigan", degree: "BS Computer Science",
		location: "San Francisco, CA",
		skills:   []string{"Go", "Distributed Systems", "PostgreSQL", "Kubernetes"},
	},
	{
		name: "Elena Volkov", slug: "elenavolkov",
		title: "Staff Software Engineer", company: "Databricks",
		prevRole: "Senior Engineer", prevCo: "LinkedIn",
		school: "MIT", degree: "PhD Computer Science",
		location: "Seattle, WA",
		skills:   []string{"Scala", "Spark", "Data Engineering", "Machine Learning"},
	},
	{
		name: "Marcus Johnson", slug: "marcusjohnson",
		title: "Engineering Manager", company: "Shopify",
		prevRole: "Senior Developer", prevCo: "Atlassian",
		school: "Georgia Tech", degree: "BS Computer Engineering",
		location: "Remote",
		skills:   []string{"Ruby", "React", "Team Leadership", "GraphQL"},
	},
	{
		name: "Priya Sharma", slug: "priyasharma",
		title: "AI Researcher", company: "Anthropic",
		prevRole: "Research Scientist", prevCo: "DeepMind",
		school: "UC Berkeley", degree: "PhD Machine Learning",
		location: "San Francisco, CA",
		skills:   []string{"Python", "Deep Learning", "NLP", "LLM", "Research"},
	},
	{
		name: "Diego Martinez", slug: "diegomartinez",
		title: "Platform Engineer", company: "Snowflake",
		prevRole: "DevOps Engineer", prevCo: "Cisco",
		school: "University of Texas", degree: "BS Software Engineering",
		location: "Austin, TX",
		skills:   []string{"Go", "Kubernetes", "Terraform", "AWS"},
	},
	{
		name: "Yuki Tanaka", slug: "yukitanaka",
		title: "Frontend Architect", company: "Netflix",
		prevRole: "UI Engineer", prevCo: "Adobe",
		school: "Cornell", degree: "MS Human-Computer Interaction",
		location: "Los Gatos, CA",
		skills:   []string{"TypeScript", "React", "Design Systems", "GraphQL"},
	},
	{
		name: "Amara Okafor", slug: "amaraokafor",
		title: "Data Scientist", company: "Airbnb",
		prevRole: "Analyst", prevCo: "IBM",
		school: "Carnegie Mellon", degree: "MS Statistics",
		location: "New York, NY",
		skills:   []string{"Python", "SQL", "Statistics", "Machine Learning"},
	},
}

// pickPersonas selects a stable subset sized 3 to 5 for this query.
func pickPersonas(rng *rand.Rand) []persona {
	idx := rng.Perm(len(personas))
	count := 3 + rng.Intn(3)
	out := make([]persona, 0, count)
	for _, i := range idx[:count] {
		out = append(out, personas[i])
	}
	return out
}

// demoSkills blends the persona's own skills with a slice of the job's
// required skills so demo candidates spread across the scoring range.
func demoSkills(rng *rand.Rand, p persona, spec domain.JobSpec) []string {
	out := append([]string(nil), p.skills...)
	for _, s := range spec.RequiredSkills {
		if rng.Intn(2) == 0 {
			out = append(out, s)
		}
	}
	return out
}

func demoProfiles(rng *rand.Rand, spec domain.JobSpec) []map[string]any {
	picked := pickPersonas(rng)
	out := make([]map[string]any, 0, len(picked))
	for _, p := range picked {
		startYear := 2018 + rng.Intn(4)
		out = append(out, map[string]any{
			"name":        p.name,
			"headline":    fmt.Sprintf("%s at %s", p.title, p.company),
			"location":    p.location,
			"profile_url": "https://linkedin.com/in/" + p.slug,
			"snippet":     fmt.Sprintf("%s working on %s.", p.title, strings.ToLower(strings.Join(p.skills[:2], " and "))),
			"skills":      demoSkills(rng, p, spec),
			"experience": []map[string]any{
				{
					"title":   p.title,
					"company": p.company,
					"start":   fmt.Sprintf("%d-0%d", startYear, 1+rng.Intn(9)),
					"end":     "present",
				},
				{
					"title":   p.prevRole,
					"company": p.prevCo,
					"start":   fmt.Sprintf("%d-06", startYear-3),
					"end":     fmt.Sprintf("%d-12", startYear-1),
				},
			},
			"education": []map[string]any{
				{"degree": p.degree, "school": p.school, "year": fmt.Sprintf("%d", startYear-4)},
			},
		})
	}
	return out
}

func demoGitHubAccounts(rng *rand.Rand, spec domain.JobSpec) []map[string]any {
	picked := pickPersonas(rng)
	out := make([]map[string]any, 0, len(picked))
	for _, p := range picked {
		langs := p.skills[:1]
		out = append(out, map[string]any{
			"name":         p.name,
			"username":     p.slug,
			"profile_url":  "https://github.com/" + p.slug,
			"location":     p.location,
			"bio":          fmt.Sprintf("%s. %s.", p.title, strings.Join(langs, ", ")),
			"public_repos": 5 + rng.Intn(60),
			"followers":    rng.Intn(800),
			"total_stars":  rng.Intn(2000),
			"top_language": langs[0],
			"languages":    demoSkills(rng, p, spec)[:2],
		})
	}
	return out
}

func demoTwitterAccounts(rng *rand.Rand, _ domain.JobSpec) []map[string]any {
	picked := pickPersonas(rng)
	out := make([]map[string]any, 0, len(picked))
	for _, p := range picked {
		out = append(out, map[string]any{
			"name":        p.name,
			"handle":      p.slug,
			"profile_url": "https://twitter.com/" + p.slug,
			"location":    p.location,
			"bio":         fmt.Sprintf("%s at %s. Tweets about %s.", p.title, p.company, strings.ToLower(p.skills[0])),
			"followers":   rng.Intn(20000),
		})
	}
	return out
}

func demoWebsites(rng *rand.Rand, _ domain.JobSpec) []map[string]any {
	picked := pickPersonas(rng)
	out := make([]map[string]any, 0, len(picked))
	for _, p := range picked {
		topics := make([]string, 0, 2)
		for _, s := range p.skills[:2] {
			topics = append(topics, strings.ToLower(s))
		}
		out = append(out, map[string]any{
			"name":          p.name,
			"url":           fmt.Sprintf("https://%s.dev", p.slug),
			"content_type":  "text/html; charset=utf-8",
			"has_blog":      rng.Intn(2) == 0,
			"has_portfolio": true,
			"topics":        topics,
		})
	}
	return out
}
