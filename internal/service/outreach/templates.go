package outreach

import (
	"strings"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/normalizer"
	"github.com/fairyhunter13/ai-candidate-sourcer/pkg/textx"
)

// Template classes. Selection is a fixed keyword table over the candidate's
// most recent title and headline, so the same candidate always gets the same
// class.
const (
	classExecutive  = "executive"
	classResearcher = "researcher"
	classStartup    = "startup"
	classDefault    = "default"
)

var classKeywords = []struct {
	class    string
	keywords []string
}{
	{classExecutive, []string{"director", "vp", "vice president", "head of", "chief", "cto", "ceo"}},
	{classResearcher, []string{"research", "scientist", "phd", "researcher"}},
	{classStartup, []string{"founder", "startup", "entrepreneur"}},
}

func selectClass(c domain.ScoredCandidate) string {
	probe := strings.ToLower(c.Headline)
	if len(c.Experience) > 0 {
		probe += " " + strings.ToLower(c.Experience[0].Title)
	}
	for _, entry := range classKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(probe, kw) {
				return entry.class
			}
		}
	}
	return classDefault
}

// templateContext carries every variable a template may reference. All
// fields are plain strings so rendering is pure string substitution.
type templateContext struct {
	FirstName       string
	RecentCompany   string
	RecentTitle     string
	TopSkillOverlap string
	JobTitle        string
	JobCompany      string
	JobHighlights   string
	SignOff         string
}

func buildContext(c domain.ScoredCandidate, spec domain.JobSpec, signOff string) templateContext {
	title, company := recentRole(c)
	return templateContext{
		FirstName:       textx.FirstName(c.Name, "there"),
		RecentCompany:   company,
		RecentTitle:     title,
		TopSkillOverlap: skillOverlap(c, spec),
		JobTitle:        jobTitle(spec),
		JobCompany:      jobCompany(spec),
		JobHighlights:   highlights(spec),
		SignOff:         signOff,
	}
}

func recentRole(c domain.ScoredCandidate) (title, company string) {
	for _, e := range c.Experience {
		if e.Current() {
			return fallbackStr(e.Title, "Professional"), fallbackStr(e.Company, "your current organization")
		}
	}
	if len(c.Experience) > 0 {
		e := c.Experience[0]
		return fallbackStr(e.Title, "Professional"), fallbackStr(e.Company, "your current organization")
	}
	t, co := normalizer.ParseHeadline(c.Headline)
	return fallbackStr(t, "Professional"), fallbackStr(co, "your current organization")
}

// skillOverlap names up to three of the candidate's skills that the job asks
// for, preserving the candidate's own casing.
func skillOverlap(c domain.ScoredCandidate, spec domain.JobSpec) string {
	wanted := make(map[string]struct{}, len(spec.RequiredSkills)+len(spec.PreferredSkills))
	for _, s := range spec.RequiredSkills {
		wanted[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range spec.PreferredSkills {
		wanted[strings.ToLower(s)] = struct{}{}
	}
	var overlap []string
	for _, s := range c.Skills {
		if _, ok := wanted[strings.ToLower(s)]; ok {
			overlap = append(overlap, s)
			if len(overlap) == 3 {
				break
			}
		}
	}
	if len(overlap) == 0 {
		return "your technical expertise"
	}
	return strings.Join(overlap, ", ")
}

func jobTitle(spec domain.JobSpec) string {
	if spec.JobTitle != "" {
		return spec.JobTitle
	}
	line := strings.SplitN(strings.TrimSpace(spec.Description), "\n", 2)[0]
	return fallbackStr(textx.Truncate(line, 80), "an open role")
}

func jobCompany(spec domain.JobSpec) string {
	return fallbackStr(spec.JobCompany, "our client")
}

// highlights keeps up to three bullet lines from the job description.
func highlights(spec domain.JobSpec) string {
	var out []string
	for _, line := range strings.Split(spec.Description, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "*") {
			out = append(out, line)
			if len(out) == 3 {
				break
			}
		}
	}
	return strings.Join(out, "\n")
}

func fallbackStr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// render expands the class template. Rendering is plain substitution over a
// fixed string, so identical inputs always produce identical bytes.
func render(class string, ctx templateContext) string {
	var body string
	switch class {
	case classExecutive:
		body = executiveTemplate
	case classResearcher:
		body = researcherTemplate
	case classStartup:
		body = startupTemplate
	default:
		body = defaultTemplate
	}
	r := strings.NewReplacer(
		"{first_name}", ctx.FirstName,
		"{recent_company}", ctx.RecentCompany,
		"{recent_title}", ctx.RecentTitle,
		"{top_skill_overlap}", ctx.TopSkillOverlap,
		"{job_title}", ctx.JobTitle,
		"{job_company}", ctx.JobCompany,
		"{job_highlights}", ctx.JobHighlights,
		"{sign_off}", ctx.SignOff,
	)
	return cleanBody(r.Replace(body))
}

const defaultTemplate = `Hi {first_name},

I hope this message finds you well. I came across your profile and was impressed by your experience as {recent_title} at {recent_company}.

We're currently hiring for a {job_title} role at {job_company}. Given your background with {top_skill_overlap}, I thought this might be of interest.

{job_highlights}

Would you be open to a brief conversation about this opportunity?

Best regards,
{sign_off}`

const executiveTemplate = `Hi {first_name},

Your leadership experience as {recent_title} caught my attention, particularly your work at {recent_company}.

I'm reaching out about a {job_title} opportunity at {job_company}. They're seeking someone with your caliber of experience.

{job_highlights}

Given your background at {recent_company}, I believe this could be an excellent strategic career move.

Would you be interested in learning more?

Best,
{sign_off}`

const researcherTemplate = `Hi {first_name},

I came across your research background and was particularly impressed by your work as {recent_title} at {recent_company}.

I wanted to share a {job_title} opportunity at {job_company} that might align with your research interests.

{job_highlights}

Your expertise in {top_skill_overlap} would be invaluable for this position.

Would you be open to a discussion about this opportunity?

Best regards,
{sign_off}`

const startupTemplate = `Hi {first_name},

I noticed your entrepreneurial background and thought you might be interested in an opportunity at {job_company}.

They're looking for a talented {job_title} to join their growing team.

{job_highlights}

Your experience with {top_skill_overlap} would be perfect for this fast-paced environment.

Interested in learning more?

Cheers,
{sign_off}`
