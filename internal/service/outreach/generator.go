// Package outreach produces the personalized first-contact message for a
// ranked candidate. An AI backend writes the message when it is configured
// and healthy; otherwise a deterministic template does, and the template
// output is byte-identical across runs for the same inputs.
package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

// Unusable AI responses fall back to the template. The phrase list catches
// refusals and leaked scaffolding; the length floor catches truncations.
var bannedPhrases = []string{
	"as an ai", "language model", "i cannot", "i can't assist",
	"[insert", "{first_name}", "{job_title}", "lorem ipsum",
}

const minBodyChars = 80

// Options tune generation behavior.
type Options struct {
	Timeout      time.Duration // wall clock for one AI call
	MaxChars     int           // upper bound on the final body
	PromptBudget int           // token budget for the prompt
	SignOff      string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxChars <= 0 {
		o.MaxChars = 1200
	}
	if o.PromptBudget <= 0 {
		o.PromptBudget = 3000
	}
	if o.SignOff == "" {
		o.SignOff = "[Your Name]"
	}
	return o
}

// Generator renders outreach messages. A nil AI client means template-only
// operation.
type Generator struct {
	ai      domain.AIClient
	limiter domain.Limiter
	opts    Options
	now     func() time.Time
}

// New builds a Generator. limiter paces AI calls under the "ai" source.
func New(ai domain.AIClient, limiter domain.Limiter, opts Options) *Generator {
	return &Generator{ai: ai, limiter: limiter, opts: opts.withDefaults(), now: time.Now}
}

// Generate produces the message for one candidate. It never fails: any AI
// problem degrades to the template path and is recorded in the method field.
func (g *Generator) Generate(ctx context.Context, c domain.ScoredCandidate, spec domain.JobSpec) domain.OutreachMessage {
	class := selectClass(c)
	tctx := buildContext(c, spec, g.opts.SignOff)

	if body, ok := g.tryAI(ctx, c, spec, tctx); ok {
		observability.OutreachGeneratedTotal.WithLabelValues(domain.MethodAI).Inc()
		return g.message(c, body, domain.MethodAI)
	}

	body := render(class, tctx)
	observability.OutreachGeneratedTotal.WithLabelValues(domain.MethodTemplate).Inc()
	return g.message(c, body, domain.MethodTemplate)
}

func (g *Generator) message(c domain.ScoredCandidate, body, method string) domain.OutreachMessage {
	return domain.OutreachMessage{
		CandidateRef: c.IdentityKey,
		Body:         body,
		Method:       method,
		GeneratedAt:  g.now().UTC(),
		CharCount:    utf8.RuneCountInString(body),
	}
}

func (g *Generator) tryAI(ctx context.Context, c domain.ScoredCandidate, spec domain.JobSpec, tctx templateContext) (string, bool) {
	if g.ai == nil {
		return "", false
	}
	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	if !g.ai.Healthy(callCtx) {
		slog.Debug("ai backend unhealthy, using template", slog.String("candidate", c.IdentityKey))
		return "", false
	}
	if g.limiter != nil {
		if err := g.limiter.Acquire(callCtx, domain.SourceAI); err != nil {
			return "", false
		}
	}

	system, user := buildPrompt(c, spec, tctx, g.opts.PromptBudget)
	raw, err := g.ai.Generate(callCtx, system, user, g.opts.MaxChars)
	if err != nil {
		slog.Warn("ai generation failed, using template",
			slog.String("candidate", c.IdentityKey), slog.Any("error", err))
		return "", false
	}

	body := cleanAIResponse(raw, tctx)
	if !usable(body) {
		slog.Warn("ai response unusable, using template", slog.String("candidate", c.IdentityKey))
		return "", false
	}
	return body, true
}

func usable(body string) bool {
	if utf8.RuneCountInString(body) < minBodyChars {
		return false
	}
	lower := strings.ToLower(body)
	for _, p := range bannedPhrases {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

// cleanAIResponse strips chat filler and enforces the greeting and closing
// the templates guarantee.
func cleanAIResponse(raw string, tctx templateContext) string {
	body := strings.TrimSpace(raw)

	for _, prefix := range []string{
		"sure,", "sure!", "certainly,", "certainly!", "of course,",
		"here is the message:", "here's the message:", "here is a draft:", "here's a draft:",
	} {
		if strings.HasPrefix(strings.ToLower(body), prefix) {
			body = strings.TrimSpace(body[len(prefix):])
		}
	}
	body = strings.Trim(body, "\"`")
	body = cleanBody(body)

	greeting := "Hi " + tctx.FirstName + ","
	if !strings.HasPrefix(body, greeting) {
		body = greeting + "\n\n" + body
	}
	lower := strings.ToLower(body)
	if !strings.Contains(lower, "best regards") && !strings.Contains(lower, "best,") && !strings.Contains(lower, "cheers,") {
		body = body + "\n\nBest regards,\n" + tctx.SignOff
	}
	return body
}

// cleanBody trims line whitespace and collapses blank runs so a dropped
// template section does not leave a double gap.
func cleanBody(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func buildPrompt(c domain.ScoredCandidate, spec domain.JobSpec, tctx templateContext, budget int) (system, user string) {
	system = "You are a recruiting assistant. Write a short, specific, friendly outreach " +
		"message to the candidate below. Open with \"Hi " + tctx.FirstName + ",\" and close with " +
		"\"Best regards,\". Mention their current role and the skills that overlap with the job. " +
		"No subject line, no placeholders, under 200 words."

	lines := []string{
		"Candidate: " + c.Name,
		"Current role: " + tctx.RecentTitle + " at " + tctx.RecentCompany,
		"Location: " + c.Location,
		"Overlapping skills: " + tctx.TopSkillOverlap,
		fmt.Sprintf("Fit score: %.1f/10", c.FitScore),
	}
	if len(c.Insights) > 0 {
		lines = append(lines, "Insights: "+strings.Join(c.Insights, "; "))
	}
	lines = append(lines,
		"",
		"Role: "+tctx.JobTitle+" at "+tctx.JobCompany,
		"Job description:",
		spec.Description,
	)
	return system, truncateToBudget(strings.Join(lines, "\n"), budget)
}
