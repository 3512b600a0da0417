package ai

import (
	"context"
	"strings"
)

// Mock is a deterministic in-process AIClient for dev and demo runs. It
// echoes a minimal well-formed message so the pipeline exercises the AI path
// without a network dependency.
type Mock struct {
	// Unhealthy forces the template fallback when set.
	Unhealthy bool
}

// Generate returns a canned completion built from the prompts.
func (m *Mock) Generate(_ context.Context, _ string, userPrompt string, maxChars int) (string, error) {
	first := "there"
	for _, line := range strings.Split(userPrompt, "\n") {
		if name, ok := strings.CutPrefix(line, "Candidate: "); ok {
			if fields := strings.Fields(name); len(fields) > 0 {
				first = fields[0]
			}
			break
		}
	}
	body := "Hi " + first + ",\n\nI came across your profile and your background looks like a strong " +
		"match for a role we are filling. I would love to tell you more about the team and what they " +
		"are building.\n\nBest regards,\nThe Recruiting Team"
	if maxChars > 0 && len(body) > maxChars {
		body = body[:maxChars]
	}
	return body, nil
}

// Healthy reports the configured state.
func (m *Mock) Healthy(context.Context) bool { return !m.Unhealthy }
