package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

// linkedinDriver searches the professional-profile API. It is the primary
// source: its records carry full experience and education sections.
type linkedinDriver struct{}

// NewLinkedIn builds the profile-search adapter.
func NewLinkedIn(deps Deps, opts Options) *Adapter {
	return newAdapter(linkedinDriver{}, deps, opts)
}

func (linkedinDriver) sourceID() string { return domain.SourceLinkedIn }

func (linkedinDriver) newRequest(ctx context.Context, baseURL, credential string, spec domain.JobSpec) (*http.Request, error) {
	u := fmt.Sprintf("%s/v1/people/search?q=%s", baseURL, url.QueryEscape(searchQuery(spec)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	return req, nil
}

func (linkedinDriver) parse(body []byte) ([]map[string]any, error) {
	var payload struct {
		Profiles []map[string]any `json:"profiles"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload.Profiles, nil
}

func (linkedinDriver) demo(rng *rand.Rand, spec domain.JobSpec) []map[string]any {
	return demoProfiles(rng, spec)
}
