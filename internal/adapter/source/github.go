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

// githubDriver searches developer accounts. Its records enrich candidates
// with open-source activity rather than standing alone.
type githubDriver struct{}

// NewGitHub builds the code-hosting adapter.
func NewGitHub(deps Deps, opts Options) *Adapter {
	return newAdapter(githubDriver{}, deps, opts)
}

func (githubDriver) sourceID() string { return domain.SourceGitHub }

func (githubDriver) newRequest(ctx context.Context, baseURL, credential string, spec domain.JobSpec) (*http.Request, error) {
	u := fmt.Sprintf("%s/search/users?q=%s&per_page=10", baseURL, url.QueryEscape(searchQuery(spec)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	return req, nil
}

func (githubDriver) parse(body []byte) ([]map[string]any, error) {
	var payload struct {
		Items []struct {
			Login       string   `json:"login"`
			Name        string   `json:"name"`
			HTMLURL     string   `json:"html_url"`
			Location    string   `json:"location"`
			Bio         string   `json:"bio"`
			PublicRepos int      `json:"public_repos"`
			Followers   int      `json:"followers"`
			TotalStars  int      `json:"total_stars"`
			TopLanguage string   `json:"top_language"`
			Languages   []string `json:"languages"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(payload.Items))
	for _, it := range payload.Items {
		name := it.Name
		if name == "" {
			name = it.Login
		}
		out = append(out, map[string]any{
			"name":         name,
			"username":     it.Login,
			"profile_url":  it.HTMLURL,
			"location":     it.Location,
			"bio":          it.Bio,
			"public_repos": it.PublicRepos,
			"followers":    it.Followers,
			"total_stars":  it.TotalStars,
			"top_language": it.TopLanguage,
			"languages":    it.Languages,
		})
	}
	return out, nil
}

func (githubDriver) demo(rng *rand.Rand, spec domain.JobSpec) []map[string]any {
	return demoGitHubAccounts(rng, spec)
}
