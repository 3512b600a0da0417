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

// twitterDriver searches microblog accounts for follower reach and bios.
type twitterDriver struct{}

// NewTwitter builds the microblog adapter.
func NewTwitter(deps Deps, opts Options) *Adapter {
	return newAdapter(twitterDriver{}, deps, opts)
}

func (twitterDriver) sourceID() string { return domain.SourceTwitter }

func (twitterDriver) newRequest(ctx context.Context, baseURL, credential string, spec domain.JobSpec) (*http.Request, error) {
	u := fmt.Sprintf("%s/users/search?query=%s", baseURL, url.QueryEscape(searchQuery(spec)))
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

func (twitterDriver) parse(body []byte) ([]map[string]any, error) {
	var payload struct {
		Data []struct {
			Name          string `json:"name"`
			Username      string `json:"username"`
			Location      string `json:"location"`
			Description   string `json:"description"`
			PublicMetrics struct {
				Followers int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(payload.Data))
	for _, d := range payload.Data {
		out = append(out, map[string]any{
			"name":        d.Name,
			"handle":      d.Username,
			"profile_url": "https://twitter.com/" + d.Username,
			"location":    d.Location,
			"bio":         d.Description,
			"followers":   d.PublicMetrics.Followers,
		})
	}
	return out, nil
}

func (twitterDriver) demo(rng *rand.Rand, spec domain.JobSpec) []map[string]any {
	return demoTwitterAccounts(rng, spec)
}
