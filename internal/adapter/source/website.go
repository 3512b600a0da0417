package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

// websiteDriver finds personal sites through a web-search API, then pulls
// each hit to classify it. Only HTML pages count; PDFs and binaries are
// kept as plain links without blog or portfolio signals.
type websiteDriver struct{}

// NewWebsite builds the personal-website adapter.
func NewWebsite(deps Deps, opts Options) *Adapter {
	return newAdapter(websiteDriver{}, deps, opts)
}

func (websiteDriver) sourceID() string { return domain.SourceWebsite }

const maxSitesToInspect = 5

var websiteTopics = []string{
	"machine learning", "deep learning", "ai", "programming", "software",
	"distributed systems", "data engineering", "open source", "research",
}

func (websiteDriver) newRequest(ctx context.Context, baseURL, credential string, spec domain.JobSpec) (*http.Request, error) {
	u := fmt.Sprintf("%s/search?q=%s", baseURL, url.QueryEscape(searchQuery(spec)+" personal site portfolio"))
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

func (websiteDriver) parse(body []byte) ([]map[string]any, error) {
	var payload struct {
		Results []struct {
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, map[string]any{
			"name": r.Title,
			"url":  r.URL,
		})
	}
	return out, nil
}

// enrich visits each discovered site, sniffs the payload type, and records
// blog, portfolio, and topic signals. A site that cannot be fetched stays in
// the result set as a bare link.
func (websiteDriver) enrich(ctx context.Context, a *Adapter, items []map[string]any) {
	for i, item := range items {
		if i >= maxSitesToInspect {
			break
		}
		siteURL, _ := item["url"].(string)
		if siteURL == "" {
			continue
		}
		if err := a.deps.Limiter.Acquire(ctx, a.SourceID()); err != nil {
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, siteURL, nil)
		if err != nil {
			continue
		}
		resp, err := a.deps.HTTP.Do(req)
		if err != nil {
			continue
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		if readErr != nil || resp.StatusCode != http.StatusOK {
			continue
		}

		mt := mimetype.Detect(body)
		item["content_type"] = mt.String()
		if !strings.HasPrefix(mt.String(), "text/html") {
			continue
		}

		page := strings.ToLower(string(body))
		item["has_blog"] = strings.Contains(page, "blog") || strings.Contains(siteURL, "blog")
		item["has_portfolio"] = strings.Contains(page, "portfolio") || strings.Contains(page, "projects")

		var topics []string
		for _, topic := range websiteTopics {
			if strings.Contains(page, topic) {
				topics = append(topics, topic)
			}
		}
		if len(topics) > 0 {
			item["topics"] = topics
		}
	}
}

func (websiteDriver) demo(rng *rand.Rand, spec domain.JobSpec) []map[string]any {
	return demoWebsites(rng, spec)
}
