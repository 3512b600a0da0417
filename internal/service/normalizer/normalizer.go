// Package normalizer converts raw per-source records into canonical
// Candidates. It is the single boundary where record shape is fixed.
package normalizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/pkg/textx"
)

// Completeness weights for the expected field set. Sum is 1.
var completenessWeights = []struct {
	name   string
	weight float64
	has    func(domain.Candidate) bool
}{
	{"name", 0.20, func(c domain.Candidate) bool { return c.Name != "" }},
	{"headline", 0.15, func(c domain.Candidate) bool { return c.Headline != "" }},
	{"location", 0.10, func(c domain.Candidate) bool { return c.Location != "" }},
	{"profile_url", 0.15, func(c domain.Candidate) bool { return c.PrimaryProfileURL != "" }},
	{"experience", 0.20, func(c domain.Candidate) bool { return len(c.Experience) >= 1 }},
	{"education", 0.10, func(c domain.Candidate) bool { return len(c.Education) >= 1 }},
	{"skills", 0.10, func(c domain.Candidate) bool { return len(c.Skills) >= 3 }},
}

// Normalizer builds Candidates from RawRecords using a stable skill
// vocabulary.
type Normalizer struct {
	vocab []string
}

// New constructs a Normalizer. Vocabulary entries are matched lowercase
// against free text in addition to explicit skill lists.
func New(vocabulary []string) *Normalizer {
	vocab := make([]string, 0, len(vocabulary))
	for _, v := range vocabulary {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			vocab = append(vocab, v)
		}
	}
	return &Normalizer{vocab: vocab}
}

// Normalize converts one RawRecord into a Candidate. An error means the
// record is unparseable and should be dropped (counted, not fatal).
func (n *Normalizer) Normalize(rec domain.RawRecord) (domain.Candidate, error) {
	f := fieldsOf(rec)
	c := domain.Candidate{
		Name:     textx.SanitizeText(f.str("name")),
		Location: textx.SanitizeText(f.str("location")),
		Sources:  map[string]domain.Enrichment{},
	}

	switch rec.SourceID {
	case domain.SourceLinkedIn:
		n.normalizeProfile(&c, f)
	case domain.SourceGitHub:
		n.normalizeGitHub(&c, f, rec)
	case domain.SourceTwitter:
		n.normalizeTwitter(&c, f, rec)
	case domain.SourceWebsite:
		n.normalizeWebsite(&c, f, rec)
	default:
		return domain.Candidate{}, fmt.Errorf("op=normalizer.Normalize: %w: unknown source %q", domain.ErrInvalidArgument, rec.SourceID)
	}

	if c.Name == "" && c.PrimaryProfileURL == "" {
		return domain.Candidate{}, fmt.Errorf("op=normalizer.Normalize source=%s: %w: no identity fields", rec.SourceID, domain.ErrInvalidArgument)
	}

	c.IdentityKey = IdentityKey(c)
	c.Completeness = Completeness(c)
	return c, nil
}

func (n *Normalizer) normalizeProfile(c *domain.Candidate, f fields) {
	c.Headline = textx.CollapseSpaces(textx.SanitizeText(f.str("headline")))
	c.PrimaryProfileURL = CanonicalURL(f.str("profile_url"))
	c.Experience = parseExperience(f.mapSlice("experience"))
	c.Education = parseEducation(f.mapSlice("education"))
	c.Skills = n.tokenizeSkills(f.strSlice("skills"), c.Headline+" "+f.str("snippet"))
}

func (n *Normalizer) normalizeGitHub(c *domain.Candidate, f fields, rec domain.RawRecord) {
	c.PrimaryProfileURL = CanonicalURL(f.str("profile_url"))
	c.Skills = n.tokenizeSkills(f.strSlice("languages"), f.str("bio"))
	c.Sources[domain.SourceGitHub] = domain.Enrichment{
		SourceID:  domain.SourceGitHub,
		FetchedAt: rec.FetchedAt,
		GitHub: &domain.GitHubStats{
			Username:    f.str("username"),
			PublicRepos: f.num("public_repos"),
			Followers:   f.num("followers"),
			TotalStars:  f.num("total_stars"),
			TopLanguage: f.str("top_language"),
		},
	}
}

func (n *Normalizer) normalizeTwitter(c *domain.Candidate, f fields, rec domain.RawRecord) {
	c.PrimaryProfileURL = CanonicalURL(f.str("profile_url"))
	c.Sources[domain.SourceTwitter] = domain.Enrichment{
		SourceID:  domain.SourceTwitter,
		FetchedAt: rec.FetchedAt,
		Twitter: &domain.TwitterStats{
			Handle:    f.str("handle"),
			Followers: f.num("followers"),
			Bio:       textx.SanitizeText(f.str("bio")),
		},
	}
}

func (n *Normalizer) normalizeWebsite(c *domain.Candidate, f fields, rec domain.RawRecord) {
	u := CanonicalURL(f.str("url"))
	c.PrimaryProfileURL = u
	c.Sources[domain.SourceWebsite] = domain.Enrichment{
		SourceID:  domain.SourceWebsite,
		FetchedAt: rec.FetchedAt,
		Website: &domain.WebsiteMeta{
			URL:          u,
			HasBlog:      f.boolean("has_blog"),
			HasPortfolio: f.boolean("has_portfolio"),
			ContentType:  f.str("content_type"),
			Topics:       f.strSlice("topics"),
		},
	}
}

// ParseHeadline splits a headline into (title, company). The first "at"
// delimits the two; the company is the first chunk after it, with trailing
// descriptor tags (separated by bullets, pipes, or dashes) discarded. Without
// an "at" the whole headline is the title.
func ParseHeadline(headline string) (title, company string) {
	headline = textx.CollapseSpaces(headline)
	if headline == "" {
		return "", ""
	}
	lhs, rhs, found := cutFold(headline, " at ")
	title = firstChunk(lhs)
	if found {
		company = firstChunk(rhs)
	}
	return title, company
}

// cutFold is strings.Cut with an ASCII case-insensitive separator match.
func cutFold(s, sep string) (before, after string, found bool) {
	idx := strings.Index(strings.ToLower(s), sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+len(sep):], true
}

func firstChunk(s string) string {
	for _, sep := range []string{"•", "|", " - ", "–", ","} {
		if idx := strings.Index(s, sep); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// CanonicalURL lowercases scheme and host and strips query and fragment.
// Invalid or schemeless input returns "".
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// IdentityKey derives the dedup key: the canonical profile URL when present,
// else a stable hash of (lowercased name, first location token).
func IdentityKey(c domain.Candidate) string {
	if c.PrimaryProfileURL != "" {
		return c.PrimaryProfileURL
	}
	loc := ""
	if parts := strings.FieldsFunc(c.Location, func(r rune) bool { return r == ',' || r == '/' }); len(parts) > 0 {
		loc = strings.TrimSpace(parts[0])
	}
	h := sha256.Sum256([]byte(strings.ToLower(c.Name) + "|" + strings.ToLower(loc)))
	return "anon:" + hex.EncodeToString(h[:8])
}

// Completeness computes the weighted fraction of expected fields present.
func Completeness(c domain.Candidate) float64 {
	total := 0.0
	for _, w := range completenessWeights {
		if w.has(c) {
			total += w.weight
		}
	}
	return total
}

func (n *Normalizer) tokenizeSkills(explicit []string, freeText string) []string {
	seen := make(map[string]struct{})
	for _, s := range explicit {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			seen[s] = struct{}{}
		}
	}
	lowered := strings.ToLower(freeText)
	for _, v := range n.vocab {
		if strings.Contains(lowered, v) {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func parseExperience(raw []map[string]any) []domain.Experience {
	out := make([]domain.Experience, 0, len(raw))
	for _, m := range raw {
		f := fields(m)
		exp := domain.Experience{
			Title:       textx.SanitizeText(f.str("title")),
			Company:     textx.SanitizeText(f.str("company")),
			Start:       strings.TrimSpace(f.str("start")),
			End:         strings.ToLower(strings.TrimSpace(f.str("end"))),
			Description: textx.SanitizeText(f.str("description")),
		}
		if exp.Title == "" && exp.Company == "" {
			continue
		}
		out = append(out, exp)
	}
	return out
}

func parseEducation(raw []map[string]any) []domain.Education {
	out := make([]domain.Education, 0, len(raw))
	for _, m := range raw {
		f := fields(m)
		edu := domain.Education{
			Degree: textx.SanitizeText(f.str("degree")),
			School: textx.SanitizeText(f.str("school")),
			Year:   strings.TrimSpace(f.str("year")),
		}
		if edu.School == "" {
			continue
		}
		out = append(out, edu)
	}
	return out
}

// fields wraps the loosely typed payload of a RawRecord. JSON decoding turns
// numbers into float64; demo records may carry native ints. Both are handled.
type fields map[string]any

func fieldsOf(rec domain.RawRecord) fields {
	if rec.Fields == nil {
		return fields{}
	}
	return fields(rec.Fields)
}

func (f fields) str(key string) string {
	if v, ok := f[key].(string); ok {
		return v
	}
	return ""
}

func (f fields) num(key string) int {
	switch v := f[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (f fields) boolean(key string) bool {
	v, _ := f[key].(bool)
	return v
}

func (f fields) strSlice(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func (f fields) mapSlice(key string) []map[string]any {
	switch v := f[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
