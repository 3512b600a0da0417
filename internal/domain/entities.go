// Package domain holds the canonical records and ports of the sourcing engine.
package domain

import (
	"context"
	"errors"
	"math"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrSourceThrottled   = errors.New("source throttled")
	ErrEngineBusy        = errors.New("engine busy")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrInternal          = errors.New("internal error")
)

// Known source identifiers. Adapters register under one of these; the rate
// limiter and health endpoint key their state by the same values.
const (
	SourceLinkedIn = "linkedin"
	SourceGitHub   = "github"
	SourceTwitter  = "twitter"
	SourceWebsite  = "website"
	SourceAI       = "ai"
)

// Seniority hints accepted on a JobSpec.
const (
	SeniorityIntern    = "intern"
	SeniorityJunior    = "junior"
	SeniorityMid       = "mid"
	SenioritySenior    = "senior"
	SeniorityStaff     = "staff"
	SeniorityPrincipal = "principal"
	SeniorityLead      = "lead"
	SeniorityManager   = "manager"
	SeniorityDirector  = "director"
	SeniorityVP        = "vp"
	SeniorityCLevel    = "c-level"
	SeniorityUnknown   = "unknown"
)

// Rubric dimensions. Weights on a JobSpec are keyed by these.
const (
	DimEducation        = "education"
	DimCareerTrajectory = "career_trajectory"
	DimCompanyRelevance = "company_relevance"
	DimExperienceMatch  = "experience_match"
	DimLocationMatch    = "location_match"
	DimTenure           = "tenure"
)

// Dimensions lists all rubric dimensions in canonical order.
func Dimensions() []string {
	return []string{
		DimEducation, DimCareerTrajectory, DimCompanyRelevance,
		DimExperienceMatch, DimLocationMatch, DimTenure,
	}
}

// DefaultRubricWeights mirrors the standard rubric; values sum to 1.
func DefaultRubricWeights() map[string]float64 {
	return map[string]float64{
		DimEducation:        0.20,
		DimCareerTrajectory: 0.20,
		DimCompanyRelevance: 0.15,
		DimExperienceMatch:  0.25,
		DimLocationMatch:    0.10,
		DimTenure:           0.10,
	}
}

// JobSpec is the structured query describing the role and search parameters.
// Invariants: weights non-negative and summing to 1 within 1e-6;
// MaxCandidates >= 1.
type JobSpec struct {
	ID                  string             `json:"id" validate:"required"`
	Description         string             `json:"description" validate:"required"`
	RequiredSkills      []string           `json:"required_skills"`
	PreferredSkills     []string           `json:"preferred_skills"`
	LocationPreferences []string           `json:"location_preferences"`
	SeniorityHint       string             `json:"seniority_hint"`
	RubricWeights       map[string]float64 `json:"rubric_weights"`
	MaxCandidates       int                `json:"max_candidates" validate:"gte=1"`
	IncludeOutreach     bool               `json:"include_outreach"`
	JobTitle            string             `json:"job_title"`
	JobCompany          string             `json:"job_company"`
}

const weightTolerance = 1e-6

// Validate enforces the JobSpec invariants beyond struct tags.
func (s JobSpec) Validate() error {
	if s.ID == "" || s.Description == "" {
		return ErrInvalidArgument
	}
	if s.MaxCandidates < 1 {
		return ErrInvalidArgument
	}
	if len(s.RubricWeights) > 0 {
		sum := 0.0
		for dim, w := range s.RubricWeights {
			if w < 0 {
				return ErrInvalidArgument
			}
			if !knownDimension(dim) {
				return ErrInvalidArgument
			}
			sum += w
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return ErrInvalidArgument
		}
	}
	return nil
}

// Weights returns the job's rubric weights, falling back to the defaults.
func (s JobSpec) Weights() map[string]float64 {
	if len(s.RubricWeights) == 0 {
		return DefaultRubricWeights()
	}
	return s.RubricWeights
}

func knownDimension(d string) bool {
	for _, k := range Dimensions() {
		if k == d {
			return true
		}
	}
	return false
}

// RawRecord is an unnormalized, source-specific payload. Fields carries
// whatever the provider returned; the normalizer is the only consumer.
type RawRecord struct {
	ID        string         `json:"id"`
	SourceID  string         `json:"source_id"`
	FetchedAt time.Time      `json:"fetched_at"`
	Synthetic bool           `json:"synthetic,omitempty"`
	Fields    map[string]any `json:"fields"`
}

// Experience is one role in a candidate's history. End is "present" for a
// current role.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
}

// Current reports whether this role is ongoing.
func (e Experience) Current() bool { return e.End == "present" }

// Education is one degree entry.
type Education struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Year   string `json:"year"`
}

// GitHubStats is the code-hosting enrichment object.
type GitHubStats struct {
	Username    string `json:"username"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	TotalStars  int    `json:"total_stars"`
	TopLanguage string `json:"top_language,omitempty"`
}

// TwitterStats is the microblog enrichment object.
type TwitterStats struct {
	Handle    string `json:"handle"`
	Followers int    `json:"followers"`
	Bio       string `json:"bio,omitempty"`
}

// WebsiteMeta is the personal-site enrichment object.
type WebsiteMeta struct {
	URL          string   `json:"url"`
	HasBlog      bool     `json:"has_blog"`
	HasPortfolio bool     `json:"has_portfolio"`
	ContentType  string   `json:"content_type,omitempty"`
	Topics       []string `json:"topics,omitempty"`
}

// Enrichment is the tagged per-source payload attached to a Candidate.
// Exactly one of the typed fields is set, matching SourceID.
type Enrichment struct {
	SourceID  string        `json:"source_id"`
	FetchedAt time.Time     `json:"fetched_at"`
	GitHub    *GitHubStats  `json:"github,omitempty"`
	Twitter   *TwitterStats `json:"twitter,omitempty"`
	Website   *WebsiteMeta  `json:"website,omitempty"`
}

// Candidate is the normalized representation of a person aggregated across
// sources. Created by the normalizer, mutated only by the merger, frozen once
// handed to the scorer.
type Candidate struct {
	IdentityKey       string                `json:"identity_key"`
	Name              string                `json:"name"`
	Headline          string                `json:"headline"`
	Location          string                `json:"location"`
	PrimaryProfileURL string                `json:"primary_profile_url"`
	Experience        []Experience          `json:"experience"`
	Education         []Education           `json:"education"`
	Skills            []string              `json:"skills"`
	Sources           map[string]Enrichment `json:"sources"`
	Completeness      float64               `json:"completeness"`
}

// ScoredCandidate is a Candidate plus its rubric outcome.
type ScoredCandidate struct {
	Candidate
	FitScore   float64            `json:"fit_score"`
	Breakdown  map[string]float64 `json:"breakdown"`
	Confidence float64            `json:"confidence"`
	Insights   []string           `json:"insights"`
}

// Outreach generation methods.
const (
	MethodAI       = "ai"
	MethodTemplate = "template"
)

// OutreachMessage is a generated message for one candidate.
type OutreachMessage struct {
	CandidateRef string    `json:"candidate_ref"`
	Body         string    `json:"body"`
	Method       string    `json:"method"`
	GeneratedAt  time.Time `json:"generated_at"`
	CharCount    int       `json:"char_count"`
}

// PartialFailure records a non-fatal per-source error inside a JobResult.
type PartialFailure struct {
	SourceID string `json:"source_id"`
	Reason   string `json:"reason"`
}

// Failure reasons used across the engine.
const (
	ReasonTransport   = "transport"
	ReasonThrottled   = "throttled"
	ReasonTimeout     = "timeout"
	ReasonUnparseable = "unparseable"
	ReasonCancelled   = "cancelled"
)

// JobResult is the outcome of one sourcing job.
type JobResult struct {
	JobID            string            `json:"job_id"`
	CandidatesFound  int               `json:"candidates_found"`
	TopCandidates    []ScoredCandidate `json:"top_candidates"`
	Messages         []OutreachMessage `json:"messages,omitempty"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
	PartialFailures  []PartialFailure  `json:"partial_failures"`
}

// JobState tracks pipeline progress for one job.
type JobState string

const (
	StatePending     JobState = "pending"
	StateDiscovering JobState = "discovering"
	StateNormalizing JobState = "normalizing"
	StateMerging     JobState = "merging"
	StateScoring     JobState = "scoring"
	StateRanking     JobState = "ranking"
	StateGenerating  JobState = "generating"
	StateCompleted   JobState = "completed"
)

// Ports

// SourceAdapter fetches raw records for one provider. Implementations never
// return an error that should abort the job: permanent failures surface as an
// empty slice plus an entry pushed to failures.
type SourceAdapter interface {
	SourceID() string
	Fetch(ctx Context, spec JobSpec, failures chan<- PartialFailure) []RawRecord
}

// Cache is an advisory TTL key/value store. A miss is a silent event.
type Cache interface {
	Get(ctx Context, key string) ([]byte, bool)
	Put(ctx Context, key string, value []byte, ttl time.Duration)
	Invalidate(ctx Context, key string)
}

// Limiter paces outbound calls per source plus a global bucket. Acquire
// blocks until a token is available or ctx is done.
type Limiter interface {
	Acquire(ctx Context, source string) error
	ReportThrottle(source string, retryAfter time.Duration)
	Throttled(source string) bool
}

// AIClient is the outreach generation backend.
type AIClient interface {
	Generate(ctx Context, systemPrompt, userPrompt string, maxChars int) (string, error)
	Healthy(ctx Context) bool
}

// Context is an alias so domain signatures stay decoupled from call sites.
type Context = context.Context
