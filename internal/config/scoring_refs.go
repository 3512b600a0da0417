package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

// ScoringRefs holds the reference sets consumed by the fit scorer. All
// entries are matched lowercase. RubricWeights is the deployment-level
// default; a JobSpec carrying its own weights still wins.
type ScoringRefs struct {
	EliteSchools     []string            `yaml:"elite_schools"`
	StrongSchools    []string            `yaml:"strong_schools"`
	TopTierCompanies []string            `yaml:"top_tier_companies"`
	MidTierCompanies []string            `yaml:"mid_tier_companies"`
	SkillVocabulary  []string            `yaml:"skill_vocabulary"`
	MetroAreas       map[string][]string `yaml:"metro_areas"`
	RemoteIndicators []string            `yaml:"remote_indicators"`
	RubricWeights    map[string]float64  `yaml:"rubric_weights"`
}

// DefaultScoringRefs returns the built-in reference sets.
func DefaultScoringRefs() ScoringRefs {
	return ScoringRefs{
		EliteSchools: []string{
			"mit", "stanford", "harvard", "caltech", "berkeley", "cmu", "cornell",
			"princeton", "yale", "columbia", "georgia tech", "carnegie mellon",
			"massachusetts institute of technology", "uc berkeley", "eth zurich",
			"oxford", "cambridge",
		},
		StrongSchools: []string{
			"ucla", "usc", "ucsd", "university of michigan", "university of illinois",
			"purdue", "university of washington", "duke", "northwestern",
			"johns hopkins", "university of texas", "nyu", "university of pennsylvania",
			"brown", "dartmouth", "rice university", "virginia tech",
		},
		TopTierCompanies: []string{
			"google", "microsoft", "apple", "meta", "facebook", "amazon", "netflix",
			"tesla", "nvidia", "openai", "anthropic", "deepmind", "spacex", "uber",
			"airbnb", "stripe",
		},
		MidTierCompanies: []string{
			"linkedin", "salesforce", "adobe", "intel", "oracle", "ibm", "cisco",
			"vmware", "databricks", "snowflake", "palantir", "twilio", "zoom",
			"dropbox", "slack", "shopify", "square", "atlassian",
		},
		SkillVocabulary: []string{
			"python", "go", "golang", "java", "c++", "rust", "scala", "typescript",
			"javascript", "sql", "pytorch", "tensorflow", "machine learning",
			"deep learning", "nlp", "transformers", "llm", "kubernetes", "docker",
			"aws", "gcp", "azure", "terraform", "react", "distributed systems",
			"data engineering", "statistics",
		},
		MetroAreas: map[string][]string{
			"bay area": {
				"san francisco", "mountain view", "palo alto", "menlo park",
				"redwood city", "cupertino", "sunnyvale", "santa clara", "san jose",
				"oakland", "fremont", "berkeley",
			},
			"new york": {"new york", "nyc", "brooklyn", "jersey city"},
			"seattle":  {"seattle", "bellevue", "redmond", "kirkland"},
			"london":   {"london", "cambridge", "reading"},
		},
		RemoteIndicators: []string{"remote", "distributed", "worldwide", "anywhere", "global"},
		RubricWeights:    domain.DefaultRubricWeights(),
	}
}

// LoadScoringRefs reads reference sets from a YAML file, overlaying them on
// the defaults. Empty path returns the defaults unchanged.
func LoadScoringRefs(path string) (ScoringRefs, error) {
	refs := DefaultScoringRefs()
	if path == "" {
		return refs, nil
	}
	// #nosec G304 -- configuration files are operator-provided
	content, err := os.ReadFile(path)
	if err != nil {
		return ScoringRefs{}, fmt.Errorf("op=config.LoadScoringRefs: %w", err)
	}
	var overlay ScoringRefs
	if err := yaml.Unmarshal(content, &overlay); err != nil {
		return ScoringRefs{}, fmt.Errorf("op=config.LoadScoringRefs: parse %s: %w", path, err)
	}
	if len(overlay.EliteSchools) > 0 {
		refs.EliteSchools = overlay.EliteSchools
	}
	if len(overlay.StrongSchools) > 0 {
		refs.StrongSchools = overlay.StrongSchools
	}
	if len(overlay.TopTierCompanies) > 0 {
		refs.TopTierCompanies = overlay.TopTierCompanies
	}
	if len(overlay.MidTierCompanies) > 0 {
		refs.MidTierCompanies = overlay.MidTierCompanies
	}
	if len(overlay.SkillVocabulary) > 0 {
		refs.SkillVocabulary = overlay.SkillVocabulary
	}
	if len(overlay.MetroAreas) > 0 {
		refs.MetroAreas = overlay.MetroAreas
	}
	if len(overlay.RemoteIndicators) > 0 {
		refs.RemoteIndicators = overlay.RemoteIndicators
	}
	if len(overlay.RubricWeights) > 0 {
		refs.RubricWeights = overlay.RubricWeights
	}
	return refs, nil
}
