// Package scorer applies the fit rubric to merged candidates.
//
// Each dimension scores on a 0-10 scale; the fit score is the weighted sum.
// A dimension whose inputs are absent scores the neutral 5 and is excluded
// from confidence coverage, so thin profiles rank with low confidence rather
// than artificially low scores.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/config"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

const neutralScore = 5.0

// seniorityLadder maps title keywords to a rung. Higher is more senior.
// Keyword order matters: the first match wins, so the more specific
// qualifiers come before the generic ones.
var seniorityLadder = []struct {
	keyword string
	level   int
}{
	{"intern", 1},
	{"junior", 2},
	{"associate", 2},
	{"entry", 2},
	{"chief", 9},
	{"cto", 9},
	{"ceo", 9},
	{"founder", 9},
	{"vp", 8},
	{"vice president", 8},
	{"director", 7},
	{"head of", 7},
	{"principal", 6},
	{"manager", 6},
	{"lead", 6},
	{"staff", 5},
	{"senior", 4},
	{"sr", 4},
}

// SeniorityLevel maps a job title to the ladder rung, 0 when unrecognized.
// Single-word keywords match whole tokens only, so "cto" does not fire
// inside "director" or "factory". A recognized role word with no qualifier
// is mid-level.
func SeniorityLevel(title string) int {
	t := strings.ToLower(title)
	if t == "" {
		return 0
	}
	tokens := titleTokens(t)
	for _, entry := range seniorityLadder {
		if strings.Contains(entry.keyword, " ") {
			if strings.Contains(t, entry.keyword) {
				return entry.level
			}
			continue
		}
		if _, ok := tokens[entry.keyword]; ok {
			return entry.level
		}
	}
	for _, role := range []string{"engineer", "engineering", "scientist", "researcher", "developer", "analyst", "designer"} {
		if _, ok := tokens[role]; ok {
			return 3
		}
	}
	return 0
}

func titleTokens(t string) map[string]struct{} {
	fields := strings.FieldsFunc(t, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

// Scorer evaluates candidates against a job using configured reference sets.
type Scorer struct {
	refs config.ScoringRefs
}

// New builds a Scorer over the given reference sets.
func New(refs config.ScoringRefs) *Scorer {
	return &Scorer{refs: refs}
}

// Score computes the rubric outcome for one candidate. The candidate is not
// mutated.
func (s *Scorer) Score(c domain.Candidate, spec domain.JobSpec) domain.ScoredCandidate {
	breakdown := make(map[string]float64, 6)
	covered := 0

	record := func(dim string, score float64, hasInputs bool) {
		if !hasInputs {
			breakdown[dim] = neutralScore
			return
		}
		breakdown[dim] = clamp(score, 0, 10)
		covered++
	}

	edu, eduOK := s.scoreEducation(c)
	record(domain.DimEducation, edu, eduOK)

	traj, trajOK := s.scoreTrajectory(c)
	record(domain.DimCareerTrajectory, traj, trajOK)

	comp, compOK := s.scoreCompanyRelevance(c)
	record(domain.DimCompanyRelevance, comp, compOK)

	match, matchOK := scoreExperienceMatch(c, spec)
	record(domain.DimExperienceMatch, match, matchOK)

	loc, locOK := s.scoreLocation(c, spec)
	record(domain.DimLocationMatch, loc, locOK)

	ten, tenOK := scoreTenure(c)
	record(domain.DimTenure, ten, tenOK)

	weights := s.weightsFor(spec)
	total := 0.0
	for dim, score := range breakdown {
		total += score * weights[dim]
	}

	coverage := float64(covered) / float64(len(domain.Dimensions()))
	sc := domain.ScoredCandidate{
		Candidate:  c,
		FitScore:   math.Round(total*10) / 10,
		Breakdown:  breakdown,
		Confidence: math.Round(c.Completeness*coverage*100) / 100,
		Insights:   buildInsights(c, breakdown),
	}
	return sc
}

// weightsFor resolves the effective rubric weights: the job's own override
// first, then the deployment-level reference weights, then the built-ins.
func (s *Scorer) weightsFor(spec domain.JobSpec) map[string]float64 {
	if len(spec.RubricWeights) > 0 {
		return spec.RubricWeights
	}
	if len(s.refs.RubricWeights) > 0 {
		return s.refs.RubricWeights
	}
	return domain.DefaultRubricWeights()
}

// Rank sorts scored candidates into final order. Ties on fit score break by
// confidence, then completeness, then identity key, so rankings are
// reproducible run to run.
func Rank(list []domain.ScoredCandidate) {
	sort.SliceStable(list, func(i, j int) bool {
		return Less(list[i], list[j])
	})
}

// Less reports whether a ranks ahead of b.
func Less(a, b domain.ScoredCandidate) bool {
	if a.FitScore != b.FitScore {
		return a.FitScore > b.FitScore
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Completeness != b.Completeness {
		return a.Completeness > b.Completeness
	}
	return a.IdentityKey < b.IdentityKey
}

func (s *Scorer) scoreEducation(c domain.Candidate) (float64, bool) {
	if len(c.Education) == 0 {
		return 0, false
	}
	best := 0.0
	for _, edu := range c.Education {
		school := strings.ToLower(edu.School)
		degree := strings.ToLower(edu.Degree)
		base := 0.0
		switch {
		case containsAny(school, s.refs.EliteSchools):
			base = 9.0
			if isDoctorate(degree) {
				base = 10.0
			} else if isMasters(degree) {
				base = 9.5
			}
		case containsAny(school, s.refs.StrongSchools):
			base = 7.0
			if isDoctorate(degree) {
				base = 8.5
			} else if isMasters(degree) {
				base = 7.5
			}
		case strings.Contains(school, "university") || strings.Contains(school, "college") || strings.Contains(school, "institute"):
			base = 5.0
			if isDoctorate(degree) {
				base = 6.5
			} else if isMasters(degree) {
				base = 5.5
			}
		default:
			base = 4.0
		}
		best = math.Max(best, base)
	}
	return best, true
}

func isDoctorate(degree string) bool {
	return strings.Contains(degree, "phd") || strings.Contains(degree, "doctor")
}

func isMasters(degree string) bool {
	return strings.Contains(degree, "master") || strings.Contains(degree, "ms") || strings.Contains(degree, "meng")
}

func (s *Scorer) scoreTrajectory(c domain.Candidate) (float64, bool) {
	levels := chronologicalLevels(c.Experience)
	if len(levels) == 0 {
		return 0, false
	}
	if len(levels) == 1 {
		switch {
		case levels[0] >= 6:
			return 8.0, true
		case levels[0] >= 4:
			return 7.0, true
		case levels[0] >= 3:
			return 6.0, true
		default:
			return 5.0, true
		}
	}

	// Slope of the ladder per role step, normalized into the 0-10 band
	// around a flat-career baseline of 5.
	slope := float64(levels[len(levels)-1]-levels[0]) / float64(len(levels)-1)
	score := 5.0 + slope*2.5
	if levels[len(levels)-1] >= 4 {
		score = math.Max(score, 6.5)
	}
	score += breadthBonus(c.Experience)
	return score, true
}

// breadthBonus rewards cross-function moves, capped at +1.
func breadthBonus(exp []domain.Experience) float64 {
	functions := map[string]struct{}{}
	for _, e := range exp {
		t := strings.ToLower(e.Title)
		switch {
		case strings.Contains(t, "research") || strings.Contains(t, "scientist"):
			functions["research"] = struct{}{}
		case strings.Contains(t, "manager") || strings.Contains(t, "director") || strings.Contains(t, "head"):
			functions["management"] = struct{}{}
		case strings.Contains(t, "engineer") || strings.Contains(t, "developer"):
			functions["engineering"] = struct{}{}
		}
	}
	if len(functions) >= 2 {
		return 1.0
	}
	return 0
}

func chronologicalLevels(exp []domain.Experience) []int {
	type stamped struct {
		start time.Time
		level int
	}
	out := make([]stamped, 0, len(exp))
	for i, e := range exp {
		level := SeniorityLevel(e.Title)
		if level == 0 {
			continue
		}
		start, ok := parseYearMonth(e.Start)
		if !ok {
			// Unparseable starts keep their slice position, assumed
			// most-recent-first as sources list them.
			start = time.Date(3000-i, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		out = append(out, stamped{start: start, level: level})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start.Before(out[j].start) })
	levels := make([]int, len(out))
	for i, s := range out {
		levels[i] = s.level
	}
	return levels
}

func (s *Scorer) scoreCompanyRelevance(c domain.Candidate) (float64, bool) {
	if len(c.Experience) == 0 {
		return 0, false
	}
	// Most recent role first as listed; prefer the current one if tagged.
	recent := c.Experience[0]
	for _, e := range c.Experience {
		if e.Current() {
			recent = e
			break
		}
	}
	company := strings.ToLower(recent.Company)
	if company == "" {
		return 0, false
	}
	switch {
	case containsAny(company, s.refs.TopTierCompanies):
		return 9.5, true
	case containsAny(company, s.refs.MidTierCompanies):
		return 7.5, true
	}
	// Any recognizable tech affiliation in the profile keeps it above the
	// unknown baseline.
	text := strings.ToLower(c.Headline + " " + recent.Description)
	for _, term := range []string{"startup", "saas", "fintech", "software", "technology", "developer tools"} {
		if strings.Contains(text, term) {
			return 6.5, true
		}
	}
	return 5.5, true
}

func scoreExperienceMatch(c domain.Candidate, spec domain.JobSpec) (float64, bool) {
	if len(spec.RequiredSkills) == 0 {
		return neutralScore, true
	}
	if len(c.Skills) == 0 {
		return 0, false
	}
	have := make(map[string]struct{}, len(c.Skills))
	for _, s := range c.Skills {
		have[strings.ToLower(s)] = struct{}{}
	}
	matched := 0
	for _, req := range spec.RequiredSkills {
		if _, ok := have[strings.ToLower(req)]; ok {
			matched++
		}
	}
	match := float64(matched) / float64(len(spec.RequiredSkills))
	score := 2.0 + match*8.0

	if len(spec.PreferredSkills) > 0 {
		prefMatched := 0
		for _, p := range spec.PreferredSkills {
			if _, ok := have[strings.ToLower(p)]; ok {
				prefMatched++
			}
		}
		score += math.Min(float64(prefMatched)/float64(len(spec.PreferredSkills)), 1.0)
	}
	return score, true
}

func (s *Scorer) scoreLocation(c domain.Candidate, spec domain.JobSpec) (float64, bool) {
	if len(spec.LocationPreferences) == 0 || c.Location == "" {
		return 0, false
	}
	loc := strings.ToLower(c.Location)

	remoteOK := false
	for _, pref := range spec.LocationPreferences {
		p := strings.ToLower(strings.TrimSpace(pref))
		if p == "remote" {
			remoteOK = true
			continue
		}
		if strings.Contains(loc, p) {
			return 10, true
		}
	}
	for _, pref := range spec.LocationPreferences {
		p := strings.ToLower(strings.TrimSpace(pref))
		if sameMetro(s.refs.MetroAreas, p, loc) {
			return 8, true
		}
	}
	if sameCountry(spec.LocationPreferences, loc) {
		return 6, true
	}
	if remoteOK && containsAny(loc, s.refs.RemoteIndicators) {
		return 4, true
	}
	return 0, true
}

func sameMetro(metros map[string][]string, pref, loc string) bool {
	for _, members := range metros {
		prefIn, locIn := false, false
		for _, m := range members {
			m = strings.ToLower(m)
			if strings.Contains(pref, m) {
				prefIn = true
			}
			if strings.Contains(loc, m) {
				locIn = true
			}
		}
		if prefIn && locIn {
			return true
		}
	}
	return false
}

// sameCountry is a coarse check: a US state abbreviation or "usa" on both
// sides counts, as does an identical trailing country token.
func sameCountry(prefs []string, loc string) bool {
	locCountry := trailingToken(loc)
	if locCountry == "" {
		return false
	}
	for _, p := range prefs {
		if trailingToken(strings.ToLower(p)) == locCountry {
			return true
		}
	}
	return false
}

func trailingToken(s string) string {
	parts := strings.Split(s, ",")
	t := strings.TrimSpace(parts[len(parts)-1])
	if len(t) == 2 || t == "usa" || t == "united states" {
		return "us"
	}
	return t
}

func scoreTenure(c domain.Candidate) (float64, bool) {
	var years []float64
	for _, e := range c.Experience {
		if e.Current() || e.End == "" {
			continue
		}
		start, okS := parseYearMonth(e.Start)
		end, okE := parseYearMonth(e.End)
		if !okS || !okE || end.Before(start) {
			continue
		}
		years = append(years, end.Sub(start).Hours()/(24*365.25))
	}
	if len(years) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, y := range years {
		sum += y
	}
	avg := sum / float64(len(years))
	switch {
	case avg >= 2.0 && avg <= 3.0:
		return 9.5, true
	case avg > 3.0 && avg <= 4.0:
		return 9.0, true
	case avg >= 1.5 && avg < 2.0:
		return 8.0, true
	case avg > 4.0 && avg <= 6.0:
		return 8.0, true
	case avg >= 1.0 && avg < 1.5:
		return 6.0, true
	case avg > 6.0:
		return 6.5, true
	default:
		return 3.5, true
	}
}

// parseYearMonth accepts "YYYY-MM" and "YYYY".
func parseYearMonth(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, true
	}
	if y, err := strconv.Atoi(s); err == nil && y > 1900 && y < 2200 {
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

const maxInsights = 6

func buildInsights(c domain.Candidate, breakdown map[string]float64) []string {
	var insights []string
	add := func(s string) {
		if len(insights) < maxInsights {
			insights = append(insights, s)
		}
	}
	if breakdown[domain.DimEducation] >= 9 {
		add("Strong educational background from a top institution")
	}
	if breakdown[domain.DimExperienceMatch] >= 8 {
		add("Strong skill match with the role requirements")
	}
	if breakdown[domain.DimCompanyRelevance] >= 9 {
		add("Track record at top-tier technology companies")
	}
	if breakdown[domain.DimCareerTrajectory] >= 8 {
		add("Clear career advancement across roles")
	}
	if breakdown[domain.DimTenure] >= 9 {
		add("Healthy tenure pattern with sustained commitments")
	}
	if n := len(c.Sources); n >= 2 {
		add(fmt.Sprintf("Profile corroborated across %d platforms", n))
	}
	return insights
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(s, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
