// Package merger unions normalized candidates that refer to the same person.
package merger

import (
	"sort"
	"strings"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/service/normalizer"
)

// Merge groups candidates by identity key and unions each group into a single
// candidate. The most complete member of a group is the base; others fill its
// gaps. Output is sorted by identity key and the operation is idempotent:
// merging the output again yields the same slice.
func Merge(in []domain.Candidate) []domain.Candidate {
	groups := make(map[string][]domain.Candidate)
	for _, c := range in {
		groups[c.IdentityKey] = append(groups[c.IdentityKey], c)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.Candidate, 0, len(keys))
	for _, k := range keys {
		out = append(out, mergeGroup(groups[k]))
	}
	return out
}

func mergeGroup(group []domain.Candidate) domain.Candidate {
	// Most complete member first; identity key order breaks ties so the base
	// choice never depends on arrival order.
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].Completeness > group[j].Completeness
	})
	base := group[0]
	base.Skills = append([]string(nil), base.Skills...)
	base.Experience = append([]domain.Experience(nil), base.Experience...)
	base.Education = append([]domain.Education(nil), base.Education...)
	merged := map[string]domain.Enrichment{}
	for src, e := range base.Sources {
		merged[src] = e
	}
	base.Sources = merged

	for _, c := range group[1:] {
		fillScalars(&base, c)
		base.Skills = unionSkills(base.Skills, c.Skills)
		base.Experience = unionExperience(base.Experience, c.Experience)
		base.Education = unionEducation(base.Education, c.Education)
		for src, e := range c.Sources {
			if prev, ok := base.Sources[src]; !ok || e.FetchedAt.After(prev.FetchedAt) {
				base.Sources[src] = e
			}
		}
	}

	base.Completeness = normalizer.Completeness(base)
	return base
}

func fillScalars(dst *domain.Candidate, src domain.Candidate) {
	if dst.Name == "" {
		dst.Name = src.Name
	}
	if dst.Headline == "" {
		dst.Headline = src.Headline
	}
	if dst.Location == "" {
		dst.Location = src.Location
	}
	if dst.PrimaryProfileURL == "" {
		dst.PrimaryProfileURL = src.PrimaryProfileURL
	}
}

func unionSkills(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		seen[s] = struct{}{}
	}
	for _, s := range b {
		seen[s] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func experienceKey(e domain.Experience) string {
	return strings.ToLower(e.Company) + "|" + strings.ToLower(e.Title) + "|" + e.Start
}

func unionExperience(a, b []domain.Experience) []domain.Experience {
	idx := make(map[string]int, len(a))
	out := append([]domain.Experience(nil), a...)
	for i, e := range out {
		idx[experienceKey(e)] = i
	}
	for _, e := range b {
		k := experienceKey(e)
		if i, ok := idx[k]; ok {
			if len(e.Description) > len(out[i].Description) {
				out[i].Description = e.Description
			}
			continue
		}
		idx[k] = len(out)
		out = append(out, e)
	}
	return out
}

func educationKey(e domain.Education) string {
	return strings.ToLower(e.School) + "|" + strings.ToLower(e.Degree) + "|" + e.Year
}

func unionEducation(a, b []domain.Education) []domain.Education {
	seen := make(map[string]struct{}, len(a))
	out := append([]domain.Education(nil), a...)
	for _, e := range out {
		seen[educationKey(e)] = struct{}{}
	}
	for _, e := range b {
		k := educationKey(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}
