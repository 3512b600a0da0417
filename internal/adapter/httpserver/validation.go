package httpserver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

const defaultMaxCandidates = 10

// sourceRequest is the JSON body for job submission. Struct tags handle the
// shape checks; domain.JobSpec.Validate covers cross-field invariants such as
// rubric weights summing to one.
type sourceRequest struct {
	ID                  string             `json:"id" validate:"omitempty,max=100"`
	Description         string             `json:"description" validate:"required,min=3,max=20000"`
	RequiredSkills      []string           `json:"required_skills" validate:"max=100,dive,min=1,max=80"`
	PreferredSkills     []string           `json:"preferred_skills" validate:"max=100,dive,min=1,max=80"`
	LocationPreferences []string           `json:"location_preferences" validate:"max=20,dive,min=1,max=120"`
	SeniorityHint       string             `json:"seniority_hint" validate:"omitempty,max=40"`
	RubricWeights       map[string]float64 `json:"rubric_weights" validate:"max=6"`
	MaxCandidates       int                `json:"max_candidates" validate:"omitempty,gte=1,lte=100"`
	IncludeOutreach     bool               `json:"include_outreach"`
	JobTitle            string             `json:"job_title" validate:"omitempty,max=200"`
	JobCompany          string             `json:"job_company" validate:"omitempty,max=200"`
}

type batchRequest struct {
	Jobs []sourceRequest `json:"jobs" validate:"required,min=1,max=50,dive"`
}

func (r sourceRequest) toSpec() domain.JobSpec {
	spec := domain.JobSpec{
		ID:                  strings.TrimSpace(r.ID),
		Description:         strings.TrimSpace(r.Description),
		RequiredSkills:      r.RequiredSkills,
		PreferredSkills:     r.PreferredSkills,
		LocationPreferences: r.LocationPreferences,
		SeniorityHint:       r.SeniorityHint,
		RubricWeights:       r.RubricWeights,
		MaxCandidates:       r.MaxCandidates,
		IncludeOutreach:     r.IncludeOutreach,
		JobTitle:            strings.TrimSpace(r.JobTitle),
		JobCompany:          strings.TrimSpace(r.JobCompany),
	}
	if spec.MaxCandidates == 0 {
		spec.MaxCandidates = defaultMaxCandidates
	}
	return spec
}

// validationDetails flattens validator errors into field/code pairs for the
// error envelope.
func validationDetails(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{
			"field": strings.ToLower(fe.Field()),
			"code":  strings.ToUpper(fe.Tag()),
			"error": fmt.Sprintf("failed on %s", fe.Tag()),
		})
	}
	return out
}
