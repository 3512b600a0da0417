// Package httpserver exposes the sourcing engine over HTTP: job submission,
// health, and readiness. It keeps HTTP concerns out of the usecase layer;
// handlers translate between JSON DTOs and domain types and map sentinel
// errors to status codes.
package httpserver

import (
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/config"
	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

// Sourcer is the slice of the orchestrator the handlers need.
type Sourcer interface {
	SourceCandidates(ctx domain.Context, spec domain.JobSpec) (domain.JobResult, error)
	ProcessBatch(ctx domain.Context, specs []domain.JobSpec) []domain.JobResult
}

// Server carries handler dependencies.
type Server struct {
	Cfg       config.Config
	Engine    Sourcer
	Limiter   domain.Limiter
	AI        domain.AIClient
	Cache     domain.Cache
	SourceIDs []string

	validate *validator.Validate
}

// NewServer builds a Server. sourceIDs lists the enabled adapters in the
// order they should appear in health output.
func NewServer(cfg config.Config, engine Sourcer, limiter domain.Limiter, ai domain.AIClient, cache domain.Cache, sourceIDs []string) *Server {
	return &Server{
		Cfg:       cfg,
		Engine:    engine,
		Limiter:   limiter,
		AI:        ai,
		Cache:     cache,
		SourceIDs: sourceIDs,
		validate:  validator.New(),
	}
}
