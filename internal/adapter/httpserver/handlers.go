package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fairyhunter13/ai-candidate-sourcer/internal/domain"
)

const maxBodyBytes = 1 << 20

// SourceCandidatesHandler runs one sourcing job synchronously. 200 on
// success including partial failures, 400 on validation, 503 when the engine
// cannot accept new work.
func (s *Server) SourceCandidatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sourceRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, fmt.Errorf("decode body: %w", domain.ErrInvalidArgument), err.Error())
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("validate body: %w", domain.ErrInvalidArgument), validationDetails(err))
			return
		}

		res, err := s.Engine.SourceCandidates(r.Context(), req.toSpec())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		LoggerFrom(r).Info("sourcing job served",
			slog.String("job_id", res.JobID),
			slog.Int("candidates_found", res.CandidatesFound),
			slog.Int("partial_failures", len(res.PartialFailures)))
		writeJSON(w, http.StatusOK, res)
	}
}

// BatchHandler runs several jobs and returns results in submission order.
// Individual job rejections yield empty results in place, not a batch error.
func (s *Server) BatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, fmt.Errorf("decode body: %w", domain.ErrInvalidArgument), err.Error())
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("validate body: %w", domain.ErrInvalidArgument), validationDetails(err))
			return
		}

		specs := make([]domain.JobSpec, 0, len(req.Jobs))
		for _, job := range req.Jobs {
			specs = append(specs, job.toSpec())
		}
		results := s.Engine.ProcessBatch(r.Context(), specs)
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	}
}

type healthResponse struct {
	Status  string            `json:"status"`
	Sources map[string]string `json:"sources"`
}

// HealthzHandler reports overall and per-source health. A source is
// "throttled" while its cooldown from an upstream 429 is active, "unavailable"
// when the AI backend fails its probe, "ok" otherwise.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources := make(map[string]string, len(s.SourceIDs)+1)
		status := "ok"
		for _, id := range s.SourceIDs {
			st := "ok"
			if s.Limiter != nil && s.Limiter.Throttled(id) {
				st = "throttled"
				status = "degraded"
			}
			sources[id] = st
		}
		if s.AI != nil {
			st := "ok"
			switch {
			case s.Limiter != nil && s.Limiter.Throttled(domain.SourceAI):
				st = "throttled"
				status = "degraded"
			case !s.AI.Healthy(r.Context()):
				st = "unavailable"
				status = "degraded"
			}
			sources[domain.SourceAI] = st
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: status, Sources: sources})
	}
}

// ReadyzHandler verifies the cache round-trips before declaring readiness.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Engine == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "engine not wired"})
			return
		}
		if s.Cache != nil {
			key := "readyz:probe"
			s.Cache.Put(r.Context(), key, []byte("ok"), 5*time.Second)
			if _, ok := s.Cache.Get(r.Context(), key); !ok {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "cache not ready"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
