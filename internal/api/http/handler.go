package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/veranemoloko/tg-downloader/internal/domain"
	errpkg "github.com/veranemoloko/tg-downloader/internal/errors"
)

// JobReader is the read side of the job registry.
type JobReader interface {
	GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	ListJobs(ctx context.Context) ([]*domain.Job, error)
	GetJobsByState(ctx context.Context, states ...domain.JobState) ([]*domain.Job, error)
}

type listJobsQuery struct {
	State string `validate:"omitempty,oneof=received placeholder_shown downloading postprocessing failed oversize_rejected delivered"`
}

// JobHandler serves read-only job views for operators.
type JobHandler struct {
	jobs      JobReader
	validator *validator.Validate
	logger    *slog.Logger
}

// NewJobHandler creates a new JobHandler over the given registry.
func NewJobHandler(jobs JobReader, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		jobs:      jobs,
		validator: validator.New(),
		logger:    logger,
	}
}

// ListJobs handles GET /jobs, optionally filtered with ?state=.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := listJobsQuery{State: r.URL.Query().Get("state")}
	if err := h.validator.Struct(q); err != nil {
		h.logger.Warn("validation failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid state filter")
		return
	}

	var (
		jobs []*domain.Job
		err  error
	)
	if q.State != "" {
		jobs, err = h.jobs.GetJobsByState(ctx, domain.JobState(q.State))
	} else {
		jobs, err = h.jobs.ListJobs(ctx)
	}
	if err != nil {
		h.logger.Error("failed to list jobs", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if jobs == nil {
		jobs = []*domain.Job{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJob handles GET /jobs/{jobID}.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job ID")
		return
	}

	job, err := h.jobs.GetJob(ctx, jobID)
	if errors.Is(err, errpkg.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get job", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
