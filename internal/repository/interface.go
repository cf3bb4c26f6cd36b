package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/veranemoloko/tg-downloader/internal/domain"
)

// JobRepo defines the interface for job registry operations.
// Implementations store and return copies, so callers may keep mutating
// their own *domain.Job.
type JobRepo interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	UpdateJob(ctx context.Context, job *domain.Job) error
	ListJobs(ctx context.Context) ([]*domain.Job, error)
	GetJobsByState(ctx context.Context, states ...domain.JobState) ([]*domain.Job, error)
}
