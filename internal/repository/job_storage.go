package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/veranemoloko/tg-downloader/internal/domain"
	errpkg "github.com/veranemoloko/tg-downloader/internal/errors"
)

// DefaultHistoryLimit is how many finished jobs are kept for inspection.
const DefaultHistoryLimit = 200

// JobStorage keeps jobs in memory and, when a state file is configured,
// mirrors them to disk after every change.
type JobStorage struct {
	mu           sync.RWMutex
	jobs         map[uuid.UUID]*domain.Job
	file         string
	historyLimit int
}

// NewJobStorage creates a JobStorage. An empty filePath keeps jobs in memory
// only; otherwise previously saved jobs are loaded from the file.
func NewJobStorage(filePath string, historyLimit int) (*JobStorage, error) {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	repo := &JobStorage{
		jobs:         make(map[uuid.UUID]*domain.Job),
		historyLimit: historyLimit,
	}
	if filePath != "" {
		repo.file = filepath.Clean(filePath)
	}

	if err := repo.restoreJobs(); err != nil {
		return nil, fmt.Errorf("failed to load state from file: %w", err)
	}

	slog.Info("job storage initialized", "file_path", repo.file, "jobs_count", len(repo.jobs))
	return repo, nil
}

func (r *JobStorage) restoreJobs() error {
	if r.file == "" {
		return nil
	}

	if isFileNotExist(r.file) {
		slog.Info("state file does not exist, starting with empty state", "file_path", r.file)
		return nil
	}

	data, err := os.ReadFile(r.file)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if len(data) == 0 {
		slog.Warn("state file is empty", "file_path", r.file)
		return nil
	}

	var jobs []*domain.Job
	if err := json.Unmarshal(data, &jobs); err != nil {
		return fmt.Errorf("failed to unmarshal state file: %w", err)
	}

	for _, job := range jobs {
		r.jobs[job.ID] = job
	}

	slog.Info("state loaded from file", "jobs_count", len(jobs), "file_path", r.file)
	return nil
}

func isFileNotExist(filePath string) bool {
	_, err := os.Stat(filePath)
	return os.IsNotExist(err)
}

// persistJobs writes the state file atomically. Callers must hold r.mu.
func (r *JobStorage) persistJobs() error {
	if r.file == "" {
		return nil
	}

	jobs := make([]*domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	sortByCreated(jobs)

	data, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal jobs: %w", err)
	}

	tempFile := r.file + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, r.file); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	slog.Debug("state saved to file", "jobs_count", len(jobs), "file_path", r.file)
	return nil
}

// pruneHistory drops the oldest finished jobs beyond the history limit.
// Callers must hold r.mu.
func (r *JobStorage) pruneHistory() {
	var finished []*domain.Job
	for _, job := range r.jobs {
		if job.State.IsTerminal() {
			finished = append(finished, job)
		}
	}
	if len(finished) <= r.historyLimit {
		return
	}

	sort.Slice(finished, func(i, j int) bool {
		return finished[i].UpdatedAt.Before(finished[j].UpdatedAt)
	})
	for _, job := range finished[:len(finished)-r.historyLimit] {
		delete(r.jobs, job.ID)
	}
}

// CreateJob adds a new job and persists the registry.
func (r *JobStorage) CreateJob(ctx context.Context, job *domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *job
	r.jobs[job.ID] = &stored

	if err := r.persistJobs(); err != nil {
		return fmt.Errorf("failed to save state after creating job: %w", err)
	}

	slog.Debug("job created", "job_id", job.ID)
	return nil
}

// GetJob retrieves a copy of the job with the given ID.
func (r *JobStorage) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	job, exists := r.jobs[id]
	r.mu.RUnlock()

	if !exists {
		return nil, errpkg.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

// UpdateJob replaces the stored job, stamps UpdatedAt, and persists the registry.
func (r *JobStorage) UpdateJob(ctx context.Context, job *domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; !exists {
		return errpkg.ErrJobNotFound
	}

	job.UpdatedAt = time.Now()
	stored := *job
	r.jobs[job.ID] = &stored
	r.pruneHistory()

	if err := r.persistJobs(); err != nil {
		return fmt.Errorf("failed to save state after updating job: %w", err)
	}

	slog.Debug("job updated", "job_id", job.ID, "state", job.State)
	return nil
}

// ListJobs returns copies of all known jobs, newest first.
func (r *JobStorage) ListJobs(ctx context.Context) ([]*domain.Job, error) {
	return r.GetJobsByState(ctx)
}

// GetJobsByState returns copies of jobs in any of the given states, newest
// first. With no states every job is returned.
func (r *JobStorage) GetJobsByState(ctx context.Context, states ...domain.JobState) ([]*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	want := make(map[domain.JobState]bool, len(states))
	for _, s := range states {
		want[s] = true
	}

	r.mu.RLock()
	filtered := make([]*domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		if len(want) == 0 || want[job.State] {
			cp := *job
			filtered = append(filtered, &cp)
		}
	}
	r.mu.RUnlock()

	sortByCreated(filtered)
	return filtered, nil
}

func sortByCreated(jobs []*domain.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
}
