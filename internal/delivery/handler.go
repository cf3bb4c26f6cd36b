// Package delivery turns one download into a user-visible outcome: a status
// message with throttled progress, the upload-size policy, the upload itself
// and removal of the artifact.
package delivery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/veranemoloko/tg-downloader/internal/config"
	"github.com/veranemoloko/tg-downloader/internal/domain"
	errpkg "github.com/veranemoloko/tg-downloader/internal/errors"
	"github.com/veranemoloko/tg-downloader/internal/metrics"
	"github.com/veranemoloko/tg-downloader/internal/repository"
	"github.com/veranemoloko/tg-downloader/internal/service"
	"github.com/veranemoloko/tg-downloader/internal/storage"
)

var errInterrupted = errors.New("interrupted by process restart")

// Downloader runs one extraction and returns the artifact path.
type Downloader interface {
	Submit(ctx context.Context, url string, onProgress service.ProgressFunc) (string, error)
}

// Handler drives a single link request from placeholder to terminal state.
type Handler struct {
	downloader Downloader
	files      *storage.FileStorage
	jobs       repository.JobRepo
	limitMB    int
	interval   time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewHandler creates a Handler using the upload limit and progress interval from cfg.
func NewHandler(dl Downloader, files *storage.FileStorage, jobs repository.JobRepo, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		downloader: dl,
		files:      files,
		jobs:       jobs,
		limitMB:    cfg.UploadLimitMB,
		interval:   cfg.ProgressInterval,
		now:        time.Now,
		logger:     logger,
	}
}

// HandleLink processes url for the chat and returns the terminal state reached.
func (h *Handler) HandleLink(ctx context.Context, chat Messenger, chatID int64, url string) domain.JobState {
	job := domain.NewJob(chatID, url)
	logger := h.logger.With("job_id", job.ID, "chat_id", chatID, "url", url)
	metrics.JobsReceived.Inc()

	if err := h.jobs.CreateJob(ctx, job); err != nil {
		logger.Error("failed to register job", "error", err)
	}

	// Terminal reporting must still reach the chat when ctx is cancelled on shutdown.
	finalCtx := context.WithoutCancel(ctx)

	statusID, err := chat.SendText(ctx, textPlaceholder)
	if err != nil {
		logger.Error("failed to send status placeholder", "error", err)
		return h.finish(finalCtx, logger, job, domain.JobStateFailed, err)
	}
	job.StatusMessageID = statusID
	h.advance(ctx, logger, job, domain.JobStatePlaceholderShown)

	throttle := NewThrottle(h.interval, h.now)
	path, err := h.downloader.Submit(ctx, url, func(p domain.ProgressInfo) {
		switch p.Status {
		case domain.ProgressDownloading:
			h.advance(ctx, logger, job, domain.JobStateDownloading)
		case domain.ProgressPostprocessing:
			h.advance(ctx, logger, job, domain.JobStatePostprocessing)
		}

		text, ok := progressText(p)
		if !ok || !throttle.Allow() {
			return
		}
		discard(logger, outcome("edit status", chat.EditText(ctx, statusID, text)))
	})
	if err != nil {
		logger.Error("download failed", "error", err)
		h.reportFailure(finalCtx, logger, chat, statusID)
		return h.finish(finalCtx, logger, job, domain.JobStateFailed, err)
	}

	job.ArtifactPath = path
	h.save(finalCtx, logger, job)
	defer h.cleanup(logger, path)

	return h.deliver(finalCtx, logger, chat, job)
}

func (h *Handler) deliver(ctx context.Context, logger *slog.Logger, chat Messenger, job *domain.Job) domain.JobState {
	size, err := h.files.GetFileSize(job.ArtifactPath)
	if err != nil {
		logger.Error("failed to stat artifact", "path", job.ArtifactPath, "error", err)
		h.reportFailure(ctx, logger, chat, job.StatusMessageID)
		return h.finish(ctx, logger, job, domain.JobStateFailed, err)
	}
	job.ArtifactSize = size

	if ExceedsLimit(size, h.limitMB) {
		logger.Warn("artifact exceeds upload limit", "size", size, "limit_mb", h.limitMB)
		if err := chat.EditText(ctx, job.StatusMessageID, oversizeText(h.limitMB, job.URL)); err != nil {
			logger.Error("failed to report oversize artifact", "error", err)
		}
		return h.finish(ctx, logger, job, domain.JobStateOversizeRejected, errpkg.ErrOversizeArtifact)
	}

	caption := captionText(job.ArtifactPath, size)
	if IsVideo(job.ArtifactPath) {
		err = chat.SendVideo(ctx, job.ArtifactPath, caption)
	} else {
		err = chat.SendDocument(ctx, job.ArtifactPath, caption)
	}
	if err != nil {
		logger.Error("upload failed", "path", job.ArtifactPath, "size", size, "error", err)
		h.reportFailure(ctx, logger, chat, job.StatusMessageID)
		return h.finish(ctx, logger, job, domain.JobStateFailed, err)
	}
	metrics.UploadBytes.Add(float64(size))

	discard(logger, outcome("delete status", chat.Delete(ctx, job.StatusMessageID)))
	return h.finish(ctx, logger, job, domain.JobStateDelivered, nil)
}

// RecoverInterrupted fails jobs that a previous process left unfinished,
// removes any artifact they recorded and updates their status message.
func (h *Handler) RecoverInterrupted(ctx context.Context, chatFor func(chatID int64) Messenger) (int, error) {
	jobs, err := h.jobs.GetJobsByState(ctx,
		domain.JobStateReceived,
		domain.JobStatePlaceholderShown,
		domain.JobStateDownloading,
		domain.JobStatePostprocessing,
	)
	if err != nil {
		return 0, err
	}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		logger := h.logger.With("job_id", job.ID, "chat_id", job.ChatID, "url", job.URL)

		h.cleanup(logger, job.ArtifactPath)
		if job.StatusMessageID != 0 && chatFor != nil {
			h.reportFailure(ctx, logger, chatFor(job.ChatID), job.StatusMessageID)
		}
		h.finish(ctx, logger, job, domain.JobStateFailed, errInterrupted)
	}

	return len(jobs), nil
}

func (h *Handler) reportFailure(ctx context.Context, logger *slog.Logger, chat Messenger, statusID int) {
	if err := chat.EditText(ctx, statusID, textFailed); err != nil {
		logger.Error("failed to report download failure", "error", err)
	}
}

// advance moves job to state if the state machine allows it. Repeated
// transitions into the current state are ignored.
func (h *Handler) advance(ctx context.Context, logger *slog.Logger, job *domain.Job, state domain.JobState) {
	if job.State == state {
		return
	}
	if !domain.CanTransition(job.State, state) {
		logger.Warn("ignoring invalid job transition", "from", job.State, "to", state)
		return
	}
	job.State = state
	h.save(ctx, logger, job)
}

func (h *Handler) finish(ctx context.Context, logger *slog.Logger, job *domain.Job, state domain.JobState, cause error) domain.JobState {
	if cause != nil {
		job.Error = cause.Error()
	}
	h.advance(ctx, logger, job, state)
	metrics.JobsFinished.WithLabelValues(string(job.State)).Inc()

	logger.Info("job finished", "state", job.State, "size", job.ArtifactSize)
	return job.State
}

func (h *Handler) save(ctx context.Context, logger *slog.Logger, job *domain.Job) {
	if err := h.jobs.UpdateJob(ctx, job); err != nil {
		logger.Warn("failed to record job state", "state", job.State, "error", err)
	}
}

func (h *Handler) cleanup(logger *slog.Logger, path string) {
	removed, err := h.files.Remove(path)
	if err != nil {
		logger.Warn("failed to remove artifact", "path", path, "error", err)
		return
	}
	if removed {
		logger.Debug("artifact removed", "path", path)
	}
}
