package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/veranemoloko/tg-downloader/internal/config"
	"github.com/veranemoloko/tg-downloader/internal/domain"
	errpkg "github.com/veranemoloko/tg-downloader/internal/errors"
	"github.com/veranemoloko/tg-downloader/internal/extractor"
	"github.com/veranemoloko/tg-downloader/internal/metrics"
)

// progressBuffer is how many events may queue between the engine goroutine
// and the caller before the engine blocks.
const progressBuffer = 64

// ProgressFunc is invoked on the submitting goroutine for every progress event.
type ProgressFunc func(domain.ProgressInfo)

// DownloadService bounds the number of concurrent extractions and relays
// engine progress back to the submitting goroutine.
type DownloadService struct {
	extractor extractor.Extractor
	slots     *semaphore.Weighted
	logger    *slog.Logger
}

type extractResult struct {
	path string
	err  error
}

// NewDownloadService creates a DownloadService with MaxConcurrentDownloads slots.
func NewDownloadService(ex extractor.Extractor, cfg *config.Config, logger *slog.Logger) *DownloadService {
	logger.Info("download service started", "slots", cfg.MaxConcurrentDownloads)
	return &DownloadService{
		extractor: ex,
		slots:     semaphore.NewWeighted(int64(cfg.MaxConcurrentDownloads)),
		logger:    logger,
	}
}

// Submit waits for a free slot, runs the extraction on its own goroutine and
// returns the artifact path. onProgress is called on the caller's goroutine in
// engine order. The slot is released before Submit returns, whatever the outcome.
func (s *DownloadService) Submit(ctx context.Context, url string, onProgress ProgressFunc) (string, error) {
	metrics.DownloadsQueued.Inc()
	err := s.slots.Acquire(ctx, 1)
	metrics.DownloadsQueued.Dec()
	if err != nil {
		return "", fmt.Errorf("acquire download slot: %w", err)
	}
	defer s.slots.Release(1)

	metrics.DownloadsActive.Inc()
	defer metrics.DownloadsActive.Dec()
	metrics.DownloadsTotal.Inc()

	relay := newProgressRelay()
	done := make(chan extractResult, 1)
	startTime := time.Now()

	go s.run(ctx, url, relay, done)

	for p := range relay.events() {
		if onProgress != nil {
			onProgress(p)
		}
	}
	res := <-done

	duration := time.Since(startTime)
	if res.err != nil {
		metrics.DownloadsFailed.Inc()

		// Reported by the caller, which has the job context.
		var extErr *errpkg.ExtractionError
		if !errors.As(res.err, &extErr) {
			res.err = &errpkg.ExtractionError{URL: url, Err: res.err}
		}
		return "", res.err
	}

	metrics.DownloadsSuccess.Inc()
	metrics.DownloadDuration.Observe(duration.Seconds())
	s.logger.Info("download completed", "url", url, "path", res.path, "duration", duration)

	return res.path, nil
}

func (s *DownloadService) run(ctx context.Context, url string, relay *progressRelay, done chan<- extractResult) {
	defer relay.close()
	defer func() {
		if r := recover(); r != nil {
			done <- extractResult{err: fmt.Errorf("extractor panic: %v", r)}
		}
	}()

	path, err := s.extractor.Extract(ctx, url, relay.send)
	done <- extractResult{path: path, err: err}
}

// progressRelay hands events from the engine goroutine to the submitter.
// Events sent after close are dropped.
type progressRelay struct {
	mu     sync.Mutex
	closed bool
	ch     chan domain.ProgressInfo
}

func newProgressRelay() *progressRelay {
	return &progressRelay{ch: make(chan domain.ProgressInfo, progressBuffer)}
}

func (r *progressRelay) send(p domain.ProgressInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.ch <- p
}

func (r *progressRelay) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.ch)
}

func (r *progressRelay) events() <-chan domain.ProgressInfo {
	return r.ch
}
