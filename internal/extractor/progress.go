package extractor

import (
	"sync"
	"time"

	"github.com/veranemoloko/tg-downloader/internal/domain"
)

// rawProgress is the engine-agnostic shape of a native progress event.
type rawProgress struct {
	Status     string
	Downloaded int64
	Total      int64
	Started    time.Time
	ETA        time.Duration
	Filename   string
}

func normalizeStatus(status string) domain.ProgressStatus {
	switch status {
	case "post_processing", "postprocessing", "post-processing":
		return domain.ProgressPostprocessing
	case "downloading":
		return domain.ProgressDownloading
	case "finished":
		return domain.ProgressFinished
	default:
		return domain.ProgressStatus(status)
	}
}

// normalize turns a raw engine event into a ProgressInfo snapshot.
// Speed here is the average since the engine started the download; the
// engine does not expose its own rate, so Extract replaces it with the rate
// measured by a speedMeter once two samples of the same file are known.
func normalize(r rawProgress, now time.Time) domain.ProgressInfo {
	info := domain.ProgressInfo{
		Status:          normalizeStatus(r.Status),
		DownloadedBytes: r.Downloaded,
		TotalBytes:      r.Total,
		Filename:        r.Filename,
	}

	if r.ETA > 0 {
		info.ETA = r.ETA.Round(time.Second)
	}

	if r.Downloaded > 0 && !r.Started.IsZero() {
		if elapsed := now.Sub(r.Started).Seconds(); elapsed > 0 {
			info.Speed = float64(r.Downloaded) / elapsed
		}
	}

	return info
}

// speedMeter derives the current transfer rate from consecutive progress
// samples of the same file.
type speedMeter struct {
	mu    sync.Mutex
	file  string
	bytes int64
	at    time.Time
}

// observe records the sample and returns the rate since the previous one.
// ok is false for the first sample of a file, or when the byte count went
// backwards (a new part or a restarted fragment).
func (m *speedMeter) observe(r rawProgress, now time.Time) (rate float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prevFile, prevBytes, prevAt := m.file, m.bytes, m.at
	m.file, m.bytes, m.at = r.Filename, r.Downloaded, now

	if prevAt.IsZero() || prevFile != r.Filename || r.Downloaded < prevBytes {
		return 0, false
	}
	elapsed := now.Sub(prevAt).Seconds()
	if elapsed <= 0 {
		return 0, false
	}
	return float64(r.Downloaded-prevBytes) / elapsed, true
}
