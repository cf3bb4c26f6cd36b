// Package extractor wraps the external media extraction engine behind a
// uniform interface and normalizes its progress events.
package extractor

import (
	"context"

	"github.com/veranemoloko/tg-downloader/internal/domain"
)

// ProgressSink receives normalized progress snapshots. It may be called zero
// or more times before Extract returns, from a goroutine owned by the engine.
type ProgressSink func(domain.ProgressInfo)

// Extractor downloads the media behind a URL and returns the absolute path of
// the final artifact after post-processing.
type Extractor interface {
	Extract(ctx context.Context, url string, sink ProgressSink) (string, error)
}
