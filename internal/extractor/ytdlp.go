package extractor

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/veranemoloko/tg-downloader/internal/config"
	errpkg "github.com/veranemoloko/tg-downloader/internal/errors"
)

// artifactMarker prefixes the line yt-dlp prints once the final file has
// been moved into place.
const artifactMarker = "artifact:"

// Options configures the yt-dlp invocation.
type Options struct {
	// Executable overrides the yt-dlp binary; empty resolves it from PATH or
	// the go-ytdlp cache.
	Executable        string
	DownloadDir       string
	MergeFormat       string
	Retries           int
	FragmentRetries   int
	TitleBytes        int
	ProgressFrequency time.Duration
}

// OptionsFromConfig maps process configuration onto engine options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Executable:        cfg.YTDLPPath,
		DownloadDir:       cfg.DownloadDir,
		MergeFormat:       cfg.MergeFormat,
		Retries:           cfg.ExtractRetries,
		FragmentRetries:   cfg.ExtractFragmentRetries,
		TitleBytes:        defaultTitleBytes,
		ProgressFrequency: cfg.EngineProgressInterval,
	}
}

// YTDLP runs yt-dlp through go-ytdlp. Each Extract call starts its own
// yt-dlp process and blocks until it exits.
type YTDLP struct {
	opts   Options
	logger *slog.Logger
}

// NewYTDLP creates a yt-dlp backed Extractor.
func NewYTDLP(opts Options, logger *slog.Logger) *YTDLP {
	if opts.MergeFormat == "" {
		opts.MergeFormat = "mp4"
	}
	if opts.ProgressFrequency <= 0 {
		opts.ProgressFrequency = 250 * time.Millisecond
	}
	return &YTDLP{opts: opts, logger: logger}
}

// Extract downloads url into the configured directory, forwarding every
// progress event to sink, and returns the absolute artifact path.
//
// The path is the one yt-dlp prints after post-processing. When that line is
// missing, the last reported filename is used with the format infix removed
// and its extension reconciled against the merge format.
func (y *YTDLP) Extract(ctx context.Context, url string, sink ProgressSink) (string, error) {
	var (
		mu       sync.Mutex
		reported string
		meter    speedMeter
	)

	cmd := y.command(func(update ytdlp.ProgressUpdate) {
		raw := rawFromUpdate(update)
		now := time.Now()

		mu.Lock()
		if raw.Filename != "" {
			reported = raw.Filename
		}
		mu.Unlock()

		info := normalize(raw, now)
		if rate, ok := meter.observe(raw, now); ok && raw.Status == string(ytdlp.ProgressStatusDownloading) {
			info.Speed = rate
		}
		if sink != nil {
			sink(info)
		}
	})

	y.logger.Debug("starting extraction", "url", url, "dir", y.opts.DownloadDir)

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return "", &errpkg.ExtractionError{URL: url, Err: err}
	}

	path := printedArtifact(res)
	if path == "" {
		mu.Lock()
		path = reported
		mu.Unlock()

		if path == "" {
			return "", &errpkg.ExtractionError{URL: url, Err: errpkg.ErrNoArtifact}
		}
		y.logger.Debug("final path not printed, reconciling reported filename", "url", url, "reported", path)
	}

	path, err = ResolveArtifactPath(path, y.opts.MergeFormat)
	if err != nil {
		return "", &errpkg.ExtractionError{URL: url, Err: err}
	}

	y.logger.Debug("extraction finished", "url", url, "path", path)
	return path, nil
}

func (y *YTDLP) command(progress ytdlp.ProgressCallbackFunc) *ytdlp.Command {
	cmd := ytdlp.New().
		Output(filepath.Join(y.opts.DownloadDir, OutputTemplate(y.opts.TitleBytes))).
		NoPlaylist().
		MergeOutputFormat(y.opts.MergeFormat).
		RecodeVideo(y.opts.MergeFormat).
		Retries(strconv.Itoa(y.opts.Retries)).
		FragmentRetries(strconv.Itoa(y.opts.FragmentRetries)).
		NoSimulate().
		Print("after_move:" + artifactMarker + "%(filepath)s").
		ProgressFunc(y.opts.ProgressFrequency, progress)

	if y.opts.Executable != "" {
		cmd.SetExecutable(y.opts.Executable)
	}
	return cmd
}

// printedArtifact returns the last final path yt-dlp printed on stdout.
func printedArtifact(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}

	var path string
	for _, l := range res.OutputLogs {
		if l.Pipe != "stdout" {
			continue
		}
		if v, ok := strings.CutPrefix(l.Line, artifactMarker); ok && strings.TrimSpace(v) != "" {
			path = strings.TrimSpace(v)
		}
	}
	return path
}

// rawFromUpdate prefers the prepared final name ("_filename") over the
// per-format filename of the progress event.
func rawFromUpdate(u ytdlp.ProgressUpdate) rawProgress {
	raw := rawProgress{
		Status:     string(u.Status),
		Downloaded: int64(u.DownloadedBytes),
		Total:      int64(u.TotalBytes),
		Started:    u.Started,
		ETA:        u.ETA(),
		Filename:   u.Filename,
	}

	if u.Info != nil && u.Info.AltFilename != nil && *u.Info.AltFilename != "" {
		raw.Filename = *u.Info.AltFilename
	}

	return raw
}
