package delivery

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/veranemoloko/tg-downloader/internal/domain"
)

const (
	textPlaceholder    = "Downloading…"
	textDownloading    = "Downloading:"
	textPostprocessing = "Processing video…"
	textFailed         = "❌ Download failed. Try another link or try again later."
	textOversize       = "⚠️ The file is too large for Telegram (>%d MB). Original link: %s"
	textCaption        = "Done: %s\nSize: %s"
)

// HumanSize formats a byte count with binary units and one decimal.
func HumanSize(n int64) string {
	const step = 1024.0
	units := []string{"B", "KB", "MB", "GB", "TB"}

	size := float64(n)
	for _, unit := range units {
		if size < step {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= step
	}
	return fmt.Sprintf("%.1f PB", size)
}

// progressText renders the status message for p. It returns false for phases
// that do not update the status.
func progressText(p domain.ProgressInfo) (string, bool) {
	switch p.Status {
	case domain.ProgressDownloading:
		parts := []string{textDownloading}
		if p.TotalBytes > 0 && p.DownloadedBytes > 0 {
			parts = append(parts, fmt.Sprintf("%s / %s", HumanSize(p.DownloadedBytes), HumanSize(p.TotalBytes)))
		}
		if p.Speed > 0 {
			parts = append(parts, fmt.Sprintf("⚡ %s/s", HumanSize(int64(p.Speed))))
		}
		if p.ETA > 0 {
			parts = append(parts, fmt.Sprintf("⏳ ~%ds", int64(p.ETA/time.Second)))
		}
		return strings.Join(parts, "\n"), true
	case domain.ProgressPostprocessing:
		return textPostprocessing, true
	default:
		return "", false
	}
}

func oversizeText(limitMB int, url string) string {
	return fmt.Sprintf(textOversize, limitMB, url)
}

func captionText(path string, size int64) string {
	return fmt.Sprintf(textCaption, filepath.Base(path), HumanSize(size))
}
