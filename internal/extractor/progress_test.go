package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/veranemoloko/tg-downloader/internal/domain"
)

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, domain.ProgressPostprocessing, normalizeStatus("post_processing"))
	assert.Equal(t, domain.ProgressDownloading, normalizeStatus("downloading"))
	assert.Equal(t, domain.ProgressFinished, normalizeStatus("finished"))
	assert.Equal(t, domain.ProgressStatus("starting"), normalizeStatus("starting"))
	assert.Equal(t, domain.ProgressStatus(""), normalizeStatus(""))
}

func TestNormalize_Downloading(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(4 * time.Second)

	info := normalize(rawProgress{
		Status:     "downloading",
		Downloaded: 4 * 1024 * 1024,
		Total:      10 * 1024 * 1024,
		Started:    start,
		ETA:        6*time.Second + 300*time.Millisecond,
		Filename:   "/data/clip [id].f137.mp4",
	}, now)

	assert.Equal(t, domain.ProgressDownloading, info.Status)
	assert.Equal(t, int64(4*1024*1024), info.DownloadedBytes)
	assert.Equal(t, int64(10*1024*1024), info.TotalBytes)
	assert.InDelta(t, 1024*1024, info.Speed, 0.001)
	assert.Equal(t, 6*time.Second, info.ETA)
	assert.Equal(t, "/data/clip [id].f137.mp4", info.Filename)
}

func TestNormalize_UnknownFieldsStayZero(t *testing.T) {
	info := normalize(rawProgress{Status: "post_processing"}, time.Now())

	assert.Equal(t, domain.ProgressPostprocessing, info.Status)
	assert.Zero(t, info.DownloadedBytes)
	assert.Zero(t, info.TotalBytes)
	assert.Zero(t, info.Speed)
	assert.Zero(t, info.ETA)
	assert.Empty(t, info.Filename)
}
