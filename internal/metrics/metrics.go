package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_downloader_jobs_received_total",
		Help: "Total number of links accepted for download",
	})

	JobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tg_downloader_jobs_finished_total",
		Help: "Total number of jobs by terminal state",
	}, []string{"state"})

	DownloadsQueued = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tg_downloader_downloads_queued",
		Help: "Number of submissions waiting for a download slot",
	})

	DownloadsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tg_downloader_downloads_active",
		Help: "Number of extractions currently holding a slot",
	})

	DownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_downloader_downloads_total",
		Help: "Total number of extraction attempts",
	})

	DownloadsSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_downloader_downloads_success_total",
		Help: "Total number of successful extractions",
	})

	DownloadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_downloader_downloads_failed_total",
		Help: "Total number of failed extractions",
	})

	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tg_downloader_download_duration_seconds",
		Help:    "Extraction duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})

	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_downloader_upload_bytes_total",
		Help: "Total bytes uploaded to Telegram",
	})

	StatusEditsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tg_downloader_status_edits_failed_total",
		Help: "Best-effort status updates rejected by the channel",
	})
)
