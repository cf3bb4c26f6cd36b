package domain

import "time"

// ProgressStatus is the phase reported by the extraction engine.
type ProgressStatus string

const (
	ProgressDownloading    ProgressStatus = "downloading"
	ProgressPostprocessing ProgressStatus = "postprocessing"
	ProgressFinished       ProgressStatus = "finished"
)

// ProgressInfo is a snapshot of a single extraction job.
// Zero values mean the engine did not report the field.
type ProgressInfo struct {
	Status          ProgressStatus
	DownloadedBytes int64
	TotalBytes      int64
	Speed           float64 // bytes per second
	ETA             time.Duration
	Filename        string
}
