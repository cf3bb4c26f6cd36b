package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobState represents the lifecycle position of a single link request.
type JobState string

const (
	JobStateReceived         JobState = "received"
	JobStatePlaceholderShown JobState = "placeholder_shown"
	JobStateDownloading      JobState = "downloading"
	JobStatePostprocessing   JobState = "postprocessing"
	JobStateFailed           JobState = "failed"
	JobStateOversizeRejected JobState = "oversize_rejected"
	JobStateDelivered        JobState = "delivered"
)

// Job is one URL submission and everything the bot knows about it.
type Job struct {
	ID              uuid.UUID `json:"id"`
	ChatID          int64     `json:"chat_id"`
	URL             string    `json:"url"`
	StatusMessageID int       `json:"status_message_id,omitempty"`
	State           JobState  `json:"state"`
	ArtifactPath    string    `json:"artifact_path,omitempty"`
	ArtifactSize    int64     `json:"artifact_size,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewJob creates a job in the received state.
func NewJob(chatID int64, url string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.New(),
		ChatID:    chatID,
		URL:       url,
		State:     JobStateReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateFailed, JobStateOversizeRejected, JobStateDelivered:
		return true
	default:
		return false
	}
}

// CanTransition enforces the request state machine edges.
func CanTransition(from, to JobState) bool {
	switch from {
	case JobStateReceived:
		return to == JobStatePlaceholderShown || to == JobStateFailed
	case JobStatePlaceholderShown, JobStateDownloading, JobStatePostprocessing:
		switch to {
		case JobStateDownloading, JobStatePostprocessing, JobStateFailed, JobStateOversizeRejected, JobStateDelivered:
			return true
		}
		return false
	default:
		return false
	}
}
