package model

import "time"

// ProcessingStatus is the lifecycle state of an audio project.
// Projects are owned by the audio subsystem; accounts only reads them.
type ProcessingStatus string

// Processing statuses.
const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Project is a read-only view of an audio project.
type Project struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	Title            string           `json:"title"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	CreatedAt        time.Time        `json:"created_at"`
}

// IsCompleted returns true if processing finished successfully.
func (p *Project) IsCompleted() bool {
	return p.ProcessingStatus == StatusCompleted
}

// ProjectStats aggregates a user's projects for the profile and dashboard pages.
type ProjectStats struct {
	Total     int64
	Completed int64
	Recent    []*Project
}
