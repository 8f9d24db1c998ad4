package models

import (
	"time"
)

// Job is one unit of literature-analysis work: fetch a document, run it
// through a language model, persist the derived artifact. Job records are
// owned by the JobStore; everything else sees copies.
type Job struct {
	ID              string     `json:"id"`
	SourceRef       string     `json:"sourceRef"`
	Label           string     `json:"label"`
	Status          JobStatus  `json:"status"`
	ProgressPercent int        `json:"progressPercent"`
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	RetryCount      int        `json:"retryCount"`
	MaxRetries      int        `json:"maxRetries"`
	DurationSeconds *int       `json:"durationSeconds,omitempty"`
}

// Terminal reports whether the job has finished its current lifetime
// instance. Terminal jobs are not re-run unless explicitly retried or
// cleared.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Eligible reports whether the scheduler may select the job into a batch.
func (j *Job) Eligible() bool {
	return j.Status == JobStatusPending || j.Status == JobStatusPriority
}

// QueueStats is derived from the job set on demand, never stored.
type QueueStats struct {
	Pending   int `json:"pending"`
	Priority  int `json:"priority"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
	// SuccessRate is completed/(completed+failed) in percent, 100 when no
	// job has reached a terminal status yet.
	SuccessRate int `json:"successRate"`
}
