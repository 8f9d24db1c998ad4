package models

/*
Job status constants for use throughout the codebase.
Centralizing these avoids magic strings and improves maintainability.
*/

// JobStatus is the lifecycle state of a queued analysis job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusPriority  JobStatus = "priority"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Rank orders statuses for queue display: prioritized work first, then what
// is running, then the backlog, failures, and finally completed jobs.
func (s JobStatus) Rank() int {
	switch s {
	case JobStatusPriority:
		return 1
	case JobStatusRunning:
		return 2
	case JobStatusPending:
		return 3
	case JobStatusFailed:
		return 4
	case JobStatusCompleted:
		return 5
	default:
		return 6
	}
}

// Valid reports whether s is one of the known statuses. Snapshots loaded
// from disk may carry values written by a newer build.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusPriority, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}
