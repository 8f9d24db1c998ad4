package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

// JobStore is the single source of truth for queued analysis jobs. It is an
// in-memory map guarded by a mutex; the scheduler and the admin surfaces all
// mutate jobs through it and only ever receive copies back.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*models.Job)}
}

// Add enqueues a job. Adding an id that is already present is a silent
// no-op and returns the existing id, whatever status the job is in: a
// completed job stays completed until it is cleared or retried.
func (s *JobStore) Add(job models.Job, priority bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return job.ID
	}

	job.Status = models.JobStatusPending
	if priority {
		job.Status = models.JobStatusPriority
	}
	job.ProgressPercent = 0
	job.RetryCount = 0
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	job.StartedAt = nil
	job.CompletedAt = nil
	job.ErrorMessage = ""
	job.DurationSeconds = nil

	s.jobs[job.ID] = &job
	return job.ID
}

// Get returns a copy of the job.
func (s *JobStore) Get(id string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return models.Job{}, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	return *j, nil
}

// Remove deletes a job from the queue. Running jobs cannot be removed.
func (s *JobStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	if j.Status == models.JobStatusRunning {
		return fmt.Errorf("job %s is running: %w", id, models.ErrInvalidState)
	}
	delete(s.jobs, id)
	return nil
}

// SetPriority toggles the priority flag. Only Pending, Priority and Failed
// jobs are affected; everything else is a no-op.
func (s *JobStore) SetPriority(id string, priority bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}

	switch j.Status {
	case models.JobStatusPending, models.JobStatusFailed:
		if priority {
			j.Status = models.JobStatusPriority
		}
	case models.JobStatusPriority:
		if !priority {
			j.Status = models.JobStatusPending
		}
	}
	return nil
}

// Retry resets a failed job and puts it at the front of the queue.
func (s *JobStore) Retry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	if j.Status != models.JobStatusFailed {
		return fmt.Errorf("job %s is %s, only failed jobs can be retried: %w", id, j.Status, models.ErrInvalidState)
	}

	j.Status = models.JobStatusPriority
	j.ProgressPercent = 0
	j.ErrorMessage = ""
	j.RetryCount = 0
	j.StartedAt = nil
	j.CompletedAt = nil
	j.DurationSeconds = nil
	return nil
}

// ClearCompleted removes all completed jobs and returns how many were removed.
func (s *JobStore) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, j := range s.jobs {
		if j.Status == models.JobStatusCompleted {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// ClearAll removes every job that is not currently running.
func (s *JobStore) ClearAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, j := range s.jobs {
		if j.Status != models.JobStatusRunning {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// Sorted returns copies of all jobs ordered by status rank (priority,
// running, pending, failed, completed), ties broken by createdAt ascending.
func (s *JobStore) Sorted() []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, k int) bool {
		ri, rk := out[i].Status.Rank(), out[k].Status.Rank()
		if ri != rk {
			return ri < rk
		}
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.Before(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	return out
}

// Eligible returns up to limit jobs the scheduler may start: Priority before
// Pending, createdAt ascending within each. limit <= 0 means all.
func (s *JobStore) Eligible(limit int) []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Job, 0)
	for _, j := range s.jobs {
		if j.Eligible() {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool {
		ri, rk := out[i].Status.Rank(), out[k].Status.Rank()
		if ri != rk {
			return ri < rk
		}
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.Before(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Stats derives per-status counts and the success rate.
func (s *JobStore) Stats() models.QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st models.QueueStats
	for _, j := range s.jobs {
		switch j.Status {
		case models.JobStatusPending:
			st.Pending++
		case models.JobStatusPriority:
			st.Priority++
		case models.JobStatusRunning:
			st.Running++
		case models.JobStatusCompleted:
			st.Completed++
		case models.JobStatusFailed:
			st.Failed++
		}
	}
	st.Total = len(s.jobs)
	if terminal := st.Completed + st.Failed; terminal > 0 {
		st.SuccessRate = st.Completed * 100 / terminal
	} else {
		st.SuccessRate = 100
	}
	return st
}

// MarkRunning transitions an eligible job into Running and stamps startedAt.
func (s *JobStore) MarkRunning(id string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return models.Job{}, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	if !j.Eligible() {
		return models.Job{}, fmt.Errorf("job %s is %s, not eligible to run: %w", id, j.Status, models.ErrInvalidState)
	}

	now := time.Now().UTC()
	j.Status = models.JobStatusRunning
	j.ProgressPercent = 0
	j.ErrorMessage = ""
	j.StartedAt = &now
	return *j, nil
}

// SetProgress records job progress, clamped to 0-100. Progress on a job
// that is not running is dropped.
func (s *JobStore) SetProgress(id string, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok || j.Status != models.JobStatusRunning {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	j.ProgressPercent = percent
}

// MarkCompleted finishes a running job and computes its duration.
func (s *JobStore) MarkCompleted(id string) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return models.Job{}, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	if j.Status != models.JobStatusRunning {
		return models.Job{}, fmt.Errorf("job %s is %s, not running: %w", id, j.Status, models.ErrInvalidState)
	}

	now := time.Now().UTC()
	j.Status = models.JobStatusCompleted
	j.ProgressPercent = 100
	j.CompletedAt = &now
	if j.StartedAt != nil {
		secs := int(now.Sub(*j.StartedAt).Round(time.Second).Seconds())
		j.DurationSeconds = &secs
	}
	return *j, nil
}

// MarkFailed records a failed execution. The job is re-queued as Pending
// while retryCount < maxRetries (incrementing it), otherwise it becomes
// terminally Failed with retryCount == maxRetries.
func (s *JobStore) MarkFailed(id string, errMsg string) (job models.Job, requeued bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return models.Job{}, false, fmt.Errorf("job %s: %w", id, models.ErrNotFound)
	}
	if j.Status != models.JobStatusRunning {
		return models.Job{}, false, fmt.Errorf("job %s is %s, not running: %w", id, j.Status, models.ErrInvalidState)
	}

	j.ErrorMessage = errMsg
	if j.RetryCount < j.MaxRetries {
		j.RetryCount++
		j.Status = models.JobStatusPending
		j.ProgressPercent = 0
		j.StartedAt = nil
		return *j, true, nil
	}

	now := time.Now().UTC()
	j.Status = models.JobStatusFailed
	j.CompletedAt = &now
	return *j, false, nil
}

// Snapshot returns copies of every job for persistence.
func (s *JobStore) Snapshot() []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	return out
}

// Restore replaces the store contents with a loaded snapshot.
func (s *JobStore) Restore(jobs []models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = make(map[string]*models.Job, len(jobs))
	for i := range jobs {
		j := jobs[i]
		s.jobs[j.ID] = &j
	}
}
