// Package scheduler runs the literature-analysis backlog: it selects
// eligible jobs in priority order, executes up to a configured number of
// them in parallel, persists every state change, and fans progress and
// stream events out to listeners.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/store"
)

// Callbacks are handed to the job's work function so it can report
// progress and stream text while it runs.
type Callbacks struct {
	OnProgress func(percent int, message string)
	OnChunk    func(text string)
}

// WorkFunc executes one job. Returning nil completes the job; returning an
// error re-queues or fails it depending on its retry budget.
type WorkFunc func(ctx context.Context, job models.Job, cb Callbacks) error

type Config struct {
	// Concurrency bounds how many jobs run truly in parallel.
	Concurrency int
	// BatchSize bounds how many jobs one wake may select.
	BatchSize int
	// PollInterval is the safety-net wake while work is outstanding; the
	// ticker stops when the queue goes idle.
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	return c
}

// Scheduler is single-process and single-instance: at most one batch is in
// flight at a time, and all job state changes funnel through the JobStore.
type Scheduler struct {
	jobs    *store.JobStore
	persist *store.PersistentStore
	work    WorkFunc
	cfg     Config
	hub     *listenerHub

	mu           sync.Mutex
	inFlight     map[string]struct{}
	batchRunning bool
	started      bool

	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup
}

func New(jobs *store.JobStore, persist *store.PersistentStore, work WorkFunc, cfg Config) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		persist:  persist,
		work:     work,
		cfg:      cfg.withDefaults(),
		hub:      newListenerHub(),
		inFlight: make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
}

// Start restores the persisted queue and launches the scheduler loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started: %w", models.ErrInvalidState)
	}
	s.started = true
	s.mu.Unlock()

	loaded, err := s.persist.Load()
	if err != nil {
		return fmt.Errorf("restore queue: %w", err)
	}
	if len(loaded) > 0 {
		s.jobs.Restore(loaded)
		log.Infof("Restored %d jobs from the persisted queue", len(loaded))
	}

	s.wg.Add(1)
	go s.run()
	s.Wake()
	return nil
}

// Stop stops issuing new batches and waits for in-flight jobs to finish
// naturally. There is no mid-job abort primitive.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	close(s.quit)
	s.wg.Wait()
}

// Wake nudges the loop. Safe to call from any goroutine; a wake arriving
// while a batch runs coalesces into at most one further pass.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Enqueue adds a job to the queue and wakes the scheduler. Duplicate ids
// are a no-op returning the existing id.
func (s *Scheduler) Enqueue(job models.Job, priority bool) string {
	id := s.jobs.Add(job, priority)
	s.persistState()
	s.Wake()
	return id
}

// Remove deletes a job; removing a running job is an InvalidState error.
func (s *Scheduler) Remove(id string) error {
	if err := s.jobs.Remove(id); err != nil {
		return err
	}
	s.persistState()
	return nil
}

// Retry resets a failed job and schedules it ahead of pending work.
func (s *Scheduler) Retry(id string) error {
	if err := s.jobs.Retry(id); err != nil {
		return err
	}
	s.persistState()
	s.Wake()
	return nil
}

// SetPriority toggles a job's priority flag.
func (s *Scheduler) SetPriority(id string, priority bool) error {
	if err := s.jobs.SetPriority(id, priority); err != nil {
		return err
	}
	s.persistState()
	s.Wake()
	return nil
}

// ClearCompleted drops completed jobs from the queue.
func (s *Scheduler) ClearCompleted() int {
	n := s.jobs.ClearCompleted()
	if n > 0 {
		s.persistState()
	}
	return n
}

// ClearAll drops every job that is not running.
func (s *Scheduler) ClearAll() int {
	n := s.jobs.ClearAll()
	if n > 0 {
		s.persistState()
	}
	return n
}

// OnProgress registers a progress listener and returns its unsubscribe.
func (s *Scheduler) OnProgress(fn ProgressListener) func() { return s.hub.addProgress(fn) }

// OnComplete registers a terminal-transition listener.
func (s *Scheduler) OnComplete(fn CompleteListener) func() { return s.hub.addComplete(fn) }

// OnStream registers a stream-event listener.
func (s *Scheduler) OnStream(fn StreamListener) func() { return s.hub.addStream(fn) }

// InFlight reports how many jobs are currently executing.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	idle := false

	for {
		select {
		case <-s.quit:
			return
		case <-s.wake:
			if idle {
				ticker.Reset(s.cfg.PollInterval)
				idle = false
			}
		case <-ticker.C:
		}

		s.RunBatches(context.Background())

		// Nothing eligible and nothing executing: stop the periodic wake
		// until the next mutation.
		if len(s.jobs.Eligible(1)) == 0 && s.InFlight() == 0 {
			ticker.Stop()
			idle = true
		}
	}
}

// RunBatches drains eligible work batch by batch. It is single-flight: a
// call arriving while another is executing returns immediately.
func (s *Scheduler) RunBatches(ctx context.Context) {
	s.mu.Lock()
	if s.batchRunning {
		s.mu.Unlock()
		return
	}
	s.batchRunning = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.batchRunning = false
		s.mu.Unlock()
	}()

	for {
		batch := s.jobs.Eligible(s.cfg.BatchSize)
		if len(batch) == 0 {
			return
		}
		log.Debugf("Scheduler batch: %d jobs, concurrency %d", len(batch), s.cfg.Concurrency)

		// Run the batch in chunks of at most Concurrency jobs, awaiting
		// each chunk before starting the next.
		for start := 0; start < len(batch); start += s.cfg.Concurrency {
			end := start + s.cfg.Concurrency
			if end > len(batch) {
				end = len(batch)
			}

			var wg sync.WaitGroup
			for _, job := range batch[start:end] {
				wg.Add(1)
				go func(id string) {
					defer wg.Done()
					s.runJob(ctx, id)
				}(job.ID)
			}
			wg.Wait()
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, id string) {
	job, err := s.jobs.MarkRunning(id)
	if err != nil {
		// The job was mutated between selection and start (removed,
		// re-prioritized by hand). Skip it; the next wake re-selects.
		log.Debugf("Skipping job %s: %v", id, err)
		return
	}

	s.mu.Lock()
	s.inFlight[id] = struct{}{}
	s.mu.Unlock()
	s.persistState()

	// Cleanup must run on every exit path, or the running-set bijection and
	// the persisted snapshot both go stale.
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, id)
		s.mu.Unlock()
		s.persistState()
	}()

	streamStarted := false
	startStream := func() {
		if !streamStarted {
			streamStarted = true
			s.hub.notifyStream(models.StreamEvent{JobID: id, Kind: models.StreamEventStart})
		}
	}

	cb := Callbacks{
		OnProgress: func(percent int, message string) {
			s.jobs.SetProgress(id, percent)
			s.hub.notifyProgress(id, percent, message)
		},
		OnChunk: func(text string) {
			startStream()
			s.hub.notifyStream(models.StreamEvent{JobID: id, Kind: models.StreamEventChunk, Chunk: text})
		},
	}

	log.Infof("Job %s (%s) started", id, job.Label)
	err = s.executeWork(ctx, job, cb)

	if err == nil {
		done, markErr := s.jobs.MarkCompleted(id)
		if markErr != nil {
			log.Errorf("Job %s finished but could not be marked completed: %v", id, markErr)
			return
		}
		startStream()
		s.hub.notifyStream(models.StreamEvent{JobID: id, Kind: models.StreamEventFinish})
		s.hub.notifyComplete(id, true, "")
		if done.DurationSeconds != nil {
			log.Infof("Job %s completed in %ds", id, *done.DurationSeconds)
		} else {
			log.Infof("Job %s completed", id)
		}
		return
	}

	failed, requeued, markErr := s.jobs.MarkFailed(id, err.Error())
	if markErr != nil {
		log.Errorf("Job %s failed (%v) but could not be marked failed: %v", id, err, markErr)
		return
	}

	startStream()
	s.hub.notifyStream(models.StreamEvent{JobID: id, Kind: models.StreamEventError, Error: err.Error()})
	if requeued {
		log.Warnf("Job %s failed (attempt %d of %d), re-queued: %v", id, failed.RetryCount, failed.MaxRetries+1, err)
		return
	}
	s.hub.notifyComplete(id, false, err.Error())
	log.Errorf("Job %s failed terminally after %d retries: %v", id, failed.RetryCount, err)
}

// executeWork shields the scheduler loop from panicking work functions.
func (s *Scheduler) executeWork(ctx context.Context, job models.Job, cb Callbacks) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()
	return s.work(ctx, job, cb)
}

func (s *Scheduler) persistState() {
	if err := s.persist.Save(s.jobs.Snapshot()); err != nil {
		// Persistence failures must not crash the loop; the next state
		// change retries the snapshot.
		log.Errorf("Failed to persist queue state: %v", err)
	}
}
