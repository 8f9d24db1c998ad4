package scheduler_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/scheduler"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/store"
)

// memBlobStore is an in-memory BlobStore for tests.
type memBlobStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: make(map[string][]byte)}
}

func (m *memBlobStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, models.ErrNotFound)
	}
	return v, nil
}

func (m *memBlobStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memBlobStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func testJob(id string, maxRetries int) models.Job {
	return models.Job{ID: id, Label: id, SourceRef: "/docs/" + id, MaxRetries: maxRetries}
}

func TestSchedulerRetriesUntilBudgetExhausted(t *testing.T) {
	jobs := store.NewJobStore()
	persist := store.NewPersistentStore(newMemBlobStore())

	var mu sync.Mutex
	attempts := make(map[string]int)
	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error {
		mu.Lock()
		attempts[job.ID]++
		mu.Unlock()
		if job.ID == "job-2" {
			return fmt.Errorf("provider unavailable")
		}
		return nil
	}

	s := scheduler.New(jobs, persist, work, scheduler.Config{Concurrency: 1, BatchSize: 10, PollInterval: time.Hour})
	s.Enqueue(testJob("job-1", 2), false)
	s.Enqueue(testJob("job-2", 2), false)
	s.Enqueue(testJob("job-3", 2), false)

	// One drain: re-queued failures stay eligible, so the failing job burns
	// its whole retry budget before the call returns.
	s.RunBatches(context.Background())

	assert.Equal(t, 1, attempts["job-1"])
	assert.Equal(t, 3, attempts["job-2"], "2 retries means 3 attempts total")
	assert.Equal(t, 1, attempts["job-3"])

	j2, err := jobs.Get("job-2")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, j2.Status)
	assert.Equal(t, 2, j2.RetryCount)
	assert.Equal(t, "provider unavailable", j2.ErrorMessage)

	st := jobs.Stats()
	assert.Equal(t, 2, st.Completed)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 66, st.SuccessRate)
}

func TestSchedulerPriorityRunsFirst(t *testing.T) {
	jobs := store.NewJobStore()
	persist := store.NewPersistentStore(newMemBlobStore())

	var mu sync.Mutex
	var order []string
	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error {
		mu.Lock()
		order = append(order, job.ID)
		mu.Unlock()
		return nil
	}

	s := scheduler.New(jobs, persist, work, scheduler.Config{Concurrency: 1, BatchSize: 10, PollInterval: time.Hour})
	s.Enqueue(testJob("first", 0), false)
	s.Enqueue(testJob("second", 0), false)
	s.Enqueue(testJob("urgent", 0), true)

	s.RunBatches(context.Background())

	require.Len(t, order, 3)
	assert.Equal(t, "urgent", order[0], "the priority job enqueued last must run first")
	assert.Equal(t, []string{"first", "second"}, order[1:])
}

func TestSchedulerConcurrencyCap(t *testing.T) {
	jobs := store.NewJobStore()
	persist := store.NewPersistentStore(newMemBlobStore())

	var current, peak int32
	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return nil
	}

	s := scheduler.New(jobs, persist, work, scheduler.Config{Concurrency: 2, BatchSize: 10, PollInterval: time.Hour})
	for i := 0; i < 6; i++ {
		s.Enqueue(testJob(fmt.Sprintf("job-%d", i), 0), false)
	}

	s.RunBatches(context.Background())

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Equal(t, 6, jobs.Stats().Completed)
}

func TestSchedulerPanicBecomesFailure(t *testing.T) {
	jobs := store.NewJobStore()
	persist := store.NewPersistentStore(newMemBlobStore())

	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error {
		if job.ID == "bomb" {
			panic("nil dereference somewhere deep")
		}
		return nil
	}

	s := scheduler.New(jobs, persist, work, scheduler.Config{Concurrency: 1, BatchSize: 10, PollInterval: time.Hour})
	s.Enqueue(testJob("bomb", 0), false)
	s.Enqueue(testJob("fine", 0), false)

	s.RunBatches(context.Background())

	bomb, err := jobs.Get("bomb")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, bomb.Status)
	assert.Contains(t, bomb.ErrorMessage, "panicked")

	fine, err := jobs.Get("fine")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, fine.Status)
}

func TestSchedulerStreamEventOrdering(t *testing.T) {
	jobs := store.NewJobStore()
	persist := store.NewPersistentStore(newMemBlobStore())

	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error {
		cb.OnChunk("Hello")
		cb.OnChunk(" world")
		return nil
	}

	s := scheduler.New(jobs, persist, work, scheduler.Config{Concurrency: 1, BatchSize: 10, PollInterval: time.Hour})

	var mu sync.Mutex
	var events []models.StreamEvent
	unsub := s.OnStream(func(ev models.StreamEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer unsub()

	s.Enqueue(testJob("talker", 0), false)
	s.RunBatches(context.Background())

	require.Len(t, events, 4)
	assert.Equal(t, models.StreamEventStart, events[0].Kind)
	assert.Equal(t, models.StreamEventChunk, events[1].Kind)
	assert.Equal(t, "Hello", events[1].Chunk)
	assert.Equal(t, models.StreamEventChunk, events[2].Kind)
	assert.Equal(t, models.StreamEventFinish, events[3].Kind)
}

func TestSchedulerStartEmittedEvenWithoutChunks(t *testing.T) {
	jobs := store.NewJobStore()
	persist := store.NewPersistentStore(newMemBlobStore())

	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error {
		return fmt.Errorf("no output at all")
	}

	s := scheduler.New(jobs, persist, work, scheduler.Config{Concurrency: 1, BatchSize: 10, PollInterval: time.Hour})

	var mu sync.Mutex
	var kinds []models.StreamEventKind
	unsub := s.OnStream(func(ev models.StreamEvent) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	})
	defer unsub()

	s.Enqueue(testJob("silent", 0), false)
	s.RunBatches(context.Background())

	require.Len(t, kinds, 2)
	assert.Equal(t, models.StreamEventStart, kinds[0])
	assert.Equal(t, models.StreamEventError, kinds[1])
}

func TestSchedulerCompleteListener(t *testing.T) {
	jobs := store.NewJobStore()
	persist := store.NewPersistentStore(newMemBlobStore())

	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error {
		if job.ID == "bad" {
			return fmt.Errorf("boom")
		}
		return nil
	}

	s := scheduler.New(jobs, persist, work, scheduler.Config{Concurrency: 1, BatchSize: 10, PollInterval: time.Hour})

	var mu sync.Mutex
	results := make(map[string]bool)
	unsub := s.OnComplete(func(jobID string, success bool, errMsg string) {
		mu.Lock()
		results[jobID] = success
		mu.Unlock()
	})
	defer unsub()

	s.Enqueue(testJob("good", 0), false)
	// One retry: the first failure re-queues without a terminal event.
	s.Enqueue(testJob("bad", 1), false)
	s.RunBatches(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]bool{"good": true, "bad": false}, results)
}

func TestSchedulerRestoresPersistedQueueOnStart(t *testing.T) {
	blobs := newMemBlobStore()
	persist := store.NewPersistentStore(blobs)

	// A previous process persisted one mid-run job and one pending job.
	started := time.Now().UTC()
	require.NoError(t, persist.Save([]models.Job{
		{ID: "interrupted", Label: "interrupted", Status: models.JobStatusRunning, ProgressPercent: 40, StartedAt: &started},
		{ID: "waiting", Label: "waiting", Status: models.JobStatusPending},
	}))

	jobs := store.NewJobStore()
	var mu sync.Mutex
	var ran []string
	done := make(chan struct{})
	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error {
		mu.Lock()
		ran = append(ran, job.ID)
		if len(ran) == 2 {
			close(done)
		}
		mu.Unlock()
		return nil
	}

	s := scheduler.New(jobs, persist, work, scheduler.Config{Concurrency: 1, BatchSize: 10, PollInterval: time.Hour})
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("restored jobs were not executed")
	}

	mu.Lock()
	assert.ElementsMatch(t, []string{"interrupted", "waiting"}, ran)
	mu.Unlock()
}

func TestSchedulerPersistsTerminalState(t *testing.T) {
	blobs := newMemBlobStore()
	persist := store.NewPersistentStore(blobs)
	jobs := store.NewJobStore()

	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error { return nil }
	s := scheduler.New(jobs, persist, work, scheduler.Config{Concurrency: 1, BatchSize: 10, PollInterval: time.Hour})

	s.Enqueue(testJob("job", 0), false)
	s.RunBatches(context.Background())

	loaded, err := persist.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, models.JobStatusCompleted, loaded[0].Status)
	assert.Equal(t, 100, loaded[0].ProgressPercent)
}

func TestSchedulerDoubleStartRefused(t *testing.T) {
	jobs := store.NewJobStore()
	persist := store.NewPersistentStore(newMemBlobStore())
	work := func(ctx context.Context, job models.Job, cb scheduler.Callbacks) error { return nil }

	s := scheduler.New(jobs, persist, work, scheduler.Config{})
	require.NoError(t, s.Start())
	defer s.Stop()

	err := s.Start()
	assert.ErrorIs(t, err, models.ErrInvalidState)
}
