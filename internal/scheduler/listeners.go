package scheduler

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

// ProgressListener observes per-job progress updates.
type ProgressListener func(jobID string, percent int, message string)

// CompleteListener observes terminal job transitions. errMsg is empty on
// success.
type CompleteListener func(jobID string, success bool, errMsg string)

// StreamListener observes the per-job stream events.
type StreamListener func(ev models.StreamEvent)

// listenerHub fans events out to registered listeners. Listener panics are
// caught and logged; a broken listener must never take down the scheduler
// loop.
type listenerHub struct {
	mu       sync.RWMutex
	progress map[uuid.UUID]ProgressListener
	complete map[uuid.UUID]CompleteListener
	stream   map[uuid.UUID]StreamListener
}

func newListenerHub() *listenerHub {
	return &listenerHub{
		progress: make(map[uuid.UUID]ProgressListener),
		complete: make(map[uuid.UUID]CompleteListener),
		stream:   make(map[uuid.UUID]StreamListener),
	}
}

func (h *listenerHub) addProgress(fn ProgressListener) func() {
	id := uuid.New()
	h.mu.Lock()
	h.progress[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.progress, id)
		h.mu.Unlock()
	}
}

func (h *listenerHub) addComplete(fn CompleteListener) func() {
	id := uuid.New()
	h.mu.Lock()
	h.complete[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.complete, id)
		h.mu.Unlock()
	}
}

func (h *listenerHub) addStream(fn StreamListener) func() {
	id := uuid.New()
	h.mu.Lock()
	h.stream[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.stream, id)
		h.mu.Unlock()
	}
}

func (h *listenerHub) notifyProgress(jobID string, percent int, message string) {
	for _, fn := range h.progressSnapshot() {
		safeNotify(func() { fn(jobID, percent, message) })
	}
}

func (h *listenerHub) notifyComplete(jobID string, success bool, errMsg string) {
	for _, fn := range h.completeSnapshot() {
		safeNotify(func() { fn(jobID, success, errMsg) })
	}
}

func (h *listenerHub) notifyStream(ev models.StreamEvent) {
	for _, fn := range h.streamSnapshot() {
		safeNotify(func() { fn(ev) })
	}
}

func (h *listenerHub) progressSnapshot() []ProgressListener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ProgressListener, 0, len(h.progress))
	for _, fn := range h.progress {
		out = append(out, fn)
	}
	return out
}

func (h *listenerHub) completeSnapshot() []CompleteListener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]CompleteListener, 0, len(h.complete))
	for _, fn := range h.complete {
		out = append(out, fn)
	}
	return out
}

func (h *listenerHub) streamSnapshot() []StreamListener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]StreamListener, 0, len(h.stream))
	for _, fn := range h.stream {
		out = append(out, fn)
	}
	return out
}

func safeNotify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Listener panicked: %v", r)
		}
	}()
	fn()
}
