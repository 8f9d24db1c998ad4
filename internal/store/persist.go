package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

// DefaultSlotKey is where the queue snapshot lives in the blob store.
const DefaultSlotKey = "queue/state"

// snapshot is the persisted layout of the single string-valued slot.
type snapshot struct {
	Tasks   []models.Job `json:"tasks"`
	SavedAt time.Time    `json:"savedAt"`
}

// PersistentStore serializes the job set into one opaque slot of the host's
// blob store. It never holds live job records; it only sees snapshots.
type PersistentStore struct {
	blobs   BlobStore
	slotKey string
}

func NewPersistentStore(blobs BlobStore) *PersistentStore {
	return &PersistentStore{blobs: blobs, slotKey: DefaultSlotKey}
}

// Save writes the full job set. The set is small (a human-curated backlog),
// so a full snapshot per mutation is cheaper than tracking deltas.
func (p *PersistentStore) Save(jobs []models.Job) error {
	data, err := json.Marshal(snapshot{Tasks: jobs, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal queue snapshot: %w", err)
	}
	if err := p.blobs.Set(p.slotKey, data); err != nil {
		return fmt.Errorf("store queue snapshot: %w", err)
	}
	return nil
}

// Load reads the job set back. A job persisted as Running is downgraded to
// Pending with zero progress: the process cannot have genuinely been running
// anything across a restart. A missing slot means an empty queue.
func (p *PersistentStore) Load() ([]models.Job, error) {
	data, err := p.blobs.Get(p.slotKey)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read queue snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal queue snapshot: %w", err)
	}

	jobs := snap.Tasks
	for i := range jobs {
		if jobs[i].Status == models.JobStatusRunning {
			log.Warnf("Job %s was running when the snapshot was taken, re-queueing it", jobs[i].ID)
			jobs[i].Status = models.JobStatusPending
			jobs[i].ProgressPercent = 0
			jobs[i].StartedAt = nil
		}
		if !jobs[i].Status.Valid() {
			log.Warnf("Job %s has unknown status %q in snapshot, treating as pending", jobs[i].ID, jobs[i].Status)
			jobs[i].Status = models.JobStatusPending
			jobs[i].ProgressPercent = 0
		}
	}
	return jobs, nil
}
