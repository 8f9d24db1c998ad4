package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

const artifactPrefix = "artifacts/"

// Artifact is the derived analysis text produced by a completed job.
type Artifact struct {
	JobID     string    `json:"jobId"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"createdAt"`
}

// ArtifactStore keeps derived artifacts in the blob store under their job
// id. Removing a job from the queue does not delete its artifact; artifacts
// are operator data and are only deleted explicitly.
type ArtifactStore struct {
	blobs BlobStore
}

func NewArtifactStore(blobs BlobStore) *ArtifactStore {
	return &ArtifactStore{blobs: blobs}
}

func (a *ArtifactStore) Save(art Artifact) error {
	if art.JobID == "" {
		return fmt.Errorf("artifact without job id: %w", models.ErrInvalidState)
	}
	if art.CreatedAt.IsZero() {
		art.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", art.JobID, err)
	}
	if err := a.blobs.Set(artifactPrefix+art.JobID, data); err != nil {
		return fmt.Errorf("store artifact %s: %w", art.JobID, err)
	}
	return nil
}

func (a *ArtifactStore) Load(jobID string) (Artifact, error) {
	data, err := a.blobs.Get(artifactPrefix + jobID)
	if err != nil {
		return Artifact{}, fmt.Errorf("read artifact %s: %w", jobID, err)
	}
	var art Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return Artifact{}, fmt.Errorf("unmarshal artifact %s: %w", jobID, err)
	}
	return art, nil
}

func (a *ArtifactStore) Delete(jobID string) error {
	return a.blobs.Delete(artifactPrefix + jobID)
}
