// Package butler implements the literature-analysis work function: resolve
// a document through the host's item repository, stream it through a
// language model, and persist the derived artifact.
package butler

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/provider"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/scheduler"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/store"
)

// Document is what the host resolves a sourceRef into. Either Text or Data
// is set; Data carries raw attachment bytes (typically PDF).
type Document struct {
	Title    string
	Text     string
	Data     []byte
	MIMEType string
}

// ItemRepository is the narrow capability consumed from the host
// document-management application. Its failures surface as ordinary job
// failures.
type ItemRepository interface {
	Resolve(ctx context.Context, sourceRef string) (*Document, error)
}

// NewAnalysisJob builds a job record for a document reference. The id is
// derived from the document identity, so enqueueing the same document twice
// dedupes in the store.
func NewAnalysisJob(sourceRef, label string, maxRetries int) models.Job {
	sum := sha1.Sum([]byte(sourceRef))
	return models.Job{
		ID:         "analysis-" + hex.EncodeToString(sum[:8]),
		SourceRef:  sourceRef,
		Label:      label,
		MaxRetries: maxRetries,
	}
}

// Analyzer wires the pieces of one analysis run together.
type Analyzer struct {
	repo       ItemRepository
	invoker    *provider.Invoker
	artifacts  *store.ArtifactStore
	providerID string
	model      string

	systemPrompt string
	taskPrompt   string
	maxChars     int
}

type AnalyzerConfig struct {
	ProviderID   string
	Model        string
	SystemPrompt string
	TaskPrompt   string
	// MaxDocumentChars truncates oversized document text at a sentence
	// boundary before prompting. Zero disables truncation.
	MaxDocumentChars int
}

func NewAnalyzer(repo ItemRepository, invoker *provider.Invoker, artifacts *store.ArtifactStore, cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{
		repo:         repo,
		invoker:      invoker,
		artifacts:    artifacts,
		providerID:   cfg.ProviderID,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		taskPrompt:   cfg.TaskPrompt,
		maxChars:     cfg.MaxDocumentChars,
	}
}

// WorkFunc adapts the analyzer to the scheduler contract.
func (a *Analyzer) WorkFunc() scheduler.WorkFunc {
	return a.Run
}

// Run executes one job: resolve, prompt, stream, persist. Streaming maps to
// the 20-90% progress band; resolution and artifact persistence take the
// edges.
func (a *Analyzer) Run(ctx context.Context, job models.Job, cb scheduler.Callbacks) error {
	cb.OnProgress(5, "Resolving document")
	doc, err := a.repo.Resolve(ctx, job.SourceRef)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", job.SourceRef, err)
	}
	if doc.Text == "" && len(doc.Data) == 0 {
		return fmt.Errorf("document %s resolved to no content", job.SourceRef)
	}
	cb.OnProgress(10, "Document resolved")

	req := a.buildRequest(doc)

	received := 0
	onDelta := func(delta string) {
		received += len(delta)
		cb.OnChunk(delta)
		cb.OnProgress(streamProgress(received), "Receiving analysis")
	}

	text, err := a.invoker.Invoke(ctx, a.providerID, req, onDelta)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("provider %s returned no text for %s", a.providerID, job.SourceRef)
	}
	cb.OnProgress(90, "Analysis received")

	art := store.Artifact{
		JobID:    job.ID,
		Title:    doc.Title,
		Text:     text,
		Provider: a.providerID,
		Model:    a.model,
	}
	if err := a.artifacts.Save(art); err != nil {
		return fmt.Errorf("persist artifact for %s: %w", job.ID, err)
	}

	log.Infof("Analysis for %s: %d chars via %s", job.Label, len(text), a.providerID)
	cb.OnProgress(100, "Artifact saved")
	return nil
}

func (a *Analyzer) buildRequest(doc *Document) provider.Request {
	req := provider.Request{
		SystemPrompt: a.systemPrompt,
		Prompt:       a.taskPrompt,
	}
	if len(doc.Data) > 0 {
		req.IsBinary = true
		req.MIMEType = doc.MIMEType
		if req.MIMEType == "" {
			req.MIMEType = "application/pdf"
		}
		req.Content = encodeBase64(doc.Data)
		return req
	}
	req.Content = TruncateAtSentence(doc.Text, a.maxChars)
	return req
}

// streamProgress maps accumulated output size onto the 20-90 band. Output
// length is unknown in advance, so the curve saturates: every 2KB of text
// is one step toward 90.
func streamProgress(receivedChars int) int {
	p := 20 + receivedChars/2048
	if p > 90 {
		p = 90
	}
	return p
}
