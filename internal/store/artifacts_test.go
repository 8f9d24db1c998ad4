package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/store"
)

func TestArtifactStoreRoundTrip(t *testing.T) {
	a := store.NewArtifactStore(newMemBlobStore())

	require.NoError(t, a.Save(store.Artifact{
		JobID:    "analysis-1234",
		Title:    "Attention Is All You Need",
		Text:     "The paper introduces the transformer architecture.",
		Provider: "openai",
		Model:    "gpt-4o",
	}))

	art, err := a.Load("analysis-1234")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is All You Need", art.Title)
	assert.Equal(t, "openai", art.Provider)
	assert.False(t, art.CreatedAt.IsZero(), "Save should stamp CreatedAt")

	require.NoError(t, a.Delete("analysis-1234"))
	_, err = a.Load("analysis-1234")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestArtifactStoreRejectsMissingJobID(t *testing.T) {
	a := store.NewArtifactStore(newMemBlobStore())
	err := a.Save(store.Artifact{Text: "orphan"})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}
