package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/store/kv"
)

func openTestStore(t *testing.T) *kv.Store {
	t.Helper()
	s, err := kv.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSetGetDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("queue/state", []byte(`{"tasks":[]}`)))

	got, err := s.Get("queue/state")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"tasks":[]}`), got)

	require.NoError(t, s.Set("queue/state", []byte("v2")))
	got, err = s.Get("queue/state")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Delete("queue/state"))
	_, err = s.Get("queue/state")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStoreMissingKey(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get("no/such/key")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := kv.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("artifacts/job-1", []byte("summary")))
	require.NoError(t, s.Close())

	s, err = kv.NewStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get("artifacts/job-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("summary"), got)
}
