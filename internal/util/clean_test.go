package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLikelyBinary(t *testing.T) {
	assert.False(t, IsLikelyBinary([]byte("plain text content")))
	assert.True(t, IsLikelyBinary([]byte{0x25, 0x50, 0x00, 0x44}))
	assert.False(t, IsLikelyBinary(nil))
}

func TestCleanDocumentTextStripsBOM(t *testing.T) {
	got, err := CleanDocumentText([]byte("\xEF\xBB\xBFhello"), "test.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestCleanDocumentTextNormalizesPunctuation(t *testing.T) {
	got, err := CleanDocumentText([]byte("“quoted” – it’s fine…"), "test.txt")
	require.NoError(t, err)
	assert.Equal(t, `"quoted" - it's fine...`, got)
}

func TestCleanDocumentTextRepairsInvalidUTF8(t *testing.T) {
	got, err := CleanDocumentText([]byte{'o', 'k', 0xFF, '!'}, "test.txt")
	require.NoError(t, err)
	assert.Contains(t, got, "ok")
	assert.Contains(t, got, "!")
}
