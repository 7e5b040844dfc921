package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedderFillsConsecutiveSlots(t *testing.T) {
	embedder := NewMockEmbedder(8)

	vectors, err := embedder.Embed(context.Background(), []string{"héllo"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.Len(t, vectors[0], 8)

	// One slot per rune, so a multi-byte character never leaves a gap.
	want := []rune("héllo")
	for i, r := range want {
		assert.Equal(t, float32(r)/1000.0, vectors[0][i], "slot %d", i)
	}
	for i := len(want); i < 8; i++ {
		assert.Zero(t, vectors[0][i], "slot %d", i)
	}
}

func TestMockEmbedderTruncatesLongText(t *testing.T) {
	embedder := NewMockEmbedder(4)

	vectors, err := embedder.Embed(context.Background(), []string{"abcdefgh"})
	require.NoError(t, err)
	require.Len(t, vectors[0], 4)
	assert.Equal(t, float32('d')/1000.0, vectors[0][3])
}

func TestMockEmbedderFail(t *testing.T) {
	embedder := NewMockEmbedder(4)
	embedder.Fail = errors.New("provider down")

	_, err := embedder.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
}
