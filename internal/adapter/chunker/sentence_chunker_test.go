package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmptyInput(t *testing.T) {
	c := NewSentenceChunker()

	assert.Nil(t, c.Chunk("", 100, 10))
	assert.Nil(t, c.Chunk("   \n\t  ", 100, 10))
}

func TestChunkShortInputSingleChunk(t *testing.T) {
	c := NewSentenceChunker()

	chunks := c.Chunk("  a short note about Lisbon  ", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short note about Lisbon", chunks[0])
}

func TestChunkSnapsToSentenceBoundary(t *testing.T) {
	c := NewSentenceChunker()

	chunks := c.Chunk("Alpha beta. Gamma delta epsilon", 12, 3)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "Alpha beta.", chunks[0])
}

func TestChunkForceCutAndOverlap(t *testing.T) {
	c := NewSentenceChunker()

	// No sentence terminators, so every cut is a force-cut at the rune
	// limit and the overlap carry-back is exact.
	text := strings.Repeat("abcdefghij", 5)
	chunks := c.Chunk(text, 10, 3)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-3:])
		head := string(cur[:3])
		assert.Equal(t, tail, head, "chunk %d does not overlap its predecessor", i)
	}
}

func TestChunkUnicodeSafety(t *testing.T) {
	c := NewSentenceChunker()

	text := strings.Repeat("東京は素晴らしい都市です。", 10)
	chunks := c.Chunk(text, 20, 5)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk), "chunk split inside a code point")
	}
}

func TestChunkTravelScenario(t *testing.T) {
	c := NewSentenceChunker()

	text := "The quick brown fox. It jumps over the lazy dog. Foxes are clever animals."
	chunks := c.Chunk(text, 20, 5)
	require.GreaterOrEqual(t, len(chunks), 3)

	found := false
	for _, chunk := range chunks {
		if strings.Contains(chunk, "clever animals") {
			found = true
		}
	}
	assert.True(t, found, "no chunk carries the trailing sentence")
}

func TestChunkDefaultsApplied(t *testing.T) {
	c := NewSentenceChunker()

	// Zero size/overlap fall back to the engine defaults rather than looping.
	text := strings.Repeat("Some sentence about travel plans. ", 200)
	chunks := c.Chunk(text, 0, 0)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 2000)
	}
}
