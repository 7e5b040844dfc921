package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ragengine/internal/domain"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestNormalizeSimilarityBounds(t *testing.T) {
	assert.InDelta(t, 1.0, NormalizeSimilarity(1), 1e-9)
	assert.InDelta(t, 0.5, NormalizeSimilarity(0), 1e-9)
	assert.InDelta(t, 0.0, NormalizeSimilarity(-1), 1e-9)
	assert.Equal(t, 1.0, NormalizeSimilarity(1.5))
	assert.Equal(t, 0.0, NormalizeSimilarity(-2))
}

func TestNormalizeKeywordRankMonotonic(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeKeywordRank(0))
	assert.Equal(t, 0.0, NormalizeKeywordRank(-3))

	prev := 0.0
	for _, raw := range []float64{0.1, 0.5, 1, 2, 10, 100} {
		n := NormalizeKeywordRank(raw)
		assert.Greater(t, n, prev)
		assert.Less(t, n, 1.0)
		prev = n
	}
}

func TestSortResultsTieBreaks(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	results := []domain.SearchResult{
		{ID: "low", CombinedScore: 0.2, ChunkIndex: 0},
		{ID: "tie-late-old", CombinedScore: 0.5, ChunkIndex: 3, CreatedAt: older},
		{ID: "tie-late-new", CombinedScore: 0.5, ChunkIndex: 3, CreatedAt: newer},
		{ID: "tie-early", CombinedScore: 0.5, ChunkIndex: 1},
		{ID: "high", CombinedScore: 0.9, ChunkIndex: 7},
	}
	SortResults(results)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"high", "tie-early", "tie-late-new", "tie-late-old", "low"}, ids)
}
