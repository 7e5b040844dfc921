package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragengine/internal/domain"
	"ragengine/internal/port"
)

func openTestStore(t *testing.T, dimension int) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "chunks.db"), dimension)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testChunk(id string, ns domain.Namespace, sourceID string, idx int, content string, embedding []float32) domain.Chunk {
	now := time.Now()
	return domain.Chunk{
		ID:         id,
		Content:    content,
		Embedding:  embedding,
		Namespace:  ns,
		SourceID:   sourceID,
		ChunkIndex: idx,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestBoltStorePutAndCount(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	err := s.PutChunks(ctx, []domain.Chunk{
		testChunk("c1", domain.NamespaceTest, "doc-1", 0, "lisbon harbor sunset", []float32{1, 0, 0}),
		testChunk("c2", domain.NamespaceTest, "doc-1", 1, "porto river crossing", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	count, err := s.Count(ctx, domain.NamespaceTest)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBoltStoreRejectsDimensionMismatch(t *testing.T) {
	s := openTestStore(t, 3)

	err := s.PutChunks(context.Background(), []domain.Chunk{
		testChunk("c1", domain.NamespaceTest, "doc-1", 0, "text", []float32{1, 0}),
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	// Nothing was written.
	count, err := s.Count(context.Background(), domain.NamespaceTest)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBoltStoreNamespaceIsolation(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{
		testChunk("c1", domain.NamespaceDestinations, "doc-1", 0, "lisbon tram routes", []float32{1, 0, 0}),
		testChunk("c2", domain.NamespaceSupport, "doc-2", 0, "lisbon refund policy", []float32{1, 0, 0}),
	}))

	results, err := s.HybridSearch(ctx, port.HybridQuery{
		Namespace:      domain.NamespaceDestinations,
		Embedding:      []float32{1, 0, 0},
		Text:           "lisbon",
		Limit:          10,
		Threshold:      0,
		KeywordWeight:  0.3,
		SemanticWeight: 0.7,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
	assert.Equal(t, domain.NamespaceDestinations, results[0].Namespace)
}

func TestBoltStoreHybridOrdering(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{
		testChunk("far", domain.NamespaceTest, "doc-1", 0, "unrelated topic entirely", []float32{0, 0, 1}),
		testChunk("near", domain.NamespaceTest, "doc-1", 1, "tram routes through lisbon", []float32{1, 0, 0}),
	}))

	results, err := s.HybridSearch(ctx, port.HybridQuery{
		Namespace:      domain.NamespaceTest,
		Embedding:      []float32{1, 0, 0},
		Text:           "lisbon tram",
		Limit:          10,
		Threshold:      0,
		KeywordWeight:  0.3,
		SemanticWeight: 0.7,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].ID)
	assert.Greater(t, results[0].CombinedScore, results[1].CombinedScore)
	assert.Greater(t, results[0].KeywordRank, 0.0)
	assert.Equal(t, 0.0, results[1].KeywordRank)
}

func TestBoltStoreThresholdFilters(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{
		testChunk("aligned", domain.NamespaceTest, "doc-1", 0, "alpha", []float32{1, 0, 0}),
		testChunk("opposed", domain.NamespaceTest, "doc-1", 1, "beta", []float32{-1, 0, 0}),
	}))

	// aligned: cos=1 -> sim=1; opposed: cos=-1 -> sim=0.
	results, err := s.HybridSearch(ctx, port.HybridQuery{
		Namespace:      domain.NamespaceTest,
		Embedding:      []float32{1, 0, 0},
		Text:           "",
		Limit:          10,
		Threshold:      0.7,
		KeywordWeight:  0.3,
		SemanticWeight: 0.7,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "aligned", results[0].ID)
}

func TestBoltStoreDeleteBySource(t *testing.T) {
	s := openTestStore(t, 3)
	ctx := context.Background()

	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{
		testChunk("c1", domain.NamespaceTest, "doc-1", 0, "lisbon harbor", []float32{1, 0, 0}),
		testChunk("c2", domain.NamespaceTest, "doc-1", 1, "lisbon tram", []float32{0, 1, 0}),
		testChunk("c3", domain.NamespaceTest, "doc-2", 0, "porto river", []float32{0, 0, 1}),
	}))

	require.NoError(t, s.DeleteBySource(ctx, domain.NamespaceTest, "doc-1"))

	count, err := s.Count(ctx, domain.NamespaceTest)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := s.HybridSearch(ctx, port.HybridQuery{
		Namespace:      domain.NamespaceTest,
		Embedding:      []float32{0, 0, 1},
		Text:           "porto",
		Limit:          10,
		Threshold:      0,
		KeywordWeight:  0.3,
		SemanticWeight: 0.7,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c3", results[0].ID)

	// Deleting an absent source is a no-op.
	require.NoError(t, s.DeleteBySource(ctx, domain.NamespaceTest, "doc-1"))
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunks.db")
	ctx := context.Background()

	s, err := NewBoltStore(path, 3)
	require.NoError(t, err)
	require.NoError(t, s.PutChunks(ctx, []domain.Chunk{
		testChunk("c1", domain.NamespaceTest, "doc-1", 0, "lisbon harbor", []float32{1, 0, 0}),
	}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path, 3)
	require.NoError(t, err)
	defer s.Close()

	count, err := s.Count(ctx, domain.NamespaceTest)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
