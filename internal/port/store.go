package port

import (
	"context"

	"ragengine/internal/domain"
)

// HybridQuery is a single storage-side query combining vector similarity with
// lexical matching, scoped to one namespace.
type HybridQuery struct {
	Namespace      domain.Namespace
	Embedding      []float32
	Text           string
	Limit          int
	Threshold      float64
	KeywordWeight  float64
	SemanticWeight float64
}

// ChunkStore persists chunks and serves hybrid queries. Implementations
// enforce namespace isolation in the query itself, not by post-filtering.
type ChunkStore interface {
	// PutChunks inserts chunk rows. Embedding dimensionality is validated
	// against the store's configured dimension; mismatches are rejected.
	PutChunks(ctx context.Context, chunks []domain.Chunk) error

	// DeleteBySource removes all chunks of a (namespace, sourceID) pair.
	DeleteBySource(ctx context.Context, ns domain.Namespace, sourceID string) error

	// HybridSearch scores chunks in the query's namespace, filters on
	// normalized similarity and returns results ordered by combined score.
	HybridSearch(ctx context.Context, q HybridQuery) ([]domain.SearchResult, error)

	// Count returns the number of chunks stored under the namespace.
	Count(ctx context.Context, ns domain.Namespace) (int, error)

	Close() error
}
