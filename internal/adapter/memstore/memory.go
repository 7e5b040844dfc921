package memstore

import (
	"context"
	"fmt"
	"sync"

	"ragengine/internal/adapter/analyzer"
	"ragengine/internal/adapter/store"
	"ragengine/internal/domain"
	"ragengine/internal/port"
)

// MemoryStore is an in-memory ChunkStore for unit tests and ephemeral runs.
// Keyword scoring is term-overlap over tokenized content, which keeps results
// deterministic without carrying corpus statistics.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	tokenizer *analyzer.Tokenizer
	chunks    map[domain.Namespace]map[string]domain.Chunk
	sources   map[domain.Namespace]map[string][]string
}

func NewMemoryStore(dimension int) *MemoryStore {
	return &MemoryStore{
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(),
		chunks:    make(map[domain.Namespace]map[string]domain.Chunk),
		sources:   make(map[domain.Namespace]map[string][]string),
	}
}

func (s *MemoryStore) PutChunks(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if !chunk.Namespace.Valid() {
			return &domain.ValidationError{Field: "namespace", Reason: "unknown namespace: " + string(chunk.Namespace)}
		}
		if len(chunk.Embedding) != s.dimension {
			return &domain.ValidationError{
				Field:  "embedding",
				Reason: fmt.Sprintf("dimension mismatch: expected %d, got %d", s.dimension, len(chunk.Embedding)),
			}
		}
	}

	for _, chunk := range chunks {
		if s.chunks[chunk.Namespace] == nil {
			s.chunks[chunk.Namespace] = make(map[string]domain.Chunk)
			s.sources[chunk.Namespace] = make(map[string][]string)
		}
		s.chunks[chunk.Namespace][chunk.ID] = chunk
		if chunk.SourceID != "" {
			s.sources[chunk.Namespace][chunk.SourceID] = append(s.sources[chunk.Namespace][chunk.SourceID], chunk.ID)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteBySource(ctx context.Context, ns domain.Namespace, sourceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.sources[ns][sourceID] {
		delete(s.chunks[ns], id)
	}
	if s.sources[ns] != nil {
		delete(s.sources[ns], sourceID)
	}
	return nil
}

func (s *MemoryStore) HybridSearch(ctx context.Context, q port.HybridQuery) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(q.Embedding) != s.dimension {
		return nil, &domain.ValidationError{
			Field:  "embedding",
			Reason: fmt.Sprintf("dimension mismatch: expected %d, got %d", s.dimension, len(q.Embedding)),
		}
	}

	queryTerms := s.tokenizer.Tokenize(q.Text)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.SearchResult
	for id, chunk := range s.chunks[q.Namespace] {
		similarity := store.NormalizeSimilarity(store.Cosine(q.Embedding, chunk.Embedding))
		if similarity < q.Threshold {
			continue
		}
		keywordRank := store.NormalizeKeywordRank(s.termOverlap(queryTerms, chunk.Content))
		results = append(results, domain.SearchResult{
			ID:            id,
			Content:       chunk.Content,
			Metadata:      chunk.Metadata,
			Namespace:     chunk.Namespace,
			SourceID:      chunk.SourceID,
			ChunkIndex:    chunk.ChunkIndex,
			Similarity:    similarity,
			KeywordRank:   keywordRank,
			CombinedScore: store.CombinedScore(similarity, keywordRank, q.SemanticWeight, q.KeywordWeight),
			CreatedAt:     chunk.CreatedAt,
		})
	}

	store.SortResults(results)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func (s *MemoryStore) Count(ctx context.Context, ns domain.Namespace) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks[ns]), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) termOverlap(queryTerms []string, content string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	tf := s.tokenizer.TermFrequencies(content)
	matched := 0.0
	for _, term := range queryTerms {
		matched += float64(tf[term])
	}
	return matched
}
