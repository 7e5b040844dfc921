package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ragengine/internal/adapter/cache"
	"ragengine/internal/adapter/reranker"
	"ragengine/internal/adapter/store"
	"ragengine/internal/domain"
	"ragengine/internal/port"
)

// Searcher handles hybrid retrieval: cache lookup, query embedding, weighted
// vector+lexical search and bounded reranking.
type Searcher struct {
	store    port.ChunkStore
	embedder port.Embedder
	reranker *reranker.Bounded
	cache    *cache.QueryCache
	logger   zerolog.Logger
}

func NewSearcher(chunkStore port.ChunkStore, embedder port.Embedder, bounded *reranker.Bounded, queryCache *cache.QueryCache, logger zerolog.Logger) *Searcher {
	return &Searcher{
		store:    chunkStore,
		embedder: embedder,
		reranker: bounded,
		cache:    queryCache,
		logger:   logger,
	}
}

// Search runs one retrieval call end to end. Provider and storage errors are
// fatal here; reranking failures are not, the bounded wrapper absorbs them.
func (u *Searcher) Search(ctx context.Context, params domain.SearchParams) (domain.SearchResponse, error) {
	start := time.Now()

	if err := params.Validate(); err != nil {
		return domain.SearchResponse{Query: params.Query}, err
	}

	key := cache.Key(params)
	if u.cache != nil && params.UseReranking {
		if entry, hit := u.cache.Get(key); hit {
			u.logger.Debug().
				Str("namespace", string(params.Namespace)).
				Msg("cache hit")
			return domain.SearchResponse{
				Success:          true,
				Query:            params.Query,
				Results:          entry.Results,
				LatencyMs:        time.Since(start).Milliseconds(),
				RerankingApplied: entry.RerankingApplied,
				CacheHit:         true,
			}, nil
		}
	}

	vectors, err := u.embedder.Embed(ctx, []string{params.Query})
	if err != nil {
		return domain.SearchResponse{Query: params.Query}, err
	}
	if len(vectors) != 1 {
		return domain.SearchResponse{Query: params.Query}, &domain.ProviderError{
			Provider: u.embedder.ModelName(),
			Err:      fmt.Errorf("expected 1 query vector, got %d", len(vectors)),
		}
	}

	results, err := u.store.HybridSearch(ctx, port.HybridQuery{
		Namespace:      params.Namespace,
		Embedding:      vectors[0],
		Text:           params.Query,
		Limit:          params.Limit,
		Threshold:      params.Threshold,
		KeywordWeight:  params.KeywordWeight,
		SemanticWeight: params.SemanticWeight,
	})
	if err != nil {
		return domain.SearchResponse{Query: params.Query}, err
	}

	// Storage adapters already order; re-assert here so the contract holds
	// regardless of backend.
	store.SortResults(results)
	if len(results) > params.Limit {
		results = results[:params.Limit]
	}

	rerankingApplied := false
	if params.UseReranking && u.reranker != nil && len(results) > 0 {
		var outcome reranker.Outcome
		results, outcome = u.reranker.Rerank(ctx, params.Query, results)
		rerankingApplied = outcome == reranker.OutcomeApplied
	}

	if u.cache != nil && params.UseReranking && ctx.Err() == nil {
		u.cache.Put(key, cache.Entry{Results: results, RerankingApplied: rerankingApplied})
	}

	latency := time.Since(start)
	u.logger.Info().
		Str("namespace", string(params.Namespace)).
		Int("results", len(results)).
		Bool("reranked", rerankingApplied).
		Dur("latency", latency).
		Msg("search served")

	return domain.SearchResponse{
		Success:          true,
		Query:            params.Query,
		Results:          results,
		LatencyMs:        latency.Milliseconds(),
		RerankingApplied: rerankingApplied,
	}, nil
}
