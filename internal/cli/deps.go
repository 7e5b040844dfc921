package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ragengine/config"
	"ragengine/internal/adapter/cache"
	"ragengine/internal/adapter/chunker"
	"ragengine/internal/adapter/embedding"
	"ragengine/internal/adapter/memstore"
	"ragengine/internal/adapter/reranker"
	"ragengine/internal/adapter/store"
	"ragengine/internal/port"
	"ragengine/internal/usecase"
)

func buildStore(cfg *config.Config) (port.ChunkStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Storage.DSN == "" {
			return nil, fmt.Errorf("storage.dsn is required for the postgres driver")
		}
		pg := store.NewPostgresStore(store.Connect(cfg.Storage.DSN), cfg.Embedding.Dimension, cfg.Storage.Debug)
		if err := pg.InitSchema(context.Background()); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case "bolt", "":
		path := cfg.Storage.Path
		if path == "" {
			path = ".ragengine/chunks.db"
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		return store.NewBoltStore(path, cfg.Embedding.Dimension)
	case "memory":
		return memstore.NewMemoryStore(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	case "openai", "":
		return embedding.NewOpenAICompatibleEmbedder(
			cfg.Embedding.APIKeyEnv,
			cfg.Embedding.Model,
			cfg.Embedding.BaseURL,
			cfg.Embedding.Dimension,
			cfg.Embedding.BatchSize,
		)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Embedding.Provider)
	}
}

func buildIndexer(cfg *config.Config, chunkStore port.ChunkStore, embedder port.Embedder) *usecase.Indexer {
	return usecase.NewIndexer(chunkStore, embedder, chunker.NewSentenceChunker(), logger).
		WithBatchSize(cfg.Embedding.BatchSize).
		WithConcurrency(cfg.Index.Concurrency)
}

func buildSearcher(cfg *config.Config, chunkStore port.ChunkStore, embedder port.Embedder) (*usecase.Searcher, *cache.QueryCache, error) {
	var bounded *reranker.Bounded
	if cfg.Rerank.Enabled {
		provider, err := reranker.NewCohereReranker(cfg.Rerank.APIKeyEnv, cfg.Rerank.Model)
		if err != nil {
			return nil, nil, err
		}
		bounded = reranker.NewBounded(provider, time.Duration(cfg.Rerank.TimeoutMs)*time.Millisecond, logger)
	}

	queryCache := cache.NewQueryCache(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	searcher := usecase.NewSearcher(chunkStore, embedder, bounded, queryCache, logger)
	return searcher, queryCache, nil
}
