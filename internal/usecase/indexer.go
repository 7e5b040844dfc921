package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ragengine/internal/domain"
	"ragengine/internal/port"
)

// Indexer handles document ingestion: chunking, batched embedding and
// replace-by-source persistence.
type Indexer struct {
	store       port.ChunkStore
	embedder    port.Embedder
	chunker     port.Chunker
	batchSize   int
	concurrency int
	logger      zerolog.Logger
}

func NewIndexer(store port.ChunkStore, embedder port.Embedder, chunker port.Chunker, logger zerolog.Logger) *Indexer {
	return &Indexer{
		store:       store,
		embedder:    embedder,
		chunker:     chunker,
		batchSize:   domain.DefaultEmbedBatchSize,
		concurrency: 4,
		logger:      logger,
	}
}

// WithBatchSize overrides how many chunks are embedded per provider request.
func (u *Indexer) WithBatchSize(n int) *Indexer {
	if n > 0 {
		u.batchSize = n
	}
	return u
}

// WithConcurrency overrides how many documents are processed in parallel.
func (u *Indexer) WithConcurrency(n int) *Indexer {
	if n > 0 {
		u.concurrency = n
	}
	return u
}

// IndexDocuments ingests every document in the request. A failing document
// never aborts the batch: its index and error are recorded and the rest
// proceed. The report always covers the full batch.
func (u *Indexer) IndexDocuments(ctx context.Context, req domain.IndexRequest) (domain.IndexReport, error) {
	report := domain.IndexReport{
		Namespace: req.Namespace,
		Total:     len(req.Documents),
		Failed:    []domain.IndexFailure{},
	}

	if !req.Namespace.Valid() {
		return report, &domain.ValidationError{Field: "namespace", Reason: "unknown namespace: " + string(req.Namespace)}
	}
	if len(req.Documents) == 0 {
		return report, &domain.ValidationError{Field: "documents", Reason: "must not be empty"}
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	chunkOverlap := domain.DefaultChunkOverlap
	if req.ChunkOverlap != nil {
		chunkOverlap = *req.ChunkOverlap
	} else if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	if chunkOverlap < 0 {
		return report, &domain.ValidationError{Field: "chunkOverlap", Reason: "must not be negative"}
	}
	if chunkOverlap >= chunkSize {
		return report, &domain.ValidationError{Field: "chunkOverlap", Reason: "must be smaller than chunkSize"}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for i, doc := range req.Documents {
		g.Go(func() error {
			created, err := u.indexOne(gctx, req.Namespace, doc, chunkSize, chunkOverlap)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, domain.IndexFailure{Index: i, Error: err.Error()})
				u.logger.Warn().
					Int("document", i).
					Str("namespace", string(req.Namespace)).
					Err(err).
					Msg("document indexing failed")
				return nil
			}
			report.Indexed++
			report.ChunksCreated += created
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	report.Success = len(report.Failed) == 0

	u.logger.Info().
		Str("namespace", string(req.Namespace)).
		Int("total", report.Total).
		Int("indexed", report.Indexed).
		Int("chunks", report.ChunksCreated).
		Int("failed", len(report.Failed)).
		Msg("ingestion finished")

	return report, nil
}

func (u *Indexer) indexOne(ctx context.Context, ns domain.Namespace, doc domain.Document, size, overlap int) (int, error) {
	if doc.Content == "" {
		return 0, &domain.ValidationError{Field: "content", Reason: "must not be empty"}
	}

	pieces := u.chunker.Chunk(doc.Content, size, overlap)
	if len(pieces) == 0 {
		return 0, &domain.ValidationError{Field: "content", Reason: "produced no chunks"}
	}

	embeddings, err := u.embedChunks(ctx, pieces)
	if err != nil {
		return 0, err
	}

	sourceID := doc.SourceID
	if sourceID == "" {
		sourceID = doc.ID
	}
	if sourceID == "" {
		sourceID = uuid.NewString()
	}

	now := time.Now().UTC()
	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			ID:         uuid.NewString(),
			Content:    piece,
			Embedding:  embeddings[i],
			Metadata:   doc.Metadata,
			Namespace:  ns,
			SourceID:   sourceID,
			ChunkIndex: i,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}

	// Replace-by-source: re-indexing a known source swaps its chunk rows
	// instead of accumulating stale ones.
	if err := u.store.DeleteBySource(ctx, ns, sourceID); err != nil {
		return 0, err
	}
	if err := u.store.PutChunks(ctx, chunks); err != nil {
		return 0, err
	}

	return len(chunks), nil
}

func (u *Indexer) embedChunks(ctx context.Context, pieces []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(pieces))
	for start := 0; start < len(pieces); start += u.batchSize {
		end := start + u.batchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch, err := u.embedder.Embed(ctx, pieces[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedding provider returned %d vectors for %d inputs", len(batch), end-start)
		}
		for _, vec := range batch {
			if len(vec) != u.embedder.Dimension() {
				return nil, &domain.ValidationError{
					Field:  "embedding",
					Reason: fmt.Sprintf("dimension mismatch: expected %d, got %d", u.embedder.Dimension(), len(vec)),
				}
			}
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}
