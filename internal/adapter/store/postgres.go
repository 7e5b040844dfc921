package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"ragengine/internal/domain"
	"ragengine/internal/port"
)

// PostgresStore keeps chunks in a single namespace-partitioned table with a
// pgvector HNSW index for similarity and a GIN index over a generated
// tsvector for lexical matching. Hybrid scoring happens in one SQL query.
type PostgresStore struct {
	db        *bun.DB
	dimension int
}

type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID         string            `bun:"id,pk"`
	Namespace  string            `bun:"namespace,notnull"`
	SourceID   string            `bun:"source_id,notnull"`
	ChunkIndex int               `bun:"chunk_index,notnull"`
	Content    string            `bun:"content,notnull"`
	Embedding  string            `bun:"embedding,type:vector"`
	Metadata   map[string]string `bun:"metadata,type:jsonb"`
	CreatedAt  time.Time         `bun:"created_at,notnull"`
	UpdatedAt  time.Time         `bun:"updated_at,notnull"`
}

// Connect opens a Postgres connection with the bun pg driver.
func Connect(dsn string) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
}

// NewPostgresStore wraps an open connection. With debug enabled every query
// is echoed through bundebug.
func NewPostgresStore(sqldb *sql.DB, dimension int, debug bool) *PostgresStore {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &PostgresStore{db: db, dimension: dimension}
}

// InitSchema creates the chunks table and both search indexes. The tsvector
// column is generated, so the lexical index maintains itself on write.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id text PRIMARY KEY,
			namespace text NOT NULL,
			source_id text NOT NULL,
			chunk_index integer NOT NULL,
			content text NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata jsonb,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', content)) STORED
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks USING hnsw (embedding vector_cosine_ops)`,
		`CREATE INDEX IF NOT EXISTS chunks_tsv_idx ON chunks USING gin (tsv)`,
		`CREATE INDEX IF NOT EXISTS chunks_namespace_source_idx ON chunks (namespace, source_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &domain.StorageError{Op: "init schema", Err: err}
		}
	}
	return nil
}

// PutChunks inserts chunk rows inside one transaction.
func (s *PostgresStore) PutChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	for _, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return &domain.ValidationError{
				Field:  "embedding",
				Reason: fmt.Sprintf("dimension mismatch: expected %d, got %d", s.dimension, len(chunk.Embedding)),
			}
		}
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, chunk := range chunks {
			row := &chunkRow{
				ID:         chunk.ID,
				Namespace:  string(chunk.Namespace),
				SourceID:   chunk.SourceID,
				ChunkIndex: chunk.ChunkIndex,
				Content:    chunk.Content,
				Embedding:  vectorLiteral(chunk.Embedding),
				Metadata:   chunk.Metadata,
				CreatedAt:  chunk.CreatedAt,
				UpdatedAt:  chunk.UpdatedAt,
			}
			if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.StorageError{Op: "put chunks", Err: err}
	}
	return nil
}

// DeleteBySource removes all chunks of a (namespace, sourceID) pair.
func (s *PostgresStore) DeleteBySource(ctx context.Context, ns domain.Namespace, sourceID string) error {
	_, err := s.db.NewDelete().
		Model((*chunkRow)(nil)).
		Where("namespace = ?", string(ns)).
		Where("source_id = ?", sourceID).
		Exec(ctx)
	if err != nil {
		return &domain.StorageError{Op: "delete by source", Err: err}
	}
	return nil
}

type hybridRow struct {
	ID            string    `bun:"id"`
	Content       string    `bun:"content"`
	Metadata      []byte    `bun:"metadata"`
	Namespace     string    `bun:"namespace"`
	SourceID      string    `bun:"source_id"`
	ChunkIndex    int       `bun:"chunk_index"`
	CreatedAt     time.Time `bun:"created_at"`
	Similarity    float64   `bun:"similarity"`
	KeywordRank   float64   `bun:"keyword_rank"`
	CombinedScore float64   `bun:"combined_score"`
}

// HybridSearch runs the combined vector + lexical query. The namespace filter
// sits inside the query, cosine similarity is normalized to [0,1] as
// 1 - dist/2, ts_rank_cd is squashed via r/(r+1), and ordering plus the
// tie-breaks are applied database-side.
func (s *PostgresStore) HybridSearch(ctx context.Context, q port.HybridQuery) ([]domain.SearchResult, error) {
	if len(q.Embedding) != s.dimension {
		return nil, &domain.ValidationError{
			Field:  "embedding",
			Reason: fmt.Sprintf("dimension mismatch: expected %d, got %d", s.dimension, len(q.Embedding)),
		}
	}

	var rows []hybridRow
	err := s.db.NewRaw(`
		SELECT id, content, metadata, namespace, source_id, chunk_index, created_at,
		       similarity,
		       keyword_raw / (keyword_raw + 1) AS keyword_rank,
		       ? * similarity + ? * (keyword_raw / (keyword_raw + 1)) AS combined_score
		FROM (
			SELECT c.id, c.content, c.metadata, c.namespace, c.source_id,
			       c.chunk_index, c.created_at,
			       1 - (c.embedding <=> ?::vector) / 2 AS similarity,
			       ts_rank_cd(c.tsv, plainto_tsquery('english', ?)) AS keyword_raw
			FROM chunks AS c
			WHERE c.namespace = ?
		) AS scored
		WHERE similarity >= ?
		ORDER BY combined_score DESC, chunk_index ASC, created_at DESC
		LIMIT ?`,
		q.SemanticWeight, q.KeywordWeight,
		vectorLiteral(q.Embedding), q.Text, string(q.Namespace),
		q.Threshold, q.Limit,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, &domain.StorageError{Op: "hybrid search", Err: err}
	}

	results := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]string
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
				metadata = nil
			}
		}
		results = append(results, domain.SearchResult{
			ID:            row.ID,
			Content:       row.Content,
			Metadata:      metadata,
			Namespace:     domain.Namespace(row.Namespace),
			SourceID:      row.SourceID,
			ChunkIndex:    row.ChunkIndex,
			Similarity:    row.Similarity,
			KeywordRank:   row.KeywordRank,
			CombinedScore: row.CombinedScore,
			CreatedAt:     row.CreatedAt,
		})
	}

	return results, nil
}

// Count returns the number of chunks stored under the namespace.
func (s *PostgresStore) Count(ctx context.Context, ns domain.Namespace) (int, error) {
	count, err := s.db.NewSelect().
		Model((*chunkRow)(nil)).
		Where("namespace = ?", string(ns)).
		Count(ctx)
	if err != nil {
		return 0, &domain.StorageError{Op: "count", Err: err}
	}
	return count, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// VectorIndexParams tunes the HNSW index built by RebuildVectorIndex.
type VectorIndexParams struct {
	M              int
	EfConstruction int
}

// RebuildVectorIndex swaps in a new HNSW index without taking queries down:
// the replacement is built concurrently under a temporary name, validated via
// the supplied probe, and only then renamed over the old index.
func (s *PostgresStore) RebuildVectorIndex(ctx context.Context, params VectorIndexParams, validate func(ctx context.Context) error) error {
	if params.M <= 0 {
		params.M = 16
	}
	if params.EfConstruction <= 0 {
		params.EfConstruction = 64
	}

	create := fmt.Sprintf(
		`CREATE INDEX CONCURRENTLY IF NOT EXISTS chunks_embedding_idx_next
		 ON chunks USING hnsw (embedding vector_cosine_ops)
		 WITH (m = %d, ef_construction = %d)`,
		params.M, params.EfConstruction,
	)
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return &domain.StorageError{Op: "build vector index", Err: err}
	}

	if validate != nil {
		if err := validate(ctx); err != nil {
			_, _ = s.db.ExecContext(ctx, `DROP INDEX CONCURRENTLY IF EXISTS chunks_embedding_idx_next`)
			return &domain.StorageError{Op: "validate vector index", Err: err}
		}
	}

	if _, err := s.db.ExecContext(ctx, `DROP INDEX CONCURRENTLY IF EXISTS chunks_embedding_idx`); err != nil {
		return &domain.StorageError{Op: "drop old vector index", Err: err}
	}
	if _, err := s.db.ExecContext(ctx, `ALTER INDEX chunks_embedding_idx_next RENAME TO chunks_embedding_idx`); err != nil {
		return &domain.StorageError{Op: "cut over vector index", Err: err}
	}
	return nil
}

// vectorLiteral renders a pgvector input literal, e.g. [0.1,0.2,0.3].
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
