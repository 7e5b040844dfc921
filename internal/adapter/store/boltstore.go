package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.etcd.io/bbolt"

	"ragengine/internal/adapter/analyzer"
	"ragengine/internal/domain"
	"ragengine/internal/port"
)

// BoltStore is the embedded ChunkStore for local deployments and integration
// tests. Each namespace gets its own chunk, term and source buckets, so
// isolation is structural rather than filtered. Lexical scoring is BM25 over
// per-chunk term frequencies; similarity is brute-force cosine, normalized the
// same way as the Postgres store.
type BoltStore struct {
	db        *bbolt.DB
	dimension int
	tokenizer *analyzer.Tokenizer
}

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

type boltChunk struct {
	Content    string            `json:"content"`
	Embedding  []float32         `json:"embedding"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	SourceID   string            `json:"source_id"`
	ChunkIndex int               `json:"chunk_index"`
	CreatedAt  int64             `json:"created_at"`
	UpdatedAt  int64             `json:"updated_at"`
	TermFreq   map[string]int    `json:"term_freq"`
	TokenCount int               `json:"token_count"`
}

type namespaceStats struct {
	TotalChunks int `json:"total_chunks"`
	TotalTokens int `json:"total_tokens"`
}

func chunksBucket(ns domain.Namespace) []byte { return []byte("chunks_" + ns) }
func termsBucket(ns domain.Namespace) []byte  { return []byte("terms_" + ns) }
func sourceBucket(ns domain.Namespace) []byte { return []byte("sources_" + ns) }

var bucketStats = []byte("stats")

// NewBoltStore opens (or creates) the embedded store at path. Buckets for
// every namespace in the closed set are created up front.
func NewBoltStore(path string, dimension int) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, &domain.StorageError{Op: "open", Err: err}
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketStats); err != nil {
			return err
		}
		for _, ns := range domain.Namespaces() {
			for _, b := range [][]byte{chunksBucket(ns), termsBucket(ns), sourceBucket(ns)} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return fmt.Errorf("failed to create bucket %s: %w", b, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, &domain.StorageError{Op: "create buckets", Err: err}
	}

	return &BoltStore{
		db:        db,
		dimension: dimension,
		tokenizer: analyzer.NewTokenizer(),
	}, nil
}

// PutChunks inserts chunk rows, maintaining term document frequencies and
// namespace stats alongside the chunk records.
func (s *BoltStore) PutChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

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

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, chunk := range chunks {
			tf := s.tokenizer.TermFrequencies(chunk.Content)
			tokenCount := 0
			for _, n := range tf {
				tokenCount += n
			}

			record := boltChunk{
				Content:    chunk.Content,
				Embedding:  chunk.Embedding,
				Metadata:   chunk.Metadata,
				SourceID:   chunk.SourceID,
				ChunkIndex: chunk.ChunkIndex,
				CreatedAt:  chunk.CreatedAt.UnixNano(),
				UpdatedAt:  chunk.UpdatedAt.UnixNano(),
				TermFreq:   tf,
				TokenCount: tokenCount,
			}
			data, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err := tx.Bucket(chunksBucket(chunk.Namespace)).Put([]byte(chunk.ID), data); err != nil {
				return err
			}

			terms := tx.Bucket(termsBucket(chunk.Namespace))
			for term := range tf {
				if err := bumpTermCount(terms, term, 1); err != nil {
					return err
				}
			}

			if chunk.SourceID != "" {
				sources := tx.Bucket(sourceBucket(chunk.Namespace))
				var ids []string
				if existing := sources.Get([]byte(chunk.SourceID)); existing != nil {
					if err := json.Unmarshal(existing, &ids); err != nil {
						return err
					}
				}
				ids = append(ids, chunk.ID)
				idsData, err := json.Marshal(ids)
				if err != nil {
					return err
				}
				if err := sources.Put([]byte(chunk.SourceID), idsData); err != nil {
					return err
				}
			}

			if err := adjustStats(tx, chunk.Namespace, 1, tokenCount); err != nil {
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

// DeleteBySource removes all chunks of a (namespace, sourceID) pair, unwinding
// term frequencies and stats.
func (s *BoltStore) DeleteBySource(ctx context.Context, ns domain.Namespace, sourceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ns.Valid() {
		return &domain.ValidationError{Field: "namespace", Reason: "unknown namespace: " + string(ns)}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		sources := tx.Bucket(sourceBucket(ns))
		data := sources.Get([]byte(sourceID))
		if data == nil {
			return nil
		}
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}

		chunks := tx.Bucket(chunksBucket(ns))
		terms := tx.Bucket(termsBucket(ns))
		for _, id := range ids {
			recordData := chunks.Get([]byte(id))
			if recordData == nil {
				continue
			}
			var record boltChunk
			if err := json.Unmarshal(recordData, &record); err != nil {
				return err
			}
			for term := range record.TermFreq {
				if err := bumpTermCount(terms, term, -1); err != nil {
					return err
				}
			}
			if err := adjustStats(tx, ns, -1, -record.TokenCount); err != nil {
				return err
			}
			if err := chunks.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return sources.Delete([]byte(sourceID))
	})
	if err != nil {
		return &domain.StorageError{Op: "delete by source", Err: err}
	}
	return nil
}

// HybridSearch scans the namespace's chunks, scoring cosine similarity and
// BM25 in one pass. Only chunks at or above the normalized similarity
// threshold survive; combined ordering and tie-breaks match the SQL store.
func (s *BoltStore) HybridSearch(ctx context.Context, q port.HybridQuery) ([]domain.SearchResult, error) {
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

	var results []domain.SearchResult
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats, err := readStats(tx, q.Namespace)
		if err != nil {
			return err
		}
		if stats.TotalChunks == 0 {
			return nil
		}
		avgLen := float64(stats.TotalTokens) / float64(stats.TotalChunks)

		// Document frequency per query term, for IDF.
		terms := tx.Bucket(termsBucket(q.Namespace))
		df := make(map[string]int, len(queryTerms))
		for _, term := range queryTerms {
			df[term] = readTermCount(terms, term)
		}

		chunks := tx.Bucket(chunksBucket(q.Namespace))
		return chunks.ForEach(func(k, v []byte) error {
			var record boltChunk
			if err := json.Unmarshal(v, &record); err != nil {
				return nil // skip corrupted entries
			}

			similarity := NormalizeSimilarity(Cosine(q.Embedding, record.Embedding))
			if similarity < q.Threshold {
				return nil
			}

			keywordRank := NormalizeKeywordRank(
				bm25Score(queryTerms, df, record, stats.TotalChunks, avgLen),
			)

			results = append(results, domain.SearchResult{
				ID:            string(k),
				Content:       record.Content,
				Metadata:      record.Metadata,
				Namespace:     q.Namespace,
				SourceID:      record.SourceID,
				ChunkIndex:    record.ChunkIndex,
				Similarity:    similarity,
				KeywordRank:   keywordRank,
				CombinedScore: CombinedScore(similarity, keywordRank, q.SemanticWeight, q.KeywordWeight),
				CreatedAt:     time.Unix(0, record.CreatedAt),
			})
			return nil
		})
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "hybrid search", Err: err}
	}

	SortResults(results)
	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// Count returns the number of chunks stored under the namespace.
func (s *BoltStore) Count(ctx context.Context, ns domain.Namespace) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		stats, err := readStats(tx, ns)
		if err != nil {
			return err
		}
		count = stats.TotalChunks
		return nil
	})
	if err != nil {
		return 0, &domain.StorageError{Op: "count", Err: err}
	}
	return count, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func bm25Score(queryTerms []string, df map[string]int, record boltChunk, totalChunks int, avgLen float64) float64 {
	if avgLen == 0 {
		return 0
	}

	score := 0.0
	dl := float64(record.TokenCount)
	N := float64(totalChunks)

	for _, term := range queryTerms {
		tf, ok := record.TermFreq[term]
		if !ok {
			continue
		}
		n := float64(df[term])
		idf := math.Log((N-n+0.5)/(n+0.5) + 1)
		tfF := float64(tf)
		score += idf * (tfF * (bm25K1 + 1)) / (tfF + bm25K1*(1-bm25B+bm25B*dl/avgLen))
	}

	return score
}

func bumpTermCount(b *bbolt.Bucket, term string, delta int) error {
	count := readTermCount(b, term)
	count += delta
	if count <= 0 {
		return b.Delete([]byte(term))
	}
	data, err := json.Marshal(count)
	if err != nil {
		return err
	}
	return b.Put([]byte(term), data)
}

func readTermCount(b *bbolt.Bucket, term string) int {
	data := b.Get([]byte(term))
	if data == nil {
		return 0
	}
	var count int
	if err := json.Unmarshal(data, &count); err != nil {
		return 0
	}
	return count
}

func statsKey(ns domain.Namespace) []byte { return []byte("ns_" + ns) }

func readStats(tx *bbolt.Tx, ns domain.Namespace) (namespaceStats, error) {
	var stats namespaceStats
	data := tx.Bucket(bucketStats).Get(statsKey(ns))
	if data == nil {
		return stats, nil
	}
	err := json.Unmarshal(data, &stats)
	return stats, err
}

func adjustStats(tx *bbolt.Tx, ns domain.Namespace, chunkDelta, tokenDelta int) error {
	stats, err := readStats(tx, ns)
	if err != nil {
		return err
	}
	stats.TotalChunks += chunkDelta
	stats.TotalTokens += tokenDelta
	if stats.TotalChunks < 0 {
		stats.TotalChunks = 0
	}
	if stats.TotalTokens < 0 {
		stats.TotalTokens = 0
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketStats).Put(statsKey(ns), data)
}
