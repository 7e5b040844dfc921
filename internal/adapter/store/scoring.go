package store

import (
	"math"
	"sort"

	"ragengine/internal/domain"
)

// Cosine computes the cosine similarity of two vectors in [-1, 1].
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NormalizeSimilarity maps cosine similarity onto [0, 1] via (cos+1)/2. The
// Postgres store computes the same value in SQL as 1 - (a <=> b)/2, so scores
// are comparable across adapters.
func NormalizeSimilarity(cos float64) float64 {
	s := (cos + 1) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// NormalizeKeywordRank maps an unbounded lexical score (ts_rank_cd, BM25) onto
// [0, 1) with the monotonic transform r/(r+1), preserving relative order.
func NormalizeKeywordRank(raw float64) float64 {
	if raw <= 0 {
		return 0
	}
	return raw / (raw + 1)
}

// CombinedScore is the weighted hybrid score over normalized components.
func CombinedScore(similarity, keywordRank, semanticWeight, keywordWeight float64) float64 {
	return semanticWeight*similarity + keywordWeight*keywordRank
}

// SortResults orders results by combined score descending, breaking ties by
// chunk index ascending and then by creation time, most recent first.
func SortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		if results[i].ChunkIndex != results[j].ChunkIndex {
			return results[i].ChunkIndex < results[j].ChunkIndex
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
}
