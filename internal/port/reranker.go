package port

import "context"

// Reranker scores query-document pairs for relevance.
type Reranker interface {
	// Rerank scores the candidate texts against the query and returns
	// results sorted by relevance score, highest first.
	Rerank(ctx context.Context, query string, candidateTexts []string) ([]RerankedResult, error)

	// ModelName returns the name of the reranking model.
	ModelName() string
}

// RerankedResult references a candidate by its original index.
type RerankedResult struct {
	Index int
	Score float64
}
