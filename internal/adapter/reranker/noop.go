package reranker

import (
	"context"

	"ragengine/internal/port"
)

// NoOpReranker preserves the incoming hybrid-search order. It is the fallback
// branch of the bounded reranker and the configured strategy when reranking is
// disabled.
type NoOpReranker struct{}

func NewNoOpReranker() *NoOpReranker {
	return &NoOpReranker{}
}

func (r *NoOpReranker) Rerank(_ context.Context, _ string, candidateTexts []string) ([]port.RerankedResult, error) {
	results := make([]port.RerankedResult, len(candidateTexts))
	for i := range candidateTexts {
		results[i] = port.RerankedResult{Index: i, Score: 0}
	}
	return results, nil
}

func (r *NoOpReranker) ModelName() string {
	return "noop"
}
