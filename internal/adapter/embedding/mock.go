package embedding

import "context"

// MockEmbedder produces deterministic pseudo-embeddings for tests. Texts that
// share characters in the same positions land close together, which is enough
// for exercising similarity ordering without a provider.
type MockEmbedder struct {
	dimension int

	// Fail forces Embed to return this error when set.
	Fail error
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.Fail != nil {
		return nil, e.Fail
	}

	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = make([]float32, e.dimension)
		// Count runes, not byte offsets, so multi-byte text fills
		// consecutive slots.
		j := 0
		for _, r := range texts[i] {
			if j >= e.dimension {
				break
			}
			embeddings[i][j] = float32(r) / 1000.0
			j++
		}
	}
	return embeddings, nil
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}
