package reranker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragengine/internal/domain"
	"ragengine/internal/port"
)

type scriptedReranker struct {
	delay   time.Duration
	err     error
	results []port.RerankedResult
}

func (s *scriptedReranker) Rerank(ctx context.Context, _ string, _ []string) ([]port.RerankedResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *scriptedReranker) ModelName() string { return "scripted" }

func candidates() []domain.SearchResult {
	return []domain.SearchResult{
		{ID: "a", Content: "first", CombinedScore: 0.9},
		{ID: "b", Content: "second", CombinedScore: 0.8},
		{ID: "c", Content: "third", CombinedScore: 0.7},
	}
}

func TestBoundedAppliesProviderOrder(t *testing.T) {
	provider := &scriptedReranker{
		results: []port.RerankedResult{
			{Index: 2, Score: 0.99},
			{Index: 0, Score: 0.5},
			{Index: 1, Score: 0.1},
		},
	}
	b := NewBounded(provider, 100*time.Millisecond, zerolog.Nop())

	out, outcome := b.Rerank(context.Background(), "q", candidates())
	require.Equal(t, OutcomeApplied, outcome)
	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].ID)
	require.NotNil(t, out[0].RerankScore)
	assert.InDelta(t, 0.99, *out[0].RerankScore, 1e-9)
}

func TestBoundedFallsBackOnError(t *testing.T) {
	provider := &scriptedReranker{err: errors.New("boom")}
	b := NewBounded(provider, 100*time.Millisecond, zerolog.Nop())

	in := candidates()
	out, outcome := b.Rerank(context.Background(), "q", in)
	assert.Equal(t, OutcomeFallbackError, outcome)
	assert.Equal(t, in, out)
	assert.Nil(t, out[0].RerankScore)
}

func TestBoundedFallsBackOnTimeoutWithinBudget(t *testing.T) {
	provider := &scriptedReranker{delay: 2 * time.Second}
	b := NewBounded(provider, 50*time.Millisecond, zerolog.Nop())

	in := candidates()
	start := time.Now()
	out, outcome := b.Rerank(context.Background(), "q", in)
	elapsed := time.Since(start)

	assert.Equal(t, OutcomeFallbackTimeout, outcome)
	assert.Equal(t, in, out)
	assert.Less(t, elapsed, 500*time.Millisecond, "timeout fallback blocked past budget")
}

func TestBoundedNilProviderPreservesOrder(t *testing.T) {
	b := NewBounded(nil, 50*time.Millisecond, zerolog.Nop())

	in := candidates()
	out, _ := b.Rerank(context.Background(), "q", in)
	assert.Equal(t, in, out)
}

func TestBoundedPartialProviderResponse(t *testing.T) {
	// Provider scores only one candidate; the rest keep hybrid order.
	provider := &scriptedReranker{
		results: []port.RerankedResult{{Index: 1, Score: 0.8}},
	}
	b := NewBounded(provider, 100*time.Millisecond, zerolog.Nop())

	out, outcome := b.Rerank(context.Background(), "q", candidates())
	require.Equal(t, OutcomeApplied, outcome)
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
	assert.Equal(t, "c", out[2].ID)
}
