package reranker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ragengine/internal/domain"
	"ragengine/internal/port"
)

// Outcome distinguishes how a bounded rerank call resolved.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeFallbackError   Outcome = "fallback_error"
	OutcomeFallbackTimeout Outcome = "fallback_timeout"
)

// Bounded races a provider reranker against a hard deadline. Whichever
// resolves first wins: a provider response is applied, while an error or an
// elapsed deadline deterministically yields the candidates unchanged. A search
// never fails, and never blocks materially past the budget, because of
// reranking.
type Bounded struct {
	provider port.Reranker
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewBounded(provider port.Reranker, timeout time.Duration, logger zerolog.Logger) *Bounded {
	if timeout <= 0 {
		timeout = domain.DefaultRerankTimeout
	}
	return &Bounded{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

type reply struct {
	results []port.RerankedResult
	err     error
}

// Rerank re-scores candidates within the time budget. The returned slice is
// ordered; RerankScore is populated only on the applied path.
func (b *Bounded) Rerank(ctx context.Context, query string, candidates []domain.SearchResult) ([]domain.SearchResult, Outcome) {
	if b.provider == nil || len(candidates) == 0 {
		return candidates, OutcomeFallbackError
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}

	cctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ch := make(chan reply, 1)
	go func() {
		results, err := b.provider.Rerank(cctx, query, texts)
		ch <- reply{results: results, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			b.logger.Warn().
				Str("model", b.provider.ModelName()).
				Str("outcome", string(OutcomeFallbackError)).
				Err(r.err).
				Msg("rerank failed, serving hybrid order")
			return candidates, OutcomeFallbackError
		}
		return apply(candidates, r.results), OutcomeApplied

	case <-cctx.Done():
		outcome := OutcomeFallbackTimeout
		if ctx.Err() != nil {
			// Caller went away; not the provider's fault.
			outcome = OutcomeFallbackError
		}
		b.logger.Warn().
			Str("model", b.provider.ModelName()).
			Str("outcome", string(outcome)).
			Dur("budget", b.timeout).
			Msg("rerank abandoned, serving hybrid order")
		return candidates, outcome
	}
}

// apply reorders candidates by provider score and stamps RerankScore.
// Candidates the provider did not score keep their hybrid order at the tail.
func apply(candidates []domain.SearchResult, reranked []port.RerankedResult) []domain.SearchResult {
	out := make([]domain.SearchResult, 0, len(candidates))
	seen := make(map[int]bool, len(reranked))

	for _, rr := range reranked {
		if rr.Index < 0 || rr.Index >= len(candidates) || seen[rr.Index] {
			continue
		}
		seen[rr.Index] = true

		c := candidates[rr.Index]
		score := rr.Score
		c.RerankScore = &score
		out = append(out, c)
	}

	for i, c := range candidates {
		if !seen[i] {
			out = append(out, c)
		}
	}

	return out
}
