package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ragengine/internal/domain"
)

func params(query string) domain.SearchParams {
	return domain.DefaultSearchParams(domain.NamespaceTest, query)
}

func TestKeyNormalizesQueryText(t *testing.T) {
	assert.Equal(t, Key(params("  Lisbon Trams ")), Key(params("lisbon trams")))
	assert.NotEqual(t, Key(params("lisbon trams")), Key(params("porto trams")))
}

func TestKeyVariesWithRetrievalShape(t *testing.T) {
	base := params("lisbon")

	wider := base
	wider.Limit = 25
	assert.NotEqual(t, Key(base), Key(wider))

	reweighted := base
	reweighted.KeywordWeight = 0.5
	reweighted.SemanticWeight = 0.5
	assert.NotEqual(t, Key(base), Key(reweighted))

	otherNS := base
	otherNS.Namespace = domain.NamespaceSupport
	assert.NotEqual(t, Key(base), Key(otherNS))
}

func TestCacheHitReturnsStoredOrder(t *testing.T) {
	c := NewQueryCache(10, time.Minute)

	stored := Entry{
		Results: []domain.SearchResult{
			{ID: "a", CombinedScore: 0.9},
			{ID: "b", CombinedScore: 0.8},
		},
		RerankingApplied: true,
	}
	key := Key(params("lisbon"))
	c.Put(key, stored)

	got, hit := c.Get(key)
	assert.True(t, hit)
	assert.Equal(t, stored.Results, got.Results)
	assert.True(t, got.RerankingApplied)
}

func TestCacheMiss(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	_, hit := c.Get(Key(params("never seen")))
	assert.False(t, hit)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewQueryCache(10, 10*time.Millisecond)
	key := Key(params("lisbon"))
	c.Put(key, Entry{})

	time.Sleep(25 * time.Millisecond)

	_, hit := c.Get(key)
	assert.False(t, hit)
	assert.Equal(t, 0, c.Size())
}

func TestCacheLRUEviction(t *testing.T) {
	c := NewQueryCache(2, time.Minute)

	k1 := Key(params("one"))
	k2 := Key(params("two"))
	k3 := Key(params("three"))

	c.Put(k1, Entry{})
	c.Put(k2, Entry{})

	// Touch k1 so k2 becomes the eviction candidate.
	_, hit := c.Get(k1)
	assert.True(t, hit)

	c.Put(k3, Entry{})

	_, hit = c.Get(k2)
	assert.False(t, hit)
	_, hit = c.Get(k1)
	assert.True(t, hit)
	_, hit = c.Get(k3)
	assert.True(t, hit)
}

func TestCacheInvalidateDropsAll(t *testing.T) {
	c := NewQueryCache(10, time.Minute)
	key := Key(params("lisbon"))
	c.Put(key, Entry{})

	c.Invalidate()

	_, hit := c.Get(key)
	assert.False(t, hit)
	assert.Equal(t, 0, c.Size())
}
