package domain

import "time"

// Namespace is a logical partition isolating one corpus from another.
// Queries never cross namespaces; the set is closed and validated at the edge.
type Namespace string

const (
	NamespaceDestinations Namespace = "destinations"
	NamespaceItineraries  Namespace = "itineraries"
	NamespaceTravelTips   Namespace = "travel_tips"
	NamespaceSupport      Namespace = "support"
	NamespaceTest         Namespace = "test"
)

// Namespaces returns the closed set of valid namespaces.
func Namespaces() []Namespace {
	return []Namespace{
		NamespaceDestinations,
		NamespaceItineraries,
		NamespaceTravelTips,
		NamespaceSupport,
		NamespaceTest,
	}
}

// ParseNamespace validates a raw namespace string against the closed set.
func ParseNamespace(s string) (Namespace, error) {
	for _, ns := range Namespaces() {
		if Namespace(s) == ns {
			return ns, nil
		}
	}
	return "", &ValidationError{Field: "namespace", Reason: "unknown namespace: " + s}
}

// Valid reports whether the namespace is a member of the closed set.
func (n Namespace) Valid() bool {
	_, err := ParseNamespace(string(n))
	return err == nil
}

// Document is an ingestion input: raw text plus optional lineage and metadata.
type Document struct {
	ID       string            `json:"id,omitempty"`
	SourceID string            `json:"sourceId,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is the persisted unit: a bounded, overlapping slice of a source
// document, embedded and stored under exactly one namespace. Chunks are
// immutable once written; re-indexing a source replaces its chunk rows.
type Chunk struct {
	ID         string
	Content    string
	Embedding  []float32
	Metadata   map[string]string
	Namespace  Namespace
	SourceID   string
	ChunkIndex int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SearchResult is an ephemeral scored view of a chunk. Similarity and
// KeywordRank are both normalized to [0,1] before being combined.
type SearchResult struct {
	ID            string            `json:"id"`
	Content       string            `json:"content"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Namespace     Namespace         `json:"namespace"`
	SourceID      string            `json:"sourceId,omitempty"`
	ChunkIndex    int               `json:"chunkIndex"`
	Similarity    float64           `json:"similarity"`
	KeywordRank   float64           `json:"keywordRank"`
	CombinedScore float64           `json:"combinedScore"`
	RerankScore   *float64          `json:"rerankScore,omitempty"`
	CreatedAt     time.Time         `json:"-"`
}

// IndexRequest carries one ingestion call. A zero ChunkSize selects the
// default; ChunkOverlap is a pointer so an explicit zero overlap is
// distinguishable from "use the default".
type IndexRequest struct {
	Documents    []Document
	Namespace    Namespace
	ChunkSize    int
	ChunkOverlap *int
}

// IndexFailure records a single document that could not be indexed.
type IndexFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// IndexReport is the always-complete result of an ingestion call. Success is
// false when any document failed; counts reflect the documents that succeeded.
type IndexReport struct {
	Success       bool           `json:"success"`
	Indexed       int            `json:"indexed"`
	ChunksCreated int            `json:"chunksCreated"`
	Namespace     Namespace      `json:"namespace"`
	Total         int            `json:"total"`
	Failed        []IndexFailure `json:"failed"`
}

// SearchParams carries one search call after defaults have been resolved.
type SearchParams struct {
	Query          string
	Namespace      Namespace
	Limit          int
	Threshold      float64
	UseReranking   bool
	KeywordWeight  float64
	SemanticWeight float64
}

// SearchResponse is the typed search result envelope.
type SearchResponse struct {
	Success          bool           `json:"success"`
	Query            string         `json:"query"`
	Results          []SearchResult `json:"results"`
	LatencyMs        int64          `json:"latencyMs"`
	RerankingApplied bool           `json:"rerankingApplied"`
	CacheHit         bool           `json:"cacheHit,omitempty"`
}

// Defaults shared across the engine surfaces.
const (
	DefaultChunkSize      = 2000
	DefaultChunkOverlap   = 400
	DefaultEmbedBatchSize = 10
	DefaultLimit          = 10
	DefaultThreshold      = 0.7
	DefaultKeywordWeight  = 0.3
	DefaultSemanticWeight = 0.7
	MaxLimit              = 100
)

// DefaultRerankTimeout bounds the reranking provider call; on expiry the
// hybrid ordering is served unchanged.
const DefaultRerankTimeout = 700 * time.Millisecond

// DefaultSearchParams returns params populated with the engine defaults for
// the given namespace and query.
func DefaultSearchParams(ns Namespace, query string) SearchParams {
	return SearchParams{
		Query:          query,
		Namespace:      ns,
		Limit:          DefaultLimit,
		Threshold:      DefaultThreshold,
		UseReranking:   true,
		KeywordWeight:  DefaultKeywordWeight,
		SemanticWeight: DefaultSemanticWeight,
	}
}

// Validate checks the params against the engine's accepted ranges.
func (p SearchParams) Validate() error {
	if len([]rune(p.Query)) == 0 || isBlank(p.Query) {
		return &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if !p.Namespace.Valid() {
		return &ValidationError{Field: "namespace", Reason: "unknown namespace: " + string(p.Namespace)}
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return &ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return &ValidationError{Field: "threshold", Reason: "must be between 0 and 1"}
	}
	if p.KeywordWeight < 0 || p.SemanticWeight < 0 {
		return &ValidationError{Field: "weights", Reason: "must not be negative"}
	}
	if p.KeywordWeight+p.SemanticWeight == 0 {
		return &ValidationError{Field: "weights", Reason: "at least one weight must be positive"}
	}
	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
