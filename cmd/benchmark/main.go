// Command benchmark runs ad-hoc retrieval quality and latency probes against
// an existing embedded index. It is a development tool, not part of the
// served surfaces.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ragengine/config"
	"ragengine/internal/adapter/embedding"
	"ragengine/internal/adapter/store"
	"ragengine/internal/domain"
	"ragengine/internal/port"
)

func main() {
	cfgDir := flag.String("dir", ".", "Directory holding ragengine.yaml and the index")
	query := flag.String("q", "", "Query to probe")
	namespace := flag.String("n", string(domain.NamespaceDestinations), "Namespace to search")
	topK := flag.Int("k", 10, "Number of results")
	runs := flag.Int("runs", 5, "Repetitions for latency measurement")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir . -q \"query\" [-n namespace]")
		fmt.Println("\nProbes:")
		fmt.Println("  1. Store connectivity and corpus size")
		fmt.Println("  2. Hybrid retrieval quality for the query")
		fmt.Println("  3. Cold vs warm retrieval latency")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*cfgDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ns, err := domain.ParseNamespace(*namespace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	st, err := store.NewBoltStore(cfg.Storage.Path, cfg.Embedding.Dimension)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	var embedder port.Embedder
	if cfg.Embedding.Provider == "mock" {
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimension)
	} else {
		embedder, err = embedding.NewOpenAICompatibleEmbedder(
			cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL,
			cfg.Embedding.Dimension, cfg.Embedding.BatchSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Embedding provider unavailable: %v\n", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	fmt.Println("HYBRID RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	count, _ := st.Count(ctx, ns)
	fmt.Printf("Chunks indexed in %q: %d\n", ns, count)
	fmt.Printf("Model: %s (%s), dimension %d\n", cfg.Embedding.Model, cfg.Embedding.Provider, embedder.Dimension())
	fmt.Println()

	vectors, err := embedder.Embed(ctx, []string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query embedding failed: %v\n", err)
		os.Exit(1)
	}

	hq := port.HybridQuery{
		Namespace:      ns,
		Embedding:      vectors[0],
		Text:           *query,
		Limit:          *topK,
		Threshold:      0,
		KeywordWeight:  cfg.Retrieve.KeywordWeight,
		SemanticWeight: cfg.Retrieve.SemanticWeight,
	}

	fmt.Printf("Query: %q\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	results, err := st.HybridSearch(ctx, hq)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	for i, r := range results {
		preview := r.Content
		if len(preview) > 80 {
			preview = preview[:80] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")
		fmt.Printf("%2d. combined=%.4f sim=%.4f kw=%.4f %s[%d]\n    %s\n",
			i+1, r.CombinedScore, r.Similarity, r.KeywordRank, r.SourceID, r.ChunkIndex, preview)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
	}

	fmt.Println(strings.Repeat("-", 70))
	var total time.Duration
	for i := 0; i < *runs; i++ {
		start := time.Now()
		if _, err := st.HybridSearch(ctx, hq); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		total += time.Since(start)
	}
	fmt.Printf("Avg retrieval latency over %d runs: %s\n", *runs, total/time.Duration(*runs))
}
