package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"ragengine/internal/domain"
)

var (
	searchQuery     string
	searchNamespace string
	searchLimit     int
	searchRerank    bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a hybrid search against a namespace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := domain.ParseNamespace(searchNamespace)
		if err != nil {
			return err
		}

		chunkStore, err := buildStore(cfg)
		if err != nil {
			return err
		}
		defer chunkStore.Close()

		embedder, err := buildEmbedder(cfg)
		if err != nil {
			return err
		}

		searcher, _, err := buildSearcher(cfg, chunkStore, embedder)
		if err != nil {
			return err
		}

		params := domain.DefaultSearchParams(ns, searchQuery)
		params.Limit = searchLimit
		params.Threshold = cfg.Retrieve.Threshold
		params.KeywordWeight = cfg.Retrieve.KeywordWeight
		params.SemanticWeight = cfg.Retrieve.SemanticWeight
		params.UseReranking = searchRerank && cfg.Rerank.Enabled

		resp, err := searcher.Search(cmd.Context(), params)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().StringVarP(&searchNamespace, "namespace", "n", string(domain.NamespaceDestinations), "namespace to search")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", domain.DefaultLimit, "maximum results")
	searchCmd.Flags().BoolVar(&searchRerank, "rerank", true, "rerank top candidates when a provider is configured")
	_ = searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)
}
