package cli

import (
	"github.com/spf13/cobra"

	"ragengine/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		indexer := buildIndexer(cfg, chunkStore, embedder)

		limiter := httpapi.NewCallerLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst)
		server := httpapi.NewServer(indexer, searcher, limiter, logger)

		logger.Info().Str("addr", cfg.Server.Addr).Msg("http api listening")
		return server.Router().Run(cfg.Server.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
