package cli

import (
	"github.com/spf13/cobra"

	"ragengine/internal/mcptool"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the agent tool server over MCP stdio",
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

		server := mcptool.NewServer(indexer, searcher, cfg.Server.RequestsPerSecond, logger)
		logger.Info().Msg("mcp server on stdio")
		return server.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
