package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sensiq/coldmail/internal/content"
	"github.com/sensiq/coldmail/internal/vector"
)

// productChunkID is the fixed id of the manually indexed product entry.
const productChunkID = "sn10_details"

// checkQueries check that the product entry is reachable after indexing.
var checkQueries = []string{
	"SN10",
	"SensIQ Product Details",
	"Technical Specifications",
	"Smart IoT Solution",
}

var forceUpdate bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load the knowledge base into the vector index",
	Long: `Split KNOWLEDGE_FILE (default components.txt) on blank lines and
upsert every chunk into the vector index, creating the index when it does
not exist. With --force-update the index is deleted and rebuilt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadIndexConfig()
		if err != nil {
			return err
		}
		log := console(cfg.Logger.Level)

		data, err := os.ReadFile(cfg.KnowledgeFile)
		if err != nil {
			return fmt.Errorf("read knowledge base: %w", err)
		}
		chunks := vector.Split(string(data))
		if len(chunks) == 0 {
			return fmt.Errorf("knowledge base %s is empty", cfg.KnowledgeFile)
		}

		ix := vector.NewIndexer(vector.NewClient(cfg.Vector, vector.WithLogger(log)), log)
		n, err := ix.Load(cmd.Context(), chunks, forceUpdate)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Indexed %d chunks into %s\n", n, ix.Index().Name())
		return nil
	},
}

var indexProductCmd = &cobra.Command{
	Use:   "index-product",
	Short: "Index the SN10 product details",
	Long: `Upsert the SN10 product details from the built-in catalog as a
single entry and run a few check queries against it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadIndexConfig()
		if err != nil {
			return err
		}
		log := console(cfg.Logger.Level)

		catalog, err := content.LoadCatalog()
		if err != nil {
			return err
		}

		ix := vector.NewIndexer(vector.NewClient(cfg.Vector, vector.WithLogger(log)), log)
		chunk := vector.Chunk{
			ID:       productChunkID,
			Text:     catalog.Product.KnowledgeChunk(),
			Metadata: map[string]any{"type": "product_info"},
		}
		if _, err := ix.Load(cmd.Context(), []vector.Chunk{chunk}, false); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		matches, err := ix.Probe(cmd.Context(), vector.ProductInfoQuery, 1)
		if err != nil {
			return err
		}
		if len(matches) == 0 || matches[0].ID != productChunkID {
			fmt.Fprintln(out, "! Product details may not be indexed yet")
		} else {
			fmt.Fprintf(out, "✓ Product details indexed (score %.4f)\n\n%s\n", matches[0].Score, matches[0].Text())
		}

		for _, q := range checkQueries {
			matches, err := ix.Probe(cmd.Context(), q, 1)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Fprintf(out, "%q: no matches\n", q)
				continue
			}
			fmt.Fprintf(out, "%q: %s (score %.4f)\n", q, matches[0].ID, matches[0].Score)
		}
		return nil
	},
}

var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Query the vector index for the product details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadIndexConfig()
		if err != nil {
			return err
		}
		log := console(cfg.Logger.Level)

		ix := vector.NewIndexer(vector.NewClient(cfg.Vector, vector.WithLogger(log)), log)
		out := cmd.OutOrStdout()

		stats, err := ix.Index().Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Index %s: %d vectors, dimension %d\n", ix.Index().Name(), stats.TotalVectorCount, stats.Dimension)

		matches, err := ix.Probe(cmd.Context(), vector.ProductInfoQuery, 1)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Fprintln(out, "No product details found")
			return nil
		}
		fmt.Fprintf(out, "Top match %s (score %.4f):\n%s\n", matches[0].ID, matches[0].Score, matches[0].Text())
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&forceUpdate, "force-update", false, "delete and recreate the index before loading")
}
