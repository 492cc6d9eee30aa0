package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/code-atlas/internal/wire"
)

var (
	searchMaxResults     int
	searchMinSimilarity  float64
	searchNodeTypes      []string
	searchIncludeContext bool
	searchShowCode       bool
	searchSimilarTo      string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed workspace.",
	Long:  `Runs a hybrid search combining vector similarity, exact-name lookup, and graph context expansion, and prints the ranked results.`,
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer cleanup()

		if searchSimilarTo != "" {
			results, err := app.Search.Similar(ctx, searchSimilarTo, searchMaxResults)
			if err != nil {
				return err
			}
			color.Cyan("%d nodes similar to %s", len(results), searchSimilarTo)
			for i, result := range results {
				fmt.Printf("%2d. %s (%s)  score=%.3f\n", i+1, result.Name, result.NodeType, result.Score)
			}
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("a query is required unless --similar is given")
		}
		query := strings.Join(args, " ")

		cfg := app.Cfg.Search
		if searchMaxResults > 0 {
			cfg.MaxTotalResults = searchMaxResults
		}
		if searchMinSimilarity > 0 {
			cfg.MinSimilarity = searchMinSimilarity
		}
		cfg.NodeTypes = searchNodeTypes
		cfg.EnableContextExpansion = searchIncludeContext
		cfg.IncludeSourceCode = searchShowCode

		response, err := app.Search.Search(ctx, query, cfg)
		if err != nil {
			return err
		}

		color.Cyan("%d results in %.1f ms", response.TotalResults, response.SearchTimeMS)
		for i, result := range response.Results {
			fmt.Printf("%2d. %s (%s)  score=%.3f  match=%s\n",
				i+1, result.Result.Name, result.Result.NodeType, result.HybridScore, result.MatchType)
			if result.Result.Summary != "" {
				fmt.Printf("    %s\n", result.Result.Summary)
			}
			if path, ok := result.Result.Metadata["path"]; ok {
				fmt.Printf("    %v\n", path)
			}
			if searchShowCode && result.Result.RawCode != "" {
				fmt.Println(result.Result.RawCode)
			}
		}
		if response.Context != nil {
			fmt.Printf("context: %d related nodes\n", len(response.Context.RelatedNodes))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "Maximum number of results.")
	searchCmd.Flags().Float64Var(&searchMinSimilarity, "min-similarity", 0, "Minimum vector similarity threshold.")
	searchCmd.Flags().StringSliceVar(&searchNodeTypes, "node-types", nil, "Restrict to these node labels.")
	searchCmd.Flags().BoolVar(&searchIncludeContext, "context", true, "Expand graph context around the top results.")
	searchCmd.Flags().BoolVar(&searchShowCode, "code", false, "Print raw source code of each result.")
	searchCmd.Flags().StringVar(&searchSimilarTo, "similar", "", "Find nodes similar to the given node id instead of searching by text.")
	rootCmd.AddCommand(searchCmd)
}
