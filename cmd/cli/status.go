package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/code-atlas/internal/wire"
)

var statusValidate bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show graph store contents and summarization progress.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer cleanup()

		stats, err := app.Search.Stats(ctx)
		if err != nil {
			return err
		}

		color.Cyan("Graph store")
		if stats.StoreVersion != "" {
			fmt.Printf("  version: %s\n", stats.StoreVersion)
		}
		fmt.Printf("  files: %d (%d bytes)\n", stats.FileCount, stats.TotalSize)
		if len(stats.Languages) > 0 {
			fmt.Printf("  languages: %v\n", stats.Languages)
		}

		color.Cyan("Nodes")
		for _, label := range sortedKeys(stats.NodeCounts) {
			fmt.Printf("  %-12s %d\n", label, stats.NodeCounts[label])
		}

		color.Cyan("Relationships")
		for _, relType := range sortedKeys(stats.RelationshipCounts) {
			fmt.Printf("  %-12s %d\n", relType, stats.RelationshipCounts[relType])
		}

		color.Cyan("Embeddings")
		for _, label := range sortedKeys(stats.NodesWithEmbeddings) {
			fmt.Printf("  %-12s %d\n", label, stats.NodesWithEmbeddings[label])
		}
		if stats.EmbeddedWithoutSummary > 0 {
			color.Yellow("  %d nodes embedded from raw code without a summary", stats.EmbeddedWithoutSummary)
		}

		progress, err := app.Pipeline.Progress(ctx)
		if err != nil {
			return err
		}
		if len(progress) > 0 {
			color.Cyan("Summarization")
			for _, level := range sortedKeys(progress) {
				p := progress[level]
				fmt.Printf("  %-12s %d/%d done, %d processing\n", level, p.Completed, p.Total, p.Processing)
			}
		}

		if statusValidate {
			color.Cyan("Parsers")
			results := app.Pipeline.ValidateParsers(ctx)
			for _, language := range sortedKeys(results) {
				if results[language] {
					color.Green("  %-12s ok", language)
				} else {
					color.Red("  %-12s unavailable", language)
				}
			}
		}
		return nil
	},
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	statusCmd.Flags().BoolVar(&statusValidate, "validate", false, "Probe every configured parser executable.")
	rootCmd.AddCommand(statusCmd)
}
