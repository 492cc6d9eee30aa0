package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/code-atlas/internal/wire"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Generate summaries and embeddings for indexed nodes.",
	Long:  `Walks the summarization levels bottom-up until every eligible node carries a summary, then fills missing embeddings.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer cleanup()

		counts, embedded, err := app.Pipeline.Enrich(ctx)
		if err != nil {
			return err
		}

		total := 0
		for _, n := range counts {
			total += n
		}
		color.Green("✓ summarized %d nodes, embedded %d nodes", total, embedded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}
