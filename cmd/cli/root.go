package main

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "atlas",
	Short:         "atlas indexes a code workspace into a searchable property graph",
	Long:          `Code Atlas parses a multi-language workspace into a property graph, enriches it with LLM summaries and vector embeddings, and answers natural-language queries over it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
