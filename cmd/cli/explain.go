package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/code-atlas/internal/wire"
)

var explainCmd = &cobra.Command{
	Use:   "explain <query>",
	Short: "Show how a query would be executed, without running it.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer cleanup()

		query := strings.Join(args, " ")
		explanation := app.Search.Explain(query)

		color.Cyan("Query: %s", explanation.OriginalQuery)
		fmt.Printf("type:        %s (confidence %.2f)\n", explanation.Intent.QueryType, explanation.Intent.Confidence)
		if len(explanation.Intent.EntityNames) > 0 {
			fmt.Printf("entities:    %v\n", explanation.Intent.EntityNames)
		}
		if len(explanation.Intent.NodeTypes) > 0 {
			fmt.Printf("node types:  %v\n", explanation.Intent.NodeTypes)
		}
		if len(explanation.Intent.ProgrammingTerms) > 0 {
			fmt.Printf("prog terms:  %v\n", explanation.Intent.ProgrammingTerms)
		}
		if len(explanation.Intent.SemanticTerms) > 0 {
			fmt.Printf("semantic:    %v\n", explanation.Intent.SemanticTerms)
		}
		fmt.Printf("expand ctx:  %v\n", explanation.Intent.ExpandContext)
		fmt.Printf("approach:    %s\n", explanation.Approach)
		for _, strategy := range explanation.SearchStrategy {
			fmt.Printf("  - %s\n", strategy)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
