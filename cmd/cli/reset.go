package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/code-atlas/internal/wire"
)

var resetConfirm bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear stale summarization leases.",
	Long:  `Removes every 'processing' marker left behind by an interrupted run. Only do this when no summarizer is running.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !resetConfirm {
			return fmt.Errorf("refusing to reset without --confirm")
		}

		ctx := cmd.Context()
		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer cleanup()

		cleared, err := app.Pipeline.Reset(ctx)
		if err != nil {
			return err
		}
		color.Green("✓ cleared %d leases", cleared)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirm, "confirm", false, "Actually perform the reset.")
	rootCmd.AddCommand(resetCmd)
}
