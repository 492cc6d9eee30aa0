package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/code-atlas/internal/wire"
)

var (
	apiHost string
	apiPort string
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the search API over HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer cleanup()

		if apiHost != "" || apiPort != "" {
			app.OverrideListenAddr(apiHost, apiPort)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- app.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			if err := app.Stop(); err != nil {
				return err
			}
			return ctx.Err()
		}
	},
}

func init() {
	apiCmd.Flags().StringVar(&apiHost, "host", "", "Listen address (overrides configuration).")
	apiCmd.Flags().StringVar(&apiPort, "port", "", "Listen port (overrides configuration).")
	rootCmd.AddCommand(apiCmd)
}
