package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/code-atlas/internal/chunker"
	"github.com/sevigo/code-atlas/internal/config"
	"github.com/sevigo/code-atlas/internal/indexer"
	"github.com/sevigo/code-atlas/internal/wire"
)

var indexSummarize bool

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index a workspace into the graph store.",
	Long:  `Detects changed files under the given directory, parses them with the language chunkers, and applies the result to the graph store. Removed files are cascade-deleted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve workspace path: %w", err)
		}

		ctx := cmd.Context()
		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer cleanup()

		wsCfg, err := config.LoadWorkspaceConfig(root)
		if err != nil {
			if errors.Is(err, config.ErrWorkspaceConfigNotFound) {
				slog.Info("no .code-atlas.yml found, using defaults", "workspace", root)
			} else {
				slog.Warn("failed to parse .code-atlas.yml, using defaults", "error", err)
				wsCfg = config.DefaultWorkspaceConfig()
			}
		}
		for language, override := range wsCfg.Parsers {
			if len(override.Command) == 0 {
				continue
			}
			app.Pipeline.RegisterParser(chunker.ParserConfig{
				Language: language,
				Command:  override.Command,
				Timeout:  time.Duration(override.TimeoutSeconds) * time.Second,
			})
		}

		stats, err := app.Pipeline.Index(ctx, root, indexer.Options{
			Summarize:       indexSummarize,
			ExtraIgnoreDirs: wsCfg.ExcludeDirs,
		})
		if err != nil {
			return err
		}

		color.Green("✓ indexed %s", root)
		fmt.Println(stats)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexSummarize, "summarize", false, "Run summarization and embedding after ingestion.")
	rootCmd.AddCommand(indexCmd)
}
