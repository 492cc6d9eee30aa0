//go:build wireinject
// +build wireinject

// Package wire assembles the application object graph.
package wire

import (
	"context"
	"io"
	"os"

	"github.com/google/wire"

	"github.com/sevigo/code-atlas/internal/app"
	"github.com/sevigo/code-atlas/internal/config"
	"github.com/sevigo/code-atlas/internal/logger"
)

// InitializeApp builds the fully wired application.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(
		config.LoadConfig,
		provideLoggerConfig,
		provideLogWriter,
		logger.NewLogger,
		app.NewApp,
	)
	return nil, nil, nil
}

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logging
}

func provideLogWriter(cfg *config.Config) io.Writer {
	switch cfg.Logging.Output {
	case "stderr":
		return os.Stderr
	default:
		return os.Stdout
	}
}
