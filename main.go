package main

import (
	"context"
	"fmt"
	"os"

	"ctox-dashboard/internal/config"
	"ctox-dashboard/internal/providers/graph"
	"ctox-dashboard/pkg/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// rootCmd serves the dashboard when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "ctox-dashboard",
	Short: "Collections dashboard backend for accredited labs and companies",
	Long: `Loads the newest labs and companies spreadsheets from a SharePoint or
OneDrive library (or local folders), classifies them and serves the
dashboard API.

Available subcommands:
  serve - Run the HTTP server (default)
  check - Verify the connection to the remote library`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runServe,
}

var (
	cfg    *config.Config
	logger *zap.Logger
)

func init() {
	rootCmd.AddCommand(serveCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads .env, the configuration and the logger before any command
func setup(*cobra.Command, []string) error {
	// .env is for local development; containers pass real environment variables
	if os.Getenv("DOCKER_ENV") == "" {
		_ = godotenv.Load()
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	logger, err = newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// newConnector builds a connector for the configured library, acting for
// identity when a user is signed in. The configuration is validated here so
// a misconfigured library fails before any request.
func newConnector(_ context.Context, identity *models.DelegatedIdentity) (*graph.Connector, error) {
	gcfg, err := cfg.Secrets.ConnectorConfig(identity)
	if err != nil {
		return nil, err
	}
	conn := graph.NewConnector(gcfg, graph.WithLogger(logger))
	if _, err := conn.Mode(); err != nil {
		return nil, err
	}
	return conn, nil
}
