// Package main implements the styletranslator CLI: ingestion runs, index maintenance and search.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"StyleTranslator/internal/app"
	"StyleTranslator/internal/config"
	"StyleTranslator/internal/logging"
)

var (
	// configPath overrides STYLE_TRANSLATOR_CONFIG
	configPath string
	// jsonOutput switches every command to machine-readable output
	jsonOutput bool
	version    = "dev"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "styletranslator",
	Short: "Collect clothing aesthetics and search them semantically",
	Long: `styletranslator gathers clothing items, brand profiles and style discussions
from storefronts, marketplaces, forums and reddit, checkpoints them to disk and
indexes them for free-text aesthetic search.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")
}

// withApp loads config, builds the application and hands it a signal-aware context.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging.Level, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
