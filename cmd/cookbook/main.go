// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cookbook CLI: browse and author
// local recipes, search the external provider, keep favorites from both, and
// read them as a paged book. `cookbook serve` runs the local store itself.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cookbook/internal/logging"
	"github.com/pdiddy/cookbook/internal/output"
	"github.com/pdiddy/cookbook/internal/secrets"
	"github.com/pdiddy/cookbook/pkg/types"
)

var (
	cfg           types.Config
	logger        *slog.Logger
	printer       *output.Printer
	loadedSecrets secrets.Set
)

// rootCmd is the base command for the cookbook CLI.
var rootCmd = &cobra.Command{
	Use:   "cookbook",
	Short: "Browse, search, and favorite recipes from your store and the web",
	Long: `cookbook keeps your recipes in a local store and lets you search them
together with an external recipe provider. Favorites can point at either
source; the book command pages through your favorites or your own recipes.

Run "cookbook serve" to start the bundled store, or point store.base_url at
an existing json-server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./cookbook.yaml or ~/.config/cookbook/cookbook.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("color", "auto", "color output: auto, always, never")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of secret files")
	rootCmd.PersistentFlags().String("store-url", "", "local store base URL (overrides store.base_url)")

	_ = viper.BindPFlag("store.base_url", rootCmd.PersistentFlags().Lookup("store-url"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cookbook")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cookbook"))
		}
	}

	setDefaults()

	viper.SetEnvPrefix("COOKBOOK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults() {
	viper.SetDefault("http.timeout", 30*time.Second)
	viper.SetDefault("http.user_agent", "cookbook/"+version)

	viper.SetDefault("store.base_url", "http://localhost:5000")

	viper.SetDefault("provider.base_url", "https://api.spoonacular.com")
	viper.SetDefault("provider.api_key", "")
	viper.SetDefault("provider.rate_per_second", 1.0)
	viper.SetDefault("provider.max_retries", 5)
	viper.SetDefault("provider.search_limit", 12)

	viper.SetDefault("cache.max_entries", 0)
	viper.SetDefault("book.reset_on_mode_switch", true)
	viper.SetDefault("session.path", "")

	viper.SetDefault("server.addr", ":5000")
	viper.SetDefault("server.data_dir", "data")
	viper.SetDefault("server.seed", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// setup loads configuration, the logger, the printer, and secrets for every
// subcommand.
func setup(cmd *cobra.Command) error {
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	log, err := logging.New(os.Stderr, cfg.Logging, verbose)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	logger = log
	slog.SetDefault(logger)

	colorFlag, _ := cmd.Flags().GetString("color")
	mode, err := output.ParseColorMode(colorFlag)
	if err != nil {
		return err
	}
	printer = output.NewPrinter(mode)

	dir, _ := cmd.Flags().GetString("secrets-dir")
	s, err := secrets.Load(dir, logger)
	if err != nil {
		return err
	}
	loadedSecrets = s
	if keys := s.Keys(); len(keys) > 0 {
		slices.Sort(keys)
		logger.Debug("loaded secrets", slog.Any("keys", keys))
	}
	cfg.Provider.APIKey = loadedSecrets.Resolve(secrets.ProviderAPIKey, cfg.Provider.APIKey)

	logger.Debug("configuration loaded",
		slog.String("store", cfg.Store.BaseURL),
		slog.String("provider", cfg.Provider.BaseURL),
		slog.Bool("provider_key", cfg.Provider.APIKey != ""),
	)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
