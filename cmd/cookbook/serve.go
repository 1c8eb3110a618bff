// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cookbook/internal/api"
	"github.com/pdiddy/cookbook/internal/recipedb"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local recipe store",
	Long: `Serve runs the recipe store over HTTP on server.addr, backed by a SQLite
database in server.data_dir. Its routes match a json-server db.json with
recipes, favorites, and users, so either can back the other commands.

With --seed (or server.seed) a YAML or JSON file is imported at startup;
a json-server db.json can be used as-is.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := recipedb.Open(cfg.Server.DataDir, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.Server.Seed != "" {
			if _, err := db.ImportFile(ctx, cfg.Server.Seed); err != nil {
				return err
			}
		}

		logger.Info("store database ready", slog.String("path", db.Path()))
		return api.New(db, logger).Run(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default server.addr, :5000)")
	serveCmd.Flags().String("data-dir", "", "directory for cookbook.db (default server.data_dir)")
	serveCmd.Flags().String("seed", "", "YAML or JSON file to import at startup")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.data_dir", serveCmd.Flags().Lookup("data-dir"))
	_ = viper.BindPFlag("server.seed", serveCmd.Flags().Lookup("seed"))

	rootCmd.AddCommand(serveCmd)
}
