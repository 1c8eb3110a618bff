// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cookbook/internal/recipedb"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Import and export the bundled store database",
	Long: `Store works directly on the SQLite database in server.data_dir, without
going through a running server.`,
}

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole store as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		formatFlag, _ := cmd.Flags().GetString("format")
		if formatFlag == "" {
			formatFlag = "yaml"
			if strings.EqualFold(filepath.Ext(out), ".json") {
				formatFlag = "json"
			}
		}
		format, err := recipedb.ParseFormat(formatFlag)
		if err != nil {
			return err
		}

		db, err := recipedb.Open(dataDir(cmd), logger)
		if err != nil {
			return err
		}
		defer db.Close()

		var w io.Writer = cmd.OutOrStdout()
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := db.Export(cmd.Context(), w, format); err != nil {
			return err
		}
		if out != "" {
			printer.Success("Exported %s to %s", db.Path(), out)
		}
		return nil
	},
}

var storeImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import recipes, favorites, and users from a YAML or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := recipedb.Open(dataDir(cmd), logger)
		if err != nil {
			return err
		}
		defer db.Close()

		sum, err := db.ImportFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printer.Success("Imported %d recipes, %d favorites, %d users", sum.Recipes, sum.Favorites, sum.Users)
		return nil
	},
}

// dataDir prefers --data-dir over server.data_dir.
func dataDir(cmd *cobra.Command) string {
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		return dir
	}
	return cfg.Server.DataDir
}

func init() {
	storeExportCmd.Flags().String("out", "", "write to this file instead of stdout")
	storeExportCmd.Flags().String("format", "", "yaml or json (default from --out extension, else yaml)")
	storeCmd.PersistentFlags().String("data-dir", "", "directory holding cookbook.db (default server.data_dir)")

	storeCmd.AddCommand(storeExportCmd, storeImportCmd)
	rootCmd.AddCommand(storeCmd)
}
