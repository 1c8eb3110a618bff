// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cookbook/internal/aggregate"
	"github.com/pdiddy/cookbook/pkg/types"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "List and toggle favorites",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your favorite recipes from both sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := loadedService(ctx)
		if err != nil {
			return err
		}
		if _, err := requireUser(svc); err != nil {
			return err
		}

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			return printer.FavoriteTable(svc.Favorites())
		}

		if len(aggregate.ExternalFavoriteRefs(svc.Favorites())) > 0 {
			warnProviderKey()
		}
		view, err := svc.OpenBook(ctx, aggregate.ModeFavorites)
		if err != nil {
			return err
		}
		defer view.Close()
		items := view.Items()

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printer.JSON(items)
		}
		if missing := len(svc.Favorites()) - len(items); missing > 0 {
			printer.Warning("%d external favorite(s) could not be loaded.", missing)
		}
		return printer.RecipeTable(items, "No favorites yet.")
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Add or remove a favorite (local id or ext-<provider id>)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := types.ParseRecipeRef(args[0])
		if err != nil {
			return err
		}
		svc, err := loadedService(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.ToggleFavorite(cmd.Context(), ref)
		if errors.Is(err, types.ErrUnauthorized) {
			return fmt.Errorf("sign in to keep favorites: %w", err)
		}
		if err != nil {
			return err
		}
		if res.Removed {
			printer.Success("Removed %s from favorites", ref)
		} else {
			printer.Success("Added %s to favorites", ref)
		}
		return nil
	},
}

func init() {
	favoritesListCmd.Flags().Bool("raw", false, "show favorite records without resolving recipes")
	favoritesListCmd.Flags().Bool("json", false, "output as JSON")

	favoritesCmd.AddCommand(favoritesListCmd, favoritesToggleCmd)
	rootCmd.AddCommand(favoritesCmd)
}
