// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cookbook/internal/aggregate"
	"github.com/pdiddy/cookbook/pkg/types"
)

var recipesCmd = &cobra.Command{
	Use:     "recipes",
	Aliases: []string{"recipe"},
	Short:   "List, show, and author recipes",
	Long: `Recipes manages the local recipe store. Anyone can list and read recipes;
editing and deleting are limited to the recipe's author. External recipes
can be read with "recipes show ext-<id>" but never edited.`,
}

// --- list ---

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local recipes",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadedService(cmd.Context())
		if err != nil {
			return err
		}
		mine, _ := cmd.Flags().GetBool("mine")
		userID := svc.Session().UserID()
		if mine && userID == "" {
			_, err := requireUser(svc)
			return err
		}

		items := make([]types.ViewItem, 0, len(svc.Recipes()))
		for _, r := range svc.Recipes() {
			if mine && r.AuthorID != userID {
				continue
			}
			items = append(items, aggregate.FromRecipe(r))
		}
		items = aggregate.Annotate(items, svc.Favorites(), userID)

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printer.JSON(items)
		}
		return printer.RecipeTable(items, "No recipes yet.")
	},
}

// --- show ---

var recipesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recipe (local id or ext-<provider id>)",
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
		if ref.IsExternal() {
			warnProviderKey()
		}
		item, err := svc.RecipeDetail(cmd.Context(), ref)
		if err != nil {
			return fmt.Errorf("%s", describe(err))
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return printer.JSON(item)
		}
		printer.Recipe(item)
		return nil
	},
}

// --- add ---

var recipesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Write a new recipe",
	Long: `Add stores a new recipe authored by the signed-in user. Fields come from
flags or from a YAML/JSON file given with --file; flags override the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadedService(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := requireUser(svc); err != nil {
			return err
		}

		var in types.RecipeInput
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			if in, err = readRecipeFile(path); err != nil {
				return err
			}
		}
		applyRecipeFlags(cmd, &in)

		r, err := svc.CreateRecipe(cmd.Context(), in)
		if err != nil {
			return err
		}
		printer.Success("Created %q (%s)", r.Title, r.ID)
		return nil
	},
}

// --- edit ---

var recipesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a recipe you wrote",
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
		if ref.IsExternal() {
			return fmt.Errorf("external recipes cannot be edited: %w", types.ErrInvalid)
		}

		current, err := svc.RecipeDetail(cmd.Context(), ref)
		if err != nil {
			return err
		}
		in := types.RecipeInput{
			Title:       current.Title,
			Image:       current.Image,
			Cuisine:     current.Cuisine,
			Time:        current.Time,
			Ingredients: current.Ingredients,
			Steps:       current.Steps,
			AuthorID:    current.AuthorID,
		}
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			if in, err = readRecipeFile(path); err != nil {
				return err
			}
		}
		applyRecipeFlags(cmd, &in)

		r, err := svc.UpdateRecipe(cmd.Context(), ref, in)
		if err != nil {
			return fmt.Errorf("%s", describe(err))
		}
		printer.Success("Updated %q", r.Title)
		return nil
	},
}

// --- delete ---

var recipesDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a recipe you wrote",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := types.ParseRecipeRef(args[0])
		if err != nil {
			return err
		}
		svc, err := loadedService(cmd.Context())
		if err != nil {
			return err
		}
		if err := svc.DeleteRecipe(cmd.Context(), ref); err != nil {
			return fmt.Errorf("%s", describe(err))
		}
		printer.Success("Deleted %s", ref)
		return nil
	},
}

// readRecipeFile decodes a RecipeInput from YAML or JSON by extension.
func readRecipeFile(path string) (types.RecipeInput, error) {
	var in types.RecipeInput
	data, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("reading recipe file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &in)
	} else {
		err = yaml.Unmarshal(data, &in)
	}
	if err != nil {
		return in, fmt.Errorf("parsing recipe file %s: %w", path, err)
	}
	return in, nil
}

// applyRecipeFlags overwrites the fields whose flags were set.
func applyRecipeFlags(cmd *cobra.Command, in *types.RecipeInput) {
	f := cmd.Flags()
	if f.Changed("title") {
		in.Title, _ = f.GetString("title")
	}
	if f.Changed("image") {
		in.Image, _ = f.GetString("image")
	}
	if f.Changed("cuisine") {
		in.Cuisine, _ = f.GetString("cuisine")
	}
	if f.Changed("time") {
		in.Time, _ = f.GetInt("time")
	}
	if f.Changed("ingredient") {
		in.Ingredients, _ = f.GetStringArray("ingredient")
	}
	if f.Changed("step") {
		in.Steps, _ = f.GetStringArray("step")
	}
}

func addRecipeFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "read the recipe from a YAML or JSON file")
	cmd.Flags().String("title", "", "recipe title")
	cmd.Flags().String("image", "", "image URL")
	cmd.Flags().String("cuisine", "", "cuisine, e.g. Italian")
	cmd.Flags().Int("time", 0, "preparation time in minutes")
	cmd.Flags().StringArray("ingredient", nil, "ingredient line (repeatable)")
	cmd.Flags().StringArray("step", nil, "instruction step (repeatable)")
}

func init() {
	recipesListCmd.Flags().Bool("mine", false, "only recipes you wrote")
	recipesListCmd.Flags().Bool("json", false, "output as JSON")
	recipesShowCmd.Flags().Bool("json", false, "output as JSON")
	addRecipeFlags(recipesAddCmd)
	addRecipeFlags(recipesEditCmd)

	recipesCmd.AddCommand(recipesListCmd, recipesShowCmd, recipesAddCmd, recipesEditCmd, recipesDeleteCmd)
	rootCmd.AddCommand(recipesCmd)
}
