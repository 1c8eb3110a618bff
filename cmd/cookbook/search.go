// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cookbook/internal/cookbook"
	"github.com/pdiddy/cookbook/internal/search"
	"github.com/pdiddy/cookbook/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search local recipes and the external provider",
	Long: `Search filters the local recipes by title, cuisine, and ingredients and,
at the same time, queries the external provider. The two result sets are
listed separately; a provider failure only empties the external list.

With --by-ingredients the provider is asked for recipes that use the given
ingredients instead of a text match.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := queryFromFlags(cmd, args)
		if err := validateQuery(q); err != nil {
			return err
		}

		svc, err := loadedService(cmd.Context())
		if err != nil {
			return err
		}
		warnProviderKey()

		res, err := svc.Search(cmd.Context(), q)
		if err != nil {
			return err
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatSearchOutput(res, jsonOutput)
	},
}

func queryFromFlags(cmd *cobra.Command, args []string) search.Query {
	q := search.Query{}
	if len(args) > 0 {
		q.Text = args[0]
	}
	if v, _ := cmd.Flags().GetString("query"); v != "" {
		q.Text = v
	}
	q.Cuisine, _ = cmd.Flags().GetString("cuisine")
	if v, _ := cmd.Flags().GetString("ingredients"); v != "" {
		q.Ingredients = search.ParseIngredients(v)
	}
	q.Limit, _ = cmd.Flags().GetInt("max-results")
	q.ByIngredients, _ = cmd.Flags().GetBool("by-ingredients")
	return q
}

// validateQuery rejects a search with nothing to match on.
func validateQuery(q search.Query) error {
	if q.IsEmpty() {
		return fmt.Errorf("query required: provide search text, --cuisine, or --ingredients: %w", types.ErrInvalid)
	}
	if q.ByIngredients && len(q.Ingredients) == 0 {
		return fmt.Errorf("--by-ingredients needs --ingredients: %w", types.ErrInvalid)
	}
	return nil
}

func formatSearchOutput(res cookbook.SearchResult, jsonOutput bool) error {
	if jsonOutput {
		out := struct {
			cookbook.SearchResult
			ExternalError string `json:"externalError,omitempty"`
		}{SearchResult: res}
		if res.ExternalErr != nil {
			out.ExternalError = res.ExternalErr.Error()
		}
		return printer.JSON(out)
	}

	printer.Header(fmt.Sprintf("Your recipes (%d)", len(res.Local)))
	if err := printer.RecipeTable(res.Local, "No local matches."); err != nil {
		return err
	}

	printer.Header(fmt.Sprintf("From the web (%d)", len(res.External)))
	if res.ExternalErr != nil {
		printer.Warning("External search failed: %s", describe(res.ExternalErr))
		return nil
	}
	return printer.RecipeTable(res.External, "No external matches.")
}

func init() {
	searchCmd.Flags().String("query", "", "free-text query (same as the positional argument)")
	searchCmd.Flags().String("cuisine", "", "filter by cuisine")
	searchCmd.Flags().String("ingredients", "", "comma-separated ingredients")
	searchCmd.Flags().Int("max-results", 0, "maximum external results (default provider.search_limit)")
	searchCmd.Flags().Bool("by-ingredients", false, "ask the provider for recipes using --ingredients")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
