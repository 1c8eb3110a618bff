// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cookbook/internal/aggregate"
	"github.com/pdiddy/cookbook/internal/cookbook"
)

const bookHelp = "n next · p previous · <number> go to page · 0 cover · f favorite · m switch list · q quit"

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Page through your favorites or your own recipes",
	Long: `Book opens your favorites (or, with --mode mine, the recipes you wrote) as
a book: page 0 is the cover listing the contents, each following page is one
recipe. Commands are read from standard input:

  ` + bookHelp,
	RunE: runBook,
}

func runBook(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := aggregate.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	svc, err := loadedService(ctx)
	if err != nil {
		return err
	}
	if _, err := requireUser(svc); err != nil {
		return err
	}
	if mode == aggregate.ModeFavorites && len(aggregate.ExternalFavoriteRefs(svc.Favorites())) > 0 {
		warnProviderKey()
	}

	view, err := svc.OpenBook(ctx, mode)
	if err != nil {
		return err
	}
	defer view.Close()

	if page, _ := cmd.Flags().GetInt("page"); page > 0 {
		view.FlipTo(page)
	}
	showPage(view)

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(cmd.OutOrStdout(), "> ")
		if !in.Scan() {
			fmt.Fprintln(cmd.OutOrStdout())
			return in.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.ToLower(strings.TrimSpace(in.Text()))
		switch line {
		case "":
			continue
		case "q", "quit", "exit":
			return nil
		case "n", "next":
			view.Next()
		case "p", "prev":
			view.Prev()
		case "m", "mode":
			next := aggregate.ModeMine
			if view.Mode() == aggregate.ModeMine {
				next = aggregate.ModeFavorites
			}
			if err := view.SetMode(next); err != nil {
				return err
			}
			if next == aggregate.ModeFavorites {
				if err := view.Sync(ctx); err != nil {
					printer.Warning("Some external favorites could not be loaded: %s", describe(err))
				}
			}
		case "f", "fav":
			cur, ok := view.Current()
			if !ok {
				printer.Warning("Turn to a recipe page to toggle its favorite.")
				continue
			}
			res, err := svc.ToggleFavorite(ctx, cur.ID)
			if err != nil {
				printer.Error("%s", describe(err))
				continue
			}
			if res.Removed {
				printer.Success("Removed %q from favorites", cur.Title)
			} else {
				printer.Success("Added %q to favorites", cur.Title)
			}
		case "h", "help", "?":
			printer.Print("%s", bookHelp)
			continue
		default:
			n, err := strconv.Atoi(line)
			if err != nil {
				printer.Warning("Unknown command %q. %s", line, bookHelp)
				continue
			}
			view.FlipTo(n)
		}
		showPage(view)
	}
}

func showPage(view *cookbook.BookView) {
	cur, ok := view.Current()
	printer.BookPage(fmt.Sprintf("%s · %s", view.Mode(), view.Label()), cur, !ok, view.Items())
}

func init() {
	bookCmd.Flags().String("mode", string(aggregate.ModeFavorites), "list to open: favorites or mine")
	bookCmd.Flags().Int("page", 0, "page to open at (0 is the cover)")

	rootCmd.AddCommand(bookCmd)
}
