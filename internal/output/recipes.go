// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/cookbook/pkg/types"
)

const maxTitle = 48

// RecipeTable prints view items as a table. An empty list prints empty.
func (p *Printer) RecipeTable(items []types.ViewItem, empty string) error {
	if len(items) == 0 {
		p.Print("%s", p.Dim(empty))
		return nil
	}
	t := NewTable(p.out, []string{"", "ID", "Title", "Cuisine", "Time", "Source"})
	for _, it := range items {
		t.AddRow(p.Heart(it.Favorite), it.ID.String(), truncate(it.Title, maxTitle),
			it.Cuisine, minutes(it.Time), source(it))
	}
	return t.Render()
}

// FavoriteTable prints raw favorite records.
func (p *Printer) FavoriteTable(favs []types.FavoriteRecord) error {
	if len(favs) == 0 {
		p.Print("%s", p.Dim("No favorites yet."))
		return nil
	}
	t := NewTable(p.out, []string{"ID", "Recipe", "Origin"})
	for _, f := range favs {
		t.AddRow(f.ID, f.RecipeID.String(), f.RecipeID.Origin.String())
	}
	return t.Render()
}

// Recipe prints one item as a full page: title, facts, ingredients, and steps.
func (p *Printer) Recipe(it types.ViewItem) {
	title := p.Bold(it.Title)
	if heart := p.Heart(it.Favorite); heart != "" {
		title += " " + heart
	}
	p.Print("%s", title)

	var facts []string
	if it.Cuisine != "" {
		facts = append(facts, it.Cuisine)
	}
	if it.Time > 0 {
		facts = append(facts, minutes(it.Time))
	}
	facts = append(facts, source(it))
	p.Print("%s", p.Dim(strings.Join(facts, " · ")))
	if it.Image != "" {
		p.Print("%s", p.Dim(it.Image))
	}

	p.Header("Ingredients")
	if len(it.Ingredients) == 0 {
		p.Print("%s", p.Dim("(none listed)"))
	}
	for _, ing := range it.Ingredients {
		p.Print("  • %s", ing)
	}

	p.Header("Steps")
	if len(it.Steps) == 0 {
		p.Print("%s", p.Dim("(none listed)"))
	}
	for i, step := range it.Steps {
		p.Print("  %d. %s", i+1, step)
	}
}

// BookPage prints the current book page. The cover lists the contents.
func (p *Printer) BookPage(label string, current types.ViewItem, onCover bool, contents []types.ViewItem) {
	p.Header(label)
	if onCover {
		if len(contents) == 0 {
			p.Print("%s", p.Dim("This book is empty. Favorite or write a recipe to fill it."))
			return
		}
		for i, it := range contents {
			p.Print("  %2d. %s", i+1, it.Title)
		}
		return
	}
	p.Recipe(current)
}

func source(it types.ViewItem) string {
	switch {
	case it.ID.IsExternal():
		return "external"
	case it.Mine:
		return "mine"
	default:
		return "local"
	}
}

func minutes(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n) + " min"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return fmt.Sprintf("%s…", string(r[:n-1]))
}
