// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs a recipe query against the local snapshot and the
// external provider at the same time. The two sources fail independently:
// a provider error empties the external list but never the local one.
package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/pdiddy/cookbook/internal/provider"
	"github.com/pdiddy/cookbook/pkg/types"
)

// Gateway is the part of the provider the coordinator uses.
type Gateway interface {
	Search(ctx context.Context, q provider.Query) ([]types.ExternalSummary, error)
	FindByIngredients(ctx context.Context, ingredients []string, limit int) ([]types.ExternalSummary, error)
}

// Query holds the search parameters. Empty fields do not filter.
type Query struct {
	Text        string
	Cuisine     string
	Ingredients []string

	// Limit caps the external result count; zero uses the coordinator default.
	Limit int

	// ByIngredients sends the ingredient list to the provider's
	// find-by-ingredients endpoint instead of the text search.
	ByIngredients bool
}

// IsEmpty reports whether the query has no terms at all.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == "" && strings.TrimSpace(q.Cuisine) == "" && len(q.Ingredients) == 0
}

// Result holds both result sets. ExternalErr is set when the provider
// failed; External is then empty.
type Result struct {
	Local       []types.Recipe
	External    []types.ExternalSummary
	ExternalErr error
}

// ExternalOutcome is the provider half of a search, delivered on its own.
type ExternalOutcome struct {
	Results []types.ExternalSummary
	Err     error
}

// Coordinator runs searches. A nil gateway searches locally only.
type Coordinator struct {
	gateway Gateway
	limit   int
	log     *slog.Logger
}

// NewCoordinator returns a coordinator. limit is the default external result
// count.
func NewCoordinator(g Gateway, limit int, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if limit <= 0 {
		limit = provider.DefaultSearchLimit
	}
	return &Coordinator{gateway: g, limit: limit, log: log}
}

// Start filters recipes and launches the provider query. The local result is
// returned immediately; the external outcome arrives on the channel, which
// receives exactly one value and is then closed.
func (c *Coordinator) Start(ctx context.Context, recipes []types.Recipe, q Query) ([]types.Recipe, <-chan ExternalOutcome) {
	ch := make(chan ExternalOutcome, 1)
	if c.gateway == nil {
		ch <- ExternalOutcome{}
		close(ch)
		return FilterLocal(recipes, q), ch
	}

	go func() {
		defer close(ch)
		results, err := c.external(ctx, q)
		if err != nil {
			c.log.Warn("external search failed", slog.String("query", q.Text), slog.Any("error", err))
			ch <- ExternalOutcome{Err: err}
			return
		}
		ch <- ExternalOutcome{Results: results}
	}()

	return FilterLocal(recipes, q), ch
}

// Search waits for both halves.
func (c *Coordinator) Search(ctx context.Context, recipes []types.Recipe, q Query) Result {
	local, ch := c.Start(ctx, recipes, q)
	out := <-ch
	return Result{Local: local, External: out.Results, ExternalErr: out.Err}
}

func (c *Coordinator) external(ctx context.Context, q Query) ([]types.ExternalSummary, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = c.limit
	}
	if q.ByIngredients {
		return c.gateway.FindByIngredients(ctx, q.Ingredients, limit)
	}
	return c.gateway.Search(ctx, provider.Query{
		Text:    strings.TrimSpace(q.Text),
		Cuisine: strings.TrimSpace(q.Cuisine),
		Limit:   limit,
	})
}

// FilterLocal returns the recipes matching every non-empty criterion, in
// input order. The returned slice never aliases recipes.
func FilterLocal(recipes []types.Recipe, q Query) []types.Recipe {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	cuisine := strings.ToLower(strings.TrimSpace(q.Cuisine))
	terms := normalizeTerms(q.Ingredients)

	out := make([]types.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if text != "" && !strings.Contains(strings.ToLower(r.Title), text) {
			continue
		}
		if cuisine != "" && !strings.Contains(strings.ToLower(r.Cuisine), cuisine) {
			continue
		}
		if len(terms) > 0 && !anyIngredient(r.Ingredients, terms) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ParseIngredients splits a comma-separated list into lower-case terms,
// dropping blanks.
func ParseIngredients(csv string) []string {
	return normalizeTerms(strings.Split(csv, ","))
}

func normalizeTerms(raw []string) []string {
	var terms []string
	for _, t := range raw {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// anyIngredient reports whether some term occurs in some ingredient.
func anyIngredient(ingredients, terms []string) bool {
	return slices.ContainsFunc(ingredients, func(ing string) bool {
		ing = strings.ToLower(ing)
		return slices.ContainsFunc(terms, func(t string) bool {
			return strings.Contains(ing, t)
		})
	})
}
