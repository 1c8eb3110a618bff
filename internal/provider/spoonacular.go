// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider talks to the external recipe provider (a Spoonacular
// compatible API). It translates between the provider's numeric ids and the
// cookbook's "ext-" namespace and performs no caching of its own.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/cookbook/internal/httputil"
	"github.com/pdiddy/cookbook/pkg/types"
)

// DefaultBaseURL is the public Spoonacular API root.
const DefaultBaseURL = "https://api.spoonacular.com"

// DefaultSearchLimit is the number of results requested when a query does
// not specify one.
const DefaultSearchLimit = 12

const maxSearchLimit = 100

// Query holds the provider search parameters.
type Query struct {
	Text    string
	Cuisine string
	Limit   int
}

// Gateway is the external recipe gateway.
type Gateway struct {
	baseURL   string
	apiKey    string
	userAgent string
	pacer     *httputil.Pacer
	log       *slog.Logger
}

// New builds a gateway from configuration. The pacer carries the HTTP client,
// rate limit, and 429 retry policy.
func New(cfg types.ProviderConfig, userAgent string, pacer *httputil.Pacer, log *slog.Logger) *Gateway {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if pacer == nil {
		pacer = &httputil.Pacer{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Gateway{
		baseURL:   strings.TrimRight(base, "/"),
		apiKey:    cfg.APIKey,
		userAgent: userAgent,
		pacer:     pacer,
		log:       log,
	}
}

// Search queries /recipes/complexSearch. Empty text and cuisine are omitted
// from the request rather than sent blank.
func (g *Gateway) Search(ctx context.Context, q Query) ([]types.ExternalSummary, error) {
	params := url.Values{"number": {strconv.Itoa(clampLimit(q.Limit))}}
	if q.Text != "" {
		params.Set("query", q.Text)
	}
	if q.Cuisine != "" {
		params.Set("cuisine", q.Cuisine)
	}

	var resp searchResponse
	if err := g.get(ctx, "search", "/recipes/complexSearch", params, &resp); err != nil {
		return nil, err
	}

	results := make([]types.ExternalSummary, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, r.summary())
	}
	g.log.Debug("provider search", slog.String("query", q.Text), slog.String("cuisine", q.Cuisine), slog.Int("results", len(results)))
	return results, nil
}

// FindByIngredients queries /recipes/findByIngredients. At least one
// non-empty ingredient is required.
func (g *Gateway) FindByIngredients(ctx context.Context, ingredients []string, limit int) ([]types.ExternalSummary, error) {
	var terms []string
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			terms = append(terms, ing)
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("find by ingredients: no ingredient given: %w", types.ErrInvalid)
	}

	params := url.Values{
		"ingredients": {strings.Join(terms, ",")},
		"number":      {strconv.Itoa(clampLimit(limit))},
	}

	var resp []searchHit
	if err := g.get(ctx, "find by ingredients", "/recipes/findByIngredients", params, &resp); err != nil {
		return nil, err
	}

	results := make([]types.ExternalSummary, 0, len(resp))
	for _, r := range resp {
		results = append(results, r.summary())
	}
	return results, nil
}

// FetchDetail queries /recipes/{id}/information for an external reference.
func (g *Gateway) FetchDetail(ctx context.Context, ref types.RecipeRef) (types.ExternalDetail, error) {
	id, ok := ref.ProviderID()
	if !ok {
		return types.ExternalDetail{}, fmt.Errorf("fetching detail for local recipe %q: %w", ref, types.ErrInvalid)
	}

	path := "/recipes/" + strconv.FormatInt(int64(id), 10) + "/information"
	params := url.Values{"includeNutrition": {"false"}}

	var info informationResponse
	if err := g.get(ctx, "detail", path, params, &info); err != nil {
		return types.ExternalDetail{}, err
	}
	g.log.Debug("provider detail", slog.String("id", ref.String()))
	return info.detail(ref), nil
}

// get performs a GET against the provider and decodes a JSON body into out.
// Every failure is reported as a *types.ProviderError.
func (g *Gateway) get(ctx context.Context, op, path string, params url.Values, out any) error {
	if g.apiKey != "" {
		params.Set("apiKey", g.apiKey)
	}
	reqURL := g.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &types.ProviderError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.pacer.Do(ctx, req)
	if err != nil {
		return &types.ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &types.ProviderError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", statusMessage(resp.StatusCode, body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &types.ProviderError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("parsing response: %w", err)}
	}
	return nil
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultSearchLimit
	}
	if n > maxSearchLimit {
		return maxSearchLimit
	}
	return n
}

// statusMessage prefers the provider's own "message" field when present.
func statusMessage(code int, body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	switch code {
	case http.StatusPaymentRequired:
		return "daily quota exhausted"
	case http.StatusTooManyRequests:
		return "rate limited"
	case http.StatusUnauthorized:
		return "missing or invalid API key"
	}
	return http.StatusText(code)
}

// Provider JSON structures.
type searchResponse struct {
	Results      []searchHit `json:"results"`
	TotalResults int         `json:"totalResults"`
}

type searchHit struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
}

func (h searchHit) summary() types.ExternalSummary {
	return types.ExternalSummary{
		ID:    types.ExternalRef(types.ProviderID(h.ID)),
		Title: h.Title,
		Image: h.Image,
	}
}

type informationResponse struct {
	Title                string                 `json:"title"`
	Image                string                 `json:"image"`
	Cuisines             []string               `json:"cuisines"`
	ReadyInMinutes       int                    `json:"readyInMinutes"`
	ExtendedIngredients  []extendedIngredient   `json:"extendedIngredients"`
	AnalyzedInstructions []analyzedInstructions `json:"analyzedInstructions"`
}

type extendedIngredient struct {
	Original string `json:"original"`
}

type analyzedInstructions struct {
	Steps []instructionStep `json:"steps"`
}

type instructionStep struct {
	Step string `json:"step"`
}

// detail normalizes the provider record. Only the first instruction block is
// used; the provider splits optional sub-recipes into later blocks.
func (info informationResponse) detail(ref types.RecipeRef) types.ExternalDetail {
	d := types.ExternalDetail{
		ID:             ref,
		Title:          info.Title,
		Image:          info.Image,
		Cuisines:       append([]string(nil), info.Cuisines...),
		ReadyInMinutes: info.ReadyInMinutes,
	}
	for _, ing := range info.ExtendedIngredients {
		if ing.Original != "" {
			d.Ingredients = append(d.Ingredients, ing.Original)
		}
	}
	if len(info.AnalyzedInstructions) > 0 {
		for _, s := range info.AnalyzedInstructions[0].Steps {
			if s.Step != "" {
				d.Steps = append(d.Steps, s.Step)
			}
		}
	}
	return d
}
