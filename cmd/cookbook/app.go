// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pdiddy/cookbook/internal/book"
	"github.com/pdiddy/cookbook/internal/cookbook"
	"github.com/pdiddy/cookbook/internal/detailcache"
	"github.com/pdiddy/cookbook/internal/httputil"
	"github.com/pdiddy/cookbook/internal/provider"
	"github.com/pdiddy/cookbook/internal/search"
	"github.com/pdiddy/cookbook/internal/session"
	"github.com/pdiddy/cookbook/internal/store"
	"github.com/pdiddy/cookbook/pkg/types"
)

// newService wires the store clients, the provider, the detail cache, and
// the persisted session into a cookbook service.
func newService() (*cookbook.Service, error) {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	client := store.New(cfg.Store, httpClient, cfg.HTTP.UserAgent, logger)
	pacer := httputil.NewPacer(httpClient, cfg.Provider.RatePerSecond, cfg.Provider.MaxRetries, logger)
	gateway := provider.New(cfg.Provider, cfg.HTTP.UserAgent, pacer, logger)

	cache, err := detailcache.New(gateway, cfg.Cache.MaxEntries, logger)
	if err != nil {
		return nil, err
	}

	path := cfg.Session.Path
	if path == "" {
		path = session.DefaultPath()
	}
	sess, err := session.Load(path)
	if err != nil {
		return nil, err
	}

	policy := book.ClampOnModeSwitch
	if cfg.Book.ResetOnModeSwitch {
		policy = book.ResetOnModeSwitch
	}

	return cookbook.New(cookbook.Deps{
		Recipes:    store.NewRecipeRepository(client),
		Favorites:  store.NewFavoritesRegistry(client),
		Users:      store.NewUserDirectory(client),
		Cache:      cache,
		Search:     search.NewCoordinator(gateway, cfg.Provider.SearchLimit, logger),
		Session:    sess,
		BookPolicy: policy,
		Log:        logger,
	}), nil
}

// loadedService returns a service whose snapshot has been loaded.
func loadedService(ctx context.Context) (*cookbook.Service, error) {
	svc, err := newService()
	if err != nil {
		return nil, err
	}
	if err := svc.Load(ctx); err != nil {
		return nil, fmt.Errorf("%w (is the store running at %s?)", err, cfg.Store.BaseURL)
	}
	return svc, nil
}

// requireUser fails with a hint when nobody is signed in.
func requireUser(svc *cookbook.Service) (types.User, error) {
	u, ok := svc.Session().User()
	if !ok {
		return types.User{}, fmt.Errorf("not signed in; run \"cookbook login\" first: %w", types.ErrUnauthorized)
	}
	return u, nil
}

// warnProviderKey notes a missing API key once per command.
func warnProviderKey() {
	if cfg.Provider.APIKey == "" {
		printer.Warning("No provider API key configured; external recipes are unavailable.")
		logger.Debug("provider key missing", slog.String("secret", "spoonacular-api-key"))
	}
}

// describe turns sentinel errors into short user-facing messages.
func describe(err error) string {
	var pe *types.ProviderError
	switch {
	case errors.As(err, &pe):
		return "external provider: " + pe.Error()
	case errors.Is(err, types.ErrUnauthorized):
		return "not allowed: " + err.Error()
	default:
		return err.Error()
	}
}
