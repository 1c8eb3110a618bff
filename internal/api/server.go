// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api serves the local recipe store over HTTP with the same routes and
// payloads as a json-server db.json, so the store client talks to either.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/cookbook/internal/recipedb"
	"github.com/pdiddy/cookbook/pkg/types"
)

// DefaultAddr matches json-server's conventional port.
const DefaultAddr = ":5000"

const shutdownTimeout = 10 * time.Second

// Store is the persistence the server needs. *recipedb.DB satisfies it.
type Store interface {
	ListRecipes(ctx context.Context, f recipedb.RecipeFilter) ([]types.Recipe, error)
	GetRecipe(ctx context.Context, id types.LocalID) (types.Recipe, error)
	CreateRecipe(ctx context.Context, in types.RecipeInput) (types.Recipe, error)
	UpdateRecipe(ctx context.Context, id types.LocalID, in types.RecipeInput) (types.Recipe, error)
	DeleteRecipe(ctx context.Context, id types.LocalID) error

	ListFavorites(ctx context.Context, f recipedb.FavoriteFilter) ([]types.FavoriteRecord, error)
	AddFavorite(ctx context.Context, userID string, ref types.RecipeRef) (types.FavoriteRecord, bool, error)
	DeleteFavorite(ctx context.Context, id string) error

	CreateUser(ctx context.Context, name, email, password string) (types.User, error)
	Authenticate(ctx context.Context, email, password string) (types.User, error)
}

// Server is the store's HTTP front end.
type Server struct {
	e     *echo.Echo
	store Store
	log   *slog.Logger
}

// New builds the router.
func New(store Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{e: echo.New(), store: store, log: log}
	s.e.HideBanner = true
	s.e.HidePort = true

	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
			}
			if v.Error == nil {
				s.log.DebugContext(rctx, "request completed", attrs...)
				return nil
			}
			attrs = append(attrs, slog.String("error", v.Error.Error()))
			if v.Status >= http.StatusInternalServerError {
				s.log.ErrorContext(rctx, "request failed", attrs...)
			} else {
				s.log.InfoContext(rctx, "request rejected", attrs...)
			}
			return nil
		},
	}))
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.CORS())

	s.routes()
	return s
}

func (s *Server) routes() {
	s.e.GET("/healthz", s.health)

	s.e.GET("/recipes", s.listRecipes)
	s.e.POST("/recipes", s.createRecipe)
	s.e.GET("/recipes/:id", s.getRecipe)
	s.e.PUT("/recipes/:id", s.updateRecipe)
	s.e.DELETE("/recipes/:id", s.deleteRecipe)

	s.e.GET("/favorites", s.listFavorites)
	s.e.POST("/favorites", s.addFavorite)
	s.e.DELETE("/favorites/:id", s.deleteFavorite)

	s.e.POST("/users", s.signUp)
	s.e.POST("/login", s.login)
}

// Handler exposes the router, for httptest and embedding.
func (s *Server) Handler() http.Handler { return s.e }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	s.log.Info("starting store server", slog.String("addr", addr))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		s.log.Info("shutting down store server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
