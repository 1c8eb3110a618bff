// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cookbook/internal/recipedb"
	"github.com/pdiddy/cookbook/internal/store"
	"github.com/pdiddy/cookbook/pkg/types"
)

func newTestServer(t *testing.T) (*httptest.Server, *recipedb.DB) {
	t.Helper()
	db, err := recipedb.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ts := httptest.NewServer(New(db, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func newClient(ts *httptest.Server) *store.Client {
	return store.New(types.StoreConfig{BaseURL: ts.URL}, ts.Client(), "cookbook-test", nil)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", types.ErrNotFound, http.StatusNotFound},
		{"invalid", types.ErrInvalid, http.StatusBadRequest},
		{"conflict", types.ErrConflict, http.StatusConflict},
		{"unauthorized", types.ErrUnauthorized, http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("recipe 9: %w", types.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
		{"echo error passes through", echo.NewHTTPError(http.StatusTeapot, "tea"), http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, mapError(tt.err).Code)
		})
	}
}

func TestMapError_HidesInternalDetail(t *testing.T) {
	he := mapError(errors.New("sqlite: disk I/O error"))
	assert.Equal(t, "internal error", he.Message)
	assert.Error(t, he.Internal)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecipeRoutes_WithStoreClient(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()
	repo := store.NewRecipeRepository(newClient(ts))

	created, err := repo.Create(ctx, types.RecipeInput{
		Title:       "Pasta Carbonara",
		Cuisine:     "Italian",
		Time:        25,
		Ingredients: []string{"spaghetti", "eggs"},
		Steps:       []string{"boil", "mix"},
		AuthorID:    "u1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	in := got.Input()
	in.Title = "Carbonara"
	updated, err := repo.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Carbonara", updated.Title)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Carbonara", all[0].Title)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), types.ErrNotFound)
}

func TestRecipeRoutes_Validation(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"create without title", http.MethodPost, "/recipes", `{"cuisine":"Thai"}`, http.StatusBadRequest},
		{"create malformed", http.MethodPost, "/recipes", `{"title":`, http.StatusBadRequest},
		{"update mismatched id", http.MethodPut, "/recipes/a", `{"id":"b","title":"x"}`, http.StatusBadRequest},
		{"update missing", http.MethodPut, "/recipes/missing", `{"title":"x"}`, http.StatusNotFound},
		{"get missing", http.MethodGet, "/recipes/missing", "", http.StatusNotFound},
		{"favorite bad ref", http.MethodGet, "/favorites?recipeId=ext-abc", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			resp, err := ts.Client().Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}
}

func TestListRecipes_QueryFilters(t *testing.T) {
	ts, db := newTestServer(t)
	ctx := context.Background()
	a, err := db.CreateRecipe(ctx, types.RecipeInput{Title: "Pasta", AuthorID: "u1"})
	require.NoError(t, err)
	_, err = db.CreateRecipe(ctx, types.RecipeInput{Title: "Taco", AuthorID: "u2"})
	require.NoError(t, err)

	// The client's ?id= fallback path goes through the list route.
	repo := store.NewRecipeRepository(newClient(ts))
	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pasta", got.Title)

	resp, err := ts.Client().Get(ts.URL + "/recipes?authorId=u2")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFavoriteRoutes_ToggleThroughRegistry(t *testing.T) {
	ts, db := newTestServer(t)
	ctx := context.Background()
	reg := store.NewFavoritesRegistry(newClient(ts))
	ext := types.ExternalRef(715538)

	res, err := reg.Toggle(ctx, "u1", ext)
	require.NoError(t, err)
	assert.False(t, res.Removed)
	assert.Equal(t, ext, res.Record.RecipeID)

	r, err := db.CreateRecipe(ctx, types.RecipeInput{Title: "Pasta", AuthorID: "u1"})
	require.NoError(t, err)
	_, err = reg.Toggle(ctx, "u1", r.Ref())
	require.NoError(t, err)

	favs, err := reg.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, ext, favs[0].RecipeID)
	assert.Equal(t, r.Ref(), favs[1].RecipeID)

	res, err = reg.Toggle(ctx, "u1", ext)
	require.NoError(t, err)
	assert.True(t, res.Removed)

	favs, err = reg.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, r.Ref(), favs[0].RecipeID)

	other, err := reg.ListForUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAddFavorite_DuplicateReturnsExisting(t *testing.T) {
	ts, _ := newTestServer(t)
	body := `{"userId":"u1","recipeId":"ext-5"}`

	post := func() *http.Response {
		resp, err := ts.Client().Post(ts.URL+"/favorites", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}
	assert.Equal(t, http.StatusCreated, post().StatusCode)
	assert.Equal(t, http.StatusOK, post().StatusCode)
}

func TestDeleteRecipe_RemovesFavoritesOverHTTP(t *testing.T) {
	ts, db := newTestServer(t)
	ctx := context.Background()
	c := newClient(ts)
	repo, reg := store.NewRecipeRepository(c), store.NewFavoritesRegistry(c)

	r, err := db.CreateRecipe(ctx, types.RecipeInput{Title: "Pasta", AuthorID: "u1"})
	require.NoError(t, err)
	_, err = reg.Toggle(ctx, "u1", r.Ref())
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, r.ID))
	favs, err := reg.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestUserRoutes_WithDirectory(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()
	users := store.NewUserDirectory(newClient(ts))

	u, err := users.SignUp(ctx, store.Credentials{Name: "Ada", Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Ada", u.Name)

	_, err = users.SignUp(ctx, store.Credentials{Name: "Ada", Email: "ada@example.com", Password: "again"})
	assert.ErrorIs(t, err, types.ErrConflict)

	got, err := users.Login(ctx, "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}
