// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cookbook/pkg/types"
)

// fakeServer is a minimal json-server stand-in. Recipes use numeric ids, as
// json-server does; favorites use string ids.
type fakeServer struct {
	mu        sync.Mutex
	recipes   []map[string]any
	favorites []map[string]any
	nextID    int
	calls     []string

	// itemRouteMissing makes GET /recipes/:id answer 404 so the ?id=
	// fallback is exercised.
	itemRouteMissing bool
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case parts[0] == "recipes":
		f.serveRecipes(w, r, parts)
	case parts[0] == "favorites":
		f.serveFavorites(w, r, parts)
	case parts[0] == "users" && r.Method == http.MethodPost:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] == "taken@example.com" {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"message": "email already registered"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": "u-new", "name": body["name"], "email": body["email"]})
	case parts[0] == "login" && r.Method == http.MethodPost:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "u1", "name": "Ada", "email": body["email"]})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeServer) serveRecipes(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			out := []map[string]any{}
			want := r.URL.Query().Get("id")
			for _, rec := range f.recipes {
				if want == "" || idString(rec["id"]) == want {
					out = append(out, rec)
				}
			}
			json.NewEncoder(w).Encode(out)
		case http.MethodPost:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			f.nextID++
			body["id"] = f.nextID
			f.recipes = append(f.recipes, body)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(body)
		}
		return
	}

	id := parts[1]
	for i, rec := range f.recipes {
		if idString(rec["id"]) != id {
			continue
		}
		switch r.Method {
		case http.MethodGet:
			if f.itemRouteMissing {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(rec)
		case http.MethodPut:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			body["id"] = rec["id"]
			f.recipes[i] = body
			json.NewEncoder(w).Encode(body)
		case http.MethodDelete:
			f.recipes = append(f.recipes[:i], f.recipes[i+1:]...)
			w.Write([]byte("{}"))
		}
		return
	}
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("{}"))
}

func (f *fakeServer) serveFavorites(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 2 && r.Method == http.MethodDelete {
		for i, fav := range f.favorites {
			if fav["id"] == parts[1] {
				f.favorites = append(f.favorites[:i], f.favorites[i+1:]...)
				w.Write([]byte("{}"))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		out := []map[string]any{}
		for _, fav := range f.favorites {
			if q.Has("userId") && fav["userId"] != q.Get("userId") {
				continue
			}
			if q.Has("recipeId") && idString(fav["recipeId"]) != q.Get("recipeId") {
				continue
			}
			out = append(out, fav)
		}
		json.NewEncoder(w).Encode(out)
	case http.MethodPost:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.nextID++
		body["id"] = "fav" + strconv.Itoa(f.nextID)
		f.favorites = append(f.favorites, body)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(body)
	}
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return ""
}

func newFake(t *testing.T) (*fakeServer, *Client) {
	t.Helper()
	f := &fakeServer{
		recipes: []map[string]any{
			{"id": 1, "title": "Pasta Carbonara", "cuisine": "Italian", "time": 25, "ingredients": []string{"spaghetti", "egg"}, "steps": []string{"Boil."}, "authorId": "u1"},
			{"id": 2, "title": "Miso Soup", "cuisine": "Japanese", "time": 10, "authorId": "u2"},
		},
		nextID: 2,
	}
	ts := httptest.NewServer(f)
	t.Cleanup(ts.Close)
	return f, New(types.StoreConfig{BaseURL: ts.URL + "/"}, ts.Client(), "cookbook-test", nil)
}

func TestRecipeRepository(t *testing.T) {
	ctx := context.Background()
	_, c := newFake(t)
	repo := NewRecipeRepository(c)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, types.LocalID("1"), all[0].ID)
	assert.Equal(t, []string{"spaghetti", "egg"}, all[0].Ingredients)

	got, err := repo.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Miso Soup", got.Title)

	created, err := repo.Create(ctx, types.RecipeInput{Title: "Tacos", Cuisine: "Mexican", AuthorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, types.LocalID("3"), created.ID)

	updated, err := repo.Update(ctx, created.ID, types.RecipeInput{Title: "Fish Tacos", Cuisine: "Mexican", AuthorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "Fish Tacos", updated.Title)
	assert.Equal(t, created.ID, updated.ID)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRecipeRepositoryGetFallsBackToFilter(t *testing.T) {
	f, c := newFake(t)
	f.itemRouteMissing = true

	got, err := NewRecipeRepository(c).Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Pasta Carbonara", got.Title)
	assert.Equal(t, []string{"GET /recipes/1", "GET /recipes"}, f.calls)
}

func TestRecipeRepositoryValidation(t *testing.T) {
	ctx := context.Background()
	f, c := newFake(t)
	repo := NewRecipeRepository(c)

	_, err := repo.Create(ctx, types.RecipeInput{Title: "  "})
	assert.ErrorIs(t, err, types.ErrInvalid)
	_, err = repo.Update(ctx, "", types.RecipeInput{Title: "x"})
	assert.ErrorIs(t, err, types.ErrInvalid)
	assert.ErrorIs(t, repo.Delete(ctx, ""), types.ErrInvalid)
	assert.ErrorIs(t, repo.Delete(ctx, "404"), types.ErrNotFound)

	assert.Equal(t, []string{"DELETE /recipes/404"}, f.calls, "invalid input must not reach the store")
}

func TestFavoritesToggle(t *testing.T) {
	ctx := context.Background()
	f, c := newFake(t)
	reg := NewFavoritesRegistry(c)

	added, err := reg.Toggle(ctx, "u1", types.ExternalRef(716429))
	require.NoError(t, err)
	assert.False(t, added.Removed)
	assert.Equal(t, types.ExternalRef(716429), added.Record.RecipeID)
	assert.NotEmpty(t, added.Record.ID)

	_, err = reg.Toggle(ctx, "u1", types.LocalRef("1"))
	require.NoError(t, err)

	favs, err := reg.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, "ext-716429", favs[0].RecipeID.String())

	removed, err := reg.Toggle(ctx, "u1", types.ExternalRef(716429))
	require.NoError(t, err)
	assert.True(t, removed.Removed)
	assert.Equal(t, added.Record.ID, removed.Record.ID)

	favs, err = reg.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, types.LocalRef("1"), favs[0].RecipeID)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Contains(t, f.calls, "DELETE /favorites/"+added.Record.ID)
}

func TestFavoritesDecodeNumericRecipeIDs(t *testing.T) {
	f, c := newFake(t)
	f.favorites = []map[string]any{{"id": "fav9", "userId": "u1", "recipeId": 2}}

	favs, err := NewFavoritesRegistry(c).ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, types.LocalRef("2"), favs[0].RecipeID)
}

func TestFavoritesRequireUser(t *testing.T) {
	_, c := newFake(t)
	reg := NewFavoritesRegistry(c)

	_, err := reg.ListForUser(context.Background(), "")
	assert.ErrorIs(t, err, types.ErrInvalid)
	_, err = reg.Toggle(context.Background(), "", types.LocalRef("1"))
	assert.ErrorIs(t, err, types.ErrInvalid)
	_, err = reg.Toggle(context.Background(), "u1", types.RecipeRef{})
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestUserDirectory(t *testing.T) {
	ctx := context.Background()
	_, c := newFake(t)
	dir := NewUserDirectory(c)

	u, err := dir.SignUp(ctx, Credentials{Name: "Grace", Email: " grace@example.com ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", u.Email)

	_, err = dir.SignUp(ctx, Credentials{Email: "taken@example.com", Password: "pw"})
	assert.ErrorIs(t, err, types.ErrConflict)
	assert.Contains(t, err.Error(), "email already registered")

	u, err = dir.Login(ctx, "ada@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = dir.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = dir.Login(ctx, "", "x")
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestStatusErrorPassesThroughUnknownCodes(t *testing.T) {
	err := statusError("GET", "/recipes", http.StatusBadGateway, []byte("upstream down\n"))
	assert.EqualError(t, err, "GET /recipes: HTTP 502: upstream down")
}
