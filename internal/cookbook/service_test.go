// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cookbook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cookbook/internal/detailcache"
	"github.com/pdiddy/cookbook/internal/provider"
	"github.com/pdiddy/cookbook/internal/search"
	"github.com/pdiddy/cookbook/internal/session"
	"github.com/pdiddy/cookbook/internal/store"
	"github.com/pdiddy/cookbook/pkg/types"
)

// --- fakes ---

type fakeRecipes struct {
	mu      sync.Mutex
	recipes []types.Recipe
	nextID  int
	calls   []string
	listErr error

	// gate, when set, holds ListAll until it is closed; entered is signalled
	// as each ListAll starts waiting.
	gate    chan struct{}
	entered chan struct{}
}

// hold makes later ListAll calls wait until release is called.
func (f *fakeRecipes) hold() (entered <-chan struct{}, release func()) {
	gate := make(chan struct{})
	ent := make(chan struct{}, 8)
	f.mu.Lock()
	f.gate, f.entered = gate, ent
	f.mu.Unlock()
	return ent, func() { close(gate) }
}

func (f *fakeRecipes) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeRecipes) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRecipes) ListAll(ctx context.Context) ([]types.Recipe, error) {
	f.record("list")
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]types.Recipe(nil), f.recipes...), nil
}

func (f *fakeRecipes) Get(_ context.Context, id types.LocalID) (types.Recipe, error) {
	f.record("get " + string(id))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return types.Recipe{}, fmt.Errorf("recipe %s: %w", id, types.ErrNotFound)
}

func (f *fakeRecipes) Create(_ context.Context, in types.RecipeInput) (types.Recipe, error) {
	f.record("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r := types.Recipe{ID: types.LocalID("new" + strconv.Itoa(f.nextID)), Title: in.Title, Cuisine: in.Cuisine, Time: in.Time, AuthorID: in.AuthorID}
	f.recipes = append(f.recipes, r)
	return r, nil
}

func (f *fakeRecipes) Update(_ context.Context, id types.LocalID, in types.RecipeInput) (types.Recipe, error) {
	f.record("update " + string(id))
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.recipes {
		if r.ID == id {
			f.recipes[i] = types.Recipe{ID: id, Title: in.Title, Cuisine: in.Cuisine, Time: in.Time, AuthorID: in.AuthorID}
			return f.recipes[i], nil
		}
	}
	return types.Recipe{}, types.ErrNotFound
}

func (f *fakeRecipes) Delete(_ context.Context, id types.LocalID) error {
	f.record("delete " + string(id))
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.recipes {
		if r.ID == id {
			f.recipes = append(f.recipes[:i], f.recipes[i+1:]...)
			return nil
		}
	}
	return types.ErrNotFound
}

// fakeFavorites reproduces the store's non-atomic toggle: lookup, pause,
// then write. It tracks how many toggles of one key overlap.
type fakeFavorites struct {
	mu        sync.Mutex
	records   []types.FavoriteRecord
	nextID    int
	toggleErr error
	listCalls int32
	pause     time.Duration

	active    int32
	maxActive int32
}

func (f *fakeFavorites) ListForUser(_ context.Context, userID string) ([]types.FavoriteRecord, error) {
	atomic.AddInt32(&f.listCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.FavoriteRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFavorites) Toggle(_ context.Context, userID string, ref types.RecipeRef) (store.ToggleResult, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		m := atomic.LoadInt32(&f.maxActive)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxActive, m, n) {
			break
		}
	}

	f.mu.Lock()
	if f.toggleErr != nil {
		f.mu.Unlock()
		return store.ToggleResult{}, f.toggleErr
	}
	idx := -1
	for i, r := range f.records {
		if r.UserID == userID && r.RecipeID == ref {
			idx = i
			break
		}
	}
	f.mu.Unlock()

	time.Sleep(f.pause)

	f.mu.Lock()
	defer f.mu.Unlock()
	if idx >= 0 {
		rec := f.records[idx]
		f.records = append(f.records[:idx], f.records[idx+1:]...)
		return store.ToggleResult{Record: rec, Removed: true}, nil
	}
	f.nextID++
	rec := types.FavoriteRecord{ID: "f" + strconv.Itoa(f.nextID), UserID: userID, RecipeID: ref}
	f.records = append(f.records, rec)
	return store.ToggleResult{Record: rec}, nil
}

func (f *fakeFavorites) count(userID string, ref types.RecipeRef) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.records {
		if r.UserID == userID && r.RecipeID == ref {
			n++
		}
	}
	return n
}

type fakeUsers struct{}

func (fakeUsers) SignUp(_ context.Context, cred store.Credentials) (types.User, error) {
	return types.User{ID: "u-" + cred.Email, Name: cred.Name, Email: cred.Email}, nil
}

func (fakeUsers) Login(_ context.Context, email, password string) (types.User, error) {
	if password != "hunter2" {
		return types.User{}, fmt.Errorf("login: %w", types.ErrUnauthorized)
	}
	return types.User{ID: "u1", Email: email}, nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	err   error
	gate  chan struct{}
}

func (f *fakeFetcher) FetchDetail(ctx context.Context, ref types.RecipeRef) (types.ExternalDetail, error) {
	f.mu.Lock()
	f.calls++
	err, gate := f.err, f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return types.ExternalDetail{}, ctx.Err()
		}
	}
	if err != nil {
		return types.ExternalDetail{}, err
	}
	id, _ := ref.ProviderID()
	return types.ExternalDetail{ID: ref, Title: "External " + strconv.FormatInt(int64(id), 10), Cuisines: []string{"Thai"}, ReadyInMinutes: 20}, nil
}

type fakeGateway struct {
	results []types.ExternalSummary
	err     error
}

func (g fakeGateway) Search(context.Context, provider.Query) ([]types.ExternalSummary, error) {
	return g.results, g.err
}

func (g fakeGateway) FindByIngredients(context.Context, []string, int) ([]types.ExternalSummary, error) {
	return g.results, g.err
}

// --- harness ---

type harness struct {
	svc     *Service
	recipes *fakeRecipes
	favs    *fakeFavorites
	fetcher *fakeFetcher
	cache   *detailcache.Cache
	sess    *session.Session
}

func newHarness(t *testing.T, userID string, gw fakeGateway) *harness {
	t.Helper()
	h := &harness{
		recipes: &fakeRecipes{recipes: []types.Recipe{
			{ID: "1", Title: "Pasta Carbonara", Cuisine: "Italian", AuthorID: "u1"},
			{ID: "2", Title: "Beef Taco", Cuisine: "Mexican", AuthorID: "u2"},
			{ID: "3", Title: "Garden Salad", Cuisine: "American", AuthorID: "u1"},
		}},
		favs:    &fakeFavorites{},
		fetcher: &fakeFetcher{},
		sess:    session.New(""),
	}
	if userID != "" {
		require.NoError(t, h.sess.SignIn(types.User{ID: userID}))
	}
	cache, err := detailcache.New(h.fetcher, 0, nil)
	require.NoError(t, err)
	h.cache = cache
	h.svc = New(Deps{
		Recipes:   h.recipes,
		Favorites: h.favs,
		Users:     fakeUsers{},
		Cache:     cache,
		Search:    search.NewCoordinator(gw, 12, nil),
		Session:   h.sess,
	})
	return h
}

func (h *harness) favorite(userID string, ref types.RecipeRef) {
	h.favs.mu.Lock()
	defer h.favs.mu.Unlock()
	h.favs.nextID++
	h.favs.records = append(h.favs.records, types.FavoriteRecord{ID: "f" + strconv.Itoa(h.favs.nextID), UserID: userID, RecipeID: ref})
}

// --- load ---

func TestLoadSignedOut(t *testing.T) {
	h := newHarness(t, "", fakeGateway{})
	require.NoError(t, h.svc.Load(context.Background()))

	assert.True(t, h.svc.Loaded())
	assert.Len(t, h.svc.Recipes(), 3)
	assert.Empty(t, h.svc.Favorites())
	assert.Zero(t, atomic.LoadInt32(&h.favs.listCalls))
	assert.Empty(t, h.svc.Views().Authored)
}

func TestLoadSignedInBuildsViews(t *testing.T) {
	h := newHarness(t, "u1", fakeGateway{})
	h.favorite("u1", types.LocalRef("1"))
	h.favorite("u2", types.LocalRef("2"))

	require.NoError(t, h.svc.Load(context.Background()))

	v := h.svc.Views()
	require.Len(t, v.Favorites, 1)
	assert.Equal(t, "Pasta Carbonara", v.Favorites[0].Title)
	assert.True(t, v.Favorites[0].Favorite)

	require.Len(t, v.Authored, 2)
	assert.True(t, h.svc.IsFavorite(types.LocalRef("1")))
	assert.False(t, h.svc.IsFavorite(types.LocalRef("2")))
}

func TestLoadFailureKeepsSnapshot(t *testing.T) {
	h := newHarness(t, "u1", fakeGateway{})
	require.NoError(t, h.svc.Load(context.Background()))

	h.recipes.mu.Lock()
	h.recipes.listErr = errors.New("connection refused")
	h.recipes.mu.Unlock()

	err := h.svc.Load(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.Len(t, h.svc.Recipes(), 3)
}

func TestLoadCancelledDoesNotReplaceSnapshot(t *testing.T) {
	h := newHarness(t, "u1", fakeGateway{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, h.svc.Load(ctx), context.Canceled)
	assert.False(t, h.svc.Loaded())
}

func TestLoadSurvivesFirstCallerCancel(t *testing.T) {
	h := newHarness(t, "u1", fakeGateway{})
	h.favorite("u1", types.LocalRef("1"))
	entered, release := h.recipes.hold()

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() { errA <- h.svc.Load(ctxA) }()
	<-entered

	errB := make(chan error, 1)
	go func() { errB <- h.svc.Load(context.Background()) }()
	time.Sleep(20 * time.Millisecond) // let B join the running load

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	release()
	require.NoError(t, <-errB)
	assert.True(t, h.svc.Loaded())
	assert.True(t, h.svc.IsFavorite(types.LocalRef("1")))
}

func TestToggleDuringLoadIsKept(t *testing.T) {
	tests := []struct {
		name        string
		initialLoad bool
	}{
		{"reload after first load", true},
		{"first load", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t, "u1", fakeGateway{})
			if tt.initialLoad {
				require.NoError(t, h.svc.Load(ctx))
			}

			entered, release := h.recipes.hold()
			done := make(chan error, 1)
			go func() { done <- h.svc.Load(ctx) }()
			<-entered

			ref := types.LocalRef("2")
			res, err := h.svc.ToggleFavorite(ctx, ref)
			require.NoError(t, err)
			require.False(t, res.Removed)

			release()
			require.NoError(t, <-done)

			assert.Equal(t, 1, h.favs.count("u1", ref))
			assert.True(t, h.svc.Loaded())
			assert.True(t, h.svc.IsFavorite(ref), "a confirmed toggle is not undone by an older fetch")
		})
	}
}

func TestLogoutDuringLoadDropsFavorites(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{})
	h.favorite("u1", types.LocalRef("3"))

	entered, release := h.recipes.hold()
	done := make(chan error, 1)
	go func() { done <- h.svc.Load(ctx) }()
	<-entered

	h.svc.Logout()
	release()
	require.NoError(t, <-done)

	assert.Empty(t, h.svc.Favorites())
	assert.False(t, h.svc.IsFavorite(types.LocalRef("3")))
	assert.Empty(t, h.svc.Views().Authored)
}

// --- favorites ---

func TestToggleRequiresSignIn(t *testing.T) {
	h := newHarness(t, "", fakeGateway{})
	_, err := h.svc.ToggleFavorite(context.Background(), types.LocalRef("1"))
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

func TestToggleInvolution(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{})
	h.favorite("u1", types.LocalRef("3"))
	require.NoError(t, h.svc.Load(ctx))
	before := h.svc.Favorites()

	for _, ref := range []types.RecipeRef{types.LocalRef("1"), types.ExternalRef(7)} {
		res, err := h.svc.ToggleFavorite(ctx, ref)
		require.NoError(t, err)
		assert.False(t, res.Removed)
		assert.True(t, h.svc.IsFavorite(ref))

		res, err = h.svc.ToggleFavorite(ctx, ref)
		require.NoError(t, err)
		assert.True(t, res.Removed)
		assert.False(t, h.svc.IsFavorite(ref))
	}
	assert.Equal(t, before, h.svc.Favorites())
}

func TestToggleFailureLeavesSnapshot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{})
	require.NoError(t, h.svc.Load(ctx))

	h.favs.toggleErr = fmt.Errorf("POST /favorites: HTTP 500: boom")
	_, err := h.svc.ToggleFavorite(ctx, types.LocalRef("1"))
	require.Error(t, err)
	assert.False(t, h.svc.IsFavorite(types.LocalRef("1")))
	assert.Empty(t, h.svc.Favorites())
}

func TestConcurrentTogglesAreSerialized(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{})
	h.favs.pause = 5 * time.Millisecond
	require.NoError(t, h.svc.Load(ctx))

	ref := types.ExternalRef(42)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.ToggleFavorite(ctx, ref)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&h.favs.maxActive), "toggles of one key never overlap")
	assert.Equal(t, 0, h.favs.count("u1", ref), "an even number of toggles leaves no record")
	assert.False(t, h.svc.IsFavorite(ref))
	assert.Zero(t, h.svc.toggles.len(), "idle keys are released")
}

// --- authored recipes ---

func TestMutationsRejectExternalRefs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{})
	ext := types.ExternalRef(716429)

	_, err := h.svc.UpdateRecipe(ctx, ext, types.RecipeInput{Title: "Hijack"})
	assert.ErrorIs(t, err, types.ErrInvalid)
	assert.ErrorIs(t, h.svc.DeleteRecipe(ctx, ext), types.ErrInvalid)

	assert.Empty(t, h.recipes.callLog(), "the repository is never reached with an external id")
}

func TestMutationsRequireOwnership(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{})
	require.NoError(t, h.svc.Load(ctx))

	_, err := h.svc.UpdateRecipe(ctx, types.LocalRef("2"), types.RecipeInput{Title: "Taco Night"})
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.ErrorIs(t, h.svc.DeleteRecipe(ctx, types.LocalRef("2")), types.ErrUnauthorized)

	assert.ErrorIs(t, h.svc.DeleteRecipe(ctx, types.LocalRef("99")), types.ErrNotFound)

	for _, call := range h.recipes.callLog() {
		assert.NotContains(t, call, "update")
		assert.NotContains(t, call, "delete")
	}

	h.svc.Logout()
	assert.ErrorIs(t, h.svc.DeleteRecipe(ctx, types.LocalRef("1")), types.ErrUnauthorized)
}

func TestCreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{})
	require.NoError(t, h.svc.Load(ctx))

	created, err := h.svc.CreateRecipe(ctx, types.RecipeInput{Title: "Shakshuka", Cuisine: "Middle Eastern", AuthorID: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, "u1", created.AuthorID, "author is always the signed-in user")
	assert.Len(t, h.svc.Views().Authored, 3)

	updated, err := h.svc.UpdateRecipe(ctx, created.Ref(), types.RecipeInput{Title: "Green Shakshuka"})
	require.NoError(t, err)
	assert.Equal(t, "Green Shakshuka", updated.Title)
	assert.Equal(t, "u1", updated.AuthorID)

	require.NoError(t, h.svc.DeleteRecipe(ctx, created.Ref()))
	assert.Len(t, h.svc.Views().Authored, 2)
	assert.Len(t, h.svc.Recipes(), 3)

	_, err = h.svc.CreateRecipe(ctx, types.RecipeInput{})
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestCreateRequiresSignIn(t *testing.T) {
	h := newHarness(t, "", fakeGateway{})
	_, err := h.svc.CreateRecipe(context.Background(), types.RecipeInput{Title: "Toast"})
	assert.ErrorIs(t, err, types.ErrUnauthorized)
}

// --- search and detail ---

func TestSearchAnnotatesBothLists(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{results: []types.ExternalSummary{
		{ID: types.ExternalRef(5), Title: "Fish Taco"},
		{ID: types.ExternalRef(6), Title: "Taco Salad"},
	}})
	h.favorite("u1", types.ExternalRef(6))
	require.NoError(t, h.svc.Load(ctx))

	res, err := h.svc.Search(ctx, search.Query{Text: "taco", Cuisine: "Mexican"})
	require.NoError(t, err)
	require.Len(t, res.Local, 1)
	assert.Equal(t, "Beef Taco", res.Local[0].Title)
	assert.False(t, res.Local[0].Mine)

	require.Len(t, res.External, 2)
	assert.Equal(t, "ext-5", res.External[0].ID.String())
	assert.Equal(t, "Mexican", res.External[0].Cuisine, "external hits take the query's cuisine")
	assert.False(t, res.External[0].Favorite)
	assert.True(t, res.External[1].Favorite)
}

func TestSearchProviderFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{err: &types.ProviderError{Op: "search", StatusCode: 429, Err: errors.New("rate limited")}})
	require.NoError(t, h.svc.Load(ctx))

	res, err := h.svc.Search(ctx, search.Query{Text: "salad"})
	require.NoError(t, err)
	require.Len(t, res.Local, 1)
	assert.Empty(t, res.External)
	assert.ErrorIs(t, res.ExternalErr, types.ErrProvider)
}

func TestRecipeDetail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "u1", fakeGateway{})
	h.favorite("u1", types.ExternalRef(9))
	require.NoError(t, h.svc.Load(ctx))

	local, err := h.svc.RecipeDetail(ctx, types.LocalRef("1"))
	require.NoError(t, err)
	assert.Equal(t, "Pasta Carbonara", local.Title)
	assert.True(t, local.Mine)

	ext, err := h.svc.RecipeDetail(ctx, types.ExternalRef(9))
	require.NoError(t, err)
	assert.Equal(t, "External 9", ext.Title)
	assert.Equal(t, "Thai", ext.Cuisine)
	assert.True(t, ext.Favorite)

	_, err = h.svc.RecipeDetail(ctx, types.ExternalRef(9))
	require.NoError(t, err)
	assert.Equal(t, 1, h.fetcher.calls, "external detail is cached")

	_, err = h.svc.RecipeDetail(ctx, types.LocalRef("404"))
	assert.ErrorIs(t, err, types.ErrNotFound)
}

// --- users ---

func TestLoginLoadsFavorites(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "", fakeGateway{})
	h.favorite("u1", types.LocalRef("3"))

	_, err := h.svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.Equal(t, "", h.sess.UserID())

	u, err := h.svc.Login(ctx, "ada@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "u1", h.sess.UserID())
	assert.True(t, h.svc.IsFavorite(types.LocalRef("3")))

	h.svc.Logout()
	assert.Equal(t, "", h.sess.UserID())
	assert.Empty(t, h.svc.Favorites())
}

func TestSignUpSignsIn(t *testing.T) {
	h := newHarness(t, "", fakeGateway{})
	u, err := h.svc.SignUp(context.Background(), store.Credentials{Name: "Grace", Email: "grace@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, h.sess.UserID())
	assert.True(t, h.svc.Loaded())
}
