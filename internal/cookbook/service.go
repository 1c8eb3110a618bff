// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cookbook ties the store clients, the provider, the detail cache,
// and the session into the operations a user performs: loading their
// recipes and favorites, toggling favorites, authoring recipes, searching,
// and reading the book.
package cookbook

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/cookbook/internal/aggregate"
	"github.com/pdiddy/cookbook/internal/book"
	"github.com/pdiddy/cookbook/internal/search"
	"github.com/pdiddy/cookbook/internal/session"
	"github.com/pdiddy/cookbook/internal/store"
	"github.com/pdiddy/cookbook/pkg/types"
)

// Recipes is the local recipe repository.
type Recipes interface {
	ListAll(ctx context.Context) ([]types.Recipe, error)
	Get(ctx context.Context, id types.LocalID) (types.Recipe, error)
	Create(ctx context.Context, in types.RecipeInput) (types.Recipe, error)
	Update(ctx context.Context, id types.LocalID, in types.RecipeInput) (types.Recipe, error)
	Delete(ctx context.Context, id types.LocalID) error
}

// Favorites is the favorites registry.
type Favorites interface {
	ListForUser(ctx context.Context, userID string) ([]types.FavoriteRecord, error)
	Toggle(ctx context.Context, userID string, ref types.RecipeRef) (store.ToggleResult, error)
}

// Users is the user directory.
type Users interface {
	SignUp(ctx context.Context, cred store.Credentials) (types.User, error)
	Login(ctx context.Context, email, password string) (types.User, error)
}

// DetailCache resolves external recipe details.
type DetailCache interface {
	GetOrFetch(ctx context.Context, refs []types.RecipeRef) (map[types.RecipeRef]types.ExternalDetail, error)
	Get(ref types.RecipeRef) (types.ExternalDetail, bool)
}

// Searcher runs combined local and external searches.
type Searcher interface {
	Search(ctx context.Context, recipes []types.Recipe, q search.Query) search.Result
}

// Deps lists the collaborators of a Service. Users and Search may be nil
// when the caller never signs in or searches.
type Deps struct {
	Recipes    Recipes
	Favorites  Favorites
	Users      Users
	Cache      DetailCache
	Search     Searcher
	Session    *session.Session
	BookPolicy book.ModeSwitchPolicy
	Log        *slog.Logger
}

// Service is safe for concurrent use.
type Service struct {
	recipes   Recipes
	favorites Favorites
	users     Users
	cache     DetailCache
	searcher  Searcher
	session   *session.Session
	policy    book.ModeSwitchPolicy
	log       *slog.Logger

	loads   singleflight.Group
	toggles keyLock

	mu   sync.RWMutex
	snap snapshot
	// gen counts confirmed mutations and sign-outs. A load whose fetch
	// started under an older gen is stale.
	gen uint64

	viewsMu sync.Mutex
	views   map[*BookView]struct{}
}

// snapshot is the last confirmed state of the store for one user.
type snapshot struct {
	userID    string
	recipes   []types.Recipe
	favorites []types.FavoriteRecord
	loaded    bool
}

// New returns a service. A nil session is treated as signed out.
func New(d Deps) *Service {
	if d.Session == nil {
		d.Session = session.New("")
	}
	if d.Log == nil {
		d.Log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		recipes:   d.Recipes,
		favorites: d.Favorites,
		users:     d.Users,
		cache:     d.Cache,
		searcher:  d.Search,
		session:   d.Session,
		policy:    d.BookPolicy,
		log:       d.Log,
		views:     make(map[*BookView]struct{}),
	}
}

// Session returns the session the service reads the current user from.
func (s *Service) Session() *session.Session { return s.session }

// maxLoadAttempts bounds how often a load refetches because a mutation
// was confirmed while it was in flight.
const maxLoadAttempts = 3

// Load fetches every recipe and, when someone is signed in, their
// favorites. Concurrent calls share one round trip, which runs detached
// from any single caller; each caller stops waiting when its own ctx is
// done. A fetch overtaken by a confirmed toggle, mutation, or sign-out is
// never applied over it.
func (s *Service) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	userID := s.session.UserID()
	ch := s.loads.DoChan("load:"+userID, func() (any, error) {
		return nil, s.load(context.WithoutCancel(ctx), userID)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.log.Debug("load coalesced", slog.String("user", userID))
		}
		return res.Err
	}
}

func (s *Service) load(ctx context.Context, userID string) error {
	for attempt := 1; ; attempt++ {
		s.mu.RLock()
		gen := s.gen
		s.mu.RUnlock()

		recipes, favs, err := s.fetch(ctx, userID)
		if err != nil {
			return fmt.Errorf("loading cookbook: %w", err)
		}

		s.mu.Lock()
		if s.session.UserID() != userID {
			s.mu.Unlock()
			s.log.Debug("load discarded, user changed", slog.String("user", userID))
			return nil
		}
		if s.gen == gen {
			s.snap = snapshot{userID: userID, recipes: recipes, favorites: favs, loaded: true}
			s.mu.Unlock()
			s.log.Debug("cookbook loaded", slog.Int("recipes", len(recipes)), slog.Int("favorites", len(favs)))
			s.notify()
			return nil
		}
		s.mu.Unlock()

		if attempt == maxLoadAttempts {
			return fmt.Errorf("loading cookbook: store changed during %d attempts: %w", attempt, types.ErrConflict)
		}
		s.log.Debug("store changed during load, fetching again", slog.Int("attempt", attempt))
	}
}

func (s *Service) fetch(ctx context.Context, userID string) ([]types.Recipe, []types.FavoriteRecord, error) {
	var (
		recipes []types.Recipe
		favs    []types.FavoriteRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recipes, err = s.recipes.ListAll(gctx)
		return err
	})
	if userID != "" {
		g.Go(func() error {
			var err error
			favs, err = s.favorites.ListForUser(gctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return recipes, favs, nil
}

// Loaded reports whether Load has succeeded at least once.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.loaded
}

// Recipes returns the loaded local recipes.
func (s *Service) Recipes() []types.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.recipes)
}

// Favorites returns the loaded favorite records of the current user.
func (s *Service) Favorites() []types.FavoriteRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snap.favorites)
}

// IsFavorite reports whether ref is a favorite of the current user.
func (s *Service) IsFavorite(ref types.RecipeRef) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return aggregate.IsFavorite(s.snap.favorites, ref)
}

// Views derives the favorite and authored lists from the snapshot and the
// details already cached. It never fetches.
func (s *Service) Views() aggregate.Views {
	s.mu.RLock()
	in := aggregate.Inputs{
		Recipes:   s.snap.recipes,
		Favorites: s.snap.favorites,
		UserID:    s.snap.userID,
	}
	s.mu.RUnlock()

	in.Details = make(map[types.RecipeRef]types.ExternalDetail)
	if s.cache != nil {
		for _, ref := range aggregate.ExternalFavoriteRefs(in.Favorites) {
			if d, ok := s.cache.Get(ref); ok {
				in.Details[ref] = d
			}
		}
	}
	return aggregate.Build(in)
}

// missingDetails returns the external favorites not yet cached.
func (s *Service) missingDetails() []types.RecipeRef {
	var missing []types.RecipeRef
	for _, ref := range aggregate.ExternalFavoriteRefs(s.Favorites()) {
		if _, ok := s.cache.Get(ref); !ok {
			missing = append(missing, ref)
		}
	}
	return missing
}

// ToggleFavorite adds or removes ref from the current user's favorites.
// Toggles of the same recipe by the same user run one at a time; a toggle
// waiting its turn gives up when ctx is done. The snapshot changes only
// after the registry confirms; on error it is left as it was.
func (s *Service) ToggleFavorite(ctx context.Context, ref types.RecipeRef) (store.ToggleResult, error) {
	userID := s.session.UserID()
	if userID == "" {
		return store.ToggleResult{}, fmt.Errorf("toggling favorite: sign in first: %w", types.ErrUnauthorized)
	}
	if ref.IsZero() {
		return store.ToggleResult{}, fmt.Errorf("toggling favorite: empty recipe id: %w", types.ErrInvalid)
	}

	unlock, err := s.toggles.lock(ctx, userID+"\x00"+ref.String())
	if err != nil {
		return store.ToggleResult{}, fmt.Errorf("toggling favorite %s: %w", ref, err)
	}
	defer unlock()

	res, err := s.favorites.Toggle(ctx, userID, ref)
	if err != nil {
		return store.ToggleResult{}, err
	}

	s.mu.Lock()
	s.gen++
	if s.snap.userID == userID {
		favs := slices.DeleteFunc(slices.Clone(s.snap.favorites), func(f types.FavoriteRecord) bool {
			return f.RecipeID == ref
		})
		if !res.Removed {
			favs = append(favs, res.Record)
		}
		s.snap.favorites = favs
	}
	s.mu.Unlock()

	s.log.Info("favorite toggled", slog.String("recipe", ref.String()), slog.Bool("removed", res.Removed))
	s.notify()
	return res, nil
}

// CreateRecipe stores a new recipe authored by the current user.
func (s *Service) CreateRecipe(ctx context.Context, in types.RecipeInput) (types.Recipe, error) {
	userID := s.session.UserID()
	if userID == "" {
		return types.Recipe{}, fmt.Errorf("creating recipe: sign in first: %w", types.ErrUnauthorized)
	}
	in.AuthorID = userID
	if err := in.Validate(); err != nil {
		return types.Recipe{}, err
	}

	created, err := s.recipes.Create(ctx, in)
	if err != nil {
		return types.Recipe{}, err
	}

	s.mu.Lock()
	s.gen++
	s.snap.recipes = append(slices.Clone(s.snap.recipes), created)
	s.mu.Unlock()
	s.notify()
	return created, nil
}

// UpdateRecipe replaces a recipe the current user authored.
func (s *Service) UpdateRecipe(ctx context.Context, ref types.RecipeRef, in types.RecipeInput) (types.Recipe, error) {
	id, err := s.authorize(ctx, "updating", ref)
	if err != nil {
		return types.Recipe{}, err
	}
	in.AuthorID = s.session.UserID()
	if err := in.Validate(); err != nil {
		return types.Recipe{}, err
	}

	updated, err := s.recipes.Update(ctx, id, in)
	if err != nil {
		return types.Recipe{}, err
	}

	s.mu.Lock()
	s.gen++
	recipes := slices.Clone(s.snap.recipes)
	if i := slices.IndexFunc(recipes, func(r types.Recipe) bool { return r.ID == id }); i >= 0 {
		recipes[i] = updated
	}
	s.snap.recipes = recipes
	s.mu.Unlock()
	s.notify()
	return updated, nil
}

// DeleteRecipe removes a recipe the current user authored.
func (s *Service) DeleteRecipe(ctx context.Context, ref types.RecipeRef) error {
	id, err := s.authorize(ctx, "deleting", ref)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.gen++
	s.snap.recipes = slices.DeleteFunc(slices.Clone(s.snap.recipes), func(r types.Recipe) bool { return r.ID == id })
	s.mu.Unlock()
	s.log.Info("recipe deleted", slog.String("recipe", ref.String()))
	s.notify()
	return nil
}

// authorize rejects external refs before anything reaches the repository,
// then checks the stored author against the current user.
func (s *Service) authorize(ctx context.Context, verb string, ref types.RecipeRef) (types.LocalID, error) {
	id, ok := ref.LocalID()
	if !ok {
		return "", fmt.Errorf("%s recipe %s: only local recipes can be changed: %w", verb, ref, types.ErrInvalid)
	}
	userID := s.session.UserID()
	if userID == "" {
		return "", fmt.Errorf("%s recipe %s: sign in first: %w", verb, ref, types.ErrUnauthorized)
	}
	existing, err := s.recipes.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if existing.AuthorID != userID {
		return "", fmt.Errorf("%s recipe %s: not the author: %w", verb, ref, types.ErrUnauthorized)
	}
	return id, nil
}

// SearchResult is a search with both lists projected into view items.
type SearchResult struct {
	Local       []types.ViewItem `json:"local"`
	External    []types.ViewItem `json:"external"`
	ExternalErr error            `json:"-"`
}

// Search filters the loaded recipes and queries the provider. External hits
// carry the query's cuisine, since summaries have none. A provider failure
// leaves External empty and sets ExternalErr.
func (s *Service) Search(ctx context.Context, q search.Query) (SearchResult, error) {
	if s.searcher == nil {
		return SearchResult{}, fmt.Errorf("searching: no search coordinator configured: %w", types.ErrInvalid)
	}
	res := s.searcher.Search(ctx, s.Recipes(), q)

	favs := s.Favorites()
	userID := s.session.UserID()

	out := SearchResult{
		Local:       make([]types.ViewItem, 0, len(res.Local)),
		External:    make([]types.ViewItem, 0, len(res.External)),
		ExternalErr: res.ExternalErr,
	}
	for _, r := range res.Local {
		out.Local = append(out.Local, aggregate.FromRecipe(r))
	}
	for _, e := range res.External {
		item := aggregate.FromSummary(e)
		item.Cuisine = q.Cuisine
		out.External = append(out.External, item)
	}
	out.Local = aggregate.Annotate(out.Local, favs, userID)
	out.External = aggregate.Annotate(out.External, favs, userID)
	return out, nil
}

// RecipeDetail returns the full record for ref. Local recipes are read from
// the store; external ones go through the detail cache.
func (s *Service) RecipeDetail(ctx context.Context, ref types.RecipeRef) (types.ViewItem, error) {
	var item types.ViewItem
	if id, ok := ref.LocalID(); ok {
		r, err := s.recipes.Get(ctx, id)
		if err != nil {
			return types.ViewItem{}, err
		}
		item = aggregate.FromRecipe(r)
	} else {
		if s.cache == nil {
			return types.ViewItem{}, fmt.Errorf("recipe %s: no detail cache configured: %w", ref, types.ErrInvalid)
		}
		details, err := s.cache.GetOrFetch(ctx, []types.RecipeRef{ref})
		if err != nil {
			return types.ViewItem{}, err
		}
		item = aggregate.FromDetail(details[ref])
	}
	return aggregate.Annotate([]types.ViewItem{item}, s.Favorites(), s.session.UserID())[0], nil
}

// SignUp registers a user and signs them in.
func (s *Service) SignUp(ctx context.Context, cred store.Credentials) (types.User, error) {
	if s.users == nil {
		return types.User{}, fmt.Errorf("signing up: no user directory configured: %w", types.ErrInvalid)
	}
	u, err := s.users.SignUp(ctx, cred)
	if err != nil {
		return types.User{}, err
	}
	return u, s.signIn(ctx, u)
}

// Login checks credentials and signs the user in.
func (s *Service) Login(ctx context.Context, email, password string) (types.User, error) {
	if s.users == nil {
		return types.User{}, fmt.Errorf("logging in: no user directory configured: %w", types.ErrInvalid)
	}
	u, err := s.users.Login(ctx, email, password)
	if err != nil {
		return types.User{}, err
	}
	return u, s.signIn(ctx, u)
}

func (s *Service) signIn(ctx context.Context, u types.User) error {
	if err := s.session.SignIn(u); err != nil {
		return err
	}
	s.log.Info("signed in", slog.String("user", u.ID))
	return s.Load(ctx)
}

// Logout signs the current user out and drops their favorites from the
// snapshot.
func (s *Service) Logout() {
	s.session.SignOut()
	s.mu.Lock()
	s.gen++
	s.snap.userID = ""
	s.snap.favorites = nil
	s.mu.Unlock()
	s.notify()
}

// notify rebuilds every open book view.
func (s *Service) notify() {
	s.viewsMu.Lock()
	views := make([]*BookView, 0, len(s.views))
	for v := range s.views {
		views = append(views, v)
	}
	s.viewsMu.Unlock()

	for _, v := range views {
		v.Refresh()
	}
}

func (s *Service) attach(v *BookView) {
	s.viewsMu.Lock()
	s.views[v] = struct{}{}
	s.viewsMu.Unlock()
}

func (s *Service) detach(v *BookView) {
	s.viewsMu.Lock()
	delete(s.views, v)
	s.viewsMu.Unlock()
}
