// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cookbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pdiddy/cookbook/internal/aggregate"
	"github.com/pdiddy/cookbook/internal/book"
	"github.com/pdiddy/cookbook/pkg/types"
)

// ErrClosed is returned by a BookView that was closed while it waited.
var ErrClosed = errors.New("book view closed")

// BookView is an open book: a mode, a paginator over that mode's list, and
// a subscription to snapshot changes. Work that finishes after Close does
// not touch the view.
type BookView struct {
	svc *Service

	mu     sync.Mutex
	mode   aggregate.Mode
	pager  *book.Paginator
	closed bool
}

// OpenBook opens a book on mode. Missing external favorites are resolved
// through the detail cache first; if that fails the failure is logged and
// the book opens with what is already cached.
func (s *Service) OpenBook(ctx context.Context, mode aggregate.Mode) (*BookView, error) {
	if _, err := aggregate.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	v := &BookView{
		svc:   s,
		mode:  mode,
		pager: book.New(s.Views().For(mode), s.policy),
	}
	s.attach(v)

	if err := v.Sync(ctx); err != nil {
		if errors.Is(err, ErrClosed) || ctx.Err() != nil {
			v.Close()
			return nil, err
		}
		s.log.Warn("opening book without some external favorites", slog.Any("error", err))
	}
	return v, nil
}

// Sync fetches external favorites the cache lacks and then refreshes the
// items. A cache failure is returned after the refresh so the caller can
// report it; the view stays usable.
func (v *BookView) Sync(ctx context.Context) error {
	if !v.Alive() {
		return ErrClosed
	}

	var fetchErr error
	if v.svc.cache != nil {
		if missing := v.svc.missingDetails(); len(missing) > 0 {
			_, fetchErr = v.svc.cache.GetOrFetch(ctx, missing)
		}
	}

	if !v.Alive() {
		return ErrClosed
	}
	v.Refresh()
	if fetchErr != nil {
		return fmt.Errorf("resolving external favorites: %w", fetchErr)
	}
	return nil
}

// Refresh rebuilds the item list for the current mode and clamps the page.
func (v *BookView) Refresh() {
	views := v.svc.Views()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.pager.SetItems(views.For(v.mode), false)
}

// SetMode switches between the favorites and mine lists.
func (v *BookView) SetMode(mode aggregate.Mode) error {
	if _, err := aggregate.ParseMode(string(mode)); err != nil {
		return err
	}
	views := v.svc.Views()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	switched := mode != v.mode
	v.mode = mode
	v.pager.SetItems(views.For(mode), switched)
	return nil
}

// Mode returns the current mode.
func (v *BookView) Mode() aggregate.Mode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mode
}

// Next flips forward and returns the new page index.
func (v *BookView) Next() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.FlipNext()
}

// Prev flips back and returns the new page index.
func (v *BookView) Prev() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.FlipPrev()
}

// FlipTo jumps to index, clamped to the book.
func (v *BookView) FlipTo(index int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.FlipTo(index)
}

// Page returns the current page index; 0 is the cover.
func (v *BookView) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Page()
}

// Len returns the number of recipe pages.
func (v *BookView) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Len()
}

// Current returns the recipe on the current page, or false on the cover.
func (v *BookView) Current() (types.ViewItem, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Current()
}

// Items returns the current item list.
func (v *BookView) Items() []types.ViewItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Items()
}

// Label renders the page position.
func (v *BookView) Label() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Label()
}

// Alive reports whether the view is still open.
func (v *BookView) Alive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.closed
}

// Close detaches the view. It is safe to call more than once.
func (v *BookView) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.svc.detach(v)
}
