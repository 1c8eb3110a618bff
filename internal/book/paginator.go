// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package book keeps the page position of the recipe book. Page 0 is the
// cover; pages 1..N show items[0..N-1]. The page index stays within [0, N]
// whatever the source of a flip and however the item list changes.
package book

import (
	"fmt"

	"github.com/pdiddy/cookbook/pkg/types"
)

// ModeSwitchPolicy decides what a mode switch does to the page index.
type ModeSwitchPolicy int

const (
	// ResetOnModeSwitch returns to the cover.
	ResetOnModeSwitch ModeSwitchPolicy = iota

	// ClampOnModeSwitch keeps the page index when it still fits.
	ClampOnModeSwitch
)

// Paginator is not safe for concurrent use; the owning view serializes access.
type Paginator struct {
	items  []types.ViewItem
	page   int
	policy ModeSwitchPolicy
}

// New returns a paginator on the cover page.
func New(items []types.ViewItem, policy ModeSwitchPolicy) *Paginator {
	return &Paginator{items: items, policy: policy}
}

// Len returns N, the number of item pages.
func (p *Paginator) Len() int { return len(p.items) }

// Page returns the current page index.
func (p *Paginator) Page() int { return p.page }

// Items returns the current item list.
func (p *Paginator) Items() []types.ViewItem { return p.items }

// FlipNext moves one page forward, stopping at the last page.
func (p *Paginator) FlipNext() int {
	p.page = min(p.page+1, len(p.items))
	return p.page
}

// FlipPrev moves one page back, stopping at the cover.
func (p *Paginator) FlipPrev() int {
	p.page = max(p.page-1, 0)
	return p.page
}

// FlipTo accepts a page index reported by the flip mechanism and clamps it.
func (p *Paginator) FlipTo(index int) int {
	p.page = clamp(index, len(p.items))
	return p.page
}

// SetItems replaces the item list. A mode switch follows the policy; any
// other change clamps the page index to the new length.
func (p *Paginator) SetItems(items []types.ViewItem, modeSwitch bool) int {
	p.items = items
	if modeSwitch && p.policy == ResetOnModeSwitch {
		p.page = 0
		return p.page
	}
	p.page = clamp(p.page, len(items))
	return p.page
}

// Current returns the item on the current page, or false on the cover.
func (p *Paginator) Current() (types.ViewItem, bool) {
	if p.page == 0 || p.page > len(p.items) {
		return types.ViewItem{}, false
	}
	return p.items[p.page-1], true
}

// CanPrev reports whether FlipPrev would move.
func (p *Paginator) CanPrev() bool { return p.page > 0 }

// CanNext reports whether FlipNext would move.
func (p *Paginator) CanNext() bool { return p.page < len(p.items) }

// Label renders the position, e.g. "Recipe 2 of 5", or "Cover" on page 0.
func (p *Paginator) Label() string {
	if p.page == 0 {
		if len(p.items) == 0 {
			return "Cover (empty)"
		}
		return fmt.Sprintf("Cover (%d recipes)", len(p.items))
	}
	return fmt.Sprintf("Recipe %d of %d", p.page, len(p.items))
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
