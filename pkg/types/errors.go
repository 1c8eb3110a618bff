// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages. Callers match them with errors.Is.
var (
	// ErrNotFound reports an absent recipe, favorite, or user.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized reports a mutation attempted by someone other than the
	// owner, or by nobody at all.
	ErrUnauthorized = errors.New("not authorized")

	// ErrInvalid reports malformed input such as an empty title or a
	// mis-namespaced recipe id.
	ErrInvalid = errors.New("invalid request")

	// ErrConflict reports a uniqueness violation in the store.
	ErrConflict = errors.New("conflict")

	// ErrProvider matches every *ProviderError.
	ErrProvider = errors.New("external provider error")
)

// ProviderError is returned by the external recipe gateway for transport,
// quota, rate-limit, and decoding failures. It is always recoverable.
type ProviderError struct {
	// Op names the gateway operation ("search", "detail", "find by ingredients").
	Op string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	Err error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrProvider) true for any ProviderError.
func (e *ProviderError) Is(target error) bool { return target == ErrProvider }
