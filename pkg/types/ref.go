// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ExternalPrefix marks a recipe id that belongs to the external provider's
// namespace. It exists only on the wire; in memory the namespace is carried by
// RecipeRef.Origin.
const ExternalPrefix = "ext-"

// LocalID is an opaque identifier assigned by the local recipe store.
// JSON numbers are accepted as well as strings, because json-server compatible
// stores may emit numeric ids.
type LocalID string

// UnmarshalJSON accepts a JSON string or number.
func (id *LocalID) UnmarshalJSON(data []byte) error {
	s, err := flexString(data)
	if err != nil {
		return fmt.Errorf("decoding local id: %w", err)
	}
	*id = LocalID(s)
	return nil
}

// UnmarshalYAML accepts any scalar, so `id: 3` and `id: "3"` decode alike.
func (id *LocalID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("decoding local id: expected scalar, got kind %d", node.Kind)
	}
	*id = LocalID(node.Value)
	return nil
}

// ProviderID is the external provider's numeric recipe id.
type ProviderID int64

// Origin identifies which namespace a recipe reference lives in.
type Origin int

const (
	OriginLocal Origin = iota
	OriginExternal
)

func (o Origin) String() string {
	if o == OriginExternal {
		return "external"
	}
	return "local"
}

// RecipeRef is a reference to a recipe in either namespace. Exactly one of
// Local or Provider is meaningful, selected by Origin. The zero value is an
// empty local reference.
type RecipeRef struct {
	Origin   Origin
	Local    LocalID
	Provider ProviderID
}

// LocalRef references a recipe in the local store.
func LocalRef(id LocalID) RecipeRef {
	return RecipeRef{Origin: OriginLocal, Local: id}
}

// ExternalRef references a recipe held by the external provider.
func ExternalRef(id ProviderID) RecipeRef {
	return RecipeRef{Origin: OriginExternal, Provider: id}
}

// ParseRecipeRef converts a wire id into a reference. Ids carrying
// ExternalPrefix must be followed by the provider's integer id.
func ParseRecipeRef(s string) (RecipeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RecipeRef{}, fmt.Errorf("empty recipe id: %w", ErrInvalid)
	}
	rest, ok := strings.CutPrefix(s, ExternalPrefix)
	if !ok {
		return LocalRef(LocalID(s)), nil
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return RecipeRef{}, fmt.Errorf("malformed external recipe id %q: %w", s, ErrInvalid)
	}
	return ExternalRef(ProviderID(n)), nil
}

// IsExternal reports whether the reference points at the external provider.
func (r RecipeRef) IsExternal() bool { return r.Origin == OriginExternal }

// IsZero reports whether the reference is unset.
func (r RecipeRef) IsZero() bool { return r == RecipeRef{} }

// LocalID returns the local id and true for a local reference.
func (r RecipeRef) LocalID() (LocalID, bool) {
	if r.Origin != OriginLocal || r.Local == "" {
		return "", false
	}
	return r.Local, true
}

// ProviderID returns the provider id and true for an external reference.
func (r RecipeRef) ProviderID() (ProviderID, bool) {
	if r.Origin != OriginExternal {
		return 0, false
	}
	return r.Provider, true
}

// String renders the wire form: the local id, or "ext-" + provider id.
func (r RecipeRef) String() string {
	if r.Origin == OriginExternal {
		return ExternalPrefix + strconv.FormatInt(int64(r.Provider), 10)
	}
	return string(r.Local)
}

// MarshalText implements encoding.TextMarshaler (JSON and YAML both use it).
func (r RecipeRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RecipeRef) UnmarshalText(text []byte) error {
	ref, err := ParseRecipeRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// UnmarshalJSON accepts the wire string form or a bare JSON number, which
// json-server uses for local ids.
func (r *RecipeRef) UnmarshalJSON(data []byte) error {
	s, err := flexString(data)
	if err != nil {
		return fmt.Errorf("decoding recipe id: %w", err)
	}
	return r.UnmarshalText([]byte(s))
}

// UnmarshalYAML accepts any scalar in wire form.
func (r *RecipeRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("decoding recipe id: expected scalar, got kind %d", node.Kind)
	}
	return r.UnmarshalText([]byte(node.Value))
}

// flexString decodes a JSON string or number into its string form.
func flexString(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
