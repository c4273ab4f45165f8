package detect

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateEntry is returned by Register under the DuplicateError policy.
var ErrDuplicateEntry = errors.New("duplicate registry entry")

// OnDuplicate selects how a registry handles a second registration under the
// same name.
type OnDuplicate int

const (
	// DuplicateSkip keeps the existing entry and ignores the new one.
	DuplicateSkip OnDuplicate = iota
	// DuplicateOverwrite replaces the existing entry.
	DuplicateOverwrite
	// DuplicateError rejects the registration with ErrDuplicateEntry.
	DuplicateError
	// DuplicateWarn overwrites the entry and records a warning.
	DuplicateWarn
)

// Registry maps names to values with an explicit duplicate policy. Lookups
// are exact string matches. A Registry is not safe for concurrent mutation;
// build it up front and share it read-only.
type Registry[V any] struct {
	policy   OnDuplicate
	entries  map[string]V
	warnings []string
}

// NewRegistry creates an empty registry with the given duplicate policy.
func NewRegistry[V any](policy OnDuplicate) *Registry[V] {
	return &Registry[V]{
		policy:  policy,
		entries: make(map[string]V),
	}
}

// Register adds a name to the registry, resolving collisions per the policy.
func (r *Registry[V]) Register(name string, value V) error {
	if _, exists := r.entries[name]; exists {
		switch r.policy {
		case DuplicateSkip:
			return nil
		case DuplicateError:
			return fmt.Errorf("%w: %q", ErrDuplicateEntry, name)
		case DuplicateWarn:
			r.warnings = append(r.warnings, fmt.Sprintf("duplicate entry %q overwritten", name))
		}
	}
	r.entries[name] = value
	return nil
}

// Lookup returns the value registered under name.
func (r *Registry[V]) Lookup(name string) (V, bool) {
	v, ok := r.entries[name]
	return v, ok
}

// Has reports whether name is registered.
func (r *Registry[V]) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Names returns all registered names in sorted order.
func (r *Registry[V]) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered entries.
func (r *Registry[V]) Len() int {
	return len(r.entries)
}

// Warnings returns messages recorded under the DuplicateWarn policy.
func (r *Registry[V]) Warnings() []string {
	return r.warnings
}

// NameSet builds a value-less registry from a list of names. Registration
// errors can only arise under DuplicateError.
func NameSet(policy OnDuplicate, names ...string) (*Registry[struct{}], error) {
	r := NewRegistry[struct{}](policy)
	for _, name := range names {
		if err := r.Register(name, struct{}{}); err != nil {
			return nil, err
		}
	}
	return r, nil
}
