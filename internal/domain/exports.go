package domain

import (
	"fmt"

	m "github.com/mouse-blink/loom/internal/model"
)

// Store holds every value exported while a batch runs. Each name is written
// exactly once by its sole producer; later writes are rejected no matter
// where they come from.
type Store struct {
	values map[string]any
	owners map[string]m.Directive
	names  []string
}

// NewStore returns an empty export store.
func NewStore() *Store {
	return &Store{
		values: make(map[string]any),
		owners: make(map[string]m.Directive),
	}
}

// Set binds name to value on behalf of owner.
func (s *Store) Set(name string, value any, owner m.Directive) error {
	if prev, ok := s.owners[name]; ok {
		return fmt.Errorf("%q was already exported at %s", name, prev.Ref())
	}

	s.values[name] = value
	s.owners[name] = owner
	s.names = append(s.names, name)

	return nil
}

// Get returns the value bound to name.
func (s *Store) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Owner returns the directive that exported name.
func (s *Store) Owner(name string) (m.Directive, bool) {
	d, ok := s.owners[name]
	return d, ok
}

// Names returns every bound name in the order it was written.
func (s *Store) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)

	return out
}

// Len returns the number of bound names.
func (s *Store) Len() int {
	return len(s.names)
}
