package schema

import (
	"sort"
	"sync"
)

// Names is an arena of named types keyed by full name.
// A schema referencing a named type by name resolves it through the arena the schema was parsed with,
// so recursive references are lookups rather than copies.
type Names struct {
	mutex sync.RWMutex
	types map[string]*Schema
}

// NewNames returns an empty arena.
func NewNames() *Names {
	return &Names{types: make(map[string]*Schema)}
}

// Add registers a named schema. Registering a second, different schema under the same full name fails.
func (n *Names) Add(s *Schema) error {
	if !s.typ.IsNamed() {
		return invalid("cannot register unnamed %v", s.typ)
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	full := s.name.FullName()
	if have, ok := n.types[full]; ok && have != s {
		return invalid("redefinition of %v", full)
	}
	n.types[full] = s
	return nil
}

// Get returns the named type with the given full name.
func (n *Names) Get(full string) (*Schema, bool) {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	s, ok := n.types[full]
	return s, ok
}

// Lookup resolves a name as written in a schema description, relative to the enclosing namespace.
// Undotted names are tried in the enclosing namespace first, then in the null namespace.
func (n *Names) Lookup(name, namespace string) (*Schema, bool) {
	if s, ok := n.Get(ParseName(name, namespace).FullName()); ok {
		return s, true
	}
	if namespace != "" {
		return n.Get(name)
	}
	return nil, false
}

// All returns the registered full names in sorted order.
func (n *Names) All() []string {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	names := make([]string, 0, len(n.types))
	for name := range n.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
