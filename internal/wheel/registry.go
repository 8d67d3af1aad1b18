package wheel

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Registry maps wheel names to definitions. Names match case-insensitively and
// ignore differences in whitespace. Definitions registered by callers shadow
// built-ins with the same name. A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	builtin map[string]*Definition
	user    map[string]*Definition
}

// NewRegistry returns a registry seeded with the built-in wheels.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	for _, def := range Builtins() {
		r.builtin[NormalizeName(def.Name)] = def
	}
	return r
}

// NewEmptyRegistry returns a registry without built-ins.
func NewEmptyRegistry() *Registry {
	return &Registry{
		builtin: make(map[string]*Definition),
		user:    make(map[string]*Definition),
	}
}

// LoadJSON parses, validates and registers a definition. Nothing is registered
// unless the result is valid.
func (r *Registry) LoadJSON(data []byte) (*Definition, ValidationResult) {
	def, res := ParseJSON(data)
	if !res.Valid {
		return nil, res
	}
	r.store(def)
	return def.Clone(), res
}

// Register validates def and stores a copy of it, replacing any earlier user
// definition with the same name.
func (r *Registry) Register(def *Definition) error {
	if res := Validate(def); !res.Valid {
		return fmt.Errorf("registering wheel: %w", res.Err())
	}
	def = def.Clone()
	sortRings(def.Rings)
	r.store(def)
	return nil
}

func (r *Registry) store(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user[NormalizeName(def.Name)] = def
}

// Get looks up a definition by name. The returned value is a copy.
func (r *Registry) Get(name string) (*Definition, bool) {
	key := NormalizeName(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, ok := r.user[key]; ok {
		return def.Clone(), true
	}
	if def, ok := r.builtin[key]; ok {
		return def.Clone(), true
	}
	return nil, false
}

// IsBuiltin reports whether name resolves to a built-in definition, that is,
// no user definition shadows it.
func (r *Registry) IsBuiltin(name string) bool {
	key := NormalizeName(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.user[key]; ok {
		return false
	}
	_, ok := r.builtin[key]
	return ok
}

// Unregister removes a user definition. Built-ins cannot be removed; a
// built-in shadowed by the removed definition becomes visible again.
func (r *Registry) Unregister(name string) bool {
	key := NormalizeName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.user[key]; !ok {
		return false
	}
	delete(r.user, key)
	return true
}

// Names returns the display name of every visible definition, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.user)+len(r.builtin))
	for _, def := range r.user {
		names = append(names, def.Name)
	}
	for key, def := range r.builtin {
		if _, shadowed := r.user[key]; shadowed {
			continue
		}
		names = append(names, def.Name)
	}
	sort.Strings(names)
	return names
}

// ExportJSON encodes a definition in the form LoadJSON accepts.
func (r *Registry) ExportJSON(name string) ([]byte, error) {
	def, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("wheel %q not found", name)
	}
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding wheel %q: %w", name, err)
	}
	return data, nil
}
