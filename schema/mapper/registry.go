package mapper

import (
	"sync"

	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/types"
)

type ConversionState int

const (
	StateNotStarted ConversionState = iota
	StateProcessing
	StateComplete
)

type TypeEntry struct {
	Type   graphql.Type
	Source types.Type
	State  ConversionState
}

type fieldRef struct {
	Type  string
	Field string
}

// Registry memoizes built types by structural key, by name and in
// reverse, from built type to source descriptor.
type Registry struct {
	mu            sync.RWMutex
	types         map[string]*TypeEntry
	order         []string
	named         map[string]graphql.Type
	reverse       map[graphql.Type]types.Type
	enums         map[*graphql.Enum]*MappedEnum
	mutableFields map[fieldRef]bool
}

func NewRegistry() *Registry {
	return &Registry{
		types:         make(map[string]*TypeEntry),
		named:         make(map[string]graphql.Type),
		reverse:       make(map[graphql.Type]types.Type),
		enums:         make(map[*graphql.Enum]*MappedEnum),
		mutableFields: make(map[fieldRef]bool),
	}
}

func (r *Registry) Register(key string, source types.Type, t graphql.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.getOrCreateEntry(key)
	entry.Type = t
	entry.Source = source
	entry.State = StateComplete

	if isNamed(t) {
		if _, exists := r.named[t.Name()]; !exists {
			r.named[t.Name()] = t
		}
	}
	if _, wrapped := source.(*types.UnionType); !wrapped {
		r.reverse[t] = source
	}
}

func (r *Registry) Get(key string) (graphql.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.types[key]
	if !exists || entry.State != StateComplete {
		return nil, false
	}
	return entry.Type, true
}

func (r *Registry) IsProcessing(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.types[key]
	return exists && entry.State == StateProcessing
}

func (r *Registry) MarkProcessing(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.getOrCreateEntry(key)
	entry.State = StateProcessing
}

func (r *Registry) UnmarkProcessing(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.types[key]; exists {
		if entry.State == StateProcessing {
			entry.State = StateNotStarted
		}
	}
}

// Named returns the type registered under a GraphQL name.
func (r *Registry) Named(name string) (graphql.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.named[name]
	return t, ok
}

// SetNamed claims a GraphQL name before the type is complete, so
// recursive lookups by name see it.
func (r *Registry) SetNamed(name string, t graphql.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.named[name] = t
}

// Reverse returns the source descriptor a type was built from. List
// and non-null wrappers are stripped first.
func (r *Registry) Reverse(t graphql.Type) (types.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, ok := r.reverse[unwrap(t)]
	return source, ok
}

// Types returns every distinct registered named type in registration
// order.
func (r *Registry) Types() []graphql.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[graphql.Type]bool{}
	var out []graphql.Type
	for _, key := range r.order {
		entry, ok := r.types[key]
		if !ok || entry.State != StateComplete || !isNamed(entry.Type) || seen[entry.Type] {
			continue
		}
		seen[entry.Type] = true
		out = append(out, entry.Type)
	}
	return out
}

// Remove purges t from every index.
func (r *Registry) Remove(t graphql.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.types {
		if entry.Type == t {
			delete(r.types, key)
		}
	}
	for name, named := range r.named {
		if named == t {
			delete(r.named, name)
		}
	}
	delete(r.reverse, t)
	if e, ok := t.(*graphql.Enum); ok {
		delete(r.enums, e)
	}
}

// Copy returns an independent snapshot sharing the built types.
func (r *Registry) Copy() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRegistry()
	for key, entry := range r.types {
		copied := *entry
		c.types[key] = &copied
	}
	c.order = append(c.order, r.order...)
	for k, v := range r.named {
		c.named[k] = v
	}
	for k, v := range r.reverse {
		c.reverse[k] = v
	}
	for k, v := range r.enums {
		c.enums[k] = v
	}
	for k, v := range r.mutableFields {
		c.mutableFields[k] = v
	}
	return c
}

func (r *Registry) setEnum(e *MappedEnum) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enums[e.Type] = e
}

func (r *Registry) enum(e *graphql.Enum) (*MappedEnum, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.enums[e]
	return m, ok
}

func (r *Registry) markMutable(typeName, field string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mutableFields[fieldRef{Type: typeName, Field: field}] = true
}

// IsMutableField reports whether the field was built from a mutable member.
func (r *Registry) IsMutableField(typeName, field string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.mutableFields[fieldRef{Type: typeName, Field: field}]
}

func (r *Registry) getOrCreateEntry(key string) *TypeEntry {
	entry, exists := r.types[key]
	if !exists {
		entry = &TypeEntry{State: StateNotStarted}
		r.types[key] = entry
		r.order = append(r.order, key)
	}
	return entry
}

// unwrap strips list and non-null wrappers.
func unwrap(t graphql.Type) graphql.Type {
	for {
		switch w := t.(type) {
		case *graphql.List:
			t = w.OfType
		case *graphql.NonNull:
			t = w.OfType
		default:
			return t
		}
	}
}

func isNamed(t graphql.Type) bool {
	switch t.(type) {
	case nil, *graphql.List, *graphql.NonNull:
		return false
	}
	return true
}
