package types

import (
	"fmt"
	"reflect"
	"sync"
)

// Class is an object-oriented source type: a name, ordered bases and
// members declared on the class itself.
type Class struct {
	Name string
	Doc  string

	// GoType is the type of the values resolvers receive. Optional, but
	// required for union and interface resolution by value.
	GoType reflect.Type

	// New constructs a root value when none is supplied at execution.
	New func() any

	// FromInput builds a value from decoded input arguments keyed by
	// source field name.
	FromInput func(args map[string]any) (any, error)

	// InputParams are the fields of the input object built for the class.
	InputParams []Param

	bases      []*Class
	members    []Member
	subclasses []*Class
	mro        []*Class
	mu         sync.RWMutex
}

func (c *Class) Key() string {
	return fmt.Sprintf("Class(%s@%p)", c.Name, c)
}

func (*Class) isType() {}

type ClassOption func(*Class)

// Extends declares the bases of the class in order.
func Extends(bases ...*Class) ClassOption {
	return func(c *Class) {
		c.bases = append(c.bases, bases...)
	}
}

// Describe sets the documentation text.
func Describe(doc string) ClassOption {
	return func(c *Class) {
		c.Doc = doc
	}
}

// Instance binds the Go type T to the class.
func Instance[T any]() ClassOption {
	return func(c *Class) {
		c.GoType = reflect.TypeOf((*T)(nil)).Elem()
	}
}

// Constructor sets the root constructor.
func Constructor(fn func() any) ClassOption {
	return func(c *Class) {
		c.New = fn
	}
}

// InputConstructor sets the constructor used for input arguments and
// the parameters it accepts.
func InputConstructor(fn func(args map[string]any) (any, error), params ...Param) ClassOption {
	return func(c *Class) {
		c.FromInput = fn
		c.InputParams = append(c.InputParams, params...)
	}
}

// NewClass declares a class. It panics if the bases have no consistent
// method resolution order.
func NewClass(name string, opts ...ClassOption) *Class {
	c := &Class{Name: name}
	for _, opt := range opts {
		opt(c)
	}

	mro, err := linearize(c)
	if err != nil {
		panic(err)
	}
	c.mro = mro

	for _, base := range c.bases {
		base.mu.Lock()
		base.subclasses = append(base.subclasses, c)
		base.mu.Unlock()
	}
	if c.GoType != nil {
		register(c.GoType, c)
	}
	return c
}

func (c *Class) Bases() []*Class {
	return c.bases
}

// MRO returns the class followed by its ancestors, most-derived first.
func (c *Class) MRO() []*Class {
	return c.mro
}

// Subclasses returns the direct subclasses declared so far.
func (c *Class) Subclasses() []*Class {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Class, len(c.subclasses))
	copy(out, c.subclasses)
	return out
}

// Members returns the members declared on this class only.
func (c *Class) Members() []Member {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Member, len(c.members))
	copy(out, c.members)
	return out
}

// Member returns the member declared on this class under name.
func (c *Class) Member(name string) Member {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, m := range c.members {
		if m.MemberName() == name {
			return m
		}
	}
	return nil
}

// Lookup resolves name along the MRO.
func (c *Class) Lookup(name string) Member {
	for _, cls := range c.mro {
		if m := cls.Member(name); m != nil {
			return m
		}
	}
	return nil
}

// IsSubclassOf reports whether base appears in the MRO of c.
func (c *Class) IsSubclassOf(base *Class) bool {
	for _, cls := range c.mro {
		if cls == base {
			return true
		}
	}
	return false
}

func (c *Class) add(m Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.members {
		if existing.MemberName() == m.MemberName() {
			c.members[i] = m
			return
		}
	}
	c.members = append(c.members, m)
}

// linearize computes the C3 linearization of c.
func linearize(c *Class) ([]*Class, error) {
	seqs := make([][]*Class, 0, len(c.bases)+1)
	for _, base := range c.bases {
		seqs = append(seqs, append([]*Class(nil), base.mro...))
	}
	seqs = append(seqs, append([]*Class(nil), c.bases...))

	result := []*Class{c}
	for {
		seqs = dropEmpty(seqs)
		if len(seqs) == 0 {
			return result, nil
		}

		var head *Class
		for _, seq := range seqs {
			candidate := seq[0]
			if !inTail(candidate, seqs) {
				head = candidate
				break
			}
		}
		if head == nil {
			return nil, fmt.Errorf("%w: %s", ErrInconsistentHierarchy, c.Name)
		}

		result = append(result, head)
		for i, seq := range seqs {
			if seq[0] == head {
				seqs[i] = seq[1:]
			}
		}
	}
}

func dropEmpty(seqs [][]*Class) [][]*Class {
	out := seqs[:0]
	for _, seq := range seqs {
		if len(seq) > 0 {
			out = append(out, seq)
		}
	}
	return out
}

func inTail(c *Class, seqs [][]*Class) bool {
	for _, seq := range seqs {
		for _, other := range seq[1:] {
			if other == c {
				return true
			}
		}
	}
	return false
}

var classIndex sync.Map

func register(t reflect.Type, c *Class) {
	classIndex.Store(t, c)
}

// Proxy is implemented by values that stand in for another class.
type Proxy interface {
	GraphQLClass() *Class
}

// Overrider lets an instance replace a declared member by name. The
// returned value must be a func with the member's parameters minus the
// receiver.
type Overrider interface {
	GraphQLOverride(name string) (any, bool)
}

// ClassOf returns the class a value belongs to, honoring proxies.
func ClassOf(v any) *Class {
	if v == nil {
		return nil
	}
	if p, ok := v.(Proxy); ok {
		return p.GraphQLClass()
	}
	t := reflect.TypeOf(v)
	for t != nil {
		if c, ok := classIndex.Load(t); ok {
			return c.(*Class)
		}
		if t.Kind() != reflect.Ptr {
			break
		}
		t = t.Elem()
	}
	return nil
}
