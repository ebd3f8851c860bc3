package annotations

import (
	"errors"
	"fmt"
	"sync"

	"github.com/parob/graphql-api/schema/directives"
	"github.com/parob/graphql-api/schema/types"
)

type Role string

const (
	RoleField             Role = "field"
	RoleMutableField      Role = "mutable_field"
	RoleSubscriptionField Role = "subscription_field"
	RoleObject            Role = "object"
	RoleInterface         Role = "interface"
	RoleAbstract          Role = "abstract"
)

// IsType reports whether the role applies to types rather than members.
func (r Role) IsType() bool {
	return r == RoleObject || r == RoleInterface || r == RoleAbstract
}

var (
	ErrRootNotObject = errors.New("only object types can be a schema root")
	ErrRootSetter    = errors.New("schema identity cannot accept a root type")
	ErrRoleTarget    = errors.New("role does not apply to target")
)

// RootSetter is implemented by schema identities that accept a root
// type at annotation time.
type RootSetter interface {
	SetRootType(root *types.Class)
}

// Annotation is the record stored for one (target, schema) pair.
type Annotation struct {
	Role       Role
	Schema     any
	DefinedOn  any
	Meta       map[string]any
	Directives []directives.Applied
}

// Registry maps declarations to their annotations per schema identity.
// A nil schema identity is the wildcard valid for every schema.
type Registry struct {
	mu      sync.RWMutex
	entries map[any]map[any]*Annotation
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[any]map[any]*Annotation),
	}
}

// Default is the registry used by the package level helpers.
var Default = NewRegistry()

type options struct {
	schema     any
	meta       map[string]any
	directives []directives.Applied
	root       bool
}

type Option func(*options)

// ForSchema restricts the annotation to one schema identity.
func ForSchema(schema any) Option {
	return func(o *options) {
		o.schema = schema
	}
}

// WithMeta attaches tags. Marking the same target again for the same
// schema overwrites them.
func WithMeta(meta map[string]any) Option {
	return func(o *options) {
		o.meta = meta
	}
}

func WithDirectives(applied ...directives.Applied) Option {
	return func(o *options) {
		o.directives = append(o.directives, applied...)
	}
}

// AsRoot registers the marked class as the root type of the schema
// identity given by ForSchema.
func AsRoot() Option {
	return func(o *options) {
		o.root = true
	}
}

// Mark records the role of target. Members must be a *types.Func; types
// a *types.Class, *types.Record or *types.Enum.
func (r *Registry) Mark(target any, role Role, opts ...Option) error {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if err := checkTarget(target, role); err != nil {
		return err
	}

	if o.root {
		if role != RoleObject {
			return fmt.Errorf("%w: %v is marked %s", ErrRootNotObject, target, role)
		}
		setter, ok := o.schema.(RootSetter)
		if !ok {
			return fmt.Errorf("%w: %T", ErrRootSetter, o.schema)
		}
		setter.SetRootType(target.(*types.Class))
	}

	meta := o.meta
	if meta == nil {
		meta = map[string]any{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	perSchema, ok := r.entries[target]
	if !ok {
		perSchema = make(map[any]*Annotation)
		r.entries[target] = perSchema
	}
	perSchema[o.schema] = &Annotation{
		Role:       role,
		Schema:     o.schema,
		DefinedOn:  target,
		Meta:       meta,
		Directives: o.directives,
	}
	return nil
}

func checkTarget(target any, role Role) error {
	switch target.(type) {
	case *types.Func:
		if role.IsType() {
			return fmt.Errorf("%w: %s on a member", ErrRoleTarget, role)
		}
	case *types.Class, *types.Record, *types.Enum:
		if !role.IsType() {
			return fmt.Errorf("%w: %s on a type", ErrRoleTarget, role)
		}
	default:
		return fmt.Errorf("%w: %T", ErrRoleTarget, target)
	}
	return nil
}

// Lookup returns the annotation of target for schema, falling back to
// the wildcard entry.
func (r *Registry) Lookup(target any, schema any) (*Annotation, bool) {
	if target == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	perSchema, ok := r.entries[target]
	if !ok {
		return nil, false
	}
	if a, ok := perSchema[schema]; ok && schema != nil {
		return a, true
	}
	a, ok := perSchema[nil]
	return a, ok
}

// RoleOf returns the role of target for schema.
func (r *Registry) RoleOf(target any, schema any) (Role, bool) {
	a, ok := r.Lookup(target, schema)
	if !ok {
		return "", false
	}
	return a.Role, true
}

// IsMember reports whether target carries any annotation for schema.
func (r *Registry) IsMember(target any, schema any) bool {
	_, ok := r.Lookup(target, schema)
	return ok
}

// TypeAnnotation resolves the annotation of a class along its MRO, so
// subclasses see the nearest annotated ancestor. DefinedOn tells where
// it was declared.
func (r *Registry) TypeAnnotation(c *types.Class, schema any) (*Annotation, bool) {
	for _, cls := range c.MRO() {
		if a, ok := r.Lookup(cls, schema); ok {
			return a, true
		}
	}
	return nil, false
}

// IsInterface reports whether c itself is declared an interface.
func (r *Registry) IsInterface(c *types.Class, schema any) bool {
	return r.declaredAs(c, schema, RoleInterface)
}

// IsAbstract reports whether c itself is declared abstract.
func (r *Registry) IsAbstract(c *types.Class, schema any) bool {
	return r.declaredAs(c, schema, RoleAbstract)
}

func (r *Registry) declaredAs(c *types.Class, schema any, role Role) bool {
	a, ok := r.TypeAnnotation(c, schema)
	return ok && a.Role == role && a.DefinedOn == any(c)
}

// Field marks f as a query field. It panics on invalid options.
func (r *Registry) Field(f *types.Func, opts ...Option) *types.Func {
	must(r.Mark(f, RoleField, opts...))
	return f
}

// MutableField marks f as a mutable field.
func (r *Registry) MutableField(f *types.Func, opts ...Option) *types.Func {
	must(r.Mark(f, RoleMutableField, opts...))
	return f
}

// SubscriptionField marks f as a subscription field.
func (r *Registry) SubscriptionField(f *types.Func, opts ...Option) *types.Func {
	must(r.Mark(f, RoleSubscriptionField, opts...))
	return f
}

// Property marks the getter as a field and the setter as a mutable field.
func (r *Registry) Property(p *types.Property, opts ...Option) *types.Property {
	if p.Getter != nil {
		must(r.Mark(p.Getter, RoleField, opts...))
	}
	if p.Setter != nil {
		must(r.Mark(p.Setter, RoleMutableField, opts...))
	}
	return p
}

// Object marks c as an object type.
func (r *Registry) Object(c *types.Class, opts ...Option) *types.Class {
	must(r.Mark(c, RoleObject, opts...))
	return c
}

// Interface marks c as an interface type.
func (r *Registry) Interface(c *types.Class, opts ...Option) *types.Class {
	must(r.Mark(c, RoleInterface, opts...))
	return c
}

// Abstract marks c as an abstract type.
func (r *Registry) Abstract(c *types.Class, opts ...Option) *types.Class {
	must(r.Mark(c, RoleAbstract, opts...))
	return c
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func Field(f *types.Func, opts ...Option) *types.Func {
	return Default.Field(f, opts...)
}

func MutableField(f *types.Func, opts ...Option) *types.Func {
	return Default.MutableField(f, opts...)
}

func SubscriptionField(f *types.Func, opts ...Option) *types.Func {
	return Default.SubscriptionField(f, opts...)
}

func Property(p *types.Property, opts ...Option) *types.Property {
	return Default.Property(p, opts...)
}

func Object(c *types.Class, opts ...Option) *types.Class {
	return Default.Object(c, opts...)
}

func Interface(c *types.Class, opts ...Option) *types.Class {
	return Default.Interface(c, opts...)
}

func Abstract(c *types.Class, opts ...Option) *types.Class {
	return Default.Abstract(c, opts...)
}
