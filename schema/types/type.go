package types

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/scalars"
)

// Type describes a source type that can be mapped to GraphQL.
// Implementations are closed to this package.
type Type interface {
	// Key is a structural identity used to memoize mapped types.
	Key() string
	isType()
}

type noneType struct{}

func (noneType) Key() string { return "None" }
func (noneType) isType()     {}

// None is the none-type. It has no GraphQL representation and only
// signals nullability inside a union.
var None Type = noneType{}

type unionFlag struct{}

func (unionFlag) Key() string { return "UnionFlag" }
func (unionFlag) isType()     {}

// UnionFlag marks a single-branch union that must still render as a
// GraphQL union. It never becomes a union member.
var UnionFlag Type = unionFlag{}

type contextType struct{}

func (contextType) Key() string { return "Context" }
func (contextType) isType()     {}

// ContextType marks a parameter that receives the resolve *Context.
var ContextType Type = contextType{}

// NativeType is a Go type resolved through the scalar table.
type NativeType struct {
	Go reflect.Type
}

func (n *NativeType) Key() string {
	if n.Go == nil {
		return "Native(nil)"
	}
	return "Native(" + n.Go.PkgPath() + "." + n.Go.String() + ")"
}

func (*NativeType) isType() {}

// Native describes the Go type t.
func Native(t reflect.Type) *NativeType {
	return &NativeType{Go: t}
}

// Of describes the Go type T.
func Of[T any]() *NativeType {
	return Native(reflect.TypeOf((*T)(nil)).Elem())
}

var (
	String   = Of[string]()
	Int      = Of[int]()
	Float    = Of[float64]()
	Boolean  = Of[bool]()
	UUID     = Of[uuid.UUID]()
	Bytes    = Of[[]byte]()
	DateTime = Of[time.Time]()
	Date     = Of[scalars.Date]()
	JSON     = Of[map[string]any]()
)

// UnionType is a flattened union of types. None among the members
// makes the union nullable.
type UnionType struct {
	Types []Type
}

func (u *UnionType) Key() string {
	keys := make([]string, 0, len(u.Types))
	for _, t := range u.Types {
		keys = append(keys, t.Key())
	}
	sort.Strings(keys)
	return "Union(" + strings.Join(keys, ",") + ")"
}

func (*UnionType) isType() {}

// Nullable reports whether None is one of the members.
func (u *UnionType) Nullable() bool {
	return u.Has(None)
}

// Has reports whether t is one of the members.
func (u *UnionType) Has(t Type) bool {
	for _, m := range u.Types {
		if m.Key() == t.Key() {
			return true
		}
	}
	return false
}

// Members returns the members without None and UnionFlag.
func (u *UnionType) Members() []Type {
	members := make([]Type, 0, len(u.Types))
	for _, m := range u.Types {
		if m == None || m == UnionFlag {
			continue
		}
		members = append(members, m)
	}
	return members
}

// Union builds a flattened and deduplicated union. A single remaining
// member is returned as is.
func Union(ts ...Type) Type {
	var flat []Type
	seen := map[string]bool{}
	var add func(t Type)
	add = func(t Type) {
		if u, ok := t.(*UnionType); ok {
			for _, m := range u.Types {
				add(m)
			}
			return
		}
		if seen[t.Key()] {
			return
		}
		seen[t.Key()] = true
		flat = append(flat, t)
	}
	for _, t := range ts {
		add(t)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &UnionType{Types: flat}
}

// Optional is shorthand for Union(t, None).
func Optional(t Type) Type {
	return Union(t, None)
}

// IsNullable reports whether t is a union containing None.
func IsNullable(t Type) bool {
	u, ok := t.(*UnionType)
	return ok && u.Nullable()
}

// ListType is a list-like container. Set only affects the key.
type ListType struct {
	Elem Type
	Set  bool
}

func (l *ListType) Key() string {
	if l.Set {
		return "Set(" + l.Elem.Key() + ")"
	}
	return "List(" + l.Elem.Key() + ")"
}

func (*ListType) isType() {}

func List(elem Type) *ListType {
	return &ListType{Elem: elem}
}

func Set(elem Type) *ListType {
	return &ListType{Elem: elem, Set: true}
}

// LiteralType is a fixed set of literal values of one Go type.
type LiteralType struct {
	Values []any
}

func (l *LiteralType) Key() string {
	parts := make([]string, 0, len(l.Values))
	for _, v := range l.Values {
		parts = append(parts, fmt.Sprintf("%T:%v", v, v))
	}
	return "Literal(" + strings.Join(parts, ",") + ")"
}

func (*LiteralType) isType() {}

func Literal(values ...any) *LiteralType {
	return &LiteralType{Values: values}
}

// Homogeneous reports whether every value shares the first value's Go type.
func (l *LiteralType) Homogeneous() bool {
	if len(l.Values) == 0 {
		return false
	}
	first := reflect.TypeOf(l.Values[0])
	for _, v := range l.Values[1:] {
		if reflect.TypeOf(v) != first {
			return false
		}
	}
	return true
}

// GraphQLType passes an already built GraphQL type through the mapper.
type GraphQLType struct {
	Type graphql.Type
}

func (g *GraphQLType) Key() string {
	return fmt.Sprintf("GraphQL(%s@%p)", g.Type.Name(), g.Type)
}

func (*GraphQLType) isType() {}

func GraphQL(t graphql.Type) *GraphQLType {
	return &GraphQLType{Type: t}
}

// BuildContext is what a Wrapper sees of the mapper building it.
type BuildContext interface {
	Map(t Type) (graphql.Type, error)
	Mutable() bool
	Input() bool
	Suffix() string
}

// Wrapper is a self-describing type that builds its own GraphQL
// representation.
type Wrapper struct {
	Name  string
	Build func(ctx BuildContext) (graphql.Type, error)
}

func (w *Wrapper) Key() string {
	return fmt.Sprintf("Wrapper(%s@%p)", w.Name, w)
}

func (*Wrapper) isType() {}
