package mapper

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/types"
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is returned when a value has no member in an enum. It is
// distinct from nil.
var Undefined any = undefined{}

// MappedEnum links a built enum to the enum it was built from.
type MappedEnum struct {
	Type   *graphql.Enum
	Source *types.Enum
}

// Serialize returns the wire name of v, or Undefined.
func (e *MappedEnum) Serialize(v any) any {
	member, ok := e.Source.Member(v)
	if !ok {
		return Undefined
	}
	return member.Name
}

// Value returns the underlying value of the member named name.
func (e *MappedEnum) Value(name string) (any, bool) {
	for _, ev := range e.Source.Values {
		if ev.Name == name {
			return types.Underlying(ev.Value), true
		}
	}
	return nil, false
}

func (m *Mapper) mapEnum(e *types.Enum) (graphql.Type, error) {
	name := e.Name + m.cfg.Suffixes.Enum
	if existing, ok := m.s.registry.Named(name); ok {
		if enum, ok := existing.(*graphql.Enum); ok {
			return enum, nil
		}
		return nil, fmt.Errorf("%w: %s is already taken by another type", ErrUnmappable, name)
	}

	values := graphql.EnumValueConfigMap{}
	for _, ev := range e.Values {
		values[ev.Name] = &graphql.EnumValueConfig{
			Value:       types.Underlying(ev.Value),
			Description: m.describe(ev.Doc),
		}
	}

	doc := e.Doc
	if doc == "" {
		doc = fmt.Sprintf("A %s.", e.Name)
	}

	enum := graphql.NewEnum(graphql.EnumConfig{
		Name:        name,
		Values:      values,
		Description: m.describe(doc),
	})
	m.s.registry.setEnum(&MappedEnum{Type: enum, Source: e})
	if err := m.applyDirectives(enum, name, e); err != nil {
		return nil, err
	}
	return enum, nil
}
