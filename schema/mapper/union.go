package mapper

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/types"
)

type unionMember struct {
	source types.Type
	object *graphql.Object
}

// mapUnion maps a union. A nullable union with a single mapped member
// collapses to that member; the union flag alone never collapses.
func (m *Mapper) mapUnion(u *types.UnionType) (graphql.Type, error) {
	var (
		members []unionMember
		names   []string
		single  graphql.Type
	)
	for _, source := range u.Members() {
		t, err := m.Map(source)
		if err != nil {
			return nil, err
		}
		if t == nil {
			continue
		}
		single = t
		names = append(names, sourceName(source, t))
		if obj, ok := t.(*graphql.Object); ok {
			members = append(members, unionMember{source: source, object: obj})
		} else {
			members = append(members, unionMember{source: source})
		}
	}

	if len(names) == 1 && u.Nullable() {
		return single, nil
	}
	if len(names) == 0 {
		return nil, nil
	}
	if m.cfg.Input {
		return nil, fmt.Errorf("%w: union of %s", ErrNotInput, strings.Join(names, ", "))
	}

	objects := make([]*graphql.Object, 0, len(members))
	for i, member := range members {
		if member.object == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnionMember, names[i])
		}
		objects = append(objects, member.object)
	}

	name := strings.Join(names, "") + m.cfg.Suffix + "Union"
	if existing, ok := m.s.registry.Named(name); ok {
		return existing, nil
	}

	union := graphql.NewUnion(graphql.UnionConfig{
		Name:  name,
		Types: objects,
		ResolveType: func(p graphql.ResolveTypeParams) *graphql.Object {
			return resolveUnionMember(members, p.Value)
		},
	})
	m.s.registry.SetNamed(name, union)
	return union, nil
}

// resolveUnionMember returns the first member the value belongs to, or
// nil so the engine reports the ambiguity.
func resolveUnionMember(members []unionMember, value any) *graphql.Object {
	class := types.ClassOf(value)
	for _, member := range members {
		switch source := member.source.(type) {
		case *types.Class:
			if class != nil && class.IsSubclassOf(source) {
				return member.object
			}
		case *types.Record:
			if goTypeMatches(source.GoType, value) {
				return member.object
			}
		}
	}
	return nil
}

func goTypeMatches(want reflect.Type, value any) bool {
	if want == nil || value == nil {
		return false
	}
	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Ptr && t != want {
		t = t.Elem()
	}
	return t == want
}

// sourceName is the name a member contributes to its union's name.
func sourceName(source types.Type, mapped graphql.Type) string {
	switch s := source.(type) {
	case *types.Class:
		return s.Name
	case *types.Record:
		return s.Name
	case *types.Enum:
		return s.Name
	case *types.Wrapper:
		return s.Name
	}
	return mapped.Name()
}

func reflectType(v any) reflect.Type {
	return reflect.TypeOf(v)
}
