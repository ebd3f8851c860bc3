package mapper

import (
	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/types"
)

// BuildField builds the GraphQL field of a member owned by typeName. A
// nil field with a nil error means the member maps to nothing and was
// declared nullable.
func (m *Mapper) BuildField(member annotations.Member, typeName string) (*graphql.Field, error) {
	fn := member.Func
	key := member.Key
	if fn == nil || fn.Returns == nil {
		return nil, fatal(typeName, key, ErrNoReturnType)
	}

	returns := fn.Returns
	if fn.SingleUnion {
		returns = types.Union(returns, types.UnionFlag)
	}
	t, err := m.fieldType(returns, typeName, key)
	if err != nil || t == nil {
		return nil, err
	}

	args := graphql.FieldConfigArgument{}
	for _, p := range fn.Params {
		if p.Type == types.ContextType {
			continue
		}
		at, err := m.argumentType(p, typeName, key)
		if err != nil {
			return nil, err
		}
		arg := &graphql.ArgumentConfig{Type: at}
		if p.HasDefault {
			arg.DefaultValue = wireDefault(p)
		}
		args[types.ToCamelCase(p.Name)] = arg
	}

	name := types.ToCamelCase(key)
	field := &graphql.Field{
		Name:        name,
		Type:        t,
		Args:        args,
		Description: m.describe(fn.Doc),
		Resolve:     m.resolver(member, typeName, t),
	}
	if member.Mutable() {
		m.s.registry.markMutable(typeName, name)
	}

	if err := m.applyDirectives(field, typeName+"."+key, fn); err != nil {
		return nil, err
	}
	m.debug().Str("type", typeName).Str("field", name).Msg("built field")
	return field, nil
}
