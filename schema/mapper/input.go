package mapper

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/types"
)

// mapInput builds the input object of a class from the parameters of
// its input constructor.
func (m *Mapper) mapInput(c *types.Class) (graphql.Type, error) {
	name := c.Name + m.cfg.Suffix + m.cfg.Suffixes.Input
	if existing, ok := m.s.registry.Named(name); ok {
		return existing, nil
	}
	if len(c.InputParams) == 0 || c.FromInput == nil {
		return nil, fmt.Errorf("%w: %s declares no input constructor", ErrNotInput, c.Name)
	}

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        name,
		Description: m.describe(c.Doc),
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return m.inputFields(name, c.InputParams)
		}),
	})
	m.s.registry.SetNamed(name, input)

	if err := m.applyDirectives(input, name, c); err != nil {
		return nil, err
	}
	return input, nil
}

func (m *Mapper) inputFields(typeName string, params []types.Param) graphql.InputObjectConfigFieldMap {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, p := range params {
		t, err := m.argumentType(p, typeName, p.Name)
		if err != nil {
			if IsFatal(err) {
				m.fail(err)
				continue
			}
			m.deferError(typeName, err)
			return graphql.InputObjectConfigFieldMap{}
		}
		cfg := &graphql.InputObjectFieldConfig{Type: t}
		if p.HasDefault {
			cfg.DefaultValue = wireDefault(p)
		}
		fields[types.ToCamelCase(p.Name)] = cfg
	}
	return fields
}

// argumentType maps a parameter through the input flavor. Parameters
// without a default are non-null.
func (m *Mapper) argumentType(p types.Param, typeName, key string) (graphql.Type, error) {
	in := m.inputMapper()
	t, err := in.Map(p.Type)
	if err != nil {
		return nil, recoverable(typeName, key, fmt.Errorf("argument %s: %w", p.Name, err))
	}
	if t == nil {
		return nil, recoverable(typeName, key, fmt.Errorf("argument %s: %w", p.Name, ErrNotNullable))
	}
	if !graphql.IsInputType(t) {
		return nil, recoverable(typeName, key, fmt.Errorf("argument %s: %w", p.Name, ErrNotInput))
	}
	if !p.HasDefault {
		t = graphql.NewNonNull(t)
	}
	return t, nil
}

// wireDefault converts a parameter default to the value the engine
// expects. Enum members become their underlying value.
func wireDefault(p types.Param) any {
	t := p.Type
	if u, ok := t.(*types.UnionType); ok {
		if members := u.Members(); len(members) == 1 {
			t = members[0]
		}
	}
	if _, ok := t.(*types.Enum); ok {
		return types.Underlying(p.Default)
	}
	return p.Default
}
