package mapper

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/types"
)

// mapRecord expands a record field by field.
func (m *Mapper) mapRecord(r *types.Record) (graphql.Type, error) {
	if m.cfg.Input {
		return m.mapRecordInput(r)
	}

	name := r.Name + m.cfg.Suffix
	if existing, ok := m.s.registry.Named(name); ok {
		return existing, nil
	}

	obj := graphql.NewObject(graphql.ObjectConfig{
		Name:        name,
		Description: m.describe(r.Doc),
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return m.recordFields(r, name)
		}),
	})
	m.s.registry.SetNamed(name, obj)

	if err := m.applyDirectives(obj, name, r); err != nil {
		return nil, err
	}
	return obj, nil
}

func (m *Mapper) recordFields(r *types.Record, typeName string) graphql.Fields {
	fields := graphql.Fields{}
	for _, f := range r.Fields {
		t, err := m.fieldType(f.Type, typeName, f.Name)
		if err != nil {
			if IsFatal(err) {
				m.fail(err)
				continue
			}
			m.deferError(typeName, err)
			return graphql.Fields{}
		}
		if t == nil {
			continue
		}

		field := f
		fields[types.ToCamelCase(f.Name)] = &graphql.Field{
			Name:        types.ToCamelCase(f.Name),
			Type:        t,
			Description: m.describe(f.Doc),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				v, ok := r.Get(p.Source, field)
				if !ok {
					return nil, fmt.Errorf("%w: %s.%s", ErrRecordField, r.Name, field.Name)
				}
				return m.output(v, t)
			},
		}
	}
	return fields
}

// fieldType maps an output type and applies the non-null wrapper unless
// the type is nullable. A nil type with a nil error means the field is
// omitted.
func (m *Mapper) fieldType(t types.Type, typeName, key string) (graphql.Type, error) {
	mapped, err := m.Map(t)
	if err != nil {
		return nil, recoverable(typeName, key, err)
	}
	nullable := types.IsNullable(t)
	if mapped == nil {
		if nullable {
			return nil, nil
		}
		return nil, recoverable(typeName, key, fmt.Errorf("%w: %s", ErrNotNullable, t.Key()))
	}
	if !graphql.IsOutputType(mapped) {
		return nil, recoverable(typeName, key, fmt.Errorf("%w: %s", ErrNotOutput, mapped.Name()))
	}
	if !nullable {
		mapped = graphql.NewNonNull(mapped)
	}
	return mapped, nil
}

func (m *Mapper) mapRecordInput(r *types.Record) (graphql.Type, error) {
	name := r.Name + m.cfg.Suffix + m.cfg.Suffixes.Input
	if existing, ok := m.s.registry.Named(name); ok {
		return existing, nil
	}
	if len(r.Fields) == 0 {
		return nil, fmt.Errorf("%w: %s %v", ErrNotInput, r.Name, ErrNoFields)
	}

	params := make([]types.Param, 0, len(r.Fields))
	for _, f := range r.Fields {
		params = append(params, types.Param{Name: f.Name, Type: f.Type, Default: f.Default, HasDefault: f.HasDefault})
	}

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        name,
		Description: m.describe(r.Doc),
		Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
			return m.inputFields(name, params)
		}),
	})
	m.s.registry.SetNamed(name, input)

	if err := m.applyDirectives(input, name, r); err != nil {
		return nil, err
	}
	return input, nil
}
