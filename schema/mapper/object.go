package mapper

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/types"
)

func (m *Mapper) objectName(c *types.Class) string {
	return c.Name + m.cfg.Suffix
}

func (m *Mapper) interfaceName(c *types.Class) string {
	return c.Name + m.cfg.Suffix + m.cfg.Suffixes.Interface
}

func (m *Mapper) mapObject(c *types.Class) (graphql.Type, error) {
	name := m.objectName(c)
	if existing, ok := m.s.registry.Named(name); ok {
		return existing, nil
	}

	members := m.cfg.Annotations.Members(c, m.cfg.Schema, m.cfg.Mutable)
	m.recordMeta(name, members)

	obj := graphql.NewObject(graphql.ObjectConfig{
		Name:        name,
		Description: m.describe(c.Doc),
		Interfaces: graphql.InterfacesThunk(func() []*graphql.Interface {
			return m.interfacesOf(c)
		}),
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return m.fields(name, members)
		}),
	})
	m.s.registry.SetNamed(name, obj)

	if err := m.applyDirectives(obj, name, c); err != nil {
		return nil, err
	}
	return obj, nil
}

func (m *Mapper) mapInterface(c *types.Class) (graphql.Type, error) {
	name := m.interfaceName(c)
	if existing, ok := m.s.registry.Named(name); ok {
		return existing, nil
	}

	members := m.cfg.Annotations.Members(c, m.cfg.Schema, m.cfg.Mutable)
	m.recordMeta(name, members)

	iface := graphql.NewInterface(graphql.InterfaceConfig{
		Name:        name,
		Description: m.describe(c.Doc),
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return m.fields(name, members)
		}),
		ResolveType: m.resolveType,
	})
	m.s.registry.SetNamed(name, iface)

	if err := m.applyDirectives(iface, name, c); err != nil {
		return nil, err
	}

	// Implementors have to be part of the schema even when nothing else
	// refers to them.
	for _, sub := range c.Subclasses() {
		if m.cfg.Annotations.IsAbstract(sub, m.cfg.Schema) {
			continue
		}
		if _, err := m.Map(sub); err != nil {
			if IsFatal(err) {
				return nil, err
			}
			m.debug().Err(err).Str("interface", name).Str("class", sub.Name).Msg("skipping implementor")
		}
	}
	return iface, nil
}

// recordMeta writes the tags of every member that carries any.
func (m *Mapper) recordMeta(typeName string, members []annotations.Member) {
	for _, member := range members {
		meta := member.Meta()
		if len(meta) == 0 {
			continue
		}
		tags := make(map[string]any, len(meta)+1)
		for k, v := range meta {
			tags[k] = v
		}
		tags["graphql_type"] = string(member.Annotation.Role)

		m.s.mu.Lock()
		m.s.meta.Set(typeName, types.ToSnakeCase(member.Key), tags)
		m.s.mu.Unlock()
	}
}

// fields is the body of every class field thunk. A recoverable error
// leaves the type without fields.
func (m *Mapper) fields(typeName string, members []annotations.Member) graphql.Fields {
	fields := graphql.Fields{}
	for _, member := range members {
		field, err := m.BuildField(member, typeName)
		if err != nil {
			if IsFatal(err) {
				m.fail(err)
				continue
			}
			m.deferError(typeName, err)
			return graphql.Fields{}
		}
		if field == nil {
			continue
		}
		fields[types.ToCamelCase(member.Key)] = field
	}
	return fields
}

func (m *Mapper) interfacesOf(c *types.Class) []*graphql.Interface {
	var out []*graphql.Interface
	for _, base := range c.MRO()[1:] {
		if !m.cfg.Annotations.IsInterface(base, m.cfg.Schema) {
			continue
		}
		t, err := m.Map(base)
		if err != nil {
			if IsFatal(err) {
				m.fail(err)
			}
			continue
		}
		if iface, ok := t.(*graphql.Interface); ok {
			out = append(out, iface)
		}
	}
	return out
}

// resolveType picks the object type of a runtime value.
func (m *Mapper) resolveType(p graphql.ResolveTypeParams) *graphql.Object {
	c := types.ClassOf(p.Value)
	if c == nil {
		return nil
	}
	t, err := m.Map(c)
	if err != nil {
		m.debug().Err(err).Str("class", c.Name).Msg("unable to resolve runtime type")
		return nil
	}
	obj, _ := t.(*graphql.Object)
	return obj
}

func (m *Mapper) String() string {
	return fmt.Sprintf("Mapper(suffix=%q, input=%t, mutable=%t)", m.cfg.Suffix, m.cfg.Input, m.cfg.Mutable)
}
