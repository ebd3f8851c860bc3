package api

import (
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
)

// SchemaDescription is a serializable summary of a schema.
type SchemaDescription struct {
	Query        string            `json:"query" yaml:"query"`
	Mutation     string            `json:"mutation,omitempty" yaml:"mutation,omitempty"`
	Subscription string            `json:"subscription,omitempty" yaml:"subscription,omitempty"`
	Types        []TypeDescription `json:"types" yaml:"types"`
	Directives   []string          `json:"directives,omitempty" yaml:"directives,omitempty"`
}

type TypeDescription struct {
	Name        string             `json:"name" yaml:"name"`
	Kind        string             `json:"kind" yaml:"kind"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Interfaces  []string           `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Members     []string           `json:"members,omitempty" yaml:"members,omitempty"`
	Values      []string           `json:"values,omitempty" yaml:"values,omitempty"`
	Fields      []FieldDescription `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type FieldDescription struct {
	Name        string   `json:"name" yaml:"name"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Args        []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// Describe summarizes the named types of schema, leaving out
// introspection and built-in scalar types. Types are sorted by name.
func Describe(schema *graphql.Schema) SchemaDescription {
	out := SchemaDescription{Query: schema.QueryType().Name()}
	if m := schema.MutationType(); m != nil {
		out.Mutation = m.Name()
	}
	if s := schema.SubscriptionType(); s != nil {
		out.Subscription = s.Name()
	}

	for name, t := range schema.TypeMap() {
		if strings.HasPrefix(name, "__") || builtin[name] {
			continue
		}
		out.Types = append(out.Types, describeType(t))
	}
	sort.Slice(out.Types, func(i, j int) bool { return out.Types[i].Name < out.Types[j].Name })

	for _, d := range schema.Directives() {
		out.Directives = append(out.Directives, d.Name)
	}
	sort.Strings(out.Directives)
	return out
}

var builtin = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

func describeType(t graphql.Type) TypeDescription {
	d := TypeDescription{Name: t.Name(), Description: t.Description()}
	switch v := t.(type) {
	case *graphql.Object:
		d.Kind = "OBJECT"
		for _, i := range v.Interfaces() {
			d.Interfaces = append(d.Interfaces, i.Name())
		}
		d.Fields = describeFields(v.Fields())
	case *graphql.Interface:
		d.Kind = "INTERFACE"
		d.Fields = describeFields(v.Fields())
	case *graphql.Union:
		d.Kind = "UNION"
		for _, m := range v.Types() {
			d.Members = append(d.Members, m.Name())
		}
	case *graphql.Enum:
		d.Kind = "ENUM"
		for _, ev := range v.Values() {
			d.Values = append(d.Values, ev.Name)
		}
	case *graphql.InputObject:
		d.Kind = "INPUT_OBJECT"
		names := make([]string, 0, len(v.Fields()))
		for name := range v.Fields() {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			f := v.Fields()[name]
			d.Fields = append(d.Fields, FieldDescription{Name: name, Type: f.Type.String(), Description: f.Description()})
		}
	case *graphql.Scalar:
		d.Kind = "SCALAR"
	}
	return d
}

func describeFields(fields graphql.FieldDefinitionMap) []FieldDescription {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]FieldDescription, 0, len(names))
	for _, name := range names {
		f := fields[name]
		fd := FieldDescription{Name: name, Type: f.Type.String(), Description: f.Description}
		for _, arg := range f.Args {
			fd.Args = append(fd.Args, arg.Name()+": "+arg.Type.String())
		}
		out = append(out, fd)
	}
	return out
}
