package annotations

import (
	"github.com/parob/graphql-api/schema/types"
)

// Member is one GraphQL field candidate of a class.
type Member struct {
	// Key is the source name of the member.
	Key string
	// Func is the most-derived implementation.
	Func *types.Func
	// Property is set when Func is a property accessor.
	Property *types.Property
	// Annotation is the record the role and tags are read from. For an
	// unmarked override it belongs to the nearest marked ancestor.
	Annotation *Annotation
}

// Mutable reports whether the member was selected as a mutable field.
func (m Member) Mutable() bool {
	return m.Annotation != nil && m.Annotation.Role == RoleMutableField
}

// Meta returns the tags of the member.
func (m Member) Meta() map[string]any {
	if m.Annotation == nil {
		return nil
	}
	return m.Annotation.Meta
}

type named struct {
	key    string
	member types.Member
}

type categorized struct {
	field        *Member
	mutable      *Member
	subscription *Member
}

// Members enumerates the fields of c for schema. In the mutable flavor
// a mutable version of a member is preferred over its read version.
func (r *Registry) Members(c *types.Class, schema any, mutable bool) []Member {
	raw, found := r.categorize(c, schema)

	var out []Member
	for _, n := range raw {
		cat, ok := found[n.key]
		if !ok {
			continue
		}
		switch {
		case mutable && cat.mutable != nil:
			out = append(out, *cat.mutable)
		case cat.field != nil:
			out = append(out, *cat.field)
		}
	}
	return out
}

// SubscriptionMembers enumerates the subscription fields of c.
func (r *Registry) SubscriptionMembers(c *types.Class, schema any) []Member {
	raw, found := r.categorize(c, schema)

	var out []Member
	for _, n := range raw {
		if cat, ok := found[n.key]; ok && cat.subscription != nil {
			out = append(out, *cat.subscription)
		}
	}
	return out
}

// rawMembers walks the MRO and keeps the most-derived member per name.
func rawMembers(c *types.Class) []named {
	seen := map[string]bool{}
	var raw []named
	for _, cls := range c.MRO() {
		for _, m := range cls.Members() {
			if seen[m.MemberName()] {
				continue
			}
			seen[m.MemberName()] = true
			raw = append(raw, named{key: m.MemberName(), member: m})
		}
	}
	return raw
}

func (r *Registry) categorize(c *types.Class, schema any) ([]named, map[string]*categorized) {
	raw := rawMembers(c)
	found := map[string]*categorized{}
	entry := func(key string) *categorized {
		cat, ok := found[key]
		if !ok {
			cat = &categorized{}
			found[key] = cat
		}
		return cat
	}

	for _, n := range raw {
		switch m := n.member.(type) {
		case *types.Property:
			if m.Getter != nil {
				if a := r.accessorAnnotation(c, n.key, m.Getter, schema, getter); a != nil && a.Role == RoleField {
					entry(n.key).field = &Member{Key: n.key, Func: m.Getter, Property: m, Annotation: a}
				}
			}
			if m.Setter != nil {
				if a := r.accessorAnnotation(c, n.key, m.Setter, schema, setter); a != nil && a.Role == RoleMutableField {
					entry(n.key).mutable = &Member{Key: n.key, Func: m.Setter, Property: m, Annotation: a}
				}
			}
		case *types.Func:
			a := r.funcAnnotation(c, n.key, m, schema)
			if a == nil {
				continue
			}
			member := &Member{Key: n.key, Func: m, Annotation: a}
			switch a.Role {
			case RoleField:
				entry(n.key).field = member
			case RoleMutableField:
				entry(n.key).mutable = member
			case RoleSubscriptionField:
				entry(n.key).subscription = member
			}
		}
	}
	return raw, found
}

// funcAnnotation returns the annotation of f, or of the nearest marked
// ancestor method with the same name.
func (r *Registry) funcAnnotation(c *types.Class, key string, f *types.Func, schema any) *Annotation {
	if a, ok := r.Lookup(f, schema); ok {
		return a
	}
	for _, base := range c.MRO()[1:] {
		if inherited, ok := base.Member(key).(*types.Func); ok {
			if a, ok := r.Lookup(inherited, schema); ok {
				return a
			}
		}
	}
	return nil
}

type accessor int

const (
	getter accessor = iota
	setter
)

func (r *Registry) accessorAnnotation(c *types.Class, key string, f *types.Func, schema any, which accessor) *Annotation {
	if a, ok := r.Lookup(f, schema); ok {
		return a
	}
	for _, base := range c.MRO()[1:] {
		p, ok := base.Member(key).(*types.Property)
		if !ok {
			continue
		}
		inherited := p.Getter
		if which == setter {
			inherited = p.Setter
		}
		if a, ok := r.Lookup(inherited, schema); ok {
			return a
		}
	}
	return nil
}

func Members(c *types.Class, schema any, mutable bool) []Member {
	return Default.Members(c, schema, mutable)
}
