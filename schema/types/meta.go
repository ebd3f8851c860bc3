package types

// MetaKey identifies a field by GraphQL type name and source field name.
type MetaKey struct {
	Type  string
	Field string
}

// Meta maps fields to arbitrary tags.
type Meta map[MetaKey]map[string]any

// Get returns the tags of a field, nil if none were recorded.
func (m Meta) Get(typeName, field string) map[string]any {
	if m == nil {
		return nil
	}
	return m[MetaKey{Type: typeName, Field: field}]
}

// Set records the tags of a field.
func (m Meta) Set(typeName, field string, tags map[string]any) {
	m[MetaKey{Type: typeName, Field: field}] = tags
}

// Merge returns a new table holding m overlaid with others, later
// tables winning.
func (m Meta) Merge(others ...Meta) Meta {
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// Truthy reports whether tags holds key with a true value.
func Truthy(tags map[string]any, key string) bool {
	if tags == nil {
		return false
	}
	b, ok := tags[key].(bool)
	return ok && b
}
