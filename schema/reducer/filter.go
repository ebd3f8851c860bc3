package reducer

// Filter decides whether a query field is removed. name is the field
// name in source casing and meta the tags recorded for it.
type Filter interface {
	Remove(name string, meta map[string]any) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(name string, meta map[string]any) bool

func (f FilterFunc) Remove(name string, meta map[string]any) bool {
	return f(name, meta)
}

// TagFilter removes every field tagged with one of Tags.
type TagFilter struct {
	Tags []string
}

func NewTagFilter(tags ...string) *TagFilter {
	return &TagFilter{Tags: tags}
}

func (f *TagFilter) Remove(_ string, meta map[string]any) bool {
	for _, tag := range tagsOf(meta) {
		for _, want := range f.Tags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

func tagsOf(meta map[string]any) []string {
	switch tags := meta["tags"].(type) {
	case []string:
		return tags
	case string:
		return []string{tags}
	case []any:
		out := make([]string, 0, len(tags))
		for _, t := range tags {
			if s, ok := t.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// removed reports whether any filter vetoes the field.
func removed(filters []Filter, name string, meta map[string]any) bool {
	if meta == nil {
		meta = map[string]any{}
	}
	for _, f := range filters {
		if f.Remove(name, meta) {
			return true
		}
	}
	return false
}
