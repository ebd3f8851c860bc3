package types

import (
	"regexp"
	"strings"

	"github.com/gobuffalo/flect"
)

var (
	// invalidNameCharRegex matches characters that are not valid in GraphQL names
	invalidNameCharRegex = regexp.MustCompile(`[^_a-zA-Z0-9]`)
	// validNameStartRegex matches valid starting characters for GraphQL names
	validNameStartRegex = regexp.MustCompile(`^[_a-zA-Z]`)
)

// SanitizeName converts a name to a valid GraphQL identifier.
// It replaces invalid characters with underscores and prepends '_' if needed.
func SanitizeName(name string) string {
	name = invalidNameCharRegex.ReplaceAllString(name, "_")

	if !validNameStartRegex.MatchString(name) {
		name = "_" + name
	}

	return name
}

// ToCamelCase converts a source name to its wire name. Every segment
// after the first is capitalized as is, so user_id becomes userId rather
// than an acronym.
func ToCamelCase(name string) string {
	trimmed := strings.TrimLeft(name, "_")
	prefix := name[:len(name)-len(trimmed)]

	segments := strings.Split(trimmed, "_")
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(segments[0])
	for _, s := range segments[1:] {
		if s == "" {
			continue
		}
		b.WriteString(flect.Capitalize(s))
	}
	return b.String()
}

// ToSnakeCase converts a wire name back to its source name.
func ToSnakeCase(name string) string {
	return flect.Underscore(name)
}
