package directives

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"

	"github.com/parob/graphql-api/schema/types"
)

var ErrLocation = errors.New("directive is not valid at this location")

// Applied is a directive applied to a schema element with arguments in
// source casing.
type Applied struct {
	Directive *graphql.Directive
	Args      map[string]any
}

// Apply pairs a directive definition with arguments.
func Apply(d *graphql.Directive, args map[string]any) Applied {
	return Applied{Directive: d, Args: args}
}

// String prints the directive the way it appears in SDL. Arguments the
// definition does not declare and nil values are skipped.
func (a Applied) String() string {
	name := "@" + a.Directive.Name
	if len(a.Directive.Args) == 0 {
		return name
	}

	declared := map[string]bool{}
	for _, arg := range a.Directive.Args {
		declared[arg.Name()] = true
	}

	keys := make([]string, 0, len(a.Args))
	for k := range a.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var formatted []string
	for _, k := range keys {
		v := a.Args[k]
		wire := types.ToCamelCase(k)
		if v == nil || !declared[wire] {
			continue
		}
		formatted = append(formatted, wire+": "+formatValue(v))
	}
	if len(formatted) == 0 {
		return name
	}
	return name + "(" + strings.Join(formatted, ", ") + ")"
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return `"` + s + `"`
	}
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(out)
}

// LocationOf returns the directive location of a schema element.
func LocationOf(element any) (string, bool) {
	switch element.(type) {
	case *graphql.Schema:
		return graphql.DirectiveLocationSchema, true
	case *graphql.Scalar:
		return graphql.DirectiveLocationScalar, true
	case *graphql.Object:
		return graphql.DirectiveLocationObject, true
	case *graphql.FieldDefinition, *graphql.Field:
		return graphql.DirectiveLocationFieldDefinition, true
	case *graphql.Argument, *graphql.ArgumentConfig:
		return graphql.DirectiveLocationArgumentDefinition, true
	case *graphql.Interface:
		return graphql.DirectiveLocationInterface, true
	case *graphql.Union:
		return graphql.DirectiveLocationUnion, true
	case *graphql.Enum:
		return graphql.DirectiveLocationEnum, true
	case *graphql.EnumValueDefinition, *graphql.EnumValueConfig:
		return graphql.DirectiveLocationEnumValue, true
	case *graphql.InputObject:
		return graphql.DirectiveLocationInputObject, true
	case *graphql.InputObjectField, *graphql.InputObjectFieldConfig:
		return graphql.DirectiveLocationInputFieldDefinition, true
	}
	return "", false
}

// Validate checks every applied directive against location and
// collects all violations.
func Validate(location, elementName string, applied []Applied) error {
	var result *multierror.Error
	for _, a := range applied {
		if !allows(a.Directive, location) {
			result = multierror.Append(result, fmt.Errorf("%w: @%s on %s %q (allowed: %s)",
				ErrLocation, a.Directive.Name, location, elementName, strings.Join(a.Directive.Locations, ", ")))
		}
	}
	return result.ErrorOrNil()
}

func allows(d *graphql.Directive, location string) bool {
	for _, l := range d.Locations {
		if l == location {
			return true
		}
	}
	return false
}

// Record is the list of directives applied to one schema element.
type Record struct {
	Element  any
	Name     string
	Location string
	Applied  []Applied
}

// Definitions returns the distinct directive definitions used by
// records, in first-seen order.
func Definitions(records []Record) []*graphql.Directive {
	seen := map[*graphql.Directive]bool{}
	var out []*graphql.Directive
	for _, r := range records {
		for _, a := range r.Applied {
			if seen[a.Directive] {
				continue
			}
			seen[a.Directive] = true
			out = append(out, a.Directive)
		}
	}
	return out
}
