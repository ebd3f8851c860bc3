package scalars

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
)

var (
	uuidType = reflect.TypeOf(uuid.UUID{})
	timeType = reflect.TypeOf(time.Time{})
	dateType = reflect.TypeOf(Date{})
)

type entry struct {
	name   string
	match  func(reflect.Type) bool
	scalar graphql.Type
}

// table is ordered, the first matching entry wins.
var table = []entry{
	{name: "UUID", match: is(uuidType), scalar: UUID},
	{name: "String", match: kinds(reflect.String), scalar: graphql.String},
	{name: "Bytes", match: isByteSlice, scalar: Bytes},
	{name: "Boolean", match: kinds(reflect.Bool), scalar: graphql.Boolean},
	{name: "Int", match: kinds(
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
	), scalar: graphql.Int},
	{name: "JSON", match: kinds(reflect.Map, reflect.Slice, reflect.Array, reflect.Interface), scalar: JSON},
	{name: "Float", match: kinds(reflect.Float32, reflect.Float64), scalar: graphql.Float},
	{name: "DateTime", match: is(timeType), scalar: DateTime},
	{name: "Date", match: is(dateType), scalar: DateScalar},
	{name: "None", match: func(t reflect.Type) bool { return t == nil }, scalar: nil},
}

// Lookup resolves a Go type against the scalar table. The second return
// value reports whether any entry matched; the none entry matches with a
// nil scalar.
func Lookup(t reflect.Type) (graphql.Type, bool) {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for _, e := range table {
		if e.match(t) {
			return e.scalar, true
		}
	}
	return nil, false
}

// IsScalar reports whether t maps to a non-nil scalar.
func IsScalar(t reflect.Type) bool {
	s, ok := Lookup(t)
	return ok && s != nil
}

// All returns the custom scalars declared by this package.
func All() []*graphql.Scalar {
	return []*graphql.Scalar{UUID, Bytes, JSON, DateTime, DateScalar}
}

func is(want reflect.Type) func(reflect.Type) bool {
	return func(t reflect.Type) bool {
		return t == want
	}
}

func kinds(ks ...reflect.Kind) func(reflect.Type) bool {
	return func(t reflect.Type) bool {
		if t == nil {
			return false
		}
		for _, k := range ks {
			if t.Kind() == k {
				return true
			}
		}
		return false
	}
}

func isByteSlice(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}
