package types

import (
	"fmt"
	"reflect"

	"github.com/gobuffalo/flect"
)

// RecordField is a declared data field of a Record.
type RecordField struct {
	Name       string
	Type       Type
	Doc        string
	Default    any
	HasDefault bool

	// GoField names the struct field holding the value. Defaults to the
	// pascalized Name.
	GoField string
}

// StructField returns the Go struct field name backing the field.
func (f RecordField) StructField() string {
	if f.GoField != "" {
		return f.GoField
	}
	return flect.Pascalize(f.Name)
}

// Record is a data type expanded field by field instead of through
// annotated methods.
type Record struct {
	Name   string
	Doc    string
	Fields []RecordField
	GoType reflect.Type
}

func (r *Record) Key() string {
	return fmt.Sprintf("Record(%s@%p)", r.Name, r)
}

func (*Record) isType() {}

// NewRecord declares a record backed by the struct type T.
func NewRecord[T any](name string, fields ...RecordField) *Record {
	r := &Record{
		Name:   name,
		Fields: fields,
		GoType: reflect.TypeOf((*T)(nil)).Elem(),
	}
	return r
}

// Get reads the value of field from a struct, a pointer to a struct or
// a map keyed by source field name.
func (r *Record) Get(source any, field RecordField) (any, bool) {
	if m, ok := source.(map[string]any); ok {
		v, ok := m[field.Name]
		return v, ok
	}
	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	fv := rv.FieldByName(field.StructField())
	if !fv.IsValid() || !fv.CanInterface() {
		return nil, false
	}
	return fv.Interface(), true
}
