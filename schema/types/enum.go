package types

import (
	"fmt"
	"reflect"
)

// EnumValue is one member of an Enum.
type EnumValue struct {
	Name  string
	Value any
	Doc   string
}

// Enum is a named set of values.
type Enum struct {
	Name   string
	Doc    string
	Values []EnumValue
	GoType reflect.Type
}

func (e *Enum) Key() string {
	return fmt.Sprintf("Enum(%s@%p)", e.Name, e)
}

func (*Enum) isType() {}

// NewEnum declares an enum whose Go type is taken from the first value.
func NewEnum(name string, values ...EnumValue) *Enum {
	e := &Enum{Name: name, Values: values}
	if len(values) > 0 && values[0].Value != nil {
		e.GoType = reflect.TypeOf(values[0].Value)
	}
	return e
}

// Underlying normalizes an enum member or raw value to its basic value
// so members and raw values compare equal.
func Underlying(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	default:
		return rv.Interface()
	}
}

// Member returns the declared value whose underlying value equals v.
func (e *Enum) Member(v any) (EnumValue, bool) {
	u := Underlying(v)
	for _, ev := range e.Values {
		if Underlying(ev.Value) == u {
			return ev, true
		}
	}
	return EnumValue{}, false
}
