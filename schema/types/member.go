package types

import (
	"errors"
	"reflect"
)

var (
	ErrInconsistentHierarchy = errors.New("cannot create a consistent method resolution order")
	ErrNotAFunc              = errors.New("member implementation is not a func")
)

// Member is a named declaration on a class: a *Func or a *Property.
type Member interface {
	MemberName() string
	Owner() *Class
}

// Param is one declared parameter of a Func.
type Param struct {
	Name       string
	Type       Type
	Default    any
	HasDefault bool
}

// Func is a method. Fn receives the instance first, then one value per
// Param in order, and returns a value, a value and an error, or only an
// error.
type Func struct {
	Name    string
	Doc     string
	Params  []Param
	Returns Type

	// SingleUnion keeps a union with one branch as a GraphQL union.
	SingleUnion bool

	Fn any

	owner *Class
}

func (f *Func) MemberName() string { return f.Name }
func (f *Func) Owner() *Class      { return f.owner }

// Value returns the reflected implementation.
func (f *Func) Value() (reflect.Value, error) {
	v := reflect.ValueOf(f.Fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return reflect.Value{}, ErrNotAFunc
	}
	return v, nil
}

// Property is a pair of accessors that are annotated independently.
type Property struct {
	Name   string
	Getter *Func
	Setter *Func

	owner *Class
}

func (p *Property) MemberName() string { return p.Name }
func (p *Property) Owner() *Class      { return p.owner }

type FuncOption func(*Func)

// Returns declares the return type.
func Returns(t Type) FuncOption {
	return func(f *Func) {
		f.Returns = t
	}
}

// Arg declares a required parameter.
func Arg(name string, t Type) FuncOption {
	return func(f *Func) {
		f.Params = append(f.Params, Param{Name: name, Type: t})
	}
}

// OptionalArg declares a parameter with a default value.
func OptionalArg(name string, t Type, def any) FuncOption {
	return func(f *Func) {
		f.Params = append(f.Params, Param{Name: name, Type: t, Default: def, HasDefault: true})
	}
}

// WithContext declares the injected context parameter at this position.
func WithContext() FuncOption {
	return func(f *Func) {
		f.Params = append(f.Params, Param{Name: "context", Type: ContextType})
	}
}

// Doc sets the documentation text.
func Doc(doc string) FuncOption {
	return func(f *Func) {
		f.Doc = doc
	}
}

// SingleUnion marks the return type as a union even with one branch.
func SingleUnion() FuncOption {
	return func(f *Func) {
		f.SingleUnion = true
	}
}

// Method declares a method on the class and returns it for annotation.
// Redeclaring a name on the same class replaces the previous member.
func (c *Class) Method(name string, fn any, opts ...FuncOption) *Func {
	f := &Func{Name: name, Fn: fn, owner: c}
	for _, opt := range opts {
		opt(f)
	}
	c.add(f)
	return f
}

// Property declares a property of type t. Either accessor may be nil.
// The setter receives the instance and a single value.
func (c *Class) Property(name string, t Type, getter, setter any) *Property {
	p := &Property{Name: name, owner: c}
	if getter != nil {
		p.Getter = &Func{Name: name, Returns: t, Fn: getter, owner: c}
	}
	if setter != nil {
		p.Setter = &Func{
			Name:    name,
			Params:  []Param{{Name: "value", Type: t}},
			Returns: t,
			Fn:      setter,
			owner:   c,
		}
	}
	c.add(p)
	return p
}
