package mapper

import (
	"context"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/types"
)

// RootKey holds the root instance inside the engine's root object.
const RootKey = "_root"

// RootObject wraps a root instance for the engine.
func RootObject(root any) map[string]any {
	return map[string]any{RootKey: root}
}

// RootValue returns the instance a resolver runs against.
func RootValue(source any) any {
	if m, ok := source.(map[string]any); ok {
		if v, ok := m[RootKey]; ok {
			return v
		}
	}
	return source
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (m *Mapper) resolver(member annotations.Member, typeName string, t graphql.Type) graphql.FieldResolveFn {
	fn := member.Func

	return func(p graphql.ResolveParams) (any, error) {
		source := RootValue(p.Source)
		args := make(map[string]any, len(p.Args))
		for k, v := range p.Args {
			args[types.ToSnakeCase(k)] = v
		}

		var (
			result any
			err    error
		)
		switch {
		case member.Property != nil:
			result, err = resolveProperty(p.Context, member.Property, source, args)
		default:
			result, err = resolveMethod(p.Context, fn, source, args)
		}
		if err != nil {
			return nil, err
		}
		return m.output(result, t)
	}
}

func resolveMethod(ctx context.Context, fn *types.Func, source any, args map[string]any) (any, error) {
	if o, ok := source.(types.Overrider); ok {
		if override, ok := o.GraphQLOverride(fn.Name); ok {
			return invoke(ctx, override, nil, false, fn.Params, args)
		}
	}
	return invoke(ctx, fn.Fn, source, true, fn.Params, args)
}

// resolveProperty reads the property without arguments and writes it
// with exactly one.
func resolveProperty(ctx context.Context, prop *types.Property, source any, args map[string]any) (any, error) {
	switch len(args) {
	case 0:
		if prop.Getter == nil {
			return nil, fmt.Errorf("property %s: %w", prop.Name, ErrSignature)
		}
		return invoke(ctx, prop.Getter.Fn, source, true, nil, nil)
	case 1:
		if prop.Setter == nil {
			return nil, fmt.Errorf("property %s: %w", prop.Name, ErrSignature)
		}
		value := args
		if _, ok := value["value"]; !ok {
			for _, v := range args {
				value = map[string]any{"value": v}
			}
		}
		result, err := invoke(ctx, prop.Setter.Fn, source, true, prop.Setter.Params, value)
		if err != nil || result != nil || prop.Getter == nil {
			return result, err
		}
		return invoke(ctx, prop.Getter.Fn, source, true, nil, nil)
	default:
		return nil, fmt.Errorf("property %s: %w", prop.Name, ErrPropertyArgs)
	}
}

// invoke calls impl with the receiver, if any, followed by one value per
// param. Context params receive the resolve context.
func invoke(ctx context.Context, impl any, receiver any, withReceiver bool, params []types.Param, args map[string]any) (any, error) {
	fv := reflect.ValueOf(impl)
	if !fv.IsValid() || fv.Kind() != reflect.Func {
		return nil, types.ErrNotAFunc
	}
	ft := fv.Type()

	want := len(params)
	if withReceiver {
		want++
	}
	if ft.NumIn() != want || ft.IsVariadic() {
		return nil, fmt.Errorf("%w: %s takes %d arguments, %d declared", ErrSignature, ft, ft.NumIn(), want)
	}

	in := make([]reflect.Value, 0, want)
	if withReceiver {
		rv, err := coerce(receiver, ft.In(0))
		if err != nil {
			return nil, fmt.Errorf("receiver: %w", err)
		}
		in = append(in, rv)
	}
	for _, p := range params {
		target := ft.In(len(in))
		if p.Type == types.ContextType {
			in = append(in, reflect.ValueOf(types.ContextFrom(ctx)))
			continue
		}
		raw, ok := args[p.Name]
		if !ok && p.HasDefault {
			raw = p.Default
		}
		converted, err := convertInput(raw, p.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", p.Name, err)
		}
		v, err := coerce(converted, target)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", p.Name, err)
		}
		in = append(in, v)
	}

	return unpack(fv.Call(in))
}

// unpack accepts (value), (value, error) and (error) results.
func unpack(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			return nil, asError(out[0])
		}
		return value(out[0]), nil
	default:
		return value(out[0]), asError(out[len(out)-1])
	}
}

func asError(v reflect.Value) error {
	if !v.IsValid() || v.IsNil() {
		return nil
	}
	err, _ := v.Interface().(error)
	return err
}

// value turns typed nils into nil so the engine sees null.
func value(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

// convertInput turns a decoded wire value into the value the source
// type expects: enum members, class instances and record structs.
func convertInput(raw any, t types.Type) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch s := t.(type) {
	case *types.UnionType:
		members := s.Members()
		if len(members) == 1 {
			return convertInput(raw, members[0])
		}
		return raw, nil
	case *types.ListType:
		items, ok := raw.([]any)
		if !ok {
			return raw, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := convertInput(item, s.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *types.Enum:
		member, ok := s.Member(raw)
		if !ok {
			return nil, fmt.Errorf("%v is not a member of %s", raw, s.Name)
		}
		return member.Value, nil
	case *types.Class:
		fields, ok := raw.(map[string]any)
		if !ok || s.FromInput == nil {
			return raw, nil
		}
		args, err := convertFields(fields, s.InputParams)
		if err != nil {
			return nil, err
		}
		return s.FromInput(args)
	case *types.Record:
		fields, ok := raw.(map[string]any)
		if !ok {
			return raw, nil
		}
		return decodeRecord(s, fields)
	}
	return raw, nil
}

func convertFields(fields map[string]any, params []types.Param) (map[string]any, error) {
	args := make(map[string]any, len(fields))
	for k, v := range fields {
		args[types.ToSnakeCase(k)] = v
	}
	for _, p := range params {
		raw, ok := args[p.Name]
		if !ok {
			if p.HasDefault {
				args[p.Name] = p.Default
			}
			continue
		}
		v, err := convertInput(raw, p.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", p.Name, err)
		}
		args[p.Name] = v
	}
	return args, nil
}

// decodeRecord builds the Go value of a record. Records without a Go
// type decode to a map keyed by source field name.
func decodeRecord(r *types.Record, fields map[string]any) (any, error) {
	params := make([]types.Param, 0, len(r.Fields))
	for _, f := range r.Fields {
		params = append(params, types.Param{Name: f.Name, Type: f.Type, Default: f.Default, HasDefault: f.HasDefault})
	}
	args, err := convertFields(fields, params)
	if err != nil {
		return nil, err
	}
	if r.GoType == nil || r.GoType.Kind() != reflect.Struct {
		return args, nil
	}

	out := reflect.New(r.GoType).Elem()
	for _, f := range r.Fields {
		v, ok := args[f.Name]
		if !ok {
			continue
		}
		fv := out.FieldByName(f.StructField())
		if !fv.IsValid() || !fv.CanSet() {
			return nil, fmt.Errorf("%s has no settable field %s", r.GoType, f.StructField())
		}
		cv, err := coerce(v, fv.Type())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		fv.Set(cv)
	}
	return out.Interface(), nil
}

// coerce fits v to the Go type t: directly, by numeric or string
// conversion, by taking its address, or by decoding its structure.
func coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if sameFamily(rv.Kind(), t.Kind()) && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	if t.Kind() == reflect.Ptr && rv.Type().AssignableTo(t.Elem()) {
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(rv)
		return ptr, nil
	}

	out := reflect.New(t)
	if err := mapstructure.Decode(v, out.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s: %w", ErrSignature, v, t, err)
	}
	return out.Elem(), nil
}

func sameFamily(a, b reflect.Kind) bool {
	return family(a) != 0 && family(a) == family(b)
}

func family(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return 1
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	}
	return 0
}

// output prepares a resolved value for the engine. Enum members are
// replaced by their underlying values, inside lists too. graphql-go turns
// unknown enum values into null, so they are rejected here instead.
func (m *Mapper) output(v any, t graphql.Type) (any, error) {
	enum, ok := unwrap(t).(*graphql.Enum)
	if !ok {
		return v, nil
	}
	mapped, ok := m.Enum(enum)
	if !ok {
		// passed through as a graphql type, the engine serializes it
		return v, nil
	}
	return enumOutput(v, mapped.Source)
}

func enumOutput(v any, e *types.Enum) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		return enumOutput(rv.Elem().Interface(), e)
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			item, err := enumOutput(rv.Index(i).Interface(), e)
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}
	if _, ok := e.Member(v); !ok {
		return nil, fmt.Errorf("%w: %v for %s", ErrEnumValue, v, e.Name)
	}
	return types.Underlying(v), nil
}
