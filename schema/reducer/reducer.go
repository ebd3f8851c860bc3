package reducer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/parob/graphql-api/schema/mapper"
	"github.com/parob/graphql-api/schema/types"
)

var ErrRootNotObject = errors.New("root did not map to an object type")

// ResolveToMutable is the meta key that keeps a field on its mutable
// type in the mutation schema.
const ResolveToMutable = "resolve_to_mutable"

const PlaceholderField = "placeholder"

type fieldRef struct {
	owner graphql.Type
	name  string
}

// walker collects invalid types and fields reachable from a set of roots.
type walker struct {
	m       *mapper.Mapper
	filters []Filter

	checked       map[graphql.Type]bool
	order         []graphql.Type
	invalidTypes  map[graphql.Type]bool
	invalidFields map[fieldRef]bool
	fieldOrder    []fieldRef
}

func newWalker(m *mapper.Mapper, filters []Filter) *walker {
	return &walker{
		m:             m,
		filters:       filters,
		checked:       map[graphql.Type]bool{},
		invalidTypes:  map[graphql.Type]bool{},
		invalidFields: map[fieldRef]bool{},
	}
}

func (w *walker) debug() *zerolog.Event {
	if l := w.m.Logger(); l != nil {
		return l.Debug()
	}
	return nil
}

// ReduceQuery maps root with m and prunes the result: types that end up
// without fields are purged from the registry, fields returning them or
// vetoed by a filter are removed. A root left without fields gets a
// placeholder field.
func ReduceQuery(m *mapper.Mapper, root types.Type, filters ...Filter) (*graphql.Object, error) {
	query, err := mapRoot(m, root)
	if err != nil {
		return nil, err
	}

	w := newWalker(m, filters)
	w.visitAll(query)
	w.apply(query)

	if len(query.Fields()) == 0 && query.Error() == nil {
		addPlaceholder(query)
	}
	return query, nil
}

// ReduceMutation maps root with the mutable mapper m and prepares it for
// use as the mutation root.
func ReduceMutation(m *mapper.Mapper, root types.Type) (*graphql.Object, error) {
	mutation, err := mapRoot(m, root)
	if err != nil {
		return nil, err
	}

	// Walking forces every thunk, the graph has to be complete before it
	// is rewritten.
	w := newWalker(m, nil)
	w.visitAll(mutation)
	w.apply(mutation)

	mutableTypes := map[graphql.Type]bool{mutation: true}
	for _, t := range m.Types() {
		if HasMutable(m, t, false) {
			mutableTypes[t] = true
		}
	}

	for _, t := range w.order {
		if w.invalidTypes[t] {
			continue
		}
		rewriteFields(m, t, mutableTypes)
	}

	stripRoot(m, mutation)
	return mutation, nil
}

func mapRoot(m *mapper.Mapper, root types.Type) (*graphql.Object, error) {
	t, err := m.Map(root)
	if err != nil {
		return nil, err
	}
	obj, ok := t.(*graphql.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrRootNotObject, t)
	}
	return obj, nil
}

// visitAll walks from root, then from every other built type so types
// only reachable through interfaces are checked too.
func (w *walker) visitAll(root *graphql.Object) {
	w.visit(root)
	for _, t := range w.m.Types() {
		switch t.(type) {
		case *graphql.Object, *graphql.Interface:
			w.visit(t)
		}
	}
}

func (w *walker) visit(t graphql.Type) bool {
	if w.invalidTypes[t] {
		return false
	}
	if w.checked[t] {
		return true
	}
	w.checked[t] = true
	w.order = append(w.order, t)

	fields, ok := w.fieldsOf(t)
	if !ok {
		w.invalidateType(t)
		return false
	}

	inherited := w.interfaceFields(t)
	for _, name := range sortedNames(fields) {
		if inherited[name] {
			continue
		}
		def := fields[name]
		key := types.ToSnakeCase(name)

		if removed(w.filters, key, w.m.Meta().Get(t.Name(), key)) {
			w.invalidateField(t, name, "filtered")
			continue
		}
		if !w.argumentsValid(def) {
			w.invalidateField(t, name, "invalid argument type")
			continue
		}

		switch inner := unwrap(def.Type).(type) {
		case *graphql.Object, *graphql.Interface:
			if !w.visit(inner) {
				w.invalidateField(t, name, "invalid return type")
			}
		case *graphql.Union:
			for _, member := range inner.Types() {
				if !w.visit(member) {
					w.invalidateField(t, name, "invalid union member")
					break
				}
			}
		}
	}
	return true
}

// fieldsOf evaluates the field map of t. Panics raised while evaluating
// a thunk make the type invalid.
func (w *walker) fieldsOf(t graphql.Type) (fields graphql.FieldDefinitionMap, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.debug().Str("type", t.Name()).Interface("panic", r).Msg("field thunk panicked")
			fields, ok = nil, false
		}
	}()

	switch v := t.(type) {
	case *graphql.Object:
		fields = v.Fields()
		if v.Error() != nil {
			return nil, false
		}
	case *graphql.Interface:
		fields = v.Fields()
		if v.Error() != nil {
			return nil, false
		}
	default:
		return nil, true
	}
	return fields, len(fields) > 0
}

func (w *walker) interfaceFields(t graphql.Type) map[string]bool {
	obj, ok := t.(*graphql.Object)
	if !ok {
		return nil
	}
	inherited := map[string]bool{}
	for _, iface := range obj.Interfaces() {
		fields, ok := w.fieldsOf(iface)
		if !ok {
			w.invalidateType(iface)
			continue
		}
		for name := range fields {
			inherited[name] = true
		}
	}
	return inherited
}

func (w *walker) argumentsValid(def *graphql.FieldDefinition) bool {
	for _, arg := range def.Args {
		if !inputValid(arg.Type, map[graphql.Type]bool{}) {
			return false
		}
	}
	return true
}

func inputValid(t graphql.Type, seen map[graphql.Type]bool) (ok bool) {
	input, isInput := unwrap(t).(*graphql.InputObject)
	if !isInput || seen[input] {
		return true
	}
	seen[input] = true

	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	fields := input.Fields()
	if input.Error() != nil || len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !inputValid(f.Type, seen) {
			return false
		}
	}
	return true
}

func (w *walker) invalidateType(t graphql.Type) {
	if w.invalidTypes[t] {
		return
	}
	w.invalidTypes[t] = true
	w.debug().Str("type", t.Name()).Err(w.m.Deferred(t.Name())).Msg("type invalid")
}

func (w *walker) invalidateField(owner graphql.Type, name, reason string) {
	ref := fieldRef{owner: owner, name: name}
	if w.invalidFields[ref] {
		return
	}
	w.invalidFields[ref] = true
	w.fieldOrder = append(w.fieldOrder, ref)
	w.debug().Str("type", owner.Name()).Str("field", name).Str("reason", reason).Msg("field invalid")
}

// apply deletes invalid fields, invalidates types left without fields
// until nothing changes, and purges invalid types from the registry.
func (w *walker) apply(root *graphql.Object) {
	w.deleteFields()

	for {
		changed := false
		for _, t := range w.order {
			if t == graphql.Type(root) || w.invalidTypes[t] {
				continue
			}
			if isObjectLike(t) && len(definitions(t)) == 0 {
				w.invalidateType(t)
				changed = true
			}
		}
		if !changed {
			break
		}
		for _, t := range w.order {
			if w.invalidTypes[t] {
				continue
			}
			for _, name := range sortedNames(definitions(t)) {
				if w.refersToInvalid(definitions(t)[name].Type) {
					w.invalidateField(t, name, "return type emptied")
				}
			}
		}
		w.deleteFields()
	}

	for t := range w.invalidTypes {
		w.m.Registry().Remove(t)
	}
}

func (w *walker) refersToInvalid(t graphql.Type) bool {
	inner := unwrap(t)
	if w.invalidTypes[inner] {
		return true
	}
	if u, ok := inner.(*graphql.Union); ok {
		for _, member := range u.Types() {
			if w.invalidTypes[member] {
				return true
			}
		}
	}
	return false
}

func (w *walker) deleteFields() {
	for _, ref := range w.fieldOrder {
		if fields := definitions(ref.owner); fields != nil {
			delete(fields, ref.name)
		}
	}
	w.fieldOrder = nil
}

// definitions returns the evaluated field map of an object or
// interface. Deleting from it removes the field from the type.
func definitions(t graphql.Type) graphql.FieldDefinitionMap {
	switch v := t.(type) {
	case *graphql.Object:
		return v.Fields()
	case *graphql.Interface:
		return v.Fields()
	}
	return nil
}

func addPlaceholder(obj *graphql.Object) {
	message := fmt.Sprintf("every field of %s was removed", obj.Name())
	obj.Fields()[PlaceholderField] = &graphql.FieldDefinition{
		Name:        PlaceholderField,
		Type:        graphql.String,
		Description: "Stands in for a root without fields.",
		Args:        []*graphql.Argument{},
		Resolve: func(graphql.ResolveParams) (any, error) {
			return message, nil
		},
	}
}

// rewriteFields points the fields of a mutable type back to the query
// types unless they must stay mutable.
func rewriteFields(m *mapper.Mapper, t graphql.Type, mutableTypes map[graphql.Type]bool) {
	fields := definitions(t)
	for _, name := range sortedNames(fields) {
		def := fields[name]
		if types.Truthy(m.Meta().Get(t.Name(), types.ToSnakeCase(name)), ResolveToMutable) {
			continue
		}

		inner, wraps := peel(def.Type)
		if !m.IsMutableField(t.Name(), name) && mutableTypes[inner] {
			continue
		}
		if !isComposite(inner) {
			continue
		}

		queryName := strings.Replace(inner.Name(), m.Suffix(), "", 1)
		if queryName == inner.Name() {
			continue
		}
		queryType, ok := m.Registry().Named(queryName)
		if !ok {
			continue
		}
		if out, ok := rewrap(queryType, wraps).(graphql.Output); ok {
			def.Type = out
		}
	}
}

// stripRoot removes the fields of the mutation root that neither mutate
// nor lead to something that does.
func stripRoot(m *mapper.Mapper, root *graphql.Object) {
	inherited := map[string]bool{}
	for _, iface := range root.Interfaces() {
		for name := range iface.Fields() {
			inherited[name] = true
		}
	}

	fields := root.Fields()
	for _, name := range sortedNames(fields) {
		if inherited[name] || m.IsMutableField(root.Name(), name) || HasMutable(m, fields[name].Type, true) {
			continue
		}
		delete(fields, name)
	}
}

// HasMutable reports whether t, after unwrapping, has a mutable field
// directly or through the types its fields return. Interfaces count as
// mutable when interfacesDefaultMutable is set; otherwise an interface
// or union is mutable when one of its possible types is.
func HasMutable(m *mapper.Mapper, t graphql.Type, interfacesDefaultMutable bool) bool {
	return hasMutable(m, unwrap(t), interfacesDefaultMutable, map[graphql.Type]bool{})
}

func hasMutable(m *mapper.Mapper, t graphql.Type, interfacesDefaultMutable bool, seen map[graphql.Type]bool) bool {
	if t == nil || seen[t] {
		return false
	}
	seen[t] = true

	var fields graphql.FieldDefinitionMap
	switch v := t.(type) {
	case *graphql.Object:
		fields = v.Fields()
	case *graphql.Interface:
		if interfacesDefaultMutable {
			return true
		}
		fields = v.Fields()
		for _, impl := range implementors(m, v) {
			if hasMutable(m, impl, interfacesDefaultMutable, seen) {
				return true
			}
		}
	case *graphql.Union:
		for _, member := range v.Types() {
			if hasMutable(m, member, interfacesDefaultMutable, seen) {
				return true
			}
		}
		return false
	default:
		return false
	}

	for _, name := range sortedNames(fields) {
		if m.IsMutableField(t.Name(), name) {
			return true
		}
	}
	for _, name := range sortedNames(fields) {
		if hasMutable(m, unwrap(fields[name].Type), interfacesDefaultMutable, seen) {
			return true
		}
	}
	return false
}

func implementors(m *mapper.Mapper, iface *graphql.Interface) []*graphql.Object {
	var out []*graphql.Object
	for _, t := range m.Types() {
		obj, ok := t.(*graphql.Object)
		if !ok {
			continue
		}
		for _, i := range obj.Interfaces() {
			if i == iface {
				out = append(out, obj)
				break
			}
		}
	}
	return out
}

type wrapper int

const (
	wrapList wrapper = iota
	wrapNonNull
)

// peel strips list and non-null layers, outermost first.
func peel(t graphql.Type) (graphql.Type, []wrapper) {
	var wraps []wrapper
	for {
		switch v := t.(type) {
		case *graphql.List:
			wraps = append(wraps, wrapList)
			t = v.OfType
		case *graphql.NonNull:
			wraps = append(wraps, wrapNonNull)
			t = v.OfType
		default:
			return t, wraps
		}
	}
}

func rewrap(t graphql.Type, wraps []wrapper) graphql.Type {
	for i := len(wraps) - 1; i >= 0; i-- {
		switch wraps[i] {
		case wrapList:
			t = graphql.NewList(t)
		case wrapNonNull:
			t = graphql.NewNonNull(t)
		}
	}
	return t
}

func unwrap(t graphql.Type) graphql.Type {
	inner, _ := peel(t)
	return inner
}

func isObjectLike(t graphql.Type) bool {
	switch t.(type) {
	case *graphql.Object, *graphql.Interface:
		return true
	}
	return false
}

func isComposite(t graphql.Type) bool {
	switch t.(type) {
	case *graphql.Object, *graphql.Interface, *graphql.Union:
		return true
	}
	return false
}

func sortedNames(fields graphql.FieldDefinitionMap) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
