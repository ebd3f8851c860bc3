package mapper

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/graphql-go/graphql"
	"github.com/hashicorp/go-multierror"
	"github.com/platform-mesh/golang-commons/logger"
	"github.com/rs/zerolog"

	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/directives"
	"github.com/parob/graphql-api/schema/scalars"
	"github.com/parob/graphql-api/schema/types"
)

// Suffixes configures the names given to derived types.
type Suffixes struct {
	Enum      string
	Interface string
	Input     string
}

func DefaultSuffixes() Suffixes {
	return Suffixes{Enum: "Enum", Interface: "Interface", Input: "Input"}
}

// MutableSuffix is the suffix of the mutable flavor.
const MutableSuffix = "Mutable"

type Config struct {
	// Mutable selects mutable fields over read fields.
	Mutable bool
	// Input builds input objects instead of output objects.
	Input bool
	// Suffix is appended to every object, interface, input and union name.
	Suffix string
	// Schema is the identity annotations are looked up for.
	Schema any

	Annotations          *annotations.Registry
	Registry             *Registry
	Suffixes             *Suffixes
	MaxDescriptionLength int
	Log                  *logger.Logger
}

// shared is the state common to a mapper and its input flavor.
type shared struct {
	registry *Registry
	meta     types.Meta

	mu       sync.Mutex
	applied  []directives.Record
	errs     *multierror.Error
	deferred map[string]error
}

// Mapper translates source type descriptors into GraphQL types. A
// Mapper is meant for a single schema build.
type Mapper struct {
	cfg    Config
	s      *shared
	log    *logger.Logger
	input  *Mapper
	inputM sync.Mutex
}

func New(cfg Config) *Mapper {
	if cfg.Annotations == nil {
		cfg.Annotations = annotations.Default
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Suffixes == nil {
		s := DefaultSuffixes()
		cfg.Suffixes = &s
	}

	m := &Mapper{
		cfg: cfg,
		s: &shared{
			registry: cfg.Registry,
			meta:     types.Meta{},
			deferred: map[string]error{},
		},
	}
	if cfg.Log != nil {
		m.log = cfg.Log.ComponentLogger("mapper")
	}
	return m
}

func (m *Mapper) Mutable() bool  { return m.cfg.Mutable }
func (m *Mapper) Input() bool    { return m.cfg.Input }
func (m *Mapper) Suffix() string { return m.cfg.Suffix }

// Logger returns the component logger, nil when logging is off.
func (m *Mapper) Logger() *logger.Logger { return m.log }

// Registry returns the memoizing registry of the mapper.
func (m *Mapper) Registry() *Registry { return m.s.registry }

// Meta returns the tags recorded per (type, field).
func (m *Mapper) Meta() types.Meta { return m.s.meta }

// Applied returns the directives applied to built elements.
func (m *Mapper) Applied() []directives.Record {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return append([]directives.Record(nil), m.s.applied...)
}

// Types returns every type built so far.
func (m *Mapper) Types() []graphql.Type { return m.s.registry.Types() }

// Err returns the fatal errors collected while evaluating field thunks.
func (m *Mapper) Err() error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.errs.ErrorOrNil()
}

// Deferred returns the recoverable error that left a type without fields.
func (m *Mapper) Deferred(typeName string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.deferred[typeName]
}

// Reverse returns the source descriptor t was built from.
func (m *Mapper) Reverse(t graphql.Type) (types.Type, bool) {
	return m.s.registry.Reverse(t)
}

// IsMutableField reports whether a field was built from a mutable member.
func (m *Mapper) IsMutableField(typeName, field string) bool {
	return m.s.registry.IsMutableField(typeName, field)
}

// Enum returns the mapping of a built enum.
func (m *Mapper) Enum(e *graphql.Enum) (*MappedEnum, bool) {
	return m.s.registry.enum(e)
}

func (m *Mapper) key(t types.Type) string {
	return fmt.Sprintf("%s|%s|%t|%t", t.Key(), m.cfg.Suffix, m.cfg.Input, m.cfg.Mutable)
}

// Map returns the GraphQL type for t. The same descriptor always maps to
// the same type for a given flavor; None maps to nil.
func (m *Mapper) Map(t types.Type) (graphql.Type, error) {
	if t == nil || t == types.None {
		return nil, nil
	}

	key := m.key(t)
	if existing, ok := m.s.registry.Get(key); ok {
		return existing, nil
	}
	if m.s.registry.IsProcessing(key) {
		return nil, fmt.Errorf("%w: %s", ErrRecursiveType, t.Key())
	}

	m.s.registry.MarkProcessing(key)
	built, err := m.build(t)
	if err == nil && built != nil {
		err = m.validate(built, false)
	}
	if err != nil || built == nil {
		m.s.registry.UnmarkProcessing(key)
		return nil, err
	}

	m.s.registry.Register(key, t, built)
	m.debug().Str("key", t.Key()).Str("type", built.Name()).Msg("mapped type")
	return built, nil
}

func (m *Mapper) build(t types.Type) (graphql.Type, error) {
	switch v := t.(type) {
	case *types.Wrapper:
		return v.Build(m)
	case *types.GraphQLType:
		return v.Type, nil
	case *types.Record:
		return m.mapRecord(v)
	case *types.UnionType:
		return m.mapUnion(v)
	case *types.LiteralType:
		return m.mapLiteral(v)
	case *types.ListType:
		return m.mapList(v)
	case *types.NativeType:
		return m.mapNative(v)
	case *types.Enum:
		return m.mapEnum(v)
	case *types.Class:
		return m.mapClass(v)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnmappable, t.Key())
}

// mapNative resolves a Go type through the scalar table. A type no entry
// matches maps to nothing; the field builder decides whether that is an
// error.
func (m *Mapper) mapNative(n *types.NativeType) (graphql.Type, error) {
	scalar, ok := scalars.Lookup(n.Go)
	if !ok {
		m.debug().Str("key", n.Key()).Msg("no scalar matches, mapping to nothing")
		return nil, nil
	}
	return scalar, nil
}

func (m *Mapper) mapLiteral(l *types.LiteralType) (graphql.Type, error) {
	if !l.Homogeneous() {
		return nil, fmt.Errorf("%w: %s", ErrInhomogeneousLiteral, l.Key())
	}
	return m.Map(types.Native(reflectType(l.Values[0])))
}

func (m *Mapper) mapList(l *types.ListType) (graphql.Type, error) {
	elem, err := m.Map(l.Elem)
	if err != nil {
		return nil, err
	}
	if elem == nil {
		return nil, fmt.Errorf("%w: list element %s", ErrNotNullable, l.Elem.Key())
	}
	if !types.IsNullable(l.Elem) {
		elem = graphql.NewNonNull(elem)
	}
	return graphql.NewList(elem), nil
}

func (m *Mapper) mapClass(c *types.Class) (graphql.Type, error) {
	if m.cfg.Input {
		return m.mapInput(c)
	}
	if m.cfg.Annotations.IsInterface(c, m.cfg.Schema) {
		return m.mapInterface(c)
	}
	return m.mapObject(c)
}

// validate gates what may be registered. With evaluate set the field
// thunk of an object is run.
func (m *Mapper) validate(t graphql.Type, evaluate bool) error {
	if t == nil {
		return ErrUnmappable
	}
	inner := t
	if nn, ok := inner.(*graphql.NonNull); ok {
		inner = nn.OfType
	}
	if m.cfg.Input && !graphql.IsInputType(inner) {
		return fmt.Errorf("%w: %s", ErrNotInput, t.Name())
	}
	if obj, ok := inner.(*graphql.Object); ok && evaluate {
		fields := obj.Fields()
		if obj.Error() != nil || len(fields) == 0 {
			return fmt.Errorf("%w: %s", ErrNoFields, obj.Name())
		}
	}
	return nil
}

// Validate reports whether t is a usable, fully evaluated type.
func (m *Mapper) Validate(t graphql.Type) bool {
	return m.validate(t, true) == nil
}

// inputMapper returns the input flavor sharing this mapper's state.
func (m *Mapper) inputMapper() *Mapper {
	if m.cfg.Input {
		return m
	}
	m.inputM.Lock()
	defer m.inputM.Unlock()

	if m.input == nil {
		cfg := m.cfg
		cfg.Input = true
		m.input = &Mapper{cfg: cfg, s: m.s, log: m.log}
	}
	return m.input
}

func (m *Mapper) describe(doc string) string {
	doc = strings.TrimSpace(doc)
	max := m.cfg.MaxDescriptionLength
	if max <= 0 || utf8.RuneCountInString(doc) <= max {
		return doc
	}
	runes := []rune(doc)
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// fail records a fatal error raised inside a thunk.
func (m *Mapper) fail(err error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.errs = multierror.Append(m.s.errs, err)
	m.errorEvent().Err(err).Msg("fatal mapping error")
}

// deferError records why a type ended up without fields.
func (m *Mapper) deferError(typeName string, err error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, exists := m.s.deferred[typeName]; !exists {
		m.s.deferred[typeName] = err
	}
	m.debug().Err(err).Str("type", typeName).Msg("type invalidated")
}

func (m *Mapper) debug() *zerolog.Event {
	if m.log == nil {
		return nil
	}
	return m.log.Debug()
}

func (m *Mapper) errorEvent() *zerolog.Event {
	if m.log == nil {
		return nil
	}
	return m.log.Error()
}

// applyDirectives validates and records the directives annotated on
// target for the built element.
func (m *Mapper) applyDirectives(element any, name string, target any) error {
	a, ok := m.cfg.Annotations.Lookup(target, m.cfg.Schema)
	if !ok || len(a.Directives) == 0 {
		return nil
	}
	location, ok := directives.LocationOf(element)
	if !ok {
		return fatal(name, "", fmt.Errorf("%w: %T", directives.ErrLocation, element))
	}
	if err := directives.Validate(location, name, a.Directives); err != nil {
		return fatal(name, "", err)
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.applied = append(m.s.applied, directives.Record{
		Element:  element,
		Name:     name,
		Location: location,
		Applied:  a.Directives,
	})
	return nil
}
