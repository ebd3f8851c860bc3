package api

import (
	"sync"

	"github.com/graphql-go/graphql"
	"github.com/pkg/errors"
	"github.com/platform-mesh/golang-commons/logger"

	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/directives"
	"github.com/parob/graphql-api/schema/mapper"
	"github.com/parob/graphql-api/schema/reducer"
	"github.com/parob/graphql-api/schema/types"
)

// RootValidator is the final hook run on every built schema. It may
// return a replacement.
type RootValidator func(schema *graphql.Schema) (*graphql.Schema, error)

// API turns a root class into an executable schema. The schema is built
// on first use and cached until BuildSchema is called with ignoreCache.
type API struct {
	mu sync.Mutex

	root        *types.Class
	annotations *annotations.Registry
	extraTypes  []any
	filters     []reducer.Filter
	middleware  []Middleware

	directives       []*graphql.Directive
	schemaDirectives []directives.Applied

	errorProtection      bool
	suffixes             *mapper.Suffixes
	maxDescriptionLength int
	rootValidator        RootValidator

	log *logger.Logger

	cached  *Schema
	wrapped map[*graphql.FieldDefinition]bool
}

type Option func(*API)

// WithRoot sets the root class.
func WithRoot(root *types.Class) Option {
	return func(a *API) {
		a.root = root
	}
}

// WithAnnotations selects the annotation registry the API reads from.
func WithAnnotations(reg *annotations.Registry) Option {
	return func(a *API) {
		a.annotations = reg
	}
}

// WithTypes adds types that are part of the schema even when the root
// does not reach them. Each is a graphql.Type or a types.Type.
func WithTypes(extra ...any) Option {
	return func(a *API) {
		a.extraTypes = append(a.extraTypes, extra...)
	}
}

// WithFilters sets the filters applied to the query schema.
func WithFilters(filters ...reducer.Filter) Option {
	return func(a *API) {
		a.filters = append(a.filters, filters...)
	}
}

// WithMiddleware appends resolver middleware, outermost first.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *API) {
		a.middleware = append(a.middleware, mw...)
	}
}

// WithDirectives adds directive definitions to the schema.
func WithDirectives(defs ...*graphql.Directive) Option {
	return func(a *API) {
		a.directives = append(a.directives, defs...)
	}
}

// WithSchemaDirectives applies directives to the schema itself.
func WithSchemaDirectives(applied ...directives.Applied) Option {
	return func(a *API) {
		a.schemaDirectives = append(a.schemaDirectives, applied...)
	}
}

// WithErrorProtection controls whether resolver errors are only
// reported in the result (true, the default) or also returned.
func WithErrorProtection(enabled bool) Option {
	return func(a *API) {
		a.errorProtection = enabled
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(a *API) {
		a.log = log
	}
}

func WithSuffixes(s mapper.Suffixes) Option {
	return func(a *API) {
		a.suffixes = &s
	}
}

func WithMaxDescriptionLength(n int) Option {
	return func(a *API) {
		a.maxDescriptionLength = n
	}
}

func WithRootValidator(fn RootValidator) Option {
	return func(a *API) {
		a.rootValidator = fn
	}
}

func New(opts ...Option) (*API, error) {
	a := &API{
		annotations:     annotations.Default,
		errorProtection: true,
		wrapped:         map[*graphql.FieldDefinition]bool{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.log == nil {
		cfg := logger.DefaultConfig()
		cfg.Name = "graphql-api"
		log, err := logger.New(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create logger")
		}
		a.log = log
	}
	a.log = a.log.ComponentLogger("api")

	if err := directives.Validate(graphql.DirectiveLocationSchema, "schema", a.schemaDirectives); err != nil {
		return nil, errors.Wrap(err, "invalid schema directives")
	}
	return a, nil
}

// SetRootType sets the root class and drops the cached schema. It lets
// the API serve as a schema identity for annotations.AsRoot.
func (a *API) SetRootType(root *types.Class) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.root = root
	a.cached = nil
}

// Root returns the root class.
func (a *API) Root() *types.Class {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.root
}

// SchemaDirectives returns the directives applied to the schema itself.
func (a *API) SchemaDirectives() []directives.Applied {
	return a.schemaDirectives
}

func (a *API) mapperConfig() mapper.Config {
	return mapper.Config{
		Schema:               a,
		Annotations:          a.annotations,
		Suffixes:             a.suffixes,
		MaxDescriptionLength: a.maxDescriptionLength,
		Log:                  a.log,
	}
}
