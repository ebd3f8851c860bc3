package api

import (
	"context"
	"reflect"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/pkg/errors"
	"github.com/platform-mesh/golang-commons/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/parob/graphql-api/schema/mapper"
	"github.com/parob/graphql-api/schema/types"
)

// Executor runs operations against one built schema and root value.
type Executor struct {
	schema          *Schema
	root            any
	errorProtection bool
	log             *logger.Logger
}

type ExecuteOption func(*graphql.Params)

func WithVariables(vars map[string]any) ExecuteOption {
	return func(p *graphql.Params) {
		p.VariableValues = vars
	}
}

func WithOperationName(name string) ExecuteOption {
	return func(p *graphql.Params) {
		p.OperationName = name
	}
}

// Executor builds the schema if needed and binds it to root. A nil root
// is constructed from the root class.
func (a *API) Executor(ctx context.Context, root any) (*Executor, error) {
	built, err := a.BuildSchema(ctx, false)
	if err != nil {
		return nil, err
	}
	if root == nil {
		root = newRoot(a.Root())
	}
	return &Executor{
		schema:          built,
		root:            root,
		errorProtection: a.errorProtection,
		log:             a.log,
	}, nil
}

// Execute runs query against a freshly constructed root.
func (a *API) Execute(ctx context.Context, query string, opts ...ExecuteOption) (*graphql.Result, error) {
	e, err := a.Executor(ctx, nil)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, query, opts...)
}

func newRoot(c *types.Class) any {
	switch {
	case c == nil:
		return nil
	case c.New != nil:
		return c.New()
	case c.GoType != nil:
		return reflect.New(c.GoType).Interface()
	}
	return nil
}

// Schema returns the schema the executor runs against.
func (e *Executor) Schema() *Schema {
	return e.schema
}

func (e *Executor) Execute(ctx context.Context, query string, opts ...ExecuteOption) (*graphql.Result, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Execute")
	defer span.End()

	params := graphql.Params{
		Schema:        *e.schema.Schema,
		RequestString: query,
		RootObject:    mapper.RootObject(e.root),
		Context:       types.WithMeta(ctx, e.schema.Meta),
	}
	for _, opt := range opts {
		opt(&params)
	}
	if params.OperationName != "" {
		span.SetAttributes(attribute.String("operation", params.OperationName))
	}

	res := graphql.Do(params)
	if !res.HasErrors() {
		executionsTotal.WithLabelValues(resultSuccess).Inc()
		return res, nil
	}

	executionsTotal.WithLabelValues(resultError).Inc()
	span.SetAttributes(attribute.Int("errors", len(res.Errors)))
	span.SetStatus(codes.Error, res.Errors[0].Message)
	e.log.Debug().Int("errors", len(res.Errors)).Str("first", res.Errors[0].Message).Msg("operation returned errors")

	if e.errorProtection {
		return res, nil
	}
	return res, firstError(res)
}

// firstError recovers the error a resolver returned from the first
// formatted error of res.
func firstError(res *graphql.Result) error {
	first := res.Errors[0]
	var err error = first
	if orig := first.OriginalError(); orig != nil {
		err = orig
		if located, ok := orig.(*gqlerrors.Error); ok && located.OriginalError != nil {
			err = located.OriginalError
		}
	}
	return errors.WithMessage(err, "operation failed")
}
