package api

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/parob/graphql-api/schema/directives"
	"github.com/parob/graphql-api/schema/mapper"
	"github.com/parob/graphql-api/schema/reducer"
	"github.com/parob/graphql-api/schema/types"
)

const tracerName = "github.com/parob/graphql-api/api"

// PlaceholderQueryName names the query root used when no valid query
// could be built.
const PlaceholderQueryName = "PlaceholderQuery"

var ErrInvalidType = errors.New("extra type is neither a GraphQL type nor a source type")

// Schema is the result of a build.
type Schema struct {
	Schema *graphql.Schema
	// Meta holds the field tags of the query and mutation types.
	Meta types.Meta
	// Directives lists the directives applied through the mappers.
	Directives []directives.Record

	Query        *mapper.Mapper
	Mutation     *mapper.Mapper
	Subscription *mapper.Mapper
}

// BuildSchema returns the cached schema or builds it.
func (a *API) BuildSchema(ctx context.Context, ignoreCache bool) (*Schema, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "BuildSchema",
		trace.WithAttributes(attribute.Bool("ignoreCache", ignoreCache)))
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	if !ignoreCache && a.cached != nil {
		span.SetAttributes(attribute.Bool("cached", true))
		return a.cached, nil
	}

	start := time.Now()
	built, err := a.build(ctx)
	buildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		buildsTotal.WithLabelValues(resultError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.log.Error().Err(err).Msg("failed to build schema")
		return nil, err
	}
	buildsTotal.WithLabelValues(resultSuccess).Inc()

	typeCount := len(built.Schema.TypeMap())
	schemaTypes.Set(float64(typeCount))
	span.SetAttributes(attribute.Int("types", typeCount))
	a.log.Info().Int("types", typeCount).Dur("duration", time.Since(start)).Msg("built schema")

	a.cached = built
	return built, nil
}

func (a *API) build(ctx context.Context) (*Schema, error) {
	out := &Schema{Meta: types.Meta{}}
	collected := newTypeSet()

	var query, mutation, subscription *graphql.Object
	var extra []graphql.Type
	var mappers []*mapper.Mapper

	if a.root != nil {
		qm := mapper.New(a.mapperConfig())
		out.Query = qm

		var err error
		extra, err = a.mapExtraTypes(qm)
		if err != nil {
			return nil, err
		}

		q, err := a.reduce(ctx, "ReduceQuery", func() (*graphql.Object, error) {
			return reducer.ReduceQuery(qm, a.root, a.filters...)
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to build query")
		}

		var registry *mapper.Registry
		if qm.Validate(q) {
			query = q
			collected.add(qm.Types()...)
			registry = qm.Registry().Copy()
		} else {
			a.log.Warn().Str("type", q.Name()).Msg("query root is invalid, using placeholder")
		}

		cfg := a.mapperConfig()
		cfg.Mutable = true
		cfg.Suffix = mapper.MutableSuffix
		cfg.Registry = registry
		mm := mapper.New(cfg)
		out.Mutation = mm

		mut, err := a.reduce(ctx, "ReduceMutation", func() (*graphql.Object, error) {
			return reducer.ReduceMutation(mm, a.root)
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to build mutation")
		}
		if mm.Validate(mut) {
			mutation = mut
			collected.add(mm.Types()...)
		} else {
			a.log.Debug().Str("type", mut.Name()).Msg("no mutable fields, omitting mutation")
		}

		scfg := a.mapperConfig()
		if registry != nil {
			scfg.Registry = registry.Copy()
		}
		sm := mapper.New(scfg)
		out.Subscription = sm

		subscription, err = a.subscriptionRoot(sm)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build subscription")
		}
		if subscription != nil {
			collected.add(sm.Types()...)
		}

		mappers = []*mapper.Mapper{qm, mm, sm}
		if err := mapErrors(mappers); err != nil {
			return nil, err
		}

		out.Meta = qm.Meta().Merge(mm.Meta(), sm.Meta())
		out.Directives = append(append(qm.Applied(), mm.Applied()...), sm.Applied()...)
	}
	collected.add(extra...)

	if query == nil {
		query = placeholderQuery()
	}

	cfg := graphql.SchemaConfig{
		Query:      query,
		Types:      collected.list(),
		Directives: a.directiveDefinitions(out.Directives),
	}
	if mutation != nil {
		cfg.Mutation = mutation
	}
	if subscription != nil {
		cfg.Subscription = subscription
	}

	schema, err := graphql.NewSchema(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create schema")
	}
	// NewSchema resolves the field thunks nothing has forced yet, such as
	// those of subscription payload types.
	if err := mapErrors(mappers); err != nil {
		return nil, err
	}
	built := &schema

	if a.rootValidator != nil {
		built, err = a.rootValidator(built)
		if err != nil {
			return nil, errors.Wrap(err, "root validator rejected schema")
		}
	}

	a.wrapResolvers(built)
	out.Schema = built
	return out, nil
}

func mapErrors(mappers []*mapper.Mapper) error {
	var result *multierror.Error
	for _, m := range mappers {
		if err := m.Err(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return errors.Wrap(err, "failed to map types")
	}
	return nil
}

func (a *API) reduce(ctx context.Context, name string, fn func() (*graphql.Object, error)) (*graphql.Object, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, name,
		trace.WithAttributes(attribute.String("root", a.root.Name)))
	defer span.End()

	obj, err := fn()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("type", obj.Name()), attribute.Int("fields", len(obj.Fields())))
	return obj, nil
}

func (a *API) mapExtraTypes(qm *mapper.Mapper) ([]graphql.Type, error) {
	var out []graphql.Type
	for _, x := range a.extraTypes {
		switch t := x.(type) {
		case types.Type:
			mapped, err := qm.Map(t)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to map extra type %s", t.Key())
			}
			if mapped != nil {
				out = append(out, mapped)
			}
		case graphql.Type:
			out = append(out, t)
		default:
			return nil, errors.Wrapf(ErrInvalidType, "%T", x)
		}
	}
	return out, nil
}

// subscriptionRoot builds the subscription root from the subscription
// fields of the root class. Each field's resolver becomes the source
// stream; events are passed through as the field value.
func (a *API) subscriptionRoot(sm *mapper.Mapper) (*graphql.Object, error) {
	members := a.annotations.SubscriptionMembers(a.root, a)
	if len(members) == 0 {
		return nil, nil
	}

	name := a.root.Name + "Subscription"
	fields := graphql.Fields{}
	for _, member := range members {
		field, err := sm.BuildField(member, name)
		if err != nil {
			return nil, err
		}
		if field == nil {
			continue
		}
		field.Subscribe = field.Resolve
		field.Resolve = func(p graphql.ResolveParams) (any, error) {
			return p.Source, nil
		}
		fields[field.Name] = field
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields}), nil
}

// directiveDefinitions returns the specified directives, the ones given
// as options and the ones applied through the mappers, unique by name.
func (a *API) directiveDefinitions(applied []directives.Record) []*graphql.Directive {
	seen := map[string]bool{}
	var out []*graphql.Directive
	add := func(defs ...*graphql.Directive) {
		for _, d := range defs {
			if d == nil || seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			out = append(out, d)
		}
	}
	add(graphql.SpecifiedDirectives...)
	add(a.directives...)
	add(directives.Definitions(applied)...)
	for _, s := range a.schemaDirectives {
		add(s.Directive)
	}
	return out
}

func placeholderQuery() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: PlaceholderQueryName,
		Fields: graphql.Fields{
			reducer.PlaceholderField: &graphql.Field{
				Type: graphql.String,
				Resolve: func(graphql.ResolveParams) (any, error) {
					return "", nil
				},
			},
		},
	})
}

// typeSet keeps the first type seen per name.
type typeSet struct {
	byName map[string]bool
	order  []graphql.Type
}

func newTypeSet() *typeSet {
	return &typeSet{byName: map[string]bool{}}
}

func (s *typeSet) add(ts ...graphql.Type) {
	for _, t := range ts {
		if t == nil || t.Name() == "" || s.byName[t.Name()] {
			continue
		}
		s.byName[t.Name()] = true
		s.order = append(s.order, t)
	}
}

func (s *typeSet) list() []graphql.Type {
	return s.order
}
