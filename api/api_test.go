package api_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/platform-mesh/golang-commons/logger/testlogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parob/graphql-api/api"
	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/directives"
	"github.com/parob/graphql-api/schema/mapper"
	"github.com/parob/graphql-api/schema/reducer"
	"github.com/parob/graphql-api/schema/types"
)

func newAPI(t *testing.T, reg *annotations.Registry, opts ...api.Option) *api.API {
	t.Helper()
	opts = append([]api.Option{
		api.WithAnnotations(reg),
		api.WithLogger(testlogger.New().Logger),
	}, opts...)
	a, err := api.New(opts...)
	require.NoError(t, err)
	return a
}

func fieldNames(obj *graphql.Object) []string {
	var names []string
	for name := range obj.Fields() {
		names = append(names, name)
	}
	return names
}

func greeterClass(reg *annotations.Registry) *types.Class {
	root := types.NewClass("Greeter")
	reg.Field(root.Method("greet", func(_ any, name string) string {
		return fmt.Sprintf("Hello, %s!", name)
	}, types.Returns(types.String), types.OptionalArg("name", types.String, "World")))
	return root
}

func TestBuildSchemaIsCached(t *testing.T) {
	reg := annotations.NewRegistry()
	a := newAPI(t, reg, api.WithRoot(greeterClass(reg)))
	ctx := context.Background()

	first, err := a.BuildSchema(ctx, false)
	require.NoError(t, err)
	second, err := a.BuildSchema(ctx, false)
	require.NoError(t, err)
	assert.Same(t, first, second)

	rebuilt, err := a.BuildSchema(ctx, true)
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)

	a.SetRootType(greeterClass(reg))
	reset, err := a.BuildSchema(ctx, false)
	require.NoError(t, err)
	assert.NotSame(t, rebuilt, reset)
}

func TestBuildSchemaWithoutRoot(t *testing.T) {
	a := newAPI(t, annotations.NewRegistry())

	built, err := a.BuildSchema(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, api.PlaceholderQueryName, built.Schema.QueryType().Name())
	assert.Nil(t, built.Schema.MutationType())

	res, err := a.Execute(context.Background(), `{ placeholder }`)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
}

func TestEmptyRootFallback(t *testing.T) {
	reg := annotations.NewRegistry()
	root := types.NewClass("Secrets")
	reg.Field(root.Method("token", func(any) string { return "t" }, types.Returns(types.String)),
		annotations.WithMeta(map[string]any{"tags": []string{"private"}}))

	a := newAPI(t, reg, api.WithRoot(root), api.WithFilters(reducer.NewTagFilter("private")))
	built, err := a.BuildSchema(context.Background(), false)
	require.NoError(t, err)

	query := built.Schema.QueryType()
	assert.Equal(t, "Secrets", query.Name())
	assert.Equal(t, []string{reducer.PlaceholderField}, fieldNames(query))

	res, err := a.Execute(context.Background(), `{ placeholder }`)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	assert.Contains(t, res.Data.(map[string]any)["placeholder"], "Secrets")
}

func TestMutableFlavorIsSuperset(t *testing.T) {
	reg := annotations.NewRegistry()
	item := types.NewClass("Item")
	reg.Field(item.Method("title", func(any) string { return "" }, types.Returns(types.String)))

	root := types.NewClass("Store")
	reg.Field(root.Method("count", func(any) int { return 0 }, types.Returns(types.Int)))
	reg.Field(root.Method("item", func(any) any { return nil }, types.Returns(item)))
	reg.MutableField(root.Method("clear", func(any) bool { return true }, types.Returns(types.Boolean)))

	qm := mapper.New(mapper.Config{Annotations: reg})
	mm := mapper.New(mapper.Config{Annotations: reg, Mutable: true, Suffix: mapper.MutableSuffix})

	q, err := qm.Map(root)
	require.NoError(t, err)
	m, err := mm.Map(root)
	require.NoError(t, err)

	queryFields := q.(*graphql.Object).Fields()
	mutationFields := m.(*graphql.Object).Fields()
	assert.Less(t, len(queryFields), len(mutationFields))
	for name, def := range queryFields {
		require.Contains(t, mutationFields, name)

		want := namedType(def.Type)
		if _, scalar := want.(*graphql.Scalar); !scalar {
			assert.Equal(t, want.Name()+mapper.MutableSuffix, namedType(mutationFields[name].Type).Name(), name)
			continue
		}
		assert.Equal(t, want.Name(), namedType(mutationFields[name].Type).Name(), name)
	}
}

func namedType(t graphql.Type) graphql.Type {
	for {
		switch v := t.(type) {
		case *graphql.NonNull:
			t = v.OfType
		case *graphql.List:
			t = v.OfType
		default:
			return t
		}
	}
}

func TestWithTypesAddsUnreachableTypes(t *testing.T) {
	reg := annotations.NewRegistry()
	orphan := types.NewClass("Orphan")
	reg.Field(orphan.Method("id", func(any) string { return "" }, types.Returns(types.String)))

	native := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Native",
		Fields: graphql.Fields{"ok": &graphql.Field{Type: graphql.Boolean}},
	})

	a := newAPI(t, reg, api.WithRoot(greeterClass(reg)), api.WithTypes(orphan, native))
	built, err := a.BuildSchema(context.Background(), false)
	require.NoError(t, err)

	assert.NotNil(t, built.Schema.Type("Orphan"))
	assert.NotNil(t, built.Schema.Type("Native"))
}

func TestWithTypesRejectsUnknownValues(t *testing.T) {
	reg := annotations.NewRegistry()
	a := newAPI(t, reg, api.WithRoot(greeterClass(reg)), api.WithTypes(42))

	_, err := a.BuildSchema(context.Background(), false)
	assert.ErrorIs(t, err, api.ErrInvalidType)
}

func TestMappingErrorsFailTheBuild(t *testing.T) {
	reg := annotations.NewRegistry()
	root := types.NewClass("Broken")
	reg.Field(root.Method("ok", func(any) string { return "" }, types.Returns(types.String)))
	reg.Field(root.Method("bad", func(any) string { return "" }))

	a := newAPI(t, reg, api.WithRoot(root))
	_, err := a.BuildSchema(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, mapper.ErrTypeMapInvalid)
}

func TestAsRootSetsRootType(t *testing.T) {
	reg := annotations.NewRegistry()
	a := newAPI(t, reg)

	root := greeterClass(reg)
	reg.Object(root, annotations.ForSchema(a), annotations.AsRoot())
	assert.Same(t, root, a.Root())

	res, err := a.Execute(context.Background(), `{ greet(name: "Ada") }`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"greet": "Hello, Ada!"}, res.Data)
}

func TestDirectivesAndRootValidator(t *testing.T) {
	reg := annotations.NewRegistry()
	tag := graphql.NewDirective(graphql.DirectiveConfig{
		Name:      "tag",
		Locations: []string{graphql.DirectiveLocationObject, graphql.DirectiveLocationSchema},
		Args: graphql.FieldConfigArgument{
			"name": &graphql.ArgumentConfig{Type: graphql.String},
		},
	})
	extra := graphql.NewDirective(graphql.DirectiveConfig{
		Name:      "extra",
		Locations: []string{graphql.DirectiveLocationFieldDefinition},
	})

	root := greeterClass(reg)
	reg.Object(root, annotations.WithDirectives(directives.Apply(tag, map[string]any{"name": "root"})))

	var validated *graphql.Schema
	a := newAPI(t, reg,
		api.WithRoot(root),
		api.WithDirectives(extra),
		api.WithSchemaDirectives(directives.Apply(tag, nil)),
		api.WithRootValidator(func(s *graphql.Schema) (*graphql.Schema, error) {
			validated = s
			return s, nil
		}),
	)

	built, err := a.BuildSchema(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, built.Schema, validated)
	assert.NotNil(t, built.Schema.Directive("tag"))
	assert.NotNil(t, built.Schema.Directive("extra"))
	assert.NotNil(t, built.Schema.Directive("include"))
	require.NotEmpty(t, built.Directives)
	assert.Equal(t, "Greeter", built.Directives[0].Name)
	assert.Len(t, a.SchemaDirectives(), 1)
}

func TestSchemaDirectiveLocationIsValidated(t *testing.T) {
	fieldOnly := graphql.NewDirective(graphql.DirectiveConfig{
		Name:      "fieldOnly",
		Locations: []string{graphql.DirectiveLocationFieldDefinition},
	})
	_, err := api.New(
		api.WithLogger(testlogger.New().Logger),
		api.WithSchemaDirectives(directives.Apply(fieldOnly, nil)),
	)
	assert.ErrorIs(t, err, directives.ErrLocation)
}

func TestRootValidatorErrorFailsBuild(t *testing.T) {
	reg := annotations.NewRegistry()
	rejected := errors.New("rejected")
	a := newAPI(t, reg, api.WithRoot(greeterClass(reg)),
		api.WithRootValidator(func(*graphql.Schema) (*graphql.Schema, error) {
			return nil, rejected
		}))

	_, err := a.BuildSchema(context.Background(), false)
	assert.ErrorIs(t, err, rejected)
}

func TestSubscriptionRoot(t *testing.T) {
	reg := annotations.NewRegistry()
	root := greeterClass(reg)
	reg.SubscriptionField(root.Method("ticks", func(any) chan any {
		return make(chan any)
	}, types.Returns(types.Int)))

	a := newAPI(t, reg, api.WithRoot(root))
	built, err := a.BuildSchema(context.Background(), false)
	require.NoError(t, err)

	sub := built.Schema.SubscriptionType()
	require.NotNil(t, sub)
	assert.Equal(t, "GreeterSubscription", sub.Name())
	assert.Contains(t, sub.Fields(), "ticks")
	assert.NotContains(t, built.Schema.QueryType().Fields(), "ticks")
}

func TestSubscriptionPayloadErrorsFailTheBuild(t *testing.T) {
	reg := annotations.NewRegistry()
	event := types.NewClass("Event")
	reg.Field(event.Method("ok", func(any) string { return "" }, types.Returns(types.String)))
	reg.Field(event.Method("bad", func(any) string { return "" }))

	root := greeterClass(reg)
	reg.SubscriptionField(root.Method("events", func(any) chan any {
		return make(chan any)
	}, types.Returns(event)))

	a := newAPI(t, reg, api.WithRoot(root))
	_, err := a.BuildSchema(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, mapper.ErrTypeMapInvalid)
}
