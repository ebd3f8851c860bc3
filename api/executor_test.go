package api_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/platform-mesh/golang-commons/logger/testlogger"
	"github.com/stretchr/testify/suite"

	"github.com/parob/graphql-api/api"
	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/types"
)

type counter struct {
	value int
}

type floppy struct{}

type john struct{}

var errBoom = errors.New("boom")

type ExecutorTestSuite struct {
	suite.Suite

	ctx context.Context
	reg *annotations.Registry
}

func TestExecutorTestSuite(t *testing.T) {
	suite.Run(t, new(ExecutorTestSuite))
}

func (s *ExecutorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.reg = annotations.NewRegistry()
}

func (s *ExecutorTestSuite) newAPI(opts ...api.Option) *api.API {
	opts = append([]api.Option{
		api.WithAnnotations(s.reg),
		api.WithLogger(testlogger.New().Logger),
	}, opts...)
	a, err := api.New(opts...)
	s.Require().NoError(err)
	return a
}

func (s *ExecutorTestSuite) TestGreet() {
	a := s.newAPI(api.WithRoot(greeterClass(s.reg)))

	res, err := a.Execute(s.ctx, `{ greet }`)
	s.Require().NoError(err)
	s.Empty(res.Errors)
	s.Equal(map[string]any{"greet": "Hello, World!"}, res.Data)

	res, err = a.Execute(s.ctx, `{ greet(name: "Ada") }`)
	s.Require().NoError(err)
	s.Equal(map[string]any{"greet": "Hello, Ada!"}, res.Data)
}

func (s *ExecutorTestSuite) TestVariablesAndOperationName() {
	a := s.newAPI(api.WithRoot(greeterClass(s.reg)))

	res, err := a.Execute(s.ctx, `
		query A($who: String) { greet(name: $who) }
		query B { greet }`,
		api.WithVariables(map[string]any{"who": "Grace"}),
		api.WithOperationName("A"),
	)
	s.Require().NoError(err)
	s.Equal(map[string]any{"greet": "Hello, Grace!"}, res.Data)
}

func (s *ExecutorTestSuite) counterClass() *types.Class {
	c := types.NewClass("Counter", types.Instance[counter]())
	s.reg.Field(c.Method("value", func(c *counter) int { return c.value }, types.Returns(types.Int)))
	s.reg.MutableField(c.Method("increment", func(c *counter) int {
		c.value++
		return c.value
	}, types.Returns(types.Int)))
	return c
}

func (s *ExecutorTestSuite) TestCounterMutation() {
	a := s.newAPI(api.WithRoot(s.counterClass()))

	built, err := a.BuildSchema(s.ctx, false)
	s.Require().NoError(err)
	s.NotContains(built.Schema.QueryType().Fields(), "increment")
	s.Require().NotNil(built.Schema.MutationType())
	s.Equal("CounterMutable", built.Schema.MutationType().Name())
	s.Contains(built.Schema.MutationType().Fields(), "increment")
	s.NotContains(built.Schema.MutationType().Fields(), "value")

	root := &counter{}
	e, err := a.Executor(s.ctx, root)
	s.Require().NoError(err)

	for want := 1; want <= 3; want++ {
		res, err := e.Execute(s.ctx, `mutation { increment }`)
		s.Require().NoError(err)
		s.Require().Empty(res.Errors)
		s.Equal(map[string]any{"increment": want}, res.Data)
	}

	res, err := e.Execute(s.ctx, `{ value }`)
	s.Require().NoError(err)
	s.Equal(map[string]any{"value": 3}, res.Data)
}

func (s *ExecutorTestSuite) TestRootIsConstructedFromGoType() {
	a := s.newAPI(api.WithRoot(s.counterClass()))

	for i := 0; i < 2; i++ {
		res, err := a.Execute(s.ctx, `mutation { increment }`)
		s.Require().NoError(err)
		s.Equal(map[string]any{"increment": 1}, res.Data, "each execution gets a new root")
	}
}

func (s *ExecutorTestSuite) TestInterfaceDispatch() {
	animal := s.reg.Interface(types.NewClass("Animal"))
	s.reg.Field(animal.Method("name", func(any) string { return "" }, types.Returns(types.String)))

	dog := types.NewClass("Dog", types.Extends(animal), types.Instance[floppy]())
	s.reg.Field(dog.Method("name", func(*floppy) string { return "Floppy" }, types.Returns(types.String)))

	human := types.NewClass("Human", types.Extends(animal), types.Instance[john]())
	s.reg.Field(human.Method("name", func(*john) string { return "John" }, types.Returns(types.String)))
	s.reg.Field(human.Method("pet", func(*john) *floppy { return &floppy{} }, types.Returns(dog)))

	root := types.NewClass("Zoo")
	s.reg.Field(root.Method("best_animal", func(_ any, task string) any {
		if task == "bark" {
			return &floppy{}
		}
		return &john{}
	}, types.Returns(animal), types.Arg("task", types.String)))

	a := s.newAPI(api.WithRoot(root))

	res, err := a.Execute(s.ctx, `{ bestAnimal(task: "bark") { name ... on Human { pet { name } } } }`)
	s.Require().NoError(err)
	s.Require().Empty(res.Errors)
	s.Equal(map[string]any{"bestAnimal": map[string]any{"name": "Floppy"}}, res.Data)

	res, err = a.Execute(s.ctx, `{ bestAnimal(task: "talk") { name ... on Human { pet { name } } } }`)
	s.Require().NoError(err)
	s.Require().Empty(res.Errors)
	s.Equal(map[string]any{"bestAnimal": map[string]any{
		"name": "John",
		"pet":  map[string]any{"name": "Floppy"},
	}}, res.Data)
}

func (s *ExecutorTestSuite) TestNullableRoundTrip() {
	root := types.NewClass("Maybe")
	s.reg.Field(root.Method("echo", func(_ any, v *string) *string { return v },
		types.Returns(types.Optional(types.String)),
		types.OptionalArg("v", types.Optional(types.String), nil)))

	a := s.newAPI(api.WithRoot(root))

	res, err := a.Execute(s.ctx, `{ echo }`)
	s.Require().NoError(err)
	s.Require().Empty(res.Errors)
	s.Equal(map[string]any{"echo": nil}, res.Data)

	res, err = a.Execute(s.ctx, `{ echo(v: "x") }`)
	s.Require().NoError(err)
	s.Equal(map[string]any{"echo": "x"}, res.Data)
}

func (s *ExecutorTestSuite) failingRoot() *types.Class {
	root := types.NewClass("Failing")
	s.reg.Field(root.Method("fail", func(any) (string, error) { return "", errBoom },
		types.Returns(types.Optional(types.String))))
	return root
}

func (s *ExecutorTestSuite) TestErrorProtection() {
	protected := s.newAPI(api.WithRoot(s.failingRoot()))
	res, err := protected.Execute(s.ctx, `{ fail }`)
	s.NoError(err)
	s.Require().Len(res.Errors, 1)
	s.Contains(res.Errors[0].Message, "boom")

	unprotected := s.newAPI(api.WithRoot(s.failingRoot()), api.WithErrorProtection(false))
	res, err = unprotected.Execute(s.ctx, `{ fail }`)
	s.Require().Error(err)
	s.Contains(err.Error(), "boom")
	s.NotNil(res)
}

func (s *ExecutorTestSuite) TestMiddlewareAndContext() {
	root := types.NewClass("Tagged")
	s.reg.Field(root.Method("label", func(_ any, ctx *types.Context) string {
		return ctx.Field.Meta["label"].(string) + ":" + ctx.Request.Info.FieldName
	}, types.Returns(types.String), types.WithContext()),
		annotations.WithMeta(map[string]any{"label": "hello"}))
	s.reg.Field(root.Method("nested", func(any) *counter { return &counter{value: 7} },
		types.Returns(s.counterClass())))

	var (
		mu   sync.Mutex
		seen []string
	)
	record := func(next graphql.FieldResolveFn) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (any, error) {
			mu.Lock()
			seen = append(seen, p.Info.ParentType.Name()+"."+p.Info.FieldName)
			mu.Unlock()
			return next(p)
		}
	}
	var query string
	capture := func(next graphql.FieldResolveFn) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (any, error) {
			if fc := types.ContextFrom(p.Context).Field; fc != nil && p.Info.FieldName == "nested" {
				query = fc.Query
			}
			return next(p)
		}
	}

	a := s.newAPI(api.WithRoot(root), api.WithMiddleware(record, capture))

	res, err := a.Execute(s.ctx, `{ label nested { value } __typename }`)
	s.Require().NoError(err)
	s.Require().Empty(res.Errors)
	s.Equal(map[string]any{
		"label":      "hello:label",
		"nested":     map[string]any{"value": 7},
		"__typename": "Tagged",
	}, res.Data)

	s.ElementsMatch([]string{"Tagged.label", "Tagged.nested", "Counter.value"}, seen)
	s.Contains(query, "value")

	// Rebuilding must not wrap the same resolvers twice.
	_, err = a.BuildSchema(s.ctx, true)
	s.Require().NoError(err)
	seen = nil
	_, err = a.Execute(s.ctx, `{ label }`)
	s.Require().NoError(err)
	s.Equal([]string{"Tagged.label"}, seen)
}

func (s *ExecutorTestSuite) TestIntrospectionSkipsMiddleware() {
	calls := 0
	count := func(next graphql.FieldResolveFn) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (any, error) {
			calls++
			return next(p)
		}
	}
	a := s.newAPI(api.WithRoot(greeterClass(s.reg)), api.WithMiddleware(count))

	res, err := a.Execute(s.ctx, `{ __schema { queryType { name } } }`)
	s.Require().NoError(err)
	s.Require().Empty(res.Errors)
	s.Zero(calls)
}
