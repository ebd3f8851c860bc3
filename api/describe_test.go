package api_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parob/graphql-api/api"
	"github.com/parob/graphql-api/schema/annotations"
	"github.com/parob/graphql-api/schema/types"
)

func TestDescribe(t *testing.T) {
	reg := annotations.NewRegistry()
	root := greeterClass(reg)
	mood := types.NewEnum("Mood",
		types.EnumValue{Name: "HAPPY", Value: "happy"},
		types.EnumValue{Name: "GRUMPY", Value: "grumpy"},
	)
	reg.Field(root.Method("mood", func(any) string { return "happy" }, types.Returns(mood)))

	a := newAPI(t, reg, api.WithRoot(root))
	built, err := a.BuildSchema(context.Background(), false)
	require.NoError(t, err)

	d := api.Describe(built.Schema)
	assert.Equal(t, "Greeter", d.Query)
	assert.Empty(t, d.Mutation)
	assert.Contains(t, d.Directives, "include")
	assert.Contains(t, d.Directives, "skip")

	var names []string
	byName := map[string]api.TypeDescription{}
	for _, td := range d.Types {
		names = append(names, td.Name)
		byName[td.Name] = td
	}
	assert.IsNonDecreasing(t, names)
	assert.NotContains(t, names, "String")
	assert.NotContains(t, names, "__Schema")

	greeter := byName["Greeter"]
	assert.Equal(t, "OBJECT", greeter.Kind)
	require.Len(t, greeter.Fields, 2)
	assert.Equal(t, "greet", greeter.Fields[0].Name)
	assert.Equal(t, "String!", greeter.Fields[0].Type)
	require.Len(t, greeter.Fields[0].Args, 1)
	assert.Contains(t, greeter.Fields[0].Args[0], "name: ")
	assert.Equal(t, "mood", greeter.Fields[1].Name)

	enum := byName["MoodEnum"]
	assert.Equal(t, "ENUM", enum.Kind)
	assert.ElementsMatch(t, []string{"HAPPY", "GRUMPY"}, enum.Values)
}
