package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parob/graphql-api/schema/types"
)

func TestUnion(t *testing.T) {
	t.Run("single member collapses", func(t *testing.T) {
		assert.Equal(t, types.String, types.Union(types.String))
		assert.Equal(t, types.String, types.Union(types.String, types.String))
	})

	t.Run("nested unions are flattened", func(t *testing.T) {
		u, ok := types.Union(types.Union(types.String, types.Int), types.None).(*types.UnionType)
		require.True(t, ok)
		assert.Len(t, u.Types, 3)
		assert.True(t, u.Nullable())
		assert.Equal(t, []types.Type{types.String, types.Int}, u.Members())
	})

	t.Run("member order does not change the key", func(t *testing.T) {
		assert.Equal(t,
			types.Union(types.String, types.Int).Key(),
			types.Union(types.Int, types.String).Key(),
		)
	})

	t.Run("optional", func(t *testing.T) {
		assert.True(t, types.IsNullable(types.Optional(types.String)))
		assert.False(t, types.IsNullable(types.String))
	})

	t.Run("union flag is not a member", func(t *testing.T) {
		u, ok := types.Union(types.String, types.None, types.UnionFlag).(*types.UnionType)
		require.True(t, ok)
		assert.Equal(t, []types.Type{types.String}, u.Members())
	})
}

func TestLiteral(t *testing.T) {
	assert.True(t, types.Literal("a", "b").Homogeneous())
	assert.False(t, types.Literal("a", 1).Homogeneous())
	assert.False(t, types.Literal().Homogeneous())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, types.List(types.String).Key(), types.List(types.Of[string]()).Key())
	assert.NotEqual(t, types.List(types.String).Key(), types.Set(types.String).Key())

	a := types.NewClass("Same")
	b := types.NewClass("Same")
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestEnumUnderlying(t *testing.T) {
	type Color string
	type Level int

	assert.Equal(t, "red", types.Underlying(Color("red")))
	assert.Equal(t, int64(2), types.Underlying(Level(2)))
	assert.Nil(t, types.Underlying(nil))

	e := types.NewEnum("Color",
		types.EnumValue{Name: "RED", Value: Color("red")},
		types.EnumValue{Name: "BLUE", Value: Color("blue")},
	)
	member, ok := e.Member("blue")
	require.True(t, ok)
	assert.Equal(t, "BLUE", member.Name)

	_, ok = e.Member("green")
	assert.False(t, ok)
}

func TestMeta(t *testing.T) {
	meta := types.Meta{}
	meta.Set("Query", "hello", map[string]any{"tags": []string{"admin"}})

	assert.Equal(t, []string{"admin"}, meta.Get("Query", "hello")["tags"])
	assert.Nil(t, meta.Get("Query", "missing"))

	merged := meta.Merge(types.Meta{{Type: "Mutation", Field: "x"}: {"a": true}})
	assert.Len(t, merged, 2)
	assert.True(t, types.Truthy(merged.Get("Mutation", "x"), "a"))
	assert.Len(t, meta, 1)
}
