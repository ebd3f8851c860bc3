package api

import (
	"context"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/parob/graphql-api/schema/types"
)

// Middleware wraps a field resolver.
type Middleware func(next graphql.FieldResolveFn) graphql.FieldResolveFn

// RequestContext exposes the arguments in source casing and the resolve
// info to resolvers through types.Context.
func RequestContext(next graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		args := make(map[string]any, len(p.Args))
		for k, v := range p.Args {
			args[types.ToSnakeCase(k)] = v
		}
		p.Context = types.WithRequest(contextOf(p), &types.RequestContext{Args: args, Info: p.Info})
		return next(p)
	}
}

// FieldContext exposes the tags of the field being resolved and, for
// object results, the source of its selection set.
func FieldContext(next graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		ctx := contextOf(p)

		fc := &types.FieldContext{Meta: map[string]any{}}
		if p.Info.ParentType != nil {
			if meta := types.MetaFrom(ctx).Get(p.Info.ParentType.Name(), types.ToSnakeCase(p.Info.FieldName)); meta != nil {
				fc.Meta = meta
			}
		}

		returnType := p.Info.ReturnType
		if nn, ok := returnType.(*graphql.NonNull); ok {
			returnType = nn.OfType
		}
		if _, ok := returnType.(*graphql.Object); ok {
			fc.Query = selection(p.Info)
		}

		p.Context = types.WithField(ctx, fc)
		return next(p)
	}
}

func selection(info graphql.ResolveInfo) string {
	if len(info.FieldASTs) == 0 || info.FieldASTs[0].SelectionSet == nil {
		return ""
	}
	loc := info.FieldASTs[0].SelectionSet.Loc
	if loc == nil || loc.Source == nil {
		return ""
	}
	body := loc.Source.Body
	if loc.Start < 0 || loc.End > len(body) || loc.Start > loc.End {
		return ""
	}
	return string(body[loc.Start:loc.End])
}

func contextOf(p graphql.ResolveParams) context.Context {
	if p.Context == nil {
		return context.Background()
	}
	return p.Context
}

func chain(mw []Middleware, resolve graphql.FieldResolveFn) graphql.FieldResolveFn {
	for i := len(mw) - 1; i >= 0; i-- {
		resolve = mw[i](resolve)
	}
	return resolve
}

// wrapResolvers wraps every field resolver of the schema's object types
// with the middleware chain. Introspection types are left alone. Fields
// already wrapped by an earlier build keep their chain.
func (a *API) wrapResolvers(schema *graphql.Schema) {
	mw := append([]Middleware{RequestContext, FieldContext}, a.middleware...)

	for name, t := range schema.TypeMap() {
		if strings.HasPrefix(name, "__") {
			continue
		}
		obj, ok := t.(*graphql.Object)
		if !ok {
			continue
		}
		for _, def := range obj.Fields() {
			if a.wrapped[def] {
				continue
			}
			a.wrapped[def] = true

			next := def.Resolve
			if next == nil {
				next = graphql.DefaultResolveFn
			}
			def.Resolve = chain(mw, next)
		}
	}
}
