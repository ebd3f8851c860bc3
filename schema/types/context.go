package types

import (
	"context"

	"github.com/graphql-go/graphql"
)

type contextKey int

const (
	fieldContextKey contextKey = iota
	requestContextKey
	metaContextKey
)

// FieldContext carries the tags recorded for the field being resolved.
// Query is the selection set source when the field returns an object.
type FieldContext struct {
	Meta  map[string]any
	Query string
}

// RequestContext carries the resolved arguments in source casing and
// the engine's resolve info.
type RequestContext struct {
	Args map[string]any
	Info graphql.ResolveInfo
}

// Context is injected into funcs that declare a context parameter.
type Context struct {
	context.Context

	Meta    Meta
	Field   *FieldContext
	Request *RequestContext
}

// WithField attaches field level context.
func WithField(ctx context.Context, fc *FieldContext) context.Context {
	return context.WithValue(ctx, fieldContextKey, fc)
}

// WithRequest attaches request level context.
func WithRequest(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// WithMeta attaches the meta table of the executing schema.
func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaContextKey, meta)
}

// MetaFrom returns the meta table attached to ctx, if any.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return nil
	}
	meta, _ := ctx.Value(metaContextKey).(Meta)
	return meta
}

// ContextFrom assembles the injected context from a resolve context.
func ContextFrom(ctx context.Context) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{Context: ctx, Meta: MetaFrom(ctx)}
	c.Field, _ = ctx.Value(fieldContextKey).(*FieldContext)
	c.Request, _ = ctx.Value(requestContextKey).(*RequestContext)
	return c
}
