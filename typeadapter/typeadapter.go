// Package typeadapter holds the type adapter contracts, the Provider that
// resolves and caches adapters through a chain of factories, and the built-in
// adapters: reflective, exclusion, custom wrapped, wildcard, containers and
// leaves.
package typeadapter

import (
	"context"
	"reflect"

	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// TypeAdapter converts between JSON and values of one type. Read returns a
// value of the type, or nil for JSON null. Write accepts a value of the type
// or nil.
type TypeAdapter interface {
	Read(r jsonio.Reader) (any, error)
	Write(w jsonio.Writer, value any) error
}

// Factory creates adapters. Create may return a nil adapter to decline, in
// which case the Provider moves on to the next factory.
type Factory interface {
	Supports(t *typetoken.TypeToken) bool
	Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error)
}

// Serializer converts a value into an element tree.
type Serializer interface {
	Serialize(value any, t *typetoken.TypeToken, ctx *SerializationContext) (jsonio.Element, error)
}

// Deserializer converts an element tree into a value.
type Deserializer interface {
	Deserialize(el jsonio.Element, t *typetoken.TypeToken, ctx *DeserializationContext) (any, error)
}

// SerializerFunc adapts a function to Serializer.
type SerializerFunc func(value any, t *typetoken.TypeToken, ctx *SerializationContext) (jsonio.Element, error)

func (f SerializerFunc) Serialize(value any, t *typetoken.TypeToken, ctx *SerializationContext) (jsonio.Element, error) {
	return f(value, t, ctx)
}

// DeserializerFunc adapts a function to Deserializer.
type DeserializerFunc func(el jsonio.Element, t *typetoken.TypeToken, ctx *DeserializationContext) (any, error)

func (f DeserializerFunc) Deserialize(el jsonio.Element, t *typetoken.TypeToken, ctx *DeserializationContext) (any, error) {
	return f(el, t, ctx)
}

// SerializationContext lets a Serializer hand nested values back to the engine.
type SerializationContext struct {
	ctx           context.Context
	provider      *Provider
	serializeNull bool
}

func (c *SerializationContext) Context() context.Context { return c.ctx }

// Serialize converts value using the adapter for its dynamic type.
func (c *SerializationContext) Serialize(value any) (jsonio.Element, error) {
	return c.SerializeAs(value, c.provider.Registry().FromValue(value))
}

// SerializeAs converts value using the adapter for t.
func (c *SerializationContext) SerializeAs(value any, t *typetoken.TypeToken) (jsonio.Element, error) {
	if value == nil {
		return jsonio.NullElement{}, nil
	}
	adapter, err := c.provider.GetAdapter(t)
	if err != nil {
		return nil, err
	}
	w := jsonio.NewElementWriter(c.ctx, c.serializeNull)
	if err := adapter.Write(w, value); err != nil {
		return nil, err
	}
	if w.Element() == nil {
		return jsonio.NullElement{}, nil
	}
	return w.Element(), nil
}

// DeserializationContext lets a Deserializer hand nested elements back to the engine.
type DeserializationContext struct {
	ctx      context.Context
	provider *Provider
}

func (c *DeserializationContext) Context() context.Context { return c.ctx }

// Deserialize converts el into a value of t.
func (c *DeserializationContext) Deserialize(el jsonio.Element, t *typetoken.TypeToken) (any, error) {
	adapter, err := c.provider.GetAdapter(t)
	if err != nil {
		return nil, err
	}
	return adapter.Read(jsonio.NewElementReader(c.ctx, el))
}

// DeserializeInto converts el into the value target points to.
func (c *DeserializationContext) DeserializeInto(el jsonio.Element, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return notPointer(target)
	}
	v, err := c.Deserialize(el, c.provider.Registry().FromType(rv.Type().Elem()))
	if err != nil {
		return err
	}
	return assignResult(rv.Elem(), v)
}
