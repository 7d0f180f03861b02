// Package converters holds value conversion functions and bridges them into
// custom serializers and deserializers.
package converters

import (
	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/typeadapter"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// Func converts a value on its way into or out of JSON.
type Func func(src any) (any, error)

// ValidatorFunc checks a converted value.
type ValidatorFunc func(value any) error

// Compose chains fns left to right. An error aborts the chain and a nil
// output is returned immediately.
func Compose(fns ...Func) Func {
	return func(src any) (any, error) {
		cur := src
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			out, err := fn(cur)
			if err != nil {
				return nil, err
			}
			if out == nil {
				return nil, nil
			}
			cur = out
		}
		return cur, nil
	}
}

// MapString applies f when src is a string and passes anything else through.
func MapString(f func(string) string) Func {
	return func(src any) (any, error) {
		if s, ok := src.(string); ok {
			return f(s), nil
		}
		return src, nil
	}
}

// Validate runs v on the output of fn.
func Validate(fn Func, v ValidatorFunc) Func {
	return func(src any) (any, error) {
		out, err := fn(src)
		if err != nil {
			return nil, err
		}
		if err := v(out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Serializer converts values with fn and serializes the result by its
// runtime type. A nil result is written as null.
func Serializer(fn Func) typeadapter.Serializer {
	return typeadapter.SerializerFunc(func(value any, _ *typetoken.TypeToken, ctx *typeadapter.SerializationContext) (jsonio.Element, error) {
		out, err := fn(value)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return jsonio.NullElement{}, nil
		}
		return ctx.Serialize(out)
	})
}

// Deserializer reads elements as untyped values (string, float64, bool,
// []any or map[string]any) and converts them with fn. JSON null never
// reaches fn.
func Deserializer(fn Func) typeadapter.Deserializer {
	return typeadapter.DeserializerFunc(func(el jsonio.Element, _ *typetoken.TypeToken, ctx *typeadapter.DeserializationContext) (any, error) {
		if jsonio.IsNull(el) {
			return nil, nil
		}
		src, err := ctx.Deserialize(el, typetoken.Of[any]())
		if err != nil {
			return nil, err
		}
		return fn(src)
	})
}
