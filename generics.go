package jsonadapters

import (
	"context"
	"fmt"
	"reflect"
)

// Generic helpers as top-level functions (methods cannot have type parameters yet)

// Marshal encodes v with the adapter for T rather than for the runtime type
// of v, so an interface T is written through the wildcard adapter.
func Marshal[T any](e *Engine, v T) ([]byte, error) {
	return e.encode(context.Background(), v, e.registry.FromType(reflect.TypeFor[T]()))
}

// Unmarshal decodes data into a new T.
func Unmarshal[T any](e *Engine, data []byte) (T, error) {
	var out T
	err := e.FromJSON(data, &out)
	return out, err
}

// Convert maps input onto a new Out through the element tree, so properties
// match by their serialized names. For nested or non-aligned structures an
// explicit mapper is clearer.
func Convert[Out any](e *Engine, input any) (*Out, error) {
	el, err := e.ToElement(input)
	if err != nil {
		return nil, fmt.Errorf("jsonadapters: convert %T: %w", input, err)
	}
	var result Out
	if err := e.FromElement(el, &result); err != nil {
		return nil, fmt.Errorf("jsonadapters: convert %T: %w", input, err)
	}
	return &result, nil
}

// ConvertSlice converts every element of in, stopping at the first failure.
func ConvertSlice[Out, In any](e *Engine, in []In) ([]Out, error) {
	out := make([]Out, 0, len(in))
	for i, item := range in {
		v, err := Convert[Out](e, item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, *v)
	}
	return out, nil
}
