package jsonadapters

import (
	"context"
	"io"
	"reflect"

	"github.com/hyp3rd/ewrap"

	"github.com/Station-Manager/jsonadapters/internal/sentinel"
	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/metadata"
	"github.com/Station-Manager/jsonadapters/typeadapter"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// Engine converts between Go values and JSON. It is safe for concurrent use;
// adapters and class metadata are built on first use and cached.
type Engine struct {
	options  Options
	registry *typetoken.Registry
	provider *typeadapter.Provider
}

// New creates an Engine with the built-in adapters and opts.
func New(opts ...Option) (*Engine, error) {
	return NewBuilder().WithOptions(opts...).Build()
}

func (e *Engine) Provider() *typeadapter.Provider { return e.provider }

func (e *Engine) Registry() *typetoken.Registry { return e.registry }

func (e *Engine) Options() Options { return e.options }

// ToJSON encodes v using the adapter for its runtime type.
func (e *Engine) ToJSON(v any) ([]byte, error) {
	return e.ToJSONContext(context.Background(), v)
}

// ToJSONContext is ToJSON with a context handed to every adapter.
func (e *Engine) ToJSONContext(ctx context.Context, v any) ([]byte, error) {
	return e.encode(ctx, v, e.registry.FromValue(v))
}

// ToJSONType encodes v with the adapter for a type descriptor such as
// "map<string,?>".
func (e *Engine) ToJSONType(v any, typ string) ([]byte, error) {
	t, err := e.registry.Parse(typ)
	if err != nil {
		return nil, err
	}
	return e.encode(context.Background(), v, t)
}

func (e *Engine) encode(ctx context.Context, v any, t *typetoken.TypeToken) ([]byte, error) {
	adapter, err := e.provider.GetAdapter(t)
	if err != nil {
		return nil, err
	}
	w := jsonio.NewWriter(ctx, e.options.SerializeNull)
	if err := adapter.Write(w, v); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// ToElement converts v into an element tree.
func (e *Engine) ToElement(v any) (jsonio.Element, error) {
	adapter, err := e.provider.GetAdapter(e.registry.FromValue(v))
	if err != nil {
		return nil, err
	}
	w := jsonio.NewElementWriter(context.Background(), e.options.SerializeNull)
	if err := adapter.Write(w, v); err != nil {
		return nil, err
	}
	if w.Element() == nil {
		return jsonio.NullElement{}, nil
	}
	return w.Element(), nil
}

// FromJSON decodes data into the value target points to. JSON null leaves
// the target unchanged.
func (e *Engine) FromJSON(data []byte, target any) error {
	return e.FromJSONContext(context.Background(), data, target)
}

// FromJSONContext is FromJSON with a context handed to every adapter.
func (e *Engine) FromJSONContext(ctx context.Context, data []byte, target any) error {
	return e.decodeInto(jsonio.NewBytesReader(ctx, data), target)
}

// FromReader decodes a single document read from r into target.
func (e *Engine) FromReader(ctx context.Context, r io.Reader, target any) error {
	return e.decodeInto(jsonio.NewReader(ctx, r), target)
}

// FromElement decodes an element tree into target.
func (e *Engine) FromElement(el jsonio.Element, target any) error {
	return e.decodeInto(jsonio.NewElementReader(context.Background(), el), target)
}

// FromJSONType decodes data as the type a descriptor names, for example
// "array<int>" or a registered class name.
func (e *Engine) FromJSONType(data []byte, typ string) (any, error) {
	t, err := e.registry.Parse(typ)
	if err != nil {
		return nil, err
	}
	return e.decode(jsonio.NewBytesReader(context.Background(), data), t)
}

func (e *Engine) decodeInto(r jsonio.Reader, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return notPointer(target)
	}
	v, err := e.decode(r, e.registry.FromType(rv.Type().Elem()))
	if err != nil || v == nil {
		return err
	}
	val, err := metadata.Assign(rv.Type().Elem(), reflect.ValueOf(v))
	if err != nil {
		return err
	}
	rv.Elem().Set(val)
	return nil
}

func (e *Engine) decode(r jsonio.Reader, t *typetoken.TypeToken) (any, error) {
	adapter, err := e.provider.GetAdapter(t)
	if err != nil {
		return nil, err
	}
	v, err := adapter.Read(r)
	if err != nil {
		return nil, err
	}
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if tok != jsonio.EndDocument {
		return nil, ewrap.Wrapf(sentinel.ErrUnexpectedToken, "%s after the document at %s", tok, r.Path())
	}
	return v, nil
}

func notPointer(target any) error {
	if rv := reflect.ValueOf(target); !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return ewrap.Wrapf(sentinel.ErrNilTarget, "%T", target)
	}
	return ewrap.Wrapf(sentinel.ErrTargetNotPointer, "%T", target)
}
