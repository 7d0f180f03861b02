package typeadapter

import (
	"reflect"
	"sync"

	"github.com/hyp3rd/ewrap"

	"github.com/Station-Manager/jsonadapters/internal/sentinel"
	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/metadata"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// customWrappedAdapter runs a user Serializer and/or Deserializer over
// element trees. A missing direction is served by a delegate resolved on
// first use.
type customWrappedAdapter struct {
	token        *typetoken.TypeToken
	provider     *Provider
	serializer   Serializer
	deserializer Deserializer
	skip         Factory

	once     sync.Once
	delegate TypeAdapter
	err      error
}

func newCustomWrappedAdapter(t *typetoken.TypeToken, p *Provider, s Serializer, d Deserializer, skip Factory, delegate TypeAdapter) *customWrappedAdapter {
	a := &customWrappedAdapter{token: t, provider: p, serializer: s, deserializer: d, skip: skip}
	if delegate != nil {
		a.once.Do(func() { a.delegate = delegate })
	}
	return a
}

func (a *customWrappedAdapter) resolveDelegate() (TypeAdapter, error) {
	a.once.Do(func() {
		if a.skip != nil {
			a.delegate, a.err = a.provider.GetDelegateAdapter(a.skip, a.token)
			return
		}
		a.delegate, a.err = a.provider.GetAdapter(a.token)
	})
	return a.delegate, a.err
}

func (a *customWrappedAdapter) Read(r jsonio.Reader) (any, error) {
	if a.deserializer == nil {
		delegate, err := a.resolveDelegate()
		if err != nil {
			return nil, err
		}
		return delegate.Read(r)
	}
	el, err := jsonio.ReadElement(r)
	if err != nil {
		return nil, err
	}
	return a.deserializer.Deserialize(el, a.token, &DeserializationContext{ctx: r.Context(), provider: a.provider})
}

func (a *customWrappedAdapter) Write(w jsonio.Writer, value any) error {
	if a.serializer == nil {
		delegate, err := a.resolveDelegate()
		if err != nil {
			return err
		}
		return delegate.Write(w, value)
	}
	if isNil(value) {
		return w.WriteNull()
	}
	el, err := a.serializer.Serialize(value, a.token, &SerializationContext{
		ctx:           w.Context(),
		provider:      a.provider,
		serializeNull: w.SerializeNull(),
	})
	if err != nil {
		return err
	}
	return jsonio.WriteElement(w, el)
}

// CustomWrappedFactory applies a Serializer and/or Deserializer to every
// type that IsA the configured name.
type CustomWrappedFactory struct {
	typeName     string
	serializer   Serializer
	deserializer Deserializer
}

// NewCustomWrappedFactory returns a factory for typeName. At least one of s
// and d must be non-nil.
func NewCustomWrappedFactory(typeName string, s Serializer, d Deserializer) (*CustomWrappedFactory, error) {
	if s == nil && d == nil {
		return nil, ewrap.Wrapf(sentinel.ErrInvalidAdapterConfiguration, "%s: no serializer or deserializer", typeName)
	}
	return &CustomWrappedFactory{typeName: typeName, serializer: s, deserializer: d}, nil
}

func (f *CustomWrappedFactory) Supports(t *typetoken.TypeToken) bool {
	return t.IsA(f.typeName)
}

func (f *CustomWrappedFactory) Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error) {
	return newCustomWrappedAdapter(t, p, f.serializer, f.deserializer, f, nil), nil
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func notPointer(target any) error {
	if rv := reflect.ValueOf(target); !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return ewrap.Wrapf(sentinel.ErrNilTarget, "%T", target)
	}
	return ewrap.Wrapf(sentinel.ErrTargetNotPointer, "%T", target)
}

// assignResult stores an adapter result in dst; nil stores the zero value.
func assignResult(dst reflect.Value, v any) error {
	val, err := metadata.Assign(dst.Type(), reflect.ValueOf(v))
	if err != nil {
		return err
	}
	dst.Set(val)
	return nil
}
