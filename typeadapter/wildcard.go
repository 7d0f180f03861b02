package typeadapter

import (
	"reflect"
	"sync"

	"github.com/hyp3rd/ewrap"

	"github.com/Station-Manager/jsonadapters/internal/sentinel"
	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

var (
	anySliceType = reflect.TypeFor[[]any]()
	anyMapType   = reflect.TypeFor[map[string]any]()
)

// WildcardFactory handles interface types and the null type. Reads pick a Go
// shape from the next token; writes classify the runtime value.
type WildcardFactory struct{}

func (WildcardFactory) Supports(t *typetoken.TypeToken) bool {
	return t.Kind() == typetoken.Wildcard || t.Kind() == typetoken.Null
}

func (WildcardFactory) Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error) {
	return &wildcardAdapter{provider: p}, nil
}

type wildcardAdapter struct {
	provider *Provider

	once   sync.Once
	slices TypeAdapter
	maps   TypeAdapter
	err    error
}

func (a *wildcardAdapter) containers() error {
	a.once.Do(func() {
		registry := a.provider.Registry()
		if a.slices, a.err = a.provider.GetAdapter(registry.FromType(anySliceType)); a.err != nil {
			return
		}
		a.maps, a.err = a.provider.GetAdapter(registry.FromType(anyMapType))
	})
	return a.err
}

// Read returns string, float64, bool, nil, []any or map[string]any.
func (a *wildcardAdapter) Read(r jsonio.Reader) (any, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	switch tok {
	case jsonio.String:
		return r.NextString()
	case jsonio.Number:
		return r.NextDouble()
	case jsonio.Boolean:
		return r.NextBoolean()
	case jsonio.Null:
		return nil, r.NextNull()
	case jsonio.BeginArray:
		if err := a.containers(); err != nil {
			return nil, err
		}
		return a.slices.Read(r)
	case jsonio.BeginObject:
		if err := a.containers(); err != nil {
			return nil, err
		}
		return a.maps.Read(r)
	}
	return nil, ewrap.Wrapf(sentinel.ErrUnexpectedToken, "%s at %s", tok, r.Path())
}

func (a *wildcardAdapter) Write(w jsonio.Writer, value any) error {
	if isNil(value) {
		return w.WriteNull()
	}
	adapter, err := a.provider.GetAdapter(a.provider.Registry().FromValue(value))
	if err != nil {
		return err
	}
	return adapter.Write(w, value)
}
