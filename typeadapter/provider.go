package typeadapter

import (
	"reflect"
	"sync"

	"github.com/hyp3rd/ewrap"
	"go.uber.org/zap"

	"github.com/Station-Manager/jsonadapters/constructor"
	"github.com/Station-Manager/jsonadapters/internal/sentinel"
	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/metadata"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// Provider resolves adapters through an ordered chain of factories and caches
// them by type key. It is safe for concurrent use.
type Provider struct {
	factories   []Factory
	constructor *constructor.Constructor
	registry    *typetoken.Registry
	logger      *zap.Logger

	cache   sync.Map // map[string]TypeAdapter
	mu      sync.Mutex
	pending map[string]*futureAdapter
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

func WithRegistry(r *typetoken.Registry) ProviderOption {
	return func(p *Provider) {
		if r != nil {
			p.registry = r
		}
	}
}

func WithLogger(l *zap.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProvider returns a Provider over factories; the first factory that
// supports a type and returns an adapter wins.
func NewProvider(factories []Factory, c *constructor.Constructor, opts ...ProviderOption) *Provider {
	if c == nil {
		c = constructor.New()
	}
	p := &Provider{
		factories:   append([]Factory(nil), factories...),
		constructor: c,
		registry:    typetoken.NewRegistry(),
		logger:      zap.NewNop(),
		pending:     make(map[string]*futureAdapter),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Registry() *typetoken.Registry { return p.registry }

func (p *Provider) Constructor() *constructor.Constructor { return p.constructor }

// AddTypeAdapter puts an adapter in the cache for t, ahead of the factories.
func (p *Provider) AddTypeAdapter(t *typetoken.TypeToken, adapter TypeAdapter) {
	p.cache.Store(t.Key(), adapter)
}

// GetAdapter returns the cached adapter for t or creates one. While an
// adapter for a key is being created, other requests for the key receive a
// placeholder that forwards to it once it is ready.
func (p *Provider) GetAdapter(t *typetoken.TypeToken) (TypeAdapter, error) {
	key := t.Key()
	if cached, ok := p.cache.Load(key); ok {
		return cached.(TypeAdapter), nil
	}

	p.mu.Lock()
	if cached, ok := p.cache.Load(key); ok {
		p.mu.Unlock()
		return cached.(TypeAdapter), nil
	}
	if future, ok := p.pending[key]; ok {
		p.mu.Unlock()
		return future, nil
	}
	future := newFutureAdapter(key)
	p.pending[key] = future
	p.mu.Unlock()

	adapter, err := p.create(t, nil)

	p.mu.Lock()
	delete(p.pending, key)
	if err == nil {
		p.cache.Store(key, adapter)
	}
	p.mu.Unlock()
	future.resolve(adapter, err)

	return adapter, err
}

// GetDelegateAdapter walks the chain without skip. The result is not cached.
func (p *Provider) GetDelegateAdapter(skip Factory, t *typetoken.TypeToken) (TypeAdapter, error) {
	return p.create(t, skip)
}

func (p *Provider) create(t *typetoken.TypeToken, skip Factory) (TypeAdapter, error) {
	for _, f := range p.factories {
		if skip != nil && sameFactory(f, skip) {
			continue
		}
		if !f.Supports(t) {
			continue
		}
		adapter, err := f.Create(t, p)
		if err != nil {
			return nil, err
		}
		if adapter == nil {
			continue
		}
		p.logger.Debug("type adapter resolved",
			zap.String("type", t.Key()),
			zap.String("factory", reflect.TypeOf(f).String()),
			zap.Bool("delegate", skip != nil))
		return adapter, nil
	}
	p.logger.Warn("no type adapter", zap.String("type", t.String()))
	return nil, ewrap.Wrapf(sentinel.ErrUnsupportedType, "%s", t)
}

// sameFactory compares factories by identity without panicking on
// uncomparable dynamic types.
func sameFactory(a, b Factory) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// AdapterFromAnnotation builds the adapter an adapter tag names. The named
// object may be a TypeAdapter, a Factory, or a Serializer and/or
// Deserializer; a missing direction falls back to the chain without skip.
func (p *Provider) AdapterFromAnnotation(t *typetoken.TypeToken, annotation metadata.JSONAdapter, skip Factory) (TypeAdapter, error) {
	return p.adapterFromAnnotation(t, annotation, skip, nil)
}

func (p *Provider) adapterFromAnnotation(t *typetoken.TypeToken, annotation metadata.JSONAdapter, skip Factory, fallback TypeAdapter) (TypeAdapter, error) {
	obj, err := p.constructor.NewNamed(annotation.Name)
	if err != nil {
		return nil, ewrap.Wrapf(err, "adapter for %s", t)
	}

	switch v := obj.(type) {
	case TypeAdapter:
		return v, nil
	case Factory:
		adapter, err := v.Create(t, p)
		if err != nil {
			return nil, err
		}
		if adapter == nil {
			return nil, ewrap.Wrapf(sentinel.ErrInvalidAdapterConfiguration, "factory %q declined %s", annotation.Name, t)
		}
		return adapter, nil
	}

	serializer, isSerializer := obj.(Serializer)
	deserializer, isDeserializer := obj.(Deserializer)
	if !isSerializer && !isDeserializer {
		return nil, ewrap.Wrapf(sentinel.ErrInvalidAdapterConfiguration,
			"%q (%T) is not a type adapter, factory, serializer or deserializer", annotation.Name, obj)
	}
	return newCustomWrappedAdapter(t, p, serializer, deserializer, skip, fallback), nil
}

type futureAdapter struct {
	key     string
	done    chan struct{}
	adapter TypeAdapter
	err     error
}

func newFutureAdapter(key string) *futureAdapter {
	return &futureAdapter{key: key, done: make(chan struct{})}
}

func (f *futureAdapter) resolve(adapter TypeAdapter, err error) {
	f.adapter, f.err = adapter, err
	close(f.done)
}

func (f *futureAdapter) wait() (TypeAdapter, error) {
	<-f.done
	return f.adapter, f.err
}

func (f *futureAdapter) Read(r jsonio.Reader) (any, error) {
	adapter, err := f.wait()
	if err != nil {
		return nil, err
	}
	return adapter.Read(r)
}

func (f *futureAdapter) Write(w jsonio.Writer, value any) error {
	adapter, err := f.wait()
	if err != nil {
		return err
	}
	return adapter.Write(w, value)
}
