package jsonadapters

import (
	"reflect"

	"github.com/Station-Manager/errors"
	"github.com/hyp3rd/ewrap"

	"github.com/Station-Manager/jsonadapters/config"
	"github.com/Station-Manager/jsonadapters/constructor"
	"github.com/Station-Manager/jsonadapters/excluder"
	"github.com/Station-Manager/jsonadapters/internal/sentinel"
	"github.com/Station-Manager/jsonadapters/metadata"
	"github.com/Station-Manager/jsonadapters/typeadapter"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

type exclusionStrategy struct {
	strategy    excluder.Strategy
	serialize   bool
	deserialize bool
}

type namedAdapter struct {
	typ     string
	adapter typeadapter.TypeAdapter
}

// custom holds the serializer and deserializer registered for one type name.
type custom struct {
	typ          string
	serializer   typeadapter.Serializer
	deserializer typeadapter.Deserializer
}

// Builder provides a fluent API to construct an Engine with options, types,
// adapters and exclusion strategies pre-registered. The first error recorded
// by a builder method is returned from Build.
type Builder struct {
	opts        []Option
	err         error
	registry    *typetoken.Registry
	constructor *constructor.Constructor
	factories   []typeadapter.Factory
	adapters    []namedAdapter
	customs     []*custom
	strategies  []exclusionStrategy
	dynamic     []excluder.DynamicStrategy
	visitors    []metadata.Visitor
}

// NewBuilder creates a new builder.
func NewBuilder() *Builder {
	return &Builder{
		registry:    typetoken.NewRegistry(),
		constructor: constructor.New(),
	}
}

// WithOptions appends engine options to the builder.
func (b *Builder) WithOptions(opts ...Option) *Builder { b.opts = append(b.opts, opts...); return b }

// WithConfig appends the options a loaded configuration describes.
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return b.fail(err)
	}
	return b.WithOptions(opts...)
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// RegisterType names the dynamic type of sample for descriptors and IsA checks.
func (b *Builder) RegisterType(name string, sample any) *Builder {
	b.registry.Register(name, sample)
	return b
}

// RegisterInterface names an interface; iface is a nil pointer to it.
func (b *Builder) RegisterInterface(name string, iface any) *Builder {
	if err := b.registry.RegisterInterface(name, iface); err != nil {
		return b.fail(err)
	}
	return b
}

// AddTypeAdapterFactory adds a factory ahead of the built-in ones. Factories
// added earlier are consulted first.
func (b *Builder) AddTypeAdapterFactory(f typeadapter.Factory) *Builder {
	if f == nil {
		return b.fail(ewrap.Wrap(sentinel.ErrInvalidAdapterConfiguration, "nil factory"))
	}
	b.factories = append(b.factories, f)
	return b
}

// AddTypeAdapter binds an adapter to the exact type a descriptor names.
func (b *Builder) AddTypeAdapter(typ string, a typeadapter.TypeAdapter) *Builder {
	if a == nil {
		return b.fail(ewrap.Wrapf(sentinel.ErrInvalidAdapterConfiguration, "%s: nil adapter", typ))
	}
	b.adapters = append(b.adapters, namedAdapter{typ: typ, adapter: a})
	return b
}

// AddSerializer uses s for every type that IsA typ.
func (b *Builder) AddSerializer(typ string, s typeadapter.Serializer) *Builder {
	b.customFor(typ).serializer = s
	return b
}

// AddDeserializer uses d for every type that IsA typ.
func (b *Builder) AddDeserializer(typ string, d typeadapter.Deserializer) *Builder {
	b.customFor(typ).deserializer = d
	return b
}

func (b *Builder) customFor(typ string) *custom {
	for _, c := range b.customs {
		if c.typ == typ {
			return c
		}
	}
	c := &custom{typ: typ}
	b.customs = append(b.customs, c)
	// Holds the factory's position in the chain; replaced in Build.
	b.factories = append(b.factories, nil)
	return c
}

// AddInstanceCreator makes fn the way values of t are constructed.
func (b *Builder) AddInstanceCreator(t reflect.Type, fn func() any) *Builder {
	b.constructor.RegisterCreator(t, fn)
	return b
}

// RegisterNamed registers a creator that can be looked up by name.
func (b *Builder) RegisterNamed(name string, fn func() any) *Builder {
	b.constructor.RegisterNamed(name, fn)
	return b
}

// AddExclusionStrategy adds a strategy for the chosen directions.
func (b *Builder) AddExclusionStrategy(s excluder.Strategy, serialize, deserialize bool) *Builder {
	b.strategies = append(b.strategies, exclusionStrategy{strategy: s, serialize: serialize, deserialize: deserialize})
	return b
}

// AddDynamicStrategy adds a strategy consulted for every property value.
func (b *Builder) AddDynamicStrategy(s excluder.DynamicStrategy) *Builder {
	b.dynamic = append(b.dynamic, s)
	return b
}

// AddVisitor adds a visitor that sees every class metadata once.
func (b *Builder) AddVisitor(v metadata.Visitor) *Builder {
	b.visitors = append(b.visitors, v)
	return b
}

// Build constructs the Engine. A builder should not be reused afterwards.
func (b *Builder) Build() (*Engine, error) {
	const op errors.Op = "jsonadapters.Builder.Build"
	if b.err != nil {
		return nil, b.err
	}
	o := defaultOptions()
	for _, opt := range b.opts {
		opt(&o)
	}

	ex, err := excluder.New(
		excluder.WithRequireExpose(o.RequireExpose),
		excluder.WithRequireExclusionCheck(o.RequireExclusionCheck),
		excluder.WithVersion(o.Version),
	)
	if err != nil {
		return nil, errors.New(op).Err(err).Msg("invalid exclusion options")
	}
	for _, s := range b.strategies {
		ex.AddStrategy(s.strategy, s.serialize, s.deserialize)
	}
	for _, s := range b.dynamic {
		ex.AddDynamicStrategy(s)
	}

	meta := metadata.NewFactory(b.registry,
		metadata.WithPropertyNaming(o.PropertyNaming),
		metadata.WithMethodNaming(o.MethodNaming),
		metadata.WithExclusionDecider(ex),
		metadata.WithVisitors(b.visitors...),
		metadata.WithLogger(o.Logger),
	)

	user, err := b.userFactories()
	if err != nil {
		return nil, err
	}
	provider := typeadapter.NewProvider(
		typeadapter.DefaultFactories(meta, ex, o.DatetimeFormat, user...),
		b.constructor,
		typeadapter.WithRegistry(b.registry),
		typeadapter.WithLogger(o.Logger),
	)
	for _, na := range b.adapters {
		t, err := b.registry.Parse(na.typ)
		if err != nil {
			return nil, err
		}
		provider.AddTypeAdapter(t, na.adapter)
	}

	return &Engine{options: o, registry: b.registry, provider: provider}, nil
}

// userFactories fills each custom placeholder with its wrapped factory.
func (b *Builder) userFactories() ([]typeadapter.Factory, error) {
	out := make([]typeadapter.Factory, 0, len(b.factories))
	next := 0
	for _, f := range b.factories {
		if f != nil {
			out = append(out, f)
			continue
		}
		c := b.customs[next]
		next++
		wrapped, err := typeadapter.NewCustomWrappedFactory(c.typ, c.serializer, c.deserializer)
		if err != nil {
			return nil, err
		}
		out = append(out, wrapped)
	}
	return out, nil
}
