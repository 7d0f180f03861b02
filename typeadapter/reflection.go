package typeadapter

import (
	"reflect"
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/hyp3rd/ewrap"

	"github.com/Station-Manager/jsonadapters/constructor"
	"github.com/Station-Manager/jsonadapters/excluder"
	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/metadata"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// ReflectionFactory maps structs member by member using class metadata.
// It accepts every struct and belongs at the end of the chain.
type ReflectionFactory struct {
	metadata *metadata.Factory
	excluder *excluder.Excluder
}

func NewReflectionFactory(m *metadata.Factory, e *excluder.Excluder) *ReflectionFactory {
	return &ReflectionFactory{metadata: m, excluder: e}
}

func (f *ReflectionFactory) Supports(t *typetoken.TypeToken) bool {
	return t.IsStruct()
}

// Create honours a class level adapter tag; a one-way serializer or
// deserializer named there falls back to the plain reflective adapter.
func (f *ReflectionFactory) Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error) {
	class, err := f.metadata.Create(t)
	if err != nil {
		return nil, err
	}
	plain := newReflectionAdapter(class, p, f.excluder, p.Constructor().Get(class.Type()))
	if annotation, ok := metadata.Get[metadata.JSONAdapter](class.Annotations()); ok {
		return p.adapterFromAnnotation(t, annotation, f, plain)
	}
	return plain, nil
}

// boundProperty resolves the adapter of a property on first use, so that
// self referencing classes never recurse while adapters are created.
type boundProperty struct {
	prop *metadata.Property

	once    sync.Once
	adapter TypeAdapter
	err     error
}

func (b *boundProperty) resolve(p *Provider) (TypeAdapter, error) {
	b.once.Do(func() {
		if annotation, ok := metadata.Get[metadata.JSONAdapter](b.prop.Annotations()); ok {
			b.adapter, b.err = p.AdapterFromAnnotation(b.prop.Type(), annotation, nil)
			return
		}
		b.adapter, b.err = p.GetAdapter(b.prop.Type())
	})
	return b.adapter, b.err
}

type reflectionAdapter struct {
	class       *metadata.ClassMetadata
	provider    *Provider
	excluder    *excluder.Excluder
	constructor constructor.ObjectConstructor
	dynamic     bool

	properties []*boundProperty
	virtuals   []*boundProperty
	bySerial   map[string]*boundProperty
}

func newReflectionAdapter(class *metadata.ClassMetadata, p *Provider, e *excluder.Excluder, c constructor.ObjectConstructor) *reflectionAdapter {
	a := &reflectionAdapter{
		class:       class,
		provider:    p,
		excluder:    e,
		constructor: c,
		bySerial:    make(map[string]*boundProperty, class.Properties().Len()),
	}
	if e != nil {
		a.dynamic = e.ChecksValues(class)
	}
	for _, prop := range class.Properties().All() {
		bp := &boundProperty{prop: prop}
		a.properties = append(a.properties, bp)
		a.bySerial[prop.SerializedName()] = bp
	}
	for _, prop := range class.VirtualProperties() {
		a.virtuals = append(a.virtuals, &boundProperty{prop: prop})
	}
	return a
}

func (a *reflectionAdapter) excluded(prop *metadata.Property, object any, serialize bool) bool {
	return a.dynamic && a.excluder.ExcludeByValue(prop, object, serialize)
}

func (a *reflectionAdapter) Read(r jsonio.Reader) (any, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if tok == jsonio.Null {
		return nil, r.NextNull()
	}

	ptr, err := a.constructor.Construct()
	if err != nil {
		return nil, err
	}
	obj := ptr.Elem()
	object := ptr.Interface()

	if err := r.BeginObject(); err != nil {
		return nil, err
	}
	for {
		more, err := r.HasNext()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		name, err := r.NextName()
		if err != nil {
			return nil, err
		}
		bp := a.bySerial[name]
		if bp == nil || bp.prop.SkipDeserialize() || !bp.prop.Writable() || a.excluded(bp.prop, object, false) {
			if err := r.SkipValue(); err != nil {
				return nil, err
			}
			continue
		}
		adapter, err := bp.resolve(a.provider)
		if err != nil {
			return nil, err
		}
		v, err := adapter.Read(r)
		if err != nil {
			return nil, err
		}
		if err := bp.prop.Set(obj, reflect.ValueOf(v)); err != nil {
			return nil, ewrap.Wrapf(err, "%s at %s", a.class.Name(), r.Path())
		}
	}
	if err := r.EndObject(); err != nil {
		return nil, err
	}
	return obj.Interface(), nil
}

func (a *reflectionAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.reflectionAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return w.WriteNull()
		}
		rv = rv.Elem()
	}
	if rv.Type() != a.class.Type() {
		return errors.New(op).Errorf("cannot write %s as %s", rv.Type(), a.class.Name())
	}
	if !rv.CanAddr() {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		rv = p.Elem()
	}
	object := rv.Addr().Interface()

	if err := w.BeginObject(); err != nil {
		return err
	}
	for _, bp := range a.properties {
		if err := a.writeProperty(w, rv, object, bp); err != nil {
			return err
		}
	}
	for _, bp := range a.virtuals {
		if err := a.writeProperty(w, rv, object, bp); err != nil {
			return err
		}
	}
	return w.EndObject()
}

func (a *reflectionAdapter) writeProperty(w jsonio.Writer, obj reflect.Value, object any, bp *boundProperty) error {
	prop := bp.prop
	if prop.SkipSerialize() || !prop.Readable() || a.excluded(prop, object, true) {
		return nil
	}
	v, err := prop.Get(obj)
	if err != nil {
		return ewrap.Wrapf(err, "%s.%s", a.class.Name(), prop.Name())
	}
	adapter, err := bp.resolve(a.provider)
	if err != nil {
		return err
	}
	if err := w.Name(prop.SerializedName()); err != nil {
		return err
	}
	return adapter.Write(w, v.Interface())
}

// ExcluderFactory sits before the ReflectionFactory and handles classes the
// excluder skips in at least one direction.
type ExcluderFactory struct {
	metadata *metadata.Factory
}

func NewExcluderFactory(m *metadata.Factory) *ExcluderFactory {
	return &ExcluderFactory{metadata: m}
}

func (f *ExcluderFactory) Supports(t *typetoken.TypeToken) bool {
	return t.IsStruct()
}

func (f *ExcluderFactory) Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error) {
	class, err := f.metadata.Create(t)
	if err != nil {
		return nil, err
	}
	if !class.SkipSerialize() && !class.SkipDeserialize() {
		return nil, nil
	}
	return &excluderAdapter{
		token:           t,
		provider:        p,
		skip:            f,
		skipSerialize:   class.SkipSerialize(),
		skipDeserialize: class.SkipDeserialize(),
	}, nil
}

// excluderAdapter writes null or skips the input for excluded directions and
// delegates the rest to the next factory in the chain.
type excluderAdapter struct {
	token           *typetoken.TypeToken
	provider        *Provider
	skip            Factory
	skipSerialize   bool
	skipDeserialize bool

	once     sync.Once
	delegate TypeAdapter
	err      error
}

func (a *excluderAdapter) resolveDelegate() (TypeAdapter, error) {
	a.once.Do(func() {
		a.delegate, a.err = a.provider.GetDelegateAdapter(a.skip, a.token)
	})
	return a.delegate, a.err
}

func (a *excluderAdapter) Read(r jsonio.Reader) (any, error) {
	if a.skipDeserialize {
		return nil, r.SkipValue()
	}
	delegate, err := a.resolveDelegate()
	if err != nil {
		return nil, err
	}
	return delegate.Read(r)
}

func (a *excluderAdapter) Write(w jsonio.Writer, value any) error {
	if a.skipSerialize {
		return w.WriteNull()
	}
	delegate, err := a.resolveDelegate()
	if err != nil {
		return err
	}
	return delegate.Write(w, value)
}
