package metadata

import (
	"cmp"
	"reflect"
	"slices"
	"sync"

	"github.com/hyp3rd/ewrap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Station-Manager/jsonadapters/internal/sentinel"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// ExclusionDecider answers the static exclusion questions while metadata is
// built. The answers are cached on the metadata.
type ExclusionDecider interface {
	ExcludeClass(class *ClassMetadata, serialize bool) bool
	ExcludeProperty(property *Property, serialize bool) bool
}

// Visitor sees every class after its exclusion flags are set and before it is
// published.
type Visitor interface {
	Visit(class *ClassMetadata)
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(class *ClassMetadata)

func (f VisitorFunc) Visit(class *ClassMetadata) { f(class) }

// Factory builds ClassMetadata once per struct type.
type Factory struct {
	registry *typetoken.Registry
	naming   PropertyNamingStrategy
	methods  MethodNamingStrategy
	decider  ExclusionDecider
	visitors []Visitor
	logger   *zap.Logger

	cache sync.Map // map[reflect.Type]*ClassMetadata
	group singleflight.Group
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

func WithPropertyNaming(s PropertyNamingStrategy) FactoryOption {
	return func(f *Factory) {
		if s != nil {
			f.naming = s
		}
	}
}

func WithMethodNaming(s MethodNamingStrategy) FactoryOption {
	return func(f *Factory) {
		if s != nil {
			f.methods = s
		}
	}
}

func WithExclusionDecider(d ExclusionDecider) FactoryOption {
	return func(f *Factory) { f.decider = d }
}

func WithVisitors(v ...Visitor) FactoryOption {
	return func(f *Factory) { f.visitors = append(f.visitors, v...) }
}

func WithLogger(l *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFactory returns a factory using snake case names and Get/Is/Set methods.
func NewFactory(registry *typetoken.Registry, opts ...FactoryOption) *Factory {
	if registry == nil {
		registry = typetoken.NewRegistry()
	}
	f := &Factory{
		registry: registry,
		naming:   SnakeCase,
		methods:  UpperCaseMethods{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the metadata of the struct the token is bound to.
func (f *Factory) Create(t *typetoken.TypeToken) (*ClassMetadata, error) {
	if !t.IsStruct() {
		return nil, ewrap.Wrapf(sentinel.ErrUnsupportedType, "%s is not a struct", t)
	}
	if cached, ok := f.cache.Load(t.Type()); ok {
		return cached.(*ClassMetadata), nil
	}
	v, err, _ := f.group.Do(f.registry.NameOf(t.Type()), func() (any, error) {
		if cached, ok := f.cache.Load(t.Type()); ok {
			return cached, nil
		}
		class, err := f.build(t.Type())
		if err != nil {
			return nil, err
		}
		actual, _ := f.cache.LoadOrStore(t.Type(), class)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ClassMetadata), nil
}

func (f *Factory) build(typ reflect.Type) (*ClassMetadata, error) {
	class := &ClassMetadata{
		name:        f.registry.NameOf(typ),
		rtype:       typ,
		token:       f.registry.FromType(typ),
		annotations: NewAnnotationSet(),
		properties:  NewPropertyCollection(),
	}
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if sf.Name != ClassField {
			continue
		}
		set, err := ParseTags(sf.Tag, true)
		if err != nil {
			return nil, ewrap.Wrapf(err, "class %s", class.name)
		}
		class.annotations = set
		break
	}

	var props []*Property
	if err := f.collect(class, typ, nil, 0, map[reflect.Type]bool{typ: true}, &props); err != nil {
		return nil, err
	}
	// shallower fields win over promoted ones with the same name
	slices.SortStableFunc(props, func(a, b *Property) int { return cmp.Compare(a.depth, b.depth) })
	for _, p := range props {
		class.properties.Add(p)
	}

	if vps, ok := Get[VirtualProperties](class.annotations); ok {
		for _, vp := range vps {
			out, ok := getterMethod(typ, vp.Method)
			if !ok {
				return nil, ewrap.Wrapf(sentinel.ErrInvalidAccessor, "virtual property method %s on %s", vp.Method, class.name)
			}
			name := vp.Name
			if name == "" {
				name = f.naming.TranslateName(vp.Method)
			}
			class.virtuals = append(class.virtuals, &Property{
				name:             vp.Method,
				serializedName:   name,
				class:            class.name,
				token:            f.registry.FromType(out),
				getter:           GetByMethod{Method: vp.Method},
				annotations:      NewAnnotationSet(),
				classAnnotations: class.annotations,
				skipDeserialize:  true,
				virtual:          true,
			})
		}
	}

	if f.decider != nil {
		class.skipSerialize = f.decider.ExcludeClass(class, true)
		class.skipDeserialize = f.decider.ExcludeClass(class, false)
		for _, p := range class.properties.All() {
			p.skipSerialize = f.decider.ExcludeProperty(p, true)
			p.skipDeserialize = f.decider.ExcludeProperty(p, false)
		}
		for _, p := range class.virtuals {
			p.skipSerialize = f.decider.ExcludeProperty(p, true)
		}
	}
	for _, v := range f.visitors {
		v.Visit(class)
	}

	f.logger.Debug("class metadata built",
		zap.String("class", class.name),
		zap.Int("properties", class.properties.Len()),
		zap.Int("virtual", len(class.virtuals)))
	return class, nil
}

func (f *Factory) collect(class *ClassMetadata, typ reflect.Type, prefix []int, depth int, seen map[reflect.Type]bool, out *[]*Property) error {
	root := class.rtype
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if sf.Name == ClassField {
			continue
		}
		idx := append(append([]int(nil), prefix...), i)

		if sf.Anonymous {
			if jt, _ := sf.Tag.Lookup("json"); jt == "" {
				ft := sf.Type
				isPtr := ft.Kind() == reflect.Pointer
				if isPtr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					if (isPtr && !sf.IsExported()) || seen[ft] {
						continue
					}
					seen[ft] = true
					err := f.collect(class, ft, idx, depth+1, seen, out)
					delete(seen, ft)
					if err != nil {
						return err
					}
					continue
				}
			}
		}

		annotations, err := ParseTags(sf.Tag, false)
		if err != nil {
			return ewrap.Wrapf(err, "%s.%s", class.name, sf.Name)
		}
		getter, setter, err := f.accessors(root, sf, idx, annotations)
		if err != nil {
			return err
		}
		if getter == nil && setter == nil {
			continue
		}

		name := f.naming.TranslateName(sf.Name)
		if sn, ok := Get[SerializedName](annotations); ok {
			name = sn.Value
		}
		token := f.registry.FromType(sf.Type)
		options := map[string]any{}
		if v, ok := Get[Format](annotations); ok {
			options[typetoken.OptionFormat] = v.Value
		}
		if v, ok := Get[Timezone](annotations); ok {
			options[typetoken.OptionTimezone] = v.Value
		}

		*out = append(*out, &Property{
			name:             sf.Name,
			serializedName:   name,
			class:            class.name,
			token:            token.WithOptions(options),
			getter:           getter,
			setter:           setter,
			annotations:      annotations,
			classAnnotations: class.annotations,
			depth:            depth,
		})
	}
	return nil
}

// accessors picks the getter and setter of a field: explicit tag methods,
// then methods proposed by the method naming strategy, then the field itself
// when it is exported.
func (f *Factory) accessors(root reflect.Type, sf reflect.StructField, idx []int, annotations *AnnotationSet) (GetterStrategy, SetterStrategy, error) {
	var (
		getter GetterStrategy
		setter SetterStrategy
	)
	explicit, _ := Get[Accessor](annotations)

	if explicit.Get != "" {
		if _, ok := getterMethod(root, explicit.Get); !ok {
			return nil, nil, ewrap.Wrapf(sentinel.ErrInvalidAccessor, "getter %s on %s", explicit.Get, root)
		}
		getter = GetByMethod{Method: explicit.Get}
	} else {
		for _, name := range f.methods.GetterNames(sf.Name) {
			if _, ok := getterMethod(root, name); ok {
				getter = GetByMethod{Method: name}
				break
			}
		}
	}

	if explicit.Set != "" {
		if _, ok := setterMethod(root, explicit.Set); !ok {
			return nil, nil, ewrap.Wrapf(sentinel.ErrInvalidAccessor, "setter %s on %s", explicit.Set, root)
		}
		setter = SetByMethod{Method: explicit.Set}
	} else {
		for _, name := range f.methods.SetterNames(sf.Name) {
			if _, ok := setterMethod(root, name); ok {
				setter = SetByMethod{Method: name}
				break
			}
		}
	}

	if sf.IsExported() {
		if getter == nil {
			getter = GetByField{Index: idx, Type: sf.Type}
		}
		if setter == nil {
			setter = SetByField{Index: idx, Type: sf.Type}
		}
	}
	return getter, setter, nil
}
