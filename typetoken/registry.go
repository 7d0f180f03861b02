package typetoken

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/hyp3rd/ewrap"
)

var (
	anyType   = reflect.TypeFor[any]()
	mapType   = reflect.TypeFor[map[string]any]()
	sliceType = reflect.TypeFor[[]any]()
)

var builtinInterfaces = map[string]reflect.Type{
	"encoding.TextMarshaler":   reflect.TypeFor[encoding.TextMarshaler](),
	"encoding.TextUnmarshaler": reflect.TypeFor[encoding.TextUnmarshaler](),
	"json.Marshaler":           reflect.TypeFor[json.Marshaler](),
	"json.Unmarshaler":         reflect.TypeFor[json.Unmarshaler](),
	"fmt.Stringer":             reflect.TypeFor[fmt.Stringer](),
}

type typeInfo struct {
	interfaces map[string]struct{}
	ancestors  map[string]struct{}
}

// Registry maps class names to Go types and remembers which registered
// interfaces each type implements. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	byName     map[string]reflect.Type
	names      map[reflect.Type]string
	interfaces map[string]reflect.Type
	claimed    map[string]reflect.Type // derived names in use
	derived    map[reflect.Type]string

	infos  sync.Map // map[reflect.Type]cached[*typeInfo]
	tokens sync.Map // map[reflect.Type]cached[*TypeToken]
	gen    atomic.Uint64
}

// cached tags a classification with the registry generation it was built in.
type cached[T any] struct {
	gen uint64
	val T
}

// lookup returns the entry for t when it was built in generation gen.
func lookup[T any](m *sync.Map, t reflect.Type, gen uint64) (T, bool) {
	if v, ok := m.Load(t); ok {
		if c := v.(cached[T]); c.gen == gen {
			return c.val, true
		}
	}
	var zero T
	return zero, false
}

// remember caches val for t unless an entry of the same generation won the
// race, in which case that entry is returned.
func remember[T any](m *sync.Map, t reflect.Type, gen uint64, val T) T {
	entry := cached[T]{gen: gen, val: val}
	v, loaded := m.LoadOrStore(t, entry)
	if !loaded {
		return val
	}
	c := v.(cached[T])
	if c.gen == gen {
		return c.val
	}
	if c.gen < gen {
		m.Store(t, entry)
	}
	return val
}

// NewRegistry returns a registry that knows only the builtin interfaces.
func NewRegistry() *Registry {
	r := &Registry{
		byName:     make(map[string]reflect.Type),
		names:      make(map[reflect.Type]string),
		interfaces: make(map[string]reflect.Type, len(builtinInterfaces)),
		claimed:    make(map[string]reflect.Type),
		derived:    make(map[reflect.Type]string),
	}
	for name, t := range builtinInterfaces {
		r.interfaces[name] = t
	}
	return r
}

// RegisterType binds name to t. Descriptors naming the type resolve to it and
// the name becomes the canonical text of the type. A token classified while a
// registration is in flight may reflect either state but is never cached
// past it.
func (r *Registry) RegisterType(name string, t reflect.Type) {
	r.mu.Lock()
	r.byName[name] = t
	r.names[t] = name
	r.mu.Unlock()
	r.invalidate()
}

// Register binds name to the dynamic type of sample.
func (r *Registry) Register(name string, sample any) {
	r.RegisterType(name, reflect.TypeOf(sample))
}

// RegisterInterface makes an interface visible to IsA checks. iface must be a
// nil pointer to the interface, e.g. (*fmt.Stringer)(nil).
func (r *Registry) RegisterInterface(name string, iface any) error {
	t := reflect.TypeOf(iface)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
		return ewrap.Newf("typetoken: %s: want a nil pointer to an interface, got %T", name, iface)
	}
	r.mu.Lock()
	r.interfaces[name] = t.Elem()
	r.mu.Unlock()
	r.invalidate()
	return nil
}

// Register binds name to T.
func Register[T any](r *Registry, name string) {
	r.RegisterType(name, reflect.TypeFor[T]())
}

// Lookup returns the Go type registered under name.
func (r *Registry) Lookup(name string) (reflect.Type, bool) {
	r.mu.RLock()
	t, ok := r.byName[name]
	r.mu.RUnlock()
	return t, ok
}

// invalidate drops cached classifications. Entries built in an older
// generation are ignored by later lookups.
func (r *Registry) invalidate() {
	r.gen.Add(1)
	r.infos.Clear()
	r.tokens.Clear()
}

// NameOf returns the class name of a type: its registered alias, or the
// import path qualified name. Distinct types sharing a qualified name, such
// as types declared in different functions of one package, get a numbered
// suffix in the order they are first seen, so a name always identifies one
// type.
func (r *Registry) NameOf(t reflect.Type) string {
	r.mu.RLock()
	name, ok := r.names[t]
	if !ok {
		name, ok = r.derived[t]
	}
	r.mu.RUnlock()
	if ok {
		return name
	}

	base := qualifiedName(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.names[t]; ok {
		return name
	}
	if name, ok := r.derived[t]; ok {
		return name
	}
	name = base
	for n := 2; r.taken(name, t); n++ {
		name = base + "#" + strconv.Itoa(n)
	}
	r.claimed[name] = t
	r.derived[t] = name
	return name
}

// taken reports whether name already identifies a type other than t.
// Callers hold r.mu.
func (r *Registry) taken(name string, t reflect.Type) bool {
	if other, ok := r.claimed[name]; ok && other != t {
		return true
	}
	other, ok := r.byName[name]
	return ok && other != t
}

func qualifiedName(t reflect.Type) string {
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

func isNamed(t reflect.Type) bool {
	return t.Name() != "" && t.PkgPath() != ""
}

func (r *Registry) info(t reflect.Type) *typeInfo {
	gen := r.gen.Load()
	if info, ok := lookup[*typeInfo](&r.infos, t, gen); ok {
		return info
	}
	info := &typeInfo{
		interfaces: make(map[string]struct{}),
		ancestors:  make(map[string]struct{}),
	}
	ptr := reflect.PointerTo(t)
	r.mu.RLock()
	for name, iface := range r.interfaces {
		if t.Implements(iface) || ptr.Implements(iface) {
			info.interfaces[name] = struct{}{}
		}
	}
	r.mu.RUnlock()
	r.collectAncestors(t, info.ancestors, map[reflect.Type]bool{t: true})
	return remember(&r.infos, t, gen, info)
}

func (r *Registry) collectAncestors(t reflect.Type, into map[string]struct{}, seen map[reflect.Type]bool) {
	if t.Kind() != reflect.Struct {
		return
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() != reflect.Struct || seen[ft] {
			continue
		}
		seen[ft] = true
		into[r.NameOf(ft)] = struct{}{}
		r.collectAncestors(ft, into, seen)
	}
}

// Of returns the token for T using the builtin registry.
func Of[T any]() *TypeToken {
	return builtin.FromType(reflect.TypeFor[T]())
}

// FromValue classifies the dynamic type of v. A nil v yields the null token.
func (r *Registry) FromValue(v any) *TypeToken {
	if v == nil {
		return nullToken
	}
	return r.FromType(reflect.TypeOf(v))
}

// FromType classifies a Go type.
func (r *Registry) FromType(t reflect.Type) *TypeToken {
	if t == nil {
		return nullToken
	}
	gen := r.gen.Load()
	if tok, ok := lookup[*TypeToken](&r.tokens, t, gen); ok {
		return tok
	}
	return remember(&r.tokens, t, gen, r.build(t))
}

func (r *Registry) build(t reflect.Type) *TypeToken {
	info := r.info(t)
	named := isNamed(t)
	name := func(keyword string) string {
		if named {
			return r.NameOf(t)
		}
		return keyword
	}

	switch t.Kind() {
	case reflect.Bool:
		return newToken(Boolean, name("bool"), t, nil, info)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return newToken(Integer, name(t.Kind().String()), t, nil, info)
	case reflect.Float32, reflect.Float64:
		return newToken(Float, name(t.Kind().String()), t, nil, info)
	case reflect.String:
		return newToken(String, name("string"), t, nil, info)
	case reflect.Slice:
		elem := r.FromType(t.Elem())
		return r.composite(Array, name("array"), t, []*TypeToken{elem}, info, named)
	case reflect.Array:
		elem := r.FromType(t.Elem())
		tok := r.composite(Array, name("array"), t, []*TypeToken{elem}, info, named)
		return tok.WithOptions(map[string]any{OptionLength: t.Len()})
	case reflect.Map:
		generics := []*TypeToken{r.FromType(t.Key()), r.FromType(t.Elem())}
		return r.composite(Map, name("map"), t, generics, info, named)
	case reflect.Pointer:
		return newToken(Pointer, "ptr", t, []*TypeToken{r.FromType(t.Elem())}, info)
	case reflect.Struct:
		return newToken(Object, r.NameOf(t), t, nil, info)
	case reflect.Interface:
		if t.NumMethod() == 0 && !named {
			return newToken(Wildcard, "?", t, nil, info)
		}
		return newToken(Wildcard, r.NameOf(t), t, nil, info)
	default:
		return newToken(Resource, name("resource"), t, nil, info)
	}
}

// composite tokens of named types render as the bare name; their generics
// stay available for adapters.
func (r *Registry) composite(kind Kind, name string, t reflect.Type, generics []*TypeToken, info *typeInfo, named bool) *TypeToken {
	tok := newToken(kind, name, t, generics, info)
	if named {
		tok.text = name
		tok.key = name
	}
	return tok
}

var (
	builtin   = NewRegistry()
	nullToken = newToken(Null, "null", nil, nil, nil)
)

// FromType classifies a Go type with the builtin registry.
func FromType(t reflect.Type) *TypeToken { return builtin.FromType(t) }

// FromValue classifies a value with the builtin registry.
func FromValue(v any) *TypeToken { return builtin.FromValue(v) }
