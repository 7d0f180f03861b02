package typeadapter

import (
	"encoding"
	"reflect"
	"slices"
	"strconv"
	"sync"

	"github.com/Station-Manager/errors"

	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// elementAdapter resolves the adapter of a generic parameter on first use.
type elementAdapter struct {
	token    *typetoken.TypeToken
	provider *Provider

	once    sync.Once
	adapter TypeAdapter
	err     error
}

func (e *elementAdapter) get() (TypeAdapter, error) {
	e.once.Do(func() {
		e.adapter, e.err = e.provider.GetAdapter(e.token)
	})
	return e.adapter, e.err
}

// PointerFactory reads into freshly allocated values and writes through the
// pointer. A nil pointer is written as null.
type PointerFactory struct{}

func (PointerFactory) Supports(t *typetoken.TypeToken) bool {
	return t.Kind() == typetoken.Pointer && t.Bound()
}

func (PointerFactory) Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error) {
	return &pointerAdapter{
		rtype: t.Type(),
		elem:  &elementAdapter{token: t.Generic(0), provider: p},
	}, nil
}

type pointerAdapter struct {
	rtype reflect.Type
	elem  *elementAdapter
}

func (a *pointerAdapter) Read(r jsonio.Reader) (any, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if tok == jsonio.Null {
		return nil, r.NextNull()
	}
	adapter, err := a.elem.get()
	if err != nil {
		return nil, err
	}
	v, err := adapter.Read(r)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(a.rtype.Elem())
	if err := assignResult(ptr.Elem(), v); err != nil {
		return nil, err
	}
	return ptr.Interface(), nil
}

func (a *pointerAdapter) Write(w jsonio.Writer, value any) error {
	if isNil(value) {
		return w.WriteNull()
	}
	adapter, err := a.elem.get()
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return adapter.Write(w, rv.Interface())
}

// ArrayFactory handles slices and fixed size arrays. Extra elements beyond
// the length of a fixed array are skipped.
type ArrayFactory struct{}

func (ArrayFactory) Supports(t *typetoken.TypeToken) bool {
	if t.Kind() != typetoken.Array || !t.Bound() {
		return false
	}
	k := t.Type().Kind()
	return k == reflect.Slice || k == reflect.Array
}

func (ArrayFactory) Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error) {
	return &arrayAdapter{
		rtype: t.Type(),
		elem:  &elementAdapter{token: t.Generic(0), provider: p},
	}, nil
}

type arrayAdapter struct {
	rtype reflect.Type
	elem  *elementAdapter
}

func (a *arrayAdapter) Read(r jsonio.Reader) (any, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if tok == jsonio.Null {
		return nil, r.NextNull()
	}
	adapter, err := a.elem.get()
	if err != nil {
		return nil, err
	}
	if err := r.BeginArray(); err != nil {
		return nil, err
	}

	fixed := a.rtype.Kind() == reflect.Array
	out := reflect.New(a.rtype).Elem()
	if !fixed {
		out = reflect.MakeSlice(a.rtype, 0, 4)
	}
	for i := 0; ; i++ {
		more, err := r.HasNext()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		if fixed && i >= out.Len() {
			if err := r.SkipValue(); err != nil {
				return nil, err
			}
			continue
		}
		v, err := adapter.Read(r)
		if err != nil {
			return nil, err
		}
		if fixed {
			if err := assignResult(out.Index(i), v); err != nil {
				return nil, err
			}
			continue
		}
		item := reflect.New(a.rtype.Elem()).Elem()
		if err := assignResult(item, v); err != nil {
			return nil, err
		}
		out = reflect.Append(out, item)
	}
	if err := r.EndArray(); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (a *arrayAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.arrayAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	rv := reflect.Indirect(reflect.ValueOf(value))
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return errors.New(op).Errorf("cannot write %T as %s", value, a.rtype)
	}
	adapter, err := a.elem.get()
	if err != nil {
		return err
	}
	if err := w.BeginArray(); err != nil {
		return err
	}
	for i := range rv.Len() {
		if err := adapter.Write(w, rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return w.EndArray()
}

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// MapFactory handles maps whose keys are strings, integers or text
// marshalers. Keys are written in sorted order.
type MapFactory struct{}

func (MapFactory) Supports(t *typetoken.TypeToken) bool {
	if t.Kind() != typetoken.Map || !t.Bound() {
		return false
	}
	return mapKeySupported(t.Type().Key())
}

func mapKeySupported(k reflect.Type) bool {
	switch k.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return reflect.PointerTo(k).Implements(textUnmarshalerType) && k.Implements(textMarshalerType)
}

func (MapFactory) Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error) {
	return &mapAdapter{
		rtype: t.Type(),
		value: &elementAdapter{token: t.Generic(1), provider: p},
	}, nil
}

type mapAdapter struct {
	rtype reflect.Type
	value *elementAdapter
}

func (a *mapAdapter) Read(r jsonio.Reader) (any, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if tok == jsonio.Null {
		return nil, r.NextNull()
	}
	adapter, err := a.value.get()
	if err != nil {
		return nil, err
	}
	if err := r.BeginObject(); err != nil {
		return nil, err
	}
	out := reflect.MakeMap(a.rtype)
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
		key, err := decodeMapKey(a.rtype.Key(), name)
		if err != nil {
			return nil, err
		}
		v, err := adapter.Read(r)
		if err != nil {
			return nil, err
		}
		item := reflect.New(a.rtype.Elem()).Elem()
		if err := assignResult(item, v); err != nil {
			return nil, err
		}
		out.SetMapIndex(key, item)
	}
	if err := r.EndObject(); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (a *mapAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.mapAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	rv := reflect.Indirect(reflect.ValueOf(value))
	if rv.Kind() != reflect.Map {
		return errors.New(op).Errorf("cannot write %T as %s", value, a.rtype)
	}
	adapter, err := a.value.get()
	if err != nil {
		return err
	}

	type entry struct {
		name  string
		value reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		name, err := encodeMapKey(iter.Key())
		if err != nil {
			return err
		}
		entries = append(entries, entry{name: name, value: iter.Value()})
	}
	slices.SortFunc(entries, func(x, y entry) int {
		switch {
		case x.name < y.name:
			return -1
		case x.name > y.name:
			return 1
		}
		return 0
	})

	if err := w.BeginObject(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Name(e.name); err != nil {
			return err
		}
		if err := adapter.Write(w, e.value.Interface()); err != nil {
			return err
		}
	}
	return w.EndObject()
}

func decodeMapKey(kt reflect.Type, name string) (reflect.Value, error) {
	const op errors.Op = "typeadapter.decodeMapKey"
	if reflect.PointerTo(kt).Implements(textUnmarshalerType) && kt.Kind() != reflect.String {
		key := reflect.New(kt)
		if err := key.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(name)); err != nil {
			return reflect.Value{}, errors.New(op).Err(err).Msg("invalid map key " + strconv.Quote(name))
		}
		return key.Elem(), nil
	}
	key := reflect.New(kt).Elem()
	switch kt.Kind() {
	case reflect.String:
		key.SetString(name)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(name, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, errors.New(op).Err(err).Msg("invalid map key " + strconv.Quote(name))
		}
		key.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(name, 10, kt.Bits())
		if err != nil {
			return reflect.Value{}, errors.New(op).Err(err).Msg("invalid map key " + strconv.Quote(name))
		}
		key.SetUint(u)
	default:
		return reflect.Value{}, errors.New(op).Errorf("unsupported map key type %s", kt)
	}
	return key, nil
}

func encodeMapKey(key reflect.Value) (string, error) {
	const op errors.Op = "typeadapter.encodeMapKey"
	if key.Kind() == reflect.String {
		return key.String(), nil
	}
	if m, ok := key.Interface().(encoding.TextMarshaler); ok {
		b, err := m.MarshalText()
		if err != nil {
			return "", errors.New(op).Err(err)
		}
		return string(b), nil
	}
	switch key.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(key.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(key.Uint(), 10), nil
	}
	return "", errors.New(op).Errorf("unsupported map key type %s", key.Type())
}
