package typeadapter

import (
	"reflect"

	"github.com/Station-Manager/errors"
	"github.com/aarondl/null/v8"

	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// nullableFields names the value field of each supported null type.
var nullableFields = map[reflect.Type]string{
	reflect.TypeFor[null.String]():  "String",
	reflect.TypeFor[null.Bool]():    "Bool",
	reflect.TypeFor[null.Byte]():    "Byte",
	reflect.TypeFor[null.Bytes]():   "Bytes",
	reflect.TypeFor[null.Int]():     "Int",
	reflect.TypeFor[null.Int8]():    "Int8",
	reflect.TypeFor[null.Int16]():   "Int16",
	reflect.TypeFor[null.Int32]():   "Int32",
	reflect.TypeFor[null.Int64]():   "Int64",
	reflect.TypeFor[null.Uint]():    "Uint",
	reflect.TypeFor[null.Uint8]():   "Uint8",
	reflect.TypeFor[null.Uint16]():  "Uint16",
	reflect.TypeFor[null.Uint32]():  "Uint32",
	reflect.TypeFor[null.Uint64]():  "Uint64",
	reflect.TypeFor[null.Float32](): "Float32",
	reflect.TypeFor[null.Float64](): "Float64",
	reflect.TypeFor[null.Time]():    "Time",
	reflect.TypeFor[null.JSON]():    "JSON",
}

var nullJSONType = reflect.TypeFor[null.JSON]()

// NullableFactory handles the aarondl/null types: an invalid value is
// written as null and JSON null reads back as an invalid value. The options
// of the token, such as a datetime format, pass through to the value.
type NullableFactory struct{}

func (NullableFactory) Supports(t *typetoken.TypeToken) bool {
	_, ok := nullableFields[t.Type()]
	return ok
}

func (NullableFactory) Create(t *typetoken.TypeToken, p *Provider) (TypeAdapter, error) {
	rt := t.Type()
	field := nullableFields[rt]
	sf, _ := rt.FieldByName(field)

	a := &nullableAdapter{rtype: rt, field: field}
	if rt == nullJSONType {
		a.inner = rawAdapter{rtype: sf.Type}
		return a, nil
	}
	token := p.Registry().FromType(sf.Type)
	if opts := t.Options(); len(opts) > 0 {
		token = token.WithOptions(opts)
	}
	a.elem = &elementAdapter{token: token, provider: p}
	return a, nil
}

type nullableAdapter struct {
	rtype reflect.Type
	field string
	inner TypeAdapter
	elem  *elementAdapter
}

func (a *nullableAdapter) adapter() (TypeAdapter, error) {
	if a.inner != nil {
		return a.inner, nil
	}
	return a.elem.get()
}

func (a *nullableAdapter) Read(r jsonio.Reader) (any, error) {
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if tok == jsonio.Null {
		return nil, r.NextNull()
	}
	adapter, err := a.adapter()
	if err != nil {
		return nil, err
	}
	v, err := adapter.Read(r)
	if err != nil {
		return nil, err
	}
	out := reflect.New(a.rtype).Elem()
	if err := assignResult(out.FieldByName(a.field), v); err != nil {
		return nil, err
	}
	out.FieldByName("Valid").SetBool(true)
	return out.Interface(), nil
}

func (a *nullableAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.nullableAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	rv := reflect.Indirect(reflect.ValueOf(value))
	if rv.Type() != a.rtype {
		return errors.New(op).Errorf("cannot write %T as %s", value, a.rtype)
	}
	if !rv.FieldByName("Valid").Bool() {
		return w.WriteNull()
	}
	adapter, err := a.adapter()
	if err != nil {
		return err
	}
	return adapter.Write(w, rv.FieldByName(a.field).Interface())
}
