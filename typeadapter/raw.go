package typeadapter

import (
	"reflect"

	"github.com/Station-Manager/errors"
	"github.com/aarondl/sqlboiler/v4/types"
	"github.com/goccy/go-json"

	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

var (
	rawMessageType = reflect.TypeFor[json.RawMessage]()
	boilerJSONType = reflect.TypeFor[types.JSON]()
	elementType    = reflect.TypeFor[jsonio.Element]()
)

// RawFactory passes already encoded JSON through unchanged: json.RawMessage
// and sqlboiler's types.JSON.
type RawFactory struct{}

func (RawFactory) Supports(t *typetoken.TypeToken) bool {
	rt := t.Type()
	return rt == rawMessageType || rt == boilerJSONType
}

func (RawFactory) Create(t *typetoken.TypeToken, _ *Provider) (TypeAdapter, error) {
	return rawAdapter{rtype: t.Type()}, nil
}

type rawAdapter struct {
	rtype reflect.Type
}

func (a rawAdapter) Read(r jsonio.Reader) (any, error) {
	el, err := jsonio.ReadElement(r)
	if err != nil {
		return nil, err
	}
	if jsonio.IsNull(el) {
		return nil, nil
	}
	b, err := jsonio.Marshal(el)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(b).Convert(a.rtype).Interface(), nil
}

func (a rawAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.rawAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	rv := reflect.Indirect(reflect.ValueOf(value))
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Uint8 {
		return errors.New(op).Errorf("cannot write %T as raw JSON", value)
	}
	if rv.Len() == 0 {
		return w.WriteNull()
	}
	return w.WriteRaw(rv.Bytes())
}

// ElementFactory reads and writes element trees as they are.
type ElementFactory struct{}

func (ElementFactory) Supports(t *typetoken.TypeToken) bool {
	rt := t.Type()
	return rt != nil && (rt == elementType || rt.Implements(elementType))
}

func (ElementFactory) Create(t *typetoken.TypeToken, _ *Provider) (TypeAdapter, error) {
	return elementTreeAdapter{rtype: t.Type()}, nil
}

type elementTreeAdapter struct {
	rtype reflect.Type
}

// Read returns jsonio.NullElement for JSON null when the target is the Element
// interface and nil otherwise.
func (a elementTreeAdapter) Read(r jsonio.Reader) (any, error) {
	const op errors.Op = "typeadapter.elementTreeAdapter.Read"
	el, err := jsonio.ReadElement(r)
	if err != nil {
		return nil, err
	}
	if reflect.TypeOf(el).AssignableTo(a.rtype) {
		return el, nil
	}
	if jsonio.IsNull(el) {
		return nil, nil
	}
	return nil, errors.New(op).Errorf("cannot read %T as %s at %s", el, a.rtype, r.Path())
}

func (a elementTreeAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.elementTreeAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	el, ok := value.(jsonio.Element)
	if !ok {
		return errors.New(op).Errorf("cannot write %T as an element", value)
	}
	return jsonio.WriteElement(w, el)
}
