package typeadapter

import (
	"encoding"
	"reflect"

	"github.com/Station-Manager/errors"

	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// TextFactory handles non-interface types that marshal to and from text,
// uuid.UUID or net.IP for example, as JSON strings.
type TextFactory struct{}

func (TextFactory) Supports(t *typetoken.TypeToken) bool {
	rt := t.Type()
	if rt == nil || rt.Kind() == reflect.Interface || rt.Kind() == reflect.Pointer {
		return false
	}
	ptr := reflect.PointerTo(rt)
	return ptr.Implements(textUnmarshalerType) && ptr.Implements(textMarshalerType)
}

func (TextFactory) Create(t *typetoken.TypeToken, _ *Provider) (TypeAdapter, error) {
	return textAdapter{rtype: t.Type()}, nil
}

type textAdapter struct {
	rtype reflect.Type
}

func (a textAdapter) Read(r jsonio.Reader) (any, error) {
	const op errors.Op = "typeadapter.textAdapter.Read"
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if tok == jsonio.Null {
		return nil, r.NextNull()
	}
	s, err := r.NextString()
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(a.rtype)
	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return nil, errors.New(op).Err(err).Msg("cannot decode " + a.rtype.String() + " at " + r.Path())
	}
	return ptr.Elem().Interface(), nil
}

func (a textAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.textAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	m, ok := value.(encoding.TextMarshaler)
	if !ok {
		rv := reflect.ValueOf(value)
		if rv.Type() != a.rtype {
			return errors.New(op).Errorf("cannot write %T as %s", value, a.rtype)
		}
		ptr := reflect.New(a.rtype)
		ptr.Elem().Set(rv)
		m = ptr.Interface().(encoding.TextMarshaler)
	}
	b, err := m.MarshalText()
	if err != nil {
		return errors.New(op).Err(err)
	}
	return w.WriteString(string(b))
}
