package typeadapter

import (
	"encoding/base64"
	"reflect"

	"github.com/Station-Manager/errors"

	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

// ScalarFactory handles strings, booleans, integers and floats, including
// named types over them. Values are returned as the exact Go type.
type ScalarFactory struct{}

func (ScalarFactory) Supports(t *typetoken.TypeToken) bool {
	return t.Bound() && t.Kind().IsScalar()
}

func (ScalarFactory) Create(t *typetoken.TypeToken, _ *Provider) (TypeAdapter, error) {
	return scalarAdapter{rtype: t.Type()}, nil
}

type scalarAdapter struct {
	rtype reflect.Type
}

func (a scalarAdapter) Read(r jsonio.Reader) (any, error) {
	const op errors.Op = "typeadapter.scalarAdapter.Read"
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if tok == jsonio.Null {
		return nil, r.NextNull()
	}

	out := reflect.New(a.rtype).Elem()
	switch a.rtype.Kind() {
	case reflect.String:
		s, err := r.NextString()
		if err != nil {
			return nil, err
		}
		out.SetString(s)
	case reflect.Bool:
		b, err := r.NextBoolean()
		if err != nil {
			return nil, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := r.NextInteger()
		if err != nil {
			return nil, err
		}
		if out.OverflowInt(i) {
			return nil, errors.New(op).Errorf("%d overflows %s at %s", i, a.rtype, r.Path())
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := r.NextUnsigned()
		if err != nil {
			return nil, err
		}
		if out.OverflowUint(u) {
			return nil, errors.New(op).Errorf("%d overflows %s at %s", u, a.rtype, r.Path())
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := r.NextDouble()
		if err != nil {
			return nil, err
		}
		if out.OverflowFloat(f) {
			return nil, errors.New(op).Errorf("%g overflows %s at %s", f, a.rtype, r.Path())
		}
		out.SetFloat(f)
	default:
		return nil, errors.New(op).Errorf("%s is not a scalar", a.rtype)
	}
	return out.Interface(), nil
}

func (a scalarAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.scalarAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	rv := reflect.Indirect(reflect.ValueOf(value))
	switch rv.Kind() {
	case reflect.String:
		return w.WriteString(rv.String())
	case reflect.Bool:
		return w.WriteBoolean(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return w.WriteInteger(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return w.WriteUnsigned(rv.Uint())
	case reflect.Float32:
		return w.WriteFloat(rv.Float(), 32)
	case reflect.Float64:
		return w.WriteFloat(rv.Float(), 64)
	}
	return errors.New(op).Errorf("cannot write %T as %s", value, a.rtype)
}

// BytesFactory encodes byte slices as base64 strings.
type BytesFactory struct{}

func (BytesFactory) Supports(t *typetoken.TypeToken) bool {
	rt := t.Type()
	return rt != nil && rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8
}

func (BytesFactory) Create(t *typetoken.TypeToken, _ *Provider) (TypeAdapter, error) {
	return bytesAdapter{rtype: t.Type()}, nil
}

type bytesAdapter struct {
	rtype reflect.Type
}

func (a bytesAdapter) Read(r jsonio.Reader) (any, error) {
	const op errors.Op = "typeadapter.bytesAdapter.Read"
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
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.New(op).Err(err).Msg("invalid base64 at " + r.Path())
	}
	return reflect.ValueOf(b).Convert(a.rtype).Interface(), nil
}

func (a bytesAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.bytesAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() != reflect.Uint8 {
		return errors.New(op).Errorf("cannot write %T as bytes", value)
	}
	return w.WriteString(base64.StdEncoding.EncodeToString(rv.Bytes()))
}
