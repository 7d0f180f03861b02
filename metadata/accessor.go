package metadata

import (
	"reflect"

	"github.com/Station-Manager/errors"
	"github.com/hyp3rd/ewrap"

	"github.com/Station-Manager/jsonadapters/internal/sentinel"
)

var errorType = reflect.TypeFor[error]()

// GetterStrategy reads a property from an addressable struct value.
type GetterStrategy interface {
	Get(obj reflect.Value) (reflect.Value, error)
}

// SetterStrategy writes a property into an addressable struct value.
type SetterStrategy interface {
	Set(obj reflect.Value, value reflect.Value) error
}

// GetByField reads a field by index path. A nil embedded pointer on the path
// yields the zero value of the field.
type GetByField struct {
	Index []int
	Type  reflect.Type
}

func (g GetByField) Get(obj reflect.Value) (reflect.Value, error) {
	v, err := obj.FieldByIndexErr(g.Index)
	if err != nil {
		return reflect.Zero(g.Type), nil
	}
	return v, nil
}

// SetByField writes a field by index path, allocating nil embedded pointers.
type SetByField struct {
	Index []int
	Type  reflect.Type
}

func (s SetByField) Set(obj reflect.Value, value reflect.Value) error {
	const op errors.Op = "metadata.SetByField.Set"
	v := obj
	for i, x := range s.Index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return errors.New(op).Errorf("cannot allocate embedded %s", v.Type())
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	if !v.CanSet() {
		return errors.New(op).Errorf("field of type %s is not settable", s.Type)
	}
	assigned, err := Assign(s.Type, value)
	if err != nil {
		return err
	}
	v.Set(assigned)
	return nil
}

// GetByMethod calls a getter method. The method may return a second error value.
type GetByMethod struct {
	Method string
}

func (g GetByMethod) Get(obj reflect.Value) (reflect.Value, error) {
	const op errors.Op = "metadata.GetByMethod.Get"
	m := methodOf(obj, g.Method)
	if !m.IsValid() {
		return reflect.Value{}, ewrap.Wrapf(sentinel.ErrInvalidAccessor, "method %s not found on %s", g.Method, obj.Type())
	}
	out := m.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, errors.New(op).Err(out[1].Interface().(error))
	}
	return out[0], nil
}

// SetByMethod calls a setter method with one argument. The method may return an error.
type SetByMethod struct {
	Method string
}

func (s SetByMethod) Set(obj reflect.Value, value reflect.Value) error {
	const op errors.Op = "metadata.SetByMethod.Set"
	m := methodOf(obj, s.Method)
	if !m.IsValid() {
		return ewrap.Wrapf(sentinel.ErrInvalidAccessor, "method %s not found on %s", s.Method, obj.Type())
	}
	arg, err := Assign(m.Type().In(0), value)
	if err != nil {
		return err
	}
	out := m.Call([]reflect.Value{arg})
	if len(out) == 1 && !out[0].IsNil() {
		return errors.New(op).Err(out[0].Interface().(error))
	}
	return nil
}

func methodOf(obj reflect.Value, name string) reflect.Value {
	if obj.CanAddr() {
		if m := obj.Addr().MethodByName(name); m.IsValid() {
			return m
		}
	}
	return obj.MethodByName(name)
}

// getterMethod finds a method usable as a getter on *t and returns its value type.
func getterMethod(t reflect.Type, name string) (reflect.Type, bool) {
	m, ok := reflect.PointerTo(t).MethodByName(name)
	if !ok {
		return nil, false
	}
	mt := m.Type // receiver is the first input
	if mt.NumIn() != 1 {
		return nil, false
	}
	switch mt.NumOut() {
	case 1:
		return mt.Out(0), true
	case 2:
		if mt.Out(1) == errorType {
			return mt.Out(0), true
		}
	}
	return nil, false
}

// setterMethod finds a method usable as a setter on *t and returns its argument type.
func setterMethod(t reflect.Type, name string) (reflect.Type, bool) {
	m, ok := reflect.PointerTo(t).MethodByName(name)
	if !ok {
		return nil, false
	}
	mt := m.Type
	if mt.NumIn() != 2 {
		return nil, false
	}
	if mt.NumOut() == 0 || (mt.NumOut() == 1 && mt.Out(0) == errorType) {
		return mt.In(1), true
	}
	return nil, false
}

// Assign converts value for storage in a location of type dst. An invalid
// value yields the zero value; numeric kinds convert between each other.
func Assign(dst reflect.Type, value reflect.Value) (reflect.Value, error) {
	const op errors.Op = "metadata.Assign"
	if !value.IsValid() {
		return reflect.Zero(dst), nil
	}
	if value.Kind() == reflect.Interface && dst.Kind() != reflect.Interface {
		if value.IsNil() {
			return reflect.Zero(dst), nil
		}
		value = value.Elem()
	}
	vt := value.Type()
	if vt.AssignableTo(dst) {
		return value, nil
	}
	if convertible(vt, dst) && value.CanConvert(dst) {
		return value.Convert(dst), nil
	}
	if vt.Kind() == reflect.Pointer && !value.IsNil() && vt.Elem().AssignableTo(dst) {
		return value.Elem(), nil
	}
	if dst.Kind() == reflect.Pointer && vt.AssignableTo(dst.Elem()) {
		p := reflect.New(dst.Elem())
		p.Elem().Set(value)
		return p, nil
	}
	return reflect.Value{}, errors.New(op).Errorf("cannot assign %s to %s", vt, dst)
}

func convertible(src, dst reflect.Type) bool {
	sk, dk := src.Kind(), dst.Kind()
	switch {
	case isNumeric(sk) && isNumeric(dk):
		return true
	case sk == dk && sk != reflect.Struct:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) || k == reflect.Float32 || k == reflect.Float64 || k == reflect.Uintptr
}
