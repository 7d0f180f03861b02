// Package constructor creates the instances the reflective adapter fills and
// the named objects that adapter tags refer to.
package constructor

import (
	"reflect"
	"sync"

	"github.com/Station-Manager/errors"
	"github.com/hyp3rd/ewrap"

	"github.com/Station-Manager/jsonadapters/internal/sentinel"
)

// ObjectConstructor returns a pointer to a new instance.
type ObjectConstructor interface {
	Construct() (reflect.Value, error)
}

// Defaulter is implemented by types that set their own defaults after a zero
// allocation.
type Defaulter interface {
	SetDefaults()
}

// Constructor selects how instances of a type are created: a registered
// creator, or a zero allocation followed by SetDefaults.
type Constructor struct {
	mu       sync.RWMutex
	creators map[reflect.Type]func() any
	named    map[string]func() any
}

func New() *Constructor {
	return &Constructor{
		creators: make(map[reflect.Type]func() any),
		named:    make(map[string]func() any),
	}
}

// RegisterCreator installs fn as the creator for t. fn may return a t or a *t.
func (c *Constructor) RegisterCreator(t reflect.Type, fn func() any) {
	c.mu.Lock()
	c.creators[t] = fn
	c.mu.Unlock()
}

// Register installs a typed creator for T.
func Register[T any](c *Constructor, fn func() T) {
	c.RegisterCreator(reflect.TypeFor[T](), func() any { return fn() })
}

// RegisterNamed makes an object available under name, for adapter tags.
func (c *Constructor) RegisterNamed(name string, fn func() any) {
	c.mu.Lock()
	c.named[name] = fn
	c.mu.Unlock()
}

// NewNamed builds the object registered under name.
func (c *Constructor) NewNamed(name string) (any, error) {
	c.mu.RLock()
	fn, ok := c.named[name]
	c.mu.RUnlock()
	if !ok {
		return nil, ewrap.Wrapf(sentinel.ErrUnknownName, "%q", name)
	}
	return fn(), nil
}

// Get returns the constructor for t.
func (c *Constructor) Get(t reflect.Type) ObjectConstructor {
	c.mu.RLock()
	fn, ok := c.creators[t]
	c.mu.RUnlock()
	if ok {
		return creatorConstructor{typ: t, fn: fn}
	}
	return zeroConstructor{typ: t}
}

type creatorConstructor struct {
	typ reflect.Type
	fn  func() any
}

func (cc creatorConstructor) Construct() (reflect.Value, error) {
	const op errors.Op = "constructor.creatorConstructor.Construct"
	v := reflect.ValueOf(cc.fn())
	switch {
	case !v.IsValid():
		return reflect.Value{}, errors.New(op).Errorf("creator for %s returned nil", cc.typ)
	case v.Type() == reflect.PointerTo(cc.typ):
		if v.IsNil() {
			return reflect.Value{}, errors.New(op).Errorf("creator for %s returned nil", cc.typ)
		}
		return v, nil
	case v.Type() == cc.typ:
		p := reflect.New(cc.typ)
		p.Elem().Set(v)
		return p, nil
	}
	return reflect.Value{}, errors.New(op).Errorf("creator for %s returned %s", cc.typ, v.Type())
}

type zeroConstructor struct {
	typ reflect.Type
}

func (zc zeroConstructor) Construct() (reflect.Value, error) {
	p := reflect.New(zc.typ)
	if d, ok := p.Interface().(Defaulter); ok {
		d.SetDefaults()
	}
	return p, nil
}
