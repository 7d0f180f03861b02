package jsonio

import (
	"strconv"

	"github.com/goccy/go-json"
)

// Element is a node of an in-memory JSON tree: *Object, *Array, *Primitive or NullElement.
type Element interface {
	element()
}

// Member is a name/value pair of an Object.
type Member struct {
	Name  string
	Value Element
}

// Object keeps its members in insertion order.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

func (*Object) element() {}

// Add sets a member. An existing member keeps its position.
func (o *Object) Add(name string, value Element) *Object {
	if value == nil {
		value = NullElement{}
	}
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[name]; ok {
		o.members[i].Value = value
		return o
	}
	o.index[name] = len(o.members)
	o.members = append(o.members, Member{Name: name, Value: value})
	return o
}

func (o *Object) AddString(name, value string) *Object { return o.Add(name, NewString(value)) }

func (o *Object) AddInteger(name string, value int64) *Object {
	return o.Add(name, NewInteger(value))
}

func (o *Object) AddFloat(name string, value float64) *Object { return o.Add(name, NewFloat(value)) }

func (o *Object) AddBoolean(name string, value bool) *Object { return o.Add(name, NewBoolean(value)) }

// Get returns the member value.
func (o *Object) Get(name string) (Element, bool) {
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

func (o *Object) Has(name string) bool {
	_, ok := o.index[name]
	return ok
}

// Remove deletes a member and reports whether it existed.
func (o *Object) Remove(name string) bool {
	i, ok := o.index[name]
	if !ok {
		return false
	}
	o.members = append(o.members[:i], o.members[i+1:]...)
	delete(o.index, name)
	for j := i; j < len(o.members); j++ {
		o.index[o.members[j].Name] = j
	}
	return true
}

// Members returns the members in insertion order. The slice must not be modified.
func (o *Object) Members() []Member { return o.members }

func (o *Object) Len() int { return len(o.members) }

// Array is an ordered list of elements.
type Array struct {
	items []Element
}

func NewArray(items ...Element) *Array {
	a := &Array{}
	for _, it := range items {
		a.Add(it)
	}
	return a
}

func (*Array) element() {}

func (a *Array) Add(value Element) *Array {
	if value == nil {
		value = NullElement{}
	}
	a.items = append(a.items, value)
	return a
}

// Get returns the element at i, or nil when out of range.
func (a *Array) Get(i int) Element {
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Items returns the elements. The slice must not be modified.
func (a *Array) Items() []Element { return a.items }

func (a *Array) Len() int { return len(a.items) }

// Primitive holds a string, a number or a boolean.
type Primitive struct {
	value any // string, json.Number or bool
}

func NewString(s string) *Primitive { return &Primitive{value: s} }

func NewNumber(n json.Number) *Primitive { return &Primitive{value: n} }

func NewInteger(i int64) *Primitive {
	return &Primitive{value: json.Number(strconv.FormatInt(i, 10))}
}

func NewUnsigned(u uint64) *Primitive {
	return &Primitive{value: json.Number(strconv.FormatUint(u, 10))}
}

func NewFloat(f float64) *Primitive {
	return &Primitive{value: json.Number(strconv.FormatFloat(f, 'g', -1, 64))}
}

func NewBoolean(b bool) *Primitive { return &Primitive{value: b} }

func (*Primitive) element() {}

func (p *Primitive) IsString() bool {
	_, ok := p.value.(string)
	return ok
}

func (p *Primitive) IsNumber() bool {
	_, ok := p.value.(json.Number)
	return ok
}

func (p *Primitive) IsBoolean() bool {
	_, ok := p.value.(bool)
	return ok
}

// Value returns the underlying string, json.Number or bool.
func (p *Primitive) Value() any { return p.value }

// String returns strings as is and the text of numbers and booleans.
func (p *Primitive) String() string {
	switch v := p.value.(type) {
	case string:
		return v
	case json.Number:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

func (p *Primitive) Int64() (int64, error) {
	return strconv.ParseInt(p.String(), 10, 64)
}

func (p *Primitive) Float64() (float64, error) {
	return strconv.ParseFloat(p.String(), 64)
}

func (p *Primitive) Bool() bool {
	b, _ := p.value.(bool)
	return b
}

// NullElement is the JSON null literal.
type NullElement struct{}

func (NullElement) element() {}

// IsNull reports whether e is nil or the null literal.
func IsNull(e Element) bool {
	switch e.(type) {
	case nil, NullElement, *NullElement:
		return true
	}
	return false
}
