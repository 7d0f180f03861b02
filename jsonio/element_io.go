package jsonio

import (
	"context"

	"github.com/Station-Manager/errors"
	"github.com/goccy/go-json"
)

type elementToken struct {
	tok Token
	val any
}

type elementSource struct {
	tokens []elementToken
	pos    int
}

// NewElementReader returns a Reader that walks an element tree.
func NewElementReader(ctx context.Context, e Element) Reader {
	src := &elementSource{}
	src.flatten(e)
	return newReader(ctx, src)
}

func (s *elementSource) flatten(e Element) {
	switch v := e.(type) {
	case *Object:
		s.tokens = append(s.tokens, elementToken{tok: BeginObject})
		for _, m := range v.members {
			s.tokens = append(s.tokens, elementToken{tok: Name, val: m.Name})
			s.flatten(m.Value)
		}
		s.tokens = append(s.tokens, elementToken{tok: EndObject})
	case *Array:
		s.tokens = append(s.tokens, elementToken{tok: BeginArray})
		for _, it := range v.items {
			s.flatten(it)
		}
		s.tokens = append(s.tokens, elementToken{tok: EndArray})
	case *Primitive:
		switch pv := v.value.(type) {
		case string:
			s.tokens = append(s.tokens, elementToken{tok: String, val: pv})
		case json.Number:
			s.tokens = append(s.tokens, elementToken{tok: Number, val: pv})
		case bool:
			s.tokens = append(s.tokens, elementToken{tok: Boolean, val: pv})
		}
	default:
		s.tokens = append(s.tokens, elementToken{tok: Null})
	}
}

func (s *elementSource) next(bool) (Token, any, error) {
	if s.pos >= len(s.tokens) {
		return EndDocument, nil, nil
	}
	t := s.tokens[s.pos]
	s.pos++
	return t.tok, t.val, nil
}

// ReadElement reads the next value of r as an element tree.
func ReadElement(r Reader) (Element, error) {
	const op errors.Op = "jsonio.ReadElement"
	tok, err := r.Peek()
	if err != nil {
		return nil, err
	}
	switch tok {
	case BeginObject:
		if err := r.BeginObject(); err != nil {
			return nil, err
		}
		obj := NewObject()
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
			v, err := ReadElement(r)
			if err != nil {
				return nil, err
			}
			obj.Add(name, v)
		}
		return obj, r.EndObject()
	case BeginArray:
		if err := r.BeginArray(); err != nil {
			return nil, err
		}
		arr := NewArray()
		for {
			more, err := r.HasNext()
			if err != nil {
				return nil, err
			}
			if !more {
				break
			}
			v, err := ReadElement(r)
			if err != nil {
				return nil, err
			}
			arr.Add(v)
		}
		return arr, r.EndArray()
	case String:
		s, err := r.NextString()
		return NewString(s), err
	case Number:
		n, err := r.NextNumber()
		return NewNumber(n), err
	case Boolean:
		b, err := r.NextBoolean()
		return NewBoolean(b), err
	case Null:
		return NullElement{}, r.NextNull()
	default:
		return nil, errors.New(op).Errorf("cannot read a value at %s token %s", r.Path(), tok)
	}
}

// WriteElement writes e to w.
func WriteElement(w Writer, e Element) error {
	switch v := e.(type) {
	case *Object:
		if err := w.BeginObject(); err != nil {
			return err
		}
		for _, m := range v.members {
			if err := w.Name(m.Name); err != nil {
				return err
			}
			if err := WriteElement(w, m.Value); err != nil {
				return err
			}
		}
		return w.EndObject()
	case *Array:
		if err := w.BeginArray(); err != nil {
			return err
		}
		for _, it := range v.items {
			if err := WriteElement(w, it); err != nil {
				return err
			}
		}
		return w.EndArray()
	case *Primitive:
		switch pv := v.value.(type) {
		case string:
			return w.WriteString(pv)
		case json.Number:
			return w.WriteRaw([]byte(pv))
		case bool:
			return w.WriteBoolean(pv)
		}
	}
	return w.WriteNull()
}

// Marshal encodes an element tree. Null members are kept.
func Marshal(e Element) ([]byte, error) {
	w := NewWriter(context.Background(), true)
	if err := WriteElement(w, e); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// Unmarshal decodes a document into an element tree.
func Unmarshal(data []byte) (Element, error) {
	return ReadElement(NewBytesReader(context.Background(), data))
}

// ElementWriter builds an element tree.
type ElementWriter struct {
	ctx           context.Context
	serializeNull bool
	containers    []Element
	root          Element
	nesting
}

// NewElementWriter returns an empty ElementWriter.
func NewElementWriter(ctx context.Context, serializeNull bool) *ElementWriter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ElementWriter{ctx: ctx, serializeNull: serializeNull}
}

func (w *ElementWriter) Context() context.Context { return w.ctx }

func (w *ElementWriter) SerializeNull() bool { return w.serializeNull }

func (w *ElementWriter) add(e Element, op errors.Op) error {
	p, err := w.place(op)
	if err != nil {
		return err
	}
	if len(w.containers) == 0 {
		w.root = e
		return nil
	}
	switch parent := w.containers[len(w.containers)-1].(type) {
	case *Object:
		parent.Add(p.name, e)
	case *Array:
		parent.Add(e)
	}
	return nil
}

func (w *ElementWriter) BeginArray() error {
	a := NewArray()
	if err := w.add(a, "jsonio.ElementWriter.BeginArray"); err != nil {
		return err
	}
	w.begin(false)
	w.containers = append(w.containers, a)
	return nil
}

func (w *ElementWriter) EndArray() error {
	if err := w.end(false, "jsonio.ElementWriter.EndArray"); err != nil {
		return err
	}
	w.containers = w.containers[:len(w.containers)-1]
	return nil
}

func (w *ElementWriter) BeginObject() error {
	o := NewObject()
	if err := w.add(o, "jsonio.ElementWriter.BeginObject"); err != nil {
		return err
	}
	w.begin(true)
	w.containers = append(w.containers, o)
	return nil
}

func (w *ElementWriter) EndObject() error {
	if err := w.end(true, "jsonio.ElementWriter.EndObject"); err != nil {
		return err
	}
	w.containers = w.containers[:len(w.containers)-1]
	return nil
}

func (w *ElementWriter) Name(name string) error {
	return w.name(name, "jsonio.ElementWriter.Name")
}

func (w *ElementWriter) WriteString(s string) error {
	return w.add(NewString(s), "jsonio.ElementWriter.WriteString")
}

func (w *ElementWriter) WriteInteger(i int64) error {
	return w.add(NewInteger(i), "jsonio.ElementWriter.WriteInteger")
}

func (w *ElementWriter) WriteUnsigned(u uint64) error {
	return w.add(NewUnsigned(u), "jsonio.ElementWriter.WriteUnsigned")
}

func (w *ElementWriter) WriteFloat(f float64, bitSize int) error {
	const op errors.Op = "jsonio.ElementWriter.WriteFloat"
	b, err := json.Marshal(f)
	if bitSize == 32 {
		b, err = json.Marshal(float32(f))
	}
	if err != nil {
		return errors.New(op).Err(err)
	}
	return w.add(NewNumber(json.Number(b)), op)
}

func (w *ElementWriter) WriteBoolean(b bool) error {
	return w.add(NewBoolean(b), "jsonio.ElementWriter.WriteBoolean")
}

func (w *ElementWriter) WriteNull() error {
	if w.dropPendingNull(w.serializeNull) {
		return nil
	}
	return w.add(NullElement{}, "jsonio.ElementWriter.WriteNull")
}

func (w *ElementWriter) WriteRaw(raw []byte) error {
	e, err := Unmarshal(raw)
	if err != nil {
		return err
	}
	if IsNull(e) {
		return w.WriteNull()
	}
	return w.add(e, "jsonio.ElementWriter.WriteRaw")
}

// Element returns the tree built so far, or nil when nothing was written.
func (w *ElementWriter) Element() Element { return w.root }
