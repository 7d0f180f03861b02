package jsonio

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/goccy/go-json"
	"github.com/hyp3rd/ewrap"

	"github.com/Station-Manager/jsonadapters/internal/sentinel"
)

// Reader is a pull parser over a JSON document.
type Reader interface {
	// Peek returns the kind of the next token without consuming it.
	Peek() (Token, error)
	BeginArray() error
	EndArray() error
	BeginObject() error
	EndObject() error
	// HasNext reports whether the current array or object has more elements.
	HasNext() (bool, error)
	NextName() (string, error)
	// NextString accepts strings and the text of numbers.
	NextString() (string, error)
	NextInteger() (int64, error)
	NextUnsigned() (uint64, error)
	NextDouble() (float64, error)
	NextNumber() (json.Number, error)
	NextBoolean() (bool, error)
	NextNull() error
	// SkipValue consumes the next value, including nested containers.
	SkipValue() error
	// Path returns the JSONPath of the current location, e.g. "$.items[2].name".
	Path() string
	Context() context.Context
}

// source produces raw tokens; the reader tracks nesting on top of it.
type source interface {
	next(expectName bool) (Token, any, error)
}

type frame struct {
	object     bool
	expectName bool
	name       string
	index      int
}

type reader struct {
	ctx    context.Context
	src    source
	peeked bool
	tok    Token
	val    any
	stack  []frame
}

func newReader(ctx context.Context, src source) *reader {
	if ctx == nil {
		ctx = context.Background()
	}
	return &reader{ctx: ctx, src: src}
}

func (r *reader) Context() context.Context { return r.ctx }

func (r *reader) Peek() (Token, error) {
	if r.peeked {
		return r.tok, nil
	}
	expectName := false
	if n := len(r.stack); n > 0 {
		top := r.stack[n-1]
		expectName = top.object && top.expectName
	}
	tok, val, err := r.src.next(expectName)
	if err != nil {
		return 0, err
	}
	r.tok, r.val, r.peeked = tok, val, true
	return tok, nil
}

// consume advances past the peeked token after checking its kind.
func (r *reader) consume(want ...Token) (Token, any, error) {
	tok, err := r.Peek()
	if err != nil {
		return 0, nil, err
	}
	ok := false
	for _, w := range want {
		if tok == w {
			ok = true
			break
		}
	}
	if !ok {
		return 0, nil, r.unexpected(tok, want...)
	}
	val := r.val
	r.peeked, r.val = false, nil

	switch tok {
	case BeginObject:
		r.stack = append(r.stack, frame{object: true, expectName: true})
	case BeginArray:
		r.stack = append(r.stack, frame{})
	case EndObject, EndArray:
		r.stack = r.stack[:len(r.stack)-1]
		r.valueDone()
	case Name:
		top := &r.stack[len(r.stack)-1]
		top.expectName = false
		top.name = val.(string)
	case EndDocument:
	default:
		r.valueDone()
	}
	return tok, val, nil
}

func (r *reader) valueDone() {
	if len(r.stack) == 0 {
		return
	}
	top := &r.stack[len(r.stack)-1]
	if top.object {
		top.expectName = true
	} else {
		top.index++
	}
}

func (r *reader) unexpected(found Token, want ...Token) error {
	names := make([]string, len(want))
	for i, w := range want {
		names[i] = w.String()
	}
	return ewrap.Wrapf(sentinel.ErrUnexpectedToken, "expected %s but found %s at %s",
		strings.Join(names, " or "), found, r.Path())
}

func (r *reader) BeginArray() error {
	_, _, err := r.consume(BeginArray)
	return err
}

func (r *reader) EndArray() error {
	_, _, err := r.consume(EndArray)
	return err
}

func (r *reader) BeginObject() error {
	_, _, err := r.consume(BeginObject)
	return err
}

func (r *reader) EndObject() error {
	_, _, err := r.consume(EndObject)
	return err
}

func (r *reader) HasNext() (bool, error) {
	tok, err := r.Peek()
	if err != nil {
		return false, err
	}
	return tok != EndArray && tok != EndObject && tok != EndDocument, nil
}

func (r *reader) NextName() (string, error) {
	_, v, err := r.consume(Name)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *reader) NextString() (string, error) {
	tok, v, err := r.consume(String, Number)
	if err != nil {
		return "", err
	}
	if tok == Number {
		return string(v.(json.Number)), nil
	}
	return v.(string), nil
}

func (r *reader) NextNumber() (json.Number, error) {
	_, v, err := r.consume(Number)
	if err != nil {
		return "", err
	}
	return v.(json.Number), nil
}

func (r *reader) NextInteger() (int64, error) {
	const op errors.Op = "jsonio.NextInteger"
	n, err := r.NextNumber()
	if err != nil {
		return 0, err
	}
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, errors.New(op).Errorf("%s is not an integer at %s", n, r.Path())
	}
	return int64(f), nil
}

func (r *reader) NextUnsigned() (uint64, error) {
	const op errors.Op = "jsonio.NextUnsigned"
	n, err := r.NextNumber()
	if err != nil {
		return 0, err
	}
	if u, err := strconv.ParseUint(string(n), 10, 64); err == nil {
		return u, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
		return 0, errors.New(op).Errorf("%s is not an unsigned integer at %s", n, r.Path())
	}
	return uint64(f), nil
}

func (r *reader) NextDouble() (float64, error) {
	const op errors.Op = "jsonio.NextDouble"
	n, err := r.NextNumber()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, errors.New(op).Err(err)
	}
	return f, nil
}

func (r *reader) NextBoolean() (bool, error) {
	_, v, err := r.consume(Boolean)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (r *reader) NextNull() error {
	_, _, err := r.consume(Null)
	return err
}

func (r *reader) SkipValue() error {
	tok, err := r.Peek()
	if err != nil {
		return err
	}
	if tok == Name {
		if _, _, err := r.consume(Name); err != nil {
			return err
		}
	}
	depth := 0
	for {
		tok, err := r.Peek()
		if err != nil {
			return err
		}
		switch tok {
		case BeginArray, BeginObject:
			depth++
		case EndArray, EndObject:
			depth--
			if depth < 0 {
				return r.unexpected(tok, String, Number, Boolean, Null, BeginArray, BeginObject)
			}
		case EndDocument:
			return r.unexpected(tok, String, Number, Boolean, Null, BeginArray, BeginObject)
		}
		if _, _, err := r.consume(tok); err != nil {
			return err
		}
		if depth == 0 {
			return nil
		}
	}
}

func (r *reader) Path() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, f := range r.stack {
		if f.object {
			if f.name != "" {
				b.WriteByte('.')
				b.WriteString(f.name)
			}
			continue
		}
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(f.index))
		b.WriteByte(']')
	}
	return b.String()
}
