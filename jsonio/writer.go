package jsonio

import (
	"bytes"
	"context"
	"strconv"

	"github.com/Station-Manager/errors"
	"github.com/goccy/go-json"
)

// Writer emits a JSON document. Names are held until the value that follows
// them is written; when that value is null and SerializeNull is false, the
// pair is dropped.
type Writer interface {
	BeginArray() error
	EndArray() error
	BeginObject() error
	EndObject() error
	Name(name string) error
	WriteString(s string) error
	WriteInteger(i int64) error
	WriteUnsigned(u uint64) error
	WriteFloat(f float64, bitSize int) error
	WriteBoolean(b bool) error
	WriteNull() error
	// WriteRaw writes an already encoded JSON value.
	WriteRaw(raw []byte) error
	SerializeNull() bool
	Context() context.Context
}

type writeFrame struct {
	object bool
	count  int
}

// nesting holds the container and pending name state shared by writers.
type nesting struct {
	stack      []writeFrame
	pending    string
	hasPending bool
	rootDone   bool
}

func (n *nesting) begin(object bool) {
	n.stack = append(n.stack, writeFrame{object: object})
}

func (n *nesting) end(object bool, op errors.Op) error {
	if len(n.stack) == 0 || n.stack[len(n.stack)-1].object != object {
		return errors.New(op).Msg("no matching container is open")
	}
	if n.hasPending {
		return errors.New(op).Errorf("name %q has no value", n.pending)
	}
	n.stack = n.stack[:len(n.stack)-1]
	return nil
}

func (n *nesting) name(name string, op errors.Op) error {
	if len(n.stack) == 0 || !n.stack[len(n.stack)-1].object {
		return errors.New(op).Msg("names are only allowed inside objects")
	}
	if n.hasPending {
		return errors.New(op).Errorf("name %q has no value", n.pending)
	}
	n.pending, n.hasPending = name, true
	return nil
}

// placement describes where the next value goes.
type placement struct {
	name    string
	named   bool
	isFirst bool
}

func (n *nesting) place(op errors.Op) (placement, error) {
	if len(n.stack) == 0 {
		if n.rootDone {
			return placement{}, errors.New(op).Msg("document already has a root value")
		}
		n.rootDone = true
		return placement{isFirst: true}, nil
	}
	top := &n.stack[len(n.stack)-1]
	p := placement{isFirst: top.count == 0}
	if top.object {
		if !n.hasPending {
			return placement{}, errors.New(op).Msg("object values need a name")
		}
		p.name, p.named = n.pending, true
		n.pending, n.hasPending = "", false
	}
	top.count++
	return p, nil
}

// dropPendingNull reports whether a null under a pending name is dropped.
func (n *nesting) dropPendingNull(serializeNull bool) bool {
	if n.hasPending && !serializeNull {
		n.pending, n.hasPending = "", false
		return true
	}
	return false
}

func (n *nesting) complete() bool {
	return len(n.stack) == 0 && n.rootDone
}

// StreamWriter writes compact JSON into a buffer.
type StreamWriter struct {
	ctx           context.Context
	buf           bytes.Buffer
	serializeNull bool
	nesting
}

// NewWriter returns an empty StreamWriter.
func NewWriter(ctx context.Context, serializeNull bool) *StreamWriter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &StreamWriter{ctx: ctx, serializeNull: serializeNull}
}

func (w *StreamWriter) Context() context.Context { return w.ctx }

func (w *StreamWriter) SerializeNull() bool { return w.serializeNull }

func (w *StreamWriter) prefix(op errors.Op) error {
	p, err := w.place(op)
	if err != nil {
		return err
	}
	if !p.isFirst {
		w.buf.WriteByte(',')
	}
	if p.named {
		if err := w.appendString(p.name); err != nil {
			return err
		}
		w.buf.WriteByte(':')
	}
	return nil
}

func (w *StreamWriter) appendString(s string) error {
	const op errors.Op = "jsonio.StreamWriter.appendString"
	b, err := json.Marshal(s)
	if err != nil {
		return errors.New(op).Err(err)
	}
	w.buf.Write(b)
	return nil
}

func (w *StreamWriter) BeginArray() error {
	if err := w.prefix("jsonio.StreamWriter.BeginArray"); err != nil {
		return err
	}
	w.begin(false)
	w.buf.WriteByte('[')
	return nil
}

func (w *StreamWriter) EndArray() error {
	if err := w.end(false, "jsonio.StreamWriter.EndArray"); err != nil {
		return err
	}
	w.buf.WriteByte(']')
	return nil
}

func (w *StreamWriter) BeginObject() error {
	if err := w.prefix("jsonio.StreamWriter.BeginObject"); err != nil {
		return err
	}
	w.begin(true)
	w.buf.WriteByte('{')
	return nil
}

func (w *StreamWriter) EndObject() error {
	if err := w.end(true, "jsonio.StreamWriter.EndObject"); err != nil {
		return err
	}
	w.buf.WriteByte('}')
	return nil
}

func (w *StreamWriter) Name(name string) error {
	return w.name(name, "jsonio.StreamWriter.Name")
}

func (w *StreamWriter) WriteString(s string) error {
	if err := w.prefix("jsonio.StreamWriter.WriteString"); err != nil {
		return err
	}
	return w.appendString(s)
}

func (w *StreamWriter) WriteInteger(i int64) error {
	if err := w.prefix("jsonio.StreamWriter.WriteInteger"); err != nil {
		return err
	}
	w.buf.WriteString(strconv.FormatInt(i, 10))
	return nil
}

func (w *StreamWriter) WriteUnsigned(u uint64) error {
	if err := w.prefix("jsonio.StreamWriter.WriteUnsigned"); err != nil {
		return err
	}
	w.buf.WriteString(strconv.FormatUint(u, 10))
	return nil
}

func (w *StreamWriter) WriteFloat(f float64, bitSize int) error {
	const op errors.Op = "jsonio.StreamWriter.WriteFloat"
	var (
		b   []byte
		err error
	)
	if bitSize == 32 {
		b, err = json.Marshal(float32(f))
	} else {
		b, err = json.Marshal(f)
	}
	if err != nil {
		return errors.New(op).Err(err)
	}
	if err := w.prefix(op); err != nil {
		return err
	}
	w.buf.Write(b)
	return nil
}

func (w *StreamWriter) WriteBoolean(v bool) error {
	if err := w.prefix("jsonio.StreamWriter.WriteBoolean"); err != nil {
		return err
	}
	w.buf.WriteString(strconv.FormatBool(v))
	return nil
}

func (w *StreamWriter) WriteNull() error {
	if w.dropPendingNull(w.serializeNull) {
		return nil
	}
	if err := w.prefix("jsonio.StreamWriter.WriteNull"); err != nil {
		return err
	}
	w.buf.WriteString("null")
	return nil
}

func (w *StreamWriter) WriteRaw(raw []byte) error {
	const op errors.Op = "jsonio.StreamWriter.WriteRaw"
	if !json.Valid(raw) {
		return errors.New(op).Errorf("invalid JSON value %q", raw)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return w.WriteNull()
	}
	// Compact must not see w.buf: goccy copies the destination's contents
	// into its output.
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return errors.New(op).Err(err)
	}
	if err := w.prefix(op); err != nil {
		return err
	}
	w.buf.Write(compact.Bytes())
	return nil
}

// Bytes returns the document. It fails when containers are still open or
// nothing was written.
func (w *StreamWriter) Bytes() ([]byte, error) {
	const op errors.Op = "jsonio.StreamWriter.Bytes"
	if !w.complete() {
		return nil, errors.New(op).Msg("incomplete document")
	}
	return w.buf.Bytes(), nil
}
