package jsonio

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/goccy/go-json"
)

type streamSource struct {
	dec *json.Decoder
}

// NewReader returns a Reader that tokenizes r.
func NewReader(ctx context.Context, r io.Reader) Reader {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return newReader(ctx, &streamSource{dec: dec})
}

// NewBytesReader returns a Reader over an in-memory document.
func NewBytesReader(ctx context.Context, data []byte) Reader {
	return NewReader(ctx, bytes.NewReader(data))
}

func (s *streamSource) next(expectName bool) (Token, any, error) {
	const op errors.Op = "jsonio.streamSource.next"
	t, err := s.dec.Token()
	if err == io.EOF {
		return EndDocument, nil, nil
	}
	if err != nil {
		return 0, nil, errors.New(op).Err(err)
	}
	switch v := t.(type) {
	case json.Delim:
		switch v {
		case '{':
			return BeginObject, nil, nil
		case '}':
			return EndObject, nil, nil
		case '[':
			return BeginArray, nil, nil
		default:
			return EndArray, nil, nil
		}
	case string:
		if expectName {
			return Name, v, nil
		}
		return String, v, nil
	case json.Number:
		// the decoder's number shares its read buffer
		return Number, json.Number(strings.Clone(string(v))), nil
	case bool:
		return Boolean, v, nil
	case nil:
		return Null, nil, nil
	default:
		return 0, nil, errors.New(op).Errorf("unsupported token %T", t)
	}
}
