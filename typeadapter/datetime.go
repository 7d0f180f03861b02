package typeadapter

import (
	"reflect"
	"time"

	"github.com/Station-Manager/errors"

	"github.com/Station-Manager/jsonadapters/jsonio"
	"github.com/Station-Manager/jsonadapters/typetoken"
)

var timeType = reflect.TypeFor[time.Time]()

// DateTimeFactory handles time.Time as a formatted string. The format and
// timezone options of the token override the factory defaults.
type DateTimeFactory struct {
	format string
}

// NewDateTimeFactory returns a factory using layout when a token carries no
// format option. An empty layout selects time.RFC3339Nano.
func NewDateTimeFactory(layout string) *DateTimeFactory {
	if layout == "" {
		layout = time.RFC3339Nano
	}
	return &DateTimeFactory{format: layout}
}

func (f *DateTimeFactory) Supports(t *typetoken.TypeToken) bool {
	return t.Type() == timeType
}

func (f *DateTimeFactory) Create(t *typetoken.TypeToken, _ *Provider) (TypeAdapter, error) {
	const op errors.Op = "typeadapter.DateTimeFactory.Create"
	a := &dateTimeAdapter{format: f.format}
	if format := t.StringOption(typetoken.OptionFormat); format != "" {
		a.format = format
	}
	if tz := t.StringOption(typetoken.OptionTimezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, errors.New(op).Err(err).Msg("invalid timezone " + tz)
		}
		a.location = loc
	}
	return a, nil
}

type dateTimeAdapter struct {
	format   string
	location *time.Location
}

func (a *dateTimeAdapter) Read(r jsonio.Reader) (any, error) {
	const op errors.Op = "typeadapter.dateTimeAdapter.Read"
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
	loc := a.location
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(a.format, s, loc)
	if err != nil {
		return nil, errors.New(op).Err(err).Msg("invalid datetime at " + r.Path())
	}
	return t, nil
}

func (a *dateTimeAdapter) Write(w jsonio.Writer, value any) error {
	const op errors.Op = "typeadapter.dateTimeAdapter.Write"
	if isNil(value) {
		return w.WriteNull()
	}
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		t = *v
	default:
		return errors.New(op).Errorf("cannot write %T as a datetime", value)
	}
	if a.location != nil {
		t = t.In(a.location)
	}
	return w.WriteString(t.Format(a.format))
}
