package converters

import (
	"time"

	"github.com/Station-Manager/errors"
	"github.com/aarondl/null/v8"
)

// StringToDate parses YYYYMMDD or YYYY-MM-DD into a UTC time.Time.
func StringToDate(src any) (any, error) {
	const op errors.Op = "converters.StringToDate"
	srcVal, err := CheckString(op, src)
	if err != nil {
		return nil, err
	}

	var retVal time.Time
	switch {
	case len(srcVal) == 8:
		retVal, err = time.Parse("20060102", srcVal)
	case len(srcVal) == 10 && srcVal[4] == '-' && srcVal[7] == '-':
		retVal, err = time.Parse("2006-01-02", srcVal)
	default:
		return nil, errors.New(op).Msg(ErrMsgBadDateFormat)
	}
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(ErrMsgBadDateFormat)
	}
	return retVal, nil
}

// DateToString formats time.Time and null.Time values with layout. An
// invalid null.Time yields nil.
func DateToString(layout string) Func {
	return func(src any) (any, error) {
		const op errors.Op = "converters.DateToString"
		if nt, ok := src.(null.Time); ok {
			if !nt.Valid {
				return nil, nil
			}
			src = nt.Time
		}
		t, err := CheckTime(op, src)
		if err != nil {
			return nil, err
		}
		return t.Format(layout), nil
	}
}

// StringToTimeOfDay parses HHMM or HH:MM into a time on the zero date in UTC.
func StringToTimeOfDay(src any) (any, error) {
	const op errors.Op = "converters.StringToTimeOfDay"
	srcVal, err := CheckString(op, src)
	if err != nil {
		return nil, err
	}

	var parsed time.Time
	switch len(srcVal) {
	case 4:
		parsed, err = time.Parse("1504", srcVal)
	case 5:
		parsed, err = time.Parse("15:04", srcVal)
	default:
		return nil, errors.New(op).Msg(ErrMsgBadTimeFormat)
	}
	if err != nil {
		return nil, errors.New(op).Err(err).Msg(ErrMsgBadTimeFormat)
	}
	return time.Date(0, 1, 1, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC), nil
}

// TimeOfDayToString formats the clock part of a time.Time as HH:MM.
func TimeOfDayToString(src any) (any, error) {
	const op errors.Op = "converters.TimeOfDayToString"
	t, err := CheckTime(op, src)
	if err != nil {
		return nil, err
	}
	return t.Format("15:04"), nil
}
