package converters

import (
	"math"
	"reflect"
	"time"

	"github.com/Station-Manager/errors"
	"github.com/goccy/go-json"
)

// CheckString returns src as a non-empty string.
func CheckString(op errors.Op, src any) (string, error) {
	srcVal, ok := src.(string)
	if !ok {
		return "", errors.New(op).Errorf("Given parameter not a string, got %T", src)
	}
	if srcVal == "" {
		return "", errors.New(op).Msg(ErrMsgEmptyValue)
	}
	return srcVal, nil
}

// CheckFloat64 returns src as a non-zero float64.
func CheckFloat64(op errors.Op, src any) (float64, error) {
	srcVal, ok := src.(float64)
	if !ok {
		return 0, errors.New(op).Errorf("Given parameter not a float64, got %T", src)
	}
	if srcVal == 0 {
		return 0, errors.New(op).Msg(ErrMsgEmptyValue)
	}
	return srcVal, nil
}

// CheckInt64 accepts any integer kind, json.Number, and float64 values
// without a fractional part, which is how wildcard JSON numbers arrive.
func CheckInt64(op errors.Op, src any) (int64, error) {
	switch v := src.(type) {
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return -1, errors.New(op).Errorf("Given float64 is not an integer, got %v", v)
		}
		return int64(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return -1, errors.New(op).Err(err)
		}
		return i, nil
	}

	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return -1, errors.New(op).Errorf("Given parameter overflows int64, got %d", rv.Uint())
		}
		return int64(rv.Uint()), nil
	}
	return -1, errors.New(op).Errorf("Given parameter not a int64, got %T", src)
}

// CheckTime returns src as a time.Time.
func CheckTime(op errors.Op, src any) (time.Time, error) {
	srcVal, ok := src.(time.Time)
	if !ok {
		return time.Time{}, errors.New(op).Errorf("Given parameter not a time.Time, got %T", src)
	}
	return srcVal, nil
}
