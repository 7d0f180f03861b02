package converters

import (
	"math"
	"strconv"

	"github.com/Station-Manager/errors"
)

// ScaleToInt64 multiplies a decimal string or float64 by factor and rounds
// to an int64, e.g. a frequency in MHz to Hz with factor 1e6.
func ScaleToInt64(factor float64) Func {
	return func(src any) (any, error) {
		const op errors.Op = "converters.ScaleToInt64"
		var f float64
		switch v := src.(type) {
		case string:
			srcVal, err := CheckString(op, v)
			if err != nil {
				return nil, err
			}
			if f, err = strconv.ParseFloat(srcVal, 64); err != nil {
				return nil, errors.New(op).Err(err)
			}
		case float64:
			f = v
		default:
			return nil, errors.New(op).Errorf("Given parameter not a string or float64, got %T", src)
		}
		return int64(math.Round(f * factor)), nil
	}
}

// Int64ToDecimal divides an integer by factor and formats it with a fixed
// number of decimals, e.g. Hz to "14.320" MHz.
func Int64ToDecimal(factor float64, decimals int) Func {
	return func(src any) (any, error) {
		const op errors.Op = "converters.Int64ToDecimal"
		srcVal, err := CheckInt64(op, src)
		if err != nil {
			return nil, err
		}
		return strconv.FormatFloat(float64(srcVal)/factor, 'f', decimals, 64), nil
	}
}
