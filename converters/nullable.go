package converters

import (
	"github.com/Station-Manager/errors"
	"github.com/aarondl/null/v8"
)

// StringToNullString maps "" to an invalid null.String.
func StringToNullString(src any) (any, error) {
	const op errors.Op = "converters.StringToNullString"
	if s, ok := src.(string); ok && s == "" {
		return null.String{}, nil
	}
	srcVal, err := CheckString(op, src)
	if err != nil {
		return null.String{}, err
	}
	return null.StringFrom(srcVal), nil
}

// NullStringToString maps an invalid null.String to "". Plain strings pass
// through.
func NullStringToString(src any) (any, error) {
	const op errors.Op = "converters.NullStringToString"
	if ns, ok := src.(null.String); ok {
		if !ns.Valid {
			return "", nil
		}
		return ns.String, nil
	}
	if s, ok := src.(string); ok {
		return s, nil
	}
	return "", errors.New(op).Errorf("Given parameter not a string or null.String, got %T", src)
}
