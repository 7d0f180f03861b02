package jsonadapters

import "github.com/Station-Manager/jsonadapters/internal/sentinel"

// Errors returned by the engine. Compare with errors.Is.
var (
	ErrMalformedType               = sentinel.ErrMalformedType
	ErrUnsupportedType             = sentinel.ErrUnsupportedType
	ErrInvalidAdapterConfiguration = sentinel.ErrInvalidAdapterConfiguration
	ErrUnexpectedToken             = sentinel.ErrUnexpectedToken
	ErrUnknownName                 = sentinel.ErrUnknownName
	ErrInvalidAccessor             = sentinel.ErrInvalidAccessor
	ErrNilTarget                   = sentinel.ErrNilTarget
	ErrTargetNotPointer            = sentinel.ErrTargetNotPointer
)
