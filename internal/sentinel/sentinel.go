// Package sentinel holds the error values shared by every jsonadapters
// package. Callers compare against them with errors.Is; the public copies
// live in the root package.
package sentinel

import (
	"github.com/hyp3rd/ewrap"
)

var (
	// ErrMalformedType is returned when a type descriptor has unbalanced or
	// misplaced angle brackets, an empty name, or an empty generic parameter.
	ErrMalformedType = ewrap.New("malformed type")

	// ErrUnsupportedType is returned when no factory in the chain accepts a
	// type descriptor.
	ErrUnsupportedType = ewrap.New("unsupported type")

	// ErrInvalidAdapterConfiguration is returned when an adapter named by a
	// tag is neither a type adapter, a factory, a serializer nor a deserializer.
	ErrInvalidAdapterConfiguration = ewrap.New("invalid adapter configuration")

	// ErrUnexpectedToken is returned when the reader is positioned on a token
	// the caller cannot accept.
	ErrUnexpectedToken = ewrap.New("unexpected token")

	// ErrUnknownName is returned when a named object is not registered with
	// the constructor.
	ErrUnknownName = ewrap.New("unknown name")

	// ErrInvalidAccessor is returned when a getter or setter method named by a
	// tag does not exist or has the wrong signature.
	ErrInvalidAccessor = ewrap.New("invalid accessor")

	// ErrNilTarget is returned when a decode target is nil.
	ErrNilTarget = ewrap.New("nil target")

	// ErrTargetNotPointer is returned when a decode target is not a pointer.
	ErrTargetNotPointer = ewrap.New("target is not a pointer")
)
