package metadata

import (
	"reflect"

	"github.com/blang/semver/v4"
)

// Exclude removes a property or class in the flagged directions.
type Exclude struct {
	Serialize   bool
	Deserialize bool
}

// Applies reports whether the exclusion covers the direction.
func (e Exclude) Applies(serialize bool) bool {
	if serialize {
		return e.Serialize
	}
	return e.Deserialize
}

// Expose marks a property as visible in require-expose mode. On a class it is
// the default for properties without their own Expose.
type Expose struct {
	Serialize   bool
	Deserialize bool
}

func (e Expose) Applies(serialize bool) bool {
	if serialize {
		return e.Serialize
	}
	return e.Deserialize
}

// SerializedName overrides the naming strategy.
type SerializedName struct {
	Value string
}

// JSONAdapter names an object registered with the constructor that handles
// the property or class: a type adapter, a factory, a serializer or a
// deserializer.
type JSONAdapter struct {
	Name string
}

// VirtualProperty adds a serialize-only property computed by a method.
type VirtualProperty struct {
	Method string
	Name   string
}

// VirtualProperties lists the virtual properties of a class in tag order.
type VirtualProperties []VirtualProperty

// ExclusionCheck opts a property or class into dynamic exclusion when the
// excluder requires it.
type ExclusionCheck struct{}

// Since excludes the property when the configured version is lower.
type Since struct {
	Version semver.Version
}

// Until excludes the property when the configured version is equal or higher.
type Until struct {
	Version semver.Version
}

// Accessor names explicit getter and setter methods.
type Accessor struct {
	Get string
	Set string
}

// Format and Timezone become options of the property type.
type Format struct {
	Value string
}

type Timezone struct {
	Value string
}

// AnnotationSet holds at most one annotation per Go type.
type AnnotationSet struct {
	items map[reflect.Type]any
}

// NewAnnotationSet returns a set holding the given annotations.
func NewAnnotationSet(annotations ...any) *AnnotationSet {
	s := &AnnotationSet{items: make(map[reflect.Type]any, len(annotations))}
	for _, a := range annotations {
		s.Add(a)
	}
	return s
}

// Add stores an annotation, replacing one of the same type.
func (s *AnnotationSet) Add(a any) {
	if a == nil {
		return
	}
	if s.items == nil {
		s.items = make(map[reflect.Type]any)
	}
	s.items[reflect.TypeOf(a)] = a
}

func (s *AnnotationSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Get returns the annotation of type A.
func Get[A any](s *AnnotationSet) (A, bool) {
	var zero A
	if s == nil {
		return zero, false
	}
	v, ok := s.items[reflect.TypeFor[A]()]
	if !ok {
		return zero, false
	}
	return v.(A), true
}

// Has reports whether the set holds an annotation of type A.
func Has[A any](s *AnnotationSet) bool {
	_, ok := Get[A](s)
	return ok
}
