// Package excluder decides which classes and properties take part in
// serialization and deserialization.
package excluder

import (
	"reflect"

	"github.com/Station-Manager/errors"
	"github.com/blang/semver/v4"
	"github.com/samber/lo"

	"github.com/Station-Manager/jsonadapters/metadata"
)

// Strategy is consulted once per class and property while metadata is built.
type Strategy interface {
	ShouldSkipClass(class *metadata.ClassMetadata) bool
	ShouldSkipProperty(property *metadata.Property) bool
}

// DynamicStrategy is consulted for every value.
type DynamicStrategy interface {
	ShouldSkipValue(property *metadata.Property, object any, serialize bool) bool
}

// DynamicStrategyFunc adapts a function to DynamicStrategy.
type DynamicStrategyFunc func(property *metadata.Property, object any, serialize bool) bool

func (f DynamicStrategyFunc) ShouldSkipValue(property *metadata.Property, object any, serialize bool) bool {
	return f(property, object, serialize)
}

// ExclusionChecker lets a value veto its own properties.
type ExclusionChecker interface {
	ShouldExclude(property string, serialize bool) bool
}

// Options configures an Excluder.
type Options struct {
	RequireExpose         bool
	RequireExclusionCheck bool
	Version               string
}

// Option mutates Options.
type Option func(*Options)

// WithRequireExpose excludes every property without an Expose annotation on
// itself or its class.
func WithRequireExpose(v bool) Option { return func(o *Options) { o.RequireExpose = v } }

// WithRequireExclusionCheck limits dynamic checks to properties and classes
// tagged with check.
func WithRequireExclusionCheck(v bool) Option {
	return func(o *Options) { o.RequireExclusionCheck = v }
}

// WithVersion enables since/until gating against v.
func WithVersion(v string) Option { return func(o *Options) { o.Version = v } }

type strategy struct {
	Strategy
	serialize   bool
	deserialize bool
}

// Excluder implements metadata.ExclusionDecider and the per-value checks.
// Strategies must be added before the excluder is shared.
type Excluder struct {
	options Options
	version *semver.Version
	static  []strategy
	dynamic []DynamicStrategy
}

// New returns an Excluder. An unparsable version is an error.
func New(opts ...Option) (*Excluder, error) {
	const op errors.Op = "excluder.New"
	e := &Excluder{}
	for _, opt := range opts {
		opt(&e.options)
	}
	if e.options.Version != "" {
		v, err := semver.ParseTolerant(e.options.Version)
		if err != nil {
			return nil, errors.New(op).Err(err).Msg("invalid version")
		}
		e.version = &v
	}
	return e, nil
}

// AddStrategy registers a static strategy for the flagged directions.
func (e *Excluder) AddStrategy(s Strategy, serialize, deserialize bool) {
	e.static = append(e.static, strategy{Strategy: s, serialize: serialize, deserialize: deserialize})
}

// AddDynamicStrategy registers a strategy consulted for every value.
func (e *Excluder) AddDynamicStrategy(s DynamicStrategy) {
	e.dynamic = append(e.dynamic, s)
}

func (e *Excluder) strategies(serialize bool) []strategy {
	return lo.Filter(e.static, func(s strategy, _ int) bool {
		if serialize {
			return s.serialize
		}
		return s.deserialize
	})
}

// ExcludeClass reports whether a whole class is skipped in a direction.
func (e *Excluder) ExcludeClass(class *metadata.ClassMetadata, serialize bool) bool {
	annotations := class.Annotations()
	if ex, ok := metadata.Get[metadata.Exclude](annotations); ok && ex.Applies(serialize) {
		return true
	}
	if e.outsideVersion(annotations) {
		return true
	}
	return lo.SomeBy(e.strategies(serialize), func(s strategy) bool {
		return s.ShouldSkipClass(class)
	})
}

// ExcludeProperty reports whether a property is skipped in a direction. Any
// source that excludes wins; in require-expose mode a property is visible
// only when it, or failing that its class, is exposed for the direction.
func (e *Excluder) ExcludeProperty(property *metadata.Property, serialize bool) bool {
	annotations := property.Annotations()
	if ex, ok := metadata.Get[metadata.Exclude](annotations); ok && ex.Applies(serialize) {
		return true
	}
	if e.outsideVersion(annotations) {
		return true
	}
	if e.options.RequireExpose {
		expose, ok := metadata.Get[metadata.Expose](annotations)
		if !ok {
			expose, ok = metadata.Get[metadata.Expose](property.ClassAnnotations())
		}
		if !ok || !expose.Applies(serialize) {
			return true
		}
	}
	return lo.SomeBy(e.strategies(serialize), func(s strategy) bool {
		return s.ShouldSkipProperty(property)
	})
}

func (e *Excluder) outsideVersion(annotations *metadata.AnnotationSet) bool {
	if e.version == nil {
		return false
	}
	if since, ok := metadata.Get[metadata.Since](annotations); ok && since.Version.GT(*e.version) {
		return true
	}
	if until, ok := metadata.Get[metadata.Until](annotations); ok && until.Version.LTE(*e.version) {
		return true
	}
	return false
}

var checkerType = reflect.TypeFor[ExclusionChecker]()

// ChecksValues reports whether per-value checks can exclude anything from
// instances of class.
func (e *Excluder) ChecksValues(class *metadata.ClassMetadata) bool {
	if len(e.dynamic) > 0 {
		return true
	}
	return reflect.PointerTo(class.Type()).Implements(checkerType)
}

// ExcludeByValue runs the per-value checks for a property of object.
func (e *Excluder) ExcludeByValue(property *metadata.Property, object any, serialize bool) bool {
	if e.options.RequireExclusionCheck &&
		!metadata.Has[metadata.ExclusionCheck](property.Annotations()) &&
		!metadata.Has[metadata.ExclusionCheck](property.ClassAnnotations()) {
		return false
	}
	if checker, ok := object.(ExclusionChecker); ok && checker.ShouldExclude(property.Name(), serialize) {
		return true
	}
	return lo.SomeBy(e.dynamic, func(s DynamicStrategy) bool {
		return s.ShouldSkipValue(property, object, serialize)
	})
}
