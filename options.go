package jsonadapters

import (
	"go.uber.org/zap"

	"github.com/Station-Manager/jsonadapters/config"
	"github.com/Station-Manager/jsonadapters/metadata"
)

// Options configures an Engine.
type Options struct {
	SerializeNull         bool                            // when true, nil properties are written as null instead of omitted
	RequireExpose         bool                            // when true, only properties tagged expose are mapped
	RequireExclusionCheck bool                            // when true, per-value checks run only for properties or classes tagged check
	Version               string                          // semantic version compared against since/until tags; empty disables gating
	DatetimeFormat        string                          // time.Time layout used when a property has no format tag
	PropertyNaming        metadata.PropertyNamingStrategy // maps Go field names to JSON names
	MethodNaming          metadata.MethodNamingStrategy   // proposes getter and setter method names
	Logger                *zap.Logger
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		PropertyNaming: metadata.SnakeCase,
		MethodNaming:   metadata.UpperCaseMethods{},
		Logger:         zap.NewNop(),
	}
}

// WithSerializeNull writes nil properties as null instead of omitting them.
func WithSerializeNull(v bool) Option { return func(o *Options) { o.SerializeNull = v } }

// WithRequireExpose maps only properties tagged expose.
func WithRequireExpose(v bool) Option { return func(o *Options) { o.RequireExpose = v } }

// WithRequireExclusionCheck limits per-value checks to properties or classes
// tagged check.
func WithRequireExclusionCheck(v bool) Option {
	return func(o *Options) { o.RequireExclusionCheck = v }
}

// WithVersion enables since/until gating against v.
func WithVersion(v string) Option { return func(o *Options) { o.Version = v } }

// WithDatetimeFormat sets the default time.Time layout.
func WithDatetimeFormat(v string) Option { return func(o *Options) { o.DatetimeFormat = v } }

func WithPropertyNaming(s metadata.PropertyNamingStrategy) Option {
	return func(o *Options) {
		if s != nil {
			o.PropertyNaming = s
		}
	}
}

func WithMethodNaming(s metadata.MethodNamingStrategy) Option {
	return func(o *Options) {
		if s != nil {
			o.MethodNaming = s
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// OptionsFromConfig translates loaded settings into options.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	naming, err := metadata.NamingStrategyByName(cfg.PropertyNaming)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithSerializeNull(cfg.SerializeNull),
		WithRequireExpose(cfg.RequireExpose),
		WithRequireExclusionCheck(cfg.RequireExclusionCheck),
		WithVersion(cfg.Version),
		WithDatetimeFormat(cfg.DatetimeFormat),
		WithPropertyNaming(naming),
	}, nil
}
