// Package config loads engine settings from a YAML or JSON file and
// JSONADAPTERS_ prefixed environment variables.
package config

import (
	"path/filepath"
	"strings"

	"github.com/Station-Manager/errors"
	"github.com/blang/semver/v4"
	"github.com/spf13/viper"

	"github.com/Station-Manager/jsonadapters/metadata"
)

// EnvPrefix prefixes every environment variable, e.g. JSONADAPTERS_VERSION.
const EnvPrefix = "JSONADAPTERS"

// Config holds the engine settings.
type Config struct {
	SerializeNull         bool   `mapstructure:"serialize_null"`
	RequireExpose         bool   `mapstructure:"require_expose"`
	RequireExclusionCheck bool   `mapstructure:"require_exclusion_check"`
	Version               string `mapstructure:"version"`
	DatetimeFormat        string `mapstructure:"datetime_format"`
	PropertyNaming        string `mapstructure:"property_naming"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{PropertyNaming: "snake"}
}

// Load reads path, or jsonadapters.{yaml,yml,json} in the working directory
// when path is empty, and applies environment overrides. A missing default
// file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	const op errors.Op = "config.Load"
	v := viper.New()

	def := Default()
	v.SetDefault("serialize_null", def.SerializeNull)
	v.SetDefault("require_expose", def.RequireExpose)
	v.SetDefault("require_exclusion_check", def.RequireExclusionCheck)
	v.SetDefault("version", def.Version)
	v.SetDefault("datetime_format", def.DatetimeFormat)
	v.SetDefault("property_naming", def.PropertyNaming)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			v.SetConfigType("yaml")
		case ".json":
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.New(op).Err(err).Msg("failed to read config file " + path)
		}
	} else {
		v.SetConfigName("jsonadapters")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.New(op).Err(err).Msg("failed to read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New(op).Err(err).Msg("failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the version and the property naming strategy.
func (c Config) Validate() error {
	const op errors.Op = "config.Config.Validate"
	if c.Version != "" {
		if _, err := semver.ParseTolerant(c.Version); err != nil {
			return errors.New(op).Err(err).Msg("invalid version " + c.Version)
		}
	}
	if _, err := metadata.NamingStrategyByName(c.PropertyNaming); err != nil {
		return errors.New(op).Err(err)
	}
	return nil
}
