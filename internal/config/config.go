// Package config loads ktextool settings from YAML, .env and KTEX_* variables.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/EchoTools/ktexTools/internal/errors"
	"github.com/EchoTools/ktexTools/pkg/mipmap"
)

// Mipmap policies for rebuild.
const (
	MipmapsAuto = "auto" // follow the sidecar, default on
	MipmapsOn   = "on"
	MipmapsOff  = "off"
)

// Config holds every tunable of the conversion pipeline.
type Config struct {
	Workers        int       `yaml:"workers"`
	Perceptual     bool      `yaml:"perceptual"`
	Mipmaps        string    `yaml:"mipmaps"`
	ExtractAllMips bool      `yaml:"extract_all_mips"`
	Filter         string    `yaml:"filter"`
	Backup         bool      `yaml:"backup"`
	OutputDir      string    `yaml:"output_dir"`
	Log            LogConfig `yaml:"log"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	Dir    string `yaml:"dir"`
	File   string `yaml:"file"`
}

// DefaultWorkers is the batch pool size when none is configured.
const DefaultWorkers = 4

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Workers:    DefaultWorkers,
		Perceptual: true,
		Mipmaps:    MipmapsAuto,
		Filter:     string(mipmap.DefaultFilter),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks every field and normalizes case.
func (c *Config) Validate() error {
	maxWorkers := 16 * runtime.NumCPU()
	if c.Workers < 1 || c.Workers > maxWorkers {
		return errors.New(errors.KindConfig, "validate",
			fmt.Sprintf("workers must be between 1 and %d, got %d", maxWorkers, c.Workers))
	}

	c.Mipmaps = strings.ToLower(strings.TrimSpace(c.Mipmaps))
	switch c.Mipmaps {
	case "":
		c.Mipmaps = MipmapsAuto
	case MipmapsAuto, MipmapsOn, MipmapsOff:
	default:
		return errors.New(errors.KindConfig, "validate",
			fmt.Sprintf("mipmaps must be auto, on or off, got %q", c.Mipmaps))
	}

	f, err := mipmap.ParseFilter(c.Filter)
	if err != nil {
		return errors.Wrap(errors.KindConfig, "validate", "invalid filter", err)
	}
	c.Filter = string(f)

	c.Log.Level = strings.ToLower(c.Log.Level)
	switch c.Log.Level {
	case "":
		c.Log.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.KindConfig, "validate",
			fmt.Sprintf("unknown log level %q", c.Log.Level))
	}

	c.Log.Format = strings.ToLower(c.Log.Format)
	switch c.Log.Format {
	case "":
		c.Log.Format = "text"
	case "text", "json":
	default:
		return errors.New(errors.KindConfig, "validate",
			fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	return nil
}

// MipmapOverride returns the rebuild override implied by Mipmaps; nil means
// follow the sidecar.
func (c *Config) MipmapOverride() *bool {
	var v bool
	switch c.Mipmaps {
	case MipmapsOn:
		v = true
	case MipmapsOff:
		v = false
	default:
		return nil
	}
	return &v
}

// ResampleFilter returns Filter as a mipmap.Filter.
func (c *Config) ResampleFilter() mipmap.Filter {
	f, err := mipmap.ParseFilter(c.Filter)
	if err != nil {
		return mipmap.DefaultFilter
	}
	return f
}
