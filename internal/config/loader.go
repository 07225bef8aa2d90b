package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/EchoTools/ktexTools/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KTEX_"

// SearchPaths are tried in order when no explicit config path is given.
var SearchPaths = []string{"ktextool.yaml", ".ktextool.yaml"}

// Loader layers defaults, a YAML file, a .env file and the environment.
type Loader struct {
	useDotEnv  bool
	dotEnvPath string
	path       string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a loader that reads .env and the process environment.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithDotEnvFile loads variables from path instead of ./.env.
func (l *Loader) WithDotEnvFile(path string) *Loader {
	l.dotEnvPath = path
	return l
}

// WithPath sets an explicit YAML file. A missing explicit file is an error.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithEnv overrides environment lookup (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		var err error
		if l.dotEnvPath != "" {
			err = godotenv.Load(l.dotEnvPath)
		} else {
			err = godotenv.Load()
		}
		if err != nil && l.dotEnvPath != "" {
			return nil, errors.Wrap(errors.KindConfig, "load", "failed to read env file", err)
		}
	}

	cfg := Default()

	path, err := l.resolvePath()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.KindConfig, "load", "failed to read config", err).WithPath(path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "load", "failed to parse config", err).WithPath(path)
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) resolvePath() (string, error) {
	if l.path != "" {
		if _, err := os.Stat(l.path); err != nil {
			return "", errors.Wrap(errors.KindConfig, "load", "config file not found", err).WithPath(l.path)
		}
		return l.path, nil
	}
	if p, ok := l.lookupEnv(EnvPrefix + "CONFIG"); ok && p != "" {
		return p, nil
	}
	for _, p := range SearchPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

func (l *Loader) applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := l.lookupEnv(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := l.lookupEnv(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.KindConfig, "env", fmt.Sprintf("invalid %s%s", EnvPrefix, key), err)
		}
		*dst = b
		return nil
	}

	if v, ok := l.lookupEnv(EnvPrefix + "WORKERS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.KindConfig, "env", "invalid "+EnvPrefix+"WORKERS", err)
		}
		cfg.Workers = n
	}
	if err := boolean("PERCEPTUAL", &cfg.Perceptual); err != nil {
		return err
	}
	if err := boolean("ALL_MIPS", &cfg.ExtractAllMips); err != nil {
		return err
	}
	if err := boolean("BACKUP", &cfg.Backup); err != nil {
		return err
	}
	str("MIPMAPS", &cfg.Mipmaps)
	str("FILTER", &cfg.Filter)
	str("OUTPUT_DIR", &cfg.OutputDir)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_DIR", &cfg.Log.Dir)
	str("LOG_FILE", &cfg.Log.File)
	return nil
}
