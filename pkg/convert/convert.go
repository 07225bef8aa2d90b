// Package convert runs file-level KTEX conversions: extract to PNG, rebuild
// from images, DDS export and parallel batches of each.
package convert

import (
	"log/slog"
	"runtime"

	"github.com/EchoTools/ktexTools/internal/config"
	"github.com/EchoTools/ktexTools/internal/logging"
	"github.com/EchoTools/ktexTools/pkg/dxt"
	"github.com/EchoTools/ktexTools/pkg/mipmap"
)

// Converter holds conversion settings. It is safe for concurrent use.
type Converter struct {
	workers   int
	logger    *slog.Logger
	encoder   *dxt.Encoder
	filter    mipmap.Filter
	mipmaps   *bool
	allLevels bool
	backup    bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithWorkers bounds batch parallelism. Values below 1 select 1.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		c.workers = max(n, 1)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEncoder sets the block encoder used by rebuilds.
func WithEncoder(e *dxt.Encoder) Option {
	return func(c *Converter) {
		if e != nil {
			c.encoder = e
		}
	}
}

// WithPerceptual selects perceptual or uniform color weighting.
func WithPerceptual(enabled bool) Option {
	return func(c *Converter) {
		c.encoder = dxt.NewEncoder(dxt.WithPerceptual(enabled))
	}
}

// WithFilter sets the mip resampling filter.
func WithFilter(f mipmap.Filter) Option {
	return func(c *Converter) {
		c.filter = f
	}
}

// WithMipmaps forces mipmap generation on or off. nil follows the sidecar.
func WithMipmaps(enabled *bool) Option {
	return func(c *Converter) {
		c.mipmaps = enabled
	}
}

// WithAllLevels writes every stored mip level on extract.
func WithAllLevels(enabled bool) Option {
	return func(c *Converter) {
		c.allLevels = enabled
	}
}

// WithBackup archives existing outputs before they are overwritten.
func WithBackup(enabled bool) Option {
	return func(c *Converter) {
		c.backup = enabled
	}
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		workers: min(config.DefaultWorkers, runtime.NumCPU()),
		logger:  logging.Discard(),
		encoder: dxt.NewEncoder(),
		filter:  mipmap.DefaultFilter,
	}
	c.workers = max(c.workers, 1)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OptionsFromConfig maps a loaded configuration onto converter options.
func OptionsFromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkers(cfg.Workers),
		WithPerceptual(cfg.Perceptual),
		WithFilter(cfg.ResampleFilter()),
		WithMipmaps(cfg.MipmapOverride()),
		WithAllLevels(cfg.ExtractAllMips),
		WithBackup(cfg.Backup),
	}
}

// Workers returns the batch parallelism.
func (c *Converter) Workers() int {
	return c.workers
}
