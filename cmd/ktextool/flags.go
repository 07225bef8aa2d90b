package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/EchoTools/ktexTools/internal/config"
	"github.com/EchoTools/ktexTools/internal/logging"
	"github.com/EchoTools/ktexTools/pkg/convert"
)

// options holds every command-line flag. Each command registers the subset
// it understands; only flags set explicitly override the loaded config.
type options struct {
	configPath string
	envFile    string
	workers    int
	filter     string
	perceptual bool
	backup     bool
	logLevel   string
	logFormat  string
	logFile    string

	mipmaps   bool
	noMipmaps bool
	allMips   bool
	outDir    string
	original  string
	jsonOut   bool
}

func newFlagSet(name, usage string) (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&o.envFile, "env", "", "Load variables from this .env file")
	fs.StringVar(&o.filter, "filter", "", "Mipmap resampling filter (box, linear, lanczos, catmullrom, mitchell, nearest)")
	fs.BoolVar(&o.perceptual, "perceptual", true, "Use perceptual color weights when encoding")
	fs.BoolVar(&o.backup, "backup", false, "Back up existing outputs before overwriting")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", "", "Log format (text, json)")
	fs.StringVar(&o.logFile, "log-file", "", "Also write JSON logs to this file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ktextool %s\n\nFlags:\n", usage)
		fs.PrintDefaults()
	}
	return fs, o
}

func (o *options) rebuildFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.original, "original", "", "Original container supplying header and metadata when no sidecar exists")
	fs.BoolVar(&o.mipmaps, "mipmaps", false, "Force mipmap generation")
	fs.BoolVar(&o.noMipmaps, "no-mipmaps", false, "Disable mipmap generation")
}

func (o *options) batchFlags(fs *flag.FlagSet) {
	fs.IntVar(&o.workers, "workers", 0, "Number of files converted in parallel")
	fs.StringVar(&o.outDir, "out", "", "Output directory (default: next to each input)")
}

// apply copies explicitly set flags onto cfg and revalidates it.
func (o *options) apply(fs *flag.FlagSet, cfg *config.Config) error {
	if o.mipmaps && o.noMipmaps {
		return fmt.Errorf("-mipmaps and -no-mipmaps are mutually exclusive")
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = o.workers
		case "filter":
			cfg.Filter = o.filter
		case "perceptual":
			cfg.Perceptual = o.perceptual
		case "backup":
			cfg.Backup = o.backup
		case "log-level":
			cfg.Log.Level = o.logLevel
		case "log-format":
			cfg.Log.Format = o.logFormat
		case "log-file":
			cfg.Log.File = o.logFile
		case "mipmaps":
			if o.mipmaps {
				cfg.Mipmaps = config.MipmapsOn
			}
		case "no-mipmaps":
			if o.noMipmaps {
				cfg.Mipmaps = config.MipmapsOff
			}
		case "all-mips":
			cfg.ExtractAllMips = o.allMips
		case "out":
			cfg.OutputDir = o.outDir
		}
	})
	return cfg.Validate()
}

// env bundles what every command needs after flag parsing.
type env struct {
	cfg    *config.Config
	log    *logging.Logger
	conv   *convert.Converter
	output string
}

// setup parses args, loads configuration and builds the converter.
func setup(fs *flag.FlagSet, o *options, args []string) (*env, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	loader := config.NewLoader()
	if o.configPath != "" {
		loader = loader.WithPath(o.configPath)
	}
	if o.envFile != "" {
		loader = loader.WithDotEnvFile(o.envFile)
	}
	res, err := loader.Load()
	if err != nil {
		return nil, err
	}
	cfg := res.Config
	if err := o.apply(fs, cfg); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	if res.Path != "" {
		log.Debug("loaded config", "path", res.Path)
	}

	opts := append(convert.OptionsFromConfig(cfg), convert.WithLogger(log.Logger))
	return &env{
		cfg:    cfg,
		log:    log,
		conv:   convert.New(opts...),
		output: cfg.OutputDir,
	}, nil
}

func (e *env) close() {
	if err := e.log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: close log: %v\n", err)
	}
}
