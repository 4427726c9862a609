// Package config assembles runtime settings for the cadastre command from the
// environment, an optional .env file and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/signalsfoundry/cadastre/internal/logging"
	"github.com/signalsfoundry/cadastre/internal/observability"
)

// ErrMissingInput is returned by Validate when no plot file is configured.
var ErrMissingInput = errors.New("input plot file is required")

// Config holds every setting the command needs.
type Config struct {
	InputPath   string
	OutputPath  string
	GeoJSONPath string
	HTTPAddr    string

	Log     logging.Config
	Tracing observability.TracingConfig
}

// LoadDotEnv loads variables from the given .env files without overriding
// variables already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv loads .env from the working directory and reads CADASTRE_*,
// LOG_LEVEL and LOG_FORMAT.
func FromEnv() (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return fromEnviron(), nil
}

func fromEnviron() Config {
	cfg := Config{
		InputPath:   os.Getenv("CADASTRE_INPUT"),
		OutputPath:  os.Getenv("CADASTRE_OUTPUT"),
		GeoJSONPath: os.Getenv("CADASTRE_GEOJSON"),
		HTTPAddr:    os.Getenv("CADASTRE_HTTP_ADDR"),
		Log: logging.Config{
			Level:  strings.ToLower(os.Getenv("LOG_LEVEL")),
			Format: strings.ToLower(os.Getenv("LOG_FORMAT")),
		},
		Tracing: observability.TracingConfigFromEnv(),
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	return cfg
}

// BindFlags registers command-line flags whose defaults are the current
// values of cfg, so flags given on the command line win over the environment.
func (cfg *Config) BindFlags(flags *flag.FlagSet) {
	flags.StringVar(&cfg.InputPath, "in", cfg.InputPath, "plot file to load")
	flags.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "write the loaded plots back to this file")
	flags.StringVar(&cfg.GeoJSONPath, "geojson", cfg.GeoJSONPath, "export the loaded plots as a GeoJSON FeatureCollection")
	flags.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "serve /metrics and /plots.geojson on this address until interrupted")
	flags.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "log level: debug, info, warn or error")
	flags.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "log format: text or json")
	flags.BoolVar(&cfg.Tracing.Enabled, "tracing", cfg.Tracing.Enabled, "enable OpenTelemetry tracing")
	flags.StringVar(&cfg.Tracing.Exporter, "tracing-exporter", cfg.Tracing.Exporter, "tracing exporter: stdout or otlp")
}

// Validate reports configuration that cannot run.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return ErrMissingInput
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing sample ratio %v outside [0, 1]", cfg.Tracing.SampleRatio)
	}
	return nil
}
