// Package config reads the YAML configuration of the routing server.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of the configuration file.
type Config struct {
	Server  ServerOptions  `yaml:"server"`
	Graph   GraphOptions   `yaml:"graph"`
	Routing RoutingOptions `yaml:"routing"`
	Log     LogOptions     `yaml:"log"`
}

type ServerOptions struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read-timeout"`
	WriteTimeout   time.Duration `yaml:"write-timeout"`
	RequestTimeout time.Duration `yaml:"request-timeout"`
	MaxConcurrent  int           `yaml:"max-concurrent"`
	CORSOrigin     string        `yaml:"cors-origin"`
}

type GraphOptions struct {
	Dataset string `yaml:"dataset"`
}

type RoutingOptions struct {
	SnapThresholdMeters float64 `yaml:"snap-threshold-meters"`
	MaxSettled          int     `yaml:"max-settled"`
}

type LogOptions struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerOptions{
			Addr:           ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   5 * time.Second,
			RequestTimeout: 5 * time.Second,
			MaxConcurrent:  runtime.NumCPU() * 2,
		},
		Graph: GraphOptions{
			Dataset: "graph.json",
		},
		Routing: RoutingOptions{
			SnapThresholdMeters: 50,
		},
		Log: LogOptions{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file at path on top of Default. Keys missing from the file
// keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}
	if c.Server.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("server.max-concurrent %d < 1", c.Server.MaxConcurrent))
	}
	if c.Graph.Dataset == "" {
		errs = append(errs, errors.New("graph.dataset is empty"))
	}
	if c.Routing.SnapThresholdMeters < 0 {
		errs = append(errs, fmt.Errorf("routing.snap-threshold-meters %g < 0", c.Routing.SnapThresholdMeters))
	}
	if c.Routing.MaxSettled < 0 {
		errs = append(errs, fmt.Errorf("routing.max-settled %d < 0", c.Routing.MaxSettled))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
