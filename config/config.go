// Package config loads bridge host settings from a YAML file, then
// applies BRIDGE_* environment overrides.
package config

import (
	"io"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	scriptbridge "github.com/wippyai/script-bridge"
	"github.com/wippyai/script-bridge/errors"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "BRIDGE_"

// Config holds bridge host settings.
type Config struct {
	Image            string    `yaml:"image" env:"IMAGE"`
	Support          string    `yaml:"support" env:"SUPPORT"`
	Editor           bool      `yaml:"editor" env:"EDITOR"`
	Frames           int       `yaml:"frames" env:"FRAMES"`
	Delta            float32   `yaml:"delta" env:"DELTA"`
	MemoryLimitPages uint32    `yaml:"memory_limit_pages" env:"MEMORY_LIMIT_PAGES"`
	Log              Log       `yaml:"log" envPrefix:"LOG_"`
	Telemetry        Telemetry `yaml:"telemetry" envPrefix:"OTEL_"`
	Spawn            []Spawn   `yaml:"spawn"`
}

// Log selects the zap configuration.
type Log struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // console or json
}

// Telemetry enables OTLP trace export when Endpoint is set.
type Telemetry struct {
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
	Insecure bool   `yaml:"insecure" env:"INSECURE"`
	Service  string `yaml:"service" env:"SERVICE"`
}

// Vec is a YAML-friendly vector: [x, y, z].
type Vec [3]float32

func (v Vec) Vector() scriptbridge.Vector {
	return scriptbridge.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Spawn is one object created after every load.
type Spawn struct {
	Type     string `yaml:"type"`
	Position Vec    `yaml:"position"`
	Rotation Vec    `yaml:"rotation"`
	Scale    *Vec   `yaml:"scale"`
}

// Transform returns the spawn transform. An omitted scale is (1, 1, 1).
func (s Spawn) Transform() scriptbridge.Transform {
	t := scriptbridge.IdentityTransform()
	t.Position = s.Position.Vector()
	t.Rotation = s.Rotation.Vector()
	if s.Scale != nil {
		t.Scale = s.Scale.Vector()
	}
	return t
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Frames: 1,
		Delta:  1.0 / 60,
		Log:    Log{Level: "info", Format: "console"},
		Telemetry: Telemetry{
			Service: "script-bridge",
		},
	}
}

// Load reads path (when not empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "open config "+path)
		}
		defer f.Close()
		if err := cfg.decode(f); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults without environment
// overrides.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode config")
	}
	return nil
}

// Validate rejects settings the host cannot run with.
func (c *Config) Validate() error {
	if c.Frames < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "frames cannot be negative")
	}
	if c.Delta < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "delta cannot be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.InvalidInput(errors.PhaseConfig, "log format must be console or json, got "+c.Log.Format)
	}
	for i, s := range c.Spawn {
		if s.Type == "" {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path("spawn", strconv.Itoa(i)).
				Detail("spawn entry %d has no type", i).
				Build()
		}
	}
	return nil
}

// Logger builds a zap logger: json selects the production encoder,
// console the development one.
func (l Log) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	if l.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
