// Package config loads the pgcr-scrape YAML configuration.
//
// All durations are Go duration strings (e.g. "250ms", "1s", "24h").
// Omitted fields take the defaults from Default.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"github.com/vnykmshr/ratepool/pkg/common/errors"
	"github.com/vnykmshr/ratepool/pkg/common/validation"
	"github.com/vnykmshr/ratepool/pkg/logx"
	"github.com/vnykmshr/ratepool/pkg/scheduling/scheduler"
)

// DefaultAPIKeyEnv names the environment variable holding the API key.
const DefaultAPIKeyEnv = "BUNGIE_NET_API_KEY"

// Config is the resolved configuration.
type Config struct {
	API     APIConfig
	Pool    PoolConfig
	Batch   BatchConfig
	Output  OutputConfig
	Logging LoggingConfig
	Metrics MetricsConfig
}

type APIConfig struct {
	BaseURL string
	KeyEnv  string
	Key     string
	Timeout time.Duration
}

type PoolConfig struct {
	Workers          int
	RateCapacity     int
	RateInterval     time.Duration
	ProgressInterval time.Duration
	JobTimeout       time.Duration

	// Limiter is "window" (hard reset) or "smooth" (evenly spaced starts).
	Limiter string
}

type BatchConfig struct {
	Start    int64
	Count    int64
	Filter   string
	Manifest string

	// Cron runs the batch on a schedule instead of once.
	Cron string
}

type OutputConfig struct {
	Driver      string
	Path        string
	RedisAddr   string
	RedisPrefix string
	TTL         time.Duration
}

type LoggingConfig struct {
	Level   string
	Console bool
}

type MetricsConfig struct {
	Enabled   bool
	Addr      string
	Namespace string
}

// Default returns the configuration used for omitted fields.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "https://www.bungie.net/Platform/",
			KeyEnv:  DefaultAPIKeyEnv,
			Timeout: time.Second,
		},
		Pool: PoolConfig{
			Workers:          100,
			RateCapacity:     25,
			RateInterval:     time.Second,
			ProgressInterval: 250 * time.Millisecond,
			Limiter:          "window",
		},
		Batch: BatchConfig{
			Start: 8400554258,
			Count: 100000,
		},
		Output: OutputConfig{
			Driver: "csv",
			Path:   "reports.csv",
			TTL:    24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Metrics: MetricsConfig{
			Addr:      ":9090",
			Namespace: "ratepool",
		},
	}
}

// file mirrors the YAML layout. Durations stay strings until resolve.
type file struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		KeyEnv  string `yaml:"key_env"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Pool struct {
		Workers          int    `yaml:"workers"`
		RateCapacity     int    `yaml:"rate_capacity"`
		RateInterval     string `yaml:"rate_interval"`
		ProgressInterval string `yaml:"progress_interval"`
		JobTimeout       string `yaml:"job_timeout"`
		Limiter          string `yaml:"limiter"`
	} `yaml:"pool"`
	Batch struct {
		Start    int64  `yaml:"start"`
		Count    int64  `yaml:"count"`
		Filter   string `yaml:"filter"`
		Manifest string `yaml:"manifest"`
		Cron     string `yaml:"cron"`
	} `yaml:"batch"`
	Output struct {
		Driver      string `yaml:"driver"`
		Path        string `yaml:"path"`
		RedisAddr   string `yaml:"redis_addr"`
		RedisPrefix string `yaml:"redis_prefix"`
		TTL         string `yaml:"ttl"`
	} `yaml:"output"`
	Logging struct {
		Level   string `yaml:"level"`
		Console *bool  `yaml:"console"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled   bool   `yaml:"enabled"`
		Addr      string `yaml:"addr"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
}

// Load reads path, applies defaults, resolves the API key from the
// environment and validates the result. An empty path yields the defaults.
func Load(path string) (Config, error) {
	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		data = b
	}
	return Parse(data, os.Getenv)
}

// Parse decodes YAML bytes. Unknown keys are rejected. getenv resolves the
// API key.
func Parse(data []byte, getenv func(string) string) (Config, error) {
	var f file
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return Config{}, fmt.Errorf("yaml decode: %w", err)
		}
	}

	cfg, err := resolve(f)
	if err != nil {
		return Config{}, err
	}
	cfg.API.Key = strings.TrimSpace(getenv(cfg.API.KeyEnv))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func resolve(f file) (Config, error) {
	cfg := Default()
	var err error

	setString(&cfg.API.BaseURL, f.API.BaseURL)
	setString(&cfg.API.KeyEnv, f.API.KeyEnv)
	if cfg.API.Timeout, err = durationOr("api.timeout", f.API.Timeout, cfg.API.Timeout); err != nil {
		return Config{}, err
	}

	setInt(&cfg.Pool.Workers, f.Pool.Workers)
	setInt(&cfg.Pool.RateCapacity, f.Pool.RateCapacity)
	setString(&cfg.Pool.Limiter, f.Pool.Limiter)
	if cfg.Pool.RateInterval, err = durationOr("pool.rate_interval", f.Pool.RateInterval, cfg.Pool.RateInterval); err != nil {
		return Config{}, err
	}
	if cfg.Pool.ProgressInterval, err = durationOr("pool.progress_interval", f.Pool.ProgressInterval, cfg.Pool.ProgressInterval); err != nil {
		return Config{}, err
	}
	if cfg.Pool.JobTimeout, err = durationOr("pool.job_timeout", f.Pool.JobTimeout, cfg.Pool.JobTimeout); err != nil {
		return Config{}, err
	}

	if f.Batch.Start != 0 {
		cfg.Batch.Start = f.Batch.Start
	}
	if f.Batch.Count != 0 {
		cfg.Batch.Count = f.Batch.Count
	}
	cfg.Batch.Filter = strings.TrimSpace(f.Batch.Filter)
	cfg.Batch.Manifest = strings.TrimSpace(f.Batch.Manifest)
	cfg.Batch.Cron = strings.TrimSpace(f.Batch.Cron)

	setString(&cfg.Output.Driver, f.Output.Driver)
	setString(&cfg.Output.Path, f.Output.Path)
	setString(&cfg.Output.RedisAddr, f.Output.RedisAddr)
	setString(&cfg.Output.RedisPrefix, f.Output.RedisPrefix)
	if cfg.Output.TTL, err = durationOr("output.ttl", f.Output.TTL, cfg.Output.TTL); err != nil {
		return Config{}, err
	}

	setString(&cfg.Logging.Level, f.Logging.Level)
	if f.Logging.Console != nil {
		cfg.Logging.Console = *f.Logging.Console
	}

	cfg.Metrics.Enabled = f.Metrics.Enabled
	setString(&cfg.Metrics.Addr, f.Metrics.Addr)
	setString(&cfg.Metrics.Namespace, f.Metrics.Namespace)

	return cfg, nil
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	if c.API.Key == "" {
		return errors.NewValidationError("config", "api.key", "", "empty").
			WithHint(fmt.Sprintf("export %s with your Bungie.net API key", c.API.KeyEnv))
	}
	if err := validation.ValidateNotEmpty("config", "api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", "pool.workers", c.Pool.Workers); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", "pool.rate_capacity", c.Pool.RateCapacity); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration("config", "pool.rate_interval", c.Pool.RateInterval); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration("config", "api.timeout", c.API.Timeout); err != nil {
		return err
	}
	if err := validation.ValidateOneOf("config", "pool.limiter", c.Pool.Limiter, "window", "smooth"); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("config", "batch.start", c.Batch.Start); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("config", "batch.count", c.Batch.Count); err != nil {
		return err
	}
	if c.Batch.Cron != "" {
		if err := scheduler.ValidateSchedule(c.Batch.Cron); err != nil {
			return errors.NewValidationError("config", "batch.cron", c.Batch.Cron, err.Error())
		}
	}
	if err := validation.ValidateOneOf("config", "output.driver", c.Output.Driver, "csv", "sqlite", "redis"); err != nil {
		return err
	}
	if c.Output.Driver == "redis" {
		if err := validation.ValidateNotEmpty("config", "output.redis_addr", c.Output.RedisAddr); err != nil {
			return err
		}
	} else if err := validation.ValidateNotEmpty("config", "output.path", c.Output.Path); err != nil {
		return err
	}
	if !logx.ValidLevel(c.Logging.Level) {
		return errors.NewValidationError("config", "logging.level", c.Logging.Level, "unknown level")
	}
	return nil
}

func durationOr(path, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.NewValidationError("config", path, raw, "invalid duration").
			WithHint("use a Go duration such as 250ms, 1s or 24h")
	}
	if d < 0 {
		return 0, errors.NewValidationError("config", path, raw, "must be >= 0")
	}
	return d, nil
}

func setString(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
