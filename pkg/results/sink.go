package results

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/ratepool/pkg/common/errors"
)

// Sink persists rows.
type Sink interface {
	// Write stores rows. Sinks may buffer until Close.
	Write(ctx context.Context, rows []Row) error

	// Close flushes buffered rows and releases resources.
	Close() error
}

// Config selects and configures a sink.
type Config struct {
	// Driver is one of csv, sqlite or redis.
	Driver string `yaml:"driver"`

	// Path is the output file for csv and sqlite.
	Path string `yaml:"path"`

	// RedisAddr is the host:port of the Redis server.
	RedisAddr string `yaml:"redis_addr"`

	// RedisPrefix namespaces the Redis list key.
	RedisPrefix string `yaml:"redis_prefix"`

	// TTL expires the Redis list. Zero keeps it forever.
	TTL time.Duration `yaml:"ttl"`

	// RunID identifies the batch in sqlite rows and the Redis key.
	RunID string `yaml:"-"`
}

// Open builds the sink named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "csv":
		if cfg.Path == "" {
			return nil, errors.NewValidationError("results", "path", cfg.Path, "required for csv").
				WithHint("set output.path to a file name such as reports.csv")
		}
		sink, err := CreateCSV(cfg.Path)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, errors.NewValidationError("results", "path", cfg.Path, "required for sqlite")
		}
		sink, err := OpenSQLite(ctx, cfg.Path, cfg.RunID)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, errors.NewValidationError("results", "redis_addr", cfg.RedisAddr, "required for redis")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		sink := NewRedis(client, cfg.RedisPrefix, cfg.RunID, cfg.TTL)
		sink.ownClient = true
		return sink, nil
	default:
		return nil, errors.NewValidationError("results", "driver", cfg.Driver, "unknown sink driver").
			WithHint("use csv, sqlite or redis")
	}
}

func writeError(driver string, err error) error {
	return errors.NewOperationError("results", "write", err).WithContext(fmt.Sprintf("driver=%s", driver))
}
