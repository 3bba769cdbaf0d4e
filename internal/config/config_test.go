package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/ratepool/internal/testutil"
	"github.com/vnykmshr/ratepool/pkg/common/errors"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

var withKey = env(map[string]string{DefaultAPIKeyEnv: "secret"})

func TestParseEmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil, withKey)
	testutil.AssertNoError(t, err)

	def := Default()
	testutil.AssertEqual(t, cfg.Pool.Workers, def.Pool.Workers)
	testutil.AssertEqual(t, cfg.Pool.RateCapacity, 25)
	testutil.AssertEqual(t, cfg.Pool.RateInterval, time.Second)
	testutil.AssertEqual(t, cfg.Pool.ProgressInterval, 250*time.Millisecond)
	testutil.AssertEqual(t, cfg.API.Timeout, time.Second)
	testutil.AssertEqual(t, cfg.API.Key, "secret")
	testutil.AssertEqual(t, cfg.Output.Driver, "csv")
	testutil.AssertTrue(t, cfg.Logging.Console)
}

func TestParseOverrides(t *testing.T) {
	yml := `
api:
  key_env: MY_KEY
  timeout: 2s
pool:
  workers: 8
  rate_capacity: 5
  rate_interval: 500ms
  limiter: smooth
batch:
  start: 100
  count: 10
  filter: Gambit
  cron: "0 */5 * * * *"
output:
  driver: redis
  redis_addr: localhost:6379
  ttl: 1h
logging:
  level: debug
  console: false
metrics:
  enabled: true
  addr: ":9100"
`
	cfg, err := Parse([]byte(yml), env(map[string]string{"MY_KEY": " k "}))
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, cfg.API.Key, "k")
	testutil.AssertEqual(t, cfg.API.Timeout, 2*time.Second)
	testutil.AssertEqual(t, cfg.Pool.Workers, 8)
	testutil.AssertEqual(t, cfg.Pool.RateInterval, 500*time.Millisecond)
	testutil.AssertEqual(t, cfg.Pool.Limiter, "smooth")
	testutil.AssertEqual(t, cfg.Batch.Start, int64(100))
	testutil.AssertEqual(t, cfg.Batch.Filter, "Gambit")
	testutil.AssertEqual(t, cfg.Output.TTL, time.Hour)
	testutil.AssertEqual(t, cfg.Logging.Level, "debug")
	testutil.AssertTrue(t, !cfg.Logging.Console)
	testutil.AssertTrue(t, cfg.Metrics.Enabled)
	testutil.AssertEqual(t, cfg.Metrics.Addr, ":9100")
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		yml   string
		field string
	}{
		{"bad duration", "pool:\n  rate_interval: soon\n", "pool.rate_interval"},
		{"negative duration", "api:\n  timeout: -1s\n", "api.timeout"},
		{"zero interval", "pool:\n  rate_interval: 0s\n", "pool.rate_interval"},
		{"negative workers", "pool:\n  workers: -1\n", "pool.workers"},
		{"negative start", "batch:\n  start: -8400554258\n", "batch.start"},
		{"negative count", "batch:\n  count: -1\n", "batch.count"},
		{"unknown limiter", "pool:\n  limiter: leaky\n", "pool.limiter"},
		{"bad cron", "batch:\n  cron: \"* * * * *\"\n", "batch.cron"},
		{"unknown driver", "output:\n  driver: s3\n", "output.driver"},
		{"redis without addr", "output:\n  driver: redis\n", "output.redis_addr"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yml), withKey)
			testutil.AssertTrue(t, errors.IsValidationError(err))
			testutil.AssertTrue(t, strings.Contains(err.Error(), tt.field))
		})
	}
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse([]byte("pool:\n  queue_size: 10\n"), withKey)
	testutil.AssertError(t, err)
	testutil.AssertTrue(t, strings.Contains(err.Error(), "queue_size"))
}

func TestMissingAPIKey(t *testing.T) {
	_, err := Parse(nil, env(nil))
	testutil.AssertTrue(t, errors.IsValidationError(err))
	testutil.AssertTrue(t, strings.Contains(err.Error(), DefaultAPIKeyEnv))
}

func TestLoad(t *testing.T) {
	t.Setenv(DefaultAPIKeyEnv, "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte("pool:\n  workers: 3\n"), 0o600))

	cfg, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Pool.Workers, 3)
	testutil.AssertEqual(t, cfg.API.Key, "from-env")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	testutil.AssertError(t, err)
}
