package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "ratepool"

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registry to use. If nil, a private registry is created.
	Registry prometheus.Registerer

	// Namespace overrides the default "ratepool" namespace for metrics.
	Namespace string
}

// DefaultConfig returns a default metrics configuration registered with
// the global Prometheus registerer.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
	}
}

// Build returns the Registry described by c, or nil when metrics are disabled.
func (c Config) Build() *Registry {
	if !c.Enabled {
		return nil
	}
	return NewRegistryWithNamespace(c.Registry, c.Namespace)
}
