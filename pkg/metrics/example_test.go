package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_basicUsage demonstrates basic metrics configuration.
func Example_basicUsage() {
	registry := NewRegistry(prometheus.NewRegistry())

	registry.RateLimitAllowed.WithLabelValues("window", "api").Add(8)
	registry.RateLimitDenied.WithLabelValues("window", "api").Add(2)

	fmt.Println(testutil.ToFloat64(registry.RateLimitAllowed.WithLabelValues("window", "api")))
	fmt.Println(testutil.ToFloat64(registry.RateLimitDenied.WithLabelValues("window", "api")))

	// Output:
	// 8
	// 2
}

// Example_disabled shows that a disabled config builds no registry.
func Example_disabled() {
	cfg := Config{Enabled: false, Registry: prometheus.NewRegistry()}
	fmt.Println(cfg.Build() == nil)

	// Output: true
}
