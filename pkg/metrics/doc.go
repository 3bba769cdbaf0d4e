// Package metrics provides Prometheus instrumentation for ratepool components.
//
// # Overview
//
// The metrics package covers:
//   - Rate limiting (tokens handed out, abandoned waits, wait time, refills)
//   - Worker pools (size, queued jobs, scheduled/completed/panicked jobs,
//     job duration and queue wait)
//   - Progress (completed and total as last reported)
//
// # Quick Start
//
// Wrap components with their metrics-enabled constructors:
//
//	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
//	limiter := window.NewWithMetrics(window.Config{Capacity: 25, Interval: time.Second}, "api", reg)
//	pool := workerpool.NewWithMetrics(workerpool.Config{Limiter: limiter}, "scrape", reg)
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":9090", nil))
//
// # Custom Registry
//
// Use a private Prometheus registry for isolation, as the tests do:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.Config{Enabled: true, Registry: reg}.Build()
package metrics
