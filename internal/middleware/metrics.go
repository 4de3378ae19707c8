package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics registers the HTTP request metrics middleware and exposes the
// default Prometheus registry at /metrics. The collectors are created once
// per process, so several apps (as in tests) can share them.
func InitMetrics(app *fiber.App, serviceName string) {
	promOnce.Do(func() {
		prom = fiberprometheus.NewWithRegistry(prometheus.DefaultRegisterer, serviceName, "http", "", nil)
		prom.SetSkipPaths([]string{"/metrics", "/health/live", "/health/ready"})
	})
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}
