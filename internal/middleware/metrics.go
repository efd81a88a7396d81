package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopup_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// RatingWorkflowOps counts rating workflow operations by operation and outcome.
	RatingWorkflowOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loopup_rating_workflow_operations_total",
		Help: "Rating workflow operations by operation (submit_direct, submit_pending, accept, reject) and outcome",
	}, []string{"operation", "outcome"})

	// CachedAverageRecomputes counts synchronous reputation recomputations.
	CachedAverageRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loopup_cached_average_recomputes_total",
		Help: "Total number of cached weighted-average recomputations",
	})
)

// InitMetrics creates the Prometheus HTTP metrics middleware for the service.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the fiber handler recording HTTP metrics.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}
