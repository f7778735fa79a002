package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricPositionLatency = "tracking.position_latency"
	MetricFixAge          = "tracking.fix_age_seconds"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricBreachEvents  = "business.zone_breaches"
	MetricNotifications = "business.notifications_sent"
)
