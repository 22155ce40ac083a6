package constants

// Local HTTP API paths
const (
	DefaultHealthCheckEndpoint = "/internal/health"
	InstancesEndpoint          = "/internal/instances"
	MetricsEndpoint            = "/metrics"
	APIPathPrefix              = "/api/"
)
