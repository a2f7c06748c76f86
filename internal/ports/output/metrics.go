package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncQueryCount increments the query counter for an operation.
	IncQueryCount(operation string, success bool)

	// ObserveQueryDuration records query duration.
	ObserveQueryDuration(operation string, duration time.Duration)

	// SetConnectionOpen records whether the database connection is open.
	SetConnectionOpen(runtime string, open bool)

	// IncConnectionOpens counts connection opens.
	IncConnectionOpens(runtime string, success bool)

	// IncAssetFetch counts database asset fetches per source.
	IncAssetFetch(source string, success bool)

	// ObserveAssetFetchDuration records asset fetch duration.
	ObserveAssetFetchDuration(source string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncQueryCount implements MetricsCollector.
func (n *NoOpMetrics) IncQueryCount(_ string, _ bool) {}

// ObserveQueryDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveQueryDuration(_ string, _ time.Duration) {}

// SetConnectionOpen implements MetricsCollector.
func (n *NoOpMetrics) SetConnectionOpen(_ string, _ bool) {}

// IncConnectionOpens implements MetricsCollector.
func (n *NoOpMetrics) IncConnectionOpens(_ string, _ bool) {}

// IncAssetFetch implements MetricsCollector.
func (n *NoOpMetrics) IncAssetFetch(_ string, _ bool) {}

// ObserveAssetFetchDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveAssetFetchDuration(_ string, _ time.Duration) {}
