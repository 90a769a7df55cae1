package metric

// Metric names registered by monitored-app.
const (
	HTTPRequestDuration = "http_request_duration_seconds"
	HTTPRequestsTotal   = "http_requests_total"
	MemoryUsageBytes    = "app_memory_usage_bytes"
	DBConnectionsActive = "db_connections_active"
	CacheHitRate        = "cache_hit_rate"
	LogRecordsDropped   = "log_records_dropped_total"
)

// RequestLabels are the label names of the request metrics, in order.
var RequestLabels = []string{"method", "route", "status_code"}

// RequestBuckets are the latency histogram bounds in seconds.
var RequestBuckets = []float64{0.1, 0.3, 0.5, 0.7, 1, 3, 5, 7, 10}

// AppDefinitions returns the fixed metric set of the application.
func AppDefinitions() []Definition {
	return []Definition{
		{
			Name:    HTTPRequestDuration,
			Help:    "Duration of HTTP requests in seconds",
			Kind:    KindHistogram,
			Labels:  RequestLabels,
			Buckets: RequestBuckets,
		},
		{
			Name:   HTTPRequestsTotal,
			Help:   "Total number of HTTP requests",
			Kind:   KindCounter,
			Labels: RequestLabels,
		},
		{
			Name: MemoryUsageBytes,
			Help: "Memory usage of the application",
			Kind: KindGauge,
		},
		{
			Name: DBConnectionsActive,
			Help: "Number of active database connections",
			Kind: KindGauge,
		},
		{
			Name: CacheHitRate,
			Help: "Cache hit rate percentage",
			Kind: KindGauge,
		},
	}
}

// RegisterApp registers AppDefinitions on r.
func RegisterApp(r *Registry) error {
	for _, def := range AppDefinitions() {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// RegisterLogDrops exposes the number of log lines dropped by the
// asynchronous log writer.
func RegisterLogDrops(r *Registry, dropped func() uint64) error {
	return r.RegisterCounterFunc(LogRecordsDropped,
		"Log records dropped because the write queue was full",
		func() float64 { return float64(dropped()) })
}
