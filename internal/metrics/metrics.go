package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all the application metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Storage operation metrics
	StorageOperationTotal    *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Media upload metrics
	MediaUploadTotal    *prometheus.CounterVec
	MediaUploadDuration *prometheus.HistogramVec

	// Generative-text metrics
	AIGenerationTotal    *prometheus.CounterVec
	AIGenerationDuration *prometheus.HistogramVec

	// Memorial counter increments, labeled by counter name
	RecordCounterTotal *prometheus.CounterVec
}

// Global metrics instance with mutex for thread safety
var (
	globalMetrics *Metrics
	metricsMutex  sync.Mutex
)

// NewMetrics creates a new Metrics instance with all required metrics
func NewMetrics() *Metrics {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	// Return existing instance if already created
	if globalMetrics != nil {
		return globalMetrics
	}

	m := &Metrics{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),

		StorageOperationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storage_operations_total",
			Help: "Total number of storage operations",
		}, []string{"operation", "status"}),

		StorageOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "status"}),

		MediaUploadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_upload_total",
			Help: "Total number of media upload operations",
		}, []string{"category", "status"}),

		MediaUploadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "media_upload_duration_seconds",
			Help:    "Media upload duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"category", "status"}),

		AIGenerationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ai_generation_total",
			Help: "Total number of generative-text API calls",
		}, []string{"status"}),

		AIGenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ai_generation_duration_seconds",
			Help:    "Generative-text API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),

		RecordCounterTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "record_counter_increments_total",
			Help: "Total number of record statistics increments",
		}, []string{"counter"}),
	}

	// Register metrics with the default registry
	registerMetrics(m)

	// Store as global instance
	globalMetrics = m

	return m
}

// registerMetrics registers all metrics with the default registry
func registerMetrics(m *Metrics) {
	// Try to register each metric, ignore if already registered
	registerOrGet(m.HTTPRequestTotal)
	registerOrGet(m.HTTPRequestDuration)
	registerOrGet(m.StorageOperationTotal)
	registerOrGet(m.StorageOperationDuration)
	registerOrGet(m.MediaUploadTotal)
	registerOrGet(m.MediaUploadDuration)
	registerOrGet(m.AIGenerationTotal)
	registerOrGet(m.AIGenerationDuration)
	registerOrGet(m.RecordCounterTotal)
}

// registerOrGet tries to register a metric, returns the existing one if already registered
func registerOrGet(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}
