package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemon_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telemon_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Telemetry store metrics
	ReadingUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemon_reading_updates_total",
			Help: "Total number of channel updates applied to the store",
		},
		[]string{"channel"},
	)

	ReadingRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemon_reading_rejections_total",
			Help: "Total number of channel updates rejected as out of range",
		},
		[]string{"channel"},
	)

	// Threshold policy metrics
	ThresholdUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemon_threshold_updates_total",
			Help: "Total number of threshold reconfigurations",
		},
		[]string{"channel", "status"}, // status: applied, rejected
	)

	// Evaluation metrics
	EvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemon_evaluations_total",
			Help: "Total number of alert evaluations",
		},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemon_evaluation_duration_seconds",
			Help:    "Time taken to evaluate a snapshot against the policy",
			Buckets: []float64{.000001, .00001, .0001, .001, .01},
		},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemon_alerts_total",
			Help: "Total number of alerts emitted",
		},
		[]string{"channel", "severity"},
	)

	// Scheduler metrics
	SchedulerTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemon_scheduler_ticks_total",
			Help: "Total number of scheduler ticks",
		},
	)

	SinkDispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemon_sink_dispatch_duration_seconds",
			Help:    "Time taken to dispatch alerts to the sink",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	SinkDispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemon_sink_dispatch_failures_total",
			Help: "Total number of failed sink dispatches",
		},
		[]string{"sink"},
	)

	// Kafka sink metrics
	KafkaPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemon_kafka_publish_total",
			Help: "Total number of alert events published to Kafka",
		},
		[]string{"status"}, // status: success, failed
	)

	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemon_kafka_publish_duration_seconds",
			Help:    "Time taken to publish to Kafka",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemon_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
