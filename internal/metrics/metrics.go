package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repair_http_requests_total",
			Help: "Total HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repair_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AlarmEvaluations counts alarm listings by the path that produced them
	// ("aggregate" or "per_case").
	AlarmEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repair_alarm_evaluations_total",
			Help: "Alarm listings computed, by evaluation path.",
		},
		[]string{"path"},
	)

	AlarmFastPathFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "repair_alarm_fast_path_failures_total",
			Help: "Aggregate alarm queries that failed and fell back to per-case evaluation.",
		},
	)

	AlarmEvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repair_alarm_evaluation_duration_seconds",
			Help:    "Time spent computing the alarm list, by evaluation path.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"path"},
	)

	// CasesInAlarm is the size of the last computed alarm list per rule.
	CasesInAlarm = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "repair_cases_in_alarm",
			Help: "Cases currently in alarm, by rule.",
		},
		[]string{"rule"},
	)

	AlarmCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repair_alarm_cache_lookups_total",
			Help: "Alarm cache lookups by result (hit or miss).",
		},
		[]string{"result"},
	)

	FeedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repair_alarm_feed_clients",
			Help: "Connected alarm feed websocket clients.",
		},
	)
)

var (
	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "repair_db_pool_connections",
			Help: "PostgreSQL pool connections by state (total, idle, acquired).",
		},
		[]string{"state"},
	)

	DBPoolAcquireWaitSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repair_db_pool_acquire_wait_seconds",
			Help: "Cumulative time spent waiting for a pool connection.",
		},
	)
)
