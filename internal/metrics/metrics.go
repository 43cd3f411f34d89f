// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

// Package metrics defines the Prometheus instrumentation for Farmdata.
// Collectors are registered with the default registry at package load
// and exposed through the /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestsTotal counts API requests by method, endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmdata_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// APIRequestDuration observes API request latency.
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "farmdata_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// DBQueryDuration observes database query latency.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "farmdata_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation", "table"},
	)

	// DBErrorsTotal counts database errors by operation.
	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmdata_db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"operation"},
	)

	// ReadingsServedTotal counts readings returned by data endpoints.
	ReadingsServedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmdata_readings_served_total",
			Help: "Total number of sensor readings served",
		},
		[]string{"metric"},
	)

	// StatComputationDuration observes statistical endpoint compute time.
	StatComputationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "farmdata_stat_computation_duration_seconds",
			Help:    "Statistical computation duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"kind"},
	)

	// EmailSendsTotal counts outbound email attempts by outcome.
	EmailSendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmdata_email_sends_total",
			Help: "Total number of email send attempts",
		},
		[]string{"kind", "outcome"},
	)

	// RegistrationsTotal counts account registrations by outcome.
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmdata_registrations_total",
			Help: "Total number of registration attempts",
		},
		[]string{"outcome"},
	)

	// AuthFailuresTotal counts failed authentication attempts.
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "farmdata_auth_failures_total",
			Help: "Total number of failed authentication attempts",
		},
		[]string{"mode"},
	)

	// DBConnectionsOpen tracks open database connections.
	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "farmdata_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDBQuery records one database query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// RecordStatComputation records one statistical computation.
func RecordStatComputation(kind string, duration time.Duration) {
	StatComputationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordEmailSend records one email delivery attempt.
func RecordEmailSend(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	EmailSendsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordRegistration records one registration attempt.
func RecordRegistration(outcome string) {
	RegistrationsTotal.WithLabelValues(outcome).Inc()
}

// RecordAuthFailure records one failed authentication attempt.
func RecordAuthFailure(mode string) {
	AuthFailuresTotal.WithLabelValues(mode).Inc()
}
