package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanclub_http_requests_total",
			Help: "Total HTTP requests by service, method, route and status",
		},
		[]string{"service", "method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fanclub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "route"},
	)

	HTTPInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fanclub_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
		[]string{"service"},
	)

	EntitlementDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanclub_entitlement_decisions_total",
			Help: "Entitlement decisions by reason",
		},
		[]string{"reason"},
	)

	PaginatorFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanclub_paginator_fetches_total",
			Help: "Client page fetches by list and outcome (ok, error, dropped, stale)",
		},
		[]string{"list", "outcome"},
	)

	QueuePublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanclub_queue_publishes_total",
			Help: "Domain events published by routing key and outcome",
		},
		[]string{"routing_key", "outcome"},
	)

	NotificationsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanclub_notifications_stored_total",
			Help: "Notifications written to user inboxes",
		},
	)
)
