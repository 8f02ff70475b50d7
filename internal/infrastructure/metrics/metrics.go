package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthloop_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "healthloop_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})

	PointsAwardedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthloop_points_awarded_total",
		Help: "Points posted to the ledger, by action",
	}, []string{"action"})

	ClaimsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthloop_claims_rejected_total",
		Help: "Award attempts rejected because the one-time action was already claimed",
	}, []string{"action"})

	OrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "healthloop_orders_total",
		Help: "Orders created at checkout",
	})

	OrderAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "healthloop_order_amount",
		Help:    "Checkout totals in currency units",
		Buckets: []float64{10, 25, 50, 100, 250, 500},
	})

	OutboxSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "healthloop_outbox_messages_total",
		Help: "Outbox delivery attempts by result",
	}, []string{"result"})
)
