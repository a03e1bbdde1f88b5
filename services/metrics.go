package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders placed, by payment method.",
	}, []string{"method"})

	checkoutSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Hosted checkout sessions requested, by result.",
	}, []string{"result"})

	paymentWebhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Verified payment webhook events, by type and result.",
	}, []string{"type", "result"})

	cartConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_conflicts_total",
		Help: "Cart saves that lost a concurrent update and were retried.",
	})
)
