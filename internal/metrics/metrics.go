package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_created_total",
		Help: "Total number of orders successfully created from carts.",
	})

	OrderTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_transitions_total",
		Help: "Total number of committed order status transitions by target status.",
	},
		[]string{"status"},
	)

	RevenueCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_revenue_collected_total",
		Help: "Sum of order totals recorded as collected on delivery.",
	})

	ReturnsRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_returns_requested_total",
		Help: "Total number of return requests successfully created.",
	})

	ReturnTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_return_transitions_total",
		Help: "Total number of committed return status transitions by target status.",
	},
		[]string{"status"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	TxRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_tx_retries_total",
		Help: "Transactions retried after a lock timeout or deadlock.",
	})

	OutboxPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_outbox_published_total",
		Help: "Outbox tasks delivered to the broker.",
	})

	OutboxFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_outbox_failed_total",
		Help: "Outbox task delivery attempts that failed.",
	})

	OrderCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_order_cache_items",
		Help: "Current number of items in the in-process order view cache.",
	})

	OrderCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_cache_lookups_total",
		Help: "Order view cache lookups by result.",
	},
		[]string{"result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "Handled HTTP requests by route and status code.",
	},
		[]string{"method", "route", "code"},
	)

	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_notifications_sent_total",
		Help: "Notification emails sent by event type.",
	},
		[]string{"event"},
	)
)
