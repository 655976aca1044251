package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "Total number of completed sales",
	}, []string{"payment_method"})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	SaleAmountCents = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sale_amount_cents",
		Help:    "Distribution of completed sale grand totals in cents",
		Buckets: prometheus.ExponentialBuckets(100, 4, 10),
	})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of checkout processing",
		Buckets: prometheus.DefBuckets,
	})

	BarcodeLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barcode_lookups_total",
		Help: "Total number of barcode lookups",
	}, []string{"result"})

	BarcodeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barcode_cache_hits_total",
		Help: "Barcode lookups served from the Redis cache",
	})

	InvoicesApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "invoices_approved_total",
		Help: "Total number of approved purchase invoices",
	})

	InvoiceApprovalLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "invoice_approval_latency_seconds",
		Help:    "Latency of invoice approval including stock updates",
		Buckets: prometheus.DefBuckets,
	})

	StockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_alerts_total",
		Help: "Total number of low-stock alerts published",
	})

	ActiveCarts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_carts",
		Help: "Number of terminal carts currently holding items",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
