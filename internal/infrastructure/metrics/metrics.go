// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers the platform's operational metrics
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
	readingsRecorded prometheus.Counter
	quotaRejections  prometheus.Counter
	invoicesIssued   prometheus.Counter
	invoicesPaid     prometheus.Counter
	pushDeliveries   *prometheus.CounterVec
	anomaliesFound   prometheus.Counter
}

// NewCollector creates a collector and registers its metrics
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecopower_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecopower_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		readingsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecopower_readings_recorded_total",
			Help: "Meter readings accepted",
		}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecopower_reading_quota_rejections_total",
			Help: "Meter readings refused by the per-period quota",
		}),
		invoicesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecopower_invoices_issued_total",
			Help: "Invoices generated",
		}),
		invoicesPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecopower_invoices_paid_total",
			Help: "Invoices settled",
		}),
		pushDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecopower_push_deliveries_total",
			Help: "Push deliveries by outcome",
		}, []string{"outcome"}),
		anomaliesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecopower_consumption_anomalies_total",
			Help: "Readings flagged as anomalous",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.readingsRecorded,
		c.quotaRejections,
		c.invoicesIssued,
		c.invoicesPaid,
		c.pushDeliveries,
		c.anomaliesFound,
	)

	return c
}

// RecordReading counts an accepted meter reading
func (c *Collector) RecordReading() { c.readingsRecorded.Inc() }

// RecordQuotaRejection counts a reading refused by the quota
func (c *Collector) RecordQuotaRejection() { c.quotaRejections.Inc() }

// RecordInvoiceIssued counts a generated invoice
func (c *Collector) RecordInvoiceIssued() { c.invoicesIssued.Inc() }

// RecordInvoicePaid counts a settled invoice
func (c *Collector) RecordInvoicePaid() { c.invoicesPaid.Inc() }

// RecordPushDelivery counts a push attempt by outcome
func (c *Collector) RecordPushDelivery(outcome string) {
	c.pushDeliveries.WithLabelValues(outcome).Inc()
}

// RecordAnomaly counts a flagged reading
func (c *Collector) RecordAnomaly() { c.anomaliesFound.Inc() }

// GinMiddleware records request counts and latency per route
func (c *Collector) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.httpRequests.WithLabelValues(
			ctx.Request.Method,
			route,
			strconv.Itoa(ctx.Writer.Status()),
		).Inc()
		c.httpLatency.WithLabelValues(ctx.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}

// Handler returns the /metrics endpoint handler for the registry
func Handler(reg *prometheus.Registry) gin.HandlerFunc {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
