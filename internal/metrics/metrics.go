package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Order book metrics
	OrdersAccepted  prometheus.Counter
	OrdersRejected  *prometheus.CounterVec
	OrdersCancelled prometheus.Counter
	OrdersModified  prometheus.Counter
	RestingOrders   prometheus.Gauge
	BookDepth       *prometheus.GaugeVec

	// Trade metrics
	TradesTotal prometheus.Counter
	TradeVolume prometheus.Counter

	// WebSocket metrics
	WSConnections  prometheus.Gauge
	WSMessagesSent *prometheus.CounterVec

	// RabbitMQ metrics
	MQMessagesPublished *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		OrdersAccepted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_accepted_total",
				Help: "Total number of orders admitted to the book",
			},
		),
		OrdersRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_rejected_total",
				Help: "Total number of orders not admitted, by reason",
			},
			[]string{"reason"},
		),
		OrdersCancelled: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_cancelled_total",
				Help: "Total number of orders cancelled",
			},
		),
		OrdersModified: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_modified_total",
				Help: "Total number of cancel-and-replace modifications",
			},
		),
		RestingOrders: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "orderbook_resting_orders",
				Help: "Number of orders currently resting in the book",
			},
		),
		BookDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "orderbook_depth_levels",
				Help: "Number of price levels per side",
			},
			[]string{"side"},
		),

		TradesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "trades_total",
				Help: "Total number of trades executed",
			},
		),
		TradeVolume: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "trade_volume_total",
				Help: "Total traded quantity",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "ws_connections_active",
				Help: "Current number of active WebSocket connections",
			},
		),
		WSMessagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ws_messages_sent_total",
				Help: "Total number of WebSocket messages sent",
			},
			[]string{"type"},
		),

		MQMessagesPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mq_messages_published_total",
				Help: "Total number of messages published to RabbitMQ",
			},
			[]string{"routing_key"},
		),
	}
}

// RecordOrderAccepted records an order admitted to the book.
func (m *Metrics) RecordOrderAccepted() {
	m.OrdersAccepted.Inc()
}

// RecordOrderRejected records an order that was not admitted.
func (m *Metrics) RecordOrderRejected(reason string) {
	m.OrdersRejected.WithLabelValues(reason).Inc()
}

// RecordOrderCancelled records an order cancellation.
func (m *Metrics) RecordOrderCancelled() {
	m.OrdersCancelled.Inc()
}

// RecordOrderModified records a cancel-and-replace.
func (m *Metrics) RecordOrderModified() {
	m.OrdersModified.Inc()
}

// RecordTrade records one executed trade.
func (m *Metrics) RecordTrade(quantity int64) {
	m.TradesTotal.Inc()
	m.TradeVolume.Add(float64(quantity))
}

// RecordBookState records the resting-order count and per-side depth.
func (m *Metrics) RecordBookState(restingOrders, bidLevels, askLevels int) {
	m.RestingOrders.Set(float64(restingOrders))
	m.BookDepth.WithLabelValues("buy").Set(float64(bidLevels))
	m.BookDepth.WithLabelValues("sell").Set(float64(askLevels))
}

// RecordWSConnections records the current WebSocket connection count.
func (m *Metrics) RecordWSConnections(n int) {
	m.WSConnections.Set(float64(n))
}

// RecordWSSent records a WebSocket message sent.
func (m *Metrics) RecordWSSent(msgType string) {
	m.WSMessagesSent.WithLabelValues(msgType).Inc()
}

// RecordMQPublished records a message published to RabbitMQ.
func (m *Metrics) RecordMQPublished(routingKey string) {
	m.MQMessagesPublished.WithLabelValues(routingKey).Inc()
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
