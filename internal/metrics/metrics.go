// Package metrics holds the Prometheus collectors for trading, pricing and
// the live feed. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "papertrade"

// Metrics is the set of collectors exposed on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	TradesTotal       *prometheus.CounterVec
	TradeRetries      prometheus.Counter
	PriceLookups      *prometheus.CounterVec
	FeedSessions      prometheus.Gauge
	FeedSubscriptions prometheus.Gauge
	FeedUpdates       *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Trade requests by side and outcome (ok or error kind)",
		}, []string{"side", "outcome"}),
		TradeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trade_retries_total",
			Help:      "Trades retried after a portfolio version conflict",
		}),
		PriceLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_lookups_total",
			Help:      "Price lookups by outcome (ok or unavailable)",
		}, []string{"outcome"}),
		FeedSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "sessions",
			Help:      "Open live feed connections",
		}),
		FeedSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscriptions",
			Help:      "Live feed connections with an active symbol subscription",
		}),
		FeedUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "updates_total",
			Help:      "Price updates pushed to connections, by whether the price was known",
		}, []string{"price"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		m.TradesTotal,
		m.TradeRetries,
		m.PriceLookups,
		m.FeedSessions,
		m.FeedSubscriptions,
		m.FeedUpdates,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveTrade(side, outcome string) {
	if m == nil {
		return
	}
	m.TradesTotal.WithLabelValues(side, outcome).Inc()
}

func (m *Metrics) ObserveTradeRetry() {
	if m == nil {
		return
	}
	m.TradeRetries.Inc()
}

func (m *Metrics) ObservePriceLookup(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "unavailable"
	}
	m.PriceLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.FeedSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.FeedSessions.Dec()
	}
}

func (m *Metrics) SubscriptionStarted() {
	if m != nil {
		m.FeedSubscriptions.Inc()
	}
}

func (m *Metrics) SubscriptionStopped() {
	if m != nil {
		m.FeedSubscriptions.Dec()
	}
}

func (m *Metrics) ObserveFeedUpdate(known bool) {
	if m == nil {
		return
	}
	label := "known"
	if !known {
		label = "null"
	}
	m.FeedUpdates.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveHTTP(method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(d.Seconds())
}
