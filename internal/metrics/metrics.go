package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medtrack"

type Metrics struct {
	registry *prometheus.Registry

	ticksTotal    prometheus.Counter
	tickOverlaps  prometheus.Counter
	tickDuration  prometheus.Histogram
	tickOutcomes  *prometheus.CounterVec
	notifications *prometheus.CounterVec
	breakerState  *prometheus.GaugeVec
	ledgerWrites  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// New builds a Metrics with its own registry so tests never collide.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Scheduler ticks evaluated.",
		}),
		tickOverlaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_overlaps_total",
			Help:      "Ticks that started while the previous tick was still running.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent evaluating one tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		tickOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_items_total",
			Help:      "Schedules matched by ticks, by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification send attempts by channel and result.",
		}, []string{"channel", "result"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_breaker_open",
			Help:      "1 while the channel's circuit breaker is open.",
		}, []string{"channel"}),
		ledgerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_writes_total",
			Help:      "Adherence ledger writes by outcome.",
		}, []string{"outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by method and status code.",
		}, []string{"method", "status"}),
	}

	m.registry.MustRegister(
		m.ticksTotal,
		m.tickOverlaps,
		m.tickDuration,
		m.tickOutcomes,
		m.notifications,
		m.breakerState,
		m.ledgerWrites,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RecordTick(d time.Duration) {
	m.ticksTotal.Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordTickOverlap() {
	m.tickOverlaps.Inc()
}

func (m *Metrics) RecordTickItem(outcome string) {
	m.tickOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordNotification(channel string, success bool) {
	result := "sent"
	if !success {
		result = "failed"
	}
	m.notifications.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) SetBreakerOpen(channel string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.breakerState.WithLabelValues(channel).Set(v)
}

func (m *Metrics) RecordLedgerWrite(outcome string) {
	m.ledgerWrites.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRequest(method string, status int) {
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func RecordTick(d time.Duration) {
	Default().RecordTick(d)
}

func RecordTickOverlap() {
	Default().RecordTickOverlap()
}

func RecordTickItem(outcome string) {
	Default().RecordTickItem(outcome)
}

func RecordNotification(channel string, success bool) {
	Default().RecordNotification(channel, success)
}

func SetBreakerOpen(channel string, open bool) {
	Default().SetBreakerOpen(channel, open)
}

func LedgerWrite(outcome string) {
	Default().RecordLedgerWrite(outcome)
}

func RecordRequest(method string, status int) {
	Default().RecordRequest(method, status)
}

func Handler() http.Handler {
	return Default().Handler()
}
