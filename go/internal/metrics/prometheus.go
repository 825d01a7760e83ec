package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "draftroom"

// Prometheus implements Collector with client_golang collectors.
type Prometheus struct {
	draftsCreated   prometheus.Counter
	draftsStarted   prometheus.Counter
	draftsCompleted prometheus.Counter
	draftDuration   prometheus.Histogram
	draftsEvicted   *prometheus.CounterVec
	activeDrafts    prometheus.Gauge

	picks         *prometheus.CounterVec
	picksRejected *prometheus.CounterVec

	connectionsOpened prometheus.Counter
	connectionsClosed *prometheus.CounterVec
	activeConnections prometheus.Gauge
	broadcastDropped  prometheus.Counter

	eventCounter    *prometheus.CounterVec
	eventDuration   *prometheus.HistogramVec
	publishAttempts *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		draftsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "drafts_created_total",
			Help: "Drafts created.",
		}),
		draftsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "drafts_started_total",
			Help: "Drafts that moved to active.",
		}),
		draftsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "drafts_completed_total",
			Help: "Drafts that filled every pick.",
		}),
		draftDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "draft_duration_seconds",
			Help:    "Wall time from start to completion.",
			Buckets: prometheus.ExponentialBuckets(60, 2, 10),
		}),
		draftsEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "drafts_evicted_total",
			Help: "Drafts removed from the registry.",
		}, []string{"reason"}),
		activeDrafts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "drafts_registered",
			Help: "Drafts currently held in memory.",
		}),
		picks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "picks_total",
			Help: "Accepted picks.",
		}, []string{"auto"}),
		picksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "picks_rejected_total",
			Help: "Rejected pick submissions by error code.",
		}, []string{"code"}),
		connectionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ws_connections_opened_total",
			Help: "Websocket sessions registered.",
		}),
		connectionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ws_connections_closed_total",
			Help: "Websocket sessions removed.",
		}, []string{"reason"}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ws_connections_active",
			Help: "Websocket sessions currently registered.",
		}),
		broadcastDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ws_broadcast_dropped_total",
			Help: "Sessions dropped because their send buffer was full.",
		}),
		eventCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_processed_total",
			Help: "Domain events handed to sinks.",
		}, []string{"event_type", "status"}),
		eventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "event_processing_seconds",
			Help:    "Time spent delivering a domain event to every sink.",
			Buckets: prometheus.DefBuckets,
		}, []string{"event_type"}),
		publishAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "event_publish_attempts_total",
			Help: "Sink delivery attempts.",
		}, []string{"event_type", "attempt", "status"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_dropped_total",
			Help: "Domain events dropped because the dispatch queue was full.",
		}, []string{"event_type"}),
	}

	reg.MustRegister(
		m.draftsCreated, m.draftsStarted, m.draftsCompleted, m.draftDuration, m.draftsEvicted, m.activeDrafts,
		m.picks, m.picksRejected,
		m.connectionsOpened, m.connectionsClosed, m.activeConnections, m.broadcastDropped,
		m.eventCounter, m.eventDuration, m.publishAttempts, m.eventsDropped,
	)
	return m
}

var _ Collector = (*Prometheus)(nil)

func (m *Prometheus) RecordDraftCreated() { m.draftsCreated.Inc() }
func (m *Prometheus) RecordDraftStarted() { m.draftsStarted.Inc() }

func (m *Prometheus) RecordDraftCompleted(duration time.Duration) {
	m.draftsCompleted.Inc()
	m.draftDuration.Observe(duration.Seconds())
}

func (m *Prometheus) RecordDraftEvicted(reason string) { m.draftsEvicted.WithLabelValues(reason).Inc() }
func (m *Prometheus) SetActiveDrafts(n int)            { m.activeDrafts.Set(float64(n)) }

func (m *Prometheus) RecordPick(auto bool) {
	m.picks.WithLabelValues(strconv.FormatBool(auto)).Inc()
}

func (m *Prometheus) RecordPickRejected(code string) { m.picksRejected.WithLabelValues(code).Inc() }

func (m *Prometheus) RecordConnectionOpened() {
	m.connectionsOpened.Inc()
	m.activeConnections.Inc()
}

func (m *Prometheus) RecordConnectionClosed(reason string) {
	m.connectionsClosed.WithLabelValues(reason).Inc()
	m.activeConnections.Dec()
}

func (m *Prometheus) RecordBroadcastDropped() { m.broadcastDropped.Inc() }

func (m *Prometheus) RecordEventProcessed(eventType string, success bool, duration time.Duration) {
	m.eventCounter.WithLabelValues(eventType, status(success)).Inc()
	m.eventDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

func (m *Prometheus) RecordPublishAttempt(eventType string, attempt int, success bool) {
	m.publishAttempts.WithLabelValues(eventType, strconv.Itoa(attempt), status(success)).Inc()
}

func (m *Prometheus) RecordEventDropped(eventType string) {
	m.eventsDropped.WithLabelValues(eventType).Inc()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
