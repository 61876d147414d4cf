package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatchMetrics exposes counters for the booking lifecycle.
type DispatchMetrics struct {
	submittedTotal       *prometheus.CounterVec
	cancellationsTotal   *prometheus.CounterVec
	transitionsTotal     *prometheus.CounterVec
	historyPersistErrors prometheus.Counter
	dispatchLatency      prometheus.Histogram
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		submittedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ambu",
			Subsystem: "dispatch",
			Name:      "bookings_submitted_total",
			Help:      "Total bookings submitted",
		}, []string{"ambulance_type", "city"}),
		cancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ambu",
			Subsystem: "dispatch",
			Name:      "cancellations_total",
			Help:      "Cancellation requests by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ambu",
			Subsystem: "dispatch",
			Name:      "transitions_total",
			Help:      "Lifecycle transitions by target status",
		}, []string{"status"}),
		historyPersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ambu",
			Subsystem: "dispatch",
			Name:      "history_persist_failures_total",
			Help:      "Failures writing booking history to the key-value store",
		}),
		dispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ambu",
			Subsystem: "dispatch",
			Name:      "time_to_arrival_seconds",
			Help:      "Wall time from submission to simulated arrival",
			Buckets:   []float64{5, 15, 30, 45, 60, 90, 120, 300},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submittedTotal, m.cancellationsTotal, m.transitionsTotal, m.historyPersistErrors, m.dispatchLatency)
	return m
}

func (m *DispatchMetrics) ObserveSubmitted(ambulanceType, city string) {
	if m == nil {
		return
	}
	m.submittedTotal.WithLabelValues(ambulanceType, city).Inc()
}

func (m *DispatchMetrics) ObserveCancellation(confirmed bool) {
	if m == nil {
		return
	}
	outcome := "declined"
	if confirmed {
		outcome = "confirmed"
	}
	m.cancellationsTotal.WithLabelValues(outcome).Inc()
}

func (m *DispatchMetrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(status).Inc()
}

func (m *DispatchMetrics) ObserveHistoryPersistFailure() {
	if m == nil {
		return
	}
	m.historyPersistErrors.Inc()
}

func (m *DispatchMetrics) ObserveTimeToArrival(seconds float64) {
	if m == nil {
		return
	}
	m.dispatchLatency.Observe(seconds)
}

// AssistantMetrics counts chat replies by outcome.
type AssistantMetrics struct {
	repliesTotal *prometheus.CounterVec
	latency      prometheus.Histogram
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ambu",
			Subsystem: "assistant",
			Name:      "replies_total",
			Help:      "Assistant replies by outcome",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ambu",
			Subsystem: "assistant",
			Name:      "reply_latency_seconds",
			Help:      "Round trip time of assistant replies",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.repliesTotal, m.latency)
	return m
}

func (m *AssistantMetrics) ObserveReply(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(outcome).Inc()
	m.latency.Observe(seconds)
}
