package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for availability computation.
type SchedulingMetrics struct {
	computeTotal   *prometheus.CounterVec
	computeLatency *prometheus.HistogramVec
	slotsOffered   prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		computeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psiclinic",
			Subsystem: "scheduling",
			Name:      "availability_compute_total",
			Help:      "Total availability computations",
		}, []string{"status"}),
		computeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "psiclinic",
			Subsystem: "scheduling",
			Name:      "availability_compute_seconds",
			Help:      "Latency of availability computation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		slotsOffered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "psiclinic",
			Subsystem: "scheduling",
			Name:      "slots_offered",
			Help:      "Slots offered per availability response",
			Buckets:   []float64{0, 5, 10, 20, 40, 80, 120},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.computeTotal, m.computeLatency, m.slotsOffered)
	return m
}

func (m *SchedulingMetrics) ObserveCompute(status string, seconds float64, slots int) {
	if m == nil {
		return
	}
	m.computeTotal.WithLabelValues(status).Inc()
	m.computeLatency.WithLabelValues(status).Observe(seconds)
	if status == "ok" {
		m.slotsOffered.Observe(float64(slots))
	}
}

// BookingMetrics exposes counters for the session lifecycle.
type BookingMetrics struct {
	bookedTotal      *prometheus.CounterVec
	slotConflicts    prometheus.Counter
	transitionsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psiclinic",
			Subsystem: "sessions",
			Name:      "booked_total",
			Help:      "Total booking attempts",
		}, []string{"status"}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "psiclinic",
			Subsystem: "sessions",
			Name:      "slot_conflicts_total",
			Help:      "Bookings rejected because the slot was taken",
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psiclinic",
			Subsystem: "sessions",
			Name:      "status_transitions_total",
			Help:      "Session status transitions",
		}, []string{"to"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookedTotal, m.slotConflicts, m.transitionsTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookedTotal.WithLabelValues(status).Inc()
	if status == "conflict" {
		m.slotConflicts.Inc()
	}
}

func (m *BookingMetrics) ObserveTransition(to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(to).Inc()
}

// IntakeMetrics exposes counters/histograms for the intake assistant.
type IntakeMetrics struct {
	turnsTotal *prometheus.CounterVec
	llmLatency prometheus.Histogram
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psiclinic",
			Subsystem: "intake",
			Name:      "turns_total",
			Help:      "Total intake conversation turns",
		}, []string{"status"}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "psiclinic",
			Subsystem: "intake",
			Name:      "llm_latency_seconds",
			Help:      "Latency of model completions",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.llmLatency)
	return m
}

func (m *IntakeMetrics) ObserveTurn(status string, llmSeconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(status).Inc()
	m.llmLatency.Observe(llmSeconds)
}
