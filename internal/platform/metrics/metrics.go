package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the raffle subsystem.
type Metrics struct {
	RegistrationsTotal         prometheus.Counter
	RegistrationConflictsTotal prometheus.Counter
	ExtraRequestsSubmitted     prometheus.Counter
	ExtraRequestsApproved      prometheus.Counter
	ExtraRequestsRejected      prometheus.Counter
	TicketsAllocatedTotal      prometheus.Counter
	DrawsTotal                 prometheus.Counter
	ResetsTotal                prometheus.Counter
	ParticipantsCurrent        prometheus.Gauge
	HTTPRequestDuration        *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rifa_registrations_total",
			Help: "Total number of successful participant registrations",
		}),
		RegistrationConflictsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rifa_registration_conflicts_total",
			Help: "Total number of registrations rejected due to number or contact conflicts",
		}),
		ExtraRequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rifa_extra_requests_submitted_total",
			Help: "Total number of extra-ticket requests submitted",
		}),
		ExtraRequestsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rifa_extra_requests_approved_total",
			Help: "Total number of extra-ticket requests approved",
		}),
		ExtraRequestsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rifa_extra_requests_rejected_total",
			Help: "Total number of extra-ticket requests rejected",
		}),
		TicketsAllocatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rifa_tickets_allocated_total",
			Help: "Total number of ticket numbers allocated, direct and extra",
		}),
		DrawsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rifa_draws_total",
			Help: "Total number of completed draws across cycles",
		}),
		ResetsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rifa_resets_total",
			Help: "Total number of cycle resets",
		}),
		ParticipantsCurrent: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rifa_participants_current",
			Help: "Current number of participant rows in the cycle",
		}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rifa_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) IncrementRegistrations() {
	if m != nil {
		m.RegistrationsTotal.Inc()
	}
}

func (m *Metrics) IncrementRegistrationConflicts() {
	if m != nil {
		m.RegistrationConflictsTotal.Inc()
	}
}

func (m *Metrics) IncrementRequestsSubmitted() {
	if m != nil {
		m.ExtraRequestsSubmitted.Inc()
	}
}

func (m *Metrics) IncrementRequestsApproved() {
	if m != nil {
		m.ExtraRequestsApproved.Inc()
	}
}

func (m *Metrics) IncrementRequestsRejected() {
	if m != nil {
		m.ExtraRequestsRejected.Inc()
	}
}

func (m *Metrics) AddTicketsAllocated(n int) {
	if m != nil {
		m.TicketsAllocatedTotal.Add(float64(n))
	}
}

func (m *Metrics) IncrementDraws() {
	if m != nil {
		m.DrawsTotal.Inc()
	}
}

func (m *Metrics) IncrementResets() {
	if m != nil {
		m.ResetsTotal.Inc()
	}
}

func (m *Metrics) SetParticipants(count int) {
	if m != nil {
		m.ParticipantsCurrent.Set(float64(count))
	}
}

func (m *Metrics) ObserveHTTPDuration(route, method string, seconds float64) {
	if m != nil {
		m.HTTPRequestDuration.WithLabelValues(route, method).Observe(seconds)
	}
}
