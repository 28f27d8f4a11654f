package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics groups the collectors shared by the client, the orchestrators and
// the cart store. A nil *Metrics is valid and records nothing.
type Metrics struct {
	APIRequests         *prometheus.CounterVec
	APILatencyMS        *prometheus.HistogramVec
	CheckoutTransitions *prometheus.CounterVec
	CartMutations       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Backend API calls by endpoint and HTTP status.",
	}, []string{"endpoint", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_ms",
		Help:      "Backend API latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"endpoint"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "transitions_total",
		Help:      "Payment attempt state transitions by target state.",
	}, []string{"state"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      "mutations_total",
		Help:      "Persisted cart mutations by operation.",
	}, []string{"op"})

	reg.MustRegister(requests, latency, transitions, mutations)
	return &Metrics{
		APIRequests:         requests,
		APILatencyMS:        latency,
		CheckoutTransitions: transitions,
		CartMutations:       mutations,
	}
}

// ObserveAPI records one backend call. status 0 means no response.
func (m *Metrics) ObserveAPI(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.APILatencyMS.WithLabelValues(endpoint).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) CheckoutTransition(state string) {
	if m == nil {
		return
	}
	m.CheckoutTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) CartMutation(op string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(op).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
